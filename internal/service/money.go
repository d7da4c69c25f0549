package service

import "github.com/shopspring/decimal"

// moneyPlaces matches the scale of the decimal(20,2) balance and amount columns.
const moneyPlaces = 2

// isWholeCents reports whether d can be stored without rounding.
func isWholeCents(d decimal.Decimal) bool {
	return d.Equal(d.Round(moneyPlaces))
}

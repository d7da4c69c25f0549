package service

import (
	"crypto/rand"
	"math/big"
	"regexp"
	"strconv"
	"strings"

	"bankcards/internal/errors"
)

const (
	cardNumberLength = 16
	issuerPrefix     = "4000"
)

var cardNumberPattern = regexp.MustCompile(`^\d{16}$`)

// ValidateCardNumber checks that number is exactly 16 digits.
func ValidateCardNumber(number string) error {
	if !cardNumberPattern.MatchString(number) {
		return errors.InvalidCard("card number must be 16 digits")
	}
	return nil
}

// GenerateCardNumber returns a random 16 digit number with the issuer prefix
// and a valid Luhn check digit.
func GenerateCardNumber() (string, error) {
	var b strings.Builder
	b.WriteString(issuerPrefix)
	for b.Len() < cardNumberLength-1 {
		n, err := rand.Int(rand.Reader, big.NewInt(10))
		if err != nil {
			return "", err
		}
		b.WriteString(n.String())
	}
	partial := b.String()
	return partial + strconv.Itoa(luhnCheckDigit(partial)), nil
}

// luhnCheckDigit computes the digit that makes partial+digit pass the Luhn check.
func luhnCheckDigit(partial string) int {
	sum := 0
	double := true
	for i := len(partial) - 1; i >= 0; i-- {
		digit := int(partial[i] - '0')
		if double {
			digit *= 2
			if digit > 9 {
				digit -= 9
			}
		}
		sum += digit
		double = !double
	}
	return (10 - sum%10) % 10
}

// MaskCardNumber masks a card number, showing only the last 4 digits.
func MaskCardNumber(number string) string {
	if len(number) < 4 {
		return "****"
	}
	return "**** **** **** " + number[len(number)-4:]
}

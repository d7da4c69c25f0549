package model

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CardStatus is the lifecycle state of a card.
type CardStatus string

const (
	CardStatusActive  CardStatus = "ACTIVE"
	CardStatusBlocked CardStatus = "BLOCKED"
	CardStatusExpired CardStatus = "EXPIRED"
)

// ParseCardStatus parses a status name case-insensitively.
func ParseCardStatus(s string) (CardStatus, bool) {
	switch CardStatus(strings.ToUpper(strings.TrimSpace(s))) {
	case CardStatusActive:
		return CardStatusActive, true
	case CardStatusBlocked:
		return CardStatusBlocked, true
	case CardStatusExpired:
		return CardStatusExpired, true
	}
	return "", false
}

// Card represents a bank card account holding a balance.
type Card struct {
	ID             uint64          `json:"id" gorm:"primaryKey;autoIncrement"`
	Number         string          `json:"number" gorm:"size:16;not null;uniqueIndex"`
	Status         CardStatus      `json:"status" gorm:"type:varchar(16);not null;index"`
	Balance        decimal.Decimal `json:"balance" gorm:"type:decimal(20,2);not null;default:0"`
	ExpirationDate time.Time       `json:"expiration_date" gorm:"type:date;not null"`
	OwnerID        uuid.UUID       `json:"owner_id" gorm:"type:char(36);not null;index"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
}

// TableName overrides the gorm table name.
func (Card) TableName() string {
	return "cards"
}

// ExpiresBefore reports whether the card's expiration date falls strictly before day.
// Only the calendar date is compared.
func (c *Card) ExpiresBefore(day time.Time) bool {
	ey, em, ed := c.ExpirationDate.Date()
	dy, dm, dd := day.Date()
	if ey != dy {
		return ey < dy
	}
	if em != dm {
		return em < dm
	}
	return ed < dd
}

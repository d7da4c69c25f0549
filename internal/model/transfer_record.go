package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// TransferRecord is an immutable ledger entry written once per successful transfer.
type TransferRecord struct {
	ID             uint64          `json:"id" gorm:"primaryKey;autoIncrement"`
	FromCardID     uint64          `json:"from_card_id" gorm:"not null;index"`
	ToCardID       uint64          `json:"to_card_id" gorm:"not null;index"`
	FromCardNumber string          `json:"from_card_number" gorm:"size:16;not null"`
	ToCardNumber   string          `json:"to_card_number" gorm:"size:16;not null"`
	Amount         decimal.Decimal `json:"amount" gorm:"type:decimal(20,2);not null"`
	CreatedAt      time.Time       `json:"created_at" gorm:"not null"`
}

// TableName overrides the gorm table name.
func (TransferRecord) TableName() string {
	return "transactions"
}

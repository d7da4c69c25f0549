package repository

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"bankcards/internal/model"
)

// TransactionRepository is the append-only transfer log.
type TransactionRepository interface {
	Append(ctx context.Context, record *model.TransferRecord) error
	// FindByEitherCard returns records where either card is source or destination, oldest first.
	FindByEitherCard(ctx context.Context, cardA, cardB uint64) ([]model.TransferRecord, error)
}

type transactionRepository struct {
	db *gorm.DB
}

// NewTransactionRepository creates a new transaction repository.
func NewTransactionRepository(db *gorm.DB) TransactionRepository {
	return &transactionRepository{db: db}
}

// Append inserts a record and assigns its id.
func (r *transactionRepository) Append(ctx context.Context, record *model.TransferRecord) error {
	if err := r.db.WithContext(ctx).Create(record).Error; err != nil {
		return fmt.Errorf("append transfer record: %w", err)
	}
	return nil
}

// FindByEitherCard finds records touching cardA or cardB.
func (r *transactionRepository) FindByEitherCard(ctx context.Context, cardA, cardB uint64) ([]model.TransferRecord, error) {
	var records []model.TransferRecord
	err := r.db.WithContext(ctx).
		Where("from_card_id IN ? OR to_card_id IN ?", []uint64{cardA, cardB}, []uint64{cardA, cardB}).
		Order("id ASC").
		Find(&records).Error
	if err != nil {
		return nil, fmt.Errorf("find transfer records: %w", err)
	}
	return records, nil
}

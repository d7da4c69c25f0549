package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"
)

// ErrDuplicate is returned when a unique constraint is violated.
var ErrDuplicate = errors.New("duplicate key")

// Store is the unit of work over cards and the transaction log.
type Store interface {
	Cards() CardRepository
	Transactions() TransactionRepository
	// WithTransaction runs fn inside one transaction. Any error returned by fn
	// rolls back every write made through tx.
	WithTransaction(ctx context.Context, fn func(ctx context.Context, tx Store) error) error
}

type gormStore struct {
	db *gorm.DB
}

// NewStore creates a gorm backed store. The db should be opened with
// TranslateError enabled so unique violations surface as ErrDuplicate.
func NewStore(db *gorm.DB) Store {
	return &gormStore{db: db}
}

func (s *gormStore) Cards() CardRepository {
	return NewCardRepository(s.db)
}

func (s *gormStore) Transactions() TransactionRepository {
	return NewTransactionRepository(s.db)
}

// WithTransaction executes a function within a database transaction.
func (s *gormStore) WithTransaction(ctx context.Context, fn func(ctx context.Context, tx Store) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(ctx, &gormStore{db: tx})
	})
}

func translate(err error) error {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return ErrDuplicate
	}
	return err
}

package service

import (
	"context"
	"io"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/mock"

	"bankcards/internal/model"
	"bankcards/internal/repository"
)

// MockStore is a mock implementation of repository.Store. WithTransaction
// records the call and runs fn against the mock itself.
type MockStore struct {
	mock.Mock
	cards        *MockCardRepository
	transactions *MockTransactionRepository
}

func newMockStore() *MockStore {
	return &MockStore{
		cards:        new(MockCardRepository),
		transactions: new(MockTransactionRepository),
	}
}

func (m *MockStore) Cards() repository.CardRepository {
	return m.cards
}

func (m *MockStore) Transactions() repository.TransactionRepository {
	return m.transactions
}

func (m *MockStore) WithTransaction(ctx context.Context, fn func(ctx context.Context, tx repository.Store) error) error {
	args := m.Called(ctx)
	if err := args.Error(0); err != nil {
		return err
	}
	return fn(ctx, m)
}

// MockCardRepository is a mock implementation of repository.CardRepository.
type MockCardRepository struct {
	mock.Mock
}

func (m *MockCardRepository) Create(ctx context.Context, card *model.Card) error {
	args := m.Called(ctx, card)
	return args.Error(0)
}

func (m *MockCardRepository) Save(ctx context.Context, card *model.Card) error {
	args := m.Called(ctx, card)
	return args.Error(0)
}

func (m *MockCardRepository) SaveAll(ctx context.Context, cards []model.Card) error {
	args := m.Called(ctx, cards)
	return args.Error(0)
}

func (m *MockCardRepository) FindByID(ctx context.Context, id uint64) (*model.Card, bool, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Bool(1), args.Error(2)
	}
	return args.Get(0).(*model.Card), args.Bool(1), args.Error(2)
}

func (m *MockCardRepository) FindByNumber(ctx context.Context, number string) (*model.Card, bool, error) {
	args := m.Called(ctx, number)
	if args.Get(0) == nil {
		return nil, args.Bool(1), args.Error(2)
	}
	return args.Get(0).(*model.Card), args.Bool(1), args.Error(2)
}

func (m *MockCardRepository) FindAllByStatus(ctx context.Context, status model.CardStatus) ([]model.Card, error) {
	args := m.Called(ctx, status)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Card), args.Error(1)
}

func (m *MockCardRepository) LockByIDs(ctx context.Context, ids ...uint64) ([]model.Card, error) {
	args := m.Called(ctx, ids)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Card), args.Error(1)
}

func (m *MockCardRepository) Exists(ctx context.Context, id uint64) (bool, error) {
	args := m.Called(ctx, id)
	return args.Bool(0), args.Error(1)
}

func (m *MockCardRepository) DeleteByID(ctx context.Context, id uint64) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockCardRepository) ListByOwner(ctx context.Context, ownerID uuid.UUID, filter repository.CardFilter) ([]model.Card, int64, error) {
	args := m.Called(ctx, ownerID, filter)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).([]model.Card), args.Get(1).(int64), args.Error(2)
}

// MockTransactionRepository is a mock implementation of repository.TransactionRepository.
type MockTransactionRepository struct {
	mock.Mock
}

func (m *MockTransactionRepository) Append(ctx context.Context, record *model.TransferRecord) error {
	args := m.Called(ctx, record)
	return args.Error(0)
}

func (m *MockTransactionRepository) FindByEitherCard(ctx context.Context, cardA, cardB uint64) ([]model.TransferRecord, error) {
	args := m.Called(ctx, cardA, cardB)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.TransferRecord), args.Error(1)
}

type fixedClock struct {
	now time.Time
}

func (c fixedClock) Now() time.Time { return c.now }

func testLogger() logrus.FieldLogger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

package service

import (
	"context"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"bankcards/internal/cache"
	"bankcards/internal/errors"
	"bankcards/internal/model"
	"bankcards/internal/repository"
)

// TransferService moves funds between two cards and exposes the transfer history.
type TransferService interface {
	Transfer(ctx context.Context, fromNumber, toNumber string, amount decimal.Decimal) (*model.TransferRecord, error)
	TransactionsForCard(ctx context.Context, cardNumber string) ([]model.TransferRecord, error)
}

// TransferPolicy holds optional transfer restrictions.
type TransferPolicy struct {
	// RequireActiveCards rejects transfers touching a BLOCKED or EXPIRED card.
	RequireActiveCards bool
}

type transferService struct {
	store  repository.Store
	cache  *cache.Client
	policy TransferPolicy
	clock  Clock
	log    logrus.FieldLogger
}

// NewTransferService creates a new transfer service.
func NewTransferService(
	store repository.Store,
	cache *cache.Client,
	policy TransferPolicy,
	log logrus.FieldLogger,
) TransferService {
	return newTransferService(store, cache, policy, systemClock{}, log)
}

func newTransferService(
	store repository.Store,
	cache *cache.Client,
	policy TransferPolicy,
	clock Clock,
	log logrus.FieldLogger,
) *transferService {
	return &transferService{
		store:  store,
		cache:  cache,
		policy: policy,
		clock:  clock,
		log:    log,
	}
}

// Transfer debits fromNumber and credits toNumber by amount in one transaction
// and appends a ledger record. Both card rows are locked in ascending id order.
func (s *transferService) Transfer(ctx context.Context, fromNumber, toNumber string, amount decimal.Decimal) (*model.TransferRecord, error) {
	if fromNumber == toNumber {
		return nil, errors.ErrSameAccount
	}
	if !amount.IsPositive() || !isWholeCents(amount) {
		return nil, errors.ErrInvalidAmount
	}

	var record *model.TransferRecord
	err := s.store.WithTransaction(ctx, func(ctx context.Context, tx repository.Store) error {
		source, err := s.resolve(ctx, tx, "source", fromNumber)
		if err != nil {
			return err
		}
		destination, err := s.resolve(ctx, tx, "destination", toNumber)
		if err != nil {
			return err
		}

		locked, err := tx.Cards().LockByIDs(ctx, source.ID, destination.ID)
		if err != nil {
			return errors.Internal("lock cards", err)
		}
		byID := make(map[uint64]*model.Card, len(locked))
		for i := range locked {
			byID[locked[i].ID] = &locked[i]
		}
		// Re-read under lock; a concurrent delete makes the card disappear here.
		if source = byID[source.ID]; source == nil {
			return errors.CardNotFound("source", fromNumber)
		}
		if destination = byID[destination.ID]; destination == nil {
			return errors.CardNotFound("destination", toNumber)
		}

		if s.policy.RequireActiveCards {
			for _, card := range []*model.Card{source, destination} {
				if card.Status != model.CardStatusActive {
					return errors.CardNotActive(card.Number, string(card.Status))
				}
			}
		}

		if source.Balance.LessThan(amount) {
			return errors.InsufficientFunds(source.Number, source.Balance.StringFixed(2), amount.StringFixed(2))
		}

		source.Balance = source.Balance.Sub(amount)
		destination.Balance = destination.Balance.Add(amount)

		if err := tx.Cards().Save(ctx, source); err != nil {
			return errors.Internal("save source card", err)
		}
		if err := tx.Cards().Save(ctx, destination); err != nil {
			return errors.Internal("save destination card", err)
		}

		record = &model.TransferRecord{
			FromCardID:     source.ID,
			ToCardID:       destination.ID,
			FromCardNumber: source.Number,
			ToCardNumber:   destination.Number,
			Amount:         amount,
			CreatedAt:      s.clock.Now(),
		}
		if err := tx.Transactions().Append(ctx, record); err != nil {
			return errors.Internal("append transfer record", err)
		}
		return nil
	})
	if err != nil {
		err = errors.Classify("transfer", err)
		entry := s.log.WithFields(logrus.Fields{
			"from":   MaskCardNumber(fromNumber),
			"to":     MaskCardNumber(toNumber),
			"amount": amount.String(),
		})
		if errors.KindOf(err) == errors.KindInternal {
			entry.WithError(err).Error("transfer failed")
		} else {
			entry.WithField("reason", err.Error()).Info("transfer rejected")
		}
		return nil, err
	}

	s.cache.Invalidate(ctx, cardCacheRedelete, cache.CardKey(record.FromCardID), cache.CardKey(record.ToCardID))

	s.log.WithFields(logrus.Fields{
		"transfer_id": record.ID,
		"from":        record.FromCardID,
		"to":          record.ToCardID,
		"amount":      amount.String(),
	}).Info("transfer completed")

	return record, nil
}

func (s *transferService) resolve(ctx context.Context, tx repository.Store, role, number string) (*model.Card, error) {
	card, ok, err := tx.Cards().FindByNumber(ctx, number)
	if err != nil {
		return nil, errors.Internal("find "+role+" card", err)
	}
	if !ok {
		return nil, errors.CardNotFound(role, number)
	}
	return card, nil
}

// TransactionsForCard returns every transfer the card took part in, oldest first.
func (s *transferService) TransactionsForCard(ctx context.Context, cardNumber string) ([]model.TransferRecord, error) {
	card, ok, err := s.store.Cards().FindByNumber(ctx, cardNumber)
	if err != nil {
		return nil, errors.Internal("find card", err)
	}
	if !ok {
		return nil, errors.CardNotFound("", cardNumber)
	}

	records, err := s.store.Transactions().FindByEitherCard(ctx, card.ID, card.ID)
	if err != nil {
		return nil, errors.Internal("load transfer history", err)
	}
	return records, nil
}

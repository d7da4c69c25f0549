package service

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"bankcards/internal/cache"
	"bankcards/internal/errors"
	"bankcards/internal/model"
	"bankcards/internal/repository"
)

const sweepLockKey = "lock:expiration-sweep"

// SweepResult summarises one expiration pass.
type SweepResult struct {
	Checked int  `json:"checked"`
	Expired int  `json:"expired"`
	Skipped bool `json:"skipped"`
}

// ExpirationSweeper marks ACTIVE cards past their expiration date as EXPIRED
// and zeroes their balance.
type ExpirationSweeper struct {
	store    repository.Store
	cache    *cache.Client
	clock    Clock
	location *time.Location
	lockTTL  time.Duration
	log      logrus.FieldLogger
}

// NewExpirationSweeper creates a sweeper that decides "today" in location.
func NewExpirationSweeper(
	store repository.Store,
	cache *cache.Client,
	location *time.Location,
	lockTTL time.Duration,
	log logrus.FieldLogger,
) *ExpirationSweeper {
	return newExpirationSweeper(store, cache, systemClock{}, location, lockTTL, log)
}

func newExpirationSweeper(
	store repository.Store,
	cache *cache.Client,
	clock Clock,
	location *time.Location,
	lockTTL time.Duration,
	log logrus.FieldLogger,
) *ExpirationSweeper {
	if location == nil {
		location = time.UTC
	}
	return &ExpirationSweeper{
		store:    store,
		cache:    cache,
		clock:    clock,
		location: location,
		lockTTL:  lockTTL,
		log:      log,
	}
}

// RunExpirationSweep expires every ACTIVE card whose expiration date is
// strictly before today. All updates are written in one batch, or none are.
// Running it again on the same day changes nothing.
func (s *ExpirationSweeper) RunExpirationSweep(ctx context.Context) (SweepResult, error) {
	token, ok := s.cache.TryLock(ctx, sweepLockKey, s.lockTTL)
	if !ok {
		s.log.Info("expiration sweep already running elsewhere, skipping")
		return SweepResult{Skipped: true}, nil
	}
	defer s.cache.Unlock(context.WithoutCancel(ctx), sweepLockKey, token)

	active, err := s.store.Cards().FindAllByStatus(ctx, model.CardStatusActive)
	if err != nil {
		err = errors.Internal("load active cards", err)
		s.log.WithError(err).Error("expiration sweep failed")
		return SweepResult{}, err
	}

	result := SweepResult{Checked: len(active)}
	today := s.clock.Now().In(s.location)

	var due []uint64
	for i := range active {
		if active[i].ExpiresBefore(today) {
			due = append(due, active[i].ID)
		}
	}
	if len(due) == 0 {
		s.log.WithField("checked", result.Checked).Info("expiration sweep found no cards to expire")
		return result, nil
	}

	var expired []model.Card
	err = s.store.WithTransaction(ctx, func(ctx context.Context, tx repository.Store) error {
		locked, err := tx.Cards().LockByIDs(ctx, due...)
		if err != nil {
			return errors.Internal("lock expiring cards", err)
		}
		for _, card := range locked {
			// A concurrent status change committed first.
			if card.Status != model.CardStatusActive {
				continue
			}
			if !card.Balance.IsZero() {
				s.log.WithFields(logrus.Fields{
					"card_id":   card.ID,
					"forfeited": card.Balance.StringFixed(2),
				}).Warn("expiring card with non-zero balance")
			}
			card.Status = model.CardStatusExpired
			card.Balance = decimal.Zero
			expired = append(expired, card)
		}
		if err := tx.Cards().SaveAll(ctx, expired); err != nil {
			return errors.Internal("save expired cards", err)
		}
		return nil
	})
	if err != nil {
		err = errors.Classify("expiration sweep", err)
		s.log.WithError(err).Error("expiration sweep failed")
		return SweepResult{Checked: result.Checked}, err
	}

	keys := make([]string, 0, len(expired))
	for _, card := range expired {
		keys = append(keys, cache.CardKey(card.ID))
	}
	s.cache.Invalidate(ctx, cardCacheRedelete, keys...)

	result.Expired = len(expired)
	s.log.WithFields(logrus.Fields{
		"checked": result.Checked,
		"expired": result.Expired,
	}).Info("expiration sweep completed")
	return result, nil
}

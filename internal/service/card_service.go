package service

import (
	"context"
	stderrors "errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"bankcards/internal/cache"
	"bankcards/internal/errors"
	"bankcards/internal/model"
	"bankcards/internal/repository"
)

const (
	cardCacheTTL        = time.Minute
	cardCacheRedelete   = 500 * time.Millisecond
	defaultPageSize     = 20
	maxPageSize         = 100
	numberGenerateTries = 5
)

// CardService manages the card lifecycle.
type CardService interface {
	CreateCard(ctx context.Context, in CreateCardInput) (*model.Card, error)
	GetCard(ctx context.Context, id uint64) (*model.Card, error)
	ListOwnerCards(ctx context.Context, ownerID uuid.UUID, filter CardListFilter) (*CardPage, error)
	ChangeStatus(ctx context.Context, id uint64, requested string) (*model.Card, error)
	Balance(ctx context.Context, id uint64) (decimal.Decimal, error)
	DeleteCard(ctx context.Context, id uint64) error
}

// CreateCardInput describes a new card. An empty Number is generated and an
// empty Status defaults to ACTIVE.
type CreateCardInput struct {
	OwnerID        uuid.UUID
	Number         string
	Status         string
	Balance        decimal.Decimal
	ExpirationDate time.Time
}

// CardListFilter selects a page of an owner's cards. Page is zero based.
type CardListFilter struct {
	Search string
	Status string
	Page   int
	Size   int
}

// CardPage is one page of cards with the total number of matches.
type CardPage struct {
	Items []model.Card `json:"items"`
	Total int64        `json:"total"`
	Page  int          `json:"page"`
	Size  int          `json:"size"`
}

type cardService struct {
	store repository.Store
	cache *cache.Client
	log   logrus.FieldLogger
}

// NewCardService creates a new card service.
func NewCardService(store repository.Store, cache *cache.Client, log logrus.FieldLogger) CardService {
	return &cardService{
		store: store,
		cache: cache,
		log:   log,
	}
}

// CreateCard creates a card with the given owner, status, balance and expiration date.
func (s *cardService) CreateCard(ctx context.Context, in CreateCardInput) (*model.Card, error) {
	status := model.CardStatusActive
	if in.Status != "" {
		parsed, ok := model.ParseCardStatus(in.Status)
		if !ok || parsed == model.CardStatusExpired {
			return nil, errors.InvalidStatus(in.Status)
		}
		status = parsed
	}
	if in.OwnerID == uuid.Nil {
		return nil, errors.InvalidCard("owner is required")
	}
	if in.Balance.IsNegative() {
		return nil, errors.InvalidCard("balance must not be negative")
	}
	if !isWholeCents(in.Balance) {
		return nil, errors.InvalidCard("balance must have at most two decimal places")
	}
	if in.ExpirationDate.IsZero() {
		return nil, errors.InvalidCard("expiration date is required")
	}
	if in.Number != "" {
		if err := ValidateCardNumber(in.Number); err != nil {
			return nil, err
		}
	}

	card := &model.Card{
		Number:         in.Number,
		Status:         status,
		Balance:        in.Balance,
		ExpirationDate: in.ExpirationDate,
		OwnerID:        in.OwnerID,
	}

	for attempt := 0; ; attempt++ {
		if in.Number == "" {
			number, err := GenerateCardNumber()
			if err != nil {
				return nil, errors.Internal("generate card number", err)
			}
			card.Number = number
		}
		err := s.store.Cards().Create(ctx, card)
		if err == nil {
			break
		}
		if !stderrors.Is(err, repository.ErrDuplicate) {
			return nil, errors.Internal("create card", err)
		}
		if in.Number != "" || attempt+1 >= numberGenerateTries {
			return nil, errors.ErrCardNumberTaken
		}
	}

	s.log.WithFields(logrus.Fields{
		"card_id":  card.ID,
		"owner_id": card.OwnerID,
		"status":   card.Status,
	}).Info("card created")
	return card, nil
}

// GetCard returns a card by id, served from cache when possible.
func (s *cardService) GetCard(ctx context.Context, id uint64) (*model.Card, error) {
	key := cache.CardKey(id)
	var cached model.Card
	if s.cache.GetJSON(ctx, key, &cached) {
		return &cached, nil
	}

	card, err := s.findCard(ctx, id)
	if err != nil {
		return nil, err
	}
	_ = s.cache.SetJSON(ctx, key, card, cardCacheTTL)
	return card, nil
}

// ListOwnerCards returns a page of the owner's cards, newest first.
func (s *cardService) ListOwnerCards(ctx context.Context, ownerID uuid.UUID, filter CardListFilter) (*CardPage, error) {
	var status model.CardStatus
	if filter.Status != "" {
		parsed, ok := model.ParseCardStatus(filter.Status)
		if !ok {
			return nil, errors.InvalidStatus(filter.Status)
		}
		status = parsed
	}
	page := max(filter.Page, 0)
	size := filter.Size
	if size <= 0 {
		size = defaultPageSize
	}
	size = min(size, maxPageSize)

	cards, total, err := s.store.Cards().ListByOwner(ctx, ownerID, repository.CardFilter{
		Search: filter.Search,
		Status: status,
		Offset: page * size,
		Limit:  size,
	})
	if err != nil {
		return nil, errors.Internal("list owner cards", err)
	}
	if cards == nil {
		cards = []model.Card{}
	}
	return &CardPage{Items: cards, Total: total, Page: page, Size: size}, nil
}

// ChangeStatus moves a card between ACTIVE and BLOCKED. Expired cards are terminal.
func (s *cardService) ChangeStatus(ctx context.Context, id uint64, requested string) (*model.Card, error) {
	target, ok := model.ParseCardStatus(requested)
	if !ok || target == model.CardStatusExpired {
		return nil, errors.InvalidStatus(requested)
	}

	var updated *model.Card
	err := s.store.WithTransaction(ctx, func(ctx context.Context, tx repository.Store) error {
		locked, err := tx.Cards().LockByIDs(ctx, id)
		if err != nil {
			return errors.Internal("lock card", err)
		}
		if len(locked) == 0 {
			return errors.EntityNotFound("card", id)
		}
		card := &locked[0]

		switch {
		case card.Status == model.CardStatusExpired:
			return errors.ErrExpiredCardTransition
		case card.Status == target:
			return errors.StatusUnchanged(string(target))
		}

		card.Status = target
		if err := tx.Cards().Save(ctx, card); err != nil {
			return errors.Internal("save card", err)
		}
		updated = card
		return nil
	})
	if err != nil {
		return nil, errors.Classify("change card status", err)
	}

	s.cache.Invalidate(ctx, cardCacheRedelete, cache.CardKey(id))
	s.log.WithFields(logrus.Fields{
		"card_id": id,
		"status":  updated.Status,
	}).Info("card status changed")
	return updated, nil
}

// Balance returns the balance of an active card, read straight from the store.
func (s *cardService) Balance(ctx context.Context, id uint64) (decimal.Decimal, error) {
	card, err := s.findCard(ctx, id)
	if err != nil {
		return decimal.Zero, err
	}
	switch card.Status {
	case model.CardStatusBlocked:
		return decimal.Zero, errors.ErrBlockedCardBalance
	case model.CardStatusExpired:
		return decimal.Zero, errors.ErrExpiredCardBalance
	}
	return card.Balance, nil
}

// DeleteCard removes a card. Its transfer history is kept.
func (s *cardService) DeleteCard(ctx context.Context, id uint64) error {
	exists, err := s.store.Cards().Exists(ctx, id)
	if err != nil {
		return errors.Internal("check card", err)
	}
	if !exists {
		return errors.EntityNotFound("card", id)
	}
	if err := s.store.Cards().DeleteByID(ctx, id); err != nil {
		return errors.Internal("delete card", err)
	}

	s.cache.Invalidate(ctx, cardCacheRedelete, cache.CardKey(id))
	s.log.WithField("card_id", id).Info("card deleted")
	return nil
}

func (s *cardService) findCard(ctx context.Context, id uint64) (*model.Card, error) {
	card, ok, err := s.store.Cards().FindByID(ctx, id)
	if err != nil {
		return nil, errors.Internal("find card", err)
	}
	if !ok {
		return nil, errors.EntityNotFound("card", id)
	}
	return card, nil
}

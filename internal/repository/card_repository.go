package repository

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"bankcards/internal/model"
)

// CardFilter narrows an owner's card listing.
type CardFilter struct {
	Search string
	Status model.CardStatus
	Offset int
	Limit  int
}

// CardRepository defines card persistence operations.
type CardRepository interface {
	Create(ctx context.Context, card *model.Card) error
	Save(ctx context.Context, card *model.Card) error
	SaveAll(ctx context.Context, cards []model.Card) error
	FindByID(ctx context.Context, id uint64) (*model.Card, bool, error)
	FindByNumber(ctx context.Context, number string) (*model.Card, bool, error)
	FindAllByStatus(ctx context.Context, status model.CardStatus) ([]model.Card, error)
	// LockByIDs row-locks the given cards one at a time in ascending id order
	// and returns them in that order. Ids without a row are skipped.
	LockByIDs(ctx context.Context, ids ...uint64) ([]model.Card, error)
	Exists(ctx context.Context, id uint64) (bool, error)
	DeleteByID(ctx context.Context, id uint64) error
	ListByOwner(ctx context.Context, ownerID uuid.UUID, filter CardFilter) ([]model.Card, int64, error)
}

type cardRepository struct {
	db *gorm.DB
}

// NewCardRepository creates a new card repository.
func NewCardRepository(db *gorm.DB) CardRepository {
	return &cardRepository{db: db}
}

// Create inserts a new card.
func (r *cardRepository) Create(ctx context.Context, card *model.Card) error {
	if err := r.db.WithContext(ctx).Create(card).Error; err != nil {
		return fmt.Errorf("create card: %w", translate(err))
	}
	return nil
}

// Save upserts a card.
func (r *cardRepository) Save(ctx context.Context, card *model.Card) error {
	if err := r.db.WithContext(ctx).Save(card).Error; err != nil {
		return fmt.Errorf("save card %d: %w", card.ID, translate(err))
	}
	return nil
}

// SaveAll upserts all cards in one batch.
func (r *cardRepository) SaveAll(ctx context.Context, cards []model.Card) error {
	if len(cards) == 0 {
		return nil
	}
	if err := r.db.WithContext(ctx).Save(&cards).Error; err != nil {
		return fmt.Errorf("save %d cards: %w", len(cards), translate(err))
	}
	return nil
}

// FindByID finds a card by ID.
func (r *cardRepository) FindByID(ctx context.Context, id uint64) (*model.Card, bool, error) {
	return first(r.db.WithContext(ctx).Where("id = ?", id))
}

// FindByNumber finds a card by its 16 digit number.
func (r *cardRepository) FindByNumber(ctx context.Context, number string) (*model.Card, bool, error) {
	return first(r.db.WithContext(ctx).Where("number = ?", number))
}

func first(q *gorm.DB) (*model.Card, bool, error) {
	var card model.Card
	if err := q.First(&card).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("find card: %w", err)
	}
	return &card, true, nil
}

// FindAllByStatus returns every card in the given status ordered by id.
func (r *cardRepository) FindAllByStatus(ctx context.Context, status model.CardStatus) ([]model.Card, error) {
	var cards []model.Card
	if err := r.db.WithContext(ctx).Where("status = ?", status).Order("id ASC").Find(&cards).Error; err != nil {
		return nil, fmt.Errorf("find cards by status %s: %w", status, err)
	}
	return cards, nil
}

// LockByIDs locks rows with SELECT ... FOR UPDATE in ascending id order.
func (r *cardRepository) LockByIDs(ctx context.Context, ids ...uint64) ([]model.Card, error) {
	ordered := slices.Clone(ids)
	slices.Sort(ordered)
	ordered = slices.Compact(ordered)

	cards := make([]model.Card, 0, len(ordered))
	for _, id := range ordered {
		var card model.Card
		err := r.db.WithContext(ctx).
			Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("id = ?", id).
			First(&card).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("lock card %d: %w", id, err)
		}
		cards = append(cards, card)
	}
	return cards, nil
}

// Exists reports whether a card with id exists.
func (r *cardRepository) Exists(ctx context.Context, id uint64) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&model.Card{}).Where("id = ?", id).Count(&count).Error; err != nil {
		return false, fmt.Errorf("count card %d: %w", id, err)
	}
	return count > 0, nil
}

// DeleteByID removes a card.
func (r *cardRepository) DeleteByID(ctx context.Context, id uint64) error {
	if err := r.db.WithContext(ctx).Delete(&model.Card{}, id).Error; err != nil {
		return fmt.Errorf("delete card %d: %w", id, err)
	}
	return nil
}

// ListByOwner returns a page of the owner's cards, newest first, and the total match count.
func (r *cardRepository) ListByOwner(ctx context.Context, ownerID uuid.UUID, filter CardFilter) ([]model.Card, int64, error) {
	q := r.db.WithContext(ctx).Model(&model.Card{}).Where("owner_id = ?", ownerID)
	if filter.Search != "" {
		q = q.Where("number LIKE ?", "%"+filter.Search+"%")
	}
	if filter.Status != "" {
		q = q.Where("status = ?", filter.Status)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("count owner cards: %w", err)
	}

	var cards []model.Card
	if err := q.Order("id DESC").Offset(filter.Offset).Limit(filter.Limit).Find(&cards).Error; err != nil {
		return nil, 0, fmt.Errorf("list owner cards: %w", err)
	}
	return cards, total, nil
}

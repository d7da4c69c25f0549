// Package memory implements repository.Store in process memory. Every
// operation is serialized under one mutex; a transaction holds the mutex for
// its whole duration and restores a snapshot of the data when it fails.
package memory

import (
	"context"
	"maps"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"bankcards/internal/model"
	"bankcards/internal/repository"
)

type dataset struct {
	cards        map[uint64]model.Card
	byNumber     map[string]uint64
	records      []model.TransferRecord
	nextCardID   uint64
	nextRecordID uint64
}

func newDataset() *dataset {
	return &dataset{
		cards:    make(map[uint64]model.Card),
		byNumber: make(map[string]uint64),
	}
}

func (d *dataset) clone() *dataset {
	return &dataset{
		cards:        maps.Clone(d.cards),
		byNumber:     maps.Clone(d.byNumber),
		records:      slices.Clone(d.records),
		nextCardID:   d.nextCardID,
		nextRecordID: d.nextRecordID,
	}
}

// Store is an in-memory repository.Store.
type Store struct {
	mu   *sync.Mutex
	data *dataset
	inTx bool
	now  func() time.Time
}

// New creates an empty store.
func New() *Store {
	return &Store{mu: &sync.Mutex{}, data: newDataset(), now: time.Now}
}

// guard locks the store unless the caller already runs inside a transaction.
func (s *Store) guard() func() {
	if s.inTx {
		return func() {}
	}
	s.mu.Lock()
	return s.mu.Unlock
}

func (s *Store) Cards() repository.CardRepository {
	return cardStore{s}
}

func (s *Store) Transactions() repository.TransactionRepository {
	return recordStore{s}
}

// WithTransaction runs fn with exclusive access to the store. Nested calls
// join the outer transaction.
func (s *Store) WithTransaction(ctx context.Context, fn func(ctx context.Context, tx repository.Store) error) (err error) {
	if s.inTx {
		return fn(ctx, s)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	snapshot := s.data.clone()
	defer func() {
		if r := recover(); r != nil {
			*s.data = *snapshot
			panic(r)
		}
		if err != nil {
			*s.data = *snapshot
		}
	}()

	return fn(ctx, &Store{mu: s.mu, data: s.data, inTx: true, now: s.now})
}

type cardStore struct{ s *Store }

func (c cardStore) Create(_ context.Context, card *model.Card) error {
	defer c.s.guard()()
	d := c.s.data
	if _, taken := d.byNumber[card.Number]; taken {
		return repository.ErrDuplicate
	}
	d.nextCardID++
	card.ID = d.nextCardID
	now := c.s.now()
	if card.CreatedAt.IsZero() {
		card.CreatedAt = now
	}
	card.UpdatedAt = now
	d.cards[card.ID] = *card
	d.byNumber[card.Number] = card.ID
	return nil
}

func (c cardStore) Save(ctx context.Context, card *model.Card) error {
	if card.ID == 0 {
		return c.Create(ctx, card)
	}
	defer c.s.guard()()
	return c.s.data.put(card, c.s.now())
}

func (c cardStore) SaveAll(_ context.Context, cards []model.Card) error {
	defer c.s.guard()()
	now := c.s.now()
	for i := range cards {
		if err := c.s.data.put(&cards[i], now); err != nil {
			return err
		}
	}
	return nil
}

func (d *dataset) put(card *model.Card, now time.Time) error {
	if owner, taken := d.byNumber[card.Number]; taken && owner != card.ID {
		return repository.ErrDuplicate
	}
	if prev, ok := d.cards[card.ID]; ok {
		if prev.Number != card.Number {
			delete(d.byNumber, prev.Number)
		}
		if card.CreatedAt.IsZero() {
			card.CreatedAt = prev.CreatedAt
		}
	} else if card.CreatedAt.IsZero() {
		card.CreatedAt = now
	}
	if card.ID > d.nextCardID {
		d.nextCardID = card.ID
	}
	card.UpdatedAt = now
	d.cards[card.ID] = *card
	d.byNumber[card.Number] = card.ID
	return nil
}

func (c cardStore) FindByID(_ context.Context, id uint64) (*model.Card, bool, error) {
	defer c.s.guard()()
	card, ok := c.s.data.cards[id]
	if !ok {
		return nil, false, nil
	}
	return &card, true, nil
}

func (c cardStore) FindByNumber(_ context.Context, number string) (*model.Card, bool, error) {
	defer c.s.guard()()
	id, ok := c.s.data.byNumber[number]
	if !ok {
		return nil, false, nil
	}
	card := c.s.data.cards[id]
	return &card, true, nil
}

func (c cardStore) FindAllByStatus(_ context.Context, status model.CardStatus) ([]model.Card, error) {
	defer c.s.guard()()
	var out []model.Card
	for _, card := range c.s.data.cards {
		if card.Status == status {
			out = append(out, card)
		}
	}
	slices.SortFunc(out, byIDAsc)
	return out, nil
}

// LockByIDs returns the existing cards in ascending id order. Outside a
// transaction it only provides a consistent read.
func (c cardStore) LockByIDs(_ context.Context, ids ...uint64) ([]model.Card, error) {
	defer c.s.guard()()
	ordered := slices.Clone(ids)
	slices.Sort(ordered)
	ordered = slices.Compact(ordered)

	out := make([]model.Card, 0, len(ordered))
	for _, id := range ordered {
		if card, ok := c.s.data.cards[id]; ok {
			out = append(out, card)
		}
	}
	return out, nil
}

func (c cardStore) Exists(_ context.Context, id uint64) (bool, error) {
	defer c.s.guard()()
	_, ok := c.s.data.cards[id]
	return ok, nil
}

func (c cardStore) DeleteByID(_ context.Context, id uint64) error {
	defer c.s.guard()()
	card, ok := c.s.data.cards[id]
	if !ok {
		return nil
	}
	delete(c.s.data.cards, id)
	delete(c.s.data.byNumber, card.Number)
	return nil
}

func (c cardStore) ListByOwner(_ context.Context, ownerID uuid.UUID, filter repository.CardFilter) ([]model.Card, int64, error) {
	defer c.s.guard()()
	var matched []model.Card
	for _, card := range c.s.data.cards {
		if card.OwnerID != ownerID {
			continue
		}
		if filter.Search != "" && !strings.Contains(card.Number, filter.Search) {
			continue
		}
		if filter.Status != "" && card.Status != filter.Status {
			continue
		}
		matched = append(matched, card)
	}
	slices.SortFunc(matched, func(a, b model.Card) int { return byIDAsc(b, a) })

	total := int64(len(matched))
	start := min(max(filter.Offset, 0), len(matched))
	end := len(matched)
	if filter.Limit > 0 {
		end = min(start+filter.Limit, len(matched))
	}
	return slices.Clone(matched[start:end]), total, nil
}

func byIDAsc(a, b model.Card) int {
	switch {
	case a.ID < b.ID:
		return -1
	case a.ID > b.ID:
		return 1
	}
	return 0
}

type recordStore struct{ s *Store }

func (r recordStore) Append(_ context.Context, record *model.TransferRecord) error {
	defer r.s.guard()()
	d := r.s.data
	d.nextRecordID++
	record.ID = d.nextRecordID
	if record.CreatedAt.IsZero() {
		record.CreatedAt = r.s.now()
	}
	d.records = append(d.records, *record)
	return nil
}

func (r recordStore) FindByEitherCard(_ context.Context, cardA, cardB uint64) ([]model.TransferRecord, error) {
	defer r.s.guard()()
	var out []model.TransferRecord
	for _, rec := range r.s.data.records {
		if rec.FromCardID == cardA || rec.ToCardID == cardA || rec.FromCardID == cardB || rec.ToCardID == cardB {
			out = append(out, rec)
		}
	}
	return out, nil
}

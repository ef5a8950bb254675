package store

import (
	"context"
	"sort"
	"sync"

	"bazaar/internal/catalog/models"
	"bazaar/pkg/domain"
	"bazaar/pkg/platform/sentinel"
)

// InMemory keeps catalog items in a map guarded by a RWMutex. Copies go in
// and out so callers can never mutate stored state behind the lock.
type InMemory struct {
	mu    sync.RWMutex
	items map[domain.ItemID]*models.Item
}

func NewInMemory() *InMemory {
	return &InMemory{items: make(map[domain.ItemID]*models.Item)}
}

func (s *InMemory) Create(_ context.Context, item *models.Item) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.items[item.ID]; exists {
		return sentinel.ErrConflict
	}
	clone := *item
	s.items[item.ID] = &clone
	return nil
}

func (s *InMemory) FindByID(_ context.Context, id domain.ItemID) (*models.Item, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	item, ok := s.items[id]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	clone := *item
	return &clone, nil
}

func (s *InMemory) List(_ context.Context, filter models.ListFilter) ([]*models.Item, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*models.Item, 0, len(s.items))
	for _, item := range s.items {
		if !filter.Matches(item) {
			continue
		}
		clone := *item
		out = append(out, &clone)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID.String() < out[j].ID.String()
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

// DeleteIfPresent removes the item and reports whether this call removed it.
// Exactly one concurrent caller observes the removal; everyone else gets
// ErrNotFound. This is the commit point for a sale.
func (s *InMemory) DeleteIfPresent(_ context.Context, id domain.ItemID) (*models.Item, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	item, ok := s.items[id]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	delete(s.items, id)
	clone := *item
	return &clone, nil
}

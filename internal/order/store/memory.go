package store

import (
	"context"
	"sort"
	"sync"

	"bazaar/internal/order/models"
	"bazaar/pkg/domain"
	"bazaar/pkg/platform/sentinel"
)

// InMemory keeps orders in a map guarded by a RWMutex. State transitions go
// through Execute so the validation and the mutation happen under one lock.
type InMemory struct {
	mu     sync.RWMutex
	orders map[domain.OrderID]*models.Order
}

func NewInMemory() *InMemory {
	return &InMemory{orders: make(map[domain.OrderID]*models.Order)}
}

func (s *InMemory) Create(_ context.Context, order *models.Order) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.orders[order.ID]; exists {
		return sentinel.ErrConflict
	}
	clone := *order
	s.orders[order.ID] = &clone
	return nil
}

func (s *InMemory) FindByID(_ context.Context, id domain.OrderID) (*models.Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	order, ok := s.orders[id]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	clone := *order
	return &clone, nil
}

// Execute runs fn against the stored order under the write lock. If fn
// returns an error the order is left untouched; otherwise the mutated copy
// replaces the stored one and is returned.
func (s *InMemory) Execute(_ context.Context, id domain.OrderID, fn func(order *models.Order) error) (*models.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored, ok := s.orders[id]
	if !ok {
		return nil, sentinel.ErrNotFound
	}

	working := *stored
	if err := fn(&working); err != nil {
		return nil, err
	}
	s.orders[id] = &working

	clone := working
	return &clone, nil
}

func (s *InMemory) ListByBuyer(_ context.Context, buyerID domain.MemberID, status models.Status) ([]*models.Order, error) {
	return s.list(func(o *models.Order) bool {
		return o.BuyerID == buyerID && o.Status == status
	}), nil
}

func (s *InMemory) ListBySeller(_ context.Context, sellerID domain.MemberID, status models.Status) ([]*models.Order, error) {
	return s.list(func(o *models.Order) bool {
		return o.SellerID == sellerID && o.Status == status
	}), nil
}

func (s *InMemory) list(match func(*models.Order) bool) []*models.Order {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*models.Order, 0)
	for _, order := range s.orders {
		if !match(order) {
			continue
		}
		clone := *order
		out = append(out, &clone)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID.String() < out[j].ID.String()
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out
}

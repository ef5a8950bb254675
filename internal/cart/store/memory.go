package store

import (
	"context"
	"sync"

	"bazaar/pkg/domain"
	"bazaar/pkg/platform/sentinel"
)

// InMemory keeps one item set per member, guarded by a single RWMutex.
// Carts hold references only; resolution against the catalog is the
// service's job.
type InMemory struct {
	mu    sync.RWMutex
	carts map[domain.MemberID]map[domain.ItemID]struct{}
}

func NewInMemory() *InMemory {
	return &InMemory{carts: make(map[domain.MemberID]map[domain.ItemID]struct{})}
}

// Add inserts the reference and reports whether this call inserted it.
// A false return with a nil error means the item was already in the cart.
func (s *InMemory) Add(_ context.Context, memberID domain.MemberID, itemID domain.ItemID) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cart, ok := s.carts[memberID]
	if !ok {
		cart = make(map[domain.ItemID]struct{})
		s.carts[memberID] = cart
	}
	if _, exists := cart[itemID]; exists {
		return false, nil
	}
	cart[itemID] = struct{}{}
	return true, nil
}

func (s *InMemory) Remove(_ context.Context, memberID domain.MemberID, itemID domain.ItemID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cart, ok := s.carts[memberID]
	if !ok {
		return sentinel.ErrNotFound
	}
	if _, exists := cart[itemID]; !exists {
		return sentinel.ErrNotFound
	}
	delete(cart, itemID)
	return nil
}

func (s *InMemory) List(_ context.Context, memberID domain.MemberID) ([]domain.ItemID, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	cart := s.carts[memberID]
	out := make([]domain.ItemID, 0, len(cart))
	for itemID := range cart {
		out = append(out, itemID)
	}
	return out, nil
}

func (s *InMemory) Clear(_ context.Context, memberID domain.MemberID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.carts, memberID)
	return nil
}

// PurgeItem removes the reference from every member's cart.
func (s *InMemory) PurgeItem(_ context.Context, itemID domain.ItemID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, cart := range s.carts {
		delete(cart, itemID)
	}
	return nil
}

package store

import (
	"context"
	"strings"
	"sync"

	"bazaar/internal/directory/models"
	"bazaar/pkg/domain"
	"bazaar/pkg/platform/sentinel"
)

// InMemory keeps members in a map guarded by a RWMutex. Email uniqueness is
// case-insensitive. Copies go in and out so callers can never mutate stored
// state behind the lock.
type InMemory struct {
	mu      sync.RWMutex
	members map[domain.MemberID]*models.Member
	byEmail map[string]domain.MemberID
}

func NewInMemory() *InMemory {
	return &InMemory{
		members: make(map[domain.MemberID]*models.Member),
		byEmail: make(map[string]domain.MemberID),
	}
}

func (s *InMemory) CreateIfEmailAvailable(_ context.Context, member *models.Member) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := emailKey(member.Email)
	if _, taken := s.byEmail[key]; taken {
		return sentinel.ErrConflict
	}

	clone := *member
	s.members[member.ID] = &clone
	s.byEmail[key] = member.ID
	return nil
}

func (s *InMemory) FindByID(_ context.Context, id domain.MemberID) (*models.Member, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	member, ok := s.members[id]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	clone := *member
	return &clone, nil
}

func (s *InMemory) FindByEmail(_ context.Context, email string) (*models.Member, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.byEmail[emailKey(email)]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	clone := *s.members[id]
	return &clone, nil
}

// Update persists profile changes. Returns sentinel.ErrConflict when the new
// email is already taken by a different member.
func (s *InMemory) Update(_ context.Context, member *models.Member) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.members[member.ID]
	if !ok {
		return sentinel.ErrNotFound
	}

	newKey := emailKey(member.Email)
	oldKey := emailKey(existing.Email)
	if newKey != oldKey {
		if owner, taken := s.byEmail[newKey]; taken && owner != member.ID {
			return sentinel.ErrConflict
		}
		delete(s.byEmail, oldKey)
		s.byEmail[newKey] = member.ID
	}

	clone := *member
	s.members[member.ID] = &clone
	return nil
}

func emailKey(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

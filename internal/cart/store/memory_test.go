package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/suite"

	"bazaar/pkg/domain"
	"bazaar/pkg/platform/sentinel"
)

type CartStoreSuite struct {
	suite.Suite
	store *InMemory
	ctx   context.Context
}

func (s *CartStoreSuite) SetupTest() {
	s.store = NewInMemory()
	s.ctx = context.Background()
}

func TestCartStoreSuite(t *testing.T) {
	suite.Run(t, new(CartStoreSuite))
}

func (s *CartStoreSuite) TestAdd() {
	member := domain.NewMemberID()
	item := domain.NewItemID()

	s.Run("first add reports insertion", func() {
		added, err := s.store.Add(s.ctx, member, item)
		s.Require().NoError(err)
		s.True(added)
	})

	s.Run("duplicate add reports already present", func() {
		added, err := s.store.Add(s.ctx, member, item)
		s.Require().NoError(err)
		s.False(added)
	})
}

func (s *CartStoreSuite) TestRemove() {
	member := domain.NewMemberID()
	item := domain.NewItemID()

	s.Run("removing an absent reference is ErrNotFound", func() {
		s.Require().ErrorIs(s.store.Remove(s.ctx, member, item), sentinel.ErrNotFound)
	})

	s.Run("removes a present reference", func() {
		_, err := s.store.Add(s.ctx, member, item)
		s.Require().NoError(err)
		s.Require().NoError(s.store.Remove(s.ctx, member, item))

		items, err := s.store.List(s.ctx, member)
		s.Require().NoError(err)
		s.Empty(items)
	})
}

func (s *CartStoreSuite) TestListAndClear() {
	member := domain.NewMemberID()
	itemA := domain.NewItemID()
	itemB := domain.NewItemID()

	_, err := s.store.Add(s.ctx, member, itemA)
	s.Require().NoError(err)
	_, err = s.store.Add(s.ctx, member, itemB)
	s.Require().NoError(err)

	items, err := s.store.List(s.ctx, member)
	s.Require().NoError(err)
	s.ElementsMatch([]domain.ItemID{itemA, itemB}, items)

	s.Require().NoError(s.store.Clear(s.ctx, member))
	items, err = s.store.List(s.ctx, member)
	s.Require().NoError(err)
	s.Empty(items)
}

func (s *CartStoreSuite) TestPurgeItem() {
	sold := domain.NewItemID()
	kept := domain.NewItemID()
	memberA := domain.NewMemberID()
	memberB := domain.NewMemberID()

	for _, member := range []domain.MemberID{memberA, memberB} {
		_, err := s.store.Add(s.ctx, member, sold)
		s.Require().NoError(err)
		_, err = s.store.Add(s.ctx, member, kept)
		s.Require().NoError(err)
	}

	s.Require().NoError(s.store.PurgeItem(s.ctx, sold))

	for _, member := range []domain.MemberID{memberA, memberB} {
		items, err := s.store.List(s.ctx, member)
		s.Require().NoError(err)
		s.Equal([]domain.ItemID{kept}, items)
	}
}

package store

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"bazaar/internal/catalog/models"
	"bazaar/pkg/domain"
	"bazaar/pkg/platform/sentinel"
)

type ItemStoreSuite struct {
	suite.Suite
	store *InMemory
	ctx   context.Context
}

func (s *ItemStoreSuite) SetupTest() {
	s.store = NewInMemory()
	s.ctx = context.Background()
}

func TestItemStoreSuite(t *testing.T) {
	suite.Run(t, new(ItemStoreSuite))
}

func (s *ItemStoreSuite) newItem(name string, category models.Category) *models.Item {
	item, err := models.NewItem(domain.NewItemID(), name, "a fine thing", 12.50, category,
		domain.NewMemberID(), "Ada Lovelace", time.Now())
	s.Require().NoError(err)
	return item
}

func (s *ItemStoreSuite) TestCreateAndFind() {
	s.Run("creates and finds an item", func() {
		item := s.newItem("Analytical Engine", models.CategoryElectronics)
		s.Require().NoError(s.store.Create(s.ctx, item))

		found, err := s.store.FindByID(s.ctx, item.ID)
		s.Require().NoError(err)
		s.Equal(item.Name, found.Name)
		s.Equal(item.VendorName, found.VendorName)
	})

	s.Run("returns ErrNotFound for unknown ID", func() {
		_, err := s.store.FindByID(s.ctx, domain.NewItemID())
		s.Require().ErrorIs(err, sentinel.ErrNotFound)
	})

	s.Run("returned item is a copy", func() {
		item := s.newItem("Loom", models.CategoryMisc)
		s.Require().NoError(s.store.Create(s.ctx, item))

		found, err := s.store.FindByID(s.ctx, item.ID)
		s.Require().NoError(err)
		found.Name = "mutated"

		again, err := s.store.FindByID(s.ctx, item.ID)
		s.Require().NoError(err)
		s.Equal("Loom", again.Name)
	})
}

func (s *ItemStoreSuite) TestList() {
	s.Require().NoError(s.store.Create(s.ctx, s.newItem("Discrete Mathematics", models.CategoryBooks)))
	s.Require().NoError(s.store.Create(s.ctx, s.newItem("Mathematical Logic", models.CategoryBooks)))
	s.Require().NoError(s.store.Create(s.ctx, s.newItem("Soldering Iron", models.CategoryElectronics)))

	s.Run("empty filter returns everything", func() {
		items, err := s.store.List(s.ctx, models.ListFilter{})
		s.Require().NoError(err)
		s.Len(items, 3)
	})

	s.Run("search is a case-insensitive substring", func() {
		items, err := s.store.List(s.ctx, models.ListFilter{Search: "math"})
		s.Require().NoError(err)
		s.Len(items, 2)
	})

	s.Run("category set narrows results", func() {
		items, err := s.store.List(s.ctx, models.ListFilter{
			Categories: []models.Category{models.CategoryElectronics},
		})
		s.Require().NoError(err)
		s.Require().Len(items, 1)
		s.Equal("Soldering Iron", items[0].Name)
	})

	s.Run("search and categories combine", func() {
		items, err := s.store.List(s.ctx, models.ListFilter{
			Search:     "math",
			Categories: []models.Category{models.CategoryElectronics},
		})
		s.Require().NoError(err)
		s.Empty(items)
	})
}

func (s *ItemStoreSuite) TestDeleteIfPresent() {
	s.Run("removes the item and returns it", func() {
		item := s.newItem("Teapot", models.CategoryMisc)
		s.Require().NoError(s.store.Create(s.ctx, item))

		deleted, err := s.store.DeleteIfPresent(s.ctx, item.ID)
		s.Require().NoError(err)
		s.Equal(item.Name, deleted.Name)

		_, err = s.store.FindByID(s.ctx, item.ID)
		s.Require().ErrorIs(err, sentinel.ErrNotFound)
	})

	s.Run("second delete observes ErrNotFound", func() {
		item := s.newItem("Teapot", models.CategoryMisc)
		s.Require().NoError(s.store.Create(s.ctx, item))

		_, err := s.store.DeleteIfPresent(s.ctx, item.ID)
		s.Require().NoError(err)
		_, err = s.store.DeleteIfPresent(s.ctx, item.ID)
		s.Require().ErrorIs(err, sentinel.ErrNotFound)
	})

	s.Run("exactly one concurrent caller wins", func() {
		item := s.newItem("Contended", models.CategoryFood)
		s.Require().NoError(s.store.Create(s.ctx, item))

		const callers = 32
		var wg sync.WaitGroup
		wins := make(chan struct{}, callers)
		for i := 0; i < callers; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				if _, err := s.store.DeleteIfPresent(s.ctx, item.ID); err == nil {
					wins <- struct{}{}
				}
			}()
		}
		wg.Wait()
		close(wins)
		s.Len(wins, 1)
	})
}

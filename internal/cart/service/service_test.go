package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	cartstore "bazaar/internal/cart/store"
	catalogmodels "bazaar/internal/catalog/models"
	catalogstore "bazaar/internal/catalog/store"
	"bazaar/pkg/domain"
	dErrors "bazaar/pkg/domain-errors"
)

type fixture struct {
	svc     *Service
	catalog *catalogstore.InMemory
	buyer   domain.MemberID
	vendor  domain.MemberID
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	catalog := catalogstore.NewInMemory()
	return &fixture{
		svc:     New(cartstore.NewInMemory(), catalog),
		catalog: catalog,
		buyer:   domain.NewMemberID(),
		vendor:  domain.NewMemberID(),
	}
}

func (f *fixture) listItem(t *testing.T, name string) *catalogmodels.Item {
	t.Helper()
	item, err := catalogmodels.NewItem(domain.NewItemID(), name, "", 10, catalogmodels.CategoryMisc,
		f.vendor, "Vendor Vendorson", time.Now())
	require.NoError(t, err)
	require.NoError(t, f.catalog.Create(context.Background(), item))
	return item
}

func TestAdd(t *testing.T) {
	t.Run("adds a resolvable item", func(t *testing.T) {
		f := newFixture(t)
		item := f.listItem(t, "Teapot")

		added, err := f.svc.Add(context.Background(), f.buyer, item.ID)
		require.NoError(t, err)
		assert.True(t, added)
	})

	t.Run("duplicate add succeeds with alreadyInCart signal", func(t *testing.T) {
		f := newFixture(t)
		item := f.listItem(t, "Teapot")

		_, err := f.svc.Add(context.Background(), f.buyer, item.ID)
		require.NoError(t, err)
		added, err := f.svc.Add(context.Background(), f.buyer, item.ID)
		require.NoError(t, err)
		assert.False(t, added)
	})

	t.Run("unknown item is NotFound", func(t *testing.T) {
		f := newFixture(t)
		_, err := f.svc.Add(context.Background(), f.buyer, domain.NewItemID())
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeNotFound))
	})

	t.Run("vendor cannot cart their own listing", func(t *testing.T) {
		f := newFixture(t)
		item := f.listItem(t, "Teapot")

		_, err := f.svc.Add(context.Background(), f.vendor, item.ID)
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeConflict))
		assert.Contains(t, err.Error(), "your own item")
	})
}

func TestRemove(t *testing.T) {
	f := newFixture(t)
	item := f.listItem(t, "Teapot")

	err := f.svc.Remove(context.Background(), f.buyer, item.ID)
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeNotFound))

	_, err = f.svc.Add(context.Background(), f.buyer, item.ID)
	require.NoError(t, err)
	require.NoError(t, f.svc.Remove(context.Background(), f.buyer, item.ID))
}

func TestList(t *testing.T) {
	t.Run("resolves references to snapshots", func(t *testing.T) {
		f := newFixture(t)
		item := f.listItem(t, "Teapot")
		_, err := f.svc.Add(context.Background(), f.buyer, item.ID)
		require.NoError(t, err)

		items, err := f.svc.List(context.Background(), f.buyer)
		require.NoError(t, err)
		require.Len(t, items, 1)
		assert.Equal(t, "Teapot", items[0].Name)
	})

	t.Run("drops references that no longer resolve", func(t *testing.T) {
		f := newFixture(t)
		kept := f.listItem(t, "Kept")
		sold := f.listItem(t, "Sold")
		for _, item := range []*catalogmodels.Item{kept, sold} {
			_, err := f.svc.Add(context.Background(), f.buyer, item.ID)
			require.NoError(t, err)
		}

		_, err := f.catalog.DeleteIfPresent(context.Background(), sold.ID)
		require.NoError(t, err)

		items, err := f.svc.List(context.Background(), f.buyer)
		require.NoError(t, err)
		require.Len(t, items, 1)
		assert.Equal(t, "Kept", items[0].Name)
	})

	t.Run("empty cart lists empty", func(t *testing.T) {
		f := newFixture(t)
		items, err := f.svc.List(context.Background(), f.buyer)
		require.NoError(t, err)
		assert.Empty(t, items)
	})
}

func TestPurgeReferencesTo(t *testing.T) {
	f := newFixture(t)
	item := f.listItem(t, "Teapot")
	otherBuyer := domain.NewMemberID()

	for _, buyer := range []domain.MemberID{f.buyer, otherBuyer} {
		_, err := f.svc.Add(context.Background(), buyer, item.ID)
		require.NoError(t, err)
	}

	require.NoError(t, f.svc.PurgeReferencesTo(context.Background(), item.ID))

	for _, buyer := range []domain.MemberID{f.buyer, otherBuyer} {
		items, err := f.svc.List(context.Background(), buyer)
		require.NoError(t, err)
		assert.Empty(t, items)
	}
}

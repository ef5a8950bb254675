//go:build integration

package store

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bazaar/internal/catalog/models"
	"bazaar/pkg/domain"
	"bazaar/pkg/platform/sentinel"
	"bazaar/pkg/testutil/containers"
)

const itemsSchema = `
CREATE TABLE items (
    id UUID PRIMARY KEY,
    name TEXT NOT NULL,
    description TEXT NOT NULL DEFAULT '',
    price NUMERIC(12,2) NOT NULL CHECK (price >= 0),
    category TEXT NOT NULL,
    vendor_id UUID NOT NULL,
    vendor_name TEXT NOT NULL,
    created_at TIMESTAMPTZ NOT NULL
);`

func TestPostgresItemStore(t *testing.T) {
	pg := containers.NewPostgresContainer(t, itemsSchema)
	store := NewPostgres(pg.DB)
	ctx := context.Background()

	newItem := func(name string, category models.Category) *models.Item {
		item, err := models.NewItem(domain.NewItemID(), name, "desc", 12.50, category,
			domain.NewMemberID(), "Vendor Vendorson", time.Now())
		require.NoError(t, err)
		return item
	}

	t.Run("create, find, list with filters", func(t *testing.T) {
		require.NoError(t, store.Create(ctx, newItem("Discrete Mathematics", models.CategoryBooks)))
		require.NoError(t, store.Create(ctx, newItem("Mathematical Logic", models.CategoryBooks)))
		require.NoError(t, store.Create(ctx, newItem("Soldering Iron", models.CategoryElectronics)))

		items, err := store.List(ctx, models.ListFilter{Search: "math"})
		require.NoError(t, err)
		assert.Len(t, items, 2)

		items, err = store.List(ctx, models.ListFilter{
			Categories: []models.Category{models.CategoryElectronics},
		})
		require.NoError(t, err)
		require.Len(t, items, 1)
		assert.Equal(t, "Soldering Iron", items[0].Name)
	})

	t.Run("delete returns the row to exactly one concurrent caller", func(t *testing.T) {
		item := newItem("Contended", models.CategoryMisc)
		require.NoError(t, store.Create(ctx, item))

		const callers = 8
		var wg sync.WaitGroup
		wins := make(chan struct{}, callers)
		for i := 0; i < callers; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				if _, err := store.DeleteIfPresent(ctx, item.ID); err == nil {
					wins <- struct{}{}
				}
			}()
		}
		wg.Wait()
		close(wins)
		assert.Len(t, wins, 1)

		_, err := store.FindByID(ctx, item.ID)
		require.ErrorIs(t, err, sentinel.ErrNotFound)
	})
}

package service

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	cartservice "bazaar/internal/cart/service"
	cartstore "bazaar/internal/cart/store"
	catalogmodels "bazaar/internal/catalog/models"
	catalogstore "bazaar/internal/catalog/store"
	dirmodels "bazaar/internal/directory/models"
	"bazaar/internal/order/models"
	orderstore "bazaar/internal/order/store"
	"bazaar/pkg/domain"
	dErrors "bazaar/pkg/domain-errors"
)

// fakeOTP avoids bcrypt cost in tests that do not exercise verification.
type fakeOTP struct {
	mu     sync.Mutex
	issued int
}

func (f *fakeOTP) Issue() (string, string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.issued++
	code := fmt.Sprintf("%06d", 100000+f.issued)
	return code, "hash:" + code, nil
}

func (f *fakeOTP) Verify(candidate, storedHash string) bool {
	return storedHash == "hash:"+candidate
}

// staleCart serves a fixed resolution regardless of catalog state.
type staleCart struct {
	inner *cartservice.Service
	items []*catalogmodels.Item
}

func (c *staleCart) List(context.Context, domain.MemberID) ([]*catalogmodels.Item, error) {
	return c.items, nil
}

func (c *staleCart) Clear(ctx context.Context, memberID domain.MemberID) error {
	return c.inner.Clear(ctx, memberID)
}

func (c *staleCart) PurgeReferencesTo(ctx context.Context, itemID domain.ItemID) error {
	return c.inner.PurgeReferencesTo(ctx, itemID)
}

type stubResolver struct {
	members map[domain.MemberID]*dirmodels.Member
}

func (r *stubResolver) Profile(_ context.Context, id domain.MemberID) (*dirmodels.Member, error) {
	member, ok := r.members[id]
	if !ok {
		return nil, dErrors.New(dErrors.CodeNotFound, "member not found")
	}
	return member, nil
}

type fixture struct {
	svc      *Service
	carts    *cartservice.Service
	catalog  *catalogstore.InMemory
	orders   *orderstore.InMemory
	resolver *stubResolver
	vendorID domain.MemberID
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	catalog := catalogstore.NewInMemory()
	orders := orderstore.NewInMemory()
	carts := cartservice.New(cartstore.NewInMemory(), catalog)
	resolver := &stubResolver{members: make(map[domain.MemberID]*dirmodels.Member)}

	f := &fixture{
		svc:      New(orders, catalog, carts, resolver, WithOTPIssuer(&fakeOTP{})),
		carts:    carts,
		catalog:  catalog,
		orders:   orders,
		resolver: resolver,
	}
	f.vendorID = f.newMember(t, "Vendor", "Vendorson")
	return f
}

func (f *fixture) newMember(t *testing.T, first, last string) domain.MemberID {
	t.Helper()
	id := domain.NewMemberID()
	member, err := dirmodels.NewMember(id, first, last,
		fmt.Sprintf("%s.%s.%s@example.com", first, last, id.String()[:8]),
		30, "", "hash", false, time.Now())
	require.NoError(t, err)
	f.resolver.members[id] = member
	return id
}

func (f *fixture) listItem(t *testing.T, name string) *catalogmodels.Item {
	t.Helper()
	item, err := catalogmodels.NewItem(domain.NewItemID(), name, "", 25, catalogmodels.CategoryBooks,
		f.vendorID, "Vendor Vendorson", time.Now())
	require.NoError(t, err)
	require.NoError(t, f.catalog.Create(context.Background(), item))
	return item
}

func (f *fixture) cartItem(t *testing.T, buyer domain.MemberID, item *catalogmodels.Item) {
	t.Helper()
	_, err := f.carts.Add(context.Background(), buyer, item.ID)
	require.NoError(t, err)
}

func TestCheckout(t *testing.T) {
	t.Run("converts cart lines to pending orders with snapshots", func(t *testing.T) {
		f := newFixture(t)
		buyer := f.newMember(t, "Betty", "Buyer")
		itemA := f.listItem(t, "Teapot")
		itemB := f.listItem(t, "Kettle")
		f.cartItem(t, buyer, itemA)
		f.cartItem(t, buyer, itemB)

		orders, err := f.svc.Checkout(context.Background(), buyer)
		require.NoError(t, err)
		require.Len(t, orders, 2)

		names := []string{orders[0].ItemName, orders[1].ItemName}
		assert.ElementsMatch(t, []string{"Teapot", "Kettle"}, names)
		for _, order := range orders {
			assert.Equal(t, models.StatusPending, order.Status)
			assert.Equal(t, "Betty Buyer", order.BuyerName)
			assert.Equal(t, "Vendor Vendorson", order.SellerName)
			assert.NotEmpty(t, order.OTP)
			assert.NotEmpty(t, order.OTPHash)
		}
	})

	t.Run("empty cart is EmptyState", func(t *testing.T) {
		f := newFixture(t)
		buyer := f.newMember(t, "Betty", "Buyer")

		_, err := f.svc.Checkout(context.Background(), buyer)
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeEmptyState))
	})

	t.Run("removes sold items from the catalog", func(t *testing.T) {
		f := newFixture(t)
		buyer := f.newMember(t, "Betty", "Buyer")
		item := f.listItem(t, "Teapot")
		f.cartItem(t, buyer, item)

		_, err := f.svc.Checkout(context.Background(), buyer)
		require.NoError(t, err)

		_, err = f.catalog.FindByID(context.Background(), item.ID)
		require.Error(t, err)
	})

	t.Run("purges sold items from every cart and clears the buyer's", func(t *testing.T) {
		f := newFixture(t)
		buyer := f.newMember(t, "Betty", "Buyer")
		bystander := f.newMember(t, "Bart", "Bystander")
		sold := f.listItem(t, "Teapot")
		unsold := f.listItem(t, "Kettle")
		f.cartItem(t, buyer, sold)
		f.cartItem(t, bystander, sold)
		f.cartItem(t, bystander, unsold)

		_, err := f.svc.Checkout(context.Background(), buyer)
		require.NoError(t, err)

		buyerCart, err := f.carts.List(context.Background(), buyer)
		require.NoError(t, err)
		assert.Empty(t, buyerCart)

		bystanderCart, err := f.carts.List(context.Background(), bystander)
		require.NoError(t, err)
		require.Len(t, bystanderCart, 1)
		assert.Equal(t, "Kettle", bystanderCart[0].Name)
	})

	t.Run("skips lines whose item was claimed after cart resolution", func(t *testing.T) {
		f := newFixture(t)
		buyer := f.newMember(t, "Betty", "Buyer")
		gone := f.listItem(t, "Ghost")
		alive := f.listItem(t, "Kettle")

		// A cart that still resolves Ghost even though the listing is gone,
		// standing in for a rival claim landing between resolution and the
		// conditional delete.
		stale := &staleCart{inner: f.carts, items: []*catalogmodels.Item{gone, alive}}
		svc := New(f.orders, f.catalog, stale, f.resolver, WithOTPIssuer(&fakeOTP{}))

		_, err := f.catalog.DeleteIfPresent(context.Background(), gone.ID)
		require.NoError(t, err)

		orders, err := svc.Checkout(context.Background(), buyer)
		require.NoError(t, err)
		require.Len(t, orders, 1)
		assert.Equal(t, "Kettle", orders[0].ItemName)
	})

	t.Run("concurrent checkouts of the same item produce exactly one order", func(t *testing.T) {
		f := newFixture(t)
		item := f.listItem(t, "Contended")

		const buyers = 8
		buyerIDs := make([]domain.MemberID, buyers)
		for i := range buyerIDs {
			buyerIDs[i] = f.newMember(t, "Buyer", fmt.Sprintf("Number%d", i))
			f.cartItem(t, buyerIDs[i], item)
		}

		var wg sync.WaitGroup
		results := make(chan int, buyers)
		for _, buyer := range buyerIDs {
			wg.Add(1)
			go func() {
				defer wg.Done()
				orders, err := f.svc.Checkout(context.Background(), buyer)
				if err != nil {
					// Losers resolve an empty cart once the winner purges.
					return
				}
				results <- len(orders)
			}()
		}
		wg.Wait()
		close(results)

		total := 0
		for n := range results {
			total += n
		}
		assert.Equal(t, 1, total)

		orders, err := f.svc.ListBySeller(context.Background(), f.vendorID, models.StatusPending)
		require.NoError(t, err)
		assert.Len(t, orders, 1)
	})
}

func TestVerifyOTP(t *testing.T) {
	f := newFixture(t)
	buyer := f.newMember(t, "Betty", "Buyer")
	f.cartItem(t, buyer, f.listItem(t, "Teapot"))

	orders, err := f.svc.Checkout(context.Background(), buyer)
	require.NoError(t, err)
	require.Len(t, orders, 1)
	order := orders[0]

	t.Run("matches the issued code", func(t *testing.T) {
		require.NoError(t, f.svc.VerifyOTP(context.Background(), order.ID, order.OTP))
	})

	t.Run("verification is repeatable and mutates nothing", func(t *testing.T) {
		require.NoError(t, f.svc.VerifyOTP(context.Background(), order.ID, order.OTP))
		got, err := f.svc.Get(context.Background(), order.ID)
		require.NoError(t, err)
		assert.Equal(t, models.StatusPending, got.Status)
	})

	t.Run("wrong code is VerificationFailure", func(t *testing.T) {
		err := f.svc.VerifyOTP(context.Background(), order.ID, "000000")
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeVerificationFailed))
	})

	t.Run("unknown order is NotFound", func(t *testing.T) {
		err := f.svc.VerifyOTP(context.Background(), domain.NewOrderID(), "123456")
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeNotFound))
	})
}

func TestCompleteOrder(t *testing.T) {
	newOrder := func(t *testing.T) (*fixture, *models.Order) {
		t.Helper()
		f := newFixture(t)
		buyer := f.newMember(t, "Betty", "Buyer")
		f.cartItem(t, buyer, f.listItem(t, "Teapot"))
		orders, err := f.svc.Checkout(context.Background(), buyer)
		require.NoError(t, err)
		require.Len(t, orders, 1)
		return f, orders[0]
	}

	t.Run("transitions pending to completed", func(t *testing.T) {
		f, order := newOrder(t)
		completed, err := f.svc.CompleteOrder(context.Background(), order.ID)
		require.NoError(t, err)
		assert.Equal(t, models.StatusCompleted, completed.Status)
		require.NotNil(t, completed.CompletedAt)
	})

	t.Run("second completion is a Conflict", func(t *testing.T) {
		f, order := newOrder(t)
		_, err := f.svc.CompleteOrder(context.Background(), order.ID)
		require.NoError(t, err)

		_, err = f.svc.CompleteOrder(context.Background(), order.ID)
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeConflict))
	})

	t.Run("unknown order is NotFound", func(t *testing.T) {
		f, _ := newOrder(t)
		_, err := f.svc.CompleteOrder(context.Background(), domain.NewOrderID())
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeNotFound))
	})
}

func TestProjections(t *testing.T) {
	f := newFixture(t)
	buyer := f.newMember(t, "Betty", "Buyer")
	f.cartItem(t, buyer, f.listItem(t, "Teapot"))
	f.cartItem(t, buyer, f.listItem(t, "Kettle"))

	orders, err := f.svc.Checkout(context.Background(), buyer)
	require.NoError(t, err)
	require.Len(t, orders, 2)

	_, err = f.svc.CompleteOrder(context.Background(), orders[0].ID)
	require.NoError(t, err)

	bought, err := f.svc.ListByBuyer(context.Background(), buyer, models.StatusCompleted)
	require.NoError(t, err)
	assert.Len(t, bought, 1)

	pending, err := f.svc.ListByBuyer(context.Background(), buyer, models.StatusPending)
	require.NoError(t, err)
	assert.Len(t, pending, 1)

	sold, err := f.svc.ListBySeller(context.Background(), f.vendorID, models.StatusCompleted)
	require.NoError(t, err)
	assert.Len(t, sold, 1)

	sellerPending, err := f.svc.ListBySeller(context.Background(), f.vendorID, models.StatusPending)
	require.NoError(t, err)
	assert.Len(t, sellerPending, 1)
}

func TestCheckoutWithRealOTP(t *testing.T) {
	f := newFixture(t)
	svc := New(f.orders, f.catalog, f.carts, f.resolver)

	buyer := f.newMember(t, "Betty", "Buyer")
	f.cartItem(t, buyer, f.listItem(t, "Teapot"))

	orders, err := svc.Checkout(context.Background(), buyer)
	require.NoError(t, err)
	require.Len(t, orders, 1)

	assert.Len(t, orders[0].OTP, 6)
	require.NoError(t, svc.VerifyOTP(context.Background(), orders[0].ID, orders[0].OTP))
}

package service

import (
	"context"
	"errors"
	"log/slog"

	catalogmodels "bazaar/internal/catalog/models"
	"bazaar/internal/platform/middleware"
	"bazaar/pkg/domain"
	dErrors "bazaar/pkg/domain-errors"
	"bazaar/pkg/platform/sentinel"
)

type CartStore interface {
	Add(ctx context.Context, memberID domain.MemberID, itemID domain.ItemID) (bool, error)
	Remove(ctx context.Context, memberID domain.MemberID, itemID domain.ItemID) error
	List(ctx context.Context, memberID domain.MemberID) ([]domain.ItemID, error)
	Clear(ctx context.Context, memberID domain.MemberID) error
	PurgeItem(ctx context.Context, itemID domain.ItemID) error
}

// CatalogReader resolves cart references to live listings.
type CatalogReader interface {
	FindByID(ctx context.Context, id domain.ItemID) (*catalogmodels.Item, error)
}

// Service owns cart state. A cart holds references, not snapshots: a listing
// sold out from under a cart simply stops resolving.
type Service struct {
	carts   CartStore
	catalog CatalogReader
	logger  *slog.Logger
}

type Option func(s *Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func New(carts CartStore, catalog CatalogReader, opts ...Option) *Service {
	s := &Service{carts: carts, catalog: catalog}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Add puts a catalog reference in the member's cart. Vendors cannot cart
// their own listings. The returned flag is false when the reference was
// already present; that is a success, not an error.
func (s *Service) Add(ctx context.Context, memberID domain.MemberID, itemID domain.ItemID) (bool, error) {
	item, err := s.catalog.FindByID(ctx, itemID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return false, dErrors.New(dErrors.CodeNotFound, "item not found")
		}
		return false, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load item")
	}
	if item.VendorID == memberID {
		return false, dErrors.New(dErrors.CodeConflict, "you cannot purchase your own item")
	}

	added, err := s.carts.Add(ctx, memberID, itemID)
	if err != nil {
		return false, dErrors.Wrap(err, dErrors.CodeInternal, "failed to update cart")
	}
	if s.logger != nil && added {
		s.logger.InfoContext(ctx, "cart item added",
			"member_id", memberID.String(),
			"item_id", itemID.String(),
			"request_id", middleware.GetRequestID(ctx),
		)
	}
	return added, nil
}

// Remove drops a reference from the member's cart.
func (s *Service) Remove(ctx context.Context, memberID domain.MemberID, itemID domain.ItemID) error {
	if err := s.carts.Remove(ctx, memberID, itemID); err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return dErrors.New(dErrors.CodeNotFound, "item not in cart")
		}
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to update cart")
	}
	return nil
}

// List resolves the member's cart to catalog snapshots. References that no
// longer resolve (sold or delisted since they were added) are dropped
// silently rather than surfaced as errors.
func (s *Service) List(ctx context.Context, memberID domain.MemberID) ([]*catalogmodels.Item, error) {
	refs, err := s.carts.List(ctx, memberID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to read cart")
	}

	items := make([]*catalogmodels.Item, 0, len(refs))
	for _, ref := range refs {
		item, err := s.catalog.FindByID(ctx, ref)
		if errors.Is(err, sentinel.ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to resolve cart item")
		}
		items = append(items, item)
	}
	return items, nil
}

// Clear empties the member's cart.
func (s *Service) Clear(ctx context.Context, memberID domain.MemberID) error {
	if err := s.carts.Clear(ctx, memberID); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to clear cart")
	}
	return nil
}

// PurgeReferencesTo removes the item from every cart. Runs as part of the
// checkout effect set after an item has been claimed.
func (s *Service) PurgeReferencesTo(ctx context.Context, itemID domain.ItemID) error {
	if err := s.carts.PurgeItem(ctx, itemID); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to purge cart references")
	}
	return nil
}

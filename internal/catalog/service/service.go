package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"bazaar/internal/audit"
	"bazaar/internal/catalog/models"
	dirmodels "bazaar/internal/directory/models"
	"bazaar/internal/platform/metrics"
	"bazaar/internal/platform/middleware"
	"bazaar/pkg/domain"
	dErrors "bazaar/pkg/domain-errors"
	"bazaar/pkg/platform/sentinel"
)

type ItemStore interface {
	Create(ctx context.Context, item *models.Item) error
	FindByID(ctx context.Context, id domain.ItemID) (*models.Item, error)
	List(ctx context.Context, filter models.ListFilter) ([]*models.Item, error)
}

// MemberResolver looks up the vendor so the listing can carry a display-name
// snapshot.
type MemberResolver interface {
	Profile(ctx context.Context, id domain.MemberID) (*dirmodels.Member, error)
}

type AuditPublisher interface {
	Emit(ctx context.Context, base audit.Event) error
}

// Service owns the catalog: listing items, point lookups, and filtered reads.
type Service struct {
	items          ItemStore
	members        MemberResolver
	logger         *slog.Logger
	auditPublisher AuditPublisher
	metrics        *metrics.Metrics
}

type Option func(s *Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithAuditPublisher(publisher AuditPublisher) Option {
	return func(s *Service) {
		s.auditPublisher = publisher
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

func New(items ItemStore, members MemberResolver, opts ...Option) *Service {
	s := &Service{items: items, members: members}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Create lists an item for sale. The authenticated member becomes the vendor
// and their current display name is stamped onto the listing.
func (s *Service) Create(ctx context.Context, vendorID domain.MemberID, req models.CreateItemRequest) (*models.Item, error) {
	category, err := models.ParseCategory(req.Category)
	if err != nil {
		return nil, err
	}

	vendor, err := s.members.Profile(ctx, vendorID)
	if err != nil {
		return nil, err
	}

	item, err := models.NewItem(domain.NewItemID(), req.Name, req.Description, req.Price,
		category, vendorID, vendor.DisplayName(), time.Now())
	if err != nil {
		if dErrors.HasCode(err, dErrors.CodeInvariantViolation) {
			return nil, dErrors.New(dErrors.CodeValidation, dErrors.MessageOf(err))
		}
		return nil, err
	}

	if err := s.items.Create(ctx, item); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list item")
	}

	s.logAudit(ctx, audit.ActionItemListed, vendorID.String(), item.ID.String())
	if s.metrics != nil {
		s.metrics.ItemsListed.Inc()
	}
	return item, nil
}

// Get returns a single listing.
func (s *Service) Get(ctx context.Context, id domain.ItemID) (*models.Item, error) {
	item, err := s.items.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "item not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load item")
	}
	return item, nil
}

// List returns listings matching the filter.
func (s *Service) List(ctx context.Context, filter models.ListFilter) ([]*models.Item, error) {
	items, err := s.items.List(ctx, filter)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list items")
	}
	return items, nil
}

func (s *Service) logAudit(ctx context.Context, action audit.Action, actorID, subject string) {
	if s.logger != nil {
		s.logger.InfoContext(ctx, string(action),
			"actor_id", actorID,
			"subject", subject,
			"request_id", middleware.GetRequestID(ctx),
			"log_type", "audit",
		)
	}
	if s.auditPublisher == nil {
		return
	}
	_ = s.auditPublisher.Emit(ctx, audit.Event{
		Action:    action,
		ActorID:   actorID,
		Subject:   subject,
		RequestID: middleware.GetRequestID(ctx),
	})
}

package service

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"bazaar/internal/audit"
	catalogmodels "bazaar/internal/catalog/models"
	dirmodels "bazaar/internal/directory/models"
	"bazaar/internal/order/models"
	"bazaar/internal/otp"
	"bazaar/internal/platform/metrics"
	"bazaar/internal/platform/middleware"
	"bazaar/pkg/domain"
	dErrors "bazaar/pkg/domain-errors"
	"bazaar/pkg/platform/sentinel"
)

// checkoutConcurrency bounds the per-line fan-out during checkout.
const checkoutConcurrency = 4

type OrderStore interface {
	Create(ctx context.Context, order *models.Order) error
	FindByID(ctx context.Context, id domain.OrderID) (*models.Order, error)
	Execute(ctx context.Context, id domain.OrderID, fn func(order *models.Order) error) (*models.Order, error)
	ListByBuyer(ctx context.Context, buyerID domain.MemberID, status models.Status) ([]*models.Order, error)
	ListBySeller(ctx context.Context, sellerID domain.MemberID, status models.Status) ([]*models.Order, error)
}

// CatalogClaimer is the sale commit point: DeleteIfPresent removes the
// listing and returns it to exactly one caller.
type CatalogClaimer interface {
	DeleteIfPresent(ctx context.Context, id domain.ItemID) (*catalogmodels.Item, error)
}

// CartAccess is the slice of the cart module checkout needs.
type CartAccess interface {
	List(ctx context.Context, memberID domain.MemberID) ([]*catalogmodels.Item, error)
	Clear(ctx context.Context, memberID domain.MemberID) error
	PurgeReferencesTo(ctx context.Context, itemID domain.ItemID) error
}

// MemberResolver looks up the buyer for the display-name snapshot.
type MemberResolver interface {
	Profile(ctx context.Context, id domain.MemberID) (*dirmodels.Member, error)
}

// OTPIssuer issues and verifies handoff codes.
type OTPIssuer interface {
	Issue() (code string, hash string, err error)
	Verify(candidate string, storedHash string) bool
}

type AuditPublisher interface {
	Emit(ctx context.Context, base audit.Event) error
}

// Service owns the order ledger: checkout, the OTP handoff protocol, and the
// buyer/seller read projections.
type Service struct {
	orders         OrderStore
	catalog        CatalogClaimer
	carts          CartAccess
	members        MemberResolver
	otp            OTPIssuer
	tracer         trace.Tracer
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

func WithOTPIssuer(issuer OTPIssuer) Option {
	return func(s *Service) {
		s.otp = issuer
	}
}

func New(orders OrderStore, catalog CatalogClaimer, carts CartAccess, members MemberResolver, opts ...Option) *Service {
	s := &Service{
		orders:  orders,
		catalog: catalog,
		carts:   carts,
		members: members,
		otp:     otp.NewChallenge(),
		tracer:  otel.Tracer("bazaar/order"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Checkout converts the buyer's cart into pending orders. Each cart line is
// processed independently: the conditional catalog delete claims the item,
// and only the claimer persists an order. Lines whose item was already sold
// are skipped, not failed, so one stale reference never sinks the rest of
// the cart. The buyer's cart is cleared at the end and every claimed item is
// purged from everyone else's cart.
//
// Returned orders carry the plaintext OTP. This is the only moment the buyer
// can be handed the code, so the response includes it by design of the
// handoff protocol.
func (s *Service) Checkout(ctx context.Context, buyerID domain.MemberID) ([]*models.Order, error) {
	ctx, span := s.tracer.Start(ctx, "order.checkout")
	defer span.End()

	buyer, err := s.members.Profile(ctx, buyerID)
	if err != nil {
		return nil, err
	}

	lines, err := s.carts.List(ctx, buyerID)
	if err != nil {
		return nil, err
	}
	if len(lines) == 0 {
		return nil, dErrors.New(dErrors.CodeEmptyState, "cart is empty")
	}
	span.SetAttributes(attribute.Int("checkout.lines", len(lines)))

	var mu sync.Mutex
	orders := make([]*models.Order, 0, len(lines))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(checkoutConcurrency)
	for _, line := range lines {
		g.Go(func() error {
			order, err := s.checkoutLine(gctx, buyer, line.ID)
			if err != nil {
				return err
			}
			if order == nil {
				return nil
			}
			mu.Lock()
			orders = append(orders, order)
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	if err := s.carts.Clear(ctx, buyerID); err != nil {
		return nil, err
	}

	span.SetAttributes(attribute.Int("checkout.orders", len(orders)))
	return orders, nil
}

// checkoutLine processes one cart line. A nil, nil return means the line was
// skipped because someone else claimed the item first.
func (s *Service) checkoutLine(ctx context.Context, buyer *dirmodels.Member, itemID domain.ItemID) (*models.Order, error) {
	code, hash, err := s.otp.Issue()
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to issue otp")
	}

	item, err := s.catalog.DeleteIfPresent(ctx, itemID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			if s.metrics != nil {
				s.metrics.CheckoutLinesSkipped.Inc()
			}
			if s.logger != nil {
				s.logger.WarnContext(ctx, "checkout line skipped, item already sold",
					"item_id", itemID.String(),
					"buyer_id", buyer.ID.String(),
					"request_id", middleware.GetRequestID(ctx),
				)
			}
			return nil, nil
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to claim item")
	}

	order, err := models.NewOrder(domain.NewOrderID(), item, buyer.ID, buyer.DisplayName(),
		code, hash, time.Now())
	if err != nil {
		return nil, err
	}
	if err := s.orders.Create(ctx, order); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to persist order")
	}
	if err := s.carts.PurgeReferencesTo(ctx, itemID); err != nil {
		return nil, err
	}

	s.logAudit(ctx, audit.ActionOrderCreated, buyer.ID.String(), order.ID.String())
	if s.metrics != nil {
		s.metrics.IncrementOrdersCreated()
	}
	return order, nil
}

// VerifyOTP checks a candidate code against the order's stored hash. It is a
// pure read: verification never changes order state.
func (s *Service) VerifyOTP(ctx context.Context, orderID domain.OrderID, candidate string) error {
	order, err := s.Get(ctx, orderID)
	if err != nil {
		return err
	}
	if !s.otp.Verify(candidate, order.OTPHash) {
		return dErrors.New(dErrors.CodeVerificationFailed, "otp does not match")
	}
	return nil
}

// CompleteOrder transitions the order to completed. Completing an already
// completed order is a Conflict, reported loudly rather than absorbed as an
// idempotent success.
func (s *Service) CompleteOrder(ctx context.Context, orderID domain.OrderID) (*models.Order, error) {
	order, err := s.orders.Execute(ctx, orderID, func(o *models.Order) error {
		if err := o.CanComplete(); err != nil {
			return err
		}
		o.ApplyCompletion(time.Now())
		return nil
	})
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "order not found")
		}
		if dErrors.HasCode(err, dErrors.CodeConflict) {
			return nil, err
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to complete order")
	}

	s.logAudit(ctx, audit.ActionOrderCompleted, order.SellerID.String(), order.ID.String())
	if s.metrics != nil {
		s.metrics.OrdersCompleted.Inc()
	}
	return order, nil
}

// Get returns a single order.
func (s *Service) Get(ctx context.Context, orderID domain.OrderID) (*models.Order, error) {
	order, err := s.orders.FindByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "order not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load order")
	}
	return order, nil
}

// ListByBuyer returns the member's orders as buyer in the given status.
func (s *Service) ListByBuyer(ctx context.Context, buyerID domain.MemberID, status models.Status) ([]*models.Order, error) {
	orders, err := s.orders.ListByBuyer(ctx, buyerID, status)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list orders")
	}
	return orders, nil
}

// ListBySeller returns the member's orders as seller in the given status.
func (s *Service) ListBySeller(ctx context.Context, sellerID domain.MemberID, status models.Status) ([]*models.Order, error) {
	orders, err := s.orders.ListBySeller(ctx, sellerID, status)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list orders")
	}
	return orders, nil
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

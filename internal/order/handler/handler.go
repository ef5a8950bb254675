package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"bazaar/internal/order/models"
	"bazaar/internal/platform/middleware"
	"bazaar/internal/transport/http/shared"
	"bazaar/pkg/domain"
	dErrors "bazaar/pkg/domain-errors"
)

// Service defines the interface for order operations.
type Service interface {
	Checkout(ctx context.Context, buyerID domain.MemberID) ([]*models.Order, error)
	VerifyOTP(ctx context.Context, orderID domain.OrderID, candidate string) error
	CompleteOrder(ctx context.Context, orderID domain.OrderID) (*models.Order, error)
	ListByBuyer(ctx context.Context, buyerID domain.MemberID, status models.Status) ([]*models.Order, error)
	ListBySeller(ctx context.Context, sellerID domain.MemberID, status models.Status) ([]*models.Order, error)
}

// Handler handles checkout, the OTP handoff endpoints, and order listings.
// Every route requires authentication.
type Handler struct {
	logger       *slog.Logger
	orders       Service
	jwtValidator middleware.JWTValidator
}

// New creates a new order Handler.
func New(orders Service, logger *slog.Logger, jwtValidator middleware.JWTValidator) *Handler {
	return &Handler{
		logger:       logger,
		orders:       orders,
		jwtValidator: jwtValidator,
	}
}

// Register registers the order routes with the chi router.
func (h *Handler) Register(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireAuth(h.jwtValidator, h.logger))
		r.Post("/order", h.handleCheckout)
		r.Get("/orders/pending", h.listHandler(h.orders.ListByBuyer, models.StatusPending))
		r.Get("/orders/seller/pending", h.listHandler(h.orders.ListBySeller, models.StatusPending))
		r.Get("/orders/bought", h.listHandler(h.orders.ListByBuyer, models.StatusCompleted))
		r.Get("/orders/sold", h.listHandler(h.orders.ListBySeller, models.StatusCompleted))
		r.Post("/orders/{orderID}/verify-otp", h.handleVerifyOTP)
		r.Post("/orders/{orderID}/complete", h.handleComplete)
	})
}

func (h *Handler) handleCheckout(w http.ResponseWriter, r *http.Request) {
	buyerID := middleware.GetMemberID(r.Context())
	if buyerID.IsNil() {
		shared.WriteError(w, dErrors.New(dErrors.CodeInternal, "authentication context error"))
		return
	}

	orders, err := h.orders.Checkout(r.Context(), buyerID)
	if err != nil {
		h.logger.WarnContext(r.Context(), "checkout failed",
			"error", err.Error(),
			"buyer_id", buyerID.String(),
			"request_id", middleware.GetRequestID(r.Context()),
		)
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusCreated, orders)
}

type listFunc func(ctx context.Context, memberID domain.MemberID, status models.Status) ([]*models.Order, error)

func (h *Handler) listHandler(list listFunc, status models.Status) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		memberID := middleware.GetMemberID(r.Context())
		if memberID.IsNil() {
			shared.WriteError(w, dErrors.New(dErrors.CodeInternal, "authentication context error"))
			return
		}

		orders, err := list(r.Context(), memberID, status)
		if err != nil {
			shared.WriteError(w, err)
			return
		}
		shared.WriteJSON(w, http.StatusOK, orders)
	}
}

type verifyOTPRequest struct {
	OTP string `json:"otp"`
}

func (h *Handler) handleVerifyOTP(w http.ResponseWriter, r *http.Request) {
	orderID, err := domain.ParseOrderID(chi.URLParam(r, "orderID"))
	if err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeInvalidInput, "invalid order id"))
		return
	}

	var req verifyOTPRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}

	if err := h.orders.VerifyOTP(r.Context(), orderID, req.OTP); err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, map[string]bool{"verified": true})
}

func (h *Handler) handleComplete(w http.ResponseWriter, r *http.Request) {
	orderID, err := domain.ParseOrderID(chi.URLParam(r, "orderID"))
	if err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeInvalidInput, "invalid order id"))
		return
	}

	if _, err := h.orders.CompleteOrder(r.Context(), orderID); err != nil {
		h.logger.WarnContext(r.Context(), "order completion failed",
			"error", err.Error(),
			"order_id", orderID.String(),
			"request_id", middleware.GetRequestID(r.Context()),
		)
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, map[string]bool{"completed": true})
}

package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	catalogmodels "bazaar/internal/catalog/models"
	"bazaar/internal/platform/middleware"
	"bazaar/internal/transport/http/shared"
	"bazaar/pkg/domain"
	dErrors "bazaar/pkg/domain-errors"
)

// Service defines the interface for cart operations.
type Service interface {
	Add(ctx context.Context, memberID domain.MemberID, itemID domain.ItemID) (bool, error)
	Remove(ctx context.Context, memberID domain.MemberID, itemID domain.ItemID) error
	List(ctx context.Context, memberID domain.MemberID) ([]*catalogmodels.Item, error)
}

// Handler handles cart endpoints. Every route requires authentication.
type Handler struct {
	logger       *slog.Logger
	cart         Service
	jwtValidator middleware.JWTValidator
}

// New creates a new cart Handler.
func New(cart Service, logger *slog.Logger, jwtValidator middleware.JWTValidator) *Handler {
	return &Handler{
		logger:       logger,
		cart:         cart,
		jwtValidator: jwtValidator,
	}
}

// Register registers the cart routes with the chi router.
func (h *Handler) Register(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireAuth(h.jwtValidator, h.logger))
		r.Post("/cart", h.handleAdd)
		r.Get("/cart", h.handleList)
		r.Delete("/cart/{itemID}", h.handleRemove)
	})
}

type addRequest struct {
	ItemID string `json:"item_id"`
}

func (h *Handler) handleAdd(w http.ResponseWriter, r *http.Request) {
	memberID := middleware.GetMemberID(r.Context())
	if memberID.IsNil() {
		shared.WriteError(w, dErrors.New(dErrors.CodeInternal, "authentication context error"))
		return
	}

	var req addRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}
	itemID, err := domain.ParseItemID(req.ItemID)
	if err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeInvalidInput, "invalid item id"))
		return
	}

	added, err := h.cart.Add(r.Context(), memberID, itemID)
	if err != nil {
		h.logger.WarnContext(r.Context(), "cart add failed",
			"error", err.Error(),
			"request_id", middleware.GetRequestID(r.Context()),
		)
		shared.WriteError(w, err)
		return
	}
	if !added {
		shared.WriteJSON(w, http.StatusOK, map[string]bool{"alreadyInCart": true})
		return
	}
	shared.WriteJSON(w, http.StatusOK, map[string]bool{"added": true})
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	memberID := middleware.GetMemberID(r.Context())
	if memberID.IsNil() {
		shared.WriteError(w, dErrors.New(dErrors.CodeInternal, "authentication context error"))
		return
	}

	items, err := h.cart.List(r.Context(), memberID)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, items)
}

func (h *Handler) handleRemove(w http.ResponseWriter, r *http.Request) {
	memberID := middleware.GetMemberID(r.Context())
	if memberID.IsNil() {
		shared.WriteError(w, dErrors.New(dErrors.CodeInternal, "authentication context error"))
		return
	}

	itemID, err := domain.ParseItemID(chi.URLParam(r, "itemID"))
	if err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeInvalidInput, "invalid item id"))
		return
	}

	if err := h.cart.Remove(r.Context(), memberID, itemID); err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, map[string]bool{"removed": true})
}

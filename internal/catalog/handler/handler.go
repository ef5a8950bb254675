package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"bazaar/internal/catalog/models"
	"bazaar/internal/platform/middleware"
	"bazaar/internal/transport/http/shared"
	"bazaar/pkg/domain"
	dErrors "bazaar/pkg/domain-errors"
	pstrings "bazaar/pkg/platform/strings"
)

// Service defines the interface for catalog operations.
type Service interface {
	Create(ctx context.Context, vendorID domain.MemberID, req models.CreateItemRequest) (*models.Item, error)
	Get(ctx context.Context, id domain.ItemID) (*models.Item, error)
	List(ctx context.Context, filter models.ListFilter) ([]*models.Item, error)
}

// Handler handles catalog endpoints. Reads are public; listing an item
// requires authentication.
type Handler struct {
	logger       *slog.Logger
	catalog      Service
	jwtValidator middleware.JWTValidator
}

// New creates a new catalog Handler.
func New(catalog Service, logger *slog.Logger, jwtValidator middleware.JWTValidator) *Handler {
	return &Handler{
		logger:       logger,
		catalog:      catalog,
		jwtValidator: jwtValidator,
	}
}

// Register registers the catalog routes with the chi router.
func (h *Handler) Register(r chi.Router) {
	r.Get("/items", h.handleList)
	r.Get("/items/{itemID}", h.handleGet)

	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireAuth(h.jwtValidator, h.logger))
		r.Post("/items", h.handleCreate)
	})
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	vendorID := middleware.GetMemberID(r.Context())
	if vendorID.IsNil() {
		shared.WriteError(w, dErrors.New(dErrors.CodeInternal, "authentication context error"))
		return
	}

	var req models.CreateItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}

	item, err := h.catalog.Create(r.Context(), vendorID, req)
	if err != nil {
		h.logger.WarnContext(r.Context(), "item creation failed",
			"error", err.Error(),
			"request_id", middleware.GetRequestID(r.Context()),
		)
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusCreated, item)
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	id, err := domain.ParseItemID(chi.URLParam(r, "itemID"))
	if err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeInvalidInput, "invalid item id"))
		return
	}

	item, err := h.catalog.Get(r.Context(), id)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, item)
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	filter, err := parseListFilter(r)
	if err != nil {
		shared.WriteError(w, err)
		return
	}

	items, err := h.catalog.List(r.Context(), filter)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, items)
}

// parseListFilter reads ?search= and ?categories= (comma-separated, may be
// repeated) into a ListFilter.
func parseListFilter(r *http.Request) (models.ListFilter, error) {
	filter := models.ListFilter{Search: r.URL.Query().Get("search")}

	var tokens []string
	for _, raw := range r.URL.Query()["categories"] {
		tokens = append(tokens, strings.Split(raw, ",")...)
	}
	for _, token := range pstrings.DedupeAndTrimLower(tokens) {
		category, err := models.ParseCategory(token)
		if err != nil {
			return models.ListFilter{}, err
		}
		filter.Categories = append(filter.Categories, category)
	}
	return filter, nil
}

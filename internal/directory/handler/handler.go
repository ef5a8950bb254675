package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/asaskevich/govalidator"
	"github.com/go-chi/chi/v5"

	"bazaar/internal/directory/models"
	"bazaar/internal/platform/middleware"
	"bazaar/internal/transport/http/shared"
	"bazaar/pkg/domain"
	dErrors "bazaar/pkg/domain-errors"
)

// Service defines the interface for member identity operations.
type Service interface {
	Register(ctx context.Context, req models.RegisterRequest) (*models.Member, error)
	Login(ctx context.Context, req models.LoginRequest) (string, *models.Member, error)
	Profile(ctx context.Context, id domain.MemberID) (*models.Member, error)
	UpdateProfile(ctx context.Context, id domain.MemberID, req models.UpdateProfileRequest) (*models.Member, error)
}

// Handler handles registration, login, and profile endpoints.
type Handler struct {
	logger       *slog.Logger
	directory    Service
	jwtValidator middleware.JWTValidator
}

// New creates a new directory Handler.
func New(directory Service, logger *slog.Logger, jwtValidator middleware.JWTValidator) *Handler {
	return &Handler{
		logger:       logger,
		directory:    directory,
		jwtValidator: jwtValidator,
	}
}

// Register registers the directory routes with the chi router.
func (h *Handler) Register(r chi.Router) {
	r.Post("/register", h.handleRegister)
	r.Post("/login", h.handleLogin)

	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireAuth(h.jwtValidator, h.logger))
		r.Get("/profile", h.handleGetProfile)
		r.Put("/profile", h.handleUpdateProfile)
	})
}

func (h *Handler) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req models.RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}
	if err := validateRegisterRequest(req); err != nil {
		shared.WriteError(w, err)
		return
	}

	member, err := h.directory.Register(r.Context(), req)
	if err != nil {
		h.logError(r.Context(), "register failed", err)
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusCreated, member)
}

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req models.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}

	token, member, err := h.directory.Login(r.Context(), req)
	if err != nil {
		h.logError(r.Context(), "login failed", err)
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, map[string]any{
		"token":  token,
		"member": member,
	})
}

func (h *Handler) handleGetProfile(w http.ResponseWriter, r *http.Request) {
	memberID := middleware.GetMemberID(r.Context())
	if memberID.IsNil() {
		shared.WriteError(w, dErrors.New(dErrors.CodeInternal, "authentication context error"))
		return
	}

	member, err := h.directory.Profile(r.Context(), memberID)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, member)
}

func (h *Handler) handleUpdateProfile(w http.ResponseWriter, r *http.Request) {
	memberID := middleware.GetMemberID(r.Context())
	if memberID.IsNil() {
		shared.WriteError(w, dErrors.New(dErrors.CodeInternal, "authentication context error"))
		return
	}

	var req models.UpdateProfileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}
	if req.Email != nil && !govalidator.IsEmail(*req.Email) {
		shared.WriteError(w, dErrors.New(dErrors.CodeInvalidInput, "invalid email"))
		return
	}

	member, err := h.directory.UpdateProfile(r.Context(), memberID, req)
	if err != nil {
		h.logError(r.Context(), "profile update failed", err)
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, member)
}

func (h *Handler) logError(ctx context.Context, msg string, err error) {
	h.logger.WarnContext(ctx, msg,
		"error", err.Error(),
		"request_id", middleware.GetRequestID(ctx),
	)
}

func validateRegisterRequest(req models.RegisterRequest) error {
	if !govalidator.StringLength(req.FirstName, "1", "100") {
		return dErrors.New(dErrors.CodeInvalidInput, "first_name is required")
	}
	if !govalidator.StringLength(req.LastName, "1", "100") {
		return dErrors.New(dErrors.CodeInvalidInput, "last_name is required")
	}
	if !govalidator.IsEmail(req.Email) {
		return dErrors.New(dErrors.CodeInvalidInput, "invalid email")
	}
	if !govalidator.StringLength(req.Password, "8", "128") {
		return dErrors.New(dErrors.CodeInvalidInput, "password must be at least 8 characters")
	}
	if req.Age < 0 {
		return dErrors.New(dErrors.CodeInvalidInput, "age must not be negative")
	}
	return nil
}

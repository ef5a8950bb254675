package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"bazaar/internal/audit"
	"bazaar/internal/directory/models"
	"bazaar/internal/directory/secrets"
	"bazaar/internal/platform/metrics"
	"bazaar/internal/platform/middleware"
	"bazaar/pkg/domain"
	dErrors "bazaar/pkg/domain-errors"
	"bazaar/pkg/platform/sentinel"
)

type MemberStore interface {
	CreateIfEmailAvailable(ctx context.Context, member *models.Member) error
	FindByID(ctx context.Context, id domain.MemberID) (*models.Member, error)
	FindByEmail(ctx context.Context, email string) (*models.Member, error)
	Update(ctx context.Context, member *models.Member) error
}

type TokenIssuer interface {
	GenerateAccessToken(memberID domain.MemberID, expiresIn time.Duration) (string, error)
}

type AuditPublisher interface {
	Emit(ctx context.Context, base audit.Event) error
}

// Service owns member identity: registration, credential login, and profile
// reads/updates. It is also the resolver other modules use to stamp display
// names onto listings and orders.
type Service struct {
	members        MemberStore
	tokens         TokenIssuer
	tokenTTL       time.Duration
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

// New constructs a Service.
func New(members MemberStore, tokens TokenIssuer, tokenTTL time.Duration, opts ...Option) *Service {
	s := &Service{members: members, tokens: tokens, tokenTTL: tokenTTL}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Register creates a member with a local credential.
func (s *Service) Register(ctx context.Context, req models.RegisterRequest) (*models.Member, error) {
	req.Normalize()

	if req.Password == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "password is required")
	}
	passwordHash, err := secrets.Hash(req.Password)
	if err != nil {
		if dErrors.HasCode(err, dErrors.CodeInvalidInput) {
			return nil, err
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to hash password")
	}

	member, err := models.NewMember(domain.NewMemberID(), req.FirstName, req.LastName, req.Email,
		req.Age, req.ContactNumber, passwordHash, false, time.Now())
	if err != nil {
		if dErrors.HasCode(err, dErrors.CodeInvariantViolation) {
			return nil, dErrors.New(dErrors.CodeValidation, dErrors.MessageOf(err))
		}
		return nil, err
	}

	if err := s.members.CreateIfEmailAvailable(ctx, member); err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			return nil, dErrors.New(dErrors.CodeConflict, "email already registered")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to register member")
	}

	s.logAudit(ctx, audit.ActionMemberRegistered, member.ID.String(), member.ID.String())
	if s.metrics != nil {
		s.metrics.MembersRegistered.Inc()
	}
	return member, nil
}

// Login verifies a credential and issues an access token. The same error is
// returned for an unknown email and a wrong password so the endpoint cannot
// be used to probe which addresses are registered.
func (s *Service) Login(ctx context.Context, req models.LoginRequest) (string, *models.Member, error) {
	member, err := s.members.FindByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return "", nil, dErrors.New(dErrors.CodeUnauthorized, "invalid email or password")
		}
		return "", nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load member")
	}

	if member.ExternalIdentity {
		return "", nil, dErrors.New(dErrors.CodeUnauthorized, "member authenticates through an external identity provider")
	}
	if err := secrets.Verify(req.Password, member.PasswordHash); err != nil {
		return "", nil, dErrors.New(dErrors.CodeUnauthorized, "invalid email or password")
	}

	token, err := s.tokens.GenerateAccessToken(member.ID, s.tokenTTL)
	if err != nil {
		return "", nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to issue token")
	}
	return token, member, nil
}

// Profile returns the member record for the authenticated caller.
func (s *Service) Profile(ctx context.Context, id domain.MemberID) (*models.Member, error) {
	member, err := s.members.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "member not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load member")
	}
	return member, nil
}

// UpdateProfile applies the non-nil fields of req. Email changes re-check
// uniqueness; a new password is re-hashed. Existing listings and orders keep
// their display-name snapshots.
func (s *Service) UpdateProfile(ctx context.Context, id domain.MemberID, req models.UpdateProfileRequest) (*models.Member, error) {
	member, err := s.Profile(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.FirstName != nil {
		member.FirstName = *req.FirstName
	}
	if req.LastName != nil {
		member.LastName = *req.LastName
	}
	if req.Email != nil {
		member.Email = *req.Email
	}
	if req.Age != nil {
		member.Age = *req.Age
	}
	if req.ContactNumber != nil {
		member.ContactNumber = *req.ContactNumber
	}
	if req.Password != nil {
		if member.ExternalIdentity {
			return nil, dErrors.New(dErrors.CodeConflict, "member authenticates through an external identity provider")
		}
		hash, err := secrets.Hash(*req.Password)
		if err != nil {
			if dErrors.HasCode(err, dErrors.CodeInvalidInput) {
				return nil, err
			}
			return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to hash password")
		}
		member.PasswordHash = hash
	}

	if member.FirstName == "" || member.LastName == "" || member.Email == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "name and email must not be empty")
	}

	member.UpdatedAt = time.Now()
	if err := s.members.Update(ctx, member); err != nil {
		switch {
		case errors.Is(err, sentinel.ErrConflict):
			return nil, dErrors.New(dErrors.CodeConflict, "email already registered")
		case errors.Is(err, sentinel.ErrNotFound):
			return nil, dErrors.New(dErrors.CodeNotFound, "member not found")
		default:
			return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to update member")
		}
	}
	return member, nil
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

package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"bazaar/pkg/domain"
)

// JWTValidator defines the interface for validating JWT tokens.
type JWTValidator interface {
	ValidateToken(tokenString string) (*JWTClaims, error)
}

// JWTClaims represents the claims we expect from the JWT validator.
type JWTClaims struct {
	MemberID domain.MemberID
}

// Context key for storing the authenticated member.
type contextKeyMemberID struct{}

// ContextKeyMemberID is exported for use in handlers and tests.
var ContextKeyMemberID = contextKeyMemberID{}

// GetMemberID retrieves the authenticated member ID from the context.
// Returns the zero MemberID when the request is unauthenticated.
func GetMemberID(ctx context.Context) domain.MemberID {
	memberID, ok := ctx.Value(ContextKeyMemberID).(domain.MemberID)
	if !ok {
		return domain.MemberID{}
	}
	return memberID
}

// RequireAuth rejects requests without a valid bearer token and stashes the
// authenticated member ID in the request context.
func RequireAuth(validator JWTValidator, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			const bearerPrefix = "Bearer "
			token, ok := strings.CutPrefix(authHeader, bearerPrefix)
			if !ok {
				unauthorized(w, r, logger, "missing or malformed Authorization header")
				return
			}

			claims, err := validator.ValidateToken(token)
			if err != nil {
				logger.WarnContext(r.Context(), "unauthorized access - invalid token",
					"error", err,
					"request_id", GetRequestID(r.Context()),
				)
				unauthorized(w, r, logger, "invalid or expired token")
				return
			}

			ctx := context.WithValue(r.Context(), ContextKeyMemberID, claims.MemberID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func unauthorized(w http.ResponseWriter, r *http.Request, logger *slog.Logger, description string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	if _, err := w.Write([]byte(`{"error":"unauthorized","message":"` + description + `"}`)); err != nil {
		logger.ErrorContext(r.Context(), "failed to write unauthorized response",
			"error", err,
			"request_id", GetRequestID(r.Context()),
		)
	}
}

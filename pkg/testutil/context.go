package testutil

import (
	"context"
	"net/http"

	"bazaar/internal/platform/middleware"
	"bazaar/pkg/domain"
)

// WithMemberID adds a member ID to the request context, simulating what the
// auth middleware does for authenticated requests. Invalid IDs are silently
// ignored.
func WithMemberID(req *http.Request, memberID string) *http.Request {
	parsed, err := domain.ParseMemberID(memberID)
	if err != nil {
		return req
	}
	ctx := context.WithValue(req.Context(), middleware.ContextKeyMemberID, parsed)
	return req.WithContext(ctx)
}

// WithRequestID seeds a request id, matching the RequestID middleware.
func WithRequestID(req *http.Request, requestID string) *http.Request {
	ctx := context.WithValue(req.Context(), middleware.ContextKeyRequestID, requestID)
	return req.WithContext(ctx)
}

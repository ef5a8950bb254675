package middleware_test

import (
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bazaar/internal/platform/middleware"
	"bazaar/pkg/domain"
	dErrors "bazaar/pkg/domain-errors"
	"bazaar/pkg/testutil"
)

type stubValidator struct {
	claims *middleware.JWTClaims
	err    error
}

func (v stubValidator) ValidateToken(string) (*middleware.JWTClaims, error) {
	return v.claims, v.err
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(io.Discard, nil))
}

func TestRequireAuth(t *testing.T) {
	memberID := domain.NewMemberID()
	echo := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, middleware.GetMemberID(r.Context()).String())
	})

	t.Run("missing header is rejected", func(t *testing.T) {
		h := middleware.RequireAuth(stubValidator{}, discardLogger())(echo)
		rec := testutil.DoRequest(h, testutil.NewRequest(t, http.MethodGet, "/"))
		require.Equal(t, http.StatusUnauthorized, rec.Code)
		testutil.AssertErrorCode(t, rec, "unauthorized")
	})

	t.Run("invalid token is rejected", func(t *testing.T) {
		h := middleware.RequireAuth(stubValidator{err: dErrors.New(dErrors.CodeUnauthorized, "bad token")}, discardLogger())(echo)
		req := testutil.NewRequest(t, http.MethodGet, "/")
		req.Header.Set("Authorization", "Bearer nope")
		rec := testutil.DoRequest(h, req)
		require.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("valid token stashes the member id", func(t *testing.T) {
		h := middleware.RequireAuth(stubValidator{claims: &middleware.JWTClaims{MemberID: memberID}}, discardLogger())(echo)
		req := testutil.NewRequest(t, http.MethodGet, "/")
		req.Header.Set("Authorization", "Bearer good")
		rec := testutil.DoRequest(h, req)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, memberID.String(), rec.Body.String())
	})
}

func TestGetMemberID(t *testing.T) {
	memberID := domain.NewMemberID()

	req := testutil.NewRequest(t, http.MethodGet, "/")
	req = testutil.WithMemberID(req, memberID.String())
	assert.Equal(t, memberID, middleware.GetMemberID(req.Context()))

	req = testutil.NewRequest(t, http.MethodGet, "/")
	req = testutil.WithMemberID(req, "not-a-uuid")
	assert.True(t, middleware.GetMemberID(req.Context()).IsNil())
}

func TestRequestID(t *testing.T) {
	var seen string
	h := middleware.RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = middleware.GetRequestID(r.Context())
	}))

	t.Run("generates an id when absent", func(t *testing.T) {
		rec := testutil.DoRequest(h, testutil.NewRequest(t, http.MethodGet, "/"))
		assert.NotEmpty(t, seen)
		assert.Equal(t, seen, rec.Header().Get("X-Request-ID"))
	})

	t.Run("inbound id survives", func(t *testing.T) {
		req := testutil.NewRequest(t, http.MethodGet, "/")
		req.Header.Set("X-Request-ID", "req-123")
		rec := testutil.DoRequest(h, req)
		assert.Equal(t, "req-123", seen)
		assert.Equal(t, "req-123", rec.Header().Get("X-Request-ID"))
	})
}

func TestRecovery(t *testing.T) {
	h := middleware.Recovery(discardLogger())(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}))

	rec := testutil.DoRequest(h, testutil.NewRequest(t, http.MethodGet, "/"))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

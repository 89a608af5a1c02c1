package middleware

import (
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/storefront/storefront/internal/auth"
	"github.com/storefront/storefront/internal/metrics"
)

type stubVerifier struct {
	userID string
	err    error
	calls  int
}

func (s *stubVerifier) Verify(token string) (string, error) {
	s.calls++
	return s.userID, s.err
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func sessionHandler(cfg SessionConfig) (http.Handler, *string) {
	var seen string
	h := Session(cfg)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = auth.UserIDFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	}))
	return h, &seen
}

func TestSession_MissingHeaderSkipsVerifier(t *testing.T) {
	verifier := &stubVerifier{userID: "u1"}
	rec := metrics.NewInMemory()
	h, seen := sessionHandler(SessionConfig{Logger: discardLogger(), Verifier: verifier, Metrics: rec})

	req := httptest.NewRequest(http.MethodPost, "/addtocart", nil)
	resp := httptest.NewRecorder()
	h.ServeHTTP(resp, req)

	assert.Equal(t, http.StatusUnauthorized, resp.Code)
	assert.JSONEq(t, `{"errors":"Please authenticate using a valid token"}`, resp.Body.String())
	assert.Equal(t, 0, verifier.calls)
	assert.Empty(t, *seen)
	assert.Equal(t, uint64(1), rec.Snapshot().AuthFailures["missing_token"])
}

func TestSession_InvalidToken(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantReason string
	}{
		{"invalid token", auth.ErrInvalidToken, "invalid_token"},
		{"unexpected verifier error", errors.New("boom"), "verify_error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			verifier := &stubVerifier{err: tt.err}
			rec := metrics.NewInMemory()
			h, _ := sessionHandler(SessionConfig{Logger: discardLogger(), Verifier: verifier, Metrics: rec})

			req := httptest.NewRequest(http.MethodPost, "/getcart", nil)
			req.Header.Set(AuthTokenHeader, "garbage")
			resp := httptest.NewRecorder()
			h.ServeHTTP(resp, req)

			assert.Equal(t, http.StatusUnauthorized, resp.Code)
			assert.Equal(t, "application/json", resp.Header().Get("Content-Type"))
			assert.JSONEq(t, `{"errors":"Please authenticate using a valid token"}`, resp.Body.String())
			assert.Equal(t, 1, verifier.calls)
			assert.Equal(t, uint64(1), rec.Snapshot().AuthFailures[tt.wantReason])
		})
	}
}

func TestSession_ValidTokenSetsUser(t *testing.T) {
	tokens, err := auth.NewTokenService("test-secret")
	require.NoError(t, err)
	token, err := tokens.Issue("01HZUSER")
	require.NoError(t, err)

	h, seen := sessionHandler(SessionConfig{Logger: discardLogger(), Verifier: tokens})

	req := httptest.NewRequest(http.MethodPost, "/addtocart", nil)
	req.Header.Set(AuthTokenHeader, token)
	resp := httptest.NewRecorder()
	h.ServeHTTP(resp, req)

	assert.Equal(t, http.StatusOK, resp.Code)
	assert.Equal(t, "01HZUSER", *seen)
}

func TestSession_TokenFromOtherSecretRejected(t *testing.T) {
	issuer, err := auth.NewTokenService("secret-a")
	require.NoError(t, err)
	verifier, err := auth.NewTokenService("secret-b")
	require.NoError(t, err)
	token, err := issuer.Issue("u1")
	require.NoError(t, err)

	h, seen := sessionHandler(SessionConfig{Logger: discardLogger(), Verifier: verifier})

	req := httptest.NewRequest(http.MethodPost, "/addtocart", nil)
	req.Header.Set(AuthTokenHeader, token)
	resp := httptest.NewRecorder()
	h.ServeHTTP(resp, req)

	assert.Equal(t, http.StatusUnauthorized, resp.Code)
	assert.Empty(t, *seen)
}

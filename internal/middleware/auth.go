package middleware

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/storefront/storefront/internal/auth"
	"github.com/storefront/storefront/internal/metrics"
)

// AuthTokenHeader carries the session token on cart requests.
const AuthTokenHeader = "auth-token"

// TokenVerifier checks a session token and returns the user ID it identifies.
type TokenVerifier interface {
	Verify(token string) (string, error)
}

// SessionConfig holds configuration for the session middleware.
type SessionConfig struct {
	Logger   *slog.Logger
	Verifier TokenVerifier
	Metrics  metrics.Recorder
}

// Session returns a middleware that admits only requests carrying a valid
// session token. The verified user ID is stored in the request context.
// It never touches the user store.
func Session(cfg SessionConfig) func(http.Handler) http.Handler {
	if cfg.Metrics == nil {
		cfg.Metrics = metrics.NewNoop()
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := r.Header.Get(AuthTokenHeader)
			if token == "" {
				rejectSession(cfg, w, r, "missing_token")
				return
			}

			userID, err := cfg.Verifier.Verify(token)
			if err != nil {
				reason := "invalid_token"
				if !errors.Is(err, auth.ErrInvalidToken) {
					reason = "verify_error"
				}
				rejectSession(cfg, w, r, reason)
				return
			}

			ctx := auth.ContextWithUserID(r.Context(), userID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func rejectSession(cfg SessionConfig, w http.ResponseWriter, r *http.Request, reason string) {
	cfg.Metrics.IncAuthFailure(reason)
	cfg.Logger.Warn("authentication failed",
		slog.String("reason", reason),
		slog.String("ip", r.RemoteAddr),
		slog.String("endpoint", r.Method+" "+r.URL.Path),
		slog.String("request_id", GetRequestID(r.Context())),
	)
	writeAuthError(w)
}

// writeAuthError writes a 401 Unauthorized response.
// Uses the same message for all auth failures to prevent enumeration.
func writeAuthError(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_, _ = w.Write([]byte(`{"errors":"Please authenticate using a valid token"}`))
}

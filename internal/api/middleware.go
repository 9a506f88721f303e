package api

import (
	"context"
	"database/sql"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"scraptrack/internal/auth"
	"scraptrack/internal/store"
)

type contextKey string

const claimsKey contextKey = "claims"

// AuthMiddleware is the access gate. A request passes if it carries either a
// valid, unrevoked session JWT or Basic credentials matching the configured
// pair. Missing, malformed, and wrong credentials are all rejected with the
// same response.
func AuthMiddleware(creds auth.Credentials, jwtSecret string, db *sql.DB) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")

			if token, ok := strings.CutPrefix(header, "Bearer "); ok {
				claims, err := auth.ValidateToken(jwtSecret, token)
				if err == nil && claims.ID != "" {
					revoked, rerr := store.IsTokenRevoked(r.Context(), db, claims.ID)
					if rerr != nil {
						slog.Error("checking token revocation", "error", rerr)
						jsonError(w, http.StatusUnauthorized, "authentication required")
						return
					}
					if revoked {
						jsonError(w, http.StatusUnauthorized, "authentication required")
						return
					}
				}
				if err == nil {
					ctx := context.WithValue(r.Context(), claimsKey, claims)
					next.ServeHTTP(w, r.WithContext(ctx))
					return
				}
				jsonError(w, http.StatusUnauthorized, "authentication required")
				return
			}

			if username, password, ok := r.BasicAuth(); ok && creds.Check(username, password) {
				next.ServeHTTP(w, r)
				return
			}

			jsonError(w, http.StatusUnauthorized, "authentication required")
		})
	}
}

// GetClaims retrieves the session claims from the context, or nil when the
// request authenticated with Basic credentials.
func GetClaims(ctx context.Context) *auth.Claims {
	claims, _ := ctx.Value(claimsKey).(*auth.Claims)
	return claims
}

// statusRecorder wraps http.ResponseWriter to capture the status code.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// LoggingMiddleware logs HTTP requests with method, path, status, and duration.
func LoggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		slog.Info("request",
			"method", r.Method,
			"path", r.URL.RequestURI(),
			"status", rec.status,
			"duration", time.Since(start).Round(time.Millisecond))
	})
}

package api

import (
	"database/sql"
	"log/slog"
	"net/http"
	"time"

	"scraptrack/internal/auth"
	"scraptrack/internal/store"
)

// AuthHandler handles login and logout.
type AuthHandler struct {
	DB        *sql.DB
	Creds     auth.Credentials
	JWTSecret string
	TokenTTL  time.Duration
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token string `json:"token"`
}

// Login handles POST /api/auth/login. A matching credential pair yields a
// session token; anything else is rejected uniformly.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusUnauthorized, "invalid credentials")
		return
	}

	if !h.Creds.Check(req.Username, req.Password) {
		slog.Warn("login failed", "username", req.Username, "remote", r.RemoteAddr)
		jsonError(w, http.StatusUnauthorized, "invalid credentials")
		return
	}

	token, err := auth.GenerateToken(h.JWTSecret, req.Username, h.TokenTTL)
	if err != nil {
		jsonError(w, http.StatusInternalServerError, "failed to generate token")
		return
	}

	slog.Info("user logged in", "user", req.Username)
	jsonResponse(w, http.StatusOK, loginResponse{Token: token})
}

// Logout handles POST /api/auth/logout by revoking the presented session
// token. Requests authenticated with Basic credentials have nothing to
// revoke and succeed as a no-op.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	claims := GetClaims(r.Context())
	if claims != nil && claims.ID != "" {
		expiresAt := time.Now().Add(h.TokenTTL)
		if claims.ExpiresAt != nil {
			expiresAt = claims.ExpiresAt.Time
		}
		if err := store.RevokeToken(r.Context(), h.DB, claims.ID, expiresAt); err != nil {
			jsonError(w, http.StatusInternalServerError, "failed to revoke token")
			return
		}
	}
	jsonResponse(w, http.StatusOK, map[string]string{"message": "logged out"})
}

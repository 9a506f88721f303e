package api

import (
	"database/sql"
	"net/http"
	"time"

	"scraptrack/internal/auth"
	"scraptrack/internal/dispatch"
)

// NewRouter creates the API router with all endpoints registered. Draft
// submission and the catalog are open to field users; listing, deletion, and
// both dispatch paths sit behind the access gate.
func NewRouter(db *sql.DB, engine *dispatch.Engine, creds auth.Credentials, jwtSecret string, tokenTTL time.Duration) http.Handler {
	mux := http.NewServeMux()

	authHandler := &AuthHandler{DB: db, Creds: creds, JWTSecret: jwtSecret, TokenTTL: tokenTTL}
	draftsHandler := &DraftsHandler{DB: db}
	dispatchHandler := &DispatchHandler{Engine: engine}

	gate := AuthMiddleware(creds, jwtSecret, db)

	// Public: login, form data, draft submission.
	mux.HandleFunc("POST /api/auth/login", authHandler.Login)
	mux.HandleFunc("GET /api/catalog", draftsHandler.Catalog)
	mux.HandleFunc("POST /api/drafts", draftsHandler.Save)

	// Gate-protected.
	mux.Handle("POST /api/auth/logout", gate(http.HandlerFunc(authHandler.Logout)))
	mux.Handle("GET /api/drafts", gate(http.HandlerFunc(draftsHandler.List)))
	mux.Handle("DELETE /api/drafts/{id}", gate(http.HandlerFunc(draftsHandler.Delete)))
	mux.Handle("POST /api/send", gate(http.HandlerFunc(dispatchHandler.SendOne)))
	mux.Handle("POST /api/send-all", gate(http.HandlerFunc(dispatchHandler.SendAll)))

	return mux
}

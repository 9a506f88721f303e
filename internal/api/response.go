package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"scraptrack/internal/dispatch"
	"scraptrack/internal/model"
	"scraptrack/internal/store"
)

// jsonResponse writes a JSON response with the given status code.
func jsonResponse(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			slog.Error("encoding response", "error", err)
		}
	}
}

// jsonError writes a JSON error response.
func jsonError(w http.ResponseWriter, status int, message string) {
	jsonResponse(w, status, map[string]string{"error": message})
}

// decodeJSON decodes a JSON request body into the given target.
func decodeJSON(r *http.Request, target any) error {
	defer r.Body.Close()
	return json.NewDecoder(r.Body).Decode(target)
}

// domainError maps domain errors onto HTTP responses: validation problems
// and empty batches are the caller's fault, missing drafts are 404, transport
// failures are a bad gateway, everything else is internal.
func domainError(w http.ResponseWriter, err error) {
	var verr *model.ValidationError
	if errors.As(err, &verr) {
		jsonError(w, http.StatusBadRequest, verr.Error())
		return
	}
	if errors.Is(err, store.ErrNotFound) {
		jsonError(w, http.StatusNotFound, "draft not found")
		return
	}
	if errors.Is(err, dispatch.ErrNoPendingDrafts) {
		jsonError(w, http.StatusBadRequest, "no pending drafts to send")
		return
	}
	var derr *dispatch.DispatchError
	if errors.As(err, &derr) {
		slog.Error("mail transport failure", "error", derr.Err)
		jsonError(w, http.StatusBadGateway, "failed to send email")
		return
	}
	slog.Error("internal error", "error", err)
	jsonError(w, http.StatusInternalServerError, "internal error")
}

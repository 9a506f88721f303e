package api

import (
	"database/sql"
	"log/slog"
	"net/http"

	"scraptrack/internal/catalog"
	"scraptrack/internal/model"
	"scraptrack/internal/store"
)

// DraftsHandler handles draft CRUD endpoints.
type DraftsHandler struct {
	DB *sql.DB
}

// Save handles POST /api/drafts: create when no id is supplied, update
// (which always reopens the record for editing) when one is. Quantities are
// normalized to the stock-deduction sign convention at this ingest point and
// never reprocessed on read.
func (h *DraftsHandler) Save(w http.ResponseWriter, r *http.Request) {
	var in model.Draft
	if err := decodeJSON(r, &in); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	in.FormData.Normalize()

	if in.ID != "" {
		updated, err := store.UpdateDraft(r.Context(), h.DB, in.ID, &in)
		if err != nil {
			domainError(w, err)
			return
		}
		jsonResponse(w, http.StatusOK, updated)
		return
	}

	created, err := store.CreateDraft(r.Context(), h.DB, &in)
	if err != nil {
		domainError(w, err)
		return
	}
	slog.Info("draft created", "draft", created.ID, "submitter", created.Name)
	jsonResponse(w, http.StatusCreated, created)
}

// List handles GET /api/drafts, returning pending drafts most recently
// updated first.
func (h *DraftsHandler) List(w http.ResponseWriter, r *http.Request) {
	drafts, err := store.ListPending(r.Context(), h.DB)
	if err != nil {
		domainError(w, err)
		return
	}
	if drafts == nil {
		drafts = []model.Draft{}
	}
	jsonResponse(w, http.StatusOK, drafts)
}

// Delete handles DELETE /api/drafts/{id}. Deletion is idempotent: removing a
// draft that is already gone still answers 204.
func (h *DraftsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		jsonError(w, http.StatusBadRequest, "draft id required")
		return
	}
	if err := store.DeleteDraft(r.Context(), h.DB, id); err != nil {
		domainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// catalogResponse is the static form-building data.
type catalogResponse struct {
	Categories []catalog.Category `json:"categories"`
	Stores     []string           `json:"stores"`
	Vendors    []string           `json:"vendors"`
}

// Catalog handles GET /api/catalog.
func (h *DraftsHandler) Catalog(w http.ResponseWriter, _ *http.Request) {
	jsonResponse(w, http.StatusOK, catalogResponse{
		Categories: catalog.Categories(),
		Stores:     catalog.Stores(),
		Vendors:    catalog.Vendors(),
	})
}

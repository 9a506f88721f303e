package api

import (
	"errors"
	"log/slog"
	"net/http"

	"scraptrack/internal/dispatch"
	"scraptrack/internal/model"
)

// DispatchHandler exposes the single and consolidated send operations.
type DispatchHandler struct {
	Engine *dispatch.Engine
}

// sendRequest references a persisted draft by id, or carries an inline
// payload for an ad-hoc send.
type sendRequest struct {
	DraftID string `json:"draft_id"`
	model.Draft
}

type sendResponse struct {
	DraftID   string `json:"draft_id"`
	Recipient string `json:"recipient"`
	Recorded  bool   `json:"recorded"`
}

// SendOne handles POST /api/send.
func (h *DispatchHandler) SendOne(w http.ResponseWriter, r *http.Request) {
	var req sendRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	in := dispatch.SingleInput{DraftID: req.DraftID}
	if in.DraftID == "" {
		in.DraftID = req.Draft.ID
	}
	if in.DraftID == "" {
		req.Draft.FormData.Normalize()
		in.Draft = &req.Draft
	}

	receipt, err := h.Engine.SendOne(r.Context(), in)
	if err != nil && !errors.Is(err, dispatch.ErrSentNotRecorded) {
		domainError(w, err)
		return
	}
	// An unrecorded receipt is a degraded success: the email is out, only
	// the bookkeeping failed. Resending would duplicate mail.
	if err != nil {
		slog.Warn("send succeeded without a durable record", "draft", receipt.DraftID)
	}
	jsonResponse(w, http.StatusOK, sendResponse{
		DraftID:   receipt.DraftID,
		Recipient: receipt.Recipient,
		Recorded:  receipt.Recorded,
	})
}

type sendAllRequest struct {
	RecipientEmail string `json:"recipient_email"`
}

type sendAllResponse struct {
	DraftsSent int    `json:"drafts_sent"`
	Requested  int    `json:"requested"`
	Recipient  string `json:"recipient"`
	Recorded   bool   `json:"recorded"`
}

// SendAll handles POST /api/send-all. The response reports the number of
// drafts actually transitioned, which a concurrent dispatch can make smaller
// than the number loaded.
func (h *DispatchHandler) SendAll(w http.ResponseWriter, r *http.Request) {
	var req sendAllRequest
	if r.ContentLength != 0 {
		if err := decodeJSON(r, &req); err != nil {
			jsonError(w, http.StatusBadRequest, "invalid request body")
			return
		}
	}

	receipt, err := h.Engine.SendAll(r.Context(), req.RecipientEmail)
	if err != nil && !errors.Is(err, dispatch.ErrSentNotRecorded) {
		domainError(w, err)
		return
	}
	recorded := err == nil
	if !recorded {
		slog.Warn("consolidated send succeeded without durable records",
			"requested", receipt.Requested)
	}
	jsonResponse(w, http.StatusOK, sendAllResponse{
		DraftsSent: receipt.Sent,
		Requested:  receipt.Requested,
		Recipient:  receipt.Recipient,
		Recorded:   recorded,
	})
}

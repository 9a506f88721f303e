// Package dispatch orchestrates "build report, send email, mark sent" for
// the single-draft and consolidated batch paths. Sending and bookkeeping are
// unavoidably two separate steps across the mail transport and the store, so
// the engine sequences the external call strictly first and keeps the status
// mutation conditional and idempotent: repeated invocation converges instead
// of compounding.
package dispatch

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"scraptrack/internal/mailer"
	"scraptrack/internal/model"
	"scraptrack/internal/report"
	"scraptrack/internal/store"
)

// ErrNoPendingDrafts is returned by SendAll when there is nothing to send.
var ErrNoPendingDrafts = errors.New("no pending drafts to send")

// ErrSentNotRecorded is returned when the email was delivered but the status
// transition could not be persisted. The caller gets a receipt alongside it
// and must not retry the send; only the bookkeeping diverged.
var ErrSentNotRecorded = errors.New("email sent but status not recorded")

// DispatchError wraps a mail transport failure or timeout. No state was
// mutated when a dispatch operation returns it.
type DispatchError struct {
	Err error
}

func (e *DispatchError) Error() string {
	return fmt.Sprintf("dispatch failed: %v", e.Err)
}

func (e *DispatchError) Unwrap() error { return e.Err }

// Engine runs dispatch operations against a shared draft store and a mail
// transport. Multiple requests may run engine operations concurrently; the
// status-guarded MarkSent keeps bookkeeping consistent if they overlap.
type Engine struct {
	db      *sql.DB
	sender  mailer.Sender
	timeout time.Duration
}

// NewEngine creates a dispatch engine. timeout bounds every transport send.
func NewEngine(db *sql.DB, sender mailer.Sender, timeout time.Duration) *Engine {
	return &Engine{db: db, sender: sender, timeout: timeout}
}

// SingleInput identifies what SendOne dispatches: a persisted draft by ID, or
// an ad-hoc payload that has not been saved.
type SingleInput struct {
	DraftID string
	Draft   *model.Draft
}

// SingleReceipt reports the outcome of a single send. Recorded is false when
// the email went out but the durable record could not be written.
type SingleReceipt struct {
	DraftID   string
	Recipient string
	Recorded  bool
}

// SendOne builds a one-order report, emails it to the submitter, and records
// the send: a persisted draft transitions to 'sent', an ad-hoc payload is
// stored directly in 'sent' status so every dispatched report has a durable
// record. A transport failure aborts with *DispatchError before any state
// change. A bookkeeping failure after a confirmed send returns the receipt
// together with ErrSentNotRecorded; the email is never re-sent to compensate.
func (e *Engine) SendOne(ctx context.Context, in SingleInput) (*SingleReceipt, error) {
	var d *model.Draft
	switch {
	case in.DraftID != "":
		loaded, err := store.GetDraft(ctx, e.db, in.DraftID)
		if err != nil {
			return nil, err
		}
		if loaded == nil {
			return nil, store.ErrNotFound
		}
		d = loaded
	case in.Draft != nil:
		// Validate before touching the transport: a payload that could never
		// be recorded should not produce an email either.
		if err := store.ValidateDraft(in.Draft); err != nil {
			return nil, err
		}
		d = in.Draft
	default:
		return nil, &model.ValidationError{Field: "draft_id", Reason: "required"}
	}

	rep := report.Build([]model.Draft{*d}, time.Now().UTC())
	subject, body, err := report.RenderSingle(rep)
	if err != nil {
		return nil, err
	}

	if err := e.send(ctx, mailer.Message{To: d.Email, Subject: subject, HTML: body}); err != nil {
		return nil, &DispatchError{Err: err}
	}

	sentAt := time.Now().UTC()
	receipt := &SingleReceipt{DraftID: in.DraftID, Recipient: d.Email, Recorded: true}

	if in.DraftID != "" {
		updated, err := store.MarkSent(ctx, e.db, []string{in.DraftID}, sentAt)
		if err != nil {
			slog.Error("draft emailed but not marked sent", "draft", in.DraftID, "error", err)
			receipt.Recorded = false
			return receipt, ErrSentNotRecorded
		}
		if updated == 0 {
			// Already sent concurrently; the record is consistent either way.
			slog.Warn("draft was already marked sent", "draft", in.DraftID)
		}
		return receipt, nil
	}

	stored, err := store.CreateSent(ctx, e.db, d, sentAt)
	if err != nil {
		slog.Error("ad-hoc report emailed but not recorded", "recipient", d.Email, "error", err)
		receipt.Recorded = false
		return receipt, ErrSentNotRecorded
	}
	receipt.DraftID = stored.ID
	return receipt, nil
}

// BatchReceipt reports the outcome of a consolidated send. Sent is the number
// of drafts actually transitioned, which can be lower than Requested when a
// concurrent dispatch already claimed some of them.
type BatchReceipt struct {
	Requested int
	Sent      int
	Recipient string
}

// SendAll emails one consolidated report covering every pending draft,
// oldest first, then marks exactly the loaded set sent. The recipient is the
// explicit argument when given, otherwise the oldest pending draft's email.
// Drafts created after the pending set was captured are left untouched.
func (e *Engine) SendAll(ctx context.Context, recipient string) (*BatchReceipt, error) {
	drafts, err := store.ListPendingOldest(ctx, e.db)
	if err != nil {
		return nil, fmt.Errorf("loading pending drafts: %w", err)
	}
	if len(drafts) == 0 {
		return nil, ErrNoPendingDrafts
	}

	if recipient == "" {
		recipient = drafts[0].Email
	}

	ids := make([]string, len(drafts))
	for i, d := range drafts {
		ids[i] = d.ID
	}

	rep := report.Build(drafts, time.Now().UTC())
	subject, body, err := report.RenderConsolidated(rep)
	if err != nil {
		return nil, err
	}

	if err := e.send(ctx, mailer.Message{To: recipient, Subject: subject, HTML: body}); err != nil {
		return nil, &DispatchError{Err: err}
	}

	receipt := &BatchReceipt{Requested: len(ids), Recipient: recipient}

	marked, err := store.MarkSent(ctx, e.db, ids, time.Now().UTC())
	if err != nil {
		slog.Error("consolidated report emailed but drafts not marked sent",
			"requested", len(ids), "error", err)
		return receipt, ErrSentNotRecorded
	}

	receipt.Sent = int(marked)
	if marked < int64(len(ids)) {
		slog.Warn("fewer drafts marked sent than were loaded",
			"requested", len(ids), "marked", marked)
	}
	return receipt, nil
}

// send bounds the transport call with the engine timeout. Once issued, the
// call runs to a definite outcome; no state is touched before it returns.
func (e *Engine) send(ctx context.Context, msg mailer.Message) error {
	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()
	return e.sender.Send(ctx, msg)
}

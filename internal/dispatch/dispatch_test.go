package dispatch

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"scraptrack/internal/db"
	"scraptrack/internal/mailer"
	"scraptrack/internal/model"
	"scraptrack/internal/store"
)

// fakeSender records sent messages and can fail on demand. onSend, when set,
// runs during Send to simulate work racing with the transport call.
type fakeSender struct {
	mu     sync.Mutex
	sent   []mailer.Message
	err    error
	onSend func()
}

func (f *fakeSender) Send(_ context.Context, msg mailer.Message) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.onSend != nil {
		f.onSend()
	}
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, msg)
	return nil
}

func (f *fakeSender) messages() []mailer.Message {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]mailer.Message(nil), f.sent...)
}

func newTestEngine(t *testing.T) (*Engine, *sql.DB, *fakeSender) {
	t.Helper()
	database := db.NewTestDB(t)
	sender := &fakeSender{}
	return NewEngine(database, sender, 5*time.Second), database, sender
}

func seedDraft(t *testing.T, database *sql.DB, name string, createdAt time.Time) *model.Draft {
	t.Helper()
	d, err := store.CreateDraft(context.Background(), database, &model.Draft{
		Name:  name,
		Email: strings.ToLower(name) + "@example.com",
		Store: "A stn -0501",
		FormData: model.FormData{
			"Cables & Wiring": {
				"400100210": {ID: "400100210", Name: "Copper cable 2.5 sqmm, single core", Quantity: -3},
			},
		},
	})
	if err != nil {
		t.Fatalf("seeding draft: %v", err)
	}
	if _, err := database.Exec(`UPDATE drafts SET created_at = ? WHERE id = ?`, createdAt, d.ID); err != nil {
		t.Fatalf("backdating draft: %v", err)
	}
	return d
}

func TestSendOnePersistedDraft(t *testing.T) {
	engine, database, sender := newTestEngine(t)
	ctx := context.Background()

	d := seedDraft(t, database, "Asha", time.Now().UTC())

	receipt, err := engine.SendOne(ctx, SingleInput{DraftID: d.ID})
	if err != nil {
		t.Fatalf("SendOne: %v", err)
	}
	if !receipt.Recorded {
		t.Error("expected recorded receipt")
	}
	if receipt.Recipient != "asha@example.com" {
		t.Errorf("unexpected recipient %q", receipt.Recipient)
	}

	msgs := sender.messages()
	if len(msgs) != 1 {
		t.Fatalf("expected 1 email, got %d", len(msgs))
	}
	if !strings.HasPrefix(msgs[0].Subject, "Material Report: Asha") {
		t.Errorf("unexpected subject %q", msgs[0].Subject)
	}

	got, _ := store.GetDraft(ctx, database, d.ID)
	if got.Status != model.StatusSent {
		t.Errorf("expected draft marked sent, got %q", got.Status)
	}
	if got.SentAt == nil {
		t.Error("expected sentAt to be set")
	}
}

func TestSendOneTransportFailureLeavesDraftPending(t *testing.T) {
	engine, database, sender := newTestEngine(t)
	ctx := context.Background()

	d := seedDraft(t, database, "Asha", time.Now().UTC())
	sender.err = errors.New("smtp: connection refused")

	_, err := engine.SendOne(ctx, SingleInput{DraftID: d.ID})
	var derr *DispatchError
	if !errors.As(err, &derr) {
		t.Fatalf("expected DispatchError, got %v", err)
	}

	got, _ := store.GetDraft(ctx, database, d.ID)
	if got.Status != model.StatusDraft {
		t.Errorf("transport failure must not change state, got status %q", got.Status)
	}
	if got.SentAt != nil {
		t.Error("expected sentAt to stay nil after failed send")
	}
}

func TestSendOneUnknownDraft(t *testing.T) {
	engine, _, sender := newTestEngine(t)

	_, err := engine.SendOne(context.Background(), SingleInput{DraftID: "no-such-id"})
	if !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if len(sender.messages()) != 0 {
		t.Error("expected no transport call for unknown draft")
	}
}

func TestSendOneAdHocCreatesSentRecord(t *testing.T) {
	engine, database, _ := newTestEngine(t)
	ctx := context.Background()

	receipt, err := engine.SendOne(ctx, SingleInput{Draft: &model.Draft{
		Name:  "Walk-in",
		Email: "walkin@example.com",
		Store: "D stn-9042",
		FormData: model.FormData{
			"Lighting": {
				"400400103": {ID: "400400103", Name: "LED batten 20 W", Quantity: -1},
			},
		},
	}})
	if err != nil {
		t.Fatalf("SendOne ad-hoc: %v", err)
	}
	if receipt.DraftID == "" {
		t.Fatal("expected receipt to carry the stored record id")
	}

	got, _ := store.GetDraft(ctx, database, receipt.DraftID)
	if got == nil || got.Status != model.StatusSent {
		t.Fatalf("expected a durable sent record, got %+v", got)
	}

	pending, _ := store.ListPending(ctx, database)
	if len(pending) != 0 {
		t.Errorf("ad-hoc send must not leave pending drafts, got %d", len(pending))
	}
}

func TestSendOneAdHocValidatedBeforeTransport(t *testing.T) {
	engine, _, sender := newTestEngine(t)

	_, err := engine.SendOne(context.Background(), SingleInput{Draft: &model.Draft{
		Name: "No Email", Store: "A stn -0501",
	}})
	var verr *model.ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if len(sender.messages()) != 0 {
		t.Error("expected no transport call for invalid payload")
	}
}

func TestSendAllConsolidatesOldestFirst(t *testing.T) {
	engine, database, sender := newTestEngine(t)
	ctx := context.Background()

	base := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)
	seedDraft(t, database, "Oldest", base)
	seedDraft(t, database, "Middle", base.Add(time.Hour))
	seedDraft(t, database, "Newest", base.Add(2*time.Hour))

	receipt, err := engine.SendAll(ctx, "")
	if err != nil {
		t.Fatalf("SendAll: %v", err)
	}
	if receipt.Sent != 3 || receipt.Requested != 3 {
		t.Errorf("expected 3/3 sent, got %d/%d", receipt.Sent, receipt.Requested)
	}
	if receipt.Recipient != "oldest@example.com" {
		t.Errorf("expected recipient to default to the oldest draft's email, got %q", receipt.Recipient)
	}

	msgs := sender.messages()
	if len(msgs) != 1 {
		t.Fatalf("expected exactly 1 consolidated email, got %d", len(msgs))
	}
	body := msgs[0].HTML
	for _, want := range []string{"Order #1", "Order #2", "Order #3"} {
		if !strings.Contains(body, want) {
			t.Errorf("expected body to contain %q", want)
		}
	}
	// Sections are numbered in creation order.
	if !(strings.Index(body, "Oldest") < strings.Index(body, "Middle") &&
		strings.Index(body, "Middle") < strings.Index(body, "Newest")) {
		t.Error("expected sections ordered oldest-first")
	}

	pending, _ := store.ListPending(ctx, database)
	if len(pending) != 0 {
		t.Errorf("expected 0 remaining pending drafts, got %d", len(pending))
	}
}

func TestSendAllExplicitRecipient(t *testing.T) {
	engine, database, sender := newTestEngine(t)

	seedDraft(t, database, "Asha", time.Now().UTC())

	receipt, err := engine.SendAll(context.Background(), "stores@example.com")
	if err != nil {
		t.Fatalf("SendAll: %v", err)
	}
	if receipt.Recipient != "stores@example.com" {
		t.Errorf("expected explicit recipient, got %q", receipt.Recipient)
	}
	if msgs := sender.messages(); len(msgs) != 1 || msgs[0].To != "stores@example.com" {
		t.Errorf("expected email addressed to explicit recipient, got %+v", msgs)
	}
}

func TestSendAllNoPendingDrafts(t *testing.T) {
	engine, _, sender := newTestEngine(t)

	_, err := engine.SendAll(context.Background(), "")
	if !errors.Is(err, ErrNoPendingDrafts) {
		t.Fatalf("expected ErrNoPendingDrafts, got %v", err)
	}
	if len(sender.messages()) != 0 {
		t.Error("expected no transport call with nothing to send")
	}
}

func TestSendAllTransportFailureMarksNothing(t *testing.T) {
	engine, database, sender := newTestEngine(t)
	ctx := context.Background()

	seedDraft(t, database, "Asha", time.Now().UTC())
	seedDraft(t, database, "Bharat", time.Now().UTC())
	sender.err = errors.New("smtp: timeout")

	_, err := engine.SendAll(ctx, "")
	var derr *DispatchError
	if !errors.As(err, &derr) {
		t.Fatalf("expected DispatchError, got %v", err)
	}

	pending, _ := store.ListPending(ctx, database)
	if len(pending) != 2 {
		t.Errorf("expected both drafts still pending after failed send, got %d", len(pending))
	}
}

// Two overlapping batch sends degrade to a duplicate email with consistent
// bookkeeping: the status guard lets the second MarkSent claim only what is
// still pending, and the receipt reports the actual count.
func TestSendAllReportsActualMarkedCount(t *testing.T) {
	engine, database, sender := newTestEngine(t)
	ctx := context.Background()

	base := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)
	a := seedDraft(t, database, "Asha", base)
	seedDraft(t, database, "Bharat", base.Add(time.Hour))

	// While the transport call is in flight, a competing dispatch marks one
	// of the loaded drafts sent.
	sender.onSend = func() {
		if _, err := store.MarkSent(ctx, database, []string{a.ID}, time.Now()); err != nil {
			t.Errorf("competing MarkSent: %v", err)
		}
	}

	receipt, err := engine.SendAll(ctx, "")
	if err != nil {
		t.Fatalf("SendAll: %v", err)
	}
	if receipt.Requested != 2 {
		t.Errorf("expected 2 requested, got %d", receipt.Requested)
	}
	if receipt.Sent != 1 {
		t.Errorf("expected actual marked count 1, got %d", receipt.Sent)
	}
}

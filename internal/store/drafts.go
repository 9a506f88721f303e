package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"scraptrack/internal/catalog"
	"scraptrack/internal/model"
)

// ErrNotFound is returned when an operation references a draft that does not
// exist.
var ErrNotFound = errors.New("draft not found")

// CreateDraft validates required submitter fields, assigns an ID and
// timestamps, and persists a new draft with status 'draft'.
func CreateDraft(ctx context.Context, db *sql.DB, d *model.Draft) (*model.Draft, error) {
	if err := ValidateDraft(d); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	d.ID = uuid.NewString()
	d.Status = model.StatusDraft
	d.CreatedAt = now
	d.UpdatedAt = now
	d.SentAt = nil

	if err := insertDraft(ctx, db, d); err != nil {
		return nil, err
	}
	return GetDraft(ctx, db, d.ID)
}

// UpdateDraft merges the supplied fields over an existing draft and persists
// the result. An update always reopens the record for editing: status is
// forced back to 'draft' and updatedAt is refreshed, while createdAt and any
// historical sentAt are kept.
func UpdateDraft(ctx context.Context, db *sql.DB, id string, in *model.Draft) (*model.Draft, error) {
	existing, err := GetDraft(ctx, db, id)
	if err != nil {
		return nil, err
	}
	if existing == nil {
		return nil, ErrNotFound
	}

	merged := mergeDraft(existing, in)
	if err := ValidateDraft(merged); err != nil {
		return nil, err
	}

	merged.Status = model.StatusDraft
	merged.UpdatedAt = time.Now().UTC()

	formData, err := json.Marshal(merged.FormData)
	if err != nil {
		return nil, fmt.Errorf("encoding form data: %w", err)
	}

	_, err = db.ExecContext(ctx,
		`UPDATE drafts SET name = ?, email = ?, store = ?, vendor = ?, order_no = ?,
		        engineer = ?, form_data = ?, status = ?, updated_at = ?
		 WHERE id = ?`,
		merged.Name, merged.Email, merged.Store, merged.Vendor, merged.OrderNo,
		merged.Engineer, string(formData), merged.Status, merged.UpdatedAt, id,
	)
	if err != nil {
		return nil, fmt.Errorf("updating draft: %w", err)
	}
	return GetDraft(ctx, db, id)
}

// GetDraft returns a draft by ID, or nil if it does not exist.
func GetDraft(ctx context.Context, db *sql.DB, id string) (*model.Draft, error) {
	row := db.QueryRowContext(ctx,
		`SELECT id, name, email, store, vendor, order_no, engineer, form_data,
		        status, created_at, updated_at, sent_at
		 FROM drafts WHERE id = ?`, id,
	)
	d, err := scanDraft(row.Scan)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting draft: %w", err)
	}
	return d, nil
}

// ListPending returns all drafts still in 'draft' status, most recently
// updated first. This is the listing-page ordering.
func ListPending(ctx context.Context, db *sql.DB) ([]model.Draft, error) {
	return listByStatus(ctx, db, `ORDER BY updated_at DESC`)
}

// ListPendingOldest returns all drafts still in 'draft' status ordered by
// creation time ascending. Batch dispatch uses this ordering so consolidated
// reports number orders deterministically, oldest first.
func ListPendingOldest(ctx context.Context, db *sql.DB) ([]model.Draft, error) {
	return listByStatus(ctx, db, `ORDER BY created_at ASC, id ASC`)
}

// DeleteDraft removes a draft by ID. Deleting a draft that does not exist is
// a no-op, so racing deletes from the UI never surface an error.
func DeleteDraft(ctx context.Context, db *sql.DB, id string) error {
	_, err := db.ExecContext(ctx, `DELETE FROM drafts WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting draft: %w", err)
	}
	return nil
}

// MarkSent transitions every draft in ids that is still in 'draft' status to
// 'sent' with the given sent time, in a single statement. It returns the
// number of rows actually updated; drafts already sent (or since deleted) are
// skipped by the status guard, which makes the operation idempotent.
func MarkSent(ctx context.Context, db *sql.DB, ids []string, sentAt time.Time) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}

	placeholders := strings.Repeat("?, ", len(ids)-1) + "?"
	args := make([]any, 0, len(ids)+2)
	args = append(args, model.StatusSent, sentAt.UTC())
	for _, id := range ids {
		args = append(args, id)
	}

	result, err := db.ExecContext(ctx,
		`UPDATE drafts SET status = ?, sent_at = ?
		 WHERE id IN (`+placeholders+`) AND status = 'draft'`,
		args...,
	)
	if err != nil {
		return 0, fmt.Errorf("marking drafts sent: %w", err)
	}

	updated, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("counting marked drafts: %w", err)
	}
	return updated, nil
}

// CreateSent persists a draft directly in 'sent' status. Used by the ad-hoc
// single-send path so every dispatched report leaves a durable record.
func CreateSent(ctx context.Context, db *sql.DB, d *model.Draft, sentAt time.Time) (*model.Draft, error) {
	if err := ValidateDraft(d); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	at := sentAt.UTC()
	d.ID = uuid.NewString()
	d.Status = model.StatusSent
	d.CreatedAt = now
	d.UpdatedAt = now
	d.SentAt = &at

	if err := insertDraft(ctx, db, d); err != nil {
		return nil, err
	}
	return GetDraft(ctx, db, d.ID)
}

func insertDraft(ctx context.Context, db *sql.DB, d *model.Draft) error {
	if d.FormData == nil {
		d.FormData = model.FormData{}
	}
	formData, err := json.Marshal(d.FormData)
	if err != nil {
		return fmt.Errorf("encoding form data: %w", err)
	}

	var sentAt any
	if d.SentAt != nil {
		sentAt = *d.SentAt
	}

	_, err = db.ExecContext(ctx,
		`INSERT INTO drafts (id, name, email, store, vendor, order_no, engineer,
		                     form_data, status, created_at, updated_at, sent_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		d.ID, d.Name, d.Email, d.Store, d.Vendor, d.OrderNo, d.Engineer,
		string(formData), d.Status, d.CreatedAt, d.UpdatedAt, sentAt,
	)
	if err != nil {
		return fmt.Errorf("inserting draft: %w", err)
	}
	return nil
}

func listByStatus(ctx context.Context, db *sql.DB, orderBy string) ([]model.Draft, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT id, name, email, store, vendor, order_no, engineer, form_data,
		        status, created_at, updated_at, sent_at
		 FROM drafts WHERE status = 'draft' `+orderBy,
	)
	if err != nil {
		return nil, fmt.Errorf("listing drafts: %w", err)
	}
	defer rows.Close()

	var drafts []model.Draft
	for rows.Next() {
		d, err := scanDraft(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("scanning draft: %w", err)
		}
		drafts = append(drafts, *d)
	}
	return drafts, rows.Err()
}

func scanDraft(scan func(...any) error) (*model.Draft, error) {
	d := &model.Draft{}
	var formData string
	var sentAt sql.NullTime
	err := scan(&d.ID, &d.Name, &d.Email, &d.Store, &d.Vendor, &d.OrderNo,
		&d.Engineer, &formData, &d.Status, &d.CreatedAt, &d.UpdatedAt, &sentAt)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(formData), &d.FormData); err != nil {
		return nil, fmt.Errorf("decoding form data: %w", err)
	}
	if sentAt.Valid {
		t := sentAt.Time
		d.SentAt = &t
	}
	return d, nil
}

// mergeDraft overlays the non-empty fields of in over base. Form data is
// replaced wholesale when supplied; partial form merges are not a thing the
// form client ever sends.
func mergeDraft(base, in *model.Draft) *model.Draft {
	merged := *base
	if in.Name != "" {
		merged.Name = in.Name
	}
	if in.Email != "" {
		merged.Email = in.Email
	}
	if in.Store != "" {
		merged.Store = in.Store
	}
	if in.Vendor != "" {
		merged.Vendor = in.Vendor
	}
	if in.OrderNo != "" {
		merged.OrderNo = in.OrderNo
	}
	if in.Engineer != "" {
		merged.Engineer = in.Engineer
	}
	if in.FormData != nil {
		merged.FormData = in.FormData
	}
	return &merged
}

// ValidateDraft checks the required submitter fields: name and email must be
// non-empty after trimming, and store must be one of the fixed locations.
func ValidateDraft(d *model.Draft) error {
	if strings.TrimSpace(d.Name) == "" {
		return &model.ValidationError{Field: "name", Reason: "required"}
	}
	if strings.TrimSpace(d.Email) == "" {
		return &model.ValidationError{Field: "email", Reason: "required"}
	}
	if d.Store == "" {
		return &model.ValidationError{Field: "store", Reason: "required"}
	}
	if !catalog.ValidStore(d.Store) {
		return &model.ValidationError{Field: "store", Reason: "unknown store location"}
	}
	return nil
}

package db

import (
	"database/sql"
	"fmt"
)

// migrations is a list of SQL statements applied in order after schema creation.
// Each migration must be idempotent. Append new migrations at the end.
var migrations = []string{
	// Migration 1: Index to keep the batch path's oldest-first scan cheap once
	// the drafts table accumulates sent history.
	`CREATE INDEX IF NOT EXISTS idx_drafts_status_created
	     ON drafts(status, created_at)`,
}

// Migrate ensures the schema exists and applies the migrations in order.
func Migrate(db *sql.DB) error {
	if err := EnsureSchema(db); err != nil {
		return err
	}

	for i, m := range migrations {
		if _, err := db.Exec(m); err != nil {
			return fmt.Errorf("running migration %d: %w", i+1, err)
		}
	}

	return nil
}

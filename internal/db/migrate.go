package db

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
)

// schema is kept to DDL that both Postgres and sqlite accept.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS profiles (
    id TEXT PRIMARY KEY,
    name TEXT NOT NULL,
    academy_name TEXT,
    current_belt TEXT NOT NULL DEFAULT 'white',
    current_stripes INTEGER NOT NULL DEFAULT 0 CHECK (current_stripes >= 0),
    created_at TIMESTAMPTZ NOT NULL,
    updated_at TIMESTAMPTZ NOT NULL
)`,
	`CREATE TABLE IF NOT EXISTS journal_entries (
    id TEXT PRIMARY KEY,
    user_id TEXT NOT NULL,
    entry_type TEXT NOT NULL DEFAULT 'training',
    title TEXT NOT NULL,
    description TEXT NOT NULL DEFAULT '',
    highlight_moves TEXT NOT NULL DEFAULT '',
    what_went_right TEXT NOT NULL DEFAULT '',
    what_to_improve TEXT NOT NULL DEFAULT '',
    belt_at_time TEXT NOT NULL DEFAULT 'white',
    created_at TIMESTAMPTZ NOT NULL,
    updated_at TIMESTAMPTZ NOT NULL
)`,
	`CREATE INDEX IF NOT EXISTS journal_entries_user_created_idx
    ON journal_entries (user_id, created_at DESC, id DESC)`,
	`CREATE TABLE IF NOT EXISTS promotions (
    id TEXT PRIMARY KEY,
    user_id TEXT NOT NULL,
    belt TEXT NOT NULL,
    stripes INTEGER NOT NULL DEFAULT 0 CHECK (stripes >= 0),
    promotion_date DATE NOT NULL,
    notes TEXT,
    academy_name TEXT,
    created_at TIMESTAMPTZ NOT NULL
)`,
	`CREATE INDEX IF NOT EXISTS promotions_user_date_idx
    ON promotions (user_id, promotion_date DESC)`,
}

func RunMigrations(ctx context.Context, db *sqlx.DB) error {
	for i, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migration %d: %w", i, err)
		}
	}
	return nil
}

// Package postgres implements the store driver on PostgreSQL with pgvector.
package postgres

import (
	"context"
	"database/sql"

	// Import the PostgreSQL driver.
	_ "github.com/lib/pq"
	"github.com/pkg/errors"

	"github.com/saborlabs/saborai/internal/profile"
	"github.com/saborlabs/saborai/store"
)

type DB struct {
	db      *sql.DB
	profile *profile.Profile
}

// NewDB opens a PostgreSQL database using the DSN from the profile.
func NewDB(profile *profile.Profile) (store.Driver, error) {
	if profile.DSN == "" {
		return nil, errors.New("dsn required")
	}

	pgDB, err := sql.Open("postgres", profile.DSN)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open database with dsn: %s", profile.DSN)
	}
	if err := pgDB.Ping(); err != nil {
		return nil, errors.Wrap(err, "failed to ping database")
	}

	return &DB{db: pgDB, profile: profile}, nil
}

// Migrate creates the menu_chunk table and the pgvector extension.
func (d *DB) Migrate(ctx context.Context) error {
	stmts := []string{
		`CREATE EXTENSION IF NOT EXISTS vector`,
		`CREATE TABLE IF NOT EXISTS menu_chunk (
			id SERIAL PRIMARY KEY,
			menu_id TEXT NOT NULL,
			menu_name TEXT NOT NULL,
			position INTEGER NOT NULL DEFAULT 0,
			content TEXT NOT NULL,
			content_hash TEXT NOT NULL,
			embedding vector,
			created_ts BIGINT NOT NULL,
			UNIQUE (menu_id, content_hash)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_menu_chunk_menu_id ON menu_chunk (menu_id)`,
	}
	for _, stmt := range stmts {
		if _, err := d.db.ExecContext(ctx, stmt); err != nil {
			return errors.Wrapf(err, "migrate failed: %s", stmt)
		}
	}
	return nil
}

func (d *DB) Close() error {
	return d.db.Close()
}

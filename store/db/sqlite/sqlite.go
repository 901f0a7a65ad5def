// Package sqlite implements the store driver on SQLite.
//
// SQLite is supported for development and single-user instances. Embeddings
// are stored as little-endian float32 blobs and similarity search is computed
// in Go, which is fine for the chunk counts a restaurant menu produces.
package sqlite

import (
	"context"
	"database/sql"

	"github.com/pkg/errors"

	// Import the SQLite driver.
	_ "modernc.org/sqlite"

	"github.com/saborlabs/saborai/internal/profile"
	"github.com/saborlabs/saborai/store"
)

type DB struct {
	db      *sql.DB
	profile *profile.Profile
}

// NewDB opens the SQLite database at the profile DSN with WAL journaling.
func NewDB(profile *profile.Profile) (store.Driver, error) {
	if profile.DSN == "" {
		return nil, errors.New("dsn required")
	}

	sqliteDB, err := sql.Open("sqlite", profile.DSN+"?_pragma=foreign_keys(0)&_pragma=busy_timeout(10000)&_pragma=journal_mode(WAL)")
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open db with dsn: %s", profile.DSN)
	}

	// SQLite allows a single writer; serialize access through one connection.
	sqliteDB.SetMaxOpenConns(1)

	return &DB{db: sqliteDB, profile: profile}, nil
}

// Migrate creates the menu_chunk table.
func (d *DB) Migrate(ctx context.Context) error {
	stmt := `
		CREATE TABLE IF NOT EXISTS menu_chunk (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			menu_id TEXT NOT NULL,
			menu_name TEXT NOT NULL,
			position INTEGER NOT NULL DEFAULT 0,
			content TEXT NOT NULL,
			content_hash TEXT NOT NULL,
			embedding BLOB,
			created_ts BIGINT NOT NULL,
			UNIQUE (menu_id, content_hash)
		)`
	if _, err := d.db.ExecContext(ctx, stmt); err != nil {
		return errors.Wrap(err, "failed to create menu_chunk table")
	}
	if _, err := d.db.ExecContext(ctx, `CREATE INDEX IF NOT EXISTS idx_menu_chunk_menu_id ON menu_chunk (menu_id)`); err != nil {
		return errors.Wrap(err, "failed to create menu_chunk index")
	}
	return nil
}

func (d *DB) Close() error {
	return d.db.Close()
}

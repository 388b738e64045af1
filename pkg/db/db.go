// Package db provides the optional SQLite tier of the memo cache. It lets
// resolutions survive a restart or be shared by several processes pointing at
// the same file, while keeping the memo semantics: every row carries the
// absolute expiry recorded when it was first stored and expired rows are
// reported as absent. Rows are never deleted; an expired key is simply
// overwritten by the next successful resolution.
//
// Callers open a single DB with New and hand it to memo.WithBacking.
package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// DB wraps a sql.DB connection and implements memo.Backing.
type DB struct {
	*sql.DB
}

// New opens the SQLite database located at path. If the file does not
// exist it is created along with the memo table.
func New(path string) (*DB, error) {
	d, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}
	// One connection keeps ":memory:" databases coherent and serializes
	// writers, which SQLite does anyway.
	d.SetMaxOpenConns(1)
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS memo (key TEXT PRIMARY KEY, payload BLOB NOT NULL, expires_at INTEGER NOT NULL)`,
	}
	// Errors here likely mean the database file is not writable.
	for _, s := range stmts {
		if _, err := d.Exec(s); err != nil {
			d.Close()
			return nil, fmt.Errorf("init db: %w", err)
		}
	}
	return &DB{d}, nil
}

// Load returns the payload and expiry stored for key. ok is false when the key
// was never stored. Expiry is not checked here; the memo cache decides.
func (db *DB) Load(ctx context.Context, key string) ([]byte, time.Time, bool, error) {
	var (
		payload []byte
		expires int64
	)
	err := db.QueryRowContext(ctx, `SELECT payload, expires_at FROM memo WHERE key=?`, key).Scan(&payload, &expires)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, time.Time{}, false, nil
	}
	if err != nil {
		return nil, time.Time{}, false, err
	}
	return payload, time.UnixMilli(expires), true, nil
}

// Store upserts the payload for key. The last writer wins.
func (db *DB) Store(ctx context.Context, key string, payload []byte, expires time.Time) error {
	_, err := db.ExecContext(ctx, `INSERT INTO memo(key, payload, expires_at) VALUES(?, ?, ?) ON CONFLICT(key) DO UPDATE SET payload=excluded.payload, expires_at=excluded.expires_at`, key, payload, expires.UnixMilli())
	return err
}

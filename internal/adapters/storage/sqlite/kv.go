// Package sqlite provides a key-value backend on a single SQLite file.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	// modernc.org/sqlite registers the "sqlite" driver.
	_ "modernc.org/sqlite"

	"github.com/jsamuelsen/verse-service/internal/domain"
)

// DriverName is the database/sql driver registered by modernc.org/sqlite.
const DriverName = "sqlite"

var pragmas = []string{
	"PRAGMA journal_mode=WAL;",
	"PRAGMA synchronous=NORMAL;",
	"PRAGMA busy_timeout=5000;",
}

const schema = `CREATE TABLE IF NOT EXISTS kv (
	k TEXT PRIMARY KEY,
	v BLOB NOT NULL,
	updated_at_unixms INTEGER NOT NULL
);`

// KV stores values in the kv table.
type KV struct {
	db   *sql.DB
	path string
}

// Open opens (creating if needed) the database at path and applies the schema.
func Open(ctx context.Context, path string) (*KV, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return nil, fmt.Errorf("creating store directory: %w", err)
		}
	}

	db, err := sql.Open(DriverName, path)
	if err != nil {
		return nil, fmt.Errorf("opening sqlite store: %w", err)
	}

	// One connection keeps pragmas and writes on the same handle.
	db.SetMaxOpenConns(1)

	for _, p := range pragmas {
		if _, err := db.ExecContext(ctx, p); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("applying %q: %w", p, err)
		}
	}

	if _, err := db.ExecContext(ctx, schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrating sqlite store: %w", err)
	}

	return &KV{db: db, path: path}, nil
}

// Get returns the value under key.
func (kv *KV) Get(ctx context.Context, key string) ([]byte, error) {
	var v []byte

	err := kv.db.QueryRowContext(ctx, `SELECT v FROM kv WHERE k = ?`, key).Scan(&v)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.NewNotFoundError("key", key)
	}

	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", key, err)
	}

	return v, nil
}

// Put stores value under key.
func (kv *KV) Put(ctx context.Context, key string, value []byte) error {
	_, err := kv.db.ExecContext(ctx,
		`INSERT INTO kv (k, v, updated_at_unixms) VALUES (?, ?, ?)
		 ON CONFLICT(k) DO UPDATE SET v = excluded.v, updated_at_unixms = excluded.updated_at_unixms`,
		key, value, time.Now().UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("writing %s: %w", key, err)
	}

	return nil
}

// Delete removes key.
func (kv *KV) Delete(ctx context.Context, key string) error {
	if _, err := kv.db.ExecContext(ctx, `DELETE FROM kv WHERE k = ?`, key); err != nil {
		return fmt.Errorf("deleting %s: %w", key, err)
	}

	return nil
}

// Name implements ports.HealthChecker.
func (kv *KV) Name() string {
	return "sqlite"
}

// Check implements ports.HealthChecker.
func (kv *KV) Check(ctx context.Context) error {
	return kv.db.PingContext(ctx)
}

// Path returns the database file path.
func (kv *KV) Path() string {
	return kv.path
}

// Close closes the database.
func (kv *KV) Close() error {
	return kv.db.Close()
}

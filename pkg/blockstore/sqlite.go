// Package blockstore's SQLite backend persists blocks the way the teacher
// persisted agents/events/locks: a single WAL-mode database is the
// durability boundary, with retryOnContention absorbing transient
// SQLITE_BUSY/LOCKED errors under concurrent writers. Here the schema
// collapses to the one table a content-addressed store actually needs.
package blockstore

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	cid "github.com/ipfs/go-cid"

	_ "modernc.org/sqlite"
)

// SQLite is a durable Store backed by a single-table SQLite database in
// WAL mode, suitable as a driftlog replica's local block store.
type SQLite struct {
	db *sql.DB
}

// NewSQLite opens (or creates) the database at path and ensures its schema.
func NewSQLite(path string) (*SQLite, error) {
	dsn := path + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(60000)&_pragma=synchronous(NORMAL)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("blockstore: open db: %w", err)
	}
	db.SetMaxOpenConns(4)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(30 * time.Minute)

	s := &SQLite{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("blockstore: migrate: %w", err)
	}
	return s, nil
}

func (s *SQLite) migrate() error {
	const schema = `
	CREATE TABLE IF NOT EXISTS blocks (
		hash TEXT PRIMARY KEY,
		data BLOB NOT NULL
	);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Close closes the underlying database connection.
func (s *SQLite) Close() error { return s.db.Close() }

// Put persists data under its content hash and returns the CID.
func (s *SQLite) Put(ctx context.Context, data []byte) (cid.Cid, error) {
	c, err := hashBytes(data)
	if err != nil {
		return cid.Undef, err
	}
	key := c.String()
	err = retryOnContention(func() error {
		_, execErr := s.db.ExecContext(ctx,
			`INSERT INTO blocks (hash, data) VALUES (?, ?)
			 ON CONFLICT(hash) DO NOTHING`,
			key, data,
		)
		return execErr
	})
	if err != nil {
		return cid.Undef, fmt.Errorf("%w: put %s: %v", ErrStorage, key, err)
	}
	return c, nil
}

// Get fetches the bytes stored under c.
func (s *SQLite) Get(ctx context.Context, c cid.Cid) ([]byte, error) {
	var data []byte
	row := s.db.QueryRowContext(ctx, `SELECT data FROM blocks WHERE hash = ?`, c.String())
	if err := row.Scan(&data); err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: get %s: %v", ErrStorage, c, err)
	}
	return data, nil
}

// Has reports whether c is present, without transferring its bytes.
func (s *SQLite) Has(ctx context.Context, c cid.Cid) (bool, error) {
	var exists int
	row := s.db.QueryRowContext(ctx, `SELECT 1 FROM blocks WHERE hash = ? LIMIT 1`, c.String())
	if err := row.Scan(&exists); err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, fmt.Errorf("%w: has %s: %v", ErrStorage, c, err)
	}
	return true, nil
}

// Count returns the number of blocks persisted. Used by the status CLI
// command.
func (s *SQLite) Count(ctx context.Context) (int64, error) {
	var n int64
	row := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM blocks`)
	if err := row.Scan(&n); err != nil {
		return 0, fmt.Errorf("%w: count: %v", ErrStorage, err)
	}
	return n, nil
}

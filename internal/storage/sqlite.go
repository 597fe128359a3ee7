// Package storage keeps the remote store's directory tables and the scheduling
// service's offline cache in SQLite.
package storage

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"
)

// DB is a SQLite handle that remembers which file it was opened from.
type DB struct {
	*sql.DB
	path string
}

// NewDB opens path without touching the schema. The parent directory is created
// when the data volume is still empty.
func NewDB(path string) (*DB, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	// WAL lets the resync job read while a handler writes; busy_timeout covers the
	// short windows where both want the write lock.
	conn, err := sql.Open("sqlite3", path+"?_foreign_keys=on&_journal_mode=WAL&_busy_timeout=5000&_synchronous=NORMAL")
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	if err := conn.Ping(); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("connecting to %s: %w", path, err)
	}

	// One writer at a time anyway; a few readers serve the dashboard fan-out.
	conn.SetMaxOpenConns(5)
	conn.SetMaxIdleConns(2)

	return &DB{DB: conn, path: path}, nil
}

// Open is NewDB followed by ApplyMigrations.
func Open(path string) (*DB, error) {
	db, err := NewDB(path)
	if err != nil {
		return nil, err
	}
	if _, err := ApplyMigrations(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrating %s: %w", path, err)
	}
	return db, nil
}

func (db *DB) Path() string { return db.path }

func (db *DB) Close() error { return db.DB.Close() }

// Transaction runs fn inside BEGIN/COMMIT. Bulk imports go through here, so one
// bad row rolls back the whole batch.
func (db *DB) Transaction(fn func(tx *sql.Tx) error) error {
	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return fmt.Errorf("rolling back after %w: %v", err, rbErr)
		}
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

// Package store provides SQLite-backed persistence for Radar.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

// Store provides access to the Radar SQLite database.
type Store struct {
	db *sql.DB
}

// New creates a new Store and runs migrations.
func New(dbPath string) (*Store, error) {
	// Ensure directory exists
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	// modernc.org/sqlite applies connection settings only through _pragma.
	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=synchronous(NORMAL)")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	db.SetMaxOpenConns(1) // SQLite only supports one writer at a time
	db.SetMaxIdleConns(1)

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Ping checks the database connection is alive.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// migrate runs idempotent schema migrations.
func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS items (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		name TEXT NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		rfid TEXT NOT NULL DEFAULT '',
		category TEXT NOT NULL DEFAULT '',
		is_essential INTEGER NOT NULL DEFAULT 0,
		status TEXT NOT NULL DEFAULT 'missing',
		last_seen DATETIME,
		location TEXT,
		created_at DATETIME NOT NULL,
		updated_at DATETIME NOT NULL
	);

	CREATE TABLE IF NOT EXISTS item_orders (
		user_id TEXT NOT NULL,
		collection TEXT NOT NULL,
		ids TEXT NOT NULL,
		updated_at DATETIME NOT NULL,
		PRIMARY KEY (user_id, collection)
	);

	CREATE TABLE IF NOT EXISTS filter_presets (
		id TEXT NOT NULL,
		user_id TEXT NOT NULL,
		name TEXT NOT NULL,
		filter TEXT NOT NULL,
		sort TEXT NOT NULL,
		created_at DATETIME NOT NULL,
		PRIMARY KEY (user_id, id)
	);

	CREATE TABLE IF NOT EXISTS reminders (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		title TEXT NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		type TEXT NOT NULL,
		frequency TEXT NOT NULL,
		schedule TEXT NOT NULL DEFAULT '',
		next_due DATETIME NOT NULL,
		is_active INTEGER NOT NULL DEFAULT 1,
		item_id TEXT,
		last_fired_at DATETIME,
		created_at DATETIME NOT NULL
	);

	CREATE TABLE IF NOT EXISTS audit (
		id TEXT PRIMARY KEY,
		action TEXT NOT NULL,
		inputs_hash TEXT NOT NULL,
		outcome TEXT NOT NULL,
		user_id TEXT,
		item_id TEXT,
		details TEXT,
		timestamp DATETIME NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_items_user_id ON items(user_id);
	CREATE INDEX IF NOT EXISTS idx_items_rfid ON items(user_id, rfid);
	CREATE INDEX IF NOT EXISTS idx_reminders_due ON reminders(is_active, next_due);
	CREATE INDEX IF NOT EXISTS idx_audit_user_id ON audit(user_id);
	`

	_, err := s.db.Exec(schema)
	return err
}

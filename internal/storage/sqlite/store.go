// Package sqlite provides a single-file SQL record store.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"time"

	_ "modernc.org/sqlite" // registers the "sqlite" driver

	"github.com/JakeFAU/fact-poller/internal/fact"
)

const defaultTable = "facts"

var validTableName = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

// Config locates the database file and table.
type Config struct {
	Path  string
	Table string
}

// Store writes one row per record into a SQLite table.
type Store struct {
	db    *sql.DB
	table string
	ids   fact.IDGenerator
	clock fact.Clock
}

// Open opens (creating if needed) the database at cfg.Path and ensures the table exists.
func Open(ctx context.Context, cfg Config, ids fact.IDGenerator, clock fact.Clock) (*Store, error) {
	if cfg.Path == "" {
		return nil, fmt.Errorf("storage.sqlite.path is required")
	}
	if cfg.Path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(cfg.Path), 0o750); err != nil {
			return nil, fmt.Errorf("create sqlite directory: %w", err)
		}
	}
	db, err := sql.Open("sqlite", cfg.Path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", cfg.Path, err)
	}
	// One writer at a time; an in-memory database also lives on a single connection.
	db.SetMaxOpenConns(1)

	store, err := NewWithDB(db, cfg.Table, ids, clock)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	if err := store.EnsureSchema(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

// NewWithDB wraps an already opened database handle.
func NewWithDB(db *sql.DB, table string, ids fact.IDGenerator, clock fact.Clock) (*Store, error) {
	if db == nil {
		return nil, fmt.Errorf("db is required")
	}
	if ids == nil || clock == nil {
		return nil, fmt.Errorf("id generator and clock are required")
	}
	if table == "" {
		table = defaultTable
	}
	if !validTableName.MatchString(table) {
		return nil, fmt.Errorf("invalid table name %q", table)
	}
	return &Store{db: db, table: table, ids: ids, clock: clock}, nil
}

// EnsureSchema creates the fact table when it is missing.
func (s *Store) EnsureSchema(ctx context.Context) error {
	query := fmt.Sprintf(`
CREATE TABLE IF NOT EXISTS %s (
	id         TEXT PRIMARY KEY,
	fact_id    TEXT NOT NULL,
	payload    TEXT NOT NULL,
	fetched_at TEXT NOT NULL
)`, s.table)
	if _, err := s.db.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("create table %s: %w", s.table, err)
	}
	return nil
}

// Name identifies the provider.
func (s *Store) Name() string {
	return "sqlite"
}

// Save inserts f under a freshly generated key and returns the key.
func (s *Store) Save(ctx context.Context, f fact.Fact) (string, error) {
	key, err := s.ids.NewID()
	if err != nil {
		return "", fmt.Errorf("generate key: %w", err)
	}
	payload, err := fact.Encode(f)
	if err != nil {
		return "", err
	}
	query := fmt.Sprintf(`INSERT INTO %s (id, fact_id, payload, fetched_at) VALUES (?, ?, ?, ?)`, s.table)
	fetchedAt := s.clock.Now().UTC().Format(time.RFC3339Nano)
	if _, err := s.db.ExecContext(ctx, query, key, f.ID, string(payload), fetchedAt); err != nil {
		return "", fmt.Errorf("insert fact: %w", err)
	}
	return key, nil
}

// Load returns the record stored under key.
func (s *Store) Load(ctx context.Context, key string) (fact.Fact, error) {
	var payload string
	query := fmt.Sprintf(`SELECT payload FROM %s WHERE id = ?`, s.table)
	if err := s.db.QueryRowContext(ctx, query, key).Scan(&payload); err != nil {
		return fact.Fact{}, fmt.Errorf("select fact %s: %w", key, err)
	}
	return fact.Decode([]byte(payload))
}

// Close releases the database handle.
func (s *Store) Close() error {
	if err := s.db.Close(); err != nil {
		return fmt.Errorf("close sqlite: %w", err)
	}
	return nil
}

package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

// SchemaVersion is the latest schema this package migrates to.
const SchemaVersion = 2

const keySchemaVersion = "schema_version"

// DB wraps a SQLite database connection
type DB struct {
	*sql.DB
}

// Open opens a database file with the pragmas the store relies on.
func Open(path string) (*DB, error) {
	if path == ":memory:" {
		return New(path)
	}
	return New(path + "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)")
}

// New creates a new SQLite database connection
func New(dataSourceName string) (*DB, error) {
	db, err := sql.Open("sqlite", dataSourceName)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Every pooled connection would get its own empty in-memory database.
	if dataSourceName == ":memory:" || strings.Contains(dataSourceName, "mode=memory") {
		db.SetMaxOpenConns(1)
	}

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	return &DB{db}, nil
}

type migration struct {
	version int
	stmts   string
}

var migrations = []migration{
	{
		version: 1,
		stmts: `
CREATE TABLE launch_counters (
    project_id TEXT PRIMARY KEY,
    count INTEGER NOT NULL DEFAULT 0 CHECK (count >= 0),
    updated_at TIMESTAMP NOT NULL
);

CREATE TABLE ratings (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    project_id TEXT NOT NULL,
    value REAL NOT NULL CHECK (value BETWEEN 0 AND 5),
    created_at TIMESTAMP NOT NULL
);
CREATE INDEX idx_ratings_project ON ratings(project_id);

CREATE TABLE sessions (
    id TEXT PRIMARY KEY,
    connected_at TIMESTAMP NOT NULL,
    disconnected_at TIMESTAMP,
    meta TEXT
);
CREATE INDEX idx_sessions_open ON sessions(disconnected_at);
CREATE INDEX idx_sessions_connected ON sessions(connected_at);
`,
	},
	{
		version: 2,
		stmts: `
CREATE TABLE activity_log (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    project_id TEXT NOT NULL DEFAULT '',
    session_id TEXT,
    activity_type TEXT NOT NULL,
    summary TEXT NOT NULL,
    details TEXT NOT NULL DEFAULT '',
    created_at TIMESTAMP NOT NULL
);
CREATE INDEX idx_activity_project ON activity_log(project_id);
CREATE INDEX idx_activity_created_at ON activity_log(created_at);
`,
	},
}

// Migrate brings the schema up to SchemaVersion. Each version is applied in
// its own transaction together with the version marker.
func (db *DB) Migrate(ctx context.Context) error {
	if _, err := db.ExecContext(ctx, `
CREATE TABLE IF NOT EXISTS schema_kv (
    key TEXT PRIMARY KEY,
    value TEXT NOT NULL,
    updated_at TIMESTAMP NOT NULL
)`); err != nil {
		return fmt.Errorf("create schema_kv table: %w", err)
	}

	current, err := db.Version(ctx)
	if err != nil {
		return err
	}

	for _, m := range migrations {
		if m.version <= current {
			continue
		}
		if err := db.apply(ctx, m); err != nil {
			return fmt.Errorf("migrate to v%d: %w", m.version, err)
		}
	}
	return nil
}

// RunMigrations runs Migrate with a background context.
func (db *DB) RunMigrations() error {
	return db.Migrate(context.Background())
}

// Version returns the applied schema version, 0 for an empty database.
func (db *DB) Version(ctx context.Context) (int, error) {
	var raw string
	err := db.QueryRowContext(ctx, `SELECT value FROM schema_kv WHERE key = ?`, keySchemaVersion).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("read schema version: %w", err)
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("parse schema version %q: %w", raw, err)
	}
	return v, nil
}

func (db *DB) apply(ctx context.Context, m migration) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, m.stmts); err != nil {
		return err
	}
	if err := setValue(ctx, tx, keySchemaVersion, strconv.Itoa(m.version)); err != nil {
		return err
	}
	return tx.Commit()
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func setValue(ctx context.Context, e execer, key, value string) error {
	_, err := e.ExecContext(ctx, `
		INSERT INTO schema_kv (key, value, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at
	`, key, value, time.Now().UTC())
	return err
}

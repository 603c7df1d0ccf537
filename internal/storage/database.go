package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// SchemaVersion is the current structured store schema version, tracked in
// SQLite's user_version pragma.
const SchemaVersion = 2

// New opens a SQLite database connection at the given path.
// The pool is limited to one connection: the store has a single writer and
// this keeps PRAGMA state and write ordering on one connection.
func New(path string) (*sql.DB, error) {
	dsn := fmt.Sprintf("file:%s?_foreign_keys=on&_busy_timeout=5000", path)
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, err
	}

	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	// Verify connection
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, err
	}

	return db, nil
}

var schemaV2 = []string{
	`CREATE TABLE IF NOT EXISTS notes (
		id TEXT PRIMARY KEY,
		title TEXT NOT NULL DEFAULT '',
		content TEXT NOT NULL DEFAULT '',
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL,
		tags TEXT NOT NULL DEFAULT '[]',
		is_favorite INTEGER NOT NULL DEFAULT 0,
		folder_id TEXT,
		is_deleted INTEGER NOT NULL DEFAULT 0,
		deleted_at TEXT
	);`,
	`CREATE TABLE IF NOT EXISTS settings (
		key TEXT PRIMARY KEY,
		value TEXT
	);`,
	`CREATE TABLE IF NOT EXISTS folders (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		parent_id TEXT,
		color TEXT NOT NULL DEFAULT '',
		created_at TEXT NOT NULL
	);`,
	`CREATE TABLE IF NOT EXISTS history (
		id TEXT PRIMARY KEY,
		note_id TEXT NOT NULL,
		title TEXT NOT NULL DEFAULT '',
		content TEXT NOT NULL DEFAULT '',
		saved_at TEXT NOT NULL
	);`,
}

var indexesV2 = []string{
	`CREATE INDEX IF NOT EXISTS idx_notes_updated_at ON notes(updated_at);`,
	`CREATE INDEX IF NOT EXISTS idx_notes_created_at ON notes(created_at);`,
	`CREATE INDEX IF NOT EXISTS idx_notes_title ON notes(title);`,
	`CREATE INDEX IF NOT EXISTS idx_notes_is_favorite ON notes(is_favorite);`,
	`CREATE INDEX IF NOT EXISTS idx_notes_folder_id ON notes(folder_id);`,
	`CREATE INDEX IF NOT EXISTS idx_folders_name ON folders(name);`,
	`CREATE INDEX IF NOT EXISTS idx_folders_parent_id ON folders(parent_id);`,
	`CREATE INDEX IF NOT EXISTS idx_history_note_id ON history(note_id);`,
	`CREATE INDEX IF NOT EXISTS idx_history_saved_at ON history(saved_at);`,
}

// v1 note columns that may be missing on an older database, with the
// definition used to add them.
var noteColumnsV2 = []struct {
	name string
	def  string
}{
	{"tags", "TEXT NOT NULL DEFAULT '[]'"},
	{"is_favorite", "INTEGER NOT NULL DEFAULT 0"},
	{"folder_id", "TEXT"},
	{"is_deleted", "INTEGER NOT NULL DEFAULT 0"},
	{"deleted_at", "TEXT"},
}

// Migrate brings the schema to SchemaVersion.
// It is idempotent and can be run multiple times safely. A version 1
// database gets the missing note columns back-filled and the new stores and
// indexes created, all in one transaction.
func Migrate(db *sql.DB) error {
	ctx := context.Background()

	version, err := userVersion(ctx, db)
	if err != nil {
		return err
	}
	if version > SchemaVersion {
		return fmt.Errorf("database schema version %d is newer than supported version %d", version, SchemaVersion)
	}
	if version == 0 {
		exists, err := tableExists(ctx, db, "notes")
		if err != nil {
			return err
		}
		if exists {
			version = 1
		}
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin migration: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if version == 1 {
		if err := upgradeV1Notes(ctx, tx); err != nil {
			return err
		}
	}

	for _, stmt := range append(append([]string{}, schemaV2...), indexesV2...) {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to apply schema: %w", err)
		}
	}

	if _, err := tx.ExecContext(ctx, fmt.Sprintf("PRAGMA user_version = %d", SchemaVersion)); err != nil {
		return fmt.Errorf("failed to set schema version: %w", err)
	}

	return tx.Commit()
}

func upgradeV1Notes(ctx context.Context, tx *sql.Tx) error {
	existing, err := columnNames(ctx, tx, "notes")
	if err != nil {
		return err
	}
	for _, col := range noteColumnsV2 {
		if existing[col.name] {
			continue
		}
		stmt := fmt.Sprintf("ALTER TABLE notes ADD COLUMN %s %s", col.name, col.def)
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to add notes.%s: %w", col.name, err)
		}
	}

	// Rows written by v1 may hold NULLs or empty strings where v2 expects defaults.
	backfill := []string{
		`UPDATE notes SET tags = '[]' WHERE tags IS NULL OR tags = ''`,
		`UPDATE notes SET is_favorite = 0 WHERE is_favorite IS NULL`,
		`UPDATE notes SET folder_id = NULL WHERE folder_id = ''`,
		`UPDATE notes SET is_deleted = 0 WHERE is_deleted IS NULL`,
	}
	for _, stmt := range backfill {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to back-fill notes: %w", err)
		}
	}
	return nil
}

func userVersion(ctx context.Context, db *sql.DB) (int, error) {
	var version int
	if err := db.QueryRowContext(ctx, "PRAGMA user_version").Scan(&version); err != nil {
		return 0, fmt.Errorf("failed to read schema version: %w", err)
	}
	return version, nil
}

func tableExists(ctx context.Context, db *sql.DB, name string) (bool, error) {
	var count int
	err := db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name=?", name,
	).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("failed to check table %s: %w", name, err)
	}
	return count > 0, nil
}

func columnNames(ctx context.Context, tx *sql.Tx, table string) (map[string]bool, error) {
	rows, err := tx.QueryContext(ctx, fmt.Sprintf("PRAGMA table_info(%s)", table))
	if err != nil {
		return nil, fmt.Errorf("failed to read columns of %s: %w", table, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	cols := make(map[string]bool)
	for rows.Next() {
		var (
			cid     int
			name    string
			typ     string
			notNull int
			dflt    sql.NullString
			pk      int
		)
		if err := rows.Scan(&cid, &name, &typ, &notNull, &dflt, &pk); err != nil {
			return nil, fmt.Errorf("failed to scan column info: %w", err)
		}
		cols[name] = true
	}
	return cols, rows.Err()
}

// formatTime stores timestamps as RFC 3339 text in UTC so that lexical
// order matches chronological order.
func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

func parseTime(s string) (time.Time, error) {
	if t, err := time.Parse(timeLayout, s); err == nil {
		return t, nil
	}
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t, nil
	}
	// Try alternative format (SQLite CURRENT_TIMESTAMP)
	return time.Parse("2006-01-02 15:04:05", s)
}

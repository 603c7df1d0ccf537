package storage

import (
	"context"
	"path/filepath"
	"testing"
)

// newTestDB opens a migrated database in a temp directory.
func newTestDB(t *testing.T) *Store {
	t.Helper()

	db, err := New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	t.Cleanup(func() {
		_ = db.Close()
	})

	if err := Migrate(db); err != nil {
		t.Fatalf("Migrate() error = %v", err)
	}
	return NewStore(db, NewSorter("en"), 20)
}

func TestNew(t *testing.T) {
	tmpDir := t.TempDir()
	dbPath := filepath.Join(tmpDir, "test.db")

	tests := []struct {
		name    string
		path    string
		wantErr bool
	}{
		{
			name:    "valid path",
			path:    dbPath,
			wantErr: false,
		},
		{
			name:    "invalid path",
			path:    "/invalid/path/to/db.db",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, err := New(tt.path)

			if tt.wantErr {
				if err == nil {
					t.Errorf("New() expected error, got nil")
				}
				if db != nil {
					_ = db.Close()
				}
				return
			}

			if err != nil {
				t.Errorf("New() unexpected error: %v", err)
				return
			}

			if db == nil {
				t.Fatal("New() returned nil database")
			}

			if db.Stats().MaxOpenConnections != 1 {
				t.Errorf("New() MaxOpenConnections = %v, want 1", db.Stats().MaxOpenConnections)
			}

			_ = db.Close()
		})
	}
}

func TestMigrate(t *testing.T) {
	db, err := New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	defer func() {
		_ = db.Close()
	}()

	// Run migrations twice
	for i := 0; i < 2; i++ {
		if err := Migrate(db); err != nil {
			t.Fatalf("Migrate() run %d error = %v", i+1, err)
		}
	}

	tables := []string{"notes", "settings", "folders", "history"}
	for _, table := range tables {
		var count int
		err := db.QueryRow("SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name=?", table).Scan(&count)
		if err != nil {
			t.Fatalf("Failed to check table %s: %v", table, err)
		}
		if count != 1 {
			t.Errorf("Migrate() table %s not created", table)
		}
	}

	var version int
	if err := db.QueryRow("PRAGMA user_version").Scan(&version); err != nil {
		t.Fatalf("Failed to read user_version: %v", err)
	}
	if version != SchemaVersion {
		t.Errorf("user_version = %d, want %d", version, SchemaVersion)
	}
}

func TestMigrate_UpgradesV1(t *testing.T) {
	db, err := New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	defer func() {
		_ = db.Close()
	}()

	v1 := []string{
		`CREATE TABLE notes (
			id TEXT PRIMARY KEY,
			title TEXT NOT NULL DEFAULT '',
			content TEXT NOT NULL DEFAULT '',
			created_at TEXT NOT NULL,
			updated_at TEXT NOT NULL,
			is_deleted INTEGER NOT NULL DEFAULT 0,
			deleted_at TEXT
		);`,
		`CREATE TABLE settings (key TEXT PRIMARY KEY, value TEXT);`,
		`INSERT INTO notes (id, title, content, created_at, updated_at)
		 VALUES ('legacy', 'Old note', 'body', '2024-01-02 03:04:05', '2024-01-02 03:04:05');`,
		`PRAGMA user_version = 1;`,
	}
	for _, stmt := range v1 {
		if _, err := db.Exec(stmt); err != nil {
			t.Fatalf("setup %q: %v", stmt, err)
		}
	}

	if err := Migrate(db); err != nil {
		t.Fatalf("Migrate() error = %v", err)
	}

	repo := NewNoteRepo(db, nil)
	note, err := repo.Get(context.Background(), "legacy")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if note.IsFavorite {
		t.Error("back-filled IsFavorite = true, want false")
	}
	if note.FolderID != "" {
		t.Errorf("back-filled FolderID = %q, want empty", note.FolderID)
	}
	if note.Tags == nil || len(note.Tags) != 0 {
		t.Errorf("back-filled Tags = %v, want empty slice", note.Tags)
	}
	if note.Title != "Old note" || note.Content != "body" {
		t.Errorf("legacy fields changed: %+v", note)
	}

	var idx int
	if err := db.QueryRow("SELECT COUNT(*) FROM sqlite_master WHERE type='index' AND name='idx_notes_folder_id'").Scan(&idx); err != nil {
		t.Fatalf("Failed to check index: %v", err)
	}
	if idx != 1 {
		t.Error("Migrate() did not add idx_notes_folder_id")
	}
}

func TestMigrate_RejectsNewerSchema(t *testing.T) {
	db, err := New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	defer func() {
		_ = db.Close()
	}()

	if _, err := db.Exec("PRAGMA user_version = 99"); err != nil {
		t.Fatalf("setup: %v", err)
	}
	if err := Migrate(db); err == nil {
		t.Error("Migrate() on newer schema should return error")
	}
}

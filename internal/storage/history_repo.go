package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"offnote/internal/domain"
)

// DefaultHistoryRetention is the number of snapshots kept per note.
const DefaultHistoryRetention = 20

// HistoryStore defines the interface for the append-only history log.
type HistoryStore interface {
	// Append records a snapshot and trims the note's history to the retention limit.
	Append(ctx context.Context, noteID, title, content string) (domain.HistoryEntry, error)
	// List returns up to limit snapshots for a note, newest first.
	List(ctx context.Context, noteID string, limit int) ([]domain.HistoryEntry, error)
	// Delete removes a single snapshot.
	Delete(ctx context.Context, id string) error
	// DeleteByNote removes every snapshot of a note.
	DeleteByNote(ctx context.Context, noteID string) error
	// Cleanup trims every note's history to keep entries and returns how many were removed.
	Cleanup(ctx context.Context, keep int) (int, error)
}

// HistoryRepo stores history entries. Entries are never updated.
type HistoryRepo struct {
	db        *sql.DB
	retention int
	now       func() time.Time
}

// NewHistoryRepo creates a HistoryRepo keeping the newest retention entries
// per note. A non-positive retention uses DefaultHistoryRetention.
func NewHistoryRepo(db *sql.DB, retention int) *HistoryRepo {
	if retention <= 0 {
		retention = DefaultHistoryRetention
	}
	return &HistoryRepo{db: db, retention: retention, now: time.Now}
}

// Append records a snapshot of a note.
func (r *HistoryRepo) Append(ctx context.Context, noteID, title, content string) (domain.HistoryEntry, error) {
	entry := domain.HistoryEntry{
		ID:      uuid.New().String(),
		NoteID:  noteID,
		Title:   title,
		Content: content,
		SavedAt: r.now(),
	}
	_, err := r.db.ExecContext(ctx,
		"INSERT INTO history (id, note_id, title, content, saved_at) VALUES (?, ?, ?, ?, ?)",
		entry.ID, entry.NoteID, entry.Title, entry.Content, formatTime(entry.SavedAt),
	)
	if err != nil {
		return domain.HistoryEntry{}, fmt.Errorf("failed to insert history: %w", err)
	}

	if _, err := r.trim(ctx, noteID, r.retention); err != nil {
		return entry, err
	}
	return entry, nil
}

// trim keeps the newest keep entries of a note. rowid breaks ties between
// entries saved within the same clock tick.
func (r *HistoryRepo) trim(ctx context.Context, noteID string, keep int) (int, error) {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM history WHERE note_id = ? AND id NOT IN (
			SELECT id FROM history WHERE note_id = ? ORDER BY saved_at DESC, rowid DESC LIMIT ?
		)`,
		noteID, noteID, keep,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to trim history: %w", err)
	}
	n, _ := res.RowsAffected()
	return int(n), nil
}

// List returns a note's history, newest first.
func (r *HistoryRepo) List(ctx context.Context, noteID string, limit int) ([]domain.HistoryEntry, error) {
	if limit <= 0 {
		limit = r.retention
	}
	rows, err := r.db.QueryContext(ctx,
		"SELECT id, note_id, title, content, saved_at FROM history WHERE note_id = ? ORDER BY saved_at DESC, rowid DESC LIMIT ?",
		noteID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query history: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	entries := []domain.HistoryEntry{}
	for rows.Next() {
		var (
			entry   domain.HistoryEntry
			savedAt string
		)
		if err := rows.Scan(&entry.ID, &entry.NoteID, &entry.Title, &entry.Content, &savedAt); err != nil {
			return nil, fmt.Errorf("failed to scan history: %w", err)
		}
		if entry.SavedAt, err = parseTime(savedAt); err != nil {
			return nil, fmt.Errorf("failed to parse saved_at timestamp: %w", err)
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}
	return entries, nil
}

// Delete removes one history entry.
func (r *HistoryRepo) Delete(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, "DELETE FROM history WHERE id = ?", id); err != nil {
		return fmt.Errorf("failed to delete history: %w", err)
	}
	return nil
}

// DeleteByNote removes all history of a note.
func (r *HistoryRepo) DeleteByNote(ctx context.Context, noteID string) error {
	if _, err := r.db.ExecContext(ctx, "DELETE FROM history WHERE note_id = ?", noteID); err != nil {
		return fmt.Errorf("failed to delete note history: %w", err)
	}
	return nil
}

// Cleanup trims every note's history to the newest keep entries.
func (r *HistoryRepo) Cleanup(ctx context.Context, keep int) (int, error) {
	if keep <= 0 {
		keep = r.retention
	}
	rows, err := r.db.QueryContext(ctx, "SELECT DISTINCT note_id FROM history")
	if err != nil {
		return 0, fmt.Errorf("failed to query history notes: %w", err)
	}
	var noteIDs []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			_ = rows.Close()
			return 0, fmt.Errorf("failed to scan note id: %w", err)
		}
		noteIDs = append(noteIDs, id)
	}
	_ = rows.Close()
	if err := rows.Err(); err != nil {
		return 0, fmt.Errorf("row iteration error: %w", err)
	}

	removed := 0
	for _, id := range noteIDs {
		n, err := r.trim(ctx, id, keep)
		if err != nil {
			return removed, err
		}
		removed += n
	}
	return removed, nil
}

package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sort"

	"offnote/internal/domain"
)

// NoteStore defines the interface for note storage operations.
type NoteStore interface {
	// Get gets a note by ID, including soft-deleted notes.
	// Returns ErrNotFound if not found.
	Get(ctx context.Context, id string) (domain.Note, error)
	// Put inserts a note or replaces the stored record with the same ID.
	Put(ctx context.Context, note domain.Note) error
	// List returns non-deleted notes in the requested order.
	List(ctx context.Context, opts domain.ListOptions) ([]domain.Note, error)
	// ListAll returns every note, deleted or not, ordered by creation time.
	ListAll(ctx context.Context) ([]domain.Note, error)
	// ListDeleted returns soft-deleted notes, most recently deleted first.
	ListDeleted(ctx context.Context) ([]domain.Note, error)
	// ListByFolder returns non-deleted notes assigned to folderID.
	ListByFolder(ctx context.Context, folderID string) ([]domain.Note, error)
	// ListFavorites returns non-deleted favorite notes, most recently updated first.
	ListFavorites(ctx context.Context) ([]domain.Note, error)
	// Delete permanently removes a note. Deleting a missing note is not an error.
	Delete(ctx context.Context, id string) error
}

// NoteRepo provides methods for note operations.
// It implements the NoteStore interface.
type NoteRepo struct {
	db     *sql.DB
	sorter *Sorter
}

// NewNoteRepo creates a new NoteRepo. Titles are collated with sorter.
func NewNoteRepo(db *sql.DB, sorter *Sorter) *NoteRepo {
	if sorter == nil {
		sorter = NewSorter("und")
	}
	return &NoteRepo{db: db, sorter: sorter}
}

// Get gets a note by ID.
// Returns ErrNotFound if not found.
func (r *NoteRepo) Get(ctx context.Context, id string) (domain.Note, error) {
	row := r.db.QueryRowContext(ctx, "SELECT "+noteColumns+" FROM notes WHERE id = ?", id)
	note, err := scanNote(row)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Note{}, ErrNotFound
	}
	if err != nil {
		return domain.Note{}, fmt.Errorf("failed to query note: %w", err)
	}
	return note, nil
}

// Put inserts a new note or updates an existing one. The whole record is
// written in a single statement.
func (r *NoteRepo) Put(ctx context.Context, note domain.Note) error {
	if note.ID == "" {
		return &domain.ValidationError{Field: "id", Message: "cannot be empty"}
	}
	tags := note.Tags
	if tags == nil {
		tags = []string{}
	}
	tagsJSON, err := json.Marshal(tags)
	if err != nil {
		return fmt.Errorf("failed to encode tags: %w", err)
	}
	var deletedAt sql.NullString
	if note.DeletedAt != nil {
		deletedAt = sql.NullString{String: formatTime(*note.DeletedAt), Valid: true}
	}

	_, err = r.db.ExecContext(ctx,
		`INSERT INTO notes (`+noteColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT (id) DO UPDATE SET
		 title = excluded.title, content = excluded.content,
		 created_at = excluded.created_at, updated_at = excluded.updated_at,
		 tags = excluded.tags, is_favorite = excluded.is_favorite,
		 folder_id = excluded.folder_id, is_deleted = excluded.is_deleted,
		 deleted_at = excluded.deleted_at`,
		note.ID, note.Title, note.Content, formatTime(note.CreatedAt), formatTime(note.UpdatedAt),
		string(tagsJSON), boolInt(note.IsFavorite), nullString(note.FolderID),
		boolInt(note.IsDeleted), deletedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert note: %w", err)
	}
	return nil
}

// List returns non-deleted notes. Time orderings are served by the
// updated_at/created_at indexes; title order is collated in memory.
func (r *NoteRepo) List(ctx context.Context, opts domain.ListOptions) ([]domain.Note, error) {
	opts = opts.Normalize()

	query := "SELECT " + noteColumns + " FROM notes WHERE is_deleted = 0"
	switch opts.SortBy {
	case domain.SortByCreatedAt:
		query += " ORDER BY created_at"
	case domain.SortByUpdatedAt:
		query += " ORDER BY updated_at"
	}
	if opts.SortBy != domain.SortByTitle && opts.Order == domain.Desc {
		query += " DESC"
	}

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query notes: %w", err)
	}
	notes, err := scanNotes(rows)
	if err != nil {
		return nil, err
	}
	if opts.SortBy == domain.SortByTitle {
		r.sorter.Sort(notes, opts)
	}
	return notes, nil
}

// ListAll returns every note including soft-deleted ones.
func (r *NoteRepo) ListAll(ctx context.Context) ([]domain.Note, error) {
	rows, err := r.db.QueryContext(ctx, "SELECT "+noteColumns+" FROM notes ORDER BY created_at, id")
	if err != nil {
		return nil, fmt.Errorf("failed to query notes: %w", err)
	}
	return scanNotes(rows)
}

// ListDeleted returns the trash, most recently deleted first.
func (r *NoteRepo) ListDeleted(ctx context.Context) ([]domain.Note, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT "+noteColumns+" FROM notes WHERE is_deleted = 1 ORDER BY deleted_at DESC")
	if err != nil {
		return nil, fmt.Errorf("failed to query deleted notes: %w", err)
	}
	return scanNotes(rows)
}

// ListByFolder returns non-deleted notes in a folder.
func (r *NoteRepo) ListByFolder(ctx context.Context, folderID string) ([]domain.Note, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT "+noteColumns+" FROM notes WHERE folder_id = ? AND is_deleted = 0 ORDER BY updated_at DESC",
		folderID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query notes by folder: %w", err)
	}
	return scanNotes(rows)
}

// ListFavorites returns non-deleted favorites, most recently updated first.
func (r *NoteRepo) ListFavorites(ctx context.Context) ([]domain.Note, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT "+noteColumns+" FROM notes WHERE is_favorite = 1 AND is_deleted = 0 ORDER BY updated_at DESC")
	if err != nil {
		return nil, fmt.Errorf("failed to query favorite notes: %w", err)
	}
	return scanNotes(rows)
}

// Delete permanently removes a note.
func (r *NoteRepo) Delete(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, "DELETE FROM notes WHERE id = ?", id); err != nil {
		return fmt.Errorf("failed to delete note: %w", err)
	}
	return nil
}

// CountTags tallies tags over notes and returns them most frequent first.
// Ties are broken alphabetically so the result is stable.
func CountTags(notes []domain.Note) []domain.TagCount {
	counts := make(map[string]int)
	for _, n := range notes {
		for _, tag := range n.Tags {
			counts[tag]++
		}
	}

	result := make([]domain.TagCount, 0, len(counts))
	for tag, count := range counts {
		result = append(result, domain.TagCount{Tag: tag, Count: count})
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].Count != result[j].Count {
			return result[i].Count > result[j].Count
		}
		return result[i].Tag < result[j].Tag
	})
	return result
}

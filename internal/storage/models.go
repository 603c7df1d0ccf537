package storage

import (
	"database/sql"
	"encoding/json"
	"fmt"

	"offnote/internal/domain"
)

// ErrNotFound is returned when a record is not found.
var ErrNotFound = domain.ErrNotFound

const noteColumns = "id, title, content, created_at, updated_at, tags, is_favorite, folder_id, is_deleted, deleted_at"

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanNote(row rowScanner) (domain.Note, error) {
	var (
		note       domain.Note
		createdAt  string
		updatedAt  string
		tagsJSON   string
		isFavorite int
		folderID   sql.NullString
		isDeleted  int
		deletedAt  sql.NullString
	)
	if err := row.Scan(&note.ID, &note.Title, &note.Content, &createdAt, &updatedAt,
		&tagsJSON, &isFavorite, &folderID, &isDeleted, &deletedAt); err != nil {
		return domain.Note{}, err
	}

	var err error
	if note.CreatedAt, err = parseTime(createdAt); err != nil {
		return domain.Note{}, fmt.Errorf("failed to parse created_at timestamp: %w", err)
	}
	if note.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return domain.Note{}, fmt.Errorf("failed to parse updated_at timestamp: %w", err)
	}
	if err := json.Unmarshal([]byte(tagsJSON), &note.Tags); err != nil || note.Tags == nil {
		note.Tags = []string{}
	}
	note.IsFavorite = isFavorite != 0
	note.FolderID = folderID.String
	note.IsDeleted = isDeleted != 0
	if deletedAt.Valid && deletedAt.String != "" {
		t, err := parseTime(deletedAt.String)
		if err != nil {
			return domain.Note{}, fmt.Errorf("failed to parse deleted_at timestamp: %w", err)
		}
		note.DeletedAt = &t
	}
	return note, nil
}

func scanNotes(rows *sql.Rows) ([]domain.Note, error) {
	defer func() {
		_ = rows.Close()
	}()

	notes := []domain.Note{}
	for rows.Next() {
		note, err := scanNote(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan note: %w", err)
		}
		notes = append(notes, note)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}
	return notes, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

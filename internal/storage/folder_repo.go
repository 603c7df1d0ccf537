package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"offnote/internal/domain"
)

// FolderStore defines the interface for folder storage operations.
type FolderStore interface {
	// Create creates a folder with a fresh ID.
	Create(ctx context.Context, name, parentID, color string) (domain.Folder, error)
	// Get gets a folder by ID. Returns ErrNotFound if not found.
	Get(ctx context.Context, id string) (domain.Folder, error)
	// GetByName returns the oldest folder whose name matches exactly.
	// Returns ErrNotFound if none matches.
	GetByName(ctx context.Context, name string) (domain.Folder, error)
	// Update replaces name, parent and color of an existing folder.
	Update(ctx context.Context, folder domain.Folder) error
	// Delete clears folder_id on member notes and removes the folder.
	Delete(ctx context.Context, id string) error
	// List returns all folders ordered by creation time.
	List(ctx context.Context) ([]domain.Folder, error)
}

// FolderRepo provides methods for folder operations.
type FolderRepo struct {
	db *sql.DB
}

// NewFolderRepo creates a new FolderRepo.
func NewFolderRepo(db *sql.DB) *FolderRepo {
	return &FolderRepo{db: db}
}

// Create creates a folder. An empty color gets the default folder color.
func (r *FolderRepo) Create(ctx context.Context, name, parentID, color string) (domain.Folder, error) {
	if name == "" {
		return domain.Folder{}, &domain.ValidationError{Field: "name", Message: "cannot be empty"}
	}
	if color == "" {
		color = domain.DefaultFolderColor
	}
	folder := domain.Folder{
		ID:        uuid.New().String(),
		Name:      name,
		ParentID:  parentID,
		Color:     color,
		CreatedAt: time.Now(),
	}

	_, err := r.db.ExecContext(ctx,
		"INSERT INTO folders (id, name, parent_id, color, created_at) VALUES (?, ?, ?, ?, ?)",
		folder.ID, folder.Name, nullString(folder.ParentID), folder.Color, formatTime(folder.CreatedAt),
	)
	if err != nil {
		return domain.Folder{}, fmt.Errorf("failed to insert folder: %w", err)
	}
	return folder, nil
}

// Get gets a folder by ID.
func (r *FolderRepo) Get(ctx context.Context, id string) (domain.Folder, error) {
	row := r.db.QueryRowContext(ctx,
		"SELECT id, name, parent_id, color, created_at FROM folders WHERE id = ?", id)
	return scanFolder(row)
}

// GetByName gets a folder by exact, case-sensitive name.
func (r *FolderRepo) GetByName(ctx context.Context, name string) (domain.Folder, error) {
	row := r.db.QueryRowContext(ctx,
		"SELECT id, name, parent_id, color, created_at FROM folders WHERE name = ? ORDER BY created_at, id LIMIT 1", name)
	return scanFolder(row)
}

// Update updates a folder's mutable fields.
func (r *FolderRepo) Update(ctx context.Context, folder domain.Folder) error {
	if folder.Name == "" {
		return &domain.ValidationError{Field: "name", Message: "cannot be empty"}
	}
	res, err := r.db.ExecContext(ctx,
		"UPDATE folders SET name = ?, parent_id = ?, color = ? WHERE id = ?",
		folder.Name, nullString(folder.ParentID), folder.Color, folder.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update folder: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete detaches member notes and removes the folder in one transaction.
func (r *FolderRepo) Delete(ctx context.Context, id string) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin folder delete: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if _, err := tx.ExecContext(ctx, "UPDATE notes SET folder_id = NULL WHERE folder_id = ?", id); err != nil {
		return fmt.Errorf("failed to detach notes from folder: %w", err)
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM folders WHERE id = ?", id); err != nil {
		return fmt.Errorf("failed to delete folder: %w", err)
	}
	return tx.Commit()
}

// List returns all folders ordered by creation time.
func (r *FolderRepo) List(ctx context.Context) ([]domain.Folder, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT id, name, parent_id, color, created_at FROM folders ORDER BY created_at, id")
	if err != nil {
		return nil, fmt.Errorf("failed to query folders: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	folders := []domain.Folder{}
	for rows.Next() {
		folder, err := scanFolder(rows)
		if err != nil {
			return nil, err
		}
		folders = append(folders, folder)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}
	return folders, nil
}

func scanFolder(row rowScanner) (domain.Folder, error) {
	var (
		folder    domain.Folder
		parentID  sql.NullString
		createdAt string
	)
	err := row.Scan(&folder.ID, &folder.Name, &parentID, &folder.Color, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Folder{}, ErrNotFound
	}
	if err != nil {
		return domain.Folder{}, fmt.Errorf("failed to scan folder: %w", err)
	}
	folder.ParentID = parentID.String
	if folder.CreatedAt, err = parseTime(createdAt); err != nil {
		return domain.Folder{}, fmt.Errorf("failed to parse created_at timestamp: %w", err)
	}
	return folder, nil
}

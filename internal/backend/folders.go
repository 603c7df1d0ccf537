package backend

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"offnote/internal/domain"
	"offnote/internal/fsstore"
)

// Folders always live in the database. In file mode each folder is also
// mirrored by a directory under the root.

// CreateFolder creates a folder. If its directory cannot be created the
// folder is still returned together with a *domain.FallbackError.
func (s *Selector) CreateFolder(ctx context.Context, name, parentID, color string) (domain.Folder, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return domain.Folder{}, &domain.ValidationError{Field: "name", Message: "cannot be empty"}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.checkFolderName(ctx, "", name); err != nil {
		return domain.Folder{}, err
	}
	if parentID != "" {
		if _, err := s.folders.Get(ctx, parentID); err != nil {
			return domain.Folder{}, fmt.Errorf("failed to resolve parent folder %s: %w", parentID, err)
		}
	}
	folder, err := s.folders.Create(ctx, name, parentID, color)
	if err != nil {
		return domain.Folder{}, fmt.Errorf("failed to create folder: %w", err)
	}

	if s.fileActive() {
		err := s.onFile("create_folder", func(fb FileBackend) error {
			return fb.CreateFolderDirectory(ctx, folder.Name)
		})
		if err != nil {
			s.fellBack(ctx, "create_folder", err)
			return folder, &domain.FallbackError{Op: "create folder", Err: err}
		}
	}
	s.getLogger(ctx).InfoContext(ctx, "created folder", "folder", folder.ID, "name", folder.Name)
	return folder, nil
}

// checkFolderName rejects name if another folder already has it or would
// be mirrored by the same directory. Directory names are compared without
// case since some file systems fold it. id is the folder being renamed.
func (s *Selector) checkFolderName(ctx context.Context, id, name string) error {
	other, err := s.folders.GetByName(ctx, name)
	switch {
	case err == nil && other.ID != id:
		return &domain.ValidationError{Field: "name", Message: fmt.Sprintf("folder %q already exists", name)}
	case err != nil && !errors.Is(err, domain.ErrNotFound):
		return fmt.Errorf("failed to look up folder %s: %w", name, err)
	}

	folders, err := s.folders.List(ctx)
	if err != nil {
		return fmt.Errorf("failed to list folders: %w", err)
	}
	dir := fsstore.DirNameFor(name)
	for _, f := range folders {
		if f.ID != id && strings.EqualFold(fsstore.DirNameFor(f.Name), dir) {
			return &domain.ValidationError{Field: "name", Message: fmt.Sprintf("conflicts with folder %q", f.Name)}
		}
	}
	return nil
}

// GetFolder returns the folder with id.
func (s *Selector) GetFolder(ctx context.Context, id string) (domain.Folder, error) {
	return s.folders.Get(ctx, id)
}

// ListFolders returns all folders.
func (s *Selector) ListFolders(ctx context.Context) ([]domain.Folder, error) {
	return s.folders.List(ctx)
}

// UpdateFolder renames or recolors a folder. In file mode a rename moves
// the folder directory first; the database is only updated once the
// directory move succeeded, and the move is undone if that update fails.
func (s *Selector) UpdateFolder(ctx context.Context, folder domain.Folder) (domain.Folder, error) {
	folder.Name = strings.TrimSpace(folder.Name)
	if folder.Name == "" {
		return domain.Folder{}, &domain.ValidationError{Field: "name", Message: "cannot be empty"}
	}
	if folder.ParentID == folder.ID {
		return domain.Folder{}, &domain.ValidationError{Field: "parentId", Message: "folder cannot be its own parent"}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	logger := s.getLogger(ctx)

	current, err := s.folders.Get(ctx, folder.ID)
	if err != nil {
		return domain.Folder{}, fmt.Errorf("failed to get folder %s: %w", folder.ID, err)
	}
	folder.CreatedAt = current.CreatedAt
	if current.Name != folder.Name {
		if err := s.checkFolderName(ctx, folder.ID, folder.Name); err != nil {
			return domain.Folder{}, err
		}
	}
	if folder.Color == "" {
		folder.Color = current.Color
	}

	renamed := current.Name != folder.Name && s.fileActive()
	if renamed {
		err := s.onFile("rename_folder", func(fb FileBackend) error {
			return fb.RenameFolderDirectory(ctx, current.Name, folder.Name)
		})
		if err != nil {
			return domain.Folder{}, fmt.Errorf("failed to rename folder directory: %w", err)
		}
	}

	if err := s.folders.Update(ctx, folder); err != nil {
		if renamed {
			undo := s.onFile("rename_folder", func(fb FileBackend) error {
				return fb.RenameFolderDirectory(ctx, folder.Name, current.Name)
			})
			if undo != nil {
				logger.ErrorContext(ctx, "failed to restore folder directory", "folder", folder.ID, "error", undo)
				err = errors.Join(err, undo)
			}
		}
		return domain.Folder{}, fmt.Errorf("failed to update folder %s: %w", folder.ID, err)
	}
	logger.InfoContext(ctx, "updated folder", "folder", folder.ID, "name", folder.Name)
	return folder, nil
}

// DeleteFolder removes a folder. Its notes are kept and become unfiled. In
// file mode their files move to the root first; if any cannot be moved the
// folder is left in place and a *domain.PartialFailure is returned.
func (s *Selector) DeleteFolder(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	logger := s.getLogger(ctx)

	folder, err := s.folders.Get(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to get folder %s: %w", id, err)
	}

	if s.fileActive() {
		err := s.onFile("delete_folder", func(fb FileBackend) error {
			return fb.DeleteFolderDirectory(ctx, folder.Name)
		})
		var pf *domain.PartialFailure
		if errors.As(err, &pf) {
			return err
		}
		if err != nil {
			s.fellBack(ctx, "delete_folder", err)
		}

		// Notes written to the root while the directory was unavailable still
		// carry the folder id.
		members, err := s.filtered(ctx, func(n domain.Note) bool { return n.FolderID == id })
		if err != nil {
			return fmt.Errorf("failed to list notes of folder %s: %w", id, err)
		}
		for _, n := range members {
			n.FolderID = ""
			if _, err := s.save(ctx, "unfile", n); err != nil && !domain.IsDegraded(err) {
				logger.ErrorContext(ctx, "failed to unfile note", "note_id", n.ID, "folder", id, "error", err)
			}
		}
	}

	children, err := s.folders.List(ctx)
	if err != nil {
		return fmt.Errorf("failed to list folders: %w", err)
	}
	for _, c := range children {
		if c.ParentID != id {
			continue
		}
		c.ParentID = folder.ParentID
		if err := s.folders.Update(ctx, c); err != nil {
			logger.WarnContext(ctx, "failed to reparent folder", "folder", c.ID, "error", err)
		}
	}

	if err := s.folders.Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete folder %s: %w", id, err)
	}
	logger.InfoContext(ctx, "deleted folder", "folder", id, "name", folder.Name)
	return nil
}

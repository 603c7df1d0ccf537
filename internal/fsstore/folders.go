package fsstore

import (
	"context"
	"errors"
	"fmt"

	"offnote/internal/domain"
	"offnote/internal/vault"
)

// DirNameFor returns the directory name of a folder called name.
func DirNameFor(name string) string {
	return sanitize(name)
}

// CreateFolderDirectory creates the directory mirroring a folder.
func (s *Store) CreateFolderDirectory(ctx context.Context, name string) error {
	dirName := sanitize(name)
	if _, err := s.root.Subdir(ctx, dirName, true); err != nil {
		return fmt.Errorf("failed to create folder directory %s: %w", dirName, err)
	}
	s.getLogger(ctx).InfoContext(ctx, "created folder directory", "dir", dirName)
	return nil
}

// ErrTargetExists is reported for a file that a folder rename would
// overwrite.
var ErrTargetExists = errors.New("file exists in target directory")

// RenameFolderDirectory moves a folder directory in two phases: every file
// is copied into the new directory, and the old directory is deleted only
// after all copies succeeded. Files already present in the new directory
// are never overwritten. If a copy fails or would overwrite, the new
// directory is rolled back and a *domain.PartialFailure is returned with the
// old directory intact. A failed rollback or a failed removal of the old directory leaves
// both on disk and is reported as a *domain.IntegrityError.
func (s *Store) RenameFolderDirectory(ctx context.Context, oldName, newName string) error {
	logger := s.getLogger(ctx)
	from, to := sanitize(oldName), sanitize(newName)
	if from == to {
		return nil
	}

	oldDir, err := s.root.Subdir(ctx, from, false)
	if errors.Is(err, vault.ErrNotFound) {
		// Nothing to carry over
		return s.CreateFolderDirectory(ctx, newName)
	}
	if err != nil {
		return fmt.Errorf("failed to open folder directory %s: %w", from, err)
	}

	_, probeErr := s.root.Subdir(ctx, to, false)
	created := errors.Is(probeErr, vault.ErrNotFound)
	newDir, err := s.root.Subdir(ctx, to, true)
	if err != nil {
		return fmt.Errorf("failed to create folder directory %s: %w", to, err)
	}

	entries, err := oldDir.Entries(ctx)
	if err != nil {
		s.rollbackDir(ctx, newDir, to, created, nil)
		return fmt.Errorf("failed to list folder directory %s: %w", from, err)
	}

	existing := make(map[string]bool)
	if !created {
		present, err := newDir.Entries(ctx)
		if err != nil {
			return fmt.Errorf("failed to list folder directory %s: %w", to, err)
		}
		for _, e := range present {
			existing[e.Name()] = true
		}
	}

	var (
		copied []string
		errs   []error
	)
	for _, e := range entries {
		f, ok := e.(vault.File)
		if !ok {
			continue
		}
		if existing[f.Name()] {
			errs = append(errs, fmt.Errorf("copy %s: %w", f.Name(), ErrTargetExists))
			continue
		}
		if err := copyFile(ctx, f, newDir); err != nil {
			errs = append(errs, fmt.Errorf("copy %s: %w", f.Name(), err))
			continue
		}
		copied = append(copied, f.Name())
	}

	if len(errs) > 0 {
		pf := &domain.PartialFailure{Op: "rename folder directory", Succeeded: len(copied), Failed: len(errs), Errs: errs}
		if rbErr := s.rollbackDir(ctx, newDir, to, created, copied); rbErr != nil {
			return &domain.IntegrityError{Op: "rename folder directory", OldPath: from, NewPath: to, Err: errors.Join(pf, rbErr)}
		}
		logger.ErrorContext(ctx, "folder directory rename rolled back", "from", from, "to", to, "failed", len(errs))
		return pf
	}

	if _, err := s.index.Relocate(ctx, from, to); err != nil {
		if rbErr := s.rollbackDir(ctx, newDir, to, created, copied); rbErr != nil {
			return &domain.IntegrityError{Op: "rename folder directory", OldPath: from, NewPath: to, Err: errors.Join(err, rbErr)}
		}
		return fmt.Errorf("failed to relocate metadata from %s to %s: %w", from, to, err)
	}

	if err := s.root.Remove(ctx, from, true); err != nil {
		return &domain.IntegrityError{Op: "rename folder directory", OldPath: from, NewPath: to, Err: err}
	}

	logger.InfoContext(ctx, "renamed folder directory", "from", from, "to", to, "files", len(copied))
	return nil
}

func copyFile(ctx context.Context, f vault.File, dst vault.Dir) error {
	data, _, err := f.Read(ctx)
	if err != nil {
		return err
	}
	return dst.WriteFile(ctx, f.Name(), data)
}

// rollbackDir undoes a partial copy: a directory created for the copy is
// removed whole, a pre-existing one only loses the copied files.
func (s *Store) rollbackDir(ctx context.Context, dir vault.Dir, name string, created bool, copied []string) error {
	if created {
		if err := s.root.Remove(ctx, name, true); err != nil {
			return fmt.Errorf("failed to remove %s: %w", name, err)
		}
		return nil
	}
	var errs []error
	for _, f := range copied {
		if err := dir.Remove(ctx, f, false); err != nil && !errors.Is(err, vault.ErrNotFound) {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// DeleteFolderDirectory moves the note files of a folder directory to the
// root and then removes the directory. If any file cannot be moved the
// directory is kept and a *domain.PartialFailure is returned.
func (s *Store) DeleteFolderDirectory(ctx context.Context, name string) error {
	logger := s.getLogger(ctx)
	dirName := sanitize(name)

	dir, err := s.root.Subdir(ctx, dirName, false)
	if errors.Is(err, vault.ErrNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to open folder directory %s: %w", dirName, err)
	}

	entries, err := dir.Entries(ctx)
	if err != nil {
		return fmt.Errorf("failed to list folder directory %s: %w", dirName, err)
	}

	var (
		moved   int
		foreign int
		errs    []error
	)
	for _, e := range entries {
		if vault.IsHidden(e.Name()) {
			continue
		}
		f, ok := e.(vault.File)
		if !ok || TitleFromFileName(f.Name()) == f.Name() {
			foreign++
			continue
		}
		if err := s.moveToRoot(ctx, dir, dirName, f); err != nil {
			errs = append(errs, fmt.Errorf("move %s: %w", f.Name(), err))
			continue
		}
		moved++
	}
	if len(errs) > 0 {
		logger.ErrorContext(ctx, "folder directory kept, some notes could not be moved", "dir", dirName, "failed", len(errs))
		return &domain.PartialFailure{Op: "delete folder directory", Succeeded: moved, Failed: len(errs), Errs: errs}
	}
	if foreign > 0 {
		logger.InfoContext(ctx, "folder directory kept for non-note entries", "dir", dirName, "moved", moved, "entries", foreign)
		return nil
	}

	if err := s.root.Remove(ctx, dirName, true); err != nil {
		return fmt.Errorf("failed to remove folder directory %s: %w", dirName, err)
	}
	logger.InfoContext(ctx, "deleted folder directory", "dir", dirName, "moved", moved)
	return nil
}

// moveToRoot moves one note file out of a folder directory and unfiles its
// note.
func (s *Store) moveToRoot(ctx context.Context, dir vault.Dir, dirName string, f vault.File) error {
	base := TitleFromFileName(f.Name())
	data, _, err := f.Read(ctx)
	if err != nil {
		return err
	}

	entry, tracked := s.index.LookupByFile(dirName, base)
	target := base
	_, owned := s.index.LookupByFile("", base)
	_, _, statErr := s.root.ReadFile(ctx, base+Ext)
	if owned || statErr == nil {
		id := entry.ID
		if !tracked {
			id = s.newID()
		}
		target = suffixed(base, id)
	}

	if err := s.root.WriteFile(ctx, target+Ext, data); err != nil {
		return err
	}
	if tracked {
		entry.Dir = ""
		entry.File = target
		entry.FolderID = ""
		if err := s.index.Upsert(ctx, entry); err != nil {
			return err
		}
	}
	return dir.Remove(ctx, f.Name(), false)
}

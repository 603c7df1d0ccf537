package backend

import (
	"context"
	"errors"
	"fmt"

	"offnote/internal/domain"
	"offnote/internal/vault"
)

// EnableFileBackendAt resolves desc and enables the file backend on it.
func (s *Selector) EnableFileBackendAt(ctx context.Context, desc vault.Descriptor) (domain.SyncReport, error) {
	if s.resolver == nil {
		return domain.SyncReport{}, fmt.Errorf("%w: no directory resolver", domain.ErrBackendUnavailable)
	}
	handle, err := s.resolver.Resolve(ctx, desc)
	if err != nil {
		return domain.SyncReport{}, fmt.Errorf("failed to resolve directory: %w", err)
	}
	return s.EnableFileBackend(ctx, handle)
}

// EnableFileBackend switches to the file backend rooted at handle. Notes
// already in the directory are copied into the database, database notes are
// written to the directory, and only then are the database notes that are
// known to be on disk removed. If permission is declined the current mode
// is kept and domain.ErrPermissionDenied is returned.
func (s *Selector) EnableFileBackend(ctx context.Context, handle vault.Handle) (domain.SyncReport, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	logger := s.getLogger(ctx)

	var report domain.SyncReport
	if s.fileActive() {
		return report, fmt.Errorf("%w: file backend already enabled on %s", domain.ErrInvalidInput, s.file.RootName())
	}

	perm, err := handle.QueryPermission(ctx)
	if err != nil {
		return report, fmt.Errorf("failed to query permission: %w", err)
	}
	if perm != vault.PermissionGranted {
		if perm, err = handle.RequestPermission(ctx); err != nil {
			return report, fmt.Errorf("failed to request permission: %w", err)
		}
	}
	if perm != vault.PermissionGranted {
		return report, fmt.Errorf("%w: directory %s is %s", domain.ErrPermissionDenied, handle.Name(), perm)
	}

	root, err := handle.Root(ctx)
	if err != nil {
		return report, fmt.Errorf("failed to open directory %s: %w", handle.Name(), err)
	}
	fb, migrated, err := s.opener(ctx, root, s.folders, logger)
	if err != nil {
		return report, fmt.Errorf("failed to open file backend: %w", err)
	}
	report.Migrated = migrated

	if err := s.settings.Set(ctx, domain.SettingDirectoryHandle, handle.Descriptor()); err != nil {
		return report, fmt.Errorf("failed to store directory: %w", err)
	}
	if err := s.settings.Set(ctx, domain.SettingFileSystemEnabled, true); err != nil {
		return report, fmt.Errorf("failed to store backend setting: %w", err)
	}

	s.file = fb
	s.handle = handle
	s.state = domain.StateFileActive
	s.lastErr = ""
	s.metrics.SetFileActive(true)
	s.notify(handle)

	report.Directories = s.mirrorFolders(ctx)

	onDisk, err := s.importFiles(ctx, &report)
	if err != nil {
		// Nothing was exported or cleared, so the database stays authoritative.
		logger.ErrorContext(ctx, "failed to list directory during enable", "error", err)
		s.revertEnable(ctx)
		s.lastErr = err.Error()
		s.metrics.RecordSync(report)
		return report, fmt.Errorf("%w: failed to list directory %s: %w", domain.ErrBackendUnavailable, handle.Name(), err)
	}
	s.exportNotes(ctx, onDisk, &report)
	s.clearExported(ctx, onDisk, &report)

	s.metrics.RecordSync(report)
	logger.InfoContext(ctx, "file backend enabled",
		"directory", handle.Name(),
		"migrated", report.Migrated,
		"imported", report.Imported.Success,
		"exported", report.Exported.Success,
		"cleared", report.Cleared,
		"failed", report.Failed(),
	)
	return report, nil
}

// revertEnable returns to the database backend after an enable that could
// not read the directory.
func (s *Selector) revertEnable(ctx context.Context) {
	logger := s.getLogger(ctx)
	if err := s.settings.Set(ctx, domain.SettingFileSystemEnabled, nil); err != nil {
		logger.ErrorContext(ctx, "failed to clear backend setting", "error", err)
	}
	if err := s.settings.Set(ctx, domain.SettingDirectoryHandle, nil); err != nil {
		logger.ErrorContext(ctx, "failed to clear directory", "error", err)
	}
	s.setStructured()
	s.handle = nil
}

// mirrorFolders creates a directory for every folder and returns how many
// exist afterwards.
func (s *Selector) mirrorFolders(ctx context.Context) int {
	folders, err := s.folders.List(ctx)
	if err != nil {
		s.getLogger(ctx).ErrorContext(ctx, "failed to list folders", "error", err)
		return 0
	}
	n := 0
	for _, f := range folders {
		err := s.onFile("create_folder", func(fb FileBackend) error {
			return fb.CreateFolderDirectory(ctx, f.Name)
		})
		if err != nil {
			s.getLogger(ctx).ErrorContext(ctx, "failed to create folder directory", "folder", f.ID, "error", err)
			continue
		}
		n++
	}
	return n
}

// importFiles copies every note on disk into the database unless the
// database holds a newer copy. It returns the disk notes by id.
func (s *Selector) importFiles(ctx context.Context, report *domain.SyncReport) (map[string]domain.Note, error) {
	var files []domain.Note
	err := s.onFile("list", func(fb FileBackend) error {
		var err error
		files, err = fb.ListAll(ctx)
		return err
	})
	if err != nil {
		return nil, err
	}

	onDisk := make(map[string]domain.Note, len(files))
	for _, n := range files {
		onDisk[n.ID] = n
		stored, err := s.notes.Get(ctx, n.ID)
		if err == nil && !n.UpdatedAt.After(stored.UpdatedAt) {
			continue
		}
		if err != nil && !errors.Is(err, domain.ErrNotFound) {
			report.Imported.Failed++
			s.getLogger(ctx).ErrorContext(ctx, "failed to import note", "note_id", n.ID, "error", err)
			continue
		}
		if err := s.notes.Put(ctx, n); err != nil {
			report.Imported.Failed++
			s.getLogger(ctx).ErrorContext(ctx, "failed to import note", "note_id", n.ID, "error", err)
			continue
		}
		report.Imported.Success++
	}
	return onDisk, nil
}

// exportNotes writes every database note that is missing on disk or newer
// than its file. Written notes are added to onDisk.
func (s *Selector) exportNotes(ctx context.Context, onDisk map[string]domain.Note, report *domain.SyncReport) {
	stored, err := s.notes.ListAll(ctx)
	if err != nil {
		s.getLogger(ctx).ErrorContext(ctx, "failed to list database notes", "error", err)
		return
	}
	for _, n := range stored {
		if f, ok := onDisk[n.ID]; ok && !n.UpdatedAt.After(f.UpdatedAt) {
			continue
		}
		var written domain.Note
		err := s.onFile("export", func(fb FileBackend) error {
			var err error
			written, err = fb.Write(ctx, n)
			return err
		})
		if err != nil {
			report.Exported.Failed++
			s.getLogger(ctx).ErrorContext(ctx, "failed to export note", "note_id", n.ID, "error", err)
			continue
		}
		onDisk[n.ID] = written
		report.Exported.Success++
	}
}

// clearExported removes database notes whose file is known to exist.
func (s *Selector) clearExported(ctx context.Context, onDisk map[string]domain.Note, report *domain.SyncReport) {
	for id := range onDisk {
		if err := s.notes.Delete(ctx, id); err != nil {
			s.getLogger(ctx).ErrorContext(ctx, "failed to clear database note", "note_id", id, "error", err)
			continue
		}
		report.Cleared++
	}
}

// DisableFileBackend switches back to the database. Every note on disk is
// first copied into the database unless the database holds a newer copy;
// copy failures are counted and do not stop the switch. If the directory
// cannot be listed the file backend stays active and an error wrapping
// domain.ErrBackendUnavailable is returned.
func (s *Selector) DisableFileBackend(ctx context.Context) (domain.SyncReport, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	logger := s.getLogger(ctx)

	var report domain.SyncReport
	if s.fileActive() {
		var files []domain.Note
		err := s.onFile("list", func(fb FileBackend) error {
			var err error
			files, err = fb.ListAll(ctx)
			return err
		})
		if err != nil {
			logger.ErrorContext(ctx, "failed to read directory for backup", "error", err)
			s.lastErr = err.Error()
			return report, fmt.Errorf("%w: failed to read directory for backup: %w", domain.ErrBackendUnavailable, err)
		}
		for _, n := range files {
			stored, err := s.notes.Get(ctx, n.ID)
			if err == nil && stored.UpdatedAt.After(n.UpdatedAt) {
				continue
			}
			if err := s.notes.Put(ctx, n); err != nil {
				report.BackedUp.Failed++
				logger.ErrorContext(ctx, "failed to back up note", "note_id", n.ID, "error", err)
				continue
			}
			report.BackedUp.Success++
		}
	}

	if err := s.settings.Set(ctx, domain.SettingFileSystemEnabled, nil); err != nil {
		return report, fmt.Errorf("failed to clear backend setting: %w", err)
	}
	if err := s.settings.Set(ctx, domain.SettingDirectoryHandle, nil); err != nil {
		return report, fmt.Errorf("failed to clear directory: %w", err)
	}

	s.setStructured()
	s.handle = nil
	s.lastErr = ""
	s.metrics.RecordSync(report)
	logger.InfoContext(ctx, "file backend disabled", "backed_up", report.BackedUp.Success, "failed", report.BackedUp.Failed)
	return report, nil
}

// Sync writes notes left in the database by fallback writes to the
// directory and prunes index entries whose files are gone. It does nothing
// while the database backend is active.
func (s *Selector) Sync(ctx context.Context) (domain.SyncReport, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var report domain.SyncReport
	if !s.fileActive() {
		return report, nil
	}

	stored, err := s.notes.ListAll(ctx)
	if err != nil {
		return report, fmt.Errorf("failed to list database notes: %w", err)
	}
	flushed := make(map[string]domain.Note, len(stored))
	for _, n := range stored {
		err := s.onFile("export", func(fb FileBackend) error {
			_, err := fb.Write(ctx, n)
			return err
		})
		if err != nil {
			report.Exported.Failed++
			s.getLogger(ctx).ErrorContext(ctx, "failed to flush note", "note_id", n.ID, "error", err)
			continue
		}
		flushed[n.ID] = n
		report.Exported.Success++
	}
	s.clearExported(ctx, flushed, &report)

	err = s.onFile("prune", func(fb FileBackend) error {
		var err error
		report.Pruned, err = fb.Prune(ctx)
		return err
	})
	if err != nil {
		s.getLogger(ctx).WarnContext(ctx, "failed to prune metadata index", "error", err)
	}

	s.metrics.RecordSync(report)
	if report.Exported.Failed > 0 {
		s.getLogger(ctx).WarnContext(ctx, "sync finished with failures", "exported", report.Exported.Success, "failed", report.Exported.Failed)
		return report, &domain.PartialFailure{Op: "sync", Succeeded: report.Exported.Success, Failed: report.Exported.Failed}
	}
	s.getLogger(ctx).DebugContext(ctx, "sync finished", "exported", report.Exported.Success, "pruned", report.Pruned)
	return report, nil
}

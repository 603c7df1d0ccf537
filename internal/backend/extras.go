package backend

import (
	"context"
	"encoding/json"
	"fmt"
	"path"

	"offnote/internal/domain"
	"offnote/internal/fsstore"
)

// DefaultHistoryLimit is used when a history listing asks for no limit.
const DefaultHistoryLimit = 20

// RecordHistory stores a snapshot of a note.
func (s *Selector) RecordHistory(ctx context.Context, note domain.Note) (domain.HistoryEntry, error) {
	return s.history.Append(ctx, note.ID, note.Title, note.Content)
}

// ListHistory returns the newest snapshots of a note first.
func (s *Selector) ListHistory(ctx context.Context, noteID string, limit int) ([]domain.HistoryEntry, error) {
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}
	return s.history.List(ctx, noteID, limit)
}

// DeleteHistoryEntry removes one snapshot.
func (s *Selector) DeleteHistoryEntry(ctx context.Context, id string) error {
	return s.history.Delete(ctx, id)
}

// ClearHistory removes every snapshot of a note.
func (s *Selector) ClearHistory(ctx context.Context, noteID string) error {
	return s.history.DeleteByNote(ctx, noteID)
}

// CleanupHistory trims every note to its newest keep snapshots.
func (s *Selector) CleanupHistory(ctx context.Context, keep int) (int, error) {
	return s.history.Cleanup(ctx, keep)
}

// reserved settings are owned by the backend switch.
var reserved = map[string]bool{
	domain.SettingFileSystemEnabled: true,
	domain.SettingDirectoryHandle:   true,
}

// GetSetting decodes the setting key into dst and reports whether it was set.
func (s *Selector) GetSetting(ctx context.Context, key string, dst any) (bool, error) {
	return s.settings.Get(ctx, key, dst)
}

// SetSetting stores value under key. A nil value clears the key. The
// backend mode keys can only be changed by enabling or disabling the file
// backend.
func (s *Selector) SetSetting(ctx context.Context, key string, value any) error {
	if key == "" {
		return &domain.ValidationError{Field: "key", Message: "cannot be empty"}
	}
	if reserved[key] {
		return &domain.ValidationError{Field: "key", Message: fmt.Sprintf("%s is managed by the backend switch", key)}
	}
	return s.settings.Set(ctx, key, value)
}

// Settings returns every stored setting.
func (s *Selector) Settings(ctx context.Context) (map[string]json.RawMessage, error) {
	return s.settings.All(ctx)
}

// TextFile is a plain text document to import as a note.
type TextFile struct {
	Name    string
	Content string
}

// ImportText creates a note per file, titled after the file name without
// its extension. Every file is attempted; failures are counted.
func (s *Selector) ImportText(ctx context.Context, files []TextFile, folderID string) (domain.Counts, error) {
	var (
		counts domain.Counts
		errs   []error
	)
	for _, f := range files {
		title := fsstore.TitleFromFileName(path.Base(f.Name))
		_, err := s.CreateNote(ctx, title, f.Content, folderID)
		if err != nil && !domain.IsDegraded(err) {
			counts.Failed++
			errs = append(errs, fmt.Errorf("import %s: %w", f.Name, err))
			s.getLogger(ctx).ErrorContext(ctx, "failed to import file", "file", f.Name, "error", err)
			continue
		}
		counts.Success++
	}
	s.getLogger(ctx).InfoContext(ctx, "imported text files", "imported", counts.Success, "failed", counts.Failed)
	if counts.Failed > 0 {
		return counts, &domain.PartialFailure{Op: "import", Succeeded: counts.Success, Failed: counts.Failed, Errs: errs}
	}
	return counts, nil
}

// ExportNote returns the file name and body a note is exported as.
func (s *Selector) ExportNote(ctx context.Context, id string) (string, []byte, error) {
	note, err := s.GetNote(ctx, id)
	if err != nil {
		return "", nil, err
	}
	return fsstore.FileNameFor(note.Title), []byte(note.Content), nil
}

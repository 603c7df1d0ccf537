package backend

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"

	"offnote/internal/domain"
	"offnote/internal/storage"
)

// CreateNote creates a note with a fresh id. An empty title becomes
// domain.DefaultTitle. folderID must name an existing folder or be empty.
func (s *Selector) CreateNote(ctx context.Context, title, content, folderID string) (domain.Note, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if folderID != "" {
		if _, err := s.folders.Get(ctx, folderID); err != nil {
			return domain.Note{}, fmt.Errorf("failed to resolve folder %s: %w", folderID, err)
		}
	}
	now := s.now()
	note := domain.Note{
		ID:        s.newID(),
		Title:     title,
		Content:   content,
		CreatedAt: now,
		Tags:      []string{},
		FolderID:  folderID,
	}
	return s.save(ctx, "create", note)
}

// SaveNote stores note on the active backend. When the file backend fails
// the note is stored in the database and a *domain.FallbackError is
// returned together with the stored note.
func (s *Selector) SaveNote(ctx context.Context, note domain.Note) (domain.Note, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.save(ctx, "save", note)
}

// save must be called with the lock held.
func (s *Selector) save(ctx context.Context, op string, note domain.Note) (domain.Note, error) {
	if note.ID == "" {
		return domain.Note{}, &domain.ValidationError{Field: "id", Message: "cannot be empty"}
	}
	if strings.TrimSpace(note.Title) == "" {
		note.Title = domain.DefaultTitle
	}
	if note.Tags == nil {
		note.Tags = []string{}
	}
	now := s.now()
	if note.CreatedAt.IsZero() {
		note.CreatedAt = now
	}
	note.UpdatedAt = now

	if s.fileActive() {
		var written domain.Note
		err := s.onFile(op, func(fb FileBackend) error {
			var err error
			written, err = fb.Write(ctx, note)
			return err
		})
		if err == nil {
			// A copy left by an earlier fallback write is now superseded.
			s.dropStaleCopy(ctx, note.ID)
			return written, nil
		}
		if errors.Is(err, domain.ErrInvalidInput) {
			return domain.Note{}, err
		}
		s.fellBack(ctx, op, err)
		if perr := s.notes.Put(ctx, note); perr != nil {
			s.metrics.RecordOperation("structured", op, perr)
			return domain.Note{}, fmt.Errorf("failed to save note %s after file backend error %v: %w", note.ID, err, perr)
		}
		s.metrics.RecordOperation("structured", op, nil)
		return note, &domain.FallbackError{Op: op, Err: err}
	}

	err := s.notes.Put(ctx, note)
	s.metrics.RecordOperation("structured", op, err)
	if err != nil {
		return domain.Note{}, fmt.Errorf("failed to save note %s: %w", note.ID, err)
	}
	return note, nil
}

func (s *Selector) dropStaleCopy(ctx context.Context, id string) {
	if _, err := s.notes.Get(ctx, id); err != nil {
		return
	}
	if err := s.notes.Delete(ctx, id); err != nil {
		s.getLogger(ctx).WarnContext(ctx, "failed to drop database copy of file note", "note_id", id, "error", err)
	}
}

// GetNote returns the note with id, including soft-deleted notes. In file
// mode a miss or failure on disk is retried against the database.
func (s *Selector) GetNote(ctx context.Context, id string) (domain.Note, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.get(ctx, id)
}

func (s *Selector) get(ctx context.Context, id string) (domain.Note, error) {
	if s.fileActive() {
		var note domain.Note
		err := s.onFile("get", func(fb FileBackend) error {
			var err error
			note, err = fb.Read(ctx, id)
			return err
		})
		if err == nil {
			return note, nil
		}
		if !errors.Is(err, domain.ErrNotFound) {
			s.fellBack(ctx, "get", err)
		}
	}

	note, err := s.notes.Get(ctx, id)
	s.metrics.RecordOperation("structured", "get", err)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.Note{}, fmt.Errorf("note %s: %w", id, domain.ErrNotFound)
		}
		return domain.Note{}, fmt.Errorf("failed to get note %s: %w", id, err)
	}
	return note, nil
}

// all returns every note including soft-deleted ones. In file mode notes
// only present in the database (left there by fallback writes) are merged
// in after the files.
func (s *Selector) all(ctx context.Context) ([]domain.Note, error) {
	if !s.fileActive() {
		notes, err := s.notes.ListAll(ctx)
		s.metrics.RecordOperation("structured", "list", err)
		return notes, err
	}

	var files []domain.Note
	err := s.onFile("list", func(fb FileBackend) error {
		var err error
		files, err = fb.ListAll(ctx)
		return err
	})
	stored, serr := s.notes.ListAll(ctx)
	s.metrics.RecordOperation("structured", "list", serr)
	if err != nil {
		s.fellBack(ctx, "list", err)
		if serr != nil {
			return nil, fmt.Errorf("failed to list notes: %w", errors.Join(err, serr))
		}
		return stored, nil
	}
	if serr != nil {
		s.getLogger(ctx).WarnContext(ctx, "failed to list database notes", "error", serr)
		return files, nil
	}

	onDisk := make(map[string]bool, len(files))
	for _, n := range files {
		onDisk[n.ID] = true
	}
	for _, n := range stored {
		if !onDisk[n.ID] {
			files = append(files, n)
		}
	}
	return files, nil
}

func (s *Selector) filtered(ctx context.Context, keep func(domain.Note) bool) ([]domain.Note, error) {
	notes, err := s.all(ctx)
	if err != nil {
		return nil, err
	}
	return slices.DeleteFunc(notes, func(n domain.Note) bool { return !keep(n) }), nil
}

func live(n domain.Note) bool { return !n.IsDeleted }

func byUpdatedDesc(a, b domain.Note) int {
	return b.UpdatedAt.Compare(a.UpdatedAt)
}

// ListNotes returns non-deleted notes in the requested order.
func (s *Selector) ListNotes(ctx context.Context, opts domain.ListOptions) ([]domain.Note, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.fileActive() {
		return s.notes.List(ctx, opts)
	}
	notes, err := s.filtered(ctx, live)
	if err != nil {
		return nil, err
	}
	s.sorter.Sort(notes, opts)
	return notes, nil
}

// ListAllNotes returns every note, soft-deleted ones included.
func (s *Selector) ListAllNotes(ctx context.Context) ([]domain.Note, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.all(ctx)
}

// ListDeleted returns the trash, most recently deleted first.
func (s *Selector) ListDeleted(ctx context.Context) ([]domain.Note, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.fileActive() {
		return s.notes.ListDeleted(ctx)
	}
	notes, err := s.filtered(ctx, func(n domain.Note) bool { return n.IsDeleted })
	if err != nil {
		return nil, err
	}
	slices.SortStableFunc(notes, func(a, b domain.Note) int {
		return cmp.Compare(deletedUnix(b), deletedUnix(a))
	})
	return notes, nil
}

func deletedUnix(n domain.Note) int64 {
	if n.DeletedAt == nil {
		return 0
	}
	return n.DeletedAt.UnixNano()
}

// ListFavorites returns non-deleted favorites, most recently updated first.
func (s *Selector) ListFavorites(ctx context.Context) ([]domain.Note, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.fileActive() {
		return s.notes.ListFavorites(ctx)
	}
	notes, err := s.filtered(ctx, func(n domain.Note) bool { return live(n) && n.IsFavorite })
	if err != nil {
		return nil, err
	}
	slices.SortStableFunc(notes, byUpdatedDesc)
	return notes, nil
}

// ListByFolder returns non-deleted notes in folderID.
func (s *Selector) ListByFolder(ctx context.Context, folderID string) ([]domain.Note, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.fileActive() {
		return s.notes.ListByFolder(ctx, folderID)
	}
	notes, err := s.filtered(ctx, func(n domain.Note) bool { return live(n) && n.FolderID == folderID })
	if err != nil {
		return nil, err
	}
	slices.SortStableFunc(notes, byUpdatedDesc)
	return notes, nil
}

// ListByTag returns non-deleted notes carrying tag, most recently updated first.
func (s *Selector) ListByTag(ctx context.Context, tag string) ([]domain.Note, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	notes, err := s.filtered(ctx, func(n domain.Note) bool { return live(n) && n.HasTag(tag) })
	if err != nil {
		return nil, err
	}
	slices.SortStableFunc(notes, byUpdatedDesc)
	return notes, nil
}

// DeleteNote moves a note to the trash. Deleting a note already in the
// trash leaves it unchanged.
func (s *Selector) DeleteNote(ctx context.Context, id string) (domain.Note, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	note, err := s.get(ctx, id)
	if err != nil {
		return domain.Note{}, err
	}
	if note.IsDeleted {
		return note, nil
	}
	now := s.now()
	note.IsDeleted = true
	note.DeletedAt = &now
	return s.save(ctx, "delete", note)
}

// RestoreNote takes a note out of the trash. Restoring a note that is not
// deleted is a no-op.
func (s *Selector) RestoreNote(ctx context.Context, id string) (domain.Note, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	note, err := s.get(ctx, id)
	if err != nil {
		return domain.Note{}, err
	}
	if !note.IsDeleted {
		return note, nil
	}
	note.IsDeleted = false
	note.DeletedAt = nil
	return s.save(ctx, "restore", note)
}

// PermanentlyDeleteNote removes a note and its history from every backend.
// A missing note is not an error.
func (s *Selector) PermanentlyDeleteNote(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	logger := s.getLogger(ctx)

	note, err := s.get(ctx, id)
	if errors.Is(err, domain.ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}

	var fileErr error
	if s.fileActive() {
		fileErr = s.onFile("purge", func(fb FileBackend) error {
			return fb.Delete(ctx, note, false)
		})
		if fileErr != nil {
			logger.ErrorContext(ctx, "failed to delete note file", "note_id", id, "error", fileErr)
		}
	}

	err = s.notes.Delete(ctx, id)
	s.metrics.RecordOperation("structured", "purge", err)
	if err != nil {
		return fmt.Errorf("failed to delete note %s: %w", id, err)
	}
	if err := s.history.DeleteByNote(ctx, id); err != nil {
		logger.WarnContext(ctx, "failed to delete note history", "note_id", id, "error", err)
	}
	if fileErr != nil {
		return fmt.Errorf("failed to delete file of note %s: %w", id, fileErr)
	}
	return nil
}

// EmptyTrash permanently deletes every note in the trash. Items that fail
// are counted and the pass continues.
func (s *Selector) EmptyTrash(ctx context.Context) (domain.Counts, error) {
	trash, err := s.ListDeleted(ctx)
	if err != nil {
		return domain.Counts{}, err
	}
	var (
		counts domain.Counts
		errs   []error
	)
	for _, n := range trash {
		if err := s.PermanentlyDeleteNote(ctx, n.ID); err != nil {
			counts.Failed++
			errs = append(errs, err)
			continue
		}
		counts.Success++
	}
	if counts.Failed > 0 {
		return counts, &domain.PartialFailure{Op: "empty trash", Succeeded: counts.Success, Failed: counts.Failed, Errs: errs}
	}
	return counts, nil
}

// MoveNote assigns a note to folderID, or unfiles it when folderID is
// empty. In file mode the file moves to the folder's directory and the
// old file is removed; the note's other attributes are kept.
func (s *Selector) MoveNote(ctx context.Context, id, folderID string) (domain.Note, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	note, err := s.get(ctx, id)
	if err != nil {
		return domain.Note{}, err
	}
	if note.FolderID == folderID {
		return note, nil
	}
	if folderID != "" {
		if _, err := s.folders.Get(ctx, folderID); err != nil {
			return domain.Note{}, fmt.Errorf("failed to resolve folder %s: %w", folderID, err)
		}
	}
	note.FolderID = folderID
	return s.save(ctx, "move", note)
}

// ToggleFavorite flips the favorite flag of a note.
func (s *Selector) ToggleFavorite(ctx context.Context, id string) (domain.Note, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	note, err := s.get(ctx, id)
	if err != nil {
		return domain.Note{}, err
	}
	note.IsFavorite = !note.IsFavorite
	return s.save(ctx, "favorite", note)
}

// AddTag adds tag to a note. Adding a tag the note already has is a no-op.
func (s *Selector) AddTag(ctx context.Context, id, tag string) (domain.Note, error) {
	tag = strings.TrimSpace(tag)
	if tag == "" {
		return domain.Note{}, &domain.ValidationError{Field: "tag", Message: "cannot be empty"}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	note, err := s.get(ctx, id)
	if err != nil {
		return domain.Note{}, err
	}
	if note.HasTag(tag) {
		return note, nil
	}
	note.Tags = append(slices.Clone(note.Tags), tag)
	return s.save(ctx, "tag", note)
}

// RemoveTag removes tag from a note.
func (s *Selector) RemoveTag(ctx context.Context, id, tag string) (domain.Note, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	note, err := s.get(ctx, id)
	if err != nil {
		return domain.Note{}, err
	}
	if !note.HasTag(tag) {
		return note, nil
	}
	note.Tags = slices.DeleteFunc(slices.Clone(note.Tags), func(t string) bool { return t == tag })
	return s.save(ctx, "untag", note)
}

// ListTags counts tags over non-deleted notes, most frequent first.
func (s *Selector) ListTags(ctx context.Context) ([]domain.TagCount, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	notes, err := s.filtered(ctx, live)
	if err != nil {
		return nil, err
	}
	return storage.CountTags(notes), nil
}

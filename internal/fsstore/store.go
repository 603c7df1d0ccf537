// Package fsstore adapts a granted directory tree into notes and folders.
// Each note is a plain text file; attributes a file cannot carry live in the
// metadata index.
package fsstore

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"offnote/internal/contextutil"
	"offnote/internal/domain"
	"offnote/internal/metaindex"
	"offnote/internal/vault"
)

// Ext is the extension of note files.
const Ext = ".txt"

// FolderResolver is the folder catalogue the file tree is mapped onto.
type FolderResolver interface {
	Get(ctx context.Context, id string) (domain.Folder, error)
	List(ctx context.Context) ([]domain.Folder, error)
	Create(ctx context.Context, name, parentID, color string) (domain.Folder, error)
}

// Store is the file-backed note store. It is not safe for concurrent
// mutation; callers serialize writes.
type Store struct {
	root    vault.Dir
	index   *metaindex.Index
	folders FolderResolver
	newID   func() string
	logger  *slog.Logger
}

// Option configures a Store.
type Option func(*Store)

// WithLogger sets the logger used when no logger is carried by the context.
func WithLogger(l *slog.Logger) Option {
	return func(s *Store) { s.logger = l }
}

// WithIDGenerator replaces the id generator for notes discovered on disk.
func WithIDGenerator(fn func() string) Option {
	return func(s *Store) { s.newID = fn }
}

// New creates a Store over root using an already loaded index.
func New(root vault.Dir, index *metaindex.Index, folders FolderResolver, opts ...Option) *Store {
	s := &Store{
		root:    root,
		index:   index,
		folders: folders,
		newID:   func() string { return uuid.New().String() },
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Open prepares root for use: it creates the reserved directory, loads the
// metadata index and folds in legacy sidecar documents. It returns the
// store and the number of migrated sidecar entries.
func Open(ctx context.Context, root vault.Dir, folders FolderResolver, opts ...Option) (*Store, int, error) {
	s := New(root, nil, folders, opts...)
	s.index = metaindex.New(root, metaindex.WithLogger(s.logger), metaindex.WithSanitizer(sanitize))

	if err := s.index.EnsureDir(ctx); err != nil {
		return nil, 0, err
	}
	if err := s.index.Load(ctx); err != nil {
		return nil, 0, err
	}
	migrated, err := s.index.MigrateLegacyEntries(ctx)
	if err != nil {
		return nil, 0, err
	}
	return s, migrated, nil
}

// Index exposes the metadata index.
func (s *Store) Index() *metaindex.Index { return s.index }

// RootName is the display name of the granted directory.
func (s *Store) RootName() string { return s.root.Name() }

func (s *Store) getLogger(ctx context.Context) *slog.Logger {
	return contextutil.LoggerFromContextOr(ctx, s.logger)
}

func sanitize(title string) string {
	return vault.SanitizeName(title, domain.DefaultTitle)
}

// FileNameFor returns the file name a note with title is exported as.
func FileNameFor(title string) string {
	return sanitize(title) + Ext
}

// TitleFromFileName strips the note extension from name.
func TitleFromFileName(name string) string {
	return strings.TrimSuffix(name, Ext)
}

// Write stores note as a file and records its attributes. The note lands in
// the directory of its folder, or in the root when that directory cannot be
// resolved. A file of the same name owned by another note is not
// overwritten; the new file gets a suffix derived from the note id. The
// returned note carries the file's modification time as UpdatedAt.
func (s *Store) Write(ctx context.Context, note domain.Note) (domain.Note, error) {
	logger := s.getLogger(ctx)
	if note.ID == "" {
		return domain.Note{}, &domain.ValidationError{Field: "id", Message: "cannot be empty"}
	}
	if note.Title == "" {
		note.Title = domain.DefaultTitle
	}

	dir, dirName := s.targetDir(ctx, note.FolderID)
	prev, hadPrev := s.index.Get(note.ID)

	base, err := s.claimName(ctx, dir, dirName, note)
	if err != nil {
		return domain.Note{}, err
	}

	if err := dir.WriteFile(ctx, base+Ext, []byte(note.Content)); err != nil {
		return domain.Note{}, fmt.Errorf("failed to write note %s: %w", note.ID, err)
	}

	if hadPrev && (prev.Dir != dirName || s.index.FileName(prev) != base) {
		s.removeFile(ctx, prev.Dir, s.index.FileName(prev)+Ext)
	}

	if err := s.index.Upsert(ctx, metaindex.FromNote(note, dirName, base)); err != nil {
		return domain.Note{}, fmt.Errorf("failed to record metadata for note %s: %w", note.ID, err)
	}

	_, modTime, err := dir.ReadFile(ctx, base+Ext)
	if err != nil {
		return domain.Note{}, fmt.Errorf("failed to stat note %s: %w", note.ID, err)
	}
	note.UpdatedAt = modTime

	logger.DebugContext(ctx, "wrote note file", "note_id", note.ID, "dir", dirName, "file", base+Ext)
	return note, nil
}

// targetDir resolves the directory for folderID. Any resolution failure
// falls back to the root.
func (s *Store) targetDir(ctx context.Context, folderID string) (vault.Dir, string) {
	if folderID == "" {
		return s.root, ""
	}
	folder, err := s.folders.Get(ctx, folderID)
	if err != nil {
		s.getLogger(ctx).WarnContext(ctx, "folder not resolvable, writing to root", "folder", folderID, "error", err)
		return s.root, ""
	}
	name := sanitize(folder.Name)
	dir, err := s.root.Subdir(ctx, name, true)
	if err != nil {
		s.getLogger(ctx).WarnContext(ctx, "folder directory not available, writing to root", "folder", folderID, "dir", name, "error", err)
		return s.root, ""
	}
	return dir, name
}

// claimName picks the base name for note in dir.
func (s *Store) claimName(ctx context.Context, dir vault.Dir, dirName string, note domain.Note) (string, error) {
	base := sanitize(note.Title)
	if owner, ok := s.index.LookupByFile(dirName, base); ok {
		if owner.ID == note.ID {
			return base, nil
		}
		return suffixed(base, note.ID), nil
	}

	// An untracked file of the same name is left alone unless the index
	// records it as this note's own file.
	_, _, err := dir.ReadFile(ctx, base+Ext)
	switch {
	case errors.Is(err, vault.ErrNotFound):
		return base, nil
	case err != nil:
		return "", fmt.Errorf("failed to check %s: %w", base+Ext, err)
	}
	if own, ok := s.index.Get(note.ID); ok && own.Dir == dirName && s.index.FileName(own) == base {
		return base, nil
	}
	return suffixed(base, note.ID), nil
}

func suffixed(base, id string) string {
	short := id
	if len(short) > 8 {
		short = short[:8]
	}
	return base + "_" + short
}

func (s *Store) removeFile(ctx context.Context, dirName, name string) {
	dir := s.root
	if dirName != "" {
		d, err := s.root.Subdir(ctx, dirName, false)
		if err != nil {
			return
		}
		dir = d
	}
	if err := dir.Remove(ctx, name, false); err != nil && !errors.Is(err, vault.ErrNotFound) {
		s.getLogger(ctx).WarnContext(ctx, "failed to remove previous note file", "dir", dirName, "file", name, "error", err)
	}
}

// Delete removes the file of note. With keepMetadata the index entry
// survives, which lets a move delete the old file before writing the new
// one. A note without a file on disk is not an error.
func (s *Store) Delete(ctx context.Context, note domain.Note, keepMetadata bool) error {
	dirName, base := s.locate(ctx, note)

	dir := s.root
	if dirName != "" {
		d, err := s.root.Subdir(ctx, dirName, false)
		switch {
		case errors.Is(err, vault.ErrNotFound):
			dir = nil
		case err != nil:
			return fmt.Errorf("failed to open directory %s: %w", dirName, err)
		default:
			dir = d
		}
	}
	if dir != nil {
		if err := dir.Remove(ctx, base+Ext, false); err != nil && !errors.Is(err, vault.ErrNotFound) {
			return fmt.Errorf("failed to delete note %s: %w", note.ID, err)
		}
	}

	if !keepMetadata {
		if err := s.index.Remove(ctx, note.ID); err != nil {
			return fmt.Errorf("failed to remove metadata for note %s: %w", note.ID, err)
		}
	}
	s.getLogger(ctx).DebugContext(ctx, "deleted note file", "note_id", note.ID, "dir", dirName, "keep_metadata", keepMetadata)
	return nil
}

// locate returns where note's file lives: the recorded location if the
// index has one, otherwise where Write would put it.
func (s *Store) locate(ctx context.Context, note domain.Note) (string, string) {
	if e, ok := s.index.Get(note.ID); ok {
		return e.Dir, s.index.FileName(e)
	}
	dirName := ""
	if note.FolderID != "" {
		if folder, err := s.folders.Get(ctx, note.FolderID); err == nil {
			dirName = sanitize(folder.Name)
		}
	}
	return dirName, sanitize(note.Title)
}

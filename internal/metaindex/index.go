// Package metaindex keeps the attributes of file-backed notes that a plain
// text file cannot carry. The whole index is one JSON document under the
// reserved directory of the granted tree.
package metaindex

import (
	"cmp"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"slices"
	"sync"
	"time"

	"offnote/internal/contextutil"
	"offnote/internal/domain"
	"offnote/internal/vault"
)

const (
	// DirName is the reserved directory at the tree root.
	DirName = ".offnote"
	// FileName is the index document inside DirName.
	FileName = "metadata.json"
)

// Entry is the stored metadata of one note.
type Entry struct {
	ID         string     `json:"id"`
	Title      string     `json:"title"`
	Dir        string     `json:"dir,omitempty"`  // directory holding the file, empty for the root
	File       string     `json:"file,omitempty"` // base name on disk, without extension
	IsFavorite bool       `json:"isFavorite"`
	FolderID   string     `json:"folderId,omitempty"`
	Tags       []string   `json:"tags"`
	CreatedAt  time.Time  `json:"createdAt"`
	DeletedAt  *time.Time `json:"deletedAt,omitempty"`
}

// FromNote builds the entry for note stored as file in dir.
func FromNote(note domain.Note, dir, file string) Entry {
	tags := note.Tags
	if tags == nil {
		tags = []string{}
	}
	return Entry{
		ID:         note.ID,
		Title:      note.Title,
		Dir:        dir,
		File:       file,
		IsFavorite: note.IsFavorite,
		FolderID:   note.FolderID,
		Tags:       slices.Clone(tags),
		CreatedAt:  note.CreatedAt,
		DeletedAt:  note.DeletedAt,
	}
}

type location struct {
	dir  string
	file string
}

// Index is the in-memory copy of the index document plus reverse lookup
// tables. It is safe for concurrent use; every mutation rewrites the whole
// document.
type Index struct {
	mu         sync.Mutex
	root       vault.Dir
	entries    map[string]Entry
	byLocation map[location]string
	byTitle    map[string][]string
	sanitize   func(title string) string
	logger     *slog.Logger
}

// Option configures an Index.
type Option func(*Index)

// WithLogger sets the logger used when no logger is carried by the context.
func WithLogger(l *slog.Logger) Option {
	return func(ix *Index) { ix.logger = l }
}

// WithSanitizer sets the title-to-filename mapping used for entries that
// predate the recorded file name.
func WithSanitizer(fn func(string) string) Option {
	return func(ix *Index) { ix.sanitize = fn }
}

// New creates an empty index over the tree at root. Call Load to read the
// persisted document.
func New(root vault.Dir, opts ...Option) *Index {
	ix := &Index{
		root:    root,
		entries: make(map[string]Entry),
		sanitize: func(title string) string {
			return vault.SanitizeName(title, domain.DefaultTitle)
		},
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(ix)
	}
	ix.rebuild()
	return ix
}

func (ix *Index) getLogger(ctx context.Context) *slog.Logger {
	return contextutil.LoggerFromContextOr(ctx, ix.logger)
}

// EnsureDir creates the reserved directory if it does not exist.
func (ix *Index) EnsureDir(ctx context.Context) error {
	if _, err := ix.root.Subdir(ctx, DirName, true); err != nil {
		return fmt.Errorf("failed to create %s: %w", DirName, err)
	}
	return nil
}

// Load replaces the in-memory index with the persisted document. A missing
// or corrupt document yields an empty index; only context cancellation is
// returned as an error.
func (ix *Index) Load(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	logger := ix.getLogger(ctx)

	entries := make(map[string]Entry)
	data, err := ix.readDocument(ctx)
	switch {
	case errors.Is(err, vault.ErrNotFound):
		logger.DebugContext(ctx, "no metadata index, starting empty")
	case err != nil:
		logger.WarnContext(ctx, "failed to read metadata index, starting empty", "error", err)
	default:
		if err := json.Unmarshal(data, &entries); err != nil {
			logger.WarnContext(ctx, "corrupt metadata index, starting empty", "error", err)
			entries = make(map[string]Entry)
		}
	}

	ix.mu.Lock()
	defer ix.mu.Unlock()
	ix.entries = normalize(entries)
	ix.rebuild()
	logger.InfoContext(ctx, "loaded metadata index", "entries", len(ix.entries))
	return nil
}

func (ix *Index) readDocument(ctx context.Context) ([]byte, error) {
	dir, err := ix.root.Subdir(ctx, DirName, false)
	if err != nil {
		return nil, err
	}
	data, _, err := dir.ReadFile(ctx, FileName)
	return data, err
}

// normalize keys entries by map key and fills defaults missing from older
// documents.
func normalize(in map[string]Entry) map[string]Entry {
	out := make(map[string]Entry, len(in))
	for id, e := range in {
		if id == "" {
			continue
		}
		e.ID = id
		if e.Tags == nil {
			e.Tags = []string{}
		}
		out[id] = e
	}
	return out
}

// Save writes the whole index document.
func (ix *Index) Save(ctx context.Context) error {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	return ix.saveLocked(ctx)
}

func (ix *Index) saveLocked(ctx context.Context) error {
	data, err := json.MarshalIndent(ix.entries, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode metadata index: %w", err)
	}
	dir, err := ix.root.Subdir(ctx, DirName, true)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", DirName, err)
	}
	if err := dir.WriteFile(ctx, FileName, data); err != nil {
		return fmt.Errorf("failed to write metadata index: %w", err)
	}
	ix.getLogger(ctx).DebugContext(ctx, "saved metadata index", "entries", len(ix.entries))
	return nil
}

// mutate applies fn and saves. On a failed save the in-memory state is
// restored so it keeps matching the document on disk.
func (ix *Index) mutate(ctx context.Context, fn func(entries map[string]Entry) bool) error {
	ix.mu.Lock()
	defer ix.mu.Unlock()

	prev := maps.Clone(ix.entries)
	if !fn(ix.entries) {
		return nil
	}
	ix.rebuild()
	if err := ix.saveLocked(ctx); err != nil {
		ix.entries = prev
		ix.rebuild()
		return err
	}
	return nil
}

// Upsert inserts or replaces the entry for e.ID and saves.
func (ix *Index) Upsert(ctx context.Context, e Entry) error {
	if e.ID == "" {
		return &domain.ValidationError{Field: "id", Message: "cannot be empty"}
	}
	return ix.UpsertMany(ctx, []Entry{e})
}

// UpsertMany inserts or replaces several entries with a single save.
func (ix *Index) UpsertMany(ctx context.Context, es []Entry) error {
	return ix.mutate(ctx, func(entries map[string]Entry) bool {
		changed := false
		for _, e := range es {
			if e.ID == "" {
				continue
			}
			if e.Tags == nil {
				e.Tags = []string{}
			}
			entries[e.ID] = e
			changed = true
		}
		return changed
	})
}

// Remove deletes the entry for id and saves. Removing an absent entry is a
// no-op.
func (ix *Index) Remove(ctx context.Context, id string) error {
	return ix.mutate(ctx, func(entries map[string]Entry) bool {
		if _, ok := entries[id]; !ok {
			return false
		}
		delete(entries, id)
		return true
	})
}

// Prune drops entries whose id is not in live and saves once. It returns
// the number of entries removed.
func (ix *Index) Prune(ctx context.Context, live map[string]bool) (int, error) {
	removed := 0
	err := ix.mutate(ctx, func(entries map[string]Entry) bool {
		for id := range entries {
			if !live[id] {
				delete(entries, id)
				removed++
			}
		}
		return removed > 0
	})
	if err != nil {
		return 0, err
	}
	if removed > 0 {
		ix.getLogger(ctx).InfoContext(ctx, "pruned metadata index", "removed", removed)
	}
	return removed, nil
}

// Relocate moves every entry recorded in directory from to directory to
// and saves. It returns the number of entries moved.
func (ix *Index) Relocate(ctx context.Context, from, to string) (int, error) {
	moved := 0
	err := ix.mutate(ctx, func(entries map[string]Entry) bool {
		for id, e := range entries {
			if e.Dir == from {
				e.Dir = to
				entries[id] = e
				moved++
			}
		}
		return moved > 0
	})
	if err != nil {
		return 0, err
	}
	return moved, nil
}

// Get returns the entry for id.
func (ix *Index) Get(id string) (Entry, bool) {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	e, ok := ix.entries[id]
	return e, ok
}

// LookupByFile returns the entry recorded for the file base name in dir
// (empty for the root).
func (ix *Index) LookupByFile(dir, file string) (Entry, bool) {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	id, ok := ix.byLocation[location{dir: dir, file: file}]
	if !ok {
		return Entry{}, false
	}
	return ix.entries[id], true
}

// LookupByTitle returns the first entry with the given title. Entries with
// equal titles are ordered by creation time, then id.
func (ix *Index) LookupByTitle(title string) (Entry, bool) {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	ids := ix.byTitle[title]
	if len(ids) == 0 {
		return Entry{}, false
	}
	return ix.entries[ids[0]], true
}

// Entries returns a copy of all entries keyed by id.
func (ix *Index) Entries() map[string]Entry {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	return maps.Clone(ix.entries)
}

// Len returns the number of entries.
func (ix *Index) Len() int {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	return len(ix.entries)
}

// FileName returns the base name recorded for e, or the sanitized title for
// entries written before the name was recorded.
func (ix *Index) FileName(e Entry) string {
	if e.File != "" {
		return e.File
	}
	return ix.sanitize(e.Title)
}

// rebuild must be called with the lock held.
func (ix *Index) rebuild() {
	ix.byLocation = make(map[location]string, len(ix.entries))
	ix.byTitle = make(map[string][]string, len(ix.entries))

	ordered := slices.SortedFunc(maps.Values(ix.entries), func(a, b Entry) int {
		if c := a.CreatedAt.Compare(b.CreatedAt); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})
	for _, e := range ordered {
		loc := location{dir: e.Dir, file: ix.FileName(e)}
		if _, taken := ix.byLocation[loc]; !taken {
			ix.byLocation[loc] = e.ID
		}
		ix.byTitle[e.Title] = append(ix.byTitle[e.Title], e.ID)
	}
}

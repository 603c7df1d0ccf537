package fsstore

import (
	"context"
	"fmt"
	"slices"
	"time"

	"offnote/internal/domain"
	"offnote/internal/metaindex"
	"offnote/internal/vault"
)

// ListAll reconstructs every note in the tree, soft-deleted ones included.
// Subdirectories map onto folders by name and are created as folders when
// no folder matches. A note's UpdatedAt is its file's modification time.
// When two files resolve to the same id only the first is returned.
func (s *Store) ListAll(ctx context.Context) ([]domain.Note, error) {
	logger := s.getLogger(ctx)

	scan, err := vault.Scan(ctx, s.root, Ext)
	if err != nil {
		return nil, err
	}
	for _, err := range scan.Errs {
		logger.WarnContext(ctx, "skipping unreadable directory", "error", err)
	}

	folderIDs, err := s.resolveFolders(ctx, scan.Folders)
	if err != nil {
		return nil, err
	}

	present := make(map[[2]string]bool, len(scan.Files))
	for _, sf := range scan.Files {
		present[[2]string{sf.Folder, TitleFromFileName(sf.File.Name())}] = true
	}

	var (
		notes   = make([]domain.Note, 0, len(scan.Files))
		seen    = make(map[string]string, len(scan.Files))
		changed []metaindex.Entry
	)
	for _, sf := range scan.Files {
		path := sf.File.Name()
		if sf.Folder != "" {
			path = sf.Folder + "/" + path
		}

		content, modTime, err := sf.File.Read(ctx)
		if err != nil {
			logger.ErrorContext(ctx, "failed to read note file", "file", path, "error", err)
			continue
		}

		entry, dirty := s.identify(sf, folderIDs, present, modTime)
		if first, dup := seen[entry.ID]; dup {
			logger.WarnContext(ctx, "duplicate note id on disk, dropping file", "note_id", entry.ID, "file", path, "kept", first)
			continue
		}
		seen[entry.ID] = path
		if dirty {
			changed = append(changed, entry)
		}

		notes = append(notes, noteFromEntry(entry, string(content), modTime))
	}

	if len(changed) > 0 {
		if err := s.index.UpsertMany(ctx, changed); err != nil {
			logger.WarnContext(ctx, "failed to record discovered notes", "count", len(changed), "error", err)
		}
	}
	return notes, nil
}

// identify finds or mints the index entry for a scanned file. The title
// is only consulted when no entry is recorded for the file's location, and
// never takes over an entry whose own file is present. dirty is set when
// the entry differs from what the index holds.
func (s *Store) identify(sf vault.ScannedFile, folderIDs map[string]string, present map[[2]string]bool, modTime time.Time) (metaindex.Entry, bool) {
	base := TitleFromFileName(sf.File.Name())

	entry, ok := s.index.LookupByFile(sf.Folder, base)
	if !ok {
		entry, ok = s.index.LookupByTitle(base)
		if ok && present[[2]string{entry.Dir, s.index.FileName(entry)}] {
			ok = false
		}
	}
	if !ok {
		return metaindex.Entry{
			ID:        s.newID(),
			Title:     base,
			Dir:       sf.Folder,
			File:      base,
			FolderID:  folderIDs[sf.Folder],
			Tags:      []string{},
			CreatedAt: modTime,
		}, true
	}

	before := entry
	entry.Dir = sf.Folder
	entry.File = base
	if sf.Folder != "" {
		entry.FolderID = folderIDs[sf.Folder]
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = modTime
	}
	if entry.Title == "" {
		entry.Title = base
	}
	dirty := before.Dir != entry.Dir || before.File != entry.File ||
		before.FolderID != entry.FolderID || !before.CreatedAt.Equal(entry.CreatedAt) || before.Title != entry.Title
	return entry, dirty
}

func noteFromEntry(e metaindex.Entry, content string, modTime time.Time) domain.Note {
	return domain.Note{
		ID:         e.ID,
		Title:      e.Title,
		Content:    content,
		CreatedAt:  e.CreatedAt,
		UpdatedAt:  modTime,
		Tags:       slices.Clone(e.Tags),
		IsFavorite: e.IsFavorite,
		FolderID:   e.FolderID,
		IsDeleted:  e.DeletedAt != nil,
		DeletedAt:  e.DeletedAt,
	}
}

// resolveFolders maps directory names to folder ids. A directory matches a
// folder whose name is exactly the directory name, then one whose sanitized
// name is; otherwise a folder is created.
func (s *Store) resolveFolders(ctx context.Context, dirs []string) (map[string]string, error) {
	ids := make(map[string]string, len(dirs))
	if len(dirs) == 0 {
		return ids, nil
	}

	folders, err := s.folders.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list folders: %w", err)
	}
	slices.SortStableFunc(folders, func(a, b domain.Folder) int {
		return a.CreatedAt.Compare(b.CreatedAt)
	})
	exact := make(map[string]string, len(folders))
	bySanitized := make(map[string]string, len(folders))
	for _, f := range folders {
		if _, ok := exact[f.Name]; !ok {
			exact[f.Name] = f.ID
		}
		if name := sanitize(f.Name); bySanitized[name] == "" {
			bySanitized[name] = f.ID
		}
	}

	for _, dir := range dirs {
		if id, ok := exact[dir]; ok {
			ids[dir] = id
			continue
		}
		if id, ok := bySanitized[dir]; ok {
			ids[dir] = id
			continue
		}
		folder, err := s.folders.Create(ctx, dir, "", "")
		if err != nil {
			return nil, fmt.Errorf("failed to create folder for directory %s: %w", dir, err)
		}
		s.getLogger(ctx).InfoContext(ctx, "created folder for directory", "folder", folder.ID, "dir", dir)
		ids[dir] = folder.ID
	}
	return ids, nil
}

// Read returns the note with id from a full listing.
func (s *Store) Read(ctx context.Context, id string) (domain.Note, error) {
	notes, err := s.ListAll(ctx)
	if err != nil {
		return domain.Note{}, err
	}
	for _, n := range notes {
		if n.ID == id {
			return n, nil
		}
	}
	return domain.Note{}, fmt.Errorf("note %s: %w", id, domain.ErrNotFound)
}

// Prune drops index entries of notes no longer on disk. It returns the
// number of entries removed.
func (s *Store) Prune(ctx context.Context) (int, error) {
	notes, err := s.ListAll(ctx)
	if err != nil {
		return 0, err
	}
	live := make(map[string]bool, len(notes))
	for _, n := range notes {
		live[n.ID] = true
	}
	return s.index.Prune(ctx, live)
}

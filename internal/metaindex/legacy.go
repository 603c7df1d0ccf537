package metaindex

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"offnote/internal/vault"
)

// LegacySuffix ends the name of a per-file sidecar document. Sidecars are
// hidden files such as ".Shopping.meta.json".
const LegacySuffix = ".meta.json"

// IsLegacySidecar reports whether name is a per-file sidecar document.
func IsLegacySidecar(name string) bool {
	return vault.IsHidden(name) && strings.HasSuffix(name, LegacySuffix)
}

type sidecar struct {
	dir  vault.Dir
	name string
}

// MigrateLegacyEntries folds sidecar documents found in the root and one
// level of subdirectories into the index, deletes them and saves once.
// Unreadable sidecars are logged and left in place. Running it again after
// a successful pass is a no-op.
func (ix *Index) MigrateLegacyEntries(ctx context.Context) (int, error) {
	logger := ix.getLogger(ctx)

	found, err := findSidecars(ctx, ix.root)
	if err != nil {
		return 0, err
	}
	if len(found) == 0 {
		return 0, nil
	}

	var (
		migrated []Entry
		consumed []sidecar
	)
	for _, sc := range found {
		data, _, err := sc.dir.ReadFile(ctx, sc.name)
		if err != nil {
			logger.ErrorContext(ctx, "failed to read legacy metadata", "dir", sc.dir.Name(), "file", sc.name, "error", err)
			continue
		}
		var e Entry
		if err := json.Unmarshal(data, &e); err != nil {
			logger.ErrorContext(ctx, "failed to parse legacy metadata", "dir", sc.dir.Name(), "file", sc.name, "error", err)
			continue
		}
		consumed = append(consumed, sc)
		if e.ID != "" {
			migrated = append(migrated, e)
		}
	}

	// Persist before deleting so a failed save loses nothing.
	if len(migrated) > 0 {
		if err := ix.UpsertMany(ctx, migrated); err != nil {
			return 0, fmt.Errorf("failed to save migrated metadata: %w", err)
		}
	}

	for _, sc := range consumed {
		if err := sc.dir.Remove(ctx, sc.name, false); err != nil {
			logger.WarnContext(ctx, "failed to remove legacy metadata", "dir", sc.dir.Name(), "file", sc.name, "error", err)
		}
	}

	logger.InfoContext(ctx, "migrated legacy metadata", "migrated", len(migrated), "removed", len(consumed))
	return len(migrated), nil
}

func findSidecars(ctx context.Context, root vault.Dir) ([]sidecar, error) {
	entries, err := root.Entries(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", root.Name(), err)
	}

	var found []sidecar
	var subdirs []vault.Directory
	for _, e := range entries {
		switch e := e.(type) {
		case vault.File:
			if IsLegacySidecar(e.Name()) {
				found = append(found, sidecar{dir: root, name: e.Name()})
			}
		case vault.Directory:
			if !vault.IsHidden(e.Name()) {
				subdirs = append(subdirs, e)
			}
		}
	}

	for _, sd := range subdirs {
		dir, err := sd.Open(ctx)
		if err != nil {
			continue
		}
		children, err := dir.Entries(ctx)
		if err != nil {
			continue
		}
		for _, c := range children {
			if f, ok := c.(vault.File); ok && IsLegacySidecar(f.Name()) {
				found = append(found, sidecar{dir: dir, name: f.Name()})
			}
		}
	}
	return found, nil
}

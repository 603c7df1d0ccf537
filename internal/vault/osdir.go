package vault

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"
)

// OSDir is a Dir backed by a directory on the local filesystem.
type OSDir struct {
	path string
}

// OpenDir opens an existing directory.
func OpenDir(path string) (*OSDir, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve %s: %w", path, err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return nil, wrapNotExist(err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%s is not a directory", abs)
	}
	return &OSDir{path: abs}, nil
}

// Path returns the absolute path of the directory.
func (d *OSDir) Path() string { return d.path }

func (d *OSDir) Name() string { return filepath.Base(d.path) }

func (d *OSDir) Entries(ctx context.Context) ([]Entry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	dirEntries, err := os.ReadDir(d.path)
	if err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", d.path, wrapNotExist(err))
	}

	entries := make([]Entry, 0, len(dirEntries))
	for _, de := range dirEntries {
		switch {
		case de.IsDir():
			entries = append(entries, NewDirectory(d, de.Name()))
		case de.Type().IsRegular():
			info, err := de.Info()
			if err != nil {
				// Removed between listing and stat
				continue
			}
			entries = append(entries, NewFile(d, de.Name(), info.ModTime()))
		}
	}
	return entries, nil
}

func (d *OSDir) ReadFile(ctx context.Context, name string) ([]byte, time.Time, error) {
	if err := checkName(name); err != nil {
		return nil, time.Time{}, err
	}
	if err := ctx.Err(); err != nil {
		return nil, time.Time{}, err
	}
	p := filepath.Join(d.path, name)
	data, err := os.ReadFile(p)
	if err != nil {
		return nil, time.Time{}, fmt.Errorf("failed to read %s: %w", p, wrapNotExist(err))
	}
	info, err := os.Stat(p)
	if err != nil {
		return nil, time.Time{}, fmt.Errorf("failed to stat %s: %w", p, wrapNotExist(err))
	}
	return data, info.ModTime(), nil
}

// WriteFile writes to a hidden temp file in the same directory and renames
// it over the target.
func (d *OSDir) WriteFile(ctx context.Context, name string, data []byte) error {
	if err := checkName(name); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(d.path, ".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file in %s: %w", d.path, err)
	}
	tmpName := tmp.Name()
	defer func() {
		// No-op once renamed
		_ = os.Remove(tmpName)
	}()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("failed to write %s: %w", name, err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("failed to sync %s: %w", name, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close %s: %w", name, err)
	}
	if err := os.Rename(tmpName, filepath.Join(d.path, name)); err != nil {
		return fmt.Errorf("failed to replace %s: %w", name, err)
	}
	return nil
}

func (d *OSDir) Remove(ctx context.Context, name string, recursive bool) error {
	if err := checkName(name); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	p := filepath.Join(d.path, name)
	if _, err := os.Lstat(p); err != nil {
		return fmt.Errorf("failed to remove %s: %w", p, wrapNotExist(err))
	}
	var err error
	if recursive {
		err = os.RemoveAll(p)
	} else {
		err = os.Remove(p)
	}
	if err != nil {
		return fmt.Errorf("failed to remove %s: %w", p, err)
	}
	return nil
}

func (d *OSDir) Subdir(ctx context.Context, name string, create bool) (Dir, error) {
	if err := checkName(name); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	p := filepath.Join(d.path, name)
	if create {
		if err := os.Mkdir(p, 0o755); err != nil && !errors.Is(err, fs.ErrExist) {
			return nil, fmt.Errorf("failed to create directory %s: %w", p, err)
		}
	}
	info, err := os.Stat(p)
	if err != nil {
		return nil, fmt.Errorf("failed to open directory %s: %w", p, wrapNotExist(err))
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%s is not a directory", p)
	}
	return &OSDir{path: p}, nil
}

func wrapNotExist(err error) error {
	if errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("%w: %v", ErrNotFound, err)
	}
	return err
}

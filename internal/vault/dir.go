package vault

import (
	"context"
	"fmt"
	"strings"
	"time"

	"offnote/internal/domain"
)

// ErrNotFound is returned when a file or directory does not exist.
var ErrNotFound = domain.ErrNotFound

// Dir is one directory of a granted tree. Names passed to a Dir are single
// path elements, never paths.
type Dir interface {
	// Name returns the directory's own name.
	Name() string
	// Entries lists the immediate children.
	Entries(ctx context.Context) ([]Entry, error)
	// ReadFile returns a file's content and modification time.
	ReadFile(ctx context.Context, name string) ([]byte, time.Time, error)
	// WriteFile replaces a file's whole content. Readers never observe a
	// partially written file.
	WriteFile(ctx context.Context, name string, data []byte) error
	// Remove deletes a child. A non-empty directory is only removed when
	// recursive is set.
	Remove(ctx context.Context, name string, recursive bool) error
	// Subdir opens a child directory, creating it when create is set.
	Subdir(ctx context.Context, name string, create bool) (Dir, error)
}

// Entry is a directory child: either a File or a Directory.
type Entry interface {
	Name() string
	isEntry()
}

// File is a regular file entry.
type File struct {
	name    string
	modTime time.Time
	parent  Dir
}

// NewFile builds a File entry listed by parent.
func NewFile(parent Dir, name string, modTime time.Time) File {
	return File{name: name, modTime: modTime, parent: parent}
}

func (f File) Name() string       { return f.name }
func (f File) ModTime() time.Time { return f.modTime }
func (File) isEntry()             {}

// Read returns the file's content and its current modification time.
func (f File) Read(ctx context.Context) ([]byte, time.Time, error) {
	return f.parent.ReadFile(ctx, f.name)
}

// Directory is a subdirectory entry.
type Directory struct {
	name   string
	parent Dir
}

// NewDirectory builds a Directory entry listed by parent.
func NewDirectory(parent Dir, name string) Directory {
	return Directory{name: name, parent: parent}
}

func (d Directory) Name() string { return d.name }
func (Directory) isEntry()       {}

// Open opens the subdirectory.
func (d Directory) Open(ctx context.Context) (Dir, error) {
	return d.parent.Subdir(ctx, d.name, false)
}

// IsHidden reports whether name carries the hidden marker. Hidden entries
// are never note content.
func IsHidden(name string) bool {
	return strings.HasPrefix(name, ".")
}

func checkName(name string) error {
	if name == "" || name == "." || name == ".." || strings.ContainsAny(name, `/\`) || strings.ContainsRune(name, 0) {
		return &domain.ValidationError{Field: "name", Message: fmt.Sprintf("%q is not a single path element", name)}
	}
	return nil
}

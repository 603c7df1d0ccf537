package vault

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"sync"
)

// Permission is the access state of a granted directory.
type Permission string

const (
	PermissionGranted Permission = "granted"
	PermissionDenied  Permission = "denied"
	PermissionPrompt  Permission = "prompt"
)

// Handle is a user-granted directory. Access can be revoked between
// sessions, so callers query permission before opening the root.
type Handle interface {
	// Name is the display name of the granted directory.
	Name() string
	// QueryPermission reports the current access state without prompting.
	QueryPermission(ctx context.Context) (Permission, error)
	// RequestPermission asks for read/write access.
	RequestPermission(ctx context.Context) (Permission, error)
	// Root opens the directory tree.
	Root(ctx context.Context) (Dir, error)
	// Descriptor returns the persistable form of the handle.
	Descriptor() Descriptor
}

// Descriptor is a Handle as stored in settings.
type Descriptor struct {
	Kind string `json:"kind"`
	Path string `json:"path,omitempty"`
	Name string `json:"name"`
}

// KindOS marks descriptors of local filesystem directories.
const KindOS = "os"

// OSHandle grants a local directory by path.
type OSHandle struct {
	path string
}

// NewOSHandle returns a handle for the directory at path. The directory is
// not touched until permission is queried.
func NewOSHandle(path string) *OSHandle {
	return &OSHandle{path: path}
}

func (h *OSHandle) Name() string {
	d := OSDir{path: h.path}
	return d.Name()
}

// QueryPermission is granted when the directory exists and a file can be
// created in it.
func (h *OSHandle) QueryPermission(ctx context.Context) (Permission, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	info, err := os.Stat(h.path)
	if errors.Is(err, fs.ErrNotExist) || errors.Is(err, fs.ErrPermission) {
		return PermissionDenied, nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to stat %s: %w", h.path, err)
	}
	if !info.IsDir() {
		return PermissionDenied, nil
	}

	probe, err := os.CreateTemp(h.path, ".probe-*")
	if err != nil {
		return PermissionDenied, nil
	}
	name := probe.Name()
	_ = probe.Close()
	_ = os.Remove(name)
	return PermissionGranted, nil
}

// RequestPermission cannot prompt for a local path; it re-checks access.
func (h *OSHandle) RequestPermission(ctx context.Context) (Permission, error) {
	return h.QueryPermission(ctx)
}

func (h *OSHandle) Root(ctx context.Context) (Dir, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return OpenDir(h.path)
}

func (h *OSHandle) Descriptor() Descriptor {
	return Descriptor{Kind: KindOS, Path: h.path, Name: h.Name()}
}

// MemHandle grants an in-memory tree. Its permission can be changed to
// simulate a revoked grant.
type MemHandle struct {
	mu       sync.Mutex
	dir      *MemDir
	perm     Permission
	prompted Permission // state RequestPermission resolves to
}

// KindMem marks descriptors of in-memory trees.
const KindMem = "mem"

// NewMemHandle returns a granted handle over dir.
func NewMemHandle(dir *MemDir) *MemHandle {
	return &MemHandle{dir: dir, perm: PermissionGranted, prompted: PermissionGranted}
}

// SetPermission sets the state reported by QueryPermission and the state
// a later RequestPermission resolves to.
func (h *MemHandle) SetPermission(query, request Permission) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.perm = query
	h.prompted = request
}

func (h *MemHandle) Name() string { return h.dir.Name() }

func (h *MemHandle) QueryPermission(ctx context.Context) (Permission, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.perm, ctx.Err()
}

func (h *MemHandle) RequestPermission(ctx context.Context) (Permission, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.perm = h.prompted
	return h.perm, ctx.Err()
}

func (h *MemHandle) Root(ctx context.Context) (Dir, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return h.dir, nil
}

func (h *MemHandle) Descriptor() Descriptor {
	return Descriptor{Kind: KindMem, Name: h.dir.Name()}
}

package vault

import (
	"context"
	"fmt"
	"path"
	"slices"
	"sync"
	"time"
)

// Op names a Dir primitive for fault injection.
type Op string

const (
	OpList   Op = "list"
	OpRead   Op = "read"
	OpWrite  Op = "write"
	OpRemove Op = "remove"
	OpMkdir  Op = "mkdir"
)

// FaultFunc is consulted before every MemDir primitive. A non-nil return
// fails the call with that error. p is the slash-separated path of the
// target relative to the tree root.
type FaultFunc func(op Op, p string) error

// MemDir is an in-memory Dir tree. All MemDirs opened from one root share a
// lock, a clock and a fault hook.
type MemDir struct {
	tree *memTree
	node *memNode
	path string
}

type memTree struct {
	mu    sync.Mutex
	now   func() time.Time
	fault FaultFunc
}

type memNode struct {
	name     string
	dir      bool
	children map[string]*memNode
	data     []byte
	modTime  time.Time
	removed  bool
}

// NewMemDir creates an empty in-memory tree whose root is called name.
func NewMemDir(name string) *MemDir {
	tree := &memTree{now: time.Now}
	root := &memNode{name: name, dir: true, children: make(map[string]*memNode), modTime: tree.now()}
	return &MemDir{tree: tree, node: root}
}

// SetClock replaces the clock used for modification times.
func (d *MemDir) SetClock(now func() time.Time) {
	d.tree.mu.Lock()
	defer d.tree.mu.Unlock()
	d.tree.now = now
}

// SetFault installs a fault hook for the whole tree. nil clears it.
func (d *MemDir) SetFault(fn FaultFunc) {
	d.tree.mu.Lock()
	defer d.tree.mu.Unlock()
	d.tree.fault = fn
}

func (d *MemDir) Name() string { return d.node.name }

// Path returns the slash-separated path relative to the tree root.
func (d *MemDir) Path() string { return d.path }

func (d *MemDir) Entries(ctx context.Context) ([]Entry, error) {
	d.tree.mu.Lock()
	defer d.tree.mu.Unlock()
	if err := d.check(ctx, OpList, d.path); err != nil {
		return nil, err
	}

	names := make([]string, 0, len(d.node.children))
	for name := range d.node.children {
		names = append(names, name)
	}
	slices.Sort(names)

	entries := make([]Entry, 0, len(names))
	for _, name := range names {
		child := d.node.children[name]
		if child.dir {
			entries = append(entries, NewDirectory(d, name))
		} else {
			entries = append(entries, NewFile(d, name, child.modTime))
		}
	}
	return entries, nil
}

func (d *MemDir) ReadFile(ctx context.Context, name string) ([]byte, time.Time, error) {
	if err := checkName(name); err != nil {
		return nil, time.Time{}, err
	}
	d.tree.mu.Lock()
	defer d.tree.mu.Unlock()
	if err := d.check(ctx, OpRead, d.join(name)); err != nil {
		return nil, time.Time{}, err
	}
	child, ok := d.node.children[name]
	if !ok || child.dir {
		return nil, time.Time{}, fmt.Errorf("failed to read %s: %w", d.join(name), ErrNotFound)
	}
	return slices.Clone(child.data), child.modTime, nil
}

func (d *MemDir) WriteFile(ctx context.Context, name string, data []byte) error {
	if err := checkName(name); err != nil {
		return err
	}
	d.tree.mu.Lock()
	defer d.tree.mu.Unlock()
	if err := d.check(ctx, OpWrite, d.join(name)); err != nil {
		return err
	}
	if child, ok := d.node.children[name]; ok && child.dir {
		return fmt.Errorf("failed to write %s: is a directory", d.join(name))
	}
	d.node.children[name] = &memNode{name: name, data: slices.Clone(data), modTime: d.tree.now()}
	return nil
}

func (d *MemDir) Remove(ctx context.Context, name string, recursive bool) error {
	if err := checkName(name); err != nil {
		return err
	}
	d.tree.mu.Lock()
	defer d.tree.mu.Unlock()
	if err := d.check(ctx, OpRemove, d.join(name)); err != nil {
		return err
	}
	child, ok := d.node.children[name]
	if !ok {
		return fmt.Errorf("failed to remove %s: %w", d.join(name), ErrNotFound)
	}
	if child.dir && len(child.children) > 0 && !recursive {
		return fmt.Errorf("failed to remove %s: directory not empty", d.join(name))
	}
	markRemoved(child)
	delete(d.node.children, name)
	return nil
}

func (d *MemDir) Subdir(ctx context.Context, name string, create bool) (Dir, error) {
	if err := checkName(name); err != nil {
		return nil, err
	}
	d.tree.mu.Lock()
	defer d.tree.mu.Unlock()
	p := d.join(name)

	child, ok := d.node.children[name]
	switch {
	case ok && !child.dir:
		return nil, fmt.Errorf("%s is not a directory", p)
	case !ok && !create:
		if err := d.check(ctx, OpList, p); err != nil {
			return nil, err
		}
		return nil, fmt.Errorf("failed to open directory %s: %w", p, ErrNotFound)
	case !ok:
		if err := d.check(ctx, OpMkdir, p); err != nil {
			return nil, err
		}
		child = &memNode{name: name, dir: true, children: make(map[string]*memNode), modTime: d.tree.now()}
		d.node.children[name] = child
	default:
		if err := d.check(ctx, OpList, p); err != nil {
			return nil, err
		}
	}
	return &MemDir{tree: d.tree, node: child, path: p}, nil
}

// check must be called with the tree lock held.
func (d *MemDir) check(ctx context.Context, op Op, p string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if d.node.removed {
		return fmt.Errorf("directory %s: %w", d.path, ErrNotFound)
	}
	if d.tree.fault != nil {
		if err := d.tree.fault(op, p); err != nil {
			return err
		}
	}
	return nil
}

func (d *MemDir) join(name string) string {
	if d.path == "" {
		return name
	}
	return path.Join(d.path, name)
}

func markRemoved(n *memNode) {
	n.removed = true
	for _, c := range n.children {
		markRemoved(c)
	}
}

package vault

import (
	"context"
	"fmt"
	"sync"
)

// Resolver turns a persisted Descriptor back into a Handle.
type Resolver interface {
	Resolve(ctx context.Context, desc Descriptor) (Handle, error)
}

// OpenerFunc re-opens a descriptor of one kind.
type OpenerFunc func(ctx context.Context, desc Descriptor) (Handle, error)

// Manager resolves descriptors by kind. Local filesystem descriptors are
// supported out of the box.
type Manager struct {
	mu      sync.RWMutex
	openers map[string]OpenerFunc
}

// NewManager creates a Manager that understands KindOS descriptors.
func NewManager() *Manager {
	m := &Manager{openers: make(map[string]OpenerFunc)}
	m.Register(KindOS, func(_ context.Context, desc Descriptor) (Handle, error) {
		if desc.Path == "" {
			return nil, fmt.Errorf("descriptor %q has no path", desc.Name)
		}
		return NewOSHandle(desc.Path), nil
	})
	return m
}

// Register installs the opener for kind, replacing any previous one.
func (m *Manager) Register(kind string, open OpenerFunc) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.openers[kind] = open
}

// RegisterHandle makes desc resolve to h. Used for handles that cannot be
// re-opened from their descriptor alone, such as in-memory trees.
func (m *Manager) RegisterHandle(h Handle) {
	desc := h.Descriptor()
	m.Register(desc.Kind, func(context.Context, Descriptor) (Handle, error) {
		return h, nil
	})
}

// Supported reports whether descriptors of kind can be resolved.
func (m *Manager) Supported(kind string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.openers[kind]
	return ok
}

// Resolve returns the handle for desc.
func (m *Manager) Resolve(ctx context.Context, desc Descriptor) (Handle, error) {
	m.mu.RLock()
	open, ok := m.openers[desc.Kind]
	m.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("unsupported directory kind: %s", desc.Kind)
	}
	h, err := open(ctx, desc)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve directory %s: %w", desc.Name, err)
	}
	return h, nil
}

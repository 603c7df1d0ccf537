// Package backend is the single entry point for note persistence. It picks
// the file tree or the database per call, falls back to the database when
// the file tree fails, and reconciles both when the mode is switched.
package backend

//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_file_backend.go -package=mocks offnote/internal/backend FileBackend

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sony/gobreaker"

	"offnote/internal/contextutil"
	"offnote/internal/domain"
	"offnote/internal/fsstore"
	"offnote/internal/metrics"
	"offnote/internal/storage"
	"offnote/internal/vault"
)

// FileBackend is the file-tree note store.
type FileBackend interface {
	RootName() string
	Write(ctx context.Context, note domain.Note) (domain.Note, error)
	Read(ctx context.Context, id string) (domain.Note, error)
	ListAll(ctx context.Context) ([]domain.Note, error)
	Delete(ctx context.Context, note domain.Note, keepMetadata bool) error
	Prune(ctx context.Context) (int, error)
	CreateFolderDirectory(ctx context.Context, name string) error
	RenameFolderDirectory(ctx context.Context, oldName, newName string) error
	DeleteFolderDirectory(ctx context.Context, name string) error
}

// Opener prepares a FileBackend over a granted root. It returns the number
// of legacy metadata entries migrated while opening.
type Opener func(ctx context.Context, root vault.Dir, folders fsstore.FolderResolver, logger *slog.Logger) (FileBackend, int, error)

// OpenFileStore is the default Opener.
func OpenFileStore(ctx context.Context, root vault.Dir, folders fsstore.FolderResolver, logger *slog.Logger) (FileBackend, int, error) {
	st, migrated, err := fsstore.Open(ctx, root, folders, fsstore.WithLogger(logger))
	if err != nil {
		return nil, 0, err
	}
	return st, migrated, nil
}

// Deps are the collaborators of a Selector.
type Deps struct {
	Notes    storage.NoteStore
	Folders  storage.FolderStore
	History  storage.HistoryStore
	Settings storage.SettingStore
	Resolver vault.Resolver
	Sorter   *storage.Sorter
	Metrics  *metrics.Collector
}

// Selector routes every note operation to the active backend. All calls are
// serialized.
type Selector struct {
	mu sync.Mutex

	notes    storage.NoteStore
	folders  storage.FolderStore
	history  storage.HistoryStore
	settings storage.SettingStore
	resolver vault.Resolver
	sorter   *storage.Sorter
	metrics  *metrics.Collector

	opener   Opener
	listener StateListener
	breaker  *gobreaker.CircuitBreaker
	now      func() time.Time
	newID    func() string
	logger   *slog.Logger

	state   domain.BackendState
	file    FileBackend
	handle  vault.Handle
	lastErr string
}

// Option configures a Selector.
type Option func(*Selector)

// WithLogger sets the logger used when no logger is carried by the context.
func WithLogger(l *slog.Logger) Option {
	return func(s *Selector) { s.logger = l }
}

// WithOpener replaces how the file backend is opened.
func WithOpener(o Opener) Option {
	return func(s *Selector) { s.opener = o }
}

// StateListener is told when the file backend becomes active or inactive.
// It is called with the selector locked and must not call back into it.
type StateListener func(state domain.BackendState, handle vault.Handle)

// WithStateListener registers fn for backend state changes.
func WithStateListener(fn StateListener) Option {
	return func(s *Selector) { s.listener = fn }
}

// WithClock replaces the clock used for timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Selector) { s.now = now }
}

// WithIDGenerator replaces the note id generator.
func WithIDGenerator(fn func() string) Option {
	return func(s *Selector) { s.newID = fn }
}

// BreakerConfig configures the circuit breaker around the file backend.
type BreakerConfig struct {
	// ConsecutiveFailures trips the breaker.
	ConsecutiveFailures uint32
	// Timeout is how long the breaker stays open before probing again.
	Timeout time.Duration
}

// DefaultBreakerConfig returns the breaker configuration used by New.
func DefaultBreakerConfig() BreakerConfig {
	return BreakerConfig{
		ConsecutiveFailures: 5,
		Timeout:             30 * time.Second,
	}
}

// WithBreaker replaces the circuit breaker configuration.
func WithBreaker(cfg BreakerConfig) Option {
	return func(s *Selector) { s.breaker = s.newBreaker(cfg) }
}

// New creates a Selector in the uninitialized state. Call Init to restore
// the persisted backend mode.
func New(deps Deps, opts ...Option) *Selector {
	s := &Selector{
		notes:    deps.Notes,
		folders:  deps.Folders,
		history:  deps.History,
		settings: deps.Settings,
		resolver: deps.Resolver,
		sorter:   deps.Sorter,
		metrics:  deps.Metrics,
		opener:   OpenFileStore,
		now:      time.Now,
		newID:    func() string { return uuid.New().String() },
		logger:   slog.Default(),
		state:    domain.StateUninitialized,
	}
	if s.sorter == nil {
		s.sorter = storage.NewSorter("und")
	}
	s.breaker = s.newBreaker(DefaultBreakerConfig())
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Selector) newBreaker(cfg BreakerConfig) *gobreaker.CircuitBreaker {
	return gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:    "file-backend",
		Timeout: cfg.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.ConsecutiveFailures
		},
		IsSuccessful: func(err error) bool {
			// Absent notes and bad input say nothing about the backend's health
			return err == nil || errors.Is(err, domain.ErrNotFound) || errors.Is(err, domain.ErrInvalidInput)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			s.logger.Warn("circuit breaker state changed", "name", name, "from", from.String(), "to", to.String())
			s.metrics.SetBreakerOpen(to == gobreaker.StateOpen)
		},
	})
}

func (s *Selector) getLogger(ctx context.Context) *slog.Logger {
	return contextutil.LoggerFromContextOr(ctx, s.logger)
}

// Init restores the persisted backend mode. A stored directory whose
// permission is no longer granted downgrades the session to the database
// without prompting.
func (s *Selector) Init(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	logger := s.getLogger(ctx)

	s.state = domain.StateRestoringHandle

	var enabled bool
	if _, err := s.settings.Get(ctx, domain.SettingFileSystemEnabled, &enabled); err != nil {
		s.setStructured()
		return fmt.Errorf("failed to read backend setting: %w", err)
	}
	if !enabled {
		s.setStructured()
		logger.InfoContext(ctx, "database backend active")
		return nil
	}

	handle, err := s.storedHandle(ctx)
	if err != nil {
		s.downgrade(ctx, err)
		return nil
	}
	s.handle = handle

	perm, err := handle.QueryPermission(ctx)
	if err != nil {
		s.downgrade(ctx, err)
		return nil
	}
	if perm != vault.PermissionGranted {
		s.downgrade(ctx, fmt.Errorf("%w: directory %s is %s", domain.ErrPermissionDenied, handle.Name(), perm))
		return nil
	}

	if err := s.activate(ctx, handle); err != nil {
		s.downgrade(ctx, err)
		return nil
	}
	logger.InfoContext(ctx, "file backend restored", "directory", handle.Name())
	return nil
}

// Reconnect asks again for permission on the stored directory and, if
// granted, reactivates the file backend.
func (s *Selector) Reconnect(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state == domain.StateFileActive {
		return nil
	}
	handle := s.handle
	if handle == nil {
		h, err := s.storedHandle(ctx)
		if err != nil {
			return err
		}
		handle = h
	}

	perm, err := handle.RequestPermission(ctx)
	if err != nil {
		return fmt.Errorf("failed to request permission: %w", err)
	}
	if perm != vault.PermissionGranted {
		return fmt.Errorf("%w: directory %s is %s", domain.ErrPermissionDenied, handle.Name(), perm)
	}
	if err := s.activate(ctx, handle); err != nil {
		s.lastErr = err.Error()
		return err
	}
	s.getLogger(ctx).InfoContext(ctx, "file backend reconnected", "directory", handle.Name())
	return nil
}

func (s *Selector) storedHandle(ctx context.Context) (vault.Handle, error) {
	var desc vault.Descriptor
	ok, err := s.settings.Get(ctx, domain.SettingDirectoryHandle, &desc)
	if err != nil {
		return nil, fmt.Errorf("failed to read directory setting: %w", err)
	}
	if !ok {
		return nil, fmt.Errorf("%w: no directory stored", domain.ErrNotFound)
	}
	if s.resolver == nil {
		return nil, fmt.Errorf("%w: no directory resolver", domain.ErrBackendUnavailable)
	}
	return s.resolver.Resolve(ctx, desc)
}

// activate opens the file backend over handle and makes it active. Must be
// called with the lock held.
func (s *Selector) activate(ctx context.Context, handle vault.Handle) error {
	root, err := handle.Root(ctx)
	if err != nil {
		return fmt.Errorf("failed to open directory %s: %w", handle.Name(), err)
	}
	fb, migrated, err := s.opener(ctx, root, s.folders, s.getLogger(ctx))
	if err != nil {
		return fmt.Errorf("failed to open file backend: %w", err)
	}
	if migrated > 0 {
		s.getLogger(ctx).InfoContext(ctx, "migrated legacy metadata", "entries", migrated)
	}
	s.file = fb
	s.handle = handle
	s.state = domain.StateFileActive
	s.lastErr = ""
	s.metrics.SetFileActive(true)
	s.notify(handle)
	return nil
}

func (s *Selector) setStructured() {
	wasFile := s.file != nil
	s.file = nil
	s.state = domain.StateStructuredActive
	s.metrics.SetFileActive(false)
	if wasFile {
		s.notify(nil)
	}
}

func (s *Selector) notify(handle vault.Handle) {
	if s.listener != nil {
		s.listener(s.state, handle)
	}
}

func (s *Selector) downgrade(ctx context.Context, cause error) {
	s.setStructured()
	s.lastErr = cause.Error()
	s.getLogger(ctx).WarnContext(ctx, "file backend unavailable, using database", "error", cause)
}

// Status reports the backend mode for display.
func (s *Selector) Status(ctx context.Context) domain.BackendStatus {
	s.mu.Lock()
	defer s.mu.Unlock()

	var enabled bool
	if _, err := s.settings.Get(ctx, domain.SettingFileSystemEnabled, &enabled); err != nil {
		s.getLogger(ctx).WarnContext(ctx, "failed to read backend setting", "error", err)
	}
	status := domain.BackendStatus{
		Supported: s.resolver != nil,
		Enabled:   enabled,
		State:     s.state,
		LastError: s.lastErr,
	}
	if s.handle != nil {
		status.DirectoryName = s.handle.Name()
	}
	return status
}

// State returns the current backend state.
func (s *Selector) State() domain.BackendState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// fileActive reports whether calls go to the file backend first. Must be
// called with the lock held.
func (s *Selector) fileActive() bool {
	return s.state == domain.StateFileActive && s.file != nil
}

// onFile runs fn against the file backend through the circuit breaker.
func (s *Selector) onFile(op string, fn func(FileBackend) error) error {
	fb := s.file
	_, err := s.breaker.Execute(func() (interface{}, error) {
		return nil, fn(fb)
	})
	s.metrics.RecordOperation("file", op, err)
	return err
}

// fellBack logs and counts an operation redirected to the database.
func (s *Selector) fellBack(ctx context.Context, op string, cause error) {
	s.metrics.RecordFallback(op)
	s.lastErr = cause.Error()
	s.getLogger(ctx).WarnContext(ctx, "file backend failed, using database", "op", op, "error", cause)
}

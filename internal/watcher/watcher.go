// Package watcher notices changes made to the notes directory by other
// programs and triggers a sync once the directory has been quiet for a
// while.
package watcher

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"offnote/internal/domain"
	"offnote/internal/vault"
)

// DefaultDebounce is the quiet period before a sync.
const DefaultDebounce = 500 * time.Millisecond

// Syncer reconciles the directory with the index.
type Syncer interface {
	Sync(ctx context.Context) (domain.SyncReport, error)
}

// Watcher watches a notes root and its folder directories.
type Watcher struct {
	root     string
	syncer   Syncer
	debounce time.Duration
	logger   *slog.Logger

	fsw      *fsnotify.Watcher
	stopCh   chan struct{}
	stopOnce sync.Once
}

// New watches root and every visible subdirectory. Call Start to begin
// delivering syncs.
func New(root string, syncer Syncer, debounce time.Duration, logger *slog.Logger) (*Watcher, error) {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	if logger == nil {
		logger = slog.Default()
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}
	w := &Watcher{
		root:     root,
		syncer:   syncer,
		debounce: debounce,
		logger:   logger.With("component", "watcher", "root", root),
		fsw:      fsw,
		stopCh:   make(chan struct{}),
	}

	if err := fsw.Add(root); err != nil {
		_ = fsw.Close()
		return nil, fmt.Errorf("failed to watch %s: %w", root, err)
	}
	entries, err := os.ReadDir(root)
	if err != nil {
		_ = fsw.Close()
		return nil, fmt.Errorf("failed to list %s: %w", root, err)
	}
	for _, e := range entries {
		if e.IsDir() && !vault.IsHidden(e.Name()) {
			w.addDir(filepath.Join(root, e.Name()))
		}
	}
	return w, nil
}

func (w *Watcher) addDir(path string) {
	if err := w.fsw.Add(path); err != nil {
		w.logger.Warn("failed to watch folder directory", "dir", path, "error", err)
	}
}

// Start runs the watch loop until Stop is called.
func (w *Watcher) Start() {
	go w.watchLoop()
	w.logger.Info("directory watcher started")
}

// Stop ends the watch loop. It does not wait for a sync in progress.
func (w *Watcher) Stop() {
	w.stopOnce.Do(func() {
		close(w.stopCh)
		_ = w.fsw.Close()
		w.logger.Info("directory watcher stopped")
	})
}

func (w *Watcher) watchLoop() {
	var debounceTimer *time.Timer
	defer func() {
		if debounceTimer != nil {
			debounceTimer.Stop()
		}
	}()

	for {
		select {
		case <-w.stopCh:
			return

		case event, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			if !w.relevant(event) {
				continue
			}
			if event.Op.Has(fsnotify.Create) && filepath.Dir(event.Name) == w.root {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
					w.addDir(event.Name)
				}
			}

			if debounceTimer != nil {
				debounceTimer.Stop()
			}
			debounceTimer = time.AfterFunc(w.debounce, w.sync)

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			w.logger.Error("file watcher error", "error", err)
		}
	}
}

// relevant filters out hidden entries, which covers the index directory
// and temporary files of atomic writes.
func (w *Watcher) relevant(event fsnotify.Event) bool {
	if event.Op == fsnotify.Chmod {
		return false
	}
	rel, err := filepath.Rel(w.root, event.Name)
	if err != nil {
		return false
	}
	for _, part := range strings.Split(filepath.ToSlash(rel), "/") {
		if vault.IsHidden(part) {
			return false
		}
	}
	return true
}

func (w *Watcher) sync() {
	select {
	case <-w.stopCh:
		return
	default:
	}

	report, err := w.syncer.Sync(context.Background())
	if err != nil {
		w.logger.Error("sync after directory change failed", "error", err)
		return
	}
	w.logger.Debug("synced after directory change", "exported", report.Exported.Success, "pruned", report.Pruned)
}

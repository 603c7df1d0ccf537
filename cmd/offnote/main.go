package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	nethttp "net/http"
	"os"
	"os/signal"
	"path/filepath"
	"sync"
	"syscall"
	"time"

	"offnote/internal/autosave"
	"offnote/internal/backend"
	"offnote/internal/config"
	"offnote/internal/domain"
	"offnote/internal/http"
	"offnote/internal/metrics"
	"offnote/internal/search"
	"offnote/internal/storage"
	"offnote/internal/vault"
	"offnote/internal/watcher"
)

const shutdownTimeout = 10 * time.Second

func main() {
	// Load configuration first (needed for log level)
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Configure structured logging with configurable level and format
	level, err := cfg.SlogLevel()
	if err != nil {
		log.Fatalf("Invalid log level: %v", err)
	}
	opts := &slog.HandlerOptions{
		Level: level,
	}
	var handler slog.Handler
	if cfg.LogFormat == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}
	logger := slog.New(handler)
	slog.SetDefault(logger)
	slog.Debug("Logging configured", "level", level.String(), "format", cfg.LogFormat)

	// Initialize database
	db, err := storage.New(cfg.DBPath)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer func() {
		_ = db.Close()
	}()

	if err := storage.Migrate(db); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}
	slog.Info("Database initialized", "path", cfg.DBPath)

	sorter := storage.NewSorter(cfg.SortLocale)
	store := storage.NewStore(db, sorter, cfg.HistoryRetention)
	collector := metrics.NewCollector("offnote")
	watches := &watchSupervisor{debounce: cfg.WatchDebounce, logger: logger}

	selector := backend.New(backend.Deps{
		Notes:    store.Notes,
		Folders:  store.Folders,
		History:  store.History,
		Settings: store.Settings,
		Resolver: vault.NewManager(),
		Sorter:   sorter,
		Metrics:  collector,
	},
		backend.WithLogger(logger),
		backend.WithBreaker(backend.BreakerConfig{
			ConsecutiveFailures: 5,
			Timeout:             cfg.BreakerTimeout,
		}),
		backend.WithStateListener(watches.onStateChange),
	)
	watches.syncer = selector

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := selector.Init(ctx); err != nil {
		log.Fatalf("Failed to initialize backend: %v", err)
	}
	if cfg.Directory != "" && !selector.Status(ctx).Enabled {
		enableDirectory(ctx, selector, cfg.Directory)
	}
	status := selector.Status(ctx)
	slog.Info("Backend initialized", "state", status.State, "directory", status.DirectoryName)

	searcher := search.New(search.Options{
		Timeout:    cfg.SearchTimeout,
		MaxMatches: cfg.SearchMaxMatches,
	}, collector)
	drafts := autosave.New(selector, autosave.Config{
		Delay:      cfg.AutosaveDelay,
		RetryDelay: cfg.AutosaveRetryDelay,
	}, collector)

	// Create router with dependencies
	router := http.NewRouter(&http.Deps{
		Service:  selector,
		Searcher: searcher,
		Drafts:   drafts,
		DB:       db,
		Metrics:  collector,
	})

	// Start API server
	addr := ":" + cfg.APIPort
	srv := &nethttp.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		slog.Info("Starting API server", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, nethttp.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		log.Fatalf("API server failed to start: %v", err)
	case <-ctx.Done():
	}

	slog.Info("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("Server shutdown failed", "error", err)
	}
	flushed := drafts.FlushAll(shutdownCtx)
	if flushed.Failed > 0 {
		slog.Error("Pending drafts were not saved", "saved", flushed.Success, "failed", flushed.Failed)
	}
	watches.stop()
}

// enableDirectory switches to the directory named in the configuration on
// first start. Failure leaves the database active.
func enableDirectory(ctx context.Context, selector *backend.Selector, dir string) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		slog.Error("Invalid notes directory", "path", dir, "error", err)
		return
	}
	if err := os.MkdirAll(abs, 0o755); err != nil {
		slog.Error("Failed to create notes directory", "path", abs, "error", err)
		return
	}
	report, err := selector.EnableFileBackendAt(ctx, vault.Descriptor{
		Kind: vault.KindOS,
		Path: abs,
		Name: filepath.Base(abs),
	})
	if err != nil {
		var partial *domain.PartialFailure
		if !errors.As(err, &partial) {
			slog.Error("Failed to enable notes directory", "path", abs, "error", err)
			return
		}
		slog.Warn("Notes directory enabled with failures", "path", abs, "error", err)
	}
	slog.Info("Notes directory enabled", "path", abs,
		"imported", report.Imported.Success, "exported", report.Exported.Success)
}

// watchSupervisor runs a directory watcher while a local directory backs
// the notes. Its callback runs under the selector lock and must not block.
type watchSupervisor struct {
	syncer   watcher.Syncer
	debounce time.Duration
	logger   *slog.Logger

	mu      sync.Mutex
	current *watcher.Watcher
}

func (s *watchSupervisor) onStateChange(state domain.BackendState, handle vault.Handle) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.current != nil {
		s.current.Stop()
		s.current = nil
	}
	if state != domain.StateFileActive || handle == nil {
		return
	}
	desc := handle.Descriptor()
	if desc.Kind != vault.KindOS || desc.Path == "" {
		return
	}
	w, err := watcher.New(desc.Path, s.syncer, s.debounce, s.logger)
	if err != nil {
		s.logger.Warn("failed to watch notes directory", "path", desc.Path, "error", err)
		return
	}
	w.Start()
	s.current = w
}

func (s *watchSupervisor) stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current != nil {
		s.current.Stop()
		s.current = nil
	}
}

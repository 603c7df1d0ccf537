package watcher

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"offnote/internal/domain"
)

type countingSyncer struct {
	calls atomic.Int32
}

func (c *countingSyncer) Sync(context.Context) (domain.SyncReport, error) {
	c.calls.Add(1)
	return domain.SyncReport{}, nil
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func startWatcher(t *testing.T, root string, syncer Syncer) *Watcher {
	t.Helper()
	w, err := New(root, syncer, 50*time.Millisecond, quietLogger())
	require.NoError(t, err)
	w.Start()
	t.Cleanup(w.Stop)
	return w
}

func write(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestWatcher_DebouncesBurst(t *testing.T) {
	root := t.TempDir()
	syncer := &countingSyncer{}
	startWatcher(t, root, syncer)

	for i := range 5 {
		write(t, filepath.Join(root, "Note.txt"), string(rune('a'+i)))
		time.Sleep(5 * time.Millisecond)
	}

	require.Eventually(t, func() bool { return syncer.calls.Load() == 1 }, 2*time.Second, 10*time.Millisecond)
	time.Sleep(150 * time.Millisecond)
	assert.Equal(t, int32(1), syncer.calls.Load())
}

func TestWatcher_IgnoresHiddenEntries(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.Mkdir(filepath.Join(root, ".offnote"), 0o755))
	syncer := &countingSyncer{}
	startWatcher(t, root, syncer)

	write(t, filepath.Join(root, ".tmp-123"), "partial")
	write(t, filepath.Join(root, ".offnote", "metadata.json"), "{}")

	time.Sleep(200 * time.Millisecond)
	assert.Equal(t, int32(0), syncer.calls.Load())
}

func TestWatcher_FolderDirectories(t *testing.T) {
	root := t.TempDir()
	existing := filepath.Join(root, "Work")
	require.NoError(t, os.Mkdir(existing, 0o755))
	syncer := &countingSyncer{}
	startWatcher(t, root, syncer)

	write(t, filepath.Join(existing, "Plan.txt"), "x")
	require.Eventually(t, func() bool { return syncer.calls.Load() == 1 }, 2*time.Second, 10*time.Millisecond)

	created := filepath.Join(root, "Later")
	require.NoError(t, os.Mkdir(created, 0o755))
	require.Eventually(t, func() bool { return syncer.calls.Load() == 2 }, 2*time.Second, 10*time.Millisecond)

	// Give the loop time to add the new directory before writing into it.
	time.Sleep(50 * time.Millisecond)
	write(t, filepath.Join(created, "Idea.txt"), "y")
	require.Eventually(t, func() bool { return syncer.calls.Load() == 3 }, 2*time.Second, 10*time.Millisecond)
}

func TestWatcher_StopIsIdempotent(t *testing.T) {
	root := t.TempDir()
	syncer := &countingSyncer{}
	w, err := New(root, syncer, 0, quietLogger())
	require.NoError(t, err)
	w.Start()
	w.Stop()
	w.Stop()

	write(t, filepath.Join(root, "After.txt"), "x")
	time.Sleep(DefaultDebounce + 100*time.Millisecond)
	assert.Equal(t, int32(0), syncer.calls.Load())
}

func TestNew_MissingRoot(t *testing.T) {
	_, err := New(filepath.Join(t.TempDir(), "missing"), &countingSyncer{}, 0, nil)
	assert.Error(t, err)
}

package watcher

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mvp-joe/widgetgen/internal/discovery"
)

// Test Plan for FileWatcher:
// - New fails for a missing root
// - A header write fires the callback after the debounce period
// - Rapid writes to several headers arrive as one sorted, deduplicated batch
// - Paths rejected by the matcher never fire
// - Headers in directories created after Start are picked up
// - Pause holds batches; Resume delivers them
// - Stop is idempotent and safe without Start

const testDebounce = 50 * time.Millisecond

func newTestWatcher(t *testing.T, root string) FileWatcher {
	t.Helper()
	hd, err := discovery.New(root, discovery.DefaultInclude("lv"), discovery.DefaultIgnore())
	require.NoError(t, err)

	w, err := NewWithDebounce(root, hd, testDebounce)
	require.NoError(t, err)
	t.Cleanup(func() { _ = w.Stop() })
	return w
}

type batches struct {
	mu  sync.Mutex
	got [][]string
	ch  chan struct{}
}

func newBatches() *batches {
	return &batches{ch: make(chan struct{}, 16)}
}

func (b *batches) callback(files []string) {
	b.mu.Lock()
	b.got = append(b.got, files)
	b.mu.Unlock()
	b.ch <- struct{}{}
}

func (b *batches) wait(t *testing.T) {
	t.Helper()
	select {
	case <-b.ch:
	case <-time.After(3 * time.Second):
		t.Fatal("timed out waiting for callback")
	}
}

func (b *batches) snapshot() [][]string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([][]string(nil), b.got...)
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
}

func TestNew_MissingRoot(t *testing.T) {
	t.Parallel()

	w, err := New(filepath.Join(t.TempDir(), "missing"), nil)
	assert.Error(t, err)
	assert.Nil(t, w)
}

func TestWatcher_SingleChange(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	w := newTestWatcher(t, root)
	b := newBatches()
	require.NoError(t, w.Start(context.Background(), b.callback))

	path := filepath.Join(root, "lv_button.h")
	writeFile(t, path, "void lv_button_create(void);\n")
	b.wait(t)

	got := b.snapshot()
	require.Len(t, got, 1)
	assert.Equal(t, []string{path}, got[0])
}

func TestWatcher_BatchesAndDeduplicates(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	w := newTestWatcher(t, root)
	b := newBatches()
	require.NoError(t, w.Start(context.Background(), b.callback))

	chart := filepath.Join(root, "lv_chart.h")
	button := filepath.Join(root, "lv_button.h")
	writeFile(t, chart, "a")
	writeFile(t, button, "a")
	writeFile(t, chart, "b")
	b.wait(t)

	// Allow a straggling batch to land before asserting.
	time.Sleep(3 * testDebounce)
	seen := map[string]int{}
	for _, batch := range b.snapshot() {
		assert.IsIncreasing(t, batch)
		for _, f := range batch {
			seen[f]++
		}
	}
	assert.Len(t, seen, 2)
	assert.Contains(t, seen, button)
	assert.Contains(t, seen, chart)
}

func TestWatcher_IgnoresNonCandidates(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	w := newTestWatcher(t, root)
	b := newBatches()
	require.NoError(t, w.Start(context.Background(), b.callback))

	writeFile(t, filepath.Join(root, "notes.txt"), "x")
	writeFile(t, filepath.Join(root, "lv_button_private.h"), "x")
	writeFile(t, filepath.Join(root, "other.h"), "x")

	select {
	case <-b.ch:
		t.Fatalf("unexpected batch: %v", b.snapshot())
	case <-time.After(6 * testDebounce):
	}
}

func TestWatcher_NewDirectory(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	w := newTestWatcher(t, root)
	b := newBatches()
	require.NoError(t, w.Start(context.Background(), b.callback))

	dir := filepath.Join(root, "widgets")
	require.NoError(t, os.Mkdir(dir, 0755))
	// Give the loop time to register the new directory.
	time.Sleep(2 * testDebounce)

	path := filepath.Join(dir, "lv_slider.h")
	writeFile(t, path, "x")
	b.wait(t)

	assert.Contains(t, b.snapshot()[0], path)
}

func TestWatcher_PauseResume(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	w := newTestWatcher(t, root)
	b := newBatches()
	require.NoError(t, w.Start(context.Background(), b.callback))

	w.Pause()
	path := filepath.Join(root, "lv_label.h")
	writeFile(t, path, "x")

	select {
	case <-b.ch:
		t.Fatal("callback fired while paused")
	case <-time.After(4 * testDebounce):
	}

	w.Resume()
	b.wait(t)
	assert.Equal(t, []string{path}, b.snapshot()[0])
}

func TestWatcher_StopIdempotent(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	w, err := New(root, nil)
	require.NoError(t, err)
	assert.NoError(t, w.Stop())
	assert.NoError(t, w.Stop())

	w2, err := New(root, nil)
	require.NoError(t, err)
	require.NoError(t, w2.Start(context.Background(), func([]string) {}))
	assert.NoError(t, w2.Stop())
}

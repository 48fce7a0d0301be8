package watcher

import (
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"gotick/internal/config"
	"gotick/internal/logging"

	"github.com/fsnotify/fsnotify"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type batches struct {
	mu  sync.Mutex
	got [][]string
}

func (b *batches) handle(files []string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.got = append(b.got, files)
	return nil
}

func (b *batches) snapshot() [][]string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([][]string(nil), b.got...)
}

func TestDebouncerCoalescesEvents(t *testing.T) {
	d := newDebouncer(20*time.Millisecond, logging.Nop())
	defer d.stop()

	var b batches
	for _, p := range []string{"b.go", "a.go", "b.go"} {
		d.add(FileChangeEvent{Path: p, Operation: "WRITE"}, b.handle)
	}

	require.Eventually(t, func() bool { return len(b.snapshot()) == 1 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, []string{"a.go", "b.go"}, b.snapshot()[0])
}

func TestDebouncerStopDropsPending(t *testing.T) {
	d := newDebouncer(20*time.Millisecond, logging.Nop())

	var b batches
	d.add(FileChangeEvent{Path: "a.go"}, b.handle)
	d.stop()
	d.stop()
	d.add(FileChangeEvent{Path: "b.go"}, b.handle)

	time.Sleep(60 * time.Millisecond)
	assert.Empty(t, b.snapshot())
}

func TestDebouncerHandlerErrorKeepsRunning(t *testing.T) {
	d := newDebouncer(10*time.Millisecond, logging.Nop())
	defer d.stop()

	var calls int
	var mu sync.Mutex
	handler := func([]string) error {
		mu.Lock()
		defer mu.Unlock()
		calls++
		return errors.New("boom")
	}
	count := func() int {
		mu.Lock()
		defer mu.Unlock()
		return calls
	}

	d.add(FileChangeEvent{Path: "a.go"}, handler)
	require.Eventually(t, func() bool { return count() == 1 }, time.Second, 5*time.Millisecond)
	d.add(FileChangeEvent{Path: "a.go"}, handler)
	require.Eventually(t, func() bool { return count() == 2 }, time.Second, 5*time.Millisecond)
}

func TestIsSource(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Output.Suffix = "_tick"
	fw := &FileWatcher{config: cfg}

	assert.True(t, fw.isSource("pkg/a.go"))
	assert.False(t, fw.isSource("pkg/a_tick.go"))
	assert.False(t, fw.isSource("pkg/a_test.go"))
	assert.False(t, fw.isSource("pkg/.a.go"))
	assert.False(t, fw.isSource("pkg/a.txt"))
	assert.False(t, fw.isSource("vendor/x/a.go"))

	cfg.Files.IncludeTests = true
	assert.True(t, fw.isSource("pkg/a_test.go"))

	cfg.Output.Suffix = ""
	assert.False(t, fw.isSource("pkg/a.go"), "in-place output would retrigger itself")
}

func TestEventOpToString(t *testing.T) {
	assert.Equal(t, "CREATE", eventOpToString(fsnotify.Create))
	assert.Equal(t, "WRITE", eventOpToString(fsnotify.Write))
	assert.Equal(t, "REMOVE", eventOpToString(fsnotify.Remove))
	assert.Equal(t, "RENAME", eventOpToString(fsnotify.Rename))
	assert.Equal(t, "CHMOD", eventOpToString(fsnotify.Chmod))
}

func TestWatchDeliversWrites(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "sub"), 0755))
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "vendor"), 0755))

	cfg := config.DefaultConfig()
	cfg.Output.Suffix = "_tick"
	fw, err := NewFileWatcher(cfg, 20*time.Millisecond, logging.Nop())
	require.NoError(t, err)
	defer fw.Close()

	var b batches
	require.NoError(t, fw.Watch([]string{dir}, b.handle))
	assert.ElementsMatch(t, []string{dir, filepath.Join(dir, "sub")}, fw.GetWatchedPaths())

	target := filepath.Join(dir, "sub", "a.go")
	require.NoError(t, os.WriteFile(target, []byte("package sub\n"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "sub", "a_tick.go"), []byte("package sub\n"), 0644))

	require.Eventually(t, func() bool { return len(b.snapshot()) > 0 }, 2*time.Second, 10*time.Millisecond)
	for _, batch := range b.snapshot() {
		assert.Equal(t, []string{target}, batch)
	}
}

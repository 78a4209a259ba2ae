package scanner

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/fsnotify/fsnotify"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWatcherRelevant(t *testing.T) {
	root := t.TempDir()
	w := &Watcher{scanner: newTestScanner(root)}

	event := func(rel string, op fsnotify.Op) fsnotify.Event {
		return fsnotify.Event{Name: filepath.Join(root, filepath.FromSlash(rel)), Op: op}
	}

	assert.True(t, w.relevant(event("docs/FEATURES.md", fsnotify.Write)))
	assert.True(t, w.relevant(event("pkg/core.go", fsnotify.Create)))
	assert.True(t, w.relevant(event("docs/DDD-STATUS.yml", fsnotify.Remove)))

	// Chmod alone never triggers a re-scan.
	assert.False(t, w.relevant(event("pkg/core.go", fsnotify.Chmod)))
	// Report output must not re-trigger the scan that produced it.
	assert.False(t, w.relevant(event(".agent3d-tmp/drift-reports/drift-report.yml", fsnotify.Write)))
	// Unsupported file types are ignored.
	assert.False(t, w.relevant(event("assets/logo.svg", fsnotify.Write)))
}

func TestWatcherTracksNewDirectories(t *testing.T) {
	root := t.TempDir()
	w, err := NewWatcher(newTestScanner(root), WatchConfig{})
	require.NoError(t, err)
	defer w.watcher.Close()
	require.NoError(t, w.addDirectories())

	// A created directory has no file extension, but its future contents
	// must keep triggering scans.
	dir := filepath.Join(root, "docs")
	require.NoError(t, os.Mkdir(dir, 0755))
	w.handleEvent(fsnotify.Event{Name: dir, Op: fsnotify.Create})

	assert.Contains(t, w.watcher.WatchList(), dir)
	// The directory may have been renamed into place with files inside.
	assert.Equal(t, 1, w.pending)

	// Skipped directories stay unwatched.
	vendor := filepath.Join(root, "vendor")
	require.NoError(t, os.Mkdir(vendor, 0755))
	w.handleEvent(fsnotify.Event{Name: vendor, Op: fsnotify.Create})
	assert.NotContains(t, w.watcher.WatchList(), vendor)
}

func TestNewWatcherPerInstanceMetrics(t *testing.T) {
	s := newTestScanner(t.TempDir())

	first, err := NewWatcher(s, WatchConfig{})
	require.NoError(t, err)
	defer first.watcher.Close()

	// A second watcher must not collide with the first's collectors.
	second, err := NewWatcher(s, WatchConfig{})
	require.NoError(t, err)
	defer second.watcher.Close()

	assert.NotSame(t, first.registry, second.registry)
}

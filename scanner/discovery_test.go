package scanner

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agent3d/agent3d/config"
	_ "github.com/agent3d/agent3d/scanner/lang/golang"
)

func writeFile(t *testing.T, root, rel, content string) {
	t.Helper()
	path := filepath.Join(root, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
}

func TestDiscoverClassifiesFiles(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "README.md", "# Demo")
	writeFile(t, root, "docs/FEATURES.md", "# Features")
	writeFile(t, root, "docs/DDD-STATUS.yml", "passes: []")
	writeFile(t, root, "settings.yml", "key: value")
	writeFile(t, root, "main.go", "package main\n")
	writeFile(t, root, "pkg/core.go", "package pkg\n")
	writeFile(t, root, "vendor/dep.go", "package dep\n")
	writeFile(t, root, ".hidden/secret.go", "package secret\n")
	writeFile(t, root, "assets/logo.svg", "<svg/>")

	set, err := NewDiscoverer(root, config.DefaultConfig(), nil, nil).Discover()
	require.NoError(t, err)

	assert.Equal(t, []string{"README.md", "docs/DDD-STATUS.yml", "docs/FEATURES.md"}, set.Docs)
	assert.Equal(t, []string{"main.go", "pkg/core.go"}, set.Source)
}

func TestDiscoverHonorsExcludeGlobs(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "main.go", "package main\n")
	writeFile(t, root, "gen/api.go", "package gen\n")

	cfg := config.DefaultConfig()
	cfg.LanguageConfig.Exclude = append(cfg.LanguageConfig.Exclude, "gen/**")

	set, err := NewDiscoverer(root, cfg, nil, nil).Discover()
	require.NoError(t, err)

	assert.Equal(t, []string{"main.go"}, set.Source)
}

func TestDiscoverSourceDirScoping(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "src/app.go", "package app\n")
	writeFile(t, root, "scripts/tool.go", "package tool\n")
	writeFile(t, root, "tests/app_test.go", "package app\n")

	cfg := config.DefaultConfig()
	cfg.LanguageConfig.SourceDirs = []string{"src"}
	cfg.LanguageConfig.TestDirs = []string{"tests"}

	set, err := NewDiscoverer(root, cfg, nil, nil).Discover()
	require.NoError(t, err)

	assert.Equal(t, []string{"src/app.go", "tests/app_test.go"}, set.Source)
}

func TestRestrictKeepsDocsFull(t *testing.T) {
	set := &FileSet{
		Docs:   []string{"docs/FEATURES.md", "docs/TEST-CASES.md"},
		Source: []string{"a.go", "b.go", "c.go"},
	}

	restricted := set.Restrict([]string{"b.go", "docs/FEATURES.md", "unknown.go"})

	// The documented-identifier inventory must stay complete regardless of
	// scope; only the code side narrows.
	assert.Equal(t, set.Docs, restricted.Docs)
	assert.Equal(t, []string{"b.go"}, restricted.Source)
}

func TestRestrictRecent(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "old.go", "package main\n")
	writeFile(t, root, "new.go", "package main\n")

	now := time.Now()
	stale := now.AddDate(0, 0, -30)
	require.NoError(t, os.Chtimes(filepath.Join(root, "old.go"), stale, stale))

	set := &FileSet{Source: []string{"old.go", "new.go"}}
	restricted := set.RestrictRecent(root, 7, now)

	assert.Equal(t, []string{"new.go"}, restricted.Source)
}

package scanner

import (
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/agent3d/agent3d/config"
	"github.com/agent3d/agent3d/scanner/lang"
)

// FileSet is the discovered input of one scan: documentation files and
// parseable source files, all paths relative to the project root with
// forward slashes.
type FileSet struct {
	Docs   []string
	Source []string
}

// skipDirs are directory names never descended into, independent of the
// configured exclude globs.
var skipDirs = map[string]bool{
	".git":         true,
	"vendor":       true,
	"node_modules": true,
	"__pycache__":  true,
	".venv":        true,
	"venv":         true,
	"dist":         true,
	"build":        true,
	"target":       true,
	".agent3d-tmp": true,
}

// Discoverer walks a project tree and classifies files.
type Discoverer struct {
	root     string
	cfg      *config.Config
	registry *lang.Registry
	logger   *slog.Logger
}

// NewDiscoverer creates a Discoverer rooted at root.
func NewDiscoverer(root string, cfg *config.Config, registry *lang.Registry, logger *slog.Logger) *Discoverer {
	if registry == nil {
		registry = lang.DefaultRegistry
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Discoverer{root: root, cfg: cfg, registry: registry, logger: logger}
}

// Discover walks the tree and returns the classified file set.
func (d *Discoverer) Discover() (*FileSet, error) {
	set := &FileSet{}

	err := filepath.WalkDir(d.root, func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			d.logger.Warn("Skipping unreadable path", slog.String("path", path), slog.String("error", err.Error()))
			if entry != nil && entry.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		rel, relErr := filepath.Rel(d.root, path)
		if relErr != nil {
			return nil
		}
		rel = filepath.ToSlash(rel)

		if entry.IsDir() {
			name := entry.Name()
			if rel != "." && (skipDirs[name] || strings.HasPrefix(name, ".")) {
				return filepath.SkipDir
			}
			return nil
		}

		if d.excluded(rel) {
			return nil
		}

		switch {
		case d.isDoc(rel):
			set.Docs = append(set.Docs, rel)
		case d.registry.Supports(filepath.Ext(rel)):
			if d.inSourceScope(rel) {
				set.Source = append(set.Source, rel)
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk project tree: %w", err)
	}

	sort.Strings(set.Docs)
	sort.Strings(set.Source)
	return set, nil
}

// Restrict filters the set down to the given relative paths (changed-file
// scoping). Doc files are always kept in full so the documented-identifier
// inventory stays complete; only the code side is narrowed.
func (s *FileSet) Restrict(paths []string) *FileSet {
	keep := make(map[string]bool, len(paths))
	for _, p := range paths {
		keep[filepath.ToSlash(p)] = true
	}

	out := &FileSet{Docs: s.Docs}
	for _, f := range s.Source {
		if keep[f] {
			out.Source = append(out.Source, f)
		}
	}
	return out
}

// RestrictRecent narrows the code side to files modified within the window.
func (s *FileSet) RestrictRecent(root string, days int, now time.Time) *FileSet {
	cutoff := now.AddDate(0, 0, -days)

	out := &FileSet{Docs: s.Docs}
	for _, f := range s.Source {
		info, err := os.Stat(filepath.Join(root, f))
		if err != nil {
			continue
		}
		if info.ModTime().After(cutoff) {
			out.Source = append(out.Source, f)
		}
	}
	return out
}

func (d *Discoverer) excluded(rel string) bool {
	for _, pattern := range d.cfg.LanguageConfig.Exclude {
		if ok, err := doublestar.Match(pattern, rel); err == nil && ok {
			return true
		}
	}
	return false
}

// isDoc reports whether the path is a documentation file: markdown or YAML
// under a configured docs directory, or a root-level markdown file.
func (d *Discoverer) isDoc(rel string) bool {
	ext := filepath.Ext(rel)
	if ext != ".md" && ext != ".yml" && ext != ".yaml" {
		return false
	}

	docsDirs := d.cfg.LanguageConfig.DocsDirs
	if len(docsDirs) == 0 {
		docsDirs = []string{"docs"}
	}
	for _, dir := range docsDirs {
		prefix := filepath.ToSlash(dir) + "/"
		if strings.HasPrefix(rel, prefix) {
			return true
		}
	}

	// Root-level markdown (README.md, FEATURES.md) counts as documentation;
	// root-level YAML is usually tool config and does not.
	return ext == ".md" && !strings.Contains(rel, "/")
}

// inSourceScope applies the configured source/test directory narrowing.
func (d *Discoverer) inSourceScope(rel string) bool {
	scopes := make([]string, 0, len(d.cfg.LanguageConfig.SourceDirs)+len(d.cfg.LanguageConfig.TestDirs))
	scopes = append(scopes, d.cfg.LanguageConfig.SourceDirs...)
	scopes = append(scopes, d.cfg.LanguageConfig.TestDirs...)
	if len(scopes) == 0 {
		return true
	}
	for _, dir := range scopes {
		prefix := filepath.ToSlash(dir)
		if rel == prefix || strings.HasPrefix(rel, prefix+"/") {
			return true
		}
	}
	return false
}

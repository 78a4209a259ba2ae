package migrate

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/agent3d/agent3d/config"
)

// legacyMarkerFile is the pre-migration configuration marker name.
const legacyMarkerFile = ".agent3d.yml"

// backupPaths lists the root-relative paths a backup covers: the
// documentation tree, the configuration marker, and any root-level markdown
// (pre-migration layouts kept docs at the root).
func (m *Manager) backupPaths() ([]string, error) {
	paths := []string{}

	if _, err := os.Stat(filepath.Join(m.root, "docs")); err == nil {
		paths = append(paths, "docs")
	}
	for _, marker := range []string{config.MarkerFile, legacyMarkerFile} {
		if _, err := os.Stat(filepath.Join(m.root, marker)); err == nil {
			paths = append(paths, marker)
		}
	}

	entries, err := os.ReadDir(m.root)
	if err != nil {
		return nil, fmt.Errorf("read project root: %w", err)
	}
	for _, entry := range entries {
		if !entry.IsDir() && strings.HasSuffix(entry.Name(), ".md") {
			paths = append(paths, entry.Name())
		}
	}
	return paths, nil
}

// backup snapshots the documentation surface into a timestamped directory and
// returns its root-relative path.
func (m *Manager) backup(migrationID string) (string, error) {
	rel := filepath.ToSlash(filepath.Join(BackupDir,
		m.now().UTC().Format("20060102T150405")+"-"+migrationID))
	dest := filepath.Join(m.root, filepath.FromSlash(rel))

	if err := os.MkdirAll(dest, 0755); err != nil {
		return "", fmt.Errorf("create backup directory: %w", err)
	}

	paths, err := m.backupPaths()
	if err != nil {
		return "", err
	}
	for _, p := range paths {
		if err := copyTree(filepath.Join(m.root, p), filepath.Join(dest, p)); err != nil {
			return "", fmt.Errorf("back up %s: %w", p, err)
		}
	}
	return rel, nil
}

// restore puts the documentation surface back to the backed-up state: the
// docs tree and config markers are replaced wholesale (removed when absent
// from the backup), then backed-up files overwrite current ones.
func (m *Manager) restore(backupRel string) error {
	src := filepath.Join(m.root, filepath.FromSlash(backupRel))
	if _, err := os.Stat(src); err != nil {
		return fmt.Errorf("backup missing: %w", err)
	}

	for _, p := range []string{"docs", config.MarkerFile, legacyMarkerFile} {
		if err := os.RemoveAll(filepath.Join(m.root, p)); err != nil {
			return fmt.Errorf("clear %s: %w", p, err)
		}
	}

	return copyTree(src, m.root)
}

// copyTree copies a file or directory tree, preserving relative layout.
func copyTree(src, dest string) error {
	info, err := os.Stat(src)
	if err != nil {
		return err
	}

	if !info.IsDir() {
		return copyFile(src, dest)
	}

	return filepath.WalkDir(src, func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(src, path)
		if err != nil {
			return err
		}
		target := filepath.Join(dest, rel)
		if entry.IsDir() {
			return os.MkdirAll(target, 0755)
		}
		return copyFile(path, target)
	})
}

func copyFile(src, dest string) error {
	data, err := os.ReadFile(src)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(dest), 0755); err != nil {
		return err
	}
	return os.WriteFile(dest, data, 0644)
}

// moveFile renames src to dest, erroring when dest already exists.
func moveFile(root, src, dest string) error {
	srcPath := filepath.Join(root, filepath.FromSlash(src))
	destPath := filepath.Join(root, filepath.FromSlash(dest))

	if _, err := os.Stat(srcPath); err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	if _, err := os.Stat(destPath); err == nil {
		return fmt.Errorf("cannot move %s: %s already exists", src, dest)
	}

	if err := os.MkdirAll(filepath.Dir(destPath), 0755); err != nil {
		return err
	}
	return os.Rename(srcPath, destPath)
}

// builtins is the ordered built-in migration set.
func builtins() []Migration {
	return []Migration{
		{
			ID:          "001-docs-dir",
			Description: "Move root-level documentation into docs/",
			Apply: func(root string) error {
				for _, name := range []string{"FEATURES.md", "TEST-CASES.md", "REQUIREMENTS.md", "HIGH-LEVEL-DESIGN.md"} {
					if err := moveFile(root, name, "docs/"+name); err != nil {
						return err
					}
				}
				return nil
			},
		},
		{
			ID:          "002-config-marker",
			Description: "Rename the legacy .agent3d.yml marker to " + config.MarkerFile,
			Apply: func(root string) error {
				return moveFile(root, legacyMarkerFile, config.MarkerFile)
			},
		},
		{
			ID:          "003-runs-dir",
			Description: "Move execution plans from docs/ into docs/runs/",
			Apply: func(root string) error {
				matches, err := filepath.Glob(filepath.Join(root, "docs", "EXEC-PLAN-*.yml"))
				if err != nil {
					return err
				}
				for _, match := range matches {
					name := filepath.Base(match)
					if err := moveFile(root, "docs/"+name, "docs/runs/"+name); err != nil {
						return err
					}
				}
				return nil
			},
		},
	}
}

package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

// ErrNoProjectRoot indicates no .agent3d-config.yml marker was found in the
// start directory or any parent. Callers treat this as "run a Foundation
// pass" (initialize) rather than a crash, but scans fail fast on it.
var ErrNoProjectRoot = errors.New("no Agent3D project root found (missing " + MarkerFile + ")")

// Loader handles configuration loading anchored at the project root marker.
type Loader struct {
	logger *slog.Logger
}

// NewLoader creates a new configuration loader.
func NewLoader(logger *slog.Logger) *Loader {
	if logger == nil {
		logger = slog.Default()
	}
	return &Loader{logger: logger}
}

// FindProjectRoot walks from startDir upward looking for the marker file.
// Returns ErrNoProjectRoot when the filesystem root is reached without a hit.
func FindProjectRoot(startDir string) (string, error) {
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return "", fmt.Errorf("resolve start directory: %w", err)
	}

	for {
		markerPath := filepath.Join(dir, MarkerFile)
		if info, err := os.Stat(markerPath); err == nil && !info.IsDir() {
			return dir, nil
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}

	return "", ErrNoProjectRoot
}

// Load locates the project root from startDir and loads its configuration.
// Returns the loaded config and the resolved project root.
func (l *Loader) Load(startDir string) (*Config, string, error) {
	root, err := FindProjectRoot(startDir)
	if err != nil {
		return nil, "", err
	}

	cfg, err := LoadFromFile(filepath.Join(root, MarkerFile))
	if err != nil {
		return nil, "", err
	}

	if cfg.Project.Name == "" {
		cfg.Project.Name = filepath.Base(root)
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", fmt.Errorf("invalid configuration: %w", err)
	}

	l.logger.Debug("Loaded project config",
		slog.String("root", root),
		slog.String("project", cfg.Project.Name))

	return cfg, root, nil
}

// Init writes a default configuration at dir, refusing to overwrite an
// existing one. Returns the path written.
func (l *Loader) Init(dir, projectName string) (string, error) {
	path := filepath.Join(dir, MarkerFile)
	if _, err := os.Stat(path); err == nil {
		return "", fmt.Errorf("configuration already exists: %s", path)
	}

	cfg := DefaultConfig()
	if projectName == "" {
		abs, err := filepath.Abs(dir)
		if err != nil {
			return "", fmt.Errorf("resolve directory: %w", err)
		}
		projectName = filepath.Base(abs)
	}
	cfg.Project.Name = projectName

	if err := cfg.SaveToFile(path); err != nil {
		return "", err
	}

	l.logger.Info("Created project config", slog.String("path", path))
	return path, nil
}

// DetectGitRoot finds the git repository root from dir. Returns "" when dir
// is not inside a git worktree.
func DetectGitRoot(dir string) string {
	cmd := exec.Command("git", "rev-parse", "--show-toplevel")
	cmd.Dir = dir
	output, err := cmd.Output()
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(output))
}

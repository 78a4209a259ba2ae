// Package config provides configuration loading and management for Agent3D.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// MarkerFile is the project-root marker and configuration file name.
// Its presence defines the Agent3D project root.
const MarkerFile = ".agent3d-config.yml"

// Config represents the complete Agent3D project configuration.
// It is loaded once per invocation into an immutable value and passed
// explicitly; nothing re-reads the file mid-operation.
type Config struct {
	Project           ProjectConfig         `yaml:"project"`
	EnabledPasses     []string              `yaml:"enabled_passes"`
	PassConfig        map[string]PassConfig `yaml:"pass_config,omitempty"`
	GitWorkflow       GitWorkflowConfig     `yaml:"git_workflow"`
	QualityGates      QualityGatesConfig    `yaml:"quality_gates"`
	TemplateOverrides map[string]string     `yaml:"template_overrides,omitempty"`
	LanguageConfig    LanguageConfig        `yaml:"language_config"`
}

// ProjectConfig identifies the project being tracked.
type ProjectConfig struct {
	// Name is the human-readable project name.
	Name string `yaml:"name"`
	// Language is the primary implementation language (go, python, ...).
	Language string `yaml:"language"`
	// QualityLevel tunes how strict the quality gates are (strict, balanced, relaxed).
	QualityLevel string `yaml:"quality_level"`
}

// PassConfig carries per-pass overrides keyed by pass name in the
// enabled_passes list.
type PassConfig struct {
	// Enabled toggles the pass without removing it from enabled_passes.
	Enabled *bool `yaml:"enabled,omitempty"`
	// SkipSections lists documentation sections the pass ignores.
	SkipSections []string `yaml:"skip_sections,omitempty"`
	// Options holds free-form pass-specific settings.
	Options map[string]string `yaml:"options,omitempty"`
}

// GitWorkflowConfig configures how scoped scans resolve git references.
type GitWorkflowConfig struct {
	// MainBranch is the branch --pr-diff diffs against (default: main).
	MainBranch string `yaml:"main_branch"`
	// CommitStyle documents the expected commit message convention.
	CommitStyle string `yaml:"commit_style,omitempty"`
	// RequireCleanTree blocks migrations when the worktree is dirty.
	RequireCleanTree bool `yaml:"require_clean_tree,omitempty"`
}

// QualityGatesConfig holds the drift thresholds and gate checks.
type QualityGatesConfig struct {
	// DriftLowPercent is the upper bound of the "low" drift band.
	// Drift at or above this value is at least moderate. Default 10.
	DriftLowPercent float64 `yaml:"drift_low_percent"`
	// DriftHighPercent is the upper bound of the "medium" band.
	// Drift strictly above this value is high. Default 25.
	DriftHighPercent float64 `yaml:"drift_high_percent"`
	// Checks is the ordered list of gate checks.
	Checks []GateCheck `yaml:"checks,omitempty"`
}

// GateCheck defines a single quality gate.
type GateCheck struct {
	// Name is the unique identifier for this check (e.g. "tc-mapping").
	Name string `yaml:"name"`
	// Mode is the scanner mode the check runs.
	Mode string `yaml:"mode"`
	// Trigger is a list of doublestar glob patterns; the check applies only
	// when a changed file matches at least one pattern. Empty means always.
	Trigger []string `yaml:"trigger,omitempty"`
	// Required indicates whether a high drift result blocks the gate.
	Required bool `yaml:"required"`
}

// LanguageConfig scopes file discovery.
type LanguageConfig struct {
	// SourceDirs lists directories containing project source. Empty means
	// the whole tree.
	SourceDirs []string `yaml:"source_dirs,omitempty"`
	// TestDirs lists directories containing tests. Empty means tests are
	// detected by filename convention anywhere.
	TestDirs []string `yaml:"test_dirs,omitempty"`
	// DocsDirs lists directories containing documentation (default: docs).
	DocsDirs []string `yaml:"docs_dirs,omitempty"`
	// Exclude lists doublestar glob patterns for paths to skip.
	Exclude []string `yaml:"exclude,omitempty"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Project: ProjectConfig{
			Name:         "",
			Language:     "go",
			QualityLevel: "balanced",
		},
		EnabledPasses: []string{
			"requirements", "foundation", "documentation", "development",
			"testing", "refactoring", "code_review", "synchronization",
			"quality", "prune", "reverse",
		},
		GitWorkflow: GitWorkflowConfig{
			MainBranch: "main",
		},
		QualityGates: QualityGatesConfig{
			DriftLowPercent:  10,
			DriftHighPercent: 25,
		},
		LanguageConfig: LanguageConfig{
			DocsDirs: []string{"docs"},
			Exclude: []string{
				"**/vendor/**",
				"**/node_modules/**",
				"**/.git/**",
				"**/.agent3d-tmp/**",
			},
		},
	}
}

// Validate checks that the configuration is valid.
func (c *Config) Validate() error {
	if c.Project.Name == "" {
		return fmt.Errorf("project.name is required")
	}
	if c.QualityGates.DriftLowPercent <= 0 || c.QualityGates.DriftLowPercent > 100 {
		return fmt.Errorf("quality_gates.drift_low_percent must be in (0, 100]")
	}
	if c.QualityGates.DriftHighPercent < c.QualityGates.DriftLowPercent {
		return fmt.Errorf("quality_gates.drift_high_percent must be >= drift_low_percent")
	}
	if c.QualityGates.DriftHighPercent > 100 {
		return fmt.Errorf("quality_gates.drift_high_percent must be <= 100")
	}
	for _, check := range c.QualityGates.Checks {
		if check.Name == "" {
			return fmt.Errorf("quality_gates.checks entries require a name")
		}
		if check.Mode == "" {
			return fmt.Errorf("quality gate %q requires a mode", check.Name)
		}
	}
	return nil
}

// LoadFromFile loads configuration from a YAML file on top of defaults.
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	config := DefaultConfig()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("parse config file: %w", err)
	}

	return config, nil
}

// SaveToFile saves configuration to a YAML file.
func (c *Config) SaveToFile(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write config file: %w", err)
	}

	return nil
}

// Merge merges another config into this one (other takes precedence for
// non-zero values).
func (c *Config) Merge(other *Config) {
	if other == nil {
		return
	}

	if other.Project.Name != "" {
		c.Project.Name = other.Project.Name
	}
	if other.Project.Language != "" {
		c.Project.Language = other.Project.Language
	}
	if other.Project.QualityLevel != "" {
		c.Project.QualityLevel = other.Project.QualityLevel
	}

	if len(other.EnabledPasses) > 0 {
		c.EnabledPasses = other.EnabledPasses
	}
	if len(other.PassConfig) > 0 {
		if c.PassConfig == nil {
			c.PassConfig = make(map[string]PassConfig, len(other.PassConfig))
		}
		for name, pc := range other.PassConfig {
			c.PassConfig[name] = pc
		}
	}

	if other.GitWorkflow.MainBranch != "" {
		c.GitWorkflow.MainBranch = other.GitWorkflow.MainBranch
	}
	if other.GitWorkflow.CommitStyle != "" {
		c.GitWorkflow.CommitStyle = other.GitWorkflow.CommitStyle
	}
	if other.GitWorkflow.RequireCleanTree {
		c.GitWorkflow.RequireCleanTree = true
	}

	if other.QualityGates.DriftLowPercent != 0 {
		c.QualityGates.DriftLowPercent = other.QualityGates.DriftLowPercent
	}
	if other.QualityGates.DriftHighPercent != 0 {
		c.QualityGates.DriftHighPercent = other.QualityGates.DriftHighPercent
	}
	if len(other.QualityGates.Checks) > 0 {
		c.QualityGates.Checks = other.QualityGates.Checks
	}

	if len(other.TemplateOverrides) > 0 {
		if c.TemplateOverrides == nil {
			c.TemplateOverrides = make(map[string]string, len(other.TemplateOverrides))
		}
		for name, path := range other.TemplateOverrides {
			c.TemplateOverrides[name] = path
		}
	}

	if len(other.LanguageConfig.SourceDirs) > 0 {
		c.LanguageConfig.SourceDirs = other.LanguageConfig.SourceDirs
	}
	if len(other.LanguageConfig.TestDirs) > 0 {
		c.LanguageConfig.TestDirs = other.LanguageConfig.TestDirs
	}
	if len(other.LanguageConfig.DocsDirs) > 0 {
		c.LanguageConfig.DocsDirs = other.LanguageConfig.DocsDirs
	}
	if len(other.LanguageConfig.Exclude) > 0 {
		c.LanguageConfig.Exclude = other.LanguageConfig.Exclude
	}
}

// PassEnabled reports whether a pass is active, honoring both enabled_passes
// and any per-pass override in pass_config.
func (c *Config) PassEnabled(name string) bool {
	listed := false
	for _, p := range c.EnabledPasses {
		if p == name {
			listed = true
			break
		}
	}
	if !listed {
		return false
	}
	if pc, ok := c.PassConfig[name]; ok && pc.Enabled != nil {
		return *pc.Enabled
	}
	return true
}

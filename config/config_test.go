package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, "go", cfg.Project.Language)
	assert.Len(t, cfg.EnabledPasses, 11)
	assert.Equal(t, "main", cfg.GitWorkflow.MainBranch)
	assert.Equal(t, 10.0, cfg.QualityGates.DriftLowPercent)
	assert.Equal(t, 25.0, cfg.QualityGates.DriftHighPercent)
	assert.Contains(t, cfg.LanguageConfig.Exclude, "**/vendor/**")
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"valid defaults with name", func(c *Config) { c.Project.Name = "demo" }, false},
		{"missing project name", func(c *Config) {}, true},
		{"zero low threshold", func(c *Config) {
			c.Project.Name = "demo"
			c.QualityGates.DriftLowPercent = 0
		}, true},
		{"high below low", func(c *Config) {
			c.Project.Name = "demo"
			c.QualityGates.DriftHighPercent = 5
		}, true},
		{"gate without mode", func(c *Config) {
			c.Project.Name = "demo"
			c.QualityGates.Checks = []GateCheck{{Name: "gate"}}
		}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, MarkerFile)

	content := `project:
  name: demo
  language: python
enabled_passes:
  - foundation
  - synchronization
git_workflow:
  main_branch: trunk
quality_gates:
  drift_low_percent: 5
template_overrides:
  FEATURES.md: docs/templates/features.md
language_config:
  docs_dirs:
    - documentation
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	cfg, err := LoadFromFile(path)
	require.NoError(t, err)

	assert.Equal(t, "demo", cfg.Project.Name)
	assert.Equal(t, "python", cfg.Project.Language)
	assert.Equal(t, []string{"foundation", "synchronization"}, cfg.EnabledPasses)
	assert.Equal(t, "trunk", cfg.GitWorkflow.MainBranch)
	assert.Equal(t, 5.0, cfg.QualityGates.DriftLowPercent)
	// Defaults survive partial files.
	assert.Equal(t, 25.0, cfg.QualityGates.DriftHighPercent)
	assert.Equal(t, "docs/templates/features.md", cfg.TemplateOverrides["FEATURES.md"])
	assert.Equal(t, []string{"documentation"}, cfg.LanguageConfig.DocsDirs)
}

func TestConfig_SaveAndReload(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "sub", MarkerFile)

	cfg := DefaultConfig()
	cfg.Project.Name = "roundtrip"
	cfg.QualityGates.Checks = []GateCheck{
		{Name: "tc", Mode: "tc-mapping", Trigger: []string{"**/*_test.go"}, Required: true},
	}
	require.NoError(t, cfg.SaveToFile(path))

	loaded, err := LoadFromFile(path)
	require.NoError(t, err)
	assert.Equal(t, cfg.Project.Name, loaded.Project.Name)
	require.Len(t, loaded.QualityGates.Checks, 1)
	assert.Equal(t, "tc-mapping", loaded.QualityGates.Checks[0].Mode)
	assert.True(t, loaded.QualityGates.Checks[0].Required)
}

func TestConfig_Merge(t *testing.T) {
	base := DefaultConfig()
	base.Project.Name = "base"

	override := &Config{}
	override.Project.Language = "rust"
	override.QualityGates.DriftHighPercent = 30
	override.TemplateOverrides = map[string]string{"TEST-CASES.md": "custom.md"}

	base.Merge(override)

	assert.Equal(t, "base", base.Project.Name)
	assert.Equal(t, "rust", base.Project.Language)
	assert.Equal(t, 30.0, base.QualityGates.DriftHighPercent)
	assert.Equal(t, 10.0, base.QualityGates.DriftLowPercent)
	assert.Equal(t, "custom.md", base.TemplateOverrides["TEST-CASES.md"])
}

func TestConfig_PassEnabled(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Project.Name = "demo"

	assert.True(t, cfg.PassEnabled("synchronization"))
	assert.False(t, cfg.PassEnabled("unknown_pass"))

	off := false
	cfg.PassConfig = map[string]PassConfig{
		"prune": {Enabled: &off},
	}
	assert.False(t, cfg.PassEnabled("prune"))
}

func TestFindProjectRoot(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, MarkerFile), []byte("project:\n  name: demo\n"), 0644))

	nested := filepath.Join(root, "a", "b", "c")
	require.NoError(t, os.MkdirAll(nested, 0755))

	found, err := FindProjectRoot(nested)
	require.NoError(t, err)
	// Resolve symlinks so macOS /var vs /private/var temp dirs compare equal.
	wantRoot, _ := filepath.EvalSymlinks(root)
	gotRoot, _ := filepath.EvalSymlinks(found)
	assert.Equal(t, wantRoot, gotRoot)
}

func TestFindProjectRoot_Missing(t *testing.T) {
	dir := t.TempDir()
	_, err := FindProjectRoot(dir)
	assert.ErrorIs(t, err, ErrNoProjectRoot)
}

func TestLoader_Load(t *testing.T) {
	root := t.TempDir()
	cfg := DefaultConfig()
	cfg.Project.Name = "loaded"
	require.NoError(t, cfg.SaveToFile(filepath.Join(root, MarkerFile)))

	loader := NewLoader(nil)
	loaded, foundRoot, err := loader.Load(root)
	require.NoError(t, err)
	assert.Equal(t, "loaded", loaded.Project.Name)
	assert.NotEmpty(t, foundRoot)
}

func TestLoader_Init(t *testing.T) {
	dir := t.TempDir()
	loader := NewLoader(nil)

	path, err := loader.Init(dir, "fresh")
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var cfg Config
	require.NoError(t, yaml.Unmarshal(data, &cfg))
	assert.Equal(t, "fresh", cfg.Project.Name)

	// Second init refuses to overwrite.
	_, err = loader.Init(dir, "fresh")
	assert.Error(t, err)
}

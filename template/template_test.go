package template

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestNames(t *testing.T) {
	names := Names()
	assert.Equal(t, []string{"DDD-STATUS.yml", "EXEC-PLAN.yml", "FEATURES.md", "TEST-CASES.md"}, names)
}

func TestRenderSubstitutesPlaceholders(t *testing.T) {
	r := NewRenderer(t.TempDir(), nil)

	content, err := r.Render("FEATURES.md", map[string]string{"PROJECT_NAME": "Demo"})
	require.NoError(t, err)

	text := string(content)
	assert.Contains(t, text, "# Demo Features")
	assert.NotContains(t, text, "{{")
	assert.NotContains(t, text, "<template>")
	assert.NotContains(t, text, "<example>")
	assert.NotContains(t, text, "FT-SECTION-000")
}

func TestRenderUnresolvedPlaceholders(t *testing.T) {
	r := NewRenderer(t.TempDir(), nil)

	_, err := r.Render("EXEC-PLAN.yml", map[string]string{"SLUG": "change"})
	require.ErrorIs(t, err, ErrUnresolved)
	assert.Contains(t, err.Error(), "DATE")
	assert.Contains(t, err.Error(), "PLAN_ID")
	assert.Contains(t, err.Error(), "TITLE")
}

func TestRenderUnknownTemplate(t *testing.T) {
	r := NewRenderer(t.TempDir(), nil)
	_, err := r.Render("ROADMAP.md", nil)
	require.ErrorIs(t, err, ErrUnknownTemplate)
}

func TestRenderHonorsOverride(t *testing.T) {
	root := t.TempDir()
	override := filepath.Join(root, "custom-features.md")
	require.NoError(t, os.WriteFile(override, []byte("# {{PROJECT_NAME}} Catalog\n\n## All\n"), 0644))

	r := NewRenderer(root, map[string]string{"FEATURES.md": "custom-features.md"})
	content, err := r.Render("FEATURES.md", map[string]string{"PROJECT_NAME": "Demo"})
	require.NoError(t, err)
	assert.Equal(t, "# Demo Catalog\n\n## All\n", string(content))
}

func TestRenderedStatusTemplateIsValidYAML(t *testing.T) {
	r := NewRenderer(t.TempDir(), nil)

	content, err := r.Render("DDD-STATUS.yml", map[string]string{
		"PROJECT_NAME": "Demo",
		"DATE":         "2026-08-29T12:00:00Z",
	})
	require.NoError(t, err)

	var doc struct {
		Project string `yaml:"project"`
		Passes  []struct {
			Pass   string `yaml:"pass"`
			Status string `yaml:"status"`
		} `yaml:"passes"`
	}
	require.NoError(t, yaml.Unmarshal(content, &doc))
	assert.Equal(t, "Demo", doc.Project)
	require.Len(t, doc.Passes, 11)
	assert.Equal(t, "requirements", doc.Passes[0].Pass)
	assert.Equal(t, "pending", doc.Passes[0].Status)
}

func TestRenderToFile(t *testing.T) {
	root := t.TempDir()
	r := NewRenderer(root, nil)

	err := r.RenderToFile("TEST-CASES.md", "docs/TEST-CASES.md", map[string]string{"PROJECT_NAME": "Demo"})
	require.NoError(t, err)

	data, err := os.ReadFile(filepath.Join(root, "docs", "TEST-CASES.md"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "# Demo Test Cases")
}

func TestValidator(t *testing.T) {
	v := NewValidator()

	good := v.Validate("FEATURES.md", []byte("# Demo Features\n\n## Core\n\n- [ ] FT-CORE-001 - A feature\n"))
	assert.True(t, good.Valid)
	assert.Empty(t, good.MissingSections)

	bad := v.Validate("FEATURES.md", []byte("just some text"))
	assert.False(t, bad.Valid)
	assert.Len(t, bad.MissingSections, 2)

	scaffolded := v.Validate("TEST-CASES.md", []byte("# T\n\n## Core\n<template>\n- [ ] TC-X-000\n</template>\n"))
	assert.True(t, scaffolded.Valid)
	require.Len(t, scaffolded.Warnings, 1)
	assert.Contains(t, scaffolded.Warnings[0], "scaffolding")

	unknown := v.Validate("ROADMAP.md", []byte("anything"))
	assert.True(t, unknown.Valid)
	assert.NotEmpty(t, unknown.Warnings)
}

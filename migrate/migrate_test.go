package migrate

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func write(t *testing.T, root, rel, content string) {
	t.Helper()
	path := filepath.Join(root, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
}

func exists(root, rel string) bool {
	_, err := os.Stat(filepath.Join(root, filepath.FromSlash(rel)))
	return err == nil
}

func TestApplyBuiltins(t *testing.T) {
	root := t.TempDir()
	write(t, root, "FEATURES.md", "# Features\n")
	write(t, root, ".agent3d.yml", "project:\n  name: demo\n")
	write(t, root, "docs/EXEC-PLAN-change.yml", "slug: change\n")

	m := NewManager(root, nil)
	ran, err := m.Apply(context.Background())
	require.NoError(t, err)
	require.Len(t, ran, 3)

	assert.True(t, exists(root, "docs/FEATURES.md"))
	assert.False(t, exists(root, "FEATURES.md"))
	assert.True(t, exists(root, ".agent3d-config.yml"))
	assert.False(t, exists(root, ".agent3d.yml"))
	assert.True(t, exists(root, "docs/runs/EXEC-PLAN-change.yml"))
	assert.False(t, exists(root, "docs/EXEC-PLAN-change.yml"))

	// Tracker records every migration as applied.
	statuses, err := m.Status()
	require.NoError(t, err)
	require.Len(t, statuses, 3)
	for _, s := range statuses {
		require.NotNil(t, s.Record, "migration %s has no record", s.Migration.ID)
		assert.Equal(t, RecordApplied, s.Record.Status)
		assert.NotEmpty(t, s.Record.Backup)
	}
}

func TestApplyIsIdempotent(t *testing.T) {
	root := t.TempDir()
	write(t, root, "docs/FEATURES.md", "# Features\n")

	m := NewManager(root, nil)
	_, err := m.Apply(context.Background())
	require.NoError(t, err)

	ran, err := m.Apply(context.Background())
	require.NoError(t, err)
	assert.Empty(t, ran)
}

func TestApplyStopsAndRollsBackOnFailure(t *testing.T) {
	root := t.TempDir()
	write(t, root, "docs/FEATURES.md", "# original\n")

	m := NewManager(root, nil)
	m.migrations = []Migration{
		{
			ID:          "001-ok",
			Description: "succeeds",
			Apply:       func(string) error { return nil },
		},
		{
			ID:          "002-boom",
			Description: "mangles a doc then fails",
			Apply: func(r string) error {
				write(t, r, "docs/FEATURES.md", "# mangled\n")
				return errors.New("boom")
			},
		},
		{
			ID:          "003-never",
			Description: "must not run",
			Apply: func(string) error {
				t.Fatal("migration after a failure must not run")
				return nil
			},
		},
	}

	ran, err := m.Apply(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "002-boom")
	require.Len(t, ran, 1)

	// The mangled doc was restored from the backup.
	data, readErr := os.ReadFile(filepath.Join(root, "docs", "FEATURES.md"))
	require.NoError(t, readErr)
	assert.Equal(t, "# original\n", string(data))

	statuses, err := m.Status()
	require.NoError(t, err)
	assert.Equal(t, RecordApplied, statuses[0].Record.Status)
	assert.Equal(t, RecordFailed, statuses[1].Record.Status)
	assert.Equal(t, "boom", statuses[1].Record.Error)
	assert.Nil(t, statuses[2].Record)
}

func TestRollback(t *testing.T) {
	root := t.TempDir()
	write(t, root, "FEATURES.md", "# at root\n")

	m := NewManager(root, nil)
	m.migrations = m.migrations[:1] // 001-docs-dir only

	_, err := m.Apply(context.Background())
	require.NoError(t, err)
	require.True(t, exists(root, "docs/FEATURES.md"))

	rec, err := m.Rollback(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "001-docs-dir", rec.ID)
	assert.Equal(t, RecordRolledBack, rec.Status)

	assert.True(t, exists(root, "FEATURES.md"))
	assert.False(t, exists(root, "docs/FEATURES.md"))

	_, err = m.Rollback(context.Background())
	require.ErrorIs(t, err, ErrNothingToRoll)
}

func TestMoveFileConflicts(t *testing.T) {
	root := t.TempDir()
	write(t, root, "FEATURES.md", "root copy\n")
	write(t, root, "docs/FEATURES.md", "docs copy\n")

	err := moveFile(root, "FEATURES.md", "docs/FEATURES.md")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already exists")

	// Missing sources are skipped silently.
	require.NoError(t, moveFile(root, "ABSENT.md", "docs/ABSENT.md"))
}

func TestStatusBeforeAnyApply(t *testing.T) {
	m := NewManager(t.TempDir(), nil)
	statuses, err := m.Status()
	require.NoError(t, err)
	require.Len(t, statuses, 3)
	for _, s := range statuses {
		assert.Nil(t, s.Record)
	}
}

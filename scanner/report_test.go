package scanner

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileNamePerMode(t *testing.T) {
	assert.Equal(t, "drift-report.yml", FileName(ModeAll))
	assert.Equal(t, "tc-mapping-drift-report.yml", FileName(ModeTCMapping))
	assert.Equal(t, "test-quality-drift-report.yml", FileName(ModeTestQuality))
}

func TestReportWriteAndLoad(t *testing.T) {
	root := t.TempDir()
	report := &Report{
		Run: RunInfo{
			ID:          "run-1",
			GeneratedAt: timestamp(time.Date(2026, 8, 29, 12, 0, 0, 0, time.UTC)),
			Mode:        ModeTCMapping,
			Root:        root,
			Scope:       "full",
		},
		Summary: Summary{Expected: 4, Orphaned: 1, DriftPercent: 25, Level: DriftMedium, ExitCode: 1},
		Modes: []*ModeResult{{
			Mode:         ModeTCMapping,
			Counts:       Counts{Expected: 4, Mapped: 3, OrphanedInDocs: 1},
			DriftPercent: 25,
			Level:        DriftMedium,
			Records: []Record{
				{ID: "TC-CORE-001", Status: StatusMapped, CodeRefs: []string{"core_test.go:10"}},
				{ID: "TC-CORE-002", Status: StatusOrphanedInDocs, Detail: "no test implementation found"},
			},
		}},
		Warnings: []string{"docs/BROKEN.md: permission denied"},
	}

	path, err := report.Write(root, "")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(root, filepath.FromSlash(ReportDir), "tc-mapping-drift-report.yml"), path)

	loaded, err := LoadReport(path)
	require.NoError(t, err)
	assert.Equal(t, report.Run, loaded.Run)
	assert.Equal(t, report.Summary, loaded.Summary)
	require.Len(t, loaded.Modes, 1)
	assert.Equal(t, report.Modes[0].Records, loaded.Modes[0].Records)
	assert.Equal(t, report.Warnings, loaded.Warnings)
}

func TestReportWriteCustomPath(t *testing.T) {
	root := t.TempDir()
	custom := filepath.Join(root, "out", "report.yml")

	report := &Report{Run: RunInfo{Mode: ModeAll, Root: root, Scope: "full"}}
	path, err := report.Write(root, custom)
	require.NoError(t, err)
	assert.Equal(t, custom, path)

	_, err = os.Stat(custom)
	require.NoError(t, err)
}

func TestLoadReportErrors(t *testing.T) {
	_, err := LoadReport(filepath.Join(t.TempDir(), "absent.yml"))
	require.Error(t, err)

	bad := filepath.Join(t.TempDir(), "bad.yml")
	require.NoError(t, os.WriteFile(bad, []byte(":\tnot yaml"), 0644))
	_, err = LoadReport(bad)
	require.Error(t, err)
}

func TestTimestampSecondPrecisionUTC(t *testing.T) {
	ts := timestamp(time.Date(2026, 8, 29, 15, 4, 5, 999999999, time.FixedZone("X", 3600)))
	assert.Equal(t, "2026-08-29T14:04:05Z", ts)
}

package scanner

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// ReportDir is the fixed output directory for drift reports, relative to the
// project root.
const ReportDir = ".agent3d-tmp/drift-reports"

// RunInfo identifies one scanner invocation. ID and GeneratedAt are omitted
// in stable mode so unchanged trees produce byte-identical reports.
type RunInfo struct {
	ID          string `yaml:"id,omitempty"`
	GeneratedAt string `yaml:"generated_at,omitempty"`
	Mode        Mode   `yaml:"mode"`
	Root        string `yaml:"root"`
	Scope       string `yaml:"scope"`
}

// Summary aggregates the scan outcome across all executed modes.
type Summary struct {
	Expected     int        `yaml:"expected"`
	Orphaned     int        `yaml:"orphaned"`
	DriftPercent float64    `yaml:"drift_percent"`
	Level        DriftLevel `yaml:"drift_level"`
	ExitCode     int        `yaml:"exit_code"`
}

// Report is the YAML drift report artifact.
type Report struct {
	Run      RunInfo       `yaml:"run"`
	Summary  Summary       `yaml:"summary"`
	Modes    []*ModeResult `yaml:"modes"`
	Warnings []string      `yaml:"warnings,omitempty"`
}

// FileName returns the report file name for a mode: one file per mode, plus
// the combined drift-report.yml for all.
func FileName(mode Mode) string {
	if mode == ModeAll {
		return "drift-report.yml"
	}
	return string(mode) + "-drift-report.yml"
}

// Write marshals the report to YAML. When outputPath is empty the report
// lands in ReportDir under the project root; the path written is returned.
func (r *Report) Write(root, outputPath string) (string, error) {
	path := outputPath
	if path == "" {
		path = filepath.Join(root, filepath.FromSlash(ReportDir), FileName(r.Run.Mode))
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return "", fmt.Errorf("create report directory: %w", err)
	}

	data, err := yaml.Marshal(r)
	if err != nil {
		return "", fmt.Errorf("marshal report: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("write report: %w", err)
	}

	return path, nil
}

// LoadReport reads a previously written report back.
func LoadReport(path string) (*Report, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read report: %w", err)
	}
	var report Report
	if err := yaml.Unmarshal(data, &report); err != nil {
		return nil, fmt.Errorf("parse report: %w", err)
	}
	return &report, nil
}

// timestamp formats report times at second precision in UTC; sub-second
// noise would defeat report diffing.
func timestamp(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

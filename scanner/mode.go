package scanner

import (
	"fmt"
	"strings"
)

// Mode selects which traceability relationship a scan examines.
type Mode string

const (
	// ModeTCMapping maps documented test cases to test implementations.
	ModeTCMapping Mode = "tc-mapping"
	// ModeFTMapping maps features to the requirements they reference.
	ModeFTMapping Mode = "ft-mapping"
	// ModeFTTCMapping maps features to their linked test cases.
	ModeFTTCMapping Mode = "ft-tc-mapping"
	// ModeCodeCoverage maps source files to documented feature locations.
	ModeCodeCoverage Mode = "code-coverage"
	// ModeFeatureImpl verifies feature Code Locations resolve to real code.
	ModeFeatureImpl Mode = "feature-impl"
	// ModeTestQuality flags tests that exercise no project code.
	ModeTestQuality Mode = "test-quality"
	// ModeAll runs every mode and produces a combined report.
	ModeAll Mode = "all"
)

// Modes lists the individual scan modes in canonical order, excluding
// ModeAll.
var Modes = []Mode{
	ModeTCMapping,
	ModeFTMapping,
	ModeFTTCMapping,
	ModeCodeCoverage,
	ModeFeatureImpl,
	ModeTestQuality,
}

// ParseMode validates a mode string from the CLI.
func ParseMode(s string) (Mode, error) {
	mode := Mode(strings.ToLower(strings.TrimSpace(s)))
	if mode == ModeAll {
		return mode, nil
	}
	for _, m := range Modes {
		if mode == m {
			return mode, nil
		}
	}
	return "", fmt.Errorf("unknown mode %q (valid: %s, all)", s, strings.Join(modeNames(), ", "))
}

func modeNames() []string {
	names := make([]string, len(Modes))
	for i, m := range Modes {
		names[i] = string(m)
	}
	return names
}

// IsValid reports whether the mode is recognized.
func (m Mode) IsValid() bool {
	_, err := ParseMode(string(m))
	return err == nil
}

// Package passes defines the Agent3D pass catalog and the DDD-STATUS.yml
// status tracker. The catalog is static: pass guidance lives in project
// documentation, not in code; here a pass is a name, an ordering, its phase
// sequence, and the artifacts it owns.
package passes

import (
	"errors"
	"fmt"
	"strings"
)

// Phase is one stage of a pass execution cycle.
type Phase string

const (
	PhaseScan    Phase = "SCAN"
	PhaseDraft   Phase = "DRAFT"
	PhaseAsk     Phase = "ASK"
	PhaseSync    Phase = "SYNC"
	PhaseConfirm Phase = "CONFIRM"
)

// Pass is one entry of the static pass catalog.
type Pass struct {
	// Name is the configuration key for the pass (enabled_passes).
	Name string
	// Number is the canonical execution order, starting at 1.
	Number int
	// Title is the human-readable pass name.
	Title string
	// Purpose is a one-line summary of what the pass accomplishes.
	Purpose string
	// Phases is the ordered phase sequence.
	Phases []Phase
	// Artifacts lists the documentation artifacts the pass owns.
	Artifacts []string
}

// ErrUnknownPass is returned for names not in the catalog.
var ErrUnknownPass = errors.New("unknown pass")

var standardPhases = []Phase{PhaseScan, PhaseDraft, PhaseAsk, PhaseSync}

// Catalog is the ordered list of the eleven Agent3D passes.
var Catalog = []Pass{
	{
		Name:      "requirements",
		Number:    1,
		Title:     "Requirements",
		Purpose:   "Capture business requirements as REQ entries before any code exists",
		Phases:    standardPhases,
		Artifacts: []string{"docs/REQUIREMENTS.md", "docs/BUSINESS-OBJECTIVES.md"},
	},
	{
		Name:      "foundation",
		Number:    2,
		Title:     "Foundation",
		Purpose:   "Initialize project configuration and core documentation structure",
		Phases:    []Phase{PhaseScan, PhaseDraft, PhaseAsk, PhaseSync, PhaseConfirm},
		Artifacts: []string{".agent3d-config.yml", "docs/FEATURES.md", "docs/HIGH-LEVEL-DESIGN.md"},
	},
	{
		Name:      "documentation",
		Number:    3,
		Title:     "Documentation",
		Purpose:   "Document features, test cases, and acceptance criteria",
		Phases:    standardPhases,
		Artifacts: []string{"docs/FEATURES.md", "docs/TEST-CASES.md"},
	},
	{
		Name:      "development",
		Number:    4,
		Title:     "Development",
		Purpose:   "Implement documented features with execution plan checkpoints",
		Phases:    []Phase{PhaseScan, PhaseDraft, PhaseAsk, PhaseSync, PhaseConfirm},
		Artifacts: []string{"docs/runs/EXEC-PLAN-{slug}.yml"},
	},
	{
		Name:      "testing",
		Number:    5,
		Title:     "Testing",
		Purpose:   "Implement the tests documented as TC entries",
		Phases:    standardPhases,
		Artifacts: []string{"docs/TEST-CASES.md"},
	},
	{
		Name:      "refactoring",
		Number:    6,
		Title:     "Refactoring",
		Purpose:   "Clean up code structure without changing behavior",
		Phases:    standardPhases,
		Artifacts: nil,
	},
	{
		Name:      "code_review",
		Number:    7,
		Title:     "Code Review",
		Purpose:   "Review implementation against documented design decisions",
		Phases:    standardPhases,
		Artifacts: nil,
	},
	{
		Name:      "synchronization",
		Number:    8,
		Title:     "Synchronization",
		Purpose:   "Align documentation with code at any scale; drift scanning lives here",
		Phases:    standardPhases,
		Artifacts: []string{".agent3d-tmp/drift-reports/"},
	},
	{
		Name:      "quality",
		Number:    9,
		Title:     "Quality",
		Purpose:   "Verify documentation quality and apply quality gates",
		Phases:    standardPhases,
		Artifacts: []string{"docs/DDD-STATUS.yml"},
	},
	{
		Name:      "prune",
		Number:    10,
		Title:     "Prune",
		Purpose:   "Remove outdated or redundant documentation",
		Phases:    standardPhases,
		Artifacts: nil,
	},
	{
		Name:      "reverse",
		Number:    11,
		Title:     "Reverse",
		Purpose:   "Detect undocumented implementation and backfill documentation",
		Phases:    standardPhases,
		Artifacts: []string{"docs/FEATURES.md"},
	},
}

// ByName returns the catalog entry for a pass name.
func ByName(name string) (Pass, error) {
	key := strings.ToLower(strings.TrimSpace(name))
	for _, p := range Catalog {
		if p.Name == key {
			return p, nil
		}
	}
	return Pass{}, fmt.Errorf("%w: %q", ErrUnknownPass, name)
}

// Names returns the pass names in catalog order.
func Names() []string {
	names := make([]string, len(Catalog))
	for i, p := range Catalog {
		names[i] = p.Name
	}
	return names
}

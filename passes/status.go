package passes

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// StatusFile is the pass status tracker, relative to the project root.
const StatusFile = "docs/DDD-STATUS.yml"

// Status is the lifecycle state of one pass.
type Status string

const (
	StatusPending    Status = "pending"
	StatusInProgress Status = "in_progress"
	StatusComplete   Status = "complete"
	StatusFailed     Status = "failed"
)

// Sentinel errors for status operations.
var (
	ErrStatusNotFound    = errors.New("status file not found")
	ErrInvalidStatus     = errors.New("invalid status")
	ErrInvalidTransition = errors.New("invalid status transition")
)

// IsValid reports whether the status is a known state.
func (s Status) IsValid() bool {
	switch s {
	case StatusPending, StatusInProgress, StatusComplete, StatusFailed:
		return true
	}
	return false
}

// CanTransitionTo reports whether the transition is allowed. A pass starts
// pending, runs to complete or failed, and may be re-run from either terminal
// state. Terminal states never transition directly to each other.
func (s Status) CanTransitionTo(next Status) bool {
	if s == next {
		return false
	}
	switch s {
	case StatusPending:
		return next == StatusInProgress
	case StatusInProgress:
		return next == StatusComplete || next == StatusFailed
	case StatusComplete, StatusFailed:
		return next == StatusInProgress || next == StatusPending
	}
	return false
}

// PassStatus is the tracked state of one pass.
type PassStatus struct {
	Pass   string `yaml:"pass"`
	Status Status `yaml:"status"`
	// AlignmentPercent is how aligned docs and code are for this pass's
	// concern (100 - drift%).
	AlignmentPercent float64 `yaml:"alignment_percent"`
	DriftLevel       string  `yaml:"drift_level,omitempty"`
	StartedAt        string  `yaml:"started_at,omitempty"`
	CompletedAt      string  `yaml:"completed_at,omitempty"`
	Detail           string  `yaml:"detail,omitempty"`
}

// StatusDoc is the docs/DDD-STATUS.yml document.
type StatusDoc struct {
	Project   string        `yaml:"project,omitempty"`
	UpdatedAt string        `yaml:"updated_at"`
	Passes    []*PassStatus `yaml:"passes"`
}

// Entry returns the tracked status for a pass, or nil.
func (d *StatusDoc) Entry(pass string) *PassStatus {
	for _, p := range d.Passes {
		if p.Pass == pass {
			return p
		}
	}
	return nil
}

// Tracker loads and updates the status document for one project.
type Tracker struct {
	root string
	now  func() time.Time
}

// NewTracker creates a Tracker rooted at the project root.
func NewTracker(root string) *Tracker {
	return &Tracker{root: root, now: time.Now}
}

func (t *Tracker) path() string {
	return filepath.Join(t.root, filepath.FromSlash(StatusFile))
}

// Load reads the status document. A missing file yields a fresh document with
// every catalog pass pending; the Foundation pass creates it on first sync.
func (t *Tracker) Load() (*StatusDoc, error) {
	data, err := os.ReadFile(t.path())
	if err != nil {
		if os.IsNotExist(err) {
			return t.fresh(), nil
		}
		return nil, fmt.Errorf("read status file: %w", err)
	}

	var doc StatusDoc
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse status file: %w", err)
	}
	return &doc, nil
}

// Save writes the status document, stamping UpdatedAt.
func (t *Tracker) Save(doc *StatusDoc) error {
	doc.UpdatedAt = t.now().UTC().Format(time.RFC3339)

	if err := os.MkdirAll(filepath.Dir(t.path()), 0755); err != nil {
		return fmt.Errorf("create docs directory: %w", err)
	}

	data, err := yaml.Marshal(doc)
	if err != nil {
		return fmt.Errorf("marshal status: %w", err)
	}

	if err := os.WriteFile(t.path(), data, 0644); err != nil {
		return fmt.Errorf("write status file: %w", err)
	}
	return nil
}

// Transition moves a pass to a new status, enforcing the transition rules,
// and persists the document.
func (t *Tracker) Transition(pass string, next Status) (*StatusDoc, error) {
	// Normalize through the catalog so "Foundation" and "foundation" hit
	// the same entry.
	p, err := ByName(pass)
	if err != nil {
		return nil, err
	}
	if !next.IsValid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidStatus, next)
	}

	doc, err := t.Load()
	if err != nil {
		return nil, err
	}

	entry := doc.Entry(p.Name)
	if entry == nil {
		entry = &PassStatus{Pass: p.Name, Status: StatusPending}
		doc.Passes = append(doc.Passes, entry)
	}

	if !entry.Status.CanTransitionTo(next) {
		return nil, fmt.Errorf("%w: %s -> %s for pass %s", ErrInvalidTransition, entry.Status, next, p.Name)
	}

	now := t.now().UTC().Format(time.RFC3339)
	switch next {
	case StatusInProgress:
		entry.StartedAt = now
		entry.CompletedAt = ""
	case StatusComplete, StatusFailed:
		entry.CompletedAt = now
	}
	entry.Status = next

	if err := t.Save(doc); err != nil {
		return nil, err
	}
	return doc, nil
}

// RecordDrift writes a scan outcome onto the Synchronization pass entry:
// alignment is the complement of the drift percentage.
func (t *Tracker) RecordDrift(driftPercent float64, level string) error {
	doc, err := t.Load()
	if err != nil {
		return err
	}

	entry := doc.Entry("synchronization")
	if entry == nil {
		entry = &PassStatus{Pass: "synchronization", Status: StatusPending}
		doc.Passes = append(doc.Passes, entry)
	}

	entry.AlignmentPercent = 100 - driftPercent
	entry.DriftLevel = level
	return t.Save(doc)
}

// fresh builds a pending status document covering the full catalog.
func (t *Tracker) fresh() *StatusDoc {
	doc := &StatusDoc{}
	for _, p := range Catalog {
		doc.Passes = append(doc.Passes, &PassStatus{
			Pass:             p.Name,
			Status:           StatusPending,
			AlignmentPercent: 0,
		})
	}
	return doc
}

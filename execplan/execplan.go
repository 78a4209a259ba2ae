// Package execplan manages execution plans: the per-change YAML documents
// under docs/runs/ that track implementation steps through checkpoint
// markers.
package execplan

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"
)

// PlansDir holds execution plans, relative to the project root.
const PlansDir = "docs/runs"

// Sentinel errors for plan operations.
var (
	ErrSlugRequired = errors.New("slug is required")
	ErrInvalidSlug  = errors.New("invalid slug: must be lowercase alphanumeric with hyphens, no path separators")
	ErrPlanNotFound = errors.New("execution plan not found")
	ErrPlanExists   = errors.New("execution plan already exists")
	ErrStepNotFound = errors.New("step not found")
)

// slugPattern validates slugs: lowercase alphanumeric with hyphens, 1-50 chars.
var slugPattern = regexp.MustCompile(`^[a-z0-9]([a-z0-9-]{0,48}[a-z0-9])?$`)

// ValidateSlug checks that a slug is valid and safe for use in file paths.
func ValidateSlug(slug string) error {
	if slug == "" {
		return ErrSlugRequired
	}
	// Prevent path traversal
	if strings.Contains(slug, "..") || strings.Contains(slug, "/") || strings.Contains(slug, "\\") {
		return ErrInvalidSlug
	}
	if !slugPattern.MatchString(slug) {
		return ErrInvalidSlug
	}
	return nil
}

// Checkpoint is the completion state of one plan step.
type Checkpoint string

const (
	CheckpointPending    Checkpoint = "pending"
	CheckpointInProgress Checkpoint = "in_progress"
	CheckpointComplete   Checkpoint = "complete"
)

// Marker renders the checkpoint as its documentation marker.
func (c Checkpoint) Marker() string {
	switch c {
	case CheckpointComplete:
		return "[x]"
	case CheckpointInProgress:
		return "[~]"
	default:
		return "[ ]"
	}
}

// ParseMarker converts a documentation marker back to a checkpoint.
func ParseMarker(marker string) (Checkpoint, error) {
	switch strings.TrimSpace(marker) {
	case "[x]", "[X]":
		return CheckpointComplete, nil
	case "[~]":
		return CheckpointInProgress, nil
	case "[ ]", "[]":
		return CheckpointPending, nil
	}
	return "", fmt.Errorf("unknown checkpoint marker %q", marker)
}

// Step is one unit of work inside a plan phase.
type Step struct {
	ID          string     `yaml:"id"`
	Description string     `yaml:"description"`
	Checkpoint  Checkpoint `yaml:"checkpoint"`
}

// Phase groups ordered steps under a named stage of the plan.
type Phase struct {
	Name  string `yaml:"name"`
	Steps []Step `yaml:"steps"`
}

// Plan is one execution plan document.
type Plan struct {
	ID        string  `yaml:"id"`
	Slug      string  `yaml:"slug"`
	Title     string  `yaml:"title"`
	CreatedAt string  `yaml:"created_at"`
	UpdatedAt string  `yaml:"updated_at"`
	Phases    []Phase `yaml:"phases"`
}

// Progress reports completed steps, total steps, and the completion
// percentage. In-progress steps count as half complete.
func (p *Plan) Progress() (complete, total int, percent float64) {
	var weighted float64
	for _, phase := range p.Phases {
		for _, step := range phase.Steps {
			total++
			switch step.Checkpoint {
			case CheckpointComplete:
				complete++
				weighted++
			case CheckpointInProgress:
				weighted += 0.5
			}
		}
	}
	if total > 0 {
		percent = weighted / float64(total) * 100
	}
	return complete, total, percent
}

// Manager loads and stores execution plans for one project.
type Manager struct {
	root string
	now  func() time.Time
}

// NewManager creates a Manager rooted at the project root.
func NewManager(root string) *Manager {
	return &Manager{root: root, now: time.Now}
}

// PlanPath returns the plan file path for a slug.
func (m *Manager) PlanPath(slug string) string {
	return filepath.Join(m.root, filepath.FromSlash(PlansDir), "EXEC-PLAN-"+slug+".yml")
}

// Create creates a new plan with empty phases. The slug must be unused.
func (m *Manager) Create(ctx context.Context, slug, title string) (*Plan, error) {
	if err := ValidateSlug(slug); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if _, err := os.Stat(m.PlanPath(slug)); err == nil {
		return nil, fmt.Errorf("%w: %s", ErrPlanExists, slug)
	}

	now := m.now().UTC().Format(time.RFC3339)
	plan := &Plan{
		ID:        uuid.NewString(),
		Slug:      slug,
		Title:     title,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := m.Save(ctx, plan); err != nil {
		return nil, err
	}
	return plan, nil
}

// Load reads a plan by slug.
func (m *Manager) Load(ctx context.Context, slug string) (*Plan, error) {
	if err := ValidateSlug(slug); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(m.PlanPath(slug))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrPlanNotFound, slug)
		}
		return nil, fmt.Errorf("read plan: %w", err)
	}

	var plan Plan
	if err := yaml.Unmarshal(data, &plan); err != nil {
		return nil, fmt.Errorf("parse plan: %w", err)
	}
	return &plan, nil
}

// Save writes a plan, stamping UpdatedAt.
func (m *Manager) Save(ctx context.Context, plan *Plan) error {
	if err := ValidateSlug(plan.Slug); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	plan.UpdatedAt = m.now().UTC().Format(time.RFC3339)

	path := m.PlanPath(plan.Slug)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create plans directory: %w", err)
	}

	data, err := yaml.Marshal(plan)
	if err != nil {
		return fmt.Errorf("marshal plan: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write plan: %w", err)
	}
	return nil
}

// UpdateCheckpoint sets one step's checkpoint and persists the plan.
func (m *Manager) UpdateCheckpoint(ctx context.Context, slug, stepID string, checkpoint Checkpoint) (*Plan, error) {
	plan, err := m.Load(ctx, slug)
	if err != nil {
		return nil, err
	}

	found := false
	for pi := range plan.Phases {
		for si := range plan.Phases[pi].Steps {
			if plan.Phases[pi].Steps[si].ID == stepID {
				plan.Phases[pi].Steps[si].Checkpoint = checkpoint
				found = true
			}
		}
	}
	if !found {
		return nil, fmt.Errorf("%w: %s in plan %s", ErrStepNotFound, stepID, slug)
	}

	if err := m.Save(ctx, plan); err != nil {
		return nil, err
	}
	return plan, nil
}

// ListResult carries the plans that loaded plus per-plan load failures.
type ListResult struct {
	Plans  []*Plan
	Errors []error
}

var planFileRe = regexp.MustCompile(`^EXEC-PLAN-(.+)\.yml$`)

// List returns every plan under docs/runs/, sorted by slug. Unloadable plan
// files are reported in the result, not fatal.
func (m *Manager) List(ctx context.Context) (*ListResult, error) {
	result := &ListResult{}

	entries, err := os.ReadDir(filepath.Join(m.root, filepath.FromSlash(PlansDir)))
	if err != nil {
		if os.IsNotExist(err) {
			return result, nil
		}
		return nil, fmt.Errorf("read plans directory: %w", err)
	}

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		match := planFileRe.FindStringSubmatch(entry.Name())
		if match == nil {
			continue
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		plan, err := m.Load(ctx, match[1])
		if err != nil {
			result.Errors = append(result.Errors, fmt.Errorf("load plan %s: %w", match[1], err))
			continue
		}
		result.Plans = append(result.Plans, plan)
	}

	sort.Slice(result.Plans, func(i, j int) bool { return result.Plans[i].Slug < result.Plans[j].Slug })
	return result, nil
}

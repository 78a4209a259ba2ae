// Package scanner implements the Agent3D drift/traceability scanner: it
// walks a project's documentation and source tree, extracts REQ/FT/TC
// identifier occurrences, builds the cross-reference graph, and reports
// inconsistencies as YAML drift reports with threshold-derived exit codes.
package scanner

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/agent3d/agent3d/config"
	"github.com/agent3d/agent3d/gitscope"
	"github.com/agent3d/agent3d/scanner/lang"
)

// Options selects what one scan run examines.
type Options struct {
	// Mode is the traceability relationship to scan.
	Mode Mode
	// ChangedOnly restricts the code side to files changed since HEAD.
	ChangedOnly bool
	// ChangedSince restricts the code side to files changed since the ref.
	ChangedSince string
	// PRDiff restricts the code side to files changed since the merge base
	// with the configured main branch.
	PRDiff bool
	// RecentDays restricts the code side to files modified in the window.
	RecentDays int
	// Stable omits run ID and timestamp from the report for diffing.
	Stable bool
	// OutputPath overrides the default report location.
	OutputPath string
}

// scopeName names the effective scope for the report header.
func (o Options) scopeName() string {
	switch {
	case o.ChangedOnly:
		return "changed-only"
	case o.ChangedSince != "":
		return "changed-since " + o.ChangedSince
	case o.PRDiff:
		return "pr-diff"
	case o.RecentDays > 0:
		return fmt.Sprintf("recent-days %d", o.RecentDays)
	}
	return "full"
}

// Scanner is the drift scan engine for one project root.
type Scanner struct {
	root       string
	cfg        *config.Config
	registry   *lang.Registry
	git        *gitscope.Runner
	logger     *slog.Logger
	thresholds Thresholds
	now        func() time.Time
}

// New creates a Scanner for the project at root.
func New(root string, cfg *config.Config, logger *slog.Logger) *Scanner {
	if logger == nil {
		logger = slog.Default()
	}
	return &Scanner{
		root:     root,
		cfg:      cfg,
		registry: lang.DefaultRegistry,
		git:      gitscope.NewRunner(root),
		logger:   logger,
		thresholds: Thresholds{
			Low:  cfg.QualityGates.DriftLowPercent,
			High: cfg.QualityGates.DriftHighPercent,
		},
		now: time.Now,
	}
}

// Run executes one scan and returns the report. The report is not written;
// callers decide where it lands.
func (s *Scanner) Run(ctx context.Context, opts Options) (*Report, error) {
	if !opts.Mode.IsValid() {
		return nil, fmt.Errorf("invalid mode %q", opts.Mode)
	}

	files, err := NewDiscoverer(s.root, s.cfg, s.registry, s.logger).Discover()
	if err != nil {
		return nil, err
	}

	files, err = s.applyScope(ctx, files, opts)
	if err != nil {
		return nil, err
	}

	s.logger.Debug("Discovered files",
		slog.Int("docs", len(files.Docs)),
		slog.Int("source", len(files.Source)))

	docInv, warnings := NewDocScanner(s.root).Scan(files.Docs)
	for _, w := range warnings {
		s.logger.Warn("Documentation scan warning", slog.String("detail", w))
	}

	codeInv, err := NewCodeScanner(s.root, s.registry, s.logger).Scan(ctx, files.Source)
	if err != nil {
		return nil, err
	}

	eval := &evaluator{
		docs:            docInv,
		code:            codeInv,
		thresholds:      s.thresholds,
		projectPrefixes: ModulePrefixes(s.root, GoModulePath(s.root), codeInv.SourceFiles),
	}

	modes := []Mode{opts.Mode}
	if opts.Mode == ModeAll {
		modes = Modes
	}

	report := &Report{
		Run: RunInfo{
			Mode:  opts.Mode,
			Root:  s.root,
			Scope: opts.scopeName(),
		},
		Warnings: warnings,
	}
	if !opts.Stable {
		report.Run.ID = uuid.NewString()
		report.Run.GeneratedAt = timestamp(s.now())
	}

	for _, mode := range modes {
		result, err := eval.run(mode)
		if err != nil {
			return nil, err
		}
		report.Modes = append(report.Modes, result)
	}

	s.summarize(report)
	return report, nil
}

// summarize fills the report summary from the executed modes: total orphaned
// over total expected.
func (s *Scanner) summarize(report *Report) {
	var expected, orphaned int
	for _, mode := range report.Modes {
		expected += mode.Counts.Expected
		orphaned += mode.Counts.OrphanedInDocs + mode.Counts.OrphanedInCode
	}

	summary := Summary{Expected: expected, Orphaned: orphaned}
	if expected > 0 {
		summary.DriftPercent = float64(orphaned) / float64(expected) * 100
	}
	summary.Level = s.thresholds.Classify(summary.DriftPercent)
	summary.ExitCode = s.thresholds.ExitCode(summary.DriftPercent)
	report.Summary = summary
}

// ExitError converts the report outcome into the process exit contract.
// Returns nil for exit code 0.
func (r *Report) ExitError() error {
	if r.Summary.ExitCode == 0 {
		return nil
	}
	return &ExitError{
		Code:         r.Summary.ExitCode,
		DriftPercent: r.Summary.DriftPercent,
		Level:        r.Summary.Level,
	}
}

func (s *Scanner) applyScope(ctx context.Context, files *FileSet, opts Options) (*FileSet, error) {
	switch {
	case opts.ChangedOnly:
		changed, err := s.git.ChangedSinceLastCommit(ctx)
		if err != nil {
			return nil, fmt.Errorf("resolve changed files: %w", err)
		}
		return files.Restrict(changed), nil

	case opts.ChangedSince != "":
		changed, err := s.git.ChangedSince(ctx, opts.ChangedSince)
		if err != nil {
			return nil, fmt.Errorf("resolve changed files: %w", err)
		}
		return files.Restrict(changed), nil

	case opts.PRDiff:
		changed, err := s.git.PRDiff(ctx, s.cfg.GitWorkflow.MainBranch)
		if err != nil {
			return nil, fmt.Errorf("resolve PR diff: %w", err)
		}
		return files.Restrict(changed), nil

	case opts.RecentDays > 0:
		return files.RestrictRecent(s.root, opts.RecentDays, s.now()), nil
	}

	return files, nil
}

package mcpserver

import (
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/agent3d/agent3d/execplan"
	"github.com/agent3d/agent3d/passes"
	"github.com/agent3d/agent3d/scanner"
)

// intArg extracts an integer argument, returning defaultVal when missing
// (JSON numbers arrive as float64).
func intArg(req mcp.CallToolRequest, key string, defaultVal int) int {
	v, ok := req.GetArguments()[key].(float64)
	if !ok {
		return defaultVal
	}
	return int(v)
}

func boolArg(req mcp.CallToolRequest, key string) bool {
	v, ok := req.GetArguments()[key].(bool)
	return ok && v
}

// DriftScanTool handles the drift_scan MCP tool.
type DriftScanTool struct {
	scanner *scanner.Scanner
	root    string
}

// NewDriftScanTool creates a DriftScanTool over one project.
func NewDriftScanTool(s *scanner.Scanner, root string) *DriftScanTool {
	return &DriftScanTool{scanner: s, root: root}
}

// Definition returns the MCP tool definition for drift_scan.
func (t *DriftScanTool) Definition() mcp.Tool {
	return mcp.NewTool("drift_scan",
		mcp.WithDescription(
			"Scan the project for documentation/code drift: cross-references REQ/FT/TC "+
				"identifiers between documentation and source code and reports orphaned "+
				"entries with an overall drift percentage.",
		),
		mcp.WithString("mode",
			mcp.Description("Scan mode: tc-mapping, ft-mapping, ft-tc-mapping, code-coverage, feature-impl, test-quality, or all (default)"),
		),
		mcp.WithBoolean("changed_only",
			mcp.Description("Restrict the code side to files changed since the last commit"),
		),
		mcp.WithString("changed_since",
			mcp.Description("Restrict the code side to files changed since this git ref"),
		),
		mcp.WithBoolean("pr_diff",
			mcp.Description("Restrict the code side to files changed since the merge base with the main branch"),
		),
		mcp.WithNumber("recent_days",
			mcp.Description("Restrict the code side to files modified within this many days"),
		),
	)
}

// Handle processes the drift_scan tool call.
func (t *DriftScanTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	mode, err := scanner.ParseMode(req.GetString("mode", string(scanner.ModeAll)))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	opts := scanner.Options{
		Mode:         mode,
		ChangedOnly:  boolArg(req, "changed_only"),
		ChangedSince: req.GetString("changed_since", ""),
		PRDiff:       boolArg(req, "pr_diff"),
		RecentDays:   intArg(req, "recent_days", 0),
	}

	report, err := t.scanner.Run(ctx, opts)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("scan failed: %v", err)), nil
	}

	if _, err := report.Write(t.root, ""); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("write report: %v", err)), nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "## Drift Scan (%s)\n\n", mode)
	fmt.Fprintf(&b, "- **Drift**: %.1f%% (%s)\n", report.Summary.DriftPercent, report.Summary.Level)
	fmt.Fprintf(&b, "- **Expected identifiers**: %d\n", report.Summary.Expected)
	fmt.Fprintf(&b, "- **Orphaned**: %d\n", report.Summary.Orphaned)
	fmt.Fprintf(&b, "- **Exit code**: %d\n\n", report.Summary.ExitCode)

	for _, result := range report.Modes {
		fmt.Fprintf(&b, "### %s — %.1f%% (%s)\n", result.Mode, result.DriftPercent, result.Level)
		for _, rec := range result.Records {
			if rec.Status == scanner.StatusMapped {
				continue
			}
			fmt.Fprintf(&b, "- %s: %s", rec.ID, rec.Status)
			if rec.Detail != "" {
				fmt.Fprintf(&b, " — %s", rec.Detail)
			}
			b.WriteString("\n")
		}
		b.WriteString("\n")
	}

	return mcp.NewToolResultText(b.String()), nil
}

// StatusTool handles the ddd_status MCP tool.
type StatusTool struct {
	tracker *passes.Tracker
}

// NewStatusTool creates a StatusTool.
func NewStatusTool(tracker *passes.Tracker) *StatusTool {
	return &StatusTool{tracker: tracker}
}

// Definition returns the MCP tool definition for ddd_status.
func (t *StatusTool) Definition() mcp.Tool {
	return mcp.NewTool("ddd_status",
		mcp.WithDescription(
			"Show the status of every development pass: lifecycle state, alignment "+
				"percentage, and drift level from the last synchronization scan.",
		),
	)
}

// Handle processes the ddd_status tool call.
func (t *StatusTool) Handle(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	doc, err := t.tracker.Load()
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("load status: %v", err)), nil
	}

	var b strings.Builder
	b.WriteString("## Pass Status\n\n")
	for _, p := range passes.Catalog {
		entry := doc.Entry(p.Name)
		if entry == nil {
			fmt.Fprintf(&b, "%2d. %-16s pending\n", p.Number, p.Name)
			continue
		}
		fmt.Fprintf(&b, "%2d. %-16s %-12s alignment %.1f%%", p.Number, p.Name, entry.Status, entry.AlignmentPercent)
		if entry.DriftLevel != "" {
			fmt.Fprintf(&b, " | drift %s", entry.DriftLevel)
		}
		b.WriteString("\n")
	}

	return mcp.NewToolResultText(b.String()), nil
}

// PlanProgressTool handles the exec_plan_progress MCP tool.
type PlanProgressTool struct {
	manager *execplan.Manager
}

// NewPlanProgressTool creates a PlanProgressTool.
func NewPlanProgressTool(manager *execplan.Manager) *PlanProgressTool {
	return &PlanProgressTool{manager: manager}
}

// Definition returns the MCP tool definition for exec_plan_progress.
func (t *PlanProgressTool) Definition() mcp.Tool {
	return mcp.NewTool("exec_plan_progress",
		mcp.WithDescription(
			"Report checkpoint progress for an execution plan, or list all plans "+
				"when no slug is given.",
		),
		mcp.WithString("slug",
			mcp.Description("Plan slug (omit to list all plans)"),
		),
	)
}

// Handle processes the exec_plan_progress tool call.
func (t *PlanProgressTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	slug := req.GetString("slug", "")

	if slug == "" {
		result, err := t.manager.List(ctx)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("list plans: %v", err)), nil
		}
		if len(result.Plans) == 0 {
			return mcp.NewToolResultText("No execution plans found."), nil
		}

		var b strings.Builder
		b.WriteString("## Execution Plans\n\n")
		for _, plan := range result.Plans {
			complete, total, percent := plan.Progress()
			fmt.Fprintf(&b, "- %s — %s (%d/%d steps, %.0f%%)\n", plan.Slug, plan.Title, complete, total, percent)
		}
		return mcp.NewToolResultText(b.String()), nil
	}

	plan, err := t.manager.Load(ctx, slug)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("load plan: %v", err)), nil
	}

	complete, total, percent := plan.Progress()

	var b strings.Builder
	fmt.Fprintf(&b, "## %s — %s\n\n", plan.Slug, plan.Title)
	fmt.Fprintf(&b, "Progress: %d/%d steps complete (%.0f%%)\n\n", complete, total, percent)
	for _, phase := range plan.Phases {
		fmt.Fprintf(&b, "### %s\n", phase.Name)
		for _, step := range phase.Steps {
			fmt.Fprintf(&b, "- %s %s — %s\n", step.Checkpoint.Marker(), step.ID, step.Description)
		}
		b.WriteString("\n")
	}

	return mcp.NewToolResultText(b.String()), nil
}

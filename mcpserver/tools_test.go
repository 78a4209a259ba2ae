package mcpserver

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agent3d/agent3d/config"
	"github.com/agent3d/agent3d/execplan"
	"github.com/agent3d/agent3d/passes"
	"github.com/agent3d/agent3d/scanner"
	_ "github.com/agent3d/agent3d/scanner/lang/golang"
)

// makeReq builds a mcp.CallToolRequest with the given arguments.
func makeReq(args map[string]interface{}) mcp.CallToolRequest {
	req := mcp.CallToolRequest{}
	req.Params.Arguments = args
	return req
}

// resultText extracts the text content from a tool result.
func resultText(t *testing.T, r *mcp.CallToolResult) string {
	t.Helper()
	require.NotNil(t, r)
	for _, c := range r.Content {
		if tc, ok := c.(mcp.TextContent); ok {
			return tc.Text
		}
	}
	return ""
}

func writeProjectFile(t *testing.T, root, rel, content string) {
	t.Helper()
	path := filepath.Join(root, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
}

func TestDriftScanToolHandle(t *testing.T) {
	root := t.TempDir()
	writeProjectFile(t, root, "docs/TEST-CASES.md", "# Test Cases\n\n- [ ] TC-CORE-001 - Parses input\n")

	tool := NewDriftScanTool(scanner.New(root, config.DefaultConfig(), nil), root)

	def := tool.Definition()
	assert.Equal(t, "drift_scan", def.Name)

	result, err := tool.Handle(context.Background(), makeReq(map[string]interface{}{"mode": "tc-mapping"}))
	require.NoError(t, err)

	text := resultText(t, result)
	assert.Contains(t, text, "100.0%")
	assert.Contains(t, text, "TC-CORE-001")
	assert.Contains(t, text, "orphaned_in_docs")

	// The report lands on disk like a CLI scan would.
	_, statErr := os.Stat(filepath.Join(root, ".agent3d-tmp", "drift-reports", "tc-mapping-drift-report.yml"))
	assert.NoError(t, statErr)
}

func TestDriftScanToolRejectsBadMode(t *testing.T) {
	root := t.TempDir()
	tool := NewDriftScanTool(scanner.New(root, config.DefaultConfig(), nil), root)

	result, err := tool.Handle(context.Background(), makeReq(map[string]interface{}{"mode": "bogus"}))
	require.NoError(t, err)
	require.True(t, result.IsError)
}

func TestStatusToolHandle(t *testing.T) {
	root := t.TempDir()
	tracker := passes.NewTracker(root)
	_, err := tracker.Transition("foundation", passes.StatusInProgress)
	require.NoError(t, err)

	tool := NewStatusTool(tracker)
	result, err := tool.Handle(context.Background(), makeReq(nil))
	require.NoError(t, err)

	text := resultText(t, result)
	assert.Contains(t, text, "foundation")
	assert.Contains(t, text, "in_progress")
	// Untouched passes still render as pending.
	assert.Contains(t, text, "reverse")
}

func TestPlanProgressToolHandle(t *testing.T) {
	root := t.TempDir()
	manager := execplan.NewManager(root)

	ctx := context.Background()
	plan, err := manager.Create(ctx, "add-scanner", "Add the drift scanner")
	require.NoError(t, err)
	plan.Phases = []execplan.Phase{{
		Name: "implementation",
		Steps: []execplan.Step{
			{ID: "step-1", Description: "Discovery", Checkpoint: execplan.CheckpointComplete},
			{ID: "step-2", Description: "Mapping", Checkpoint: execplan.CheckpointPending},
		},
	}}
	require.NoError(t, manager.Save(ctx, plan))

	tool := NewPlanProgressTool(manager)

	result, err := tool.Handle(ctx, makeReq(map[string]interface{}{"slug": "add-scanner"}))
	require.NoError(t, err)
	text := resultText(t, result)
	assert.Contains(t, text, "1/2 steps complete")
	assert.Contains(t, text, "[x] step-1")
	assert.Contains(t, text, "[ ] step-2")

	// Listing mode without a slug.
	result, err = tool.Handle(ctx, makeReq(nil))
	require.NoError(t, err)
	assert.True(t, strings.Contains(resultText(t, result), "add-scanner"))
}

func TestNewRegistersTools(t *testing.T) {
	s := New(t.TempDir(), config.DefaultConfig(), nil)
	require.NotNil(t, s)
}

// Package mcpserver wires the Agent3D MCP server: the composition root that
// exposes the drift scanner, pass status, and execution plan progress as MCP
// tools over stdio. No business logic lives here — only wiring.
package mcpserver

import (
	"log/slog"

	"github.com/mark3labs/mcp-go/server"

	"github.com/agent3d/agent3d/config"
	"github.com/agent3d/agent3d/execplan"
	"github.com/agent3d/agent3d/passes"
	"github.com/agent3d/agent3d/scanner"
)

// Version is set at build time via ldflags.
var Version = "dev"

// New creates the MCP server with all Agent3D tools registered.
func New(root string, cfg *config.Config, logger *slog.Logger) *server.MCPServer {
	if logger == nil {
		logger = slog.Default()
	}

	s := server.NewMCPServer(
		"agent3d",
		Version,
		server.WithToolCapabilities(true),
		server.WithRecovery(),
		server.WithInstructions(serverInstructions()),
	)

	driftTool := NewDriftScanTool(scanner.New(root, cfg, logger), root)
	s.AddTool(driftTool.Definition(), driftTool.Handle)

	statusTool := NewStatusTool(passes.NewTracker(root))
	s.AddTool(statusTool.Definition(), statusTool.Handle)

	progressTool := NewPlanProgressTool(execplan.NewManager(root))
	s.AddTool(progressTool.Definition(), progressTool.Handle)

	return s
}

// ServeStdio runs the server over stdin/stdout until EOF.
func ServeStdio(s *server.MCPServer) error {
	return server.ServeStdio(s)
}

func serverInstructions() string {
	return `You have access to Agent3D, a documentation-driven development toolkit.

Use drift_scan to measure documentation/code alignment before and after
changes: it cross-references REQ/FT/TC identifiers between documentation and
source code and reports drift as a percentage. Exit semantics: below 10% is
healthy, 10-25% needs attention, above 25% must be fixed before proceeding.

Use ddd_status to see where each development pass stands, and
exec_plan_progress to check checkpoint completion for an execution plan.`
}

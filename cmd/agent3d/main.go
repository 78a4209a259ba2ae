// Package main provides the agent3d binary entry point.
// Agent3D is a documentation-driven development toolkit: it tracks
// REQ/FT/TC traceability between documentation and code, reports drift,
// and manages the pass, execution plan, template, and migration surfaces.
package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/spf13/cobra"

	// Register language parsers via init()
	_ "github.com/agent3d/agent3d/scanner/lang/generic"
	_ "github.com/agent3d/agent3d/scanner/lang/golang"
	_ "github.com/agent3d/agent3d/scanner/lang/python"

	"github.com/agent3d/agent3d/config"
	"github.com/agent3d/agent3d/scanner"
)

const (
	Version   = "0.1.0"
	BuildTime = "dev"
	appName   = "agent3d"
)

func main() {
	defer func() {
		if r := recover(); r != nil {
			buf := make([]byte, 4096)
			n := runtime.Stack(buf, false)
			_, _ = fmt.Fprintf(os.Stderr, "PANIC: %v\nStack trace:\n%s\n", r, string(buf[:n]))
			os.Exit(2)
		}
	}()

	if err := rootCmd().Execute(); err != nil {
		// Drift exit codes are part of the scan contract, not failures to
		// report as errors.
		var exitErr *scanner.ExitError
		if errors.As(err, &exitErr) {
			fmt.Fprintf(os.Stderr, "%v\n", err)
			os.Exit(exitErr.Code)
		}
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// globalOptions carries the persistent flags shared by every subcommand.
type globalOptions struct {
	configPath string
	rootPath   string
	logLevel   string
}

func rootCmd() *cobra.Command {
	opts := &globalOptions{}

	cmd := &cobra.Command{
		Use:   appName,
		Short: "Documentation-driven development toolkit",
		Long: `Agent3D keeps documentation and code aligned.

It cross-references REQ/FT/TC traceability identifiers between
documentation and source code, reports drift with quality-gate exit
codes, and manages development passes, execution plans, artifact
templates, and documentation migrations.`,
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			setupLogging(opts.logLevel)
		},
	}

	cmd.PersistentFlags().StringVarP(&opts.configPath, "config", "c", "", "Config file path (defaults to the project marker)")
	cmd.PersistentFlags().StringVar(&opts.rootPath, "root", ".", "Directory to locate the project root from")
	cmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "info", "Log level (debug, info, warn, error)")

	cmd.AddCommand(
		scanCmd(opts),
		initCmd(opts),
		statusCmd(opts),
		passesCmd(),
		planCmd(opts),
		templateCmd(opts),
		migrateCmd(opts),
		mcpCmd(opts),
		versionCmd(),
	)

	return cmd
}

func setupLogging(logLevel string) {
	level := slog.LevelInfo
	switch strings.ToLower(logLevel) {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)
}

// loadProject resolves the configuration and project root from the global
// flags: an explicit --config wins, otherwise the marker file is located by
// walking parents of --root.
func loadProject(opts *globalOptions) (*config.Config, string, error) {
	if opts.configPath != "" {
		cfg, err := config.LoadFromFile(opts.configPath)
		if err != nil {
			return nil, "", err
		}
		root := opts.rootPath
		if root == "" {
			root = "."
		}
		if cfg.Project.Name == "" {
			if abs, absErr := filepath.Abs(root); absErr == nil {
				cfg.Project.Name = filepath.Base(abs)
			}
		}
		if err := cfg.Validate(); err != nil {
			return nil, "", fmt.Errorf("invalid configuration: %w", err)
		}
		return cfg, root, nil
	}

	return config.NewLoader(slog.Default()).Load(opts.rootPath)
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("%s version %s (build: %s)\n", appName, Version, BuildTime)
		},
	}
}

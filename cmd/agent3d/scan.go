package main

import (
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/agent3d/agent3d/passes"
	"github.com/agent3d/agent3d/scanner"
)

func scanCmd(opts *globalOptions) *cobra.Command {
	var (
		modeName     string
		changedOnly  bool
		changedSince string
		prDiff       bool
		recentDays   int
		quiet        bool
		outputPath   string
		stable       bool
		watch        bool
		listenAddr   string
	)

	cmd := &cobra.Command{
		Use:   "scan",
		Short: "Scan for documentation/code drift",
		Long: `Scan cross-references REQ/FT/TC identifiers between documentation and
source code and reports drift.

Exit codes: 0 when drift is below 10%, 1 for 10-25% inclusive, 2 above 25%.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			mode, err := scanner.ParseMode(modeName)
			if err != nil {
				return err
			}

			cfg, root, err := loadProject(opts)
			if err != nil {
				return err
			}

			scanOpts := scanner.Options{
				Mode:         mode,
				ChangedOnly:  changedOnly,
				ChangedSince: changedSince,
				PRDiff:       prDiff,
				RecentDays:   recentDays,
				Stable:       stable,
				OutputPath:   outputPath,
			}

			s := scanner.New(root, cfg, slog.Default())

			if watch {
				watcher, err := scanner.NewWatcher(s, scanner.WatchConfig{
					Options:       scanOpts,
					DebounceDelay: 500 * time.Millisecond,
					ListenAddr:    listenAddr,
				})
				if err != nil {
					return fmt.Errorf("start watcher: %w", err)
				}

				ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
				defer stop()
				if err := watcher.Run(ctx); err != nil && ctx.Err() == nil {
					return err
				}
				return nil
			}

			report, err := s.Run(cmd.Context(), scanOpts)
			if err != nil {
				return err
			}

			path, err := report.Write(root, outputPath)
			if err != nil {
				return err
			}

			// A full scan feeds the Synchronization pass status.
			if mode == scanner.ModeAll {
				if err := passes.NewTracker(root).RecordDrift(report.Summary.DriftPercent, string(report.Summary.Level)); err != nil {
					slog.Warn("Could not update pass status", slog.String("error", err.Error()))
				}
			}

			if !quiet {
				printSummary(report, path)
			}

			return report.ExitError()
		},
	}

	cmd.Flags().StringVarP(&modeName, "mode", "m", "all", "Scan mode (tc-mapping, ft-mapping, ft-tc-mapping, code-coverage, feature-impl, test-quality, all)")
	cmd.Flags().BoolVar(&changedOnly, "changed-only", false, "Scan only files changed since the last commit")
	cmd.Flags().StringVar(&changedSince, "changed-since", "", "Scan only files changed since the given git ref")
	cmd.Flags().BoolVar(&prDiff, "pr-diff", false, "Scan only files changed since the merge base with the main branch")
	cmd.Flags().IntVar(&recentDays, "recent-days", 0, "Scan only files modified within the given number of days")
	cmd.Flags().BoolVarP(&quiet, "quiet", "q", false, "Suppress the summary output")
	cmd.Flags().StringVarP(&outputPath, "output", "o", "", "Report output path (default: .agent3d-tmp/drift-reports/)")
	cmd.Flags().BoolVar(&stable, "stable", false, "Omit run ID and timestamp for diffable reports")
	cmd.Flags().BoolVarP(&watch, "watch", "w", false, "Re-scan on file changes until interrupted")
	cmd.Flags().StringVar(&listenAddr, "listen", "", "Serve /metrics and /healthz on this address in watch mode")

	return cmd
}

func printSummary(report *scanner.Report, path string) {
	fmt.Printf("Drift: %.1f%% (%s) — %d of %d expected identifiers orphaned\n",
		report.Summary.DriftPercent, report.Summary.Level,
		report.Summary.Orphaned, report.Summary.Expected)

	for _, result := range report.Modes {
		fmt.Printf("  %-16s %6.1f%% (%s)  mapped %d, orphaned in docs %d, orphaned in code %d, malformed %d\n",
			result.Mode, result.DriftPercent, result.Level,
			result.Counts.Mapped, result.Counts.OrphanedInDocs,
			result.Counts.OrphanedInCode, result.Counts.Malformed)
	}

	for _, warning := range report.Warnings {
		fmt.Fprintf(os.Stderr, "warning: %s\n", warning)
	}

	fmt.Printf("Report: %s\n", path)
}

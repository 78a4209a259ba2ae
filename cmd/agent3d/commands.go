package main

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/agent3d/agent3d/config"
	"github.com/agent3d/agent3d/execplan"
	"github.com/agent3d/agent3d/mcpserver"
	"github.com/agent3d/agent3d/migrate"
	"github.com/agent3d/agent3d/passes"
	"github.com/agent3d/agent3d/template"
)

func initCmd(opts *globalOptions) *cobra.Command {
	var projectName string

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Initialize an Agent3D project",
		Long: `Initialize writes the project configuration marker and the starter
documentation artifacts (FEATURES.md, TEST-CASES.md, DDD-STATUS.yml) into
the target directory.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := opts.rootPath
			if dir == "" {
				dir = "."
			}

			loader := config.NewLoader(slog.Default())
			path, err := loader.Init(dir, projectName)
			if err != nil {
				return err
			}
			fmt.Printf("Created %s\n", path)

			cfg, root, err := loader.Load(dir)
			if err != nil {
				return err
			}

			values := map[string]string{
				"PROJECT_NAME": cfg.Project.Name,
				"DATE":         time.Now().UTC().Format("2006-01-02"),
			}
			renderer := template.NewRenderer(root, cfg.TemplateOverrides)
			for name, rel := range map[string]string{
				"FEATURES.md":    "docs/FEATURES.md",
				"TEST-CASES.md":  "docs/TEST-CASES.md",
				"DDD-STATUS.yml": "docs/DDD-STATUS.yml",
			} {
				target := filepath.Join(root, filepath.FromSlash(rel))
				if _, statErr := os.Stat(target); statErr == nil {
					fmt.Printf("Skipped %s (exists)\n", rel)
					continue
				}
				if err := renderer.RenderToFile(name, rel, values); err != nil {
					return fmt.Errorf("render %s: %w", name, err)
				}
				fmt.Printf("Created %s\n", rel)
			}

			return nil
		},
	}

	cmd.Flags().StringVarP(&projectName, "name", "n", "", "Project name (defaults to the directory name)")

	return cmd
}

func statusCmd(opts *globalOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show development pass status",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, root, err := loadProject(opts)
			if err != nil {
				return err
			}

			doc, err := passes.NewTracker(root).Load()
			if err != nil {
				return err
			}

			if doc.Project != "" {
				fmt.Printf("Project: %s\n", doc.Project)
			}
			if doc.UpdatedAt != "" {
				fmt.Printf("Updated: %s\n", doc.UpdatedAt)
			}
			fmt.Println()

			for _, p := range passes.Catalog {
				entry := doc.Entry(p.Name)
				if entry == nil {
					fmt.Printf("%2d. %-16s pending\n", p.Number, p.Name)
					continue
				}
				fmt.Printf("%2d. %-16s %-12s alignment %5.1f%%", p.Number, p.Name, entry.Status, entry.AlignmentPercent)
				if entry.DriftLevel != "" {
					fmt.Printf("  drift %s", entry.DriftLevel)
				}
				fmt.Println()
			}

			return nil
		},
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "transition <pass> <status>",
		Short: "Move a pass to a new lifecycle status",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, root, err := loadProject(opts)
			if err != nil {
				return err
			}

			doc, err := passes.NewTracker(root).Transition(args[0], passes.Status(strings.ToLower(args[1])))
			if err != nil {
				return err
			}
			entry := doc.Entry(strings.ToLower(strings.TrimSpace(args[0])))
			fmt.Printf("%s -> %s\n", entry.Pass, entry.Status)
			return nil
		},
	})

	return cmd
}

func passesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "passes",
		Short: "Describe the development pass catalog",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List all passes in execution order",
		Run: func(cmd *cobra.Command, args []string) {
			for _, p := range passes.Catalog {
				fmt.Printf("%2d. %-16s %s\n", p.Number, p.Name, p.Title)
			}
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "show <name>",
		Short: "Show one pass in detail",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := passes.ByName(args[0])
			if err != nil {
				return err
			}

			fmt.Printf("%s (pass %d)\n", p.Title, p.Number)
			fmt.Printf("Purpose: %s\n", p.Purpose)
			phases := make([]string, len(p.Phases))
			for i, phase := range p.Phases {
				phases[i] = string(phase)
			}
			fmt.Printf("Phases:  %s\n", strings.Join(phases, " -> "))
			if len(p.Artifacts) > 0 {
				fmt.Printf("Artifacts:\n")
				for _, a := range p.Artifacts {
					fmt.Printf("  - %s\n", a)
				}
			}
			return nil
		},
	})

	return cmd
}

func planCmd(opts *globalOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "plan",
		Short: "Manage execution plans",
	}

	var title string
	newCmd := &cobra.Command{
		Use:   "new <slug>",
		Short: "Create a new execution plan",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, root, err := loadProject(opts)
			if err != nil {
				return err
			}

			if title == "" {
				title = args[0]
			}
			manager := execplan.NewManager(root)
			plan, err := manager.Create(cmd.Context(), args[0], title)
			if err != nil {
				return err
			}
			fmt.Printf("Created plan %s (%s)\n", plan.Slug, manager.PlanPath(plan.Slug))
			return nil
		},
	}
	newCmd.Flags().StringVarP(&title, "title", "t", "", "Plan title (defaults to the slug)")
	cmd.AddCommand(newCmd)

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List execution plans",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, root, err := loadProject(opts)
			if err != nil {
				return err
			}

			result, err := execplan.NewManager(root).List(cmd.Context())
			if err != nil {
				return err
			}
			for _, plan := range result.Plans {
				complete, total, percent := plan.Progress()
				fmt.Printf("%-24s %-32s %d/%d steps (%.0f%%)\n", plan.Slug, plan.Title, complete, total, percent)
			}
			for _, e := range result.Errors {
				fmt.Fprintf(os.Stderr, "warning: %s\n", e)
			}
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "show <slug>",
		Short: "Show a plan with checkpoint markers",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, root, err := loadProject(opts)
			if err != nil {
				return err
			}

			plan, err := execplan.NewManager(root).Load(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			complete, total, percent := plan.Progress()
			fmt.Printf("%s — %s\n", plan.Slug, plan.Title)
			fmt.Printf("Progress: %d/%d steps complete (%.0f%%)\n", complete, total, percent)
			for _, phase := range plan.Phases {
				fmt.Printf("\n%s:\n", phase.Name)
				for _, step := range phase.Steps {
					fmt.Printf("  %s %s — %s\n", step.Checkpoint.Marker(), step.ID, step.Description)
				}
			}
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "check <slug> <step-id> <marker>",
		Short: "Update a step checkpoint ([ ], [~], or [x])",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			checkpoint, err := execplan.ParseMarker(args[2])
			if err != nil {
				return err
			}

			_, root, err := loadProject(opts)
			if err != nil {
				return err
			}

			plan, err := execplan.NewManager(root).UpdateCheckpoint(cmd.Context(), args[0], args[1], checkpoint)
			if err != nil {
				return err
			}
			complete, total, percent := plan.Progress()
			fmt.Printf("%s %s — now %d/%d steps complete (%.0f%%)\n", checkpoint.Marker(), args[1], complete, total, percent)
			return nil
		},
	})

	return cmd
}

func templateCmd(opts *globalOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "template",
		Short: "Manage documentation templates",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List available templates",
		Run: func(cmd *cobra.Command, args []string) {
			for _, name := range template.Names() {
				fmt.Println(name)
			}
		},
	})

	var (
		outputRel string
		setValues []string
	)
	renderCmd := &cobra.Command{
		Use:   "render <name>",
		Short: "Render a template with placeholder substitution",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, root, err := loadProject(opts)
			if err != nil {
				return err
			}

			values := map[string]string{
				"PROJECT_NAME": cfg.Project.Name,
				"DATE":         time.Now().UTC().Format("2006-01-02"),
			}
			for _, kv := range setValues {
				key, value, ok := strings.Cut(kv, "=")
				if !ok {
					return fmt.Errorf("invalid --set value %q (want KEY=VALUE)", kv)
				}
				values[key] = value
			}

			renderer := template.NewRenderer(root, cfg.TemplateOverrides)
			if outputRel != "" {
				if err := renderer.RenderToFile(args[0], outputRel, values); err != nil {
					return err
				}
				fmt.Printf("Rendered %s to %s\n", args[0], outputRel)
				return nil
			}

			rendered, err := renderer.Render(args[0], values)
			if err != nil {
				return err
			}
			_, err = os.Stdout.Write(rendered)
			return err
		},
	}
	renderCmd.Flags().StringVarP(&outputRel, "output", "o", "", "Write to this path relative to the project root instead of stdout")
	renderCmd.Flags().StringArrayVar(&setValues, "set", nil, "Placeholder value as KEY=VALUE (repeatable)")
	cmd.AddCommand(renderCmd)

	cmd.AddCommand(&cobra.Command{
		Use:   "validate <name> <file>",
		Short: "Validate a document against its template structure",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			content, err := os.ReadFile(args[1])
			if err != nil {
				return fmt.Errorf("read document: %w", err)
			}

			result := template.NewValidator().Validate(args[0], content)
			for _, w := range result.Warnings {
				fmt.Printf("warning: %s\n", w)
			}
			if !result.Valid {
				for _, missing := range result.MissingSections {
					fmt.Printf("missing section: %s\n", missing)
				}
				return fmt.Errorf("%s does not match the %s structure", args[1], args[0])
			}
			fmt.Printf("%s is valid\n", args[1])
			return nil
		},
	})

	return cmd
}

func migrateCmd(opts *globalOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage documentation layout migrations",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "status",
		Short: "Show the state of every known migration",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, root, err := loadProject(opts)
			if err != nil {
				return err
			}

			statuses, err := migrate.NewManager(root, slog.Default()).Status()
			if err != nil {
				return err
			}
			for _, s := range statuses {
				state := "pending"
				if s.Record != nil {
					state = string(s.Record.Status)
				}
				fmt.Printf("%-20s %-12s %s\n", s.Migration.ID, state, s.Migration.Description)
			}
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "apply",
		Short: "Apply all pending migrations",
		Long: `Apply runs every pending migration in order. Each migration is backed
up first; on failure the backup is restored and later migrations do not run.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			_, root, err := loadProject(opts)
			if err != nil {
				return err
			}

			records, err := migrate.NewManager(root, slog.Default()).Apply(cmd.Context())
			for _, rec := range records {
				fmt.Printf("%-20s %s\n", rec.ID, rec.Status)
			}
			return err
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "rollback",
		Short: "Roll back the most recently applied migration",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, root, err := loadProject(opts)
			if err != nil {
				return err
			}

			rec, err := migrate.NewManager(root, slog.Default()).Rollback(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Printf("Rolled back %s\n", rec.ID)
			return nil
		},
	})

	return cmd
}

func mcpCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "mcp",
		Short: "Run the MCP server over stdio",
		Long: `Serve the Agent3D tools (drift_scan, ddd_status, exec_plan_progress)
over the Model Context Protocol on stdin/stdout.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, root, err := loadProject(opts)
			if err != nil {
				return err
			}

			slog.Info("Starting MCP server", slog.String("root", root))
			return mcpserver.ServeStdio(mcpserver.New(root, cfg, slog.Default()))
		},
	}
}

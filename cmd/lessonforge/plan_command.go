package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"lessonforge/internal/pipeline"
	"lessonforge/internal/staleness"
)

type planEntry struct {
	Lesson     string `json:"lesson"`
	Asset      string `json:"asset"`
	Path       string `json:"path"`
	Stale      bool   `json:"stale"`
	Reason     string `json:"reason"`
	NewerInput string `json:"newer_input,omitempty"`
}

func newPlanCommand(ctx *commandContext) *cobra.Command {
	var all bool
	var staleOnly bool
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "plan [lesson...]",
		Short: "Show which assets a build would regenerate and why",
		RunE: func(cmd *cobra.Command, args []string) error {
			dirs, err := ctx.lessonDirs(args, all)
			if err != nil {
				return err
			}
			logger, err := ctx.ensureLogger()
			if err != nil {
				return err
			}
			orchestrator, err := pipeline.NewFromConfig(ctx.configValue(), nil, logger)
			if err != nil {
				return err
			}

			var entries []planEntry
			for _, dir := range dirs {
				plan, err := orchestrator.Plan(cmd.Context(), dir)
				if err != nil {
					return err
				}
				decisions := plan.Decisions
				if staleOnly {
					decisions = plan.Stale()
				}
				for _, d := range decisions {
					entries = append(entries, newPlanEntry(plan.Lesson, d))
				}
			}

			if asJSON {
				if entries == nil {
					entries = []planEntry{}
				}
				return writeJSON(cmd, entries)
			}
			if len(entries) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "Every asset is up to date")
				return nil
			}
			fmt.Fprint(cmd.OutOrStdout(), renderPlanTable(entries))
			return nil
		},
	}

	cmd.Flags().BoolVar(&all, "all", false, "Plan every lesson under paths.lessons_dir")
	cmd.Flags().BoolVar(&staleOnly, "stale", false, "Only list assets that would be regenerated")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the plan as JSON")
	return cmd
}

func newPlanEntry(lesson string, d staleness.Decision) planEntry {
	return planEntry{
		Lesson:     lesson,
		Asset:      d.Asset.LogicalName,
		Path:       d.Asset.Path,
		Stale:      d.Stale,
		Reason:     d.Reason.String(),
		NewerInput: d.NewerInput,
	}
}

func renderPlanTable(entries []planEntry) string {
	rows := make([][]string, 0, len(entries))
	for _, e := range entries {
		action := "keep"
		if e.Stale {
			action = "rebuild"
		}
		newer := e.NewerInput
		if newer == "" {
			newer = "-"
		}
		rows = append(rows, []string{e.Lesson, e.Asset, action, e.Reason, newer})
	}
	return renderTable([]column{
		left("Lesson"), left("Asset"), left("Action"), left("Reason"), left("Newer input"),
	}, rows)
}

package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"lessonforge/internal/journal"
)

func newHistoryCommand(ctx *commandContext) *cobra.Command {
	var limit int
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "history [lesson]",
		Short: "List recent builds from the journal",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := journal.Open(ctx.configValue().JournalPath())
			if err != nil {
				return fmt.Errorf("open journal: %w", err)
			}
			defer store.Close()

			var lesson string
			if len(args) == 1 {
				lesson = strings.TrimSpace(args[0])
			}
			runs, err := store.Recent(cmd.Context(), lesson, limit)
			if err != nil {
				return err
			}

			if asJSON {
				if runs == nil {
					runs = []journal.Run{}
				}
				return writeJSON(cmd, runs)
			}
			if len(runs) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No builds recorded")
				return nil
			}
			fmt.Fprint(cmd.OutOrStdout(), renderHistoryTable(runs))
			return nil
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Maximum number of runs to show")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print runs as JSON")
	return cmd
}

func renderHistoryTable(runs []journal.Run) string {
	rows := make([][]string, 0, len(runs))
	for _, run := range runs {
		elapsed := "-"
		if run.FinishedAt != nil {
			elapsed = run.Duration().Round(time.Millisecond).String()
		}
		regenerated := "-"
		if len(run.Regenerated) > 0 {
			regenerated = strings.Join(run.Regenerated, ", ")
		}
		rows = append(rows, []string{
			shortRunID(run.RunID),
			run.Lesson,
			string(run.Status),
			run.State,
			regenerated,
			run.StartedAt.Local().Format("2006-01-02 15:04:05"),
			elapsed,
			dash(run.Error),
		})
	}
	return renderTable([]column{
		left("Run"), left("Lesson"), left("Status"), left("State"), left("Regenerated"),
		left("Started"), right("Elapsed"), left("Error"),
	}, rows)
}

func shortRunID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

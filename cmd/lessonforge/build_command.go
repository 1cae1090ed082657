package main

import (
	"fmt"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"lessonforge/internal/pipeline"
)

type buildSummary struct {
	Lesson       string   `json:"lesson"`
	RunID        string   `json:"run_id,omitempty"`
	State        string   `json:"state"`
	Regenerated  []string `json:"regenerated"`
	Placeholders []string `json:"placeholder_icons,omitempty"`
	Manifest     string   `json:"manifest,omitempty"`
	ElapsedMS    int64    `json:"elapsed_ms"`
	Error        string   `json:"error,omitempty"`
}

func newBuildCommand(ctx *commandContext) *cobra.Command {
	var all bool
	var forceCover bool
	var forceNarration bool
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "build [lesson...]",
		Short: "Regenerate stale assets for one or more lessons",
		Long: `Build loads each lesson script, checks that every input exists, regenerates
stale narration clips, the cover and the full narration track, and writes
manifest.json. Lessons are named by directory path or by name under
paths.lessons_dir.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			dirs, err := ctx.lessonDirs(args, all)
			if err != nil {
				return err
			}
			logger, err := ctx.ensureLogger()
			if err != nil {
				return err
			}

			cfg := *ctx.configValue()
			cfg.Build.ForceCover = cfg.Build.ForceCover || forceCover
			cfg.Build.ForceNarration = cfg.Build.ForceNarration || forceNarration

			store, journal := ctx.openJournal(logger)
			if store != nil {
				defer store.Close()
			}
			orchestrator, err := pipeline.NewFromConfig(&cfg, journal, logger)
			if err != nil {
				return err
			}

			runCtx, stop := signalContext(cmd)
			defer stop()
			started := time.Now()
			results, buildErr := orchestrator.BuildAll(runCtx, dirs)

			summaries := summarizeBuilds(dirs, results, buildErr)
			ctx.notifyBatch(runCtx, logger, summaries, time.Since(started))
			if asJSON {
				if err := writeJSON(cmd, summaries); err != nil {
					return err
				}
			} else {
				fmt.Fprint(cmd.OutOrStdout(), renderBuildTable(summaries))
			}
			if buildErr != nil {
				failed := 0
				for _, s := range summaries {
					if s.Error != "" {
						failed++
					}
				}
				return fmt.Errorf("%d of %d lessons failed: %w", failed, len(summaries), buildErr)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&all, "all", false, "Build every lesson under paths.lessons_dir")
	cmd.Flags().BoolVar(&forceCover, "force-cover", false, "Regenerate the cover even when fresh")
	cmd.Flags().BoolVar(&forceNarration, "force-narration", false, "Regenerate every narration clip even when fresh")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print results as JSON")
	return cmd
}

// summarizeBuilds pairs each lesson with its result. BuildAll prefixes each
// joined error with the lesson directory name, which is how failures are
// matched back to rows.
func summarizeBuilds(dirs []string, results []*pipeline.Result, buildErr error) []buildSummary {
	lessonErrors := splitLessonErrors(buildErr)
	summaries := make([]buildSummary, 0, len(dirs))
	for i, dir := range dirs {
		summary := buildSummary{Lesson: filepath.Base(dir), State: "-", Regenerated: []string{}}
		if i < len(results) && results[i] != nil {
			res := results[i]
			summary.Lesson = res.Lesson
			summary.RunID = res.RunID
			summary.State = string(res.State)
			summary.Regenerated = append(summary.Regenerated, res.Regenerated...)
			summary.Manifest = res.ManifestPath
			summary.ElapsedMS = res.Elapsed.Milliseconds()
			for _, icon := range res.Icons {
				if icon.IsPlaceholder() {
					summary.Placeholders = append(summary.Placeholders, icon.Query)
				}
			}
		}
		if msg, ok := lessonErrors[filepath.Base(dir)]; ok {
			summary.Error = msg
		}
		summaries = append(summaries, summary)
	}
	return summaries
}

func splitLessonErrors(err error) map[string]string {
	out := make(map[string]string)
	if err == nil {
		return out
	}
	var errs []error
	if joined, ok := err.(interface{ Unwrap() []error }); ok {
		errs = joined.Unwrap()
	} else {
		errs = []error{err}
	}
	for _, e := range errs {
		msg := e.Error()
		lesson, detail, found := strings.Cut(msg, ": ")
		if !found {
			continue
		}
		out[lesson] = detail
	}
	return out
}

func renderBuildTable(summaries []buildSummary) string {
	rows := make([][]string, 0, len(summaries))
	for _, s := range summaries {
		regenerated := "-"
		if len(s.Regenerated) > 0 {
			regenerated = strings.Join(s.Regenerated, ", ")
		}
		result := "ok"
		if s.Error != "" {
			result = s.Error
		}
		rows = append(rows, []string{
			s.Lesson,
			s.State,
			regenerated,
			strconv.Itoa(len(s.Placeholders)),
			(time.Duration(s.ElapsedMS) * time.Millisecond).Round(time.Millisecond).String(),
			result,
		})
	}
	return renderTable([]column{
		left("Lesson"), left("State"), left("Regenerated"), right("Placeholders"), right("Elapsed"), left("Result"),
	}, rows)
}

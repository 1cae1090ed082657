package main

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"lessonforge/internal/logging"
	"lessonforge/internal/notifications"
	"lessonforge/internal/pipeline"
	"lessonforge/internal/watch"
)

func newWatchCommand(ctx *commandContext) *cobra.Command {
	var debounce time.Duration
	var skipInitial bool

	cmd := &cobra.Command{
		Use:   "watch <lesson>",
		Short: "Rebuild a lesson whenever its script or shared inputs change",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dirs, err := ctx.lessonDirs(args, false)
			if err != nil {
				return err
			}
			dir := dirs[0]
			logger, err := ctx.ensureLogger()
			if err != nil {
				return err
			}
			cfg := ctx.configValue()

			store, journal := ctx.openJournal(logger)
			if store != nil {
				defer store.Close()
			}
			orchestrator, err := pipeline.NewFromConfig(cfg, journal, logger)
			if err != nil {
				return err
			}

			watcher, err := watch.New(dir, watch.Options{
				ScriptNames:  cfg.Paths.ScriptNames,
				Inputs:       watchedInputs(cfg.Audio.BackgroundPath, cfg.Narration.ReferenceAudio, cfg.Cover.FontPath),
				Debounce:     debounce,
				BuildOnStart: !skipInitial,
			}, logger)
			if err != nil {
				return err
			}
			defer watcher.Close()

			runCtx, stop := signalContext(cmd)
			defer stop()

			notifier := notifications.NewService(cfg)
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Watching %s (Ctrl+C to stop)\n", dir)
			return watcher.Run(runCtx, func(ctx context.Context) error {
				res, err := orchestrator.Build(ctx, dir)
				if err != nil {
					fmt.Fprintf(out, "%s build failed: %v\n", time.Now().Format("15:04:05"), err)
					if notifyErr := notifier.NotifyWatchFailure(ctx, filepath.Base(dir), err); notifyErr != nil {
						logging.WarnWithContext(logger, "watch notification failed", "notification_failed",
							logging.Error(notifyErr),
							logging.String(logging.FieldImpact, "rebuild failure was not published"),
							logging.String(logging.FieldErrorHint, "check notifications.ntfy_topic"),
						)
					}
					return err
				}
				regenerated := "nothing"
				if len(res.Regenerated) > 0 {
					regenerated = strings.Join(res.Regenerated, ", ")
				}
				fmt.Fprintf(out, "%s rebuilt %s in %s\n", time.Now().Format("15:04:05"), regenerated, res.Elapsed.Round(time.Millisecond))
				return nil
			})
		},
	}
	cmd.Flags().DurationVar(&debounce, "debounce", 500*time.Millisecond, "Quiet period before rebuilding after a change")
	cmd.Flags().BoolVar(&skipInitial, "no-initial-build", false, "Wait for a change before the first build")
	return cmd
}

func watchedInputs(paths ...string) []string {
	var inputs []string
	for _, p := range paths {
		if strings.TrimSpace(p) != "" {
			inputs = append(inputs, p)
		}
	}
	return inputs
}

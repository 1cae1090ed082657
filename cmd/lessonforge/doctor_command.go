package main

import (
	"fmt"
	"io"
	"os"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"lessonforge/internal/notifications"
	"lessonforge/internal/preflight"
)

func newDoctorCommand(ctx *commandContext) *cobra.Command {
	var sendTest bool

	cmd := &cobra.Command{
		Use:   "doctor",
		Short: "Check directories, binaries, shared inputs and the icon catalog",
		RunE: func(cmd *cobra.Command, args []string) error {
			results := preflight.RunAll(cmd.Context(), ctx.configValue())
			out := cmd.OutOrStdout()
			color := shouldColorize(out)
			for _, r := range results {
				fmt.Fprintln(out, statusLine(r.Name, r.Passed, r.Detail, color))
			}
			if sendTest {
				err := notifications.NewService(ctx.configValue()).TestNotification(cmd.Context())
				detail := "test sent"
				if err != nil {
					detail = err.Error()
				}
				fmt.Fprintln(out, statusLine("Notifications", err == nil, detail, color))
				if err != nil {
					return err
				}
			}
			if failed := preflight.Failed(results); len(failed) > 0 {
				return fmt.Errorf("%d of %d checks failed", len(failed), len(results))
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&sendTest, "notify", false, "Also send a test notification to notifications.ntfy_topic")
	return cmd
}

const (
	colorReset = "\x1b[0m"
	colorRed   = "\x1b[31m"
	colorGreen = "\x1b[32m"
)

// statusLine renders "  Label:                [OK] detail" with the label
// padded so results line up.
func statusLine(label string, ok bool, detail string, color bool) string {
	verdict, tint := "[OK]", colorGreen
	if !ok {
		verdict, tint = "[ERROR]", colorRed
	}
	if detail != "" {
		verdict += " " + detail
	}
	line := fmt.Sprintf("  %-22s %s", label+":", verdict)
	if color {
		line = tint + line + colorReset
	}
	return line
}

func shouldColorize(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && (isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd()))
}

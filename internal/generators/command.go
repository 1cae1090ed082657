package generators

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"
)

type commandRunner func(ctx context.Context, name string, args ...string) error

func defaultCommandRunner(ctx context.Context, name string, args ...string) error {
	cmd := exec.CommandContext(ctx, name, args...)
	output, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("%w: %s", err, strings.TrimSpace(string(output)))
	}
	return nil
}

// expandTemplate substitutes {key} placeholders in every argument. Values are
// passed as whole arguments, never through a shell.
func expandTemplate(argv []string, values map[string]string) []string {
	pairs := make([]string, 0, len(values)*2)
	for key, value := range values {
		pairs = append(pairs, "{"+key+"}", value)
	}
	replacer := strings.NewReplacer(pairs...)
	out := make([]string, len(argv))
	for i, arg := range argv {
		out[i] = replacer.Replace(arg)
	}
	return out
}

// runBounded executes argv under an optional timeout. A deadline hit is
// reported alongside the tool error so callers can classify it.
func runBounded(ctx context.Context, run commandRunner, timeout time.Duration, argv []string) error {
	if len(argv) == 0 || strings.TrimSpace(argv[0]) == "" {
		return errors.New("command not configured")
	}
	runCtx := ctx
	if timeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	if err := run(runCtx, argv[0], argv[1:]...); err != nil {
		if runCtx.Err() != nil {
			return fmt.Errorf("%w: %w", runCtx.Err(), err)
		}
		return err
	}
	return nil
}

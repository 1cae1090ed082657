package generators

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"lessonforge/internal/fileutil"
	"lessonforge/internal/logging"
	"lessonforge/internal/services"
)

// NarrationRequest describes one clip.
type NarrationRequest struct {
	Scene     int
	Text      string
	Reference string
	Output    string
}

// Narrator produces a narration clip at req.Output.
type Narrator interface {
	Narrate(ctx context.Context, req NarrationRequest) error
}

// CommandNarrator runs a text-to-speech command per clip.
type CommandNarrator struct {
	argv    []string
	timeout time.Duration
	run     commandRunner
	logger  *slog.Logger
}

// NewCommandNarrator builds a narrator from an argv template. Supported
// placeholders are {text}, {output}, {reference} and {scene}.
func NewCommandNarrator(argv []string, timeout time.Duration, logger *slog.Logger) *CommandNarrator {
	return &CommandNarrator{
		argv:    append([]string(nil), argv...),
		timeout: timeout,
		run:     defaultCommandRunner,
		logger:  logging.NewComponentLogger(logger, "narration"),
	}
}

// WithCommandRunner allows injecting a custom command runner for tests.
func (n *CommandNarrator) WithCommandRunner(r func(ctx context.Context, name string, args ...string) error) {
	if n != nil && r != nil {
		n.run = r
	}
}

// Narrate renders req.Text into req.Output.
func (n *CommandNarrator) Narrate(ctx context.Context, req NarrationRequest) error {
	if err := os.MkdirAll(filepath.Dir(req.Output), 0o755); err != nil {
		return services.Generation("narration", "prepare output directory", req.Output, err)
	}
	partial := fileutil.PartialPath(req.Output)
	argv := expandTemplate(n.argv, map[string]string{
		"text":      req.Text,
		"output":    partial,
		"reference": req.Reference,
		"scene":     strconv.Itoa(req.Scene),
	})

	logger := logging.WithContext(ctx, n.logger)
	logger.Debug("executing narration command",
		logging.Int("scene", req.Scene),
		logging.String("output", req.Output),
		logging.Int("text_chars", len([]rune(req.Text))),
	)

	if err := runBounded(ctx, n.run, n.timeout, argv); err != nil {
		fileutil.Discard(partial)
		return services.Generation("narration", "scene "+strconv.Itoa(req.Scene), req.Output, err)
	}
	if err := fileutil.Commit(partial, req.Output); err != nil {
		return services.Generation("narration", "scene "+strconv.Itoa(req.Scene), req.Output, err)
	}
	logger.Info("narration clip generated",
		logging.String(logging.FieldEventType, "narration_generated"),
		logging.Int("scene", req.Scene),
		logging.String("output", req.Output),
	)
	return nil
}

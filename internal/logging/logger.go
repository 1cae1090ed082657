package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/mattn/go-isatty"

	"lessonforge/internal/config"
)

// LogFileName is the log file written inside the configured log directory.
const LogFileName = "lessonforge.log"

// Options describes logger construction parameters.
type Options struct {
	Level       string
	Format      string
	OutputPaths []string
	Development bool
}

// New constructs a slog logger using the provided options.
func New(opts Options) (*slog.Logger, error) {
	level := new(slog.LevelVar)
	level.Set(parseLevel(opts.Level))
	withSource := opts.Development || level.Level() <= slog.LevelDebug

	format := strings.ToLower(strings.TrimSpace(opts.Format))
	if format != "" && format != "console" && format != "json" {
		return nil, fmt.Errorf("log format: unsupported value %q", opts.Format)
	}

	paths := opts.OutputPaths
	if len(paths) == 0 {
		paths = []string{"stderr"}
	}
	sinks, err := openSinks(paths)
	if err != nil {
		return nil, err
	}

	if format == "json" {
		return slog.New(newJSONHandler(sinks.writer(), level, withSource)), nil
	}
	return slog.New(newConsoleHandler(sinks, level, withSource)), nil
}

// NewFromConfig creates a logger using application config defaults. Console
// output goes to stderr so command output on stdout stays machine-readable.
func NewFromConfig(cfg *config.Config) (*slog.Logger, error) {
	if cfg == nil {
		return New(Options{Level: "info", Format: "console"})
	}
	paths := []string{"stderr"}
	if dir := strings.TrimSpace(cfg.Paths.LogDir); dir != "" {
		paths = append(paths, filepath.Join(dir, LogFileName))
	}
	return New(Options{
		Level:       cfg.Logging.Level,
		Format:      cfg.Logging.Format,
		OutputPaths: paths,
	})
}

func parseLevel(level string) slog.Level {
	var parsed slog.Level
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "warning":
		return slog.LevelWarn
	case "":
		return slog.LevelInfo
	}
	if err := parsed.UnmarshalText([]byte(strings.TrimSpace(level))); err != nil {
		return slog.LevelInfo
	}
	return parsed
}

// sink is one log destination. Terminal sinks get ANSI colour.
type sink struct {
	w   io.Writer
	tty bool
}

type sinkSet []sink

func (s sinkSet) writer() io.Writer {
	if len(s) == 1 {
		return s[0].w
	}
	writers := make([]io.Writer, len(s))
	for i, out := range s {
		writers[i] = out.w
	}
	return io.MultiWriter(writers...)
}

func openSinks(paths []string) (sinkSet, error) {
	var sinks sinkSet
	opened := make(map[string]bool, len(paths))
	for _, raw := range paths {
		path := strings.TrimSpace(raw)
		if path == "" || opened[path] {
			continue
		}
		opened[path] = true

		switch path {
		case "stdout":
			sinks = append(sinks, streamSink(os.Stdout))
		case "stderr":
			sinks = append(sinks, streamSink(os.Stderr))
		default:
			file, err := openLogFile(path)
			if err != nil {
				return nil, err
			}
			sinks = append(sinks, sink{w: file})
		}
	}
	if len(sinks) == 0 {
		sinks = append(sinks, streamSink(os.Stderr))
	}
	return sinks, nil
}

func streamSink(f *os.File) sink {
	fd := f.Fd()
	return sink{w: f, tty: isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)}
}

func openLogFile(path string) (*os.File, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("ensure log directory: %w", err)
	}
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o664)
	if err != nil {
		return nil, fmt.Errorf("open log file %s: %w", path, err)
	}
	return file, nil
}

func newJSONHandler(w io.Writer, level slog.Leveler, withSource bool) slog.Handler {
	return slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level:       level,
		AddSource:   withSource,
		ReplaceAttr: jsonReplace,
	})
}

// jsonReplace renames time to ts in UTC RFC3339, lowercases the level and
// shortens source locations to file:line.
func jsonReplace(_ []string, attr slog.Attr) slog.Attr {
	switch attr.Key {
	case slog.TimeKey:
		if attr.Value.Kind() == slog.KindTime {
			return slog.String("ts", attr.Value.Time().UTC().Format(time.RFC3339))
		}
		attr.Key = "ts"
	case slog.LevelKey:
		return slog.String(slog.LevelKey, strings.ToLower(attr.Value.String()))
	case slog.SourceKey:
		if src, ok := attr.Value.Any().(*slog.Source); ok && src != nil {
			return slog.String(slog.SourceKey, sourceLocation(src))
		}
	}
	return attr
}

func sourceLocation(src *slog.Source) string {
	return fmt.Sprintf("%s:%d", filepath.Base(src.File), src.Line)
}

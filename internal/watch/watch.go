// Package watch rebuilds a lesson whenever one of its inputs changes.
//
// Only the lesson root is watched, plus the directories of inputs that live
// elsewhere (background track, reference audio, cover font). Derived outputs
// such as clips and the manifest never trigger a rebuild.
package watch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"lessonforge/internal/logging"
)

const defaultDebounce = 500 * time.Millisecond

// Options configures a Watcher.
type Options struct {
	// ScriptNames are the script file names accepted in the lesson root.
	ScriptNames []string
	// Inputs are additional input files, usually outside the lesson.
	Inputs []string
	// Debounce collapses bursts of events into one rebuild.
	Debounce time.Duration
	// BuildOnStart runs one build before waiting for changes.
	BuildOnStart bool
}

// BuildFunc rebuilds the lesson. Errors are logged and watching continues.
type BuildFunc func(ctx context.Context) error

// Watcher observes one lesson.
type Watcher struct {
	lessonDir string
	opts      Options
	relevant  map[string]struct{}
	watcher   *fsnotify.Watcher
	logger    *slog.Logger
}

// New starts watching lessonDir and the directories holding opts.Inputs.
func New(lessonDir string, opts Options, logger *slog.Logger) (*Watcher, error) {
	root, err := filepath.Abs(lessonDir)
	if err != nil {
		return nil, fmt.Errorf("resolve lesson directory: %w", err)
	}
	if opts.Debounce <= 0 {
		opts.Debounce = defaultDebounce
	}

	relevant := make(map[string]struct{})
	dirs := []string{root}
	for _, name := range opts.ScriptNames {
		relevant[filepath.Join(root, name)] = struct{}{}
	}
	for _, input := range opts.Inputs {
		if strings.TrimSpace(input) == "" {
			continue
		}
		abs, err := filepath.Abs(input)
		if err != nil {
			return nil, fmt.Errorf("resolve input %s: %w", input, err)
		}
		relevant[abs] = struct{}{}
		dirs = append(dirs, filepath.Dir(abs))
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}
	seen := make(map[string]struct{})
	for _, dir := range dirs {
		if _, ok := seen[dir]; ok {
			continue
		}
		seen[dir] = struct{}{}
		if err := fsw.Add(dir); err != nil {
			_ = fsw.Close()
			return nil, fmt.Errorf("watch %s: %w", dir, err)
		}
	}

	return &Watcher{
		lessonDir: root,
		opts:      opts,
		relevant:  relevant,
		watcher:   fsw,
		logger:    logging.NewComponentLogger(logger, "watch"),
	}, nil
}

// Close stops the underlying watcher.
func (w *Watcher) Close() error {
	if w == nil || w.watcher == nil {
		return nil
	}
	return w.watcher.Close()
}

// Relevant reports whether a change to path should trigger a rebuild.
func (w *Watcher) Relevant(path string) bool {
	_, ok := w.relevant[filepath.Clean(path)]
	return ok
}

// Run blocks until ctx is done, calling build after each debounced burst of
// relevant changes. Builds run on the calling goroutine, one at a time.
func (w *Watcher) Run(ctx context.Context, build BuildFunc) error {
	logger := logging.WithContext(ctx, w.logger)
	logger.Info("watching lesson",
		logging.String(logging.FieldEventType, "watch_started"),
		logging.String("lesson_dir", w.lessonDir),
		logging.Int("inputs", len(w.relevant)),
		logging.Duration("debounce", w.opts.Debounce),
	)
	if w.opts.BuildOnStart {
		w.rebuild(ctx, build, "start")
	}

	timer := time.NewTimer(w.opts.Debounce)
	if !timer.Stop() {
		<-timer.C
	}
	defer timer.Stop()
	var trigger string

	for {
		select {
		case <-ctx.Done():
			logger.Info("watch stopped", logging.String(logging.FieldEventType, "watch_stopped"))
			return nil
		case event, ok := <-w.watcher.Events:
			if !ok {
				return errors.New("watcher closed")
			}
			if !w.Relevant(event.Name) {
				continue
			}
			if event.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Rename|fsnotify.Remove) == 0 {
				continue
			}
			logger.Debug("input changed", logging.String("path", event.Name), logging.String("op", event.Op.String()))
			trigger = filepath.Base(event.Name)
			timer.Reset(w.opts.Debounce)
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return errors.New("watcher closed")
			}
			logging.WarnWithContext(logger, "watcher error", "watch_error",
				logging.Error(err),
				logging.String(logging.FieldImpact, "a change may have been missed"),
				logging.String(logging.FieldErrorHint, "save the script again to retrigger a build"),
			)
		case <-timer.C:
			w.rebuild(ctx, build, trigger)
		}
	}
}

func (w *Watcher) rebuild(ctx context.Context, build BuildFunc, trigger string) {
	logger := logging.WithContext(ctx, w.logger)
	logger.Info("rebuilding lesson",
		logging.String(logging.FieldEventType, "watch_rebuild"),
		logging.String("trigger", trigger),
	)
	if err := build(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logging.WarnWithContext(logger, "rebuild failed", "watch_rebuild_failed",
			logging.Error(err),
			logging.String(logging.FieldImpact, "lesson assets are out of date"),
			logging.String(logging.FieldErrorHint, "fix the reported problem and save again"),
		)
	}
}

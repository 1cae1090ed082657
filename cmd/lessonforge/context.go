package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"lessonforge/internal/config"
	"lessonforge/internal/journal"
	"lessonforge/internal/logging"
	"lessonforge/internal/notifications"
	"lessonforge/internal/pipeline"
)

type commandContext struct {
	configFlag *string
	envFile    *string

	configOnce sync.Once
	config     *config.Config
	configErr  error

	loggerOnce sync.Once
	logger     *slog.Logger
	loggerErr  error
}

func newCommandContext(configFlag, envFile *string) *commandContext {
	return &commandContext{
		configFlag: configFlag,
		envFile:    envFile,
	}
}

// ensureConfig loads the dotenv file first so force-rebuild switches kept
// next to the lessons reach config normalization.
func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		if err := c.loadEnvFile(); err != nil {
			c.configErr = err
			return
		}
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		cfg, _, err := config.Load(path)
		if err != nil {
			c.configErr = err
			return
		}
		if err := cfg.EnsureDirectories(); err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
	})
	return c.config, c.configErr
}

func (c *commandContext) loadEnvFile() error {
	if c.envFile == nil {
		return nil
	}
	path := strings.TrimSpace(*c.envFile)
	if path == "" {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("load env file %s: %w", path, err)
	}
	return nil
}

func (c *commandContext) configValue() *config.Config {
	cfg, _ := c.ensureConfig()
	return cfg
}

// ensureLogger builds the process logger and prunes old log files once.
func (c *commandContext) ensureLogger() (*slog.Logger, error) {
	c.loggerOnce.Do(func() {
		cfg, err := c.ensureConfig()
		if err != nil {
			c.loggerErr = err
			return
		}
		logger, err := logging.NewFromConfig(cfg)
		if err != nil {
			c.loggerErr = fmt.Errorf("init logger: %w", err)
			return
		}
		logging.PruneLogs(logger, cfg.Paths.LogDir, cfg.Logging.RetentionDays)
		c.logger = logger
	})
	return c.logger, c.loggerErr
}

// openJournal returns nil when the journal cannot be opened; builds proceed
// without history in that case.
func (c *commandContext) openJournal(logger *slog.Logger) (*journal.Store, pipeline.Journal) {
	cfg := c.configValue()
	store, err := journal.Open(cfg.JournalPath())
	if err != nil {
		logging.WarnWithContext(logger, "build journal unavailable", "journal_open_failed",
			logging.String("path", cfg.JournalPath()),
			logging.Error(err),
			logging.String(logging.FieldImpact, "this run will not appear in history"),
			logging.String(logging.FieldErrorHint, "check paths.state_dir permissions"),
		)
		return nil, nil
	}
	return store, store
}

// lessonDirs maps arguments to lesson directories. An argument naming an
// existing directory is used as is; anything else is looked up under
// paths.lessons_dir.
func (c *commandContext) lessonDirs(args []string, all bool) ([]string, error) {
	cfg := c.configValue()
	if all {
		if len(args) > 0 {
			return nil, errors.New("pass lesson names or --all, not both")
		}
		dirs, err := pipeline.Discover(cfg.Paths.LessonsDir, cfg.Paths.ScriptNames)
		if err != nil {
			return nil, err
		}
		if len(dirs) == 0 {
			return nil, fmt.Errorf("no lessons found under %s", cfg.Paths.LessonsDir)
		}
		return dirs, nil
	}
	if len(args) == 0 {
		return nil, errors.New("name at least one lesson or pass --all")
	}
	dirs := make([]string, 0, len(args))
	for _, arg := range args {
		if info, err := os.Stat(arg); err == nil && info.IsDir() {
			dirs = append(dirs, arg)
			continue
		}
		dirs = append(dirs, filepath.Join(cfg.Paths.LessonsDir, arg))
	}
	return dirs, nil
}

// notifyBatch publishes the batch outcome. Delivery failures only warn.
func (c *commandContext) notifyBatch(ctx context.Context, logger *slog.Logger, summaries []buildSummary, elapsed time.Duration) {
	var failures []notifications.LessonFailure
	for _, s := range summaries {
		if s.Error != "" {
			failures = append(failures, notifications.LessonFailure{Lesson: s.Lesson, Err: errors.New(s.Error)})
		}
	}
	built := len(summaries) - len(failures)
	svc := notifications.NewService(c.configValue())
	if err := svc.NotifyBatchCompleted(context.WithoutCancel(ctx), built, failures, elapsed); err != nil {
		logging.WarnWithContext(logger, "build notification failed", "notification_failed",
			logging.Error(err),
			logging.String(logging.FieldImpact, "build outcome was not published"),
			logging.String(logging.FieldErrorHint, "check notifications.ntfy_topic"),
		)
	}
}

func signalContext(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	parent := cmd.Context()
	if parent == nil {
		parent = context.Background()
	}
	return signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations != nil && c.Annotations["skipConfigLoad"] == "true" {
			return true
		}
	}
	return false
}

package logging

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// PruneLogs deletes *.log files in dir last modified more than retentionDays
// ago and reports how many were removed. The active log file is always kept.
// retentionDays <= 0 disables pruning.
func PruneLogs(logger *slog.Logger, dir string, retentionDays int) int {
	dir = strings.TrimSpace(dir)
	if retentionDays <= 0 || dir == "" {
		return 0
	}
	candidates, err := filepath.Glob(filepath.Join(dir, "*.log"))
	if err != nil {
		return 0
	}
	active := filepath.Join(dir, LogFileName)
	cutoff := time.Now().AddDate(0, 0, -retentionDays)

	removed := 0
	for _, path := range candidates {
		if path == active || !expired(path, cutoff) {
			continue
		}
		if err := os.Remove(path); err != nil {
			WarnWithContext(logger, "could not prune old log", "log_retention_failed",
				String("path", path),
				Error(err),
				String(FieldErrorHint, "check ownership of paths.log_dir"),
				String(FieldImpact, "stale log stays on disk"),
			)
			continue
		}
		removed++
	}
	if removed > 0 && logger != nil {
		logger.Info("old logs pruned",
			Int("count", removed),
			String("dir", dir),
			String(FieldEventType, "log_pruned"),
		)
	}
	return removed
}

func expired(path string, cutoff time.Time) bool {
	info, err := os.Stat(path)
	if err != nil || !info.Mode().IsRegular() {
		return false
	}
	return info.ModTime().Before(cutoff)
}

package journal

import (
	"strings"
	"time"
)

// Status is the terminal outcome of a run.
type Status string

const (
	StatusRunning   Status = "running"
	StatusSucceeded Status = "succeeded"
	StatusFailed    Status = "failed"
)

// Run is one journal row.
type Run struct {
	ID          int64      `json:"id"`
	RunID       string     `json:"run_id"`
	Lesson      string     `json:"lesson"`
	LessonDir   string     `json:"lesson_dir"`
	State       string     `json:"state"`
	Status      Status     `json:"status"`
	Regenerated []string   `json:"regenerated"`
	Error       string     `json:"error,omitempty"`
	StartedAt   time.Time  `json:"started_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
	FinishedAt  *time.Time `json:"finished_at,omitempty"`
}

// Duration returns the wall time of a finished run, or zero while running.
func (r Run) Duration() time.Duration {
	if r.FinishedAt == nil {
		return 0
	}
	return r.FinishedAt.Sub(r.StartedAt)
}

func joinAssets(assets []string) string {
	cleaned := make([]string, 0, len(assets))
	for _, asset := range assets {
		if asset = strings.TrimSpace(asset); asset != "" {
			cleaned = append(cleaned, asset)
		}
	}
	return strings.Join(cleaned, ",")
}

func splitAssets(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	return strings.Split(raw, ",")
}

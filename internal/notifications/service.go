package notifications

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"lessonforge/internal/config"
)

const userAgent = "lessonforge/0.1"

// LessonFailure names one lesson that did not build.
type LessonFailure struct {
	Lesson string
	Err    error
}

// Service defines the notification surface used by the CLI.
type Service interface {
	NotifyBatchCompleted(ctx context.Context, built int, failures []LessonFailure, elapsed time.Duration) error
	NotifyWatchFailure(ctx context.Context, lesson string, err error) error
	TestNotification(ctx context.Context) error
}

// NewService builds an ntfy-backed service, or a no-op one when no topic is configured.
func NewService(cfg *config.Config) Service {
	topic := strings.TrimSpace(cfg.Notifications.NtfyTopic)
	if topic == "" {
		return noopService{}
	}
	timeout := time.Duration(cfg.Notifications.RequestTimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &ntfyService{
		endpoint:  topic,
		onSuccess: cfg.Notifications.OnSuccess,
		client:    &http.Client{Timeout: timeout},
	}
}

type payload struct {
	title    string
	message  string
	tags     []string
	priority string
}

type ntfyService struct {
	endpoint  string
	onSuccess bool
	client    *http.Client
}

func (n *ntfyService) NotifyBatchCompleted(ctx context.Context, built int, failures []LessonFailure, elapsed time.Duration) error {
	elapsed = elapsed.Round(time.Second)
	if elapsed < 0 {
		elapsed = 0
	}
	if len(failures) == 0 {
		if !n.onSuccess {
			return nil
		}
		return n.send(ctx, payload{
			title:   "lessonforge - Build complete",
			message: fmt.Sprintf("Built %d %s in %s", built, plural(built, "lesson", "lessons"), elapsed),
			tags:    []string{"lessonforge", "build", "completed"},
		})
	}

	lines := []string{fmt.Sprintf("%d built, %d failed in %s", built, len(failures), elapsed)}
	for _, f := range failures {
		reason := "unknown error"
		if f.Err != nil {
			reason = strings.TrimSpace(f.Err.Error())
		}
		lines = append(lines, f.Lesson+": "+reason)
	}
	return n.send(ctx, payload{
		title:    "lessonforge - Build failed",
		message:  strings.Join(lines, "\n"),
		tags:     []string{"lessonforge", "build", "failed"},
		priority: "high",
	})
}

func (n *ntfyService) NotifyWatchFailure(ctx context.Context, lesson string, err error) error {
	message := fmt.Sprintf("Rebuild of %s failed", strings.TrimSpace(lesson))
	if err != nil {
		message += ": " + strings.TrimSpace(err.Error())
	}
	return n.send(ctx, payload{
		title:   "lessonforge - Watch rebuild failed",
		message: message,
		tags:    []string{"lessonforge", "watch", "failed"},
	})
}

func (n *ntfyService) TestNotification(ctx context.Context) error {
	return n.send(ctx, payload{
		title:    "lessonforge - Test",
		message:  "Notification system test",
		tags:     []string{"lessonforge", "test"},
		priority: "low",
	})
}

// headers maps m onto ntfy's publish headers. Empty fields are omitted.
func (m payload) headers() http.Header {
	h := http.Header{}
	h.Set("User-Agent", userAgent)
	h.Set("Content-Type", "text/plain; charset=utf-8")
	for key, value := range map[string]string{
		"Title":    m.title,
		"Tags":     strings.Join(m.tags, ","),
		"Priority": m.priority,
	} {
		if value != "" {
			h.Set(key, value)
		}
	}
	return h
}

func (n *ntfyService) send(ctx context.Context, m payload) error {
	if n == nil || n.client == nil {
		return nil
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.endpoint, strings.NewReader(m.message))
	if err != nil {
		return fmt.Errorf("build ntfy request: %w", err)
	}
	req.Header = m.headers()

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("send ntfy notification: %w", err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
	if resp.StatusCode/100 != 2 {
		return fmt.Errorf("ntfy %s: %s %s", n.endpoint, resp.Status, strings.TrimSpace(string(body)))
	}
	return nil
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}

type noopService struct{}

func (noopService) NotifyBatchCompleted(context.Context, int, []LessonFailure, time.Duration) error {
	return nil
}
func (noopService) NotifyWatchFailure(context.Context, string, error) error { return nil }
func (noopService) TestNotification(context.Context) error                 { return nil }

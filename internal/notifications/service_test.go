package notifications_test

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"lessonforge/internal/config"
	"lessonforge/internal/notifications"
)

type captured struct {
	title    string
	tags     string
	priority string
	body     string
}

func newServer(t *testing.T, status int) (*httptest.Server, *[]captured) {
	t.Helper()
	var requests []captured
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		requests = append(requests, captured{
			title:    r.Header.Get("Title"),
			tags:     r.Header.Get("Tags"),
			priority: r.Header.Get("Priority"),
			body:     string(body),
		})
		w.WriteHeader(status)
		_, _ = w.Write([]byte("nope"))
	}))
	t.Cleanup(srv.Close)
	return srv, &requests
}

func serviceFor(url string, onSuccess bool) notifications.Service {
	cfg := config.Default()
	cfg.Notifications.NtfyTopic = url
	cfg.Notifications.OnSuccess = onSuccess
	return notifications.NewService(&cfg)
}

func TestNewServiceReturnsNoopWhenTopicMissing(t *testing.T) {
	cfg := config.Default()
	svc := notifications.NewService(&cfg)
	failures := []notifications.LessonFailure{{Lesson: "intro", Err: errors.New("boom")}}
	if err := svc.NotifyBatchCompleted(context.Background(), 0, failures, time.Second); err != nil {
		t.Fatalf("expected noop notifier to return nil, got %v", err)
	}
}

func TestBatchFailureListsLessons(t *testing.T) {
	srv, requests := newServer(t, http.StatusOK)
	svc := serviceFor(srv.URL, false)

	failures := []notifications.LessonFailure{
		{Lesson: "intro", Err: errors.New("narration failed")},
		{Lesson: "outro", Err: errors.New("missing script")},
	}
	if err := svc.NotifyBatchCompleted(context.Background(), 3, failures, 90*time.Second); err != nil {
		t.Fatalf("NotifyBatchCompleted: %v", err)
	}
	if len(*requests) != 1 {
		t.Fatalf("expected one request, got %d", len(*requests))
	}
	got := (*requests)[0]
	if got.title != "lessonforge - Build failed" || got.priority != "high" {
		t.Fatalf("unexpected headers %+v", got)
	}
	if got.tags != "lessonforge,build,failed" {
		t.Fatalf("unexpected tags %q", got.tags)
	}
	for _, want := range []string{"3 built, 2 failed in 1m30s", "intro: narration failed", "outro: missing script"} {
		if !strings.Contains(got.body, want) {
			t.Fatalf("expected body %q to contain %q", got.body, want)
		}
	}
}

func TestBatchSuccessOnlyWhenEnabled(t *testing.T) {
	srv, requests := newServer(t, http.StatusOK)

	if err := serviceFor(srv.URL, false).NotifyBatchCompleted(context.Background(), 2, nil, time.Second); err != nil {
		t.Fatalf("NotifyBatchCompleted: %v", err)
	}
	if len(*requests) != 0 {
		t.Fatalf("expected success to stay quiet, got %d requests", len(*requests))
	}

	if err := serviceFor(srv.URL, true).NotifyBatchCompleted(context.Background(), 1, nil, 2*time.Second); err != nil {
		t.Fatalf("NotifyBatchCompleted: %v", err)
	}
	if len(*requests) != 1 || (*requests)[0].body != "Built 1 lesson in 2s" {
		t.Fatalf("unexpected requests %+v", *requests)
	}
}

func TestSendReportsHTTPErrors(t *testing.T) {
	srv, _ := newServer(t, http.StatusForbidden)
	err := serviceFor(srv.URL, true).TestNotification(context.Background())
	if err == nil || !strings.Contains(err.Error(), "403 Forbidden nope") {
		t.Fatalf("expected status error, got %v", err)
	}
}

func TestWatchFailureMessage(t *testing.T) {
	srv, requests := newServer(t, http.StatusOK)
	if err := serviceFor(srv.URL, false).NotifyWatchFailure(context.Background(), "intro", errors.New("exit status 1")); err != nil {
		t.Fatalf("NotifyWatchFailure: %v", err)
	}
	if got := (*requests)[0].body; got != "Rebuild of intro failed: exit status 1" {
		t.Fatalf("unexpected body %q", got)
	}
}

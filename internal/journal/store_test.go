package journal_test

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"lessonforge/internal/journal"
)

func openStore(t *testing.T) *journal.Store {
	t.Helper()
	store, err := journal.Open(filepath.Join(t.TempDir(), "state", "journal.db"))
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestRunLifecycle(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()

	if err := store.Begin(ctx, "run-1", "lesson-01", "/lessons/lesson-01", "loaded"); err != nil {
		t.Fatalf("Begin failed: %v", err)
	}
	if err := store.Transition(ctx, "run-1", "generating"); err != nil {
		t.Fatalf("Transition failed: %v", err)
	}
	if err := store.Finish(ctx, "run-1", []string{"voice/1.mp3", "", "voice/full_audio.mp3"}, nil); err != nil {
		t.Fatalf("Finish failed: %v", err)
	}

	run, err := store.Get(ctx, "run-1")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if run.State != "generating" || run.Status != journal.StatusSucceeded {
		t.Fatalf("unexpected run %+v", run)
	}
	if len(run.Regenerated) != 2 || run.Regenerated[1] != "voice/full_audio.mp3" {
		t.Fatalf("unexpected regenerated assets %q", run.Regenerated)
	}
	if run.FinishedAt == nil || run.StartedAt.IsZero() || run.Duration() < 0 {
		t.Fatalf("expected timestamps, got %+v", run)
	}
}

func TestFinishRecordsFailure(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()
	if err := store.Begin(ctx, "run-2", "lesson-02", "/l/2", "loaded"); err != nil {
		t.Fatalf("Begin failed: %v", err)
	}
	if err := store.Finish(ctx, "run-2", nil, errors.New("generation failure: narration: scene 3")); err != nil {
		t.Fatalf("Finish failed: %v", err)
	}
	run, err := store.Get(ctx, "run-2")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if run.Status != journal.StatusFailed || run.Error == "" || run.Regenerated != nil {
		t.Fatalf("unexpected failed run %+v", run)
	}
}

func TestUnknownRun(t *testing.T) {
	store := openStore(t)
	if err := store.Transition(context.Background(), "missing", "done"); !errors.Is(err, journal.ErrUnknownRun) {
		t.Fatalf("expected ErrUnknownRun, got %v", err)
	}
	if _, err := store.Get(context.Background(), "missing"); !errors.Is(err, journal.ErrUnknownRun) {
		t.Fatalf("expected ErrUnknownRun from Get, got %v", err)
	}
}

func TestRecentNewestFirstAndFiltered(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()
	for _, r := range []struct{ id, lesson string }{
		{"a", "lesson-01"}, {"b", "lesson-02"}, {"c", "lesson-01"},
	} {
		if err := store.Begin(ctx, r.id, r.lesson, "/l/"+r.lesson, "loaded"); err != nil {
			t.Fatalf("Begin %s failed: %v", r.id, err)
		}
	}

	all, err := store.Recent(ctx, "", 10)
	if err != nil {
		t.Fatalf("Recent failed: %v", err)
	}
	if len(all) != 3 || all[0].RunID != "c" || all[2].RunID != "a" {
		t.Fatalf("unexpected order %+v", all)
	}

	filtered, err := store.Recent(ctx, "lesson-01", 1)
	if err != nil {
		t.Fatalf("Recent filtered failed: %v", err)
	}
	if len(filtered) != 1 || filtered[0].RunID != "c" {
		t.Fatalf("unexpected filtered runs %+v", filtered)
	}
}

func TestMarkAbandoned(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()
	_ = store.Begin(ctx, "x", "lesson-01", "/l/1", "generating")
	_ = store.Begin(ctx, "y", "lesson-01", "/l/1", "loaded")
	_ = store.Finish(ctx, "y", nil, nil)

	n, err := store.MarkAbandoned(ctx, "lesson-01")
	if err != nil {
		t.Fatalf("MarkAbandoned failed: %v", err)
	}
	if n != 1 {
		t.Fatalf("expected one abandoned run, got %d", n)
	}
	run, _ := store.Get(ctx, "x")
	if run.Status != journal.StatusFailed {
		t.Fatalf("expected abandoned run to be failed, got %s", run.Status)
	}
}

func TestReopenKeepsRuns(t *testing.T) {
	path := filepath.Join(t.TempDir(), "journal.db")
	store, err := journal.Open(path)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	if err := store.Begin(context.Background(), "r", "lesson", "/l", "loaded"); err != nil {
		t.Fatalf("Begin failed: %v", err)
	}
	_ = store.Close()

	reopened, err := journal.Open(path)
	if err != nil {
		t.Fatalf("reopen failed: %v", err)
	}
	defer reopened.Close()
	if _, err := reopened.Get(context.Background(), "r"); err != nil {
		t.Fatalf("expected run after reopen: %v", err)
	}
}

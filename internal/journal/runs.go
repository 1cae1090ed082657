package journal

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
)

const runColumns = `id, run_id, lesson, lesson_dir, state, status, regenerated, error_message, started_at, updated_at, finished_at`

// Begin inserts a running row for lesson.
func (s *Store) Begin(ctx context.Context, runID, lesson, lessonDir, state string) error {
	now := s.timestamp()
	_, err := s.exec(ctx,
		`INSERT INTO runs (run_id, lesson, lesson_dir, state, status, started_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		runID, lesson, lessonDir, state, StatusRunning, now, now)
	if err != nil {
		return fmt.Errorf("begin run %s: %w", runID, err)
	}
	return nil
}

// Transition records the state a run has reached.
func (s *Store) Transition(ctx context.Context, runID, state string) error {
	return s.updateOne(ctx, runID,
		`UPDATE runs SET state = ?, updated_at = ? WHERE run_id = ?`,
		state, s.timestamp(), runID)
}

// Finish closes the run with its outcome. A nil runErr marks success.
func (s *Store) Finish(ctx context.Context, runID string, regenerated []string, runErr error) error {
	status, message := StatusSucceeded, ""
	if runErr != nil {
		status, message = StatusFailed, runErr.Error()
	}
	now := s.timestamp()
	return s.updateOne(ctx, runID,
		`UPDATE runs SET status = ?, regenerated = ?, error_message = ?, updated_at = ?, finished_at = ?
		 WHERE run_id = ?`,
		status, joinAssets(regenerated), message, now, now, runID)
}

// MarkAbandoned fails running rows for lesson that a killed process left
// behind and returns how many it touched.
func (s *Store) MarkAbandoned(ctx context.Context, lesson string) (int64, error) {
	now := s.timestamp()
	n, err := s.exec(ctx,
		`UPDATE runs SET status = ?, error_message = ?, updated_at = ?, finished_at = ?
		 WHERE lesson = ? AND status = ?`,
		StatusFailed, "abandoned: process exited before the run finished", now, now,
		lesson, StatusRunning)
	if err != nil {
		return 0, fmt.Errorf("mark abandoned runs: %w", err)
	}
	return n, nil
}

func (s *Store) updateOne(ctx context.Context, runID, query string, args ...any) error {
	n, err := s.exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("update run %s: %w", runID, err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", ErrUnknownRun, runID)
	}
	return nil
}

// Recent lists up to limit runs, newest first. An empty lesson lists every
// lesson; limit <= 0 means 20.
func (s *Store) Recent(ctx context.Context, lesson string, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = 20
	}
	var (
		where string
		args  []any
	)
	if lesson = strings.TrimSpace(lesson); lesson != "" {
		where, args = " WHERE lesson = ?", append(args, lesson)
	}
	rows, err := s.db.QueryContext(orBackground(ctx),
		"SELECT "+runColumns+" FROM runs"+where+" ORDER BY id DESC LIMIT ?", append(args, limit)...)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// Get returns one run by id.
func (s *Store) Get(ctx context.Context, runID string) (Run, error) {
	row := s.db.QueryRowContext(orBackground(ctx), "SELECT "+runColumns+" FROM runs WHERE run_id = ?", runID)
	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Run{}, fmt.Errorf("%w: %s", ErrUnknownRun, runID)
	}
	return run, err
}

func scanRun(row interface{ Scan(...any) error }) (Run, error) {
	var (
		run              Run
		regenerated      string
		started, updated string
		finished         sql.NullString
	)
	err := row.Scan(&run.ID, &run.RunID, &run.Lesson, &run.LessonDir, &run.State, &run.Status,
		&regenerated, &run.Error, &started, &updated, &finished)
	if err != nil {
		return Run{}, err
	}
	run.Regenerated = splitAssets(regenerated)
	run.StartedAt = parseTimestamp(started)
	run.UpdatedAt = parseTimestamp(updated)
	if finished.Valid && finished.String != "" {
		at := parseTimestamp(finished.String)
		run.FinishedAt = &at
	}
	return run, nil
}

func parseTimestamp(raw string) time.Time {
	t, _ := time.Parse(time.RFC3339Nano, raw)
	return t
}

func orBackground(ctx context.Context) context.Context {
	if ctx == nil {
		return context.Background()
	}
	return ctx
}

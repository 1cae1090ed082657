package services

import "context"

type contextKey string

const (
	lessonKey contextKey = "lesson"
	stageKey  contextKey = "stage"
	runIDKey  contextKey = "run_id"
)

// WithLesson annotates context with the lesson identifier (its directory name).
func WithLesson(ctx context.Context, lesson string) context.Context {
	if lesson == "" {
		return ctx
	}
	return context.WithValue(ctx, lessonKey, lesson)
}

// LessonFromContext extracts the lesson identifier if present.
func LessonFromContext(ctx context.Context) (string, bool) {
	if v, ok := ctx.Value(lessonKey).(string); ok && v != "" {
		return v, true
	}
	return "", false
}

// WithStage annotates context with the pipeline stage name.
func WithStage(ctx context.Context, stage string) context.Context {
	if stage == "" {
		return ctx
	}
	return context.WithValue(ctx, stageKey, stage)
}

// StageFromContext returns the stage name if present.
func StageFromContext(ctx context.Context) (string, bool) {
	v := ctx.Value(stageKey)
	if str, ok := v.(string); ok && str != "" {
		return str, true
	}
	return "", false
}

// WithRunID annotates context with the build run identifier.
func WithRunID(ctx context.Context, id string) context.Context {
	if id == "" {
		return ctx
	}
	return context.WithValue(ctx, runIDKey, id)
}

// RunIDFromContext extracts the build run identifier if present.
func RunIDFromContext(ctx context.Context) (string, bool) {
	if v, ok := ctx.Value(runIDKey).(string); ok && v != "" {
		return v, true
	}
	return "", false
}

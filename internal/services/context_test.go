package services_test

import (
	"context"
	"testing"

	"lessonforge/internal/services"
)

func TestContextHelpers(t *testing.T) {
	ctx := context.Background()
	ctx = services.WithLesson(ctx, "lesson-01")
	ctx = services.WithStage(ctx, "narration")
	ctx = services.WithRunID(ctx, "run-123")

	if lesson, ok := services.LessonFromContext(ctx); !ok || lesson != "lesson-01" {
		t.Fatalf("unexpected lesson: %v %v", lesson, ok)
	}
	if stage, ok := services.StageFromContext(ctx); !ok || stage != "narration" {
		t.Fatalf("unexpected stage: %v %v", stage, ok)
	}
	if rid, ok := services.RunIDFromContext(ctx); !ok || rid != "run-123" {
		t.Fatalf("unexpected run id: %v %v", rid, ok)
	}
}

func TestBlankValuesPreserveContext(t *testing.T) {
	ctx := context.Background()
	ctx = services.WithStage(ctx, "")
	ctx = services.WithLesson(ctx, "")
	if _, ok := services.StageFromContext(ctx); ok {
		t.Fatal("expected blank stage to be ignored")
	}
	if _, ok := services.LessonFromContext(ctx); ok {
		t.Fatal("expected blank lesson to be ignored")
	}
}

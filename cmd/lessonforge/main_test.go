package main

import (
	"encoding/json"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestConfigInitAndValidate(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, []string{"config", "validate"}, env.configPath)
	if err != nil {
		t.Fatalf("config validate: %v", err)
	}
	requireContains(t, out, "Configuration valid")
	requireContains(t, out, env.configPath)

	target := filepath.Join(t.TempDir(), "nested", "config.toml")
	out, _, err = runCLI(t, []string{"config", "init", "--path", target}, "")
	if err != nil {
		t.Fatalf("config init: %v", err)
	}
	requireContains(t, out, "Wrote sample configuration")
	if _, err := os.Stat(target); err != nil {
		t.Fatalf("expected config file at %s: %v", target, err)
	}

	if _, _, err := runCLI(t, []string{"config", "init", "--path", target}, ""); err == nil {
		t.Fatal("expected second init without --overwrite to fail")
	}
}

func TestConfigShowPrintsEffectiveValues(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, []string{"config", "show"}, env.configPath)
	if err != nil {
		t.Fatalf("config show: %v", err)
	}
	requireContains(t, out, "lessons_dir")
	requireContains(t, out, env.lessonsDir)
}

func TestInvalidConfigFailsBeforeCommandRuns(t *testing.T) {
	env := setupCLITestEnv(t)
	bad := filepath.Join(env.baseDir, "bad.toml")
	if err := os.WriteFile(bad, []byte("[audio]\nbackground_volume_db = 3.0\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	_, _, err := runCLI(t, []string{"icons", "resolve", "coin"}, bad)
	if err == nil || !strings.Contains(err.Error(), "background_volume_db") {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestBuildPlanAndHistory(t *testing.T) {
	env := setupCLITestEnv(t)
	lessonDir := filepath.Join(env.lessonsDir, "intro")

	out, _, err := runCLI(t, []string{"plan", "intro", "--stale"}, env.configPath)
	if err != nil {
		t.Fatalf("plan before build: %v", err)
	}
	requireContains(t, out, "rebuild")
	requireContains(t, out, "missing_output")

	out, _, err = runCLI(t, []string{"build", "intro", "--json"}, env.configPath)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	var summaries []buildSummary
	if err := json.Unmarshal([]byte(out), &summaries); err != nil {
		t.Fatalf("decode build output %q: %v", out, err)
	}
	if len(summaries) != 1 {
		t.Fatalf("expected one summary, got %d", len(summaries))
	}
	got := summaries[0]
	if got.Lesson != "intro" || got.State != "done" || got.Error != "" {
		t.Fatalf("unexpected summary %+v", got)
	}
	want := []string{"voice/1.mp3", "voice/2.mp3", "images/cover.png", "voice/full_audio.mp3"}
	if strings.Join(got.Regenerated, ",") != strings.Join(want, ",") {
		t.Fatalf("regenerated = %v, want %v", got.Regenerated, want)
	}
	if len(got.Placeholders) != 2 {
		t.Fatalf("expected both icons to fall back to placeholders, got %v", got.Placeholders)
	}

	clip, err := os.ReadFile(filepath.Join(lessonDir, "voice", "1.mp3"))
	if err != nil {
		t.Fatalf("read clip: %v", err)
	}
	if string(clip) != "Money grows." {
		t.Fatalf("clip content = %q", clip)
	}
	for _, rel := range []string{"images/cover.png", "voice/full_audio.mp3", "manifest.json"} {
		if _, err := os.Stat(filepath.Join(lessonDir, filepath.FromSlash(rel))); err != nil {
			t.Fatalf("expected %s: %v", rel, err)
		}
	}

	out, _, err = runCLI(t, []string{"plan", "intro", "--stale"}, env.configPath)
	if err != nil {
		t.Fatalf("plan after build: %v", err)
	}
	requireContains(t, out, "Every asset is up to date")

	out, _, err = runCLI(t, []string{"build", "intro"}, env.configPath)
	if err != nil {
		t.Fatalf("second build: %v", err)
	}
	requireContains(t, out, "intro")

	out, _, err = runCLI(t, []string{"history", "intro", "--json"}, env.configPath)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	var runs []struct {
		Lesson      string   `json:"lesson"`
		Status      string   `json:"status"`
		State       string   `json:"state"`
		Regenerated []string `json:"regenerated"`
	}
	if err := json.Unmarshal([]byte(out), &runs); err != nil {
		t.Fatalf("decode history %q: %v", out, err)
	}
	if len(runs) != 2 {
		t.Fatalf("expected two runs, got %d", len(runs))
	}
	if runs[0].Status != "succeeded" || len(runs[0].Regenerated) != 0 {
		t.Fatalf("expected newest run to regenerate nothing, got %+v", runs[0])
	}
	if runs[1].State != "done" || len(runs[1].Regenerated) != 4 {
		t.Fatalf("unexpected first run %+v", runs[1])
	}

	out, _, err = runCLI(t, []string{"history"}, env.configPath)
	if err != nil {
		t.Fatalf("history table: %v", err)
	}
	requireContains(t, out, "succeeded")
}

func TestBuildReportsFailedLessons(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, []string{"build", "intro", "ghost"}, env.configPath)
	if err == nil {
		t.Fatal("expected build to fail for missing lesson")
	}
	requireContains(t, err.Error(), "1 of 2 lessons failed")
	requireContains(t, out, "ghost")
	requireContains(t, out, "lesson directory not found")

	if _, statErr := os.Stat(filepath.Join(env.lessonsDir, "intro", "manifest.json")); statErr != nil {
		t.Fatalf("expected intro to build despite ghost failing: %v", statErr)
	}
}

func TestBuildAllDiscoversLessons(t *testing.T) {
	env := setupCLITestEnv(t)

	if _, _, err := runCLI(t, []string{"build", "intro", "--all"}, env.configPath); err == nil {
		t.Fatal("expected lesson names with --all to be rejected")
	}

	out, _, err := runCLI(t, []string{"build", "--all"}, env.configPath)
	if err != nil {
		t.Fatalf("build --all: %v", err)
	}
	requireContains(t, out, "intro")
	requireContains(t, out, "done")
}

func TestIconsResolveFallsBackToPlaceholder(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, []string{"icons", "resolve", "coin", "money bag"}, env.configPath)
	if err != nil {
		t.Fatalf("icons resolve: %v", err)
	}
	requireContains(t, out, "placeholder")
	requireContains(t, out, "money bag")

	out, _, err = runCLI(t, []string{"icons", "list"}, env.configPath)
	if err != nil {
		t.Fatalf("icons list: %v", err)
	}
	requireContains(t, out, "Icon catalog is empty")
}

func TestDoctorFailsOnMissingBinary(t *testing.T) {
	env := setupCLITestEnv(t)
	if err := os.Remove(filepath.Join(env.baseDir, "bin", "ffmpeg")); err != nil {
		t.Fatalf("remove stub: %v", err)
	}

	out, _, err := runCLI(t, []string{"doctor"}, env.configPath)
	if err == nil {
		t.Fatal("expected doctor to fail")
	}
	requireContains(t, err.Error(), "checks failed")
	requireContains(t, out, "FFmpeg:")
	requireContains(t, out, "[ERROR]")
	requireContains(t, out, "Lessons directory:")
}

func TestStatusLine(t *testing.T) {
	got := statusLine("FFmpeg", false, "not found", false)
	if !strings.HasPrefix(got, "  FFmpeg:") || !strings.HasSuffix(got, "[ERROR] not found") {
		t.Fatalf("unexpected line %q", got)
	}
	colored := statusLine("FFmpeg", true, "", true)
	if !strings.HasPrefix(colored, colorGreen) || !strings.HasSuffix(colored, "[OK]"+colorReset) {
		t.Fatalf("unexpected colored line %q", colored)
	}
	if shouldColorize(io.Discard) {
		t.Fatal("expected non-file writer to disable color")
	}
}

func TestSplitLessonErrors(t *testing.T) {
	err := errors.Join(errors.New("intro: boom"), errors.New("outro: exit status 1: bad"))
	got := splitLessonErrors(err)
	if got["intro"] != "boom" || got["outro"] != "exit status 1: bad" {
		t.Fatalf("unexpected split %v", got)
	}
	if len(splitLessonErrors(nil)) != 0 {
		t.Fatal("expected nil error to produce no entries")
	}
}

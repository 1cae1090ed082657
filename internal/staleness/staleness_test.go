package staleness_test

import (
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"lessonforge/internal/services"
	"lessonforge/internal/staleness"
	"lessonforge/internal/testsupport"
)

func mustStat(t *testing.T, name, path string) staleness.AssetRef {
	t.Helper()
	ref, err := staleness.Stat(name, path)
	if err != nil {
		t.Fatalf("Stat(%s): %v", path, err)
	}
	return ref
}

func TestStatMissingFile(t *testing.T) {
	ref := mustStat(t, "cover", filepath.Join(t.TempDir(), "cover.png"))
	if ref.Exists || !ref.ModTime.IsZero() {
		t.Fatalf("expected missing ref, got %+v", ref)
	}
}

func TestStatRejectsDirectory(t *testing.T) {
	if _, err := staleness.Stat("dir", t.TempDir()); err == nil {
		t.Fatal("expected error for directory")
	}
}

func TestDecide(t *testing.T) {
	dir := t.TempDir()
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	scriptPath := filepath.Join(dir, "script.json")
	outputPath := filepath.Join(dir, "voice", "1.mp3")
	testsupport.WriteText(t, scriptPath, "{}")
	testsupport.WriteText(t, outputPath, "clip")

	tests := []struct {
		name       string
		inputTime  time.Time
		outputTime time.Time
		removeOut  bool
		force      bool
		wantStale  bool
		wantReason staleness.Reason
	}{
		{"fresh when output newer", base, base.Add(time.Minute), false, false, false, staleness.Fresh},
		{"equal mtimes are fresh", base, base, false, false, false, staleness.Fresh},
		{"input newer", base.Add(time.Minute), base, false, false, true, staleness.OlderThanInput},
		{"forced wins over fresh", base, base.Add(time.Minute), false, true, true, staleness.ForcedRebuild},
		{"missing output", base, base, true, false, true, staleness.MissingOutput},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			testsupport.Touch(t, scriptPath, tt.inputTime)
			testsupport.Touch(t, outputPath, tt.outputTime)
			input := mustStat(t, "script", scriptPath)
			output := mustStat(t, "narration_1", outputPath)
			if tt.removeOut {
				output = staleness.AssetRef{LogicalName: "narration_1", Path: outputPath}
			}

			decision, err := staleness.Decide(output, []staleness.AssetRef{input}, tt.force)
			if err != nil {
				t.Fatalf("Decide returned error: %v", err)
			}
			if decision.Stale != tt.wantStale || decision.Reason != tt.wantReason {
				t.Fatalf("got stale=%v reason=%s, want stale=%v reason=%s", decision.Stale, decision.Reason, tt.wantStale, tt.wantReason)
			}
			if tt.wantReason == staleness.OlderThanInput && decision.NewerInput != "script" {
				t.Fatalf("expected newer input to be named, got %q", decision.NewerInput)
			}
		})
	}
}

func TestDecideFailsOnMissingInputEvenWhenForced(t *testing.T) {
	dir := t.TempDir()
	output := staleness.AssetRef{LogicalName: "full_audio", Path: filepath.Join(dir, "full.mp3")}
	missing := staleness.AssetRef{LogicalName: "background", Path: filepath.Join(dir, "bg.mp3")}

	_, err := staleness.Decide(output, []staleness.AssetRef{missing}, true)
	if !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("expected configuration error, got %v", err)
	}
	if !strings.Contains(err.Error(), "background") || !strings.Contains(err.Error(), missing.Path) {
		t.Fatalf("expected missing input named, got %v", err)
	}
}

func TestPlanAggregatesMissingInputs(t *testing.T) {
	dir := t.TempDir()
	ref := func(name string) staleness.AssetRef {
		return staleness.AssetRef{LogicalName: name, Path: filepath.Join(dir, name)}
	}
	targets := []staleness.Target{
		{Output: ref("narration_1"), Inputs: []staleness.AssetRef{ref("reference_audio")}},
		{Output: ref("cover"), Inputs: []staleness.AssetRef{ref("font")}},
	}
	_, err := staleness.Plan(targets)
	var cfgErr *services.ConfigurationError
	if !errors.As(err, &cfgErr) {
		t.Fatalf("expected ConfigurationError, got %v", err)
	}
	if len(cfgErr.Problems) != 2 {
		t.Fatalf("expected both missing inputs reported, got %v", cfgErr.Problems)
	}
}

func TestPlanPreservesOrder(t *testing.T) {
	dir := t.TempDir()
	now := time.Now()
	var targets []staleness.Target
	for _, name := range []string{"b", "a", "c"} {
		path := filepath.Join(dir, name)
		testsupport.WriteText(t, path, name)
		testsupport.Touch(t, path, now)
		targets = append(targets, staleness.Target{Output: mustStat(t, name, path)})
	}
	decisions, err := staleness.Plan(targets)
	if err != nil {
		t.Fatalf("Plan returned error: %v", err)
	}
	for i, want := range []string{"b", "a", "c"} {
		if decisions[i].Asset.LogicalName != want || decisions[i].Stale {
			t.Fatalf("decision %d = %+v", i, decisions[i])
		}
	}
}

func TestReasonString(t *testing.T) {
	if staleness.OlderThanInput.String() != "older_than_input" {
		t.Fatalf("unexpected reason string %q", staleness.OlderThanInput.String())
	}
}

package preflight

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"lessonforge/internal/testsupport"
)

func TestCheckDirectoryAccess_OK(t *testing.T) {
	dir := t.TempDir()
	result := CheckDirectoryAccess("test", dir)
	if !result.Passed {
		t.Fatalf("expected pass for temp dir, got: %s", result.Detail)
	}
}

func TestCheckDirectoryAccess_NotExist(t *testing.T) {
	result := CheckDirectoryAccess("test", filepath.Join(t.TempDir(), "nope"))
	if result.Passed {
		t.Fatal("expected failure for missing dir")
	}
	if result.Detail == "" {
		t.Fatal("expected non-empty detail")
	}
}

func TestCheckDirectoryAccess_NotDir(t *testing.T) {
	f := filepath.Join(t.TempDir(), "file.txt")
	if err := os.WriteFile(f, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	result := CheckDirectoryAccess("test", f)
	if result.Passed {
		t.Fatal("expected failure for file path")
	}
}

func TestCheckFreeSpace(t *testing.T) {
	dir := t.TempDir()
	if result := CheckFreeSpace("space", dir, 0); !result.Passed {
		t.Fatalf("expected pass with zero minimum, got %s", result.Detail)
	}
	if result := CheckFreeSpace("space", dir, 1<<40); result.Passed {
		t.Fatalf("expected failure for an exabyte minimum, got %s", result.Detail)
	}
	if result := CheckFreeSpace("space", filepath.Join(dir, "missing"), 1); result.Passed {
		t.Fatal("expected failure for missing path")
	}
}

func TestCheckFile(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "bg.mp3")
	if err := os.WriteFile(file, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	if result := CheckFile("bg", file); !result.Passed {
		t.Fatalf("expected pass, got %s", result.Detail)
	}
	if result := CheckFile("bg", dir); result.Passed {
		t.Fatal("expected failure for directory")
	}
	if result := CheckFile("bg", filepath.Join(dir, "missing.mp3")); result.Passed {
		t.Fatal("expected failure for missing file")
	}
}

func TestCheckIconCatalog(t *testing.T) {
	dir := t.TempDir()
	asset := filepath.Join(dir, "coin.svg")
	testsupport.WriteText(t, asset, "<svg/>")
	index := filepath.Join(dir, "index.json")
	testsupport.WriteText(t, index, `[{"name":"coin","path":"coin.svg"},{"name":"ghost","path":"ghost.svg"}]`)

	cfg := testsupport.NewConfig(t, testsupport.WithIconCatalog([]string{index}))
	result := CheckIconCatalog(cfg)
	if !result.Passed {
		t.Fatalf("expected pass with one usable entry, got %s", result.Detail)
	}
	if !strings.Contains(result.Detail, "1 skipped") {
		t.Fatalf("expected skipped entry in detail, got %s", result.Detail)
	}

	cfg = testsupport.NewConfig(t, testsupport.WithIconCatalog([]string{filepath.Join(dir, "missing.json")}))
	if result := CheckIconCatalog(cfg); result.Passed {
		t.Fatalf("expected failure when no entries load, got %s", result.Detail)
	}
}

func TestRunAll_NilConfig(t *testing.T) {
	results := RunAll(context.Background(), nil)
	if results != nil {
		t.Fatal("expected nil results for nil config")
	}
}

func TestRunAll_StubbedTools(t *testing.T) {
	cfg := testsupport.NewConfig(t,
		testsupport.WithStubbedBinaries("ffmpeg", "ffprobe", "tts"),
		testsupport.WithNarrationCommand("tts", "{text}", "{output}"),
	)
	for _, dir := range []string{cfg.Paths.LessonsDir, cfg.Paths.LogDir, cfg.Paths.StateDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			t.Fatal(err)
		}
	}

	results := RunAll(context.Background(), cfg)
	if failed := Failed(results); len(failed) != 0 {
		t.Fatalf("expected all checks to pass, failed: %#v", failed)
	}
	names := make(map[string]bool)
	for _, r := range results {
		names[r.Name] = true
	}
	for _, want := range []string{"Lessons directory", "FFmpeg", "FFprobe", "Narration", "Icon catalog"} {
		if !names[want] {
			t.Fatalf("expected %q in results", want)
		}
	}
}

func TestRunAll_ReportsMissingInputs(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithBackground(filepath.Join(t.TempDir(), "missing.mp3")))
	cfg.Narration.Command = nil

	failed := Failed(RunAll(context.Background(), cfg))
	var sawBackground, sawNarration bool
	for _, r := range failed {
		switch r.Name {
		case "Background track":
			sawBackground = true
		case "Narration":
			sawNarration = true
		}
	}
	if !sawBackground || !sawNarration {
		t.Fatalf("expected background and narration failures, got %#v", failed)
	}
}

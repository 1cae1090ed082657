package fileutil

import (
	"os"
	"path/filepath"
	"testing"
)

func TestPartialPathKeepsExtension(t *testing.T) {
	got := PartialPath(filepath.Join("lesson", "voice", "full_audio.mp3"))
	want := filepath.Join("lesson", "voice", ".full_audio.partial.mp3")
	if got != want {
		t.Fatalf("PartialPath = %q, want %q", got, want)
	}
}

func TestCommitRenamesPartial(t *testing.T) {
	dir := t.TempDir()
	final := filepath.Join(dir, "1.mp3")
	partial := PartialPath(final)
	if err := os.WriteFile(partial, []byte("audio"), 0o644); err != nil {
		t.Fatal(err)
	}

	if err := Commit(partial, final); err != nil {
		t.Fatalf("Commit returned error: %v", err)
	}
	if _, err := os.Stat(partial); !os.IsNotExist(err) {
		t.Fatalf("expected partial gone, stat err=%v", err)
	}
	got, err := os.ReadFile(final)
	if err != nil || string(got) != "audio" {
		t.Fatalf("unexpected final content %q (err=%v)", got, err)
	}
}

func TestCommitRejectsMissingOrEmptyPartial(t *testing.T) {
	dir := t.TempDir()
	final := filepath.Join(dir, "cover.png")
	partial := PartialPath(final)

	if err := Commit(partial, final); err == nil {
		t.Fatal("expected error for missing partial")
	}

	if err := os.WriteFile(partial, nil, 0o644); err != nil {
		t.Fatal(err)
	}
	if err := Commit(partial, final); err == nil {
		t.Fatal("expected error for empty partial")
	}
	if _, err := os.Stat(partial); !os.IsNotExist(err) {
		t.Fatalf("expected empty partial removed, stat err=%v", err)
	}
	if _, err := os.Stat(final); !os.IsNotExist(err) {
		t.Fatalf("expected no final output, stat err=%v", err)
	}
}

func TestWriteFileAtomic(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "manifest.json")
	if err := WriteFileAtomic(path, []byte(`{"a":1}`), 0o644); err != nil {
		t.Fatalf("WriteFileAtomic returned error: %v", err)
	}
	if err := WriteFileAtomic(path, []byte(`{"a":2}`), 0o644); err != nil {
		t.Fatalf("WriteFileAtomic overwrite returned error: %v", err)
	}
	got, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != `{"a":2}` {
		t.Fatalf("unexpected content %q", got)
	}
	entries, err := os.ReadDir(filepath.Dir(path))
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected only the final file, found %d entries", len(entries))
	}
}

package testsupport

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"
)

// WriteFile fills path with size filler bytes, at least one.
func WriteFile(t testing.TB, path string, size int64) {
	t.Helper()
	write(t, path, bytes.Repeat([]byte{'B'}, int(max(size, 1))), 0o644)
}

// WriteText writes content to path, creating parent directories.
func WriteText(t testing.TB, path, content string) {
	t.Helper()
	write(t, path, []byte(content), 0o644)
}

// WriteExecutable writes a /bin/sh script with the given body.
func WriteExecutable(t testing.TB, path, body string) {
	t.Helper()
	write(t, path, []byte("#!/bin/sh\n"+body), 0o755)
}

// Touch sets the access and modification times of path so staleness tests
// can order files without sleeping.
func Touch(t testing.TB, path string, mtime time.Time) {
	t.Helper()
	if err := os.Chtimes(path, mtime, mtime); err != nil {
		t.Fatalf("chtimes %s: %v", path, err)
	}
}

// ReadText returns the content of path or fails the test.
func ReadText(t testing.TB, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read %s: %v", path, err)
	}
	return string(data)
}

func write(t testing.TB, path string, data []byte, perm os.FileMode) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir for %s: %v", path, err)
	}
	if err := os.WriteFile(path, data, perm); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

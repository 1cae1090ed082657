// Package fileutil holds atomic write helpers shared by every asset producer.
package fileutil

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// PartialPath returns a hidden sibling of path used while the file is being
// produced. The extension is preserved so tools that infer the container from
// the output name keep working.
func PartialPath(path string) string {
	dir := filepath.Dir(path)
	base := filepath.Base(path)
	ext := filepath.Ext(base)
	stem := strings.TrimSuffix(base, ext)
	return filepath.Join(dir, "."+stem+".partial"+ext)
}

// Commit atomically moves a finished partial file into place. The partial is
// removed when the rename fails.
func Commit(partial, final string) error {
	info, err := os.Stat(partial)
	if err != nil {
		return fmt.Errorf("output %s was not produced: %w", filepath.Base(final), err)
	}
	if info.Size() == 0 {
		_ = os.Remove(partial)
		return fmt.Errorf("output %s is empty", filepath.Base(final))
	}
	if err := os.Rename(partial, final); err != nil {
		_ = os.Remove(partial)
		return fmt.Errorf("replace %s: %w", final, err)
	}
	return nil
}

// Discard removes a partial file left by a failed producer.
func Discard(partial string) {
	_ = os.Remove(partial)
}

// WriteFileAtomic writes data to a partial sibling and renames it over path.
func WriteFileAtomic(path string, data []byte, perm os.FileMode) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create directory for %s: %w", path, err)
	}
	partial := PartialPath(path)
	f, err := os.OpenFile(partial, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, perm)
	if err != nil {
		return err
	}
	if _, err := f.Write(data); err != nil {
		_ = f.Close()
		_ = os.Remove(partial)
		return err
	}
	if err := f.Sync(); err != nil {
		_ = f.Close()
		_ = os.Remove(partial)
		return err
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(partial)
		return err
	}
	if err := os.Rename(partial, path); err != nil {
		_ = os.Remove(partial)
		return fmt.Errorf("replace %s: %w", path, err)
	}
	return nil
}

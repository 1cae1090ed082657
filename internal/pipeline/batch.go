package pipeline

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"golang.org/x/sync/errgroup"

	"lessonforge/internal/script"
)

// BuildAll builds each lesson, running up to Options.Concurrency lessons at
// once. A failing lesson does not stop the others; every failure is joined
// into the returned error and results keep the input order.
func (o *Orchestrator) BuildAll(ctx context.Context, lessonDirs []string) ([]*Result, error) {
	results := make([]*Result, len(lessonDirs))
	errs := make([]error, len(lessonDirs))

	var g errgroup.Group
	g.SetLimit(o.opts.Concurrency)
	for i, dir := range lessonDirs {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				errs[i] = fmt.Errorf("%s: %w", filepath.Base(dir), err)
				return nil
			}
			res, err := o.Build(ctx, dir)
			results[i] = res
			if err != nil {
				errs[i] = fmt.Errorf("%s: %w", filepath.Base(dir), err)
			}
			return nil
		})
	}
	_ = g.Wait()
	return results, errors.Join(errs...)
}

// Discover lists the lesson directories directly under root that contain a
// script, sorted by name. Hidden directories are skipped.
func Discover(root string, scriptNames []string) ([]string, error) {
	entries, err := os.ReadDir(root)
	if err != nil {
		return nil, fmt.Errorf("read lessons directory: %w", err)
	}
	var lessons []string
	for _, entry := range entries {
		if !entry.IsDir() || strings.HasPrefix(entry.Name(), ".") {
			continue
		}
		dir := filepath.Join(root, entry.Name())
		if _, err := script.Find(dir, scriptNames); err != nil {
			continue
		}
		lessons = append(lessons, dir)
	}
	sort.Strings(lessons)
	return lessons, nil
}

package preflight

import (
	"context"
	"strings"

	"lessonforge/internal/config"
	"lessonforge/internal/deps"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string
	Passed bool
	Detail string
}

// RunAll executes every applicable preflight check for the given config.
func RunAll(ctx context.Context, cfg *config.Config) []Result {
	if cfg == nil {
		return nil
	}

	var results []Result
	results = append(results, CheckDirectoryAccess("Lessons directory", cfg.Paths.LessonsDir))
	results = append(results, CheckDirectoryAccess("Log directory", cfg.Paths.LogDir))
	results = append(results, CheckDirectoryAccess("State directory", cfg.Paths.StateDir))
	if cfg.Build.MinFreeMiB > 0 {
		results = append(results, CheckFreeSpace("Free space", cfg.Paths.LessonsDir, cfg.Build.MinFreeMiB))
	}

	for _, status := range CheckSystemDeps(ctx, cfg) {
		results = append(results, fromDependency(status))
	}

	if ref := strings.TrimSpace(cfg.Narration.ReferenceAudio); ref != "" {
		results = append(results, CheckFile("Reference audio", ref))
	}
	if bg := strings.TrimSpace(cfg.Audio.BackgroundPath); bg != "" {
		results = append(results, CheckFile("Background track", bg))
	}
	if font := strings.TrimSpace(cfg.Cover.FontPath); font != "" {
		results = append(results, CheckFile("Cover font", font))
	}
	results = append(results, CheckIconCatalog(cfg))
	return results
}

// Failed returns the results that did not pass.
func Failed(results []Result) []Result {
	var failed []Result
	for _, r := range results {
		if !r.Passed {
			failed = append(failed, r)
		}
	}
	return failed
}

func fromDependency(status deps.Status) Result {
	if !status.Available() {
		if status.Optional {
			return Result{Name: status.Name, Passed: true, Detail: status.Detail + " (optional)"}
		}
		return Result{Name: status.Name, Detail: status.Detail}
	}
	detail := status.Path
	if status.Description != "" {
		detail += " (" + status.Description + ")"
	}
	return Result{Name: status.Name, Passed: true, Detail: detail}
}

package preflight

import (
	"context"
	"fmt"
	"os"
	"strings"

	"golang.org/x/sys/unix"

	"lessonforge/internal/config"
	"lessonforge/internal/deps"
	"lessonforge/internal/icons"
)

// CheckDirectoryAccess verifies that the directory exists and is readable/writable.
func CheckDirectoryAccess(name, path string) Result {
	if strings.TrimSpace(path) == "" {
		return Result{Name: name, Detail: "not configured"}
	}
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: does not exist)", path)}
		}
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: stat: %v)", path, err)}
	}
	if !info.IsDir() {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: is not a directory)", path)}
	}
	if err := unix.Access(path, unix.R_OK|unix.W_OK|unix.X_OK); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: insufficient permissions: %v)", path, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (read/write ok)", path)}
}

// CheckFreeSpace verifies the filesystem holding path has at least minMiB available.
func CheckFreeSpace(name, path string, minMiB int) Result {
	var stat unix.Statfs_t
	if err := unix.Statfs(path, &stat); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: statfs: %v)", path, err)}
	}
	availMiB := int64(stat.Bavail) * int64(stat.Bsize) / (1024 * 1024)
	if availMiB < int64(minMiB) {
		return Result{Name: name, Detail: fmt.Sprintf("%s has %d MiB free, need %d MiB", path, availMiB, minMiB)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (%d MiB free)", path, availMiB)}
}

// CheckFile verifies a configured input file exists and is readable.
func CheckFile(name, path string) Result {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: does not exist)", path)}
		}
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: stat: %v)", path, err)}
	}
	if info.IsDir() {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: is a directory)", path)}
	}
	if err := unix.Access(path, unix.R_OK); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: not readable: %v)", path, err)}
	}
	return Result{Name: name, Passed: true, Detail: path}
}

// CheckIconCatalog loads the configured icon index files and reports any entry
// the resolver would have to skip. Skipped entries never fail a build, so the
// check only fails when no index file yields a single entry.
func CheckIconCatalog(cfg *config.Config) Result {
	const name = "Icon catalog"
	if len(cfg.Icons.IndexFiles) == 0 {
		return Result{Name: name, Passed: true, Detail: "no index files configured (placeholder and filename tiers only)"}
	}
	catalog := icons.LoadCatalog(cfg.Icons.IndexFiles, nil)
	problems := catalog.Problems()
	detail := fmt.Sprintf("%d entries from %d index files", catalog.Len(), len(cfg.Icons.IndexFiles))
	if len(problems) > 0 {
		detail += fmt.Sprintf("; %d skipped: %s", len(problems), strings.Join(problems, "; "))
	}
	return Result{Name: name, Passed: catalog.Len() > 0, Detail: detail}
}

// CheckSystemDeps evaluates the external tools the configured build needs.
func CheckSystemDeps(_ context.Context, cfg *config.Config) []deps.Status {
	requirements := []deps.Requirement{
		{
			Name:        "FFmpeg",
			Command:     cfg.FFmpegBinary(),
			Description: "Required for audio composition",
		},
		{
			Name:        "FFprobe",
			Command:     deps.ResolveFFprobe(cfg.FFmpegBinary(), cfg.Audio.FFprobeBinary),
			Description: "Verifies composed track durations",
		},
		{
			Name:        "Narration",
			Command:     firstArg(cfg.Narration.Command),
			Description: "Text-to-speech command for narration clips",
		},
	}
	if strings.EqualFold(cfg.Cover.Renderer, "command") {
		requirements = append(requirements, deps.Requirement{
			Name:        "Cover renderer",
			Command:     firstArg(cfg.Cover.Command),
			Description: "External cover image command",
		})
	}
	return deps.CheckBinaries(requirements)
}

func firstArg(argv []string) string {
	if len(argv) == 0 {
		return ""
	}
	return argv[0]
}

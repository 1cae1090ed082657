package testsupport

import (
	"os"
	"path/filepath"
	"testing"

	"lessonforge/internal/config"
)

// ConfigOption adjusts a test configuration. base is the temp directory that
// holds the config's lessons, logs and state directories.
type ConfigOption func(t testing.TB, base string, cfg *config.Config)

// NewConfig returns config.Default() rooted in a fresh temp directory, with
// the free-space check disabled, after applying opts in order.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfg := config.Default()
	cfg.Paths.LessonsDir = filepath.Join(base, "lessons")
	cfg.Paths.LogDir = filepath.Join(base, "logs")
	cfg.Paths.StateDir = filepath.Join(base, "state")
	cfg.Build.MinFreeMiB = 0

	for _, opt := range opts {
		opt(t, base, &cfg)
	}
	return &cfg
}

// WithNarrationCommand sets the narration argv template.
func WithNarrationCommand(argv ...string) ConfigOption {
	return func(_ testing.TB, _ string, cfg *config.Config) {
		cfg.Narration.Command = append([]string(nil), argv...)
	}
}

// WithBackground points the composer at a background track.
func WithBackground(path string) ConfigOption {
	return func(_ testing.TB, _ string, cfg *config.Config) {
		cfg.Audio.BackgroundPath = path
	}
}

// WithIconCatalog configures icon index files and asset directories.
func WithIconCatalog(indexFiles []string, assetDirs ...string) ConfigOption {
	return func(_ testing.TB, _ string, cfg *config.Config) {
		cfg.Icons.IndexFiles = append([]string(nil), indexFiles...)
		cfg.Icons.AssetDirs = append([]string(nil), assetDirs...)
	}
}

// WithStubbedBinaries installs no-op executables named names (ffmpeg and
// ffprobe when empty) in base/bin and puts that directory first on PATH for
// the rest of the test.
func WithStubbedBinaries(names ...string) ConfigOption {
	return func(t testing.TB, base string, _ *config.Config) {
		t.Helper()
		if len(names) == 0 {
			names = []string{"ffmpeg", "ffprobe"}
		}
		bin := filepath.Join(base, "bin")
		for _, name := range names {
			WriteExecutable(t, filepath.Join(bin, name), "exit 0\n")
		}
		t.Setenv("PATH", bin+string(os.PathListSeparator)+os.Getenv("PATH"))
	}
}

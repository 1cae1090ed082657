package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Paths contains directory configuration.
type Paths struct {
	LessonsDir  string   `toml:"lessons_dir"`
	LogDir      string   `toml:"log_dir"`
	StateDir    string   `toml:"state_dir"`
	ScriptNames []string `toml:"script_names"`
}

// Narration configures the text-to-speech adapter.
type Narration struct {
	// Command is an argv template. Supported placeholders: {text}, {output},
	// {reference}, {scene}.
	Command        []string `toml:"command"`
	AudioExt       string   `toml:"audio_ext"`
	ReferenceAudio string   `toml:"reference_audio"`
	TimeoutSeconds int      `toml:"timeout_seconds"`
}

// Cover configures cover image generation.
type Cover struct {
	Renderer       string   `toml:"renderer"`
	Command        []string `toml:"command"`
	ImageExt       string   `toml:"image_ext"`
	Width          int      `toml:"width"`
	Height         int      `toml:"height"`
	FontPath       string   `toml:"font_path"`
	Background     string   `toml:"background"`
	Foreground     string   `toml:"foreground"`
	TimeoutSeconds int      `toml:"timeout_seconds"`
}

// Audio configures narration composition.
type Audio struct {
	FFmpegBinary        string  `toml:"ffmpeg_binary"`
	FFprobeBinary       string  `toml:"ffprobe_binary"`
	SampleRate          int     `toml:"sample_rate"`
	GapSeconds          float64 `toml:"gap_seconds"`
	BackgroundPath      string  `toml:"background_path"`
	BackgroundVolumeDB  float64 `toml:"background_volume_db"`
	BackgroundLoop      bool    `toml:"background_loop"`
	Bitrate             string  `toml:"bitrate"`
	TimeoutSeconds      int     `toml:"timeout_seconds"`
	DurationToleranceMS int     `toml:"duration_tolerance_ms"`
}

// Icons configures the icon catalog and resolver thresholds.
type Icons struct {
	IndexFiles       []string `toml:"index_files"`
	AssetDirs        []string `toml:"asset_dirs"`
	Extensions       []string `toml:"extensions"`
	FuzzyThreshold   float64  `toml:"fuzzy_threshold"`
	KeywordThreshold float64  `toml:"keyword_threshold"`
	PlaceholderGlyph string   `toml:"placeholder_glyph"`
}

// Build contains run-level switches.
type Build struct {
	Concurrency    int  `toml:"concurrency"`
	ForceCover     bool `toml:"force_cover"`
	ForceNarration bool `toml:"force_narration"`
	MinFreeMiB     int  `toml:"min_free_mib"`
}

// Notifications configures ntfy build notifications.
type Notifications struct {
	// NtfyTopic is the full topic URL, e.g. https://ntfy.sh/my-lessons.
	NtfyTopic             string `toml:"ntfy_topic"`
	RequestTimeoutSeconds int    `toml:"request_timeout_seconds"`
	// OnSuccess also notifies for batches where every lesson built.
	OnSuccess             bool   `toml:"on_success"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format        string `toml:"format"`
	Level         string `toml:"level"`
	RetentionDays int    `toml:"retention_days"`
}

// Config encapsulates all configuration values for lessonforge.
//
// Configuration sections by subsystem:
//   - Paths: lesson root, log and state directories
//   - Narration: text-to-speech command adapter
//   - Cover: cover renderer selection and styling
//   - Audio: ffmpeg/ffprobe binaries, gaps, background mixing
//   - Icons: catalog index files, asset directories, resolver thresholds
//   - Build: concurrency and force-rebuild switches
//   - Notifications: ntfy topic for build outcomes
//   - Logging: log format, level, and retention
type Config struct {
	Paths         Paths         `toml:"paths"`
	Narration     Narration     `toml:"narration"`
	Cover         Cover         `toml:"cover"`
	Audio         Audio         `toml:"audio"`
	Icons         Icons         `toml:"icons"`
	Build         Build         `toml:"build"`
	Notifications Notifications `toml:"notifications"`
	Logging       Logging       `toml:"logging"`
}

// EnsureDirectories creates directories the CLI writes into.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.LogDir, c.Paths.StateDir} {
		if strings.TrimSpace(dir) == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// JournalPath returns the SQLite build journal location.
func (c *Config) JournalPath() string {
	return filepath.Join(c.Paths.StateDir, "journal.db")
}

// FFmpegBinary returns the ffmpeg executable used for composition.
func (c *Config) FFmpegBinary() string {
	if bin := strings.TrimSpace(c.Audio.FFmpegBinary); bin != "" {
		return bin
	}
	return defaultFFmpegBinary
}

// FFprobeBinary returns the ffprobe executable used for media inspection.
func (c *Config) FFprobeBinary() string {
	if bin := strings.TrimSpace(c.Audio.FFprobeBinary); bin != "" {
		return bin
	}
	return defaultFFprobeBinary
}

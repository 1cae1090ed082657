package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

// Environment switches that force regeneration of one asset category.
const (
	EnvForceCover          = "LESSONFORGE_FORCE_COVER"
	EnvForceNarration      = "LESSONFORGE_FORCE_NARRATION"
	legacyEnvForceCover    = "FORCE_COVER"
	legacyEnvForceNarrator = "FORCE_VOICE"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	if err := c.normalizeNarration(); err != nil {
		return err
	}
	if err := c.normalizeCover(); err != nil {
		return err
	}
	if err := c.normalizeAudio(); err != nil {
		return err
	}
	if err := c.normalizeIcons(); err != nil {
		return err
	}
	c.normalizeBuild()
	c.normalizeNotifications()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if c.Paths.LessonsDir, err = expandPath(c.Paths.LessonsDir); err != nil {
		return fmt.Errorf("paths.lessons_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		c.Paths.LogDir = defaultLogDir
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.StateDir) == "" {
		c.Paths.StateDir = defaultStateDir
	}
	if c.Paths.StateDir, err = expandPath(c.Paths.StateDir); err != nil {
		return fmt.Errorf("paths.state_dir: %w", err)
	}
	c.Paths.ScriptNames = cleanList(c.Paths.ScriptNames, false)
	if len(c.Paths.ScriptNames) == 0 {
		c.Paths.ScriptNames = append([]string(nil), defaultScriptNames...)
	}
	return nil
}

func (c *Config) normalizeNarration() error {
	c.Narration.AudioExt = normalizeExt(c.Narration.AudioExt)
	if c.Narration.AudioExt == "" {
		c.Narration.AudioExt = defaultNarrationAudioExt
	}
	if strings.TrimSpace(c.Narration.ReferenceAudio) != "" {
		var err error
		if c.Narration.ReferenceAudio, err = expandPath(strings.TrimSpace(c.Narration.ReferenceAudio)); err != nil {
			return fmt.Errorf("narration.reference_audio: %w", err)
		}
	}
	if c.Narration.TimeoutSeconds <= 0 {
		c.Narration.TimeoutSeconds = defaultNarrationTimeout
	}
	return nil
}

func (c *Config) normalizeCover() error {
	c.Cover.Renderer = strings.ToLower(strings.TrimSpace(c.Cover.Renderer))
	if c.Cover.Renderer == "" {
		c.Cover.Renderer = defaultCoverRenderer
	}
	c.Cover.ImageExt = normalizeExt(c.Cover.ImageExt)
	if c.Cover.ImageExt == "" {
		c.Cover.ImageExt = defaultCoverImageExt
	}
	if c.Cover.Width <= 0 {
		c.Cover.Width = defaultCoverWidth
	}
	if c.Cover.Height <= 0 {
		c.Cover.Height = defaultCoverHeight
	}
	if strings.TrimSpace(c.Cover.Background) == "" {
		c.Cover.Background = defaultCoverBackground
	}
	if strings.TrimSpace(c.Cover.Foreground) == "" {
		c.Cover.Foreground = defaultCoverForeground
	}
	if strings.TrimSpace(c.Cover.FontPath) != "" {
		var err error
		if c.Cover.FontPath, err = expandPath(strings.TrimSpace(c.Cover.FontPath)); err != nil {
			return fmt.Errorf("cover.font_path: %w", err)
		}
	}
	if c.Cover.TimeoutSeconds <= 0 {
		c.Cover.TimeoutSeconds = defaultCoverTimeout
	}
	return nil
}

func (c *Config) normalizeAudio() error {
	c.Audio.FFmpegBinary = strings.TrimSpace(c.Audio.FFmpegBinary)
	if c.Audio.FFmpegBinary == "" {
		c.Audio.FFmpegBinary = defaultFFmpegBinary
	}
	c.Audio.FFprobeBinary = strings.TrimSpace(c.Audio.FFprobeBinary)
	if c.Audio.FFprobeBinary == "" {
		c.Audio.FFprobeBinary = defaultFFprobeBinary
	}
	if c.Audio.SampleRate <= 0 {
		c.Audio.SampleRate = defaultSampleRate
	}
	if c.Audio.GapSeconds < 0 {
		c.Audio.GapSeconds = 0
	}
	if strings.TrimSpace(c.Audio.BackgroundPath) != "" {
		var err error
		if c.Audio.BackgroundPath, err = expandPath(strings.TrimSpace(c.Audio.BackgroundPath)); err != nil {
			return fmt.Errorf("audio.background_path: %w", err)
		}
	}
	c.Audio.Bitrate = strings.TrimSpace(c.Audio.Bitrate)
	if c.Audio.Bitrate == "" {
		c.Audio.Bitrate = defaultAudioBitrate
	}
	if c.Audio.TimeoutSeconds <= 0 {
		c.Audio.TimeoutSeconds = defaultAudioTimeout
	}
	if c.Audio.DurationToleranceMS <= 0 {
		c.Audio.DurationToleranceMS = defaultDurationToleranceMS
	}
	return nil
}

func (c *Config) normalizeIcons() error {
	files := cleanList(c.Icons.IndexFiles, false)
	for i, file := range files {
		expanded, err := expandPath(file)
		if err != nil {
			return fmt.Errorf("icons.index_files[%d]: %w", i, err)
		}
		files[i] = expanded
	}
	c.Icons.IndexFiles = cleanList(files, false)

	dirs := cleanList(c.Icons.AssetDirs, false)
	for i, dir := range dirs {
		expanded, err := expandPath(dir)
		if err != nil {
			return fmt.Errorf("icons.asset_dirs[%d]: %w", i, err)
		}
		dirs[i] = expanded
	}
	c.Icons.AssetDirs = cleanList(dirs, false)

	exts := make([]string, len(c.Icons.Extensions))
	for i, ext := range c.Icons.Extensions {
		exts[i] = normalizeExt(ext)
	}
	exts = cleanList(exts, false)
	if len(exts) == 0 {
		exts = append(exts, defaultIconExtensions...)
	}
	c.Icons.Extensions = exts

	if c.Icons.FuzzyThreshold <= 0 {
		c.Icons.FuzzyThreshold = defaultFuzzyThreshold
	}
	if c.Icons.KeywordThreshold <= 0 {
		c.Icons.KeywordThreshold = defaultKeywordThreshold
	}
	if strings.TrimSpace(c.Icons.PlaceholderGlyph) == "" {
		c.Icons.PlaceholderGlyph = defaultPlaceholderGlyph
	}
	return nil
}

func (c *Config) normalizeBuild() {
	if c.Build.Concurrency <= 0 {
		c.Build.Concurrency = defaultBuildConcurrency
	}
	if c.Build.MinFreeMiB < 0 {
		c.Build.MinFreeMiB = 0
	}
	if value, ok := lookupBoolEnv(EnvForceCover, legacyEnvForceCover); ok {
		c.Build.ForceCover = value
	}
	if value, ok := lookupBoolEnv(EnvForceNarration, legacyEnvForceNarrator); ok {
		c.Build.ForceNarration = value
	}
}

func (c *Config) normalizeNotifications() {
	c.Notifications.NtfyTopic = strings.TrimSpace(c.Notifications.NtfyTopic)
	if c.Notifications.RequestTimeoutSeconds <= 0 {
		c.Notifications.RequestTimeoutSeconds = defaultNtfyTimeout
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	switch c.Logging.Format {
	case "", "console":
		c.Logging.Format = "console"
	case "json":
	default:
		c.Logging.Format = "console"
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
	if c.Logging.RetentionDays < 0 {
		c.Logging.RetentionDays = 0
	}
}

// lookupBoolEnv returns the first set variable among names, parsed as a boolean.
func lookupBoolEnv(names ...string) (bool, bool) {
	for _, name := range names {
		raw, ok := os.LookupEnv(name)
		if !ok {
			continue
		}
		value, valid := parseBool(raw)
		if !valid {
			continue
		}
		return value, true
	}
	return false, false
}

func parseBool(raw string) (bool, bool) {
	trimmed := strings.ToLower(strings.TrimSpace(raw))
	switch trimmed {
	case "yes", "y", "on":
		return true, true
	case "no", "n", "off", "":
		return false, true
	}
	value, err := strconv.ParseBool(trimmed)
	if err != nil {
		return false, false
	}
	return value, true
}

func normalizeExt(ext string) string {
	return strings.ToLower(strings.TrimPrefix(strings.TrimSpace(ext), "."))
}

func cleanList(values []string, lower bool) []string {
	out := make([]string, 0, len(values))
	seen := make(map[string]struct{}, len(values))
	for _, value := range values {
		trimmed := strings.TrimSpace(value)
		if lower {
			trimmed = strings.ToLower(trimmed)
		}
		if trimmed == "" {
			continue
		}
		if _, exists := seen[trimmed]; exists {
			continue
		}
		seen[trimmed] = struct{}{}
		out = append(out, trimmed)
	}
	return out
}

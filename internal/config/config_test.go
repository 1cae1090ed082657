package config_test

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pelletier/go-toml/v2"

	"lessonforge/internal/config"
)

func TestLoadDefaultConfigExpandsPaths(t *testing.T) {
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)
	t.Chdir(t.TempDir())

	cfg, src, err := config.Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if src.Path != filepath.Join(tempHome, ".config", "lessonforge", "config.toml") {
		t.Fatalf("unexpected resolved path %q", src.Path)
	}
	if src.Exists {
		t.Fatal("expected config file to be absent in temp HOME")
	}

	if cfg.Paths.LessonsDir != filepath.Join(tempHome, "lessons") {
		t.Fatalf("unexpected lessons dir: %q", cfg.Paths.LessonsDir)
	}
	wantLogs := filepath.Join(tempHome, ".local", "share", "lessonforge", "logs")
	if cfg.Paths.LogDir != wantLogs {
		t.Fatalf("unexpected log dir: got %q want %q", cfg.Paths.LogDir, wantLogs)
	}
	if cfg.Audio.SampleRate != 44100 {
		t.Fatalf("unexpected sample rate: %d", cfg.Audio.SampleRate)
	}
	if cfg.Audio.BackgroundVolumeDB >= 0 {
		t.Fatalf("expected negative background attenuation, got %v", cfg.Audio.BackgroundVolumeDB)
	}
	if cfg.Icons.FuzzyThreshold != 0.6 || cfg.Icons.KeywordThreshold != 0.5 {
		t.Fatalf("unexpected icon thresholds: %v %v", cfg.Icons.FuzzyThreshold, cfg.Icons.KeywordThreshold)
	}
	if cfg.Icons.PlaceholderGlyph != "?" {
		t.Fatalf("unexpected placeholder glyph %q", cfg.Icons.PlaceholderGlyph)
	}
	if cfg.Build.ForceCover || cfg.Build.ForceNarration {
		t.Fatal("expected force switches off by default")
	}
	if cfg.Logging.Format != "console" {
		t.Fatalf("unexpected log format %q", cfg.Logging.Format)
	}
}

func TestLoadCustomConfigNormalizesValues(t *testing.T) {
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)

	cfgPath := filepath.Join(t.TempDir(), "config.toml")
	custom := config.Default()
	custom.Paths.LessonsDir = "~/course"
	custom.Narration.AudioExt = ".WAV"
	custom.Narration.Command = []string{"tts", "--text", "{text}", "--out", "{output}"}
	custom.Icons.IndexFiles = []string{"~/icons/a.json", " ", "~/icons/a.json"}
	custom.Icons.Extensions = []string{".SVG", "png", "svg"}
	custom.Logging.Format = "JSON"
	custom.Build.Concurrency = 0

	data, err := toml.Marshal(custom)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if err := os.WriteFile(cfgPath, data, 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	cfg, src, err := config.Load(cfgPath)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !src.Exists || src.Path != cfgPath {
		t.Fatal("expected config to exist")
	}
	if cfg.Paths.LessonsDir != filepath.Join(tempHome, "course") {
		t.Fatalf("unexpected lessons dir %q", cfg.Paths.LessonsDir)
	}
	if cfg.Narration.AudioExt != "wav" {
		t.Fatalf("expected normalized extension, got %q", cfg.Narration.AudioExt)
	}
	if len(cfg.Icons.IndexFiles) != 1 || cfg.Icons.IndexFiles[0] != filepath.Join(tempHome, "icons", "a.json") {
		t.Fatalf("unexpected index files %v", cfg.Icons.IndexFiles)
	}
	if strings.Join(cfg.Icons.Extensions, ",") != "svg,png" {
		t.Fatalf("unexpected extensions %v", cfg.Icons.Extensions)
	}
	if cfg.Logging.Format != "json" {
		t.Fatalf("unexpected log format %q", cfg.Logging.Format)
	}
	if cfg.Build.Concurrency != 1 {
		t.Fatalf("expected concurrency clamp to 1, got %d", cfg.Build.Concurrency)
	}
}

func TestForceSwitchesFromEnvironment(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Setenv(config.EnvForceCover, "yes")
	t.Setenv("FORCE_VOICE", "1")

	cfg, _, err := config.Load(filepath.Join(t.TempDir(), "missing.toml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !cfg.Build.ForceCover {
		t.Fatal("expected cover force from env")
	}
	if !cfg.Build.ForceNarration {
		t.Fatal("expected narration force from legacy env")
	}
}

func TestPrimaryForceSwitchWinsOverLegacy(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Setenv(config.EnvForceNarration, "false")
	t.Setenv("FORCE_VOICE", "true")

	cfg, _, err := config.Load(filepath.Join(t.TempDir(), "missing.toml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Build.ForceNarration {
		t.Fatal("expected primary switch to take precedence")
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*config.Config)
		want   string
	}{
		{
			name:   "non-negative background volume",
			mutate: func(c *config.Config) { c.Audio.BackgroundVolumeDB = 0 },
			want:   "background_volume_db",
		},
		{
			name:   "narration command without output",
			mutate: func(c *config.Config) { c.Narration.Command = []string{"tts", "{text}"} },
			want:   "{output}",
		},
		{
			name:   "unknown renderer",
			mutate: func(c *config.Config) { c.Cover.Renderer = "dalle" },
			want:   "cover.renderer",
		},
		{
			name: "command renderer without command",
			mutate: func(c *config.Config) {
				c.Cover.Renderer = "command"
				c.Cover.Command = nil
			},
			want: "cover.command",
		},
		{
			name:   "builtin renderer with unsupported image extension",
			mutate: func(c *config.Config) { c.Cover.ImageExt = "webp" },
			want:   "cover.image_ext",
		},
		{
			name:   "fuzzy threshold above one",
			mutate: func(c *config.Config) { c.Icons.FuzzyThreshold = 1.5 },
			want:   "fuzzy_threshold",
		},
		{
			name:   "ntfy topic without scheme",
			mutate: func(c *config.Config) { c.Notifications.NtfyTopic = "my-lessons" },
			want:   "ntfy_topic",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.Default()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("expected %q in %q", tt.want, err.Error())
			}
		})
	}
}

func TestSampleConfigParses(t *testing.T) {
	var cfg config.Config
	if err := toml.Unmarshal([]byte(config.SampleConfig()), &cfg); err != nil {
		t.Fatalf("sample config does not parse: %v", err)
	}
	if cfg.Audio.BackgroundVolumeDB >= 0 {
		t.Fatalf("sample config must ship a negative background volume")
	}
}

func TestWriteSampleRefusesOverwrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.toml")
	written, err := config.WriteSample(path, false)
	if err != nil {
		t.Fatalf("WriteSample: %v", err)
	}
	if written != path {
		t.Fatalf("expected %q, got %q", path, written)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if !strings.Contains(string(data), "[audio]") {
		t.Fatal("sample config missing [audio] section")
	}

	if _, err := config.WriteSample(path, false); !errors.Is(err, config.ErrConfigExists) {
		t.Fatalf("expected ErrConfigExists, got %v", err)
	}
	if _, err := config.WriteSample(path, true); err != nil {
		t.Fatalf("overwrite: %v", err)
	}
}

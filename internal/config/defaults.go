package config

const (
	defaultLessonsDir          = "~/lessons"
	defaultLogDir              = "~/.local/share/lessonforge/logs"
	defaultStateDir            = "~/.local/share/lessonforge"
	defaultLogRetentionDays    = 30
	defaultLogFormat           = "console"
	defaultLogLevel            = "info"
	defaultNarrationAudioExt   = "mp3"
	defaultNarrationTimeout    = 300
	defaultCoverRenderer       = "builtin"
	defaultCoverImageExt       = "png"
	defaultCoverWidth          = 1280
	defaultCoverHeight         = 720
	defaultCoverBackground     = "#1E2A38"
	defaultCoverForeground     = "#F5F1E6"
	defaultCoverTimeout        = 120
	defaultFFmpegBinary        = "ffmpeg"
	defaultFFprobeBinary       = "ffprobe"
	defaultSampleRate          = 44100
	defaultBackgroundVolumeDB  = -20.0
	defaultAudioBitrate        = "192k"
	defaultAudioTimeout        = 600
	defaultDurationToleranceMS = 50
	defaultFuzzyThreshold      = 0.6
	defaultKeywordThreshold    = 0.5
	defaultPlaceholderGlyph    = "?"
	defaultBuildConcurrency    = 1
	defaultMinFreeMiB          = 256
	defaultNtfyTimeout         = 10
)

var (
	defaultScriptNames    = []string{"script.json", "script.yaml", "script.yml"}
	defaultIconExtensions = []string{"svg", "png"}
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			LessonsDir:  defaultLessonsDir,
			LogDir:      defaultLogDir,
			StateDir:    defaultStateDir,
			ScriptNames: append([]string(nil), defaultScriptNames...),
		},
		Narration: Narration{
			AudioExt:       defaultNarrationAudioExt,
			TimeoutSeconds: defaultNarrationTimeout,
		},
		Cover: Cover{
			Renderer:       defaultCoverRenderer,
			ImageExt:       defaultCoverImageExt,
			Width:          defaultCoverWidth,
			Height:         defaultCoverHeight,
			Background:     defaultCoverBackground,
			Foreground:     defaultCoverForeground,
			TimeoutSeconds: defaultCoverTimeout,
		},
		Audio: Audio{
			FFmpegBinary:        defaultFFmpegBinary,
			FFprobeBinary:       defaultFFprobeBinary,
			SampleRate:          defaultSampleRate,
			BackgroundVolumeDB:  defaultBackgroundVolumeDB,
			BackgroundLoop:      true,
			Bitrate:             defaultAudioBitrate,
			TimeoutSeconds:      defaultAudioTimeout,
			DurationToleranceMS: defaultDurationToleranceMS,
		},
		Icons: Icons{
			Extensions:       append([]string(nil), defaultIconExtensions...),
			FuzzyThreshold:   defaultFuzzyThreshold,
			KeywordThreshold: defaultKeywordThreshold,
			PlaceholderGlyph: defaultPlaceholderGlyph,
		},
		Build: Build{
			Concurrency: defaultBuildConcurrency,
			MinFreeMiB:  defaultMinFreeMiB,
		},
		Notifications: Notifications{
			RequestTimeoutSeconds: defaultNtfyTimeout,
		},
		Logging: Logging{
			Format:        defaultLogFormat,
			Level:         defaultLogLevel,
			RetentionDays: defaultLogRetentionDays,
		},
	}
}

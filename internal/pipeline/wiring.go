package pipeline

import (
	"log/slog"
	"strings"
	"time"

	"lessonforge/internal/audio"
	"lessonforge/internal/config"
	"lessonforge/internal/deps"
	"lessonforge/internal/generators"
	"lessonforge/internal/icons"
	"lessonforge/internal/media/audioprobe"
)

// NewFromConfig wires the production collaborators. journal may be nil.
func NewFromConfig(cfg *config.Config, journal Journal, logger *slog.Logger) (*Orchestrator, error) {
	prober := audioprobe.New(deps.ResolveFFprobe(cfg.FFmpegBinary(), cfg.Audio.FFprobeBinary))

	collaborators := Deps{
		Narrator: generators.NewCommandNarrator(cfg.Narration.Command, seconds(cfg.Narration.TimeoutSeconds), logger),
		Cover:    CoverRendererFromConfig(cfg, logger),
		Composer: audio.NewComposer(audio.Options{
			FFmpegBinary:      cfg.FFmpegBinary(),
			SampleRate:        cfg.Audio.SampleRate,
			Bitrate:           cfg.Audio.Bitrate,
			Timeout:           seconds(cfg.Audio.TimeoutSeconds),
			DurationTolerance: time.Duration(cfg.Audio.DurationToleranceMS) * time.Millisecond,
		}, prober, logger),
		Icons:   icons.NewResolver(icons.OptionsFromConfig(cfg), logger),
		Prober:  prober,
		Journal: journal,
	}
	return New(OptionsFromConfig(cfg), collaborators, logger)
}

// CoverRendererFromConfig selects the built-in or command renderer.
func CoverRendererFromConfig(cfg *config.Config, logger *slog.Logger) generators.CoverRenderer {
	if strings.EqualFold(cfg.Cover.Renderer, "command") {
		return generators.NewCommandCover(cfg.Cover.Command, seconds(cfg.Cover.TimeoutSeconds), logger)
	}
	return generators.NewBuiltinCover(generators.CoverStyle{
		Width:      cfg.Cover.Width,
		Height:     cfg.Cover.Height,
		FontPath:   cfg.Cover.FontPath,
		Background: cfg.Cover.Background,
		Foreground: cfg.Cover.Foreground,
	}, logger)
}

func seconds(n int) time.Duration {
	if n <= 0 {
		return 0
	}
	return time.Duration(n) * time.Second
}

package pipeline

import (
	"context"
	"strings"
	"time"

	"lessonforge/internal/audio"
	"lessonforge/internal/config"
	"lessonforge/internal/generators"
	"lessonforge/internal/icons"
	"lessonforge/internal/script"
)

// Composer assembles the full narration track.
type Composer interface {
	Compose(ctx context.Context, segments []audio.Segment, outputPath string) (audio.ComposedTrack, error)
}

// IconResolver maps the icon names a script references to assets.
type IconResolver interface {
	ResolveAll(ctx context.Context, names []string) []icons.Resolution
}

// Journal records run progress. Journal failures never fail a build.
type Journal interface {
	Begin(ctx context.Context, runID, lesson, lessonDir, state string) error
	Transition(ctx context.Context, runID, state string) error
	Finish(ctx context.Context, runID string, regenerated []string, runErr error) error
	// MarkAbandoned fails rows still marked running for lesson. It is called
	// while the lesson lock is held, so such rows belong to a dead process.
	MarkAbandoned(ctx context.Context, lesson string) (int64, error)
}

// Deps bundles the collaborators an Orchestrator drives.
type Deps struct {
	Narrator generators.Narrator
	Cover    generators.CoverRenderer
	Composer Composer
	Icons    IconResolver
	// Prober measures clips for the manifest. Optional.
	Prober audio.DurationProber
	// Journal is optional.
	Journal Journal
}

// Options holds every override point of a build.
type Options struct {
	ScriptNames []string
	AudioExt    string
	ImageExt    string

	// ReferenceAudio is an input of every narration clip when set.
	ReferenceAudio string
	// CoverFont is an input of the cover when set.
	CoverFont string

	Gap                time.Duration
	BackgroundPath     string
	BackgroundVolumeDB float64
	BackgroundLoop     bool

	ForceCover     bool
	ForceNarration bool

	MinFreeMiB  int
	Concurrency int
	Kinds       script.Kinds
}

// OptionsFromConfig maps configuration onto build options.
func OptionsFromConfig(cfg *config.Config) Options {
	opts := Options{
		ScriptNames:        append([]string(nil), cfg.Paths.ScriptNames...),
		AudioExt:           cfg.Narration.AudioExt,
		ImageExt:           cfg.Cover.ImageExt,
		ReferenceAudio:     strings.TrimSpace(cfg.Narration.ReferenceAudio),
		Gap:                time.Duration(cfg.Audio.GapSeconds * float64(time.Second)),
		BackgroundPath:     strings.TrimSpace(cfg.Audio.BackgroundPath),
		BackgroundVolumeDB: cfg.Audio.BackgroundVolumeDB,
		BackgroundLoop:     cfg.Audio.BackgroundLoop,
		ForceCover:         cfg.Build.ForceCover,
		ForceNarration:     cfg.Build.ForceNarration,
		MinFreeMiB:         cfg.Build.MinFreeMiB,
		Concurrency:        cfg.Build.Concurrency,
		Kinds:              script.DefaultKinds(),
	}
	if !strings.EqualFold(cfg.Cover.Renderer, "command") {
		opts.CoverFont = strings.TrimSpace(cfg.Cover.FontPath)
	}
	return opts
}

func (o Options) withDefaults() Options {
	if len(o.ScriptNames) == 0 {
		o.ScriptNames = []string{"script.json", "script.yaml", "script.yml"}
	}
	if strings.TrimSpace(o.AudioExt) == "" {
		o.AudioExt = "mp3"
	}
	if strings.TrimSpace(o.ImageExt) == "" {
		o.ImageExt = "png"
	}
	if o.Concurrency < 1 {
		o.Concurrency = 1
	}
	if o.Kinds == nil {
		o.Kinds = script.DefaultKinds()
	}
	return o
}

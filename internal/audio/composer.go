package audio

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"math"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"lessonforge/internal/fileutil"
	"lessonforge/internal/logging"
	"lessonforge/internal/services"
)

type commandRunner func(ctx context.Context, name string, args ...string) error

// DurationProber measures audio files for post-compose verification.
type DurationProber interface {
	Duration(ctx context.Context, path string) (time.Duration, error)
}

// Options tunes composition.
type Options struct {
	FFmpegBinary string
	SampleRate   int
	Bitrate      string
	// Timeout bounds a single ffmpeg run. Zero means no limit beyond ctx.
	Timeout time.Duration
	// DurationTolerance is the allowed drift between the composed track and
	// the sum of its parts. Zero disables verification.
	DurationTolerance time.Duration
}

// ComposedTrack describes a written composition.
type ComposedTrack struct {
	OutputPath    string
	SampleRate    int
	ChannelLayout string
	// Duration is the measured length when verification ran, else zero.
	Duration time.Duration
	Segments int
}

// Composer builds narration tracks with ffmpeg.
type Composer struct {
	opts   Options
	logger *slog.Logger
	run    commandRunner
	prober DurationProber
}

// NewComposer constructs a composer. prober may be nil, which disables
// duration verification.
func NewComposer(opts Options, prober DurationProber, logger *slog.Logger) *Composer {
	if strings.TrimSpace(opts.FFmpegBinary) == "" {
		opts.FFmpegBinary = "ffmpeg"
	}
	if opts.SampleRate <= 0 {
		opts.SampleRate = 44100
	}
	if strings.TrimSpace(opts.Bitrate) == "" {
		opts.Bitrate = "192k"
	}
	return &Composer{
		opts:   opts,
		logger: logging.NewComponentLogger(logger, "audio"),
		run:    defaultCommandRunner,
		prober: prober,
	}
}

// WithCommandRunner allows injecting a custom command runner for tests.
func (c *Composer) WithCommandRunner(r func(ctx context.Context, name string, args ...string) error) {
	if c != nil && r != nil {
		c.run = r
	}
}

// Compose writes segments to outputPath. Validation problems are reported
// together as a configuration error. Any ffmpeg or verification failure is a
// generation error and also removes a track left at outputPath by an earlier
// run, so the next build regenerates it.
func (c *Composer) Compose(ctx context.Context, segments []Segment, outputPath string) (ComposedTrack, error) {
	if c == nil {
		return ComposedTrack{}, errors.New("audio composer not initialized")
	}
	if err := Validate(segments, outputPath); err != nil {
		return ComposedTrack{}, err
	}
	if err := os.MkdirAll(filepath.Dir(outputPath), 0o755); err != nil {
		return ComposedTrack{}, services.Generation("audio", "prepare output directory", outputPath, err)
	}

	partial := fileutil.PartialPath(outputPath)
	g := buildGraph(segments, c.opts.SampleRate)
	args := commandArgs(g, c.opts.SampleRate, c.opts.Bitrate, partial)

	logger := logging.WithContext(ctx, c.logger)
	logger.Debug("executing ffmpeg",
		logging.String("output", outputPath),
		logging.Int("segments", len(segments)),
		logging.String("filter_complex", g.filter),
	)

	runCtx := ctx
	if c.opts.Timeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, c.opts.Timeout)
		defer cancel()
	}
	started := time.Now()
	if err := c.run(runCtx, c.opts.FFmpegBinary, args...); err != nil {
		fileutil.Discard(partial)
		fileutil.Discard(outputPath)
		if runCtx.Err() != nil {
			err = fmt.Errorf("%w: %w", runCtx.Err(), err)
		}
		return ComposedTrack{}, services.Generation("audio", "ffmpeg compose", outputPath, err)
	}

	track := ComposedTrack{
		OutputPath:    outputPath,
		SampleRate:    c.opts.SampleRate,
		ChannelLayout: ChannelLayout,
		Segments:      len(segments),
	}

	if c.prober != nil && c.opts.DurationTolerance > 0 {
		measured, err := c.verify(ctx, segments, partial)
		if err != nil {
			fileutil.Discard(partial)
			fileutil.Discard(outputPath)
			return ComposedTrack{}, services.Generation("audio", "verify duration", outputPath, err)
		}
		track.Duration = measured
	}

	if err := fileutil.Commit(partial, outputPath); err != nil {
		return ComposedTrack{}, services.Generation("audio", "commit output", outputPath, err)
	}

	logger.Info("audio track composed",
		logging.String(logging.FieldEventType, "audio_composed"),
		logging.String("output", outputPath),
		logging.Int("segments", len(segments)),
		logging.Duration("duration", track.Duration),
		logging.Duration("elapsed", time.Since(started).Round(time.Millisecond)),
	)
	return track, nil
}

// Validate checks a segment list before composition and reports every
// problem at once.
func Validate(segments []Segment, outputPath string) error {
	problems := services.NewProblems("compose audio")
	if strings.TrimSpace(outputPath) == "" {
		problems.Addf("output path is required")
	}

	voices, backgrounds := 0, 0
	for i, seg := range segments {
		switch seg.Kind {
		case KindVoice:
			voices++
			checkSource(problems, i, seg)
		case KindSilence:
			if seg.Duration <= 0 {
				problems.Addf("segment %d: silence duration must be positive (got %s)", i, seg.Duration)
			}
		case KindBackground:
			backgrounds++
			checkSource(problems, i, seg)
			if seg.VolumeDB >= 0 {
				problems.Addf("segment %d: background volume must be negative dB (got %.1f)", i, seg.VolumeDB)
			}
		default:
			problems.Addf("segment %d: unknown kind %s", i, seg.Kind)
		}
	}
	if voices == 0 {
		problems.Addf("at least one voice segment is required")
	}
	if backgrounds > 1 {
		problems.Addf("at most one background segment is allowed (got %d)", backgrounds)
	}
	return problems.Err()
}

func checkSource(problems *services.Problems, index int, seg Segment) {
	if strings.TrimSpace(seg.Path) == "" {
		problems.Addf("segment %d: %s path is empty", index, seg.Kind)
		return
	}
	info, err := os.Stat(seg.Path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		problems.Addf("segment %d: %s file not found: %s", index, seg.Kind, seg.Path)
	case err != nil:
		problems.Addf("segment %d: %s file unreadable: %s: %v", index, seg.Kind, seg.Path, err)
	case info.IsDir():
		problems.Addf("segment %d: %s path is a directory: %s", index, seg.Kind, seg.Path)
	}
}

// verify compares the composed length with the sum of clip and gap lengths.
func (c *Composer) verify(ctx context.Context, segments []Segment, composed string) (time.Duration, error) {
	var expected time.Duration
	for _, seg := range segments {
		switch seg.Kind {
		case KindVoice:
			d, err := c.prober.Duration(ctx, seg.Path)
			if err != nil {
				return 0, err
			}
			expected += d
		case KindSilence:
			expected += seg.Duration
		}
	}
	measured, err := c.prober.Duration(ctx, composed)
	if err != nil {
		return 0, err
	}
	allowed := c.opts.DurationTolerance
	drift := time.Duration(math.Abs(float64(measured - expected)))
	if drift > allowed {
		return measured, fmt.Errorf("composed duration %s differs from expected %s by %s (allowed %s)",
			measured.Round(time.Millisecond), expected.Round(time.Millisecond), drift.Round(time.Millisecond), allowed)
	}
	return measured, nil
}

func defaultCommandRunner(ctx context.Context, name string, args ...string) error {
	cmd := exec.CommandContext(ctx, name, args...)
	output, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("%w: %s", err, strings.TrimSpace(string(output)))
	}
	return nil
}

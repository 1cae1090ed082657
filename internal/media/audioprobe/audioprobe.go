// Package audioprobe measures audio files.
//
// MP3 files are measured in-process by walking their frames, which is exact
// for the clips narration services emit and avoids spawning ffprobe once per
// scene. Every other container, and MP3 files whose frames cannot be walked,
// fall back to ffprobe.
package audioprobe

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/dhowden/tag"
	"github.com/tcolgate/mp3"

	"lessonforge/internal/media/ffprobe"
)

// Measurement sources.
const (
	SourceMP3Frames = "mp3_frames"
	SourceFFprobe   = "ffprobe"
)

// Info describes one audio file. SampleRate and Channels are only populated
// when ffprobe measured the file.
type Info struct {
	Path       string
	FileType   string
	Duration   time.Duration
	SampleRate int
	Channels   int
	Source     string
}

// InspectFunc runs ffprobe. It matches ffprobe.Inspect.
type InspectFunc func(ctx context.Context, binary, path string) (ffprobe.Result, error)

// Prober measures audio files.
type Prober struct {
	ffprobeBinary string
	inspect       InspectFunc
}

// New returns a prober that falls back to the given ffprobe binary.
func New(ffprobeBinary string) *Prober {
	return &Prober{ffprobeBinary: ffprobeBinary, inspect: ffprobe.Inspect}
}

// NewWithInspector returns a prober using a custom ffprobe implementation.
func NewWithInspector(ffprobeBinary string, inspect InspectFunc) *Prober {
	if inspect == nil {
		inspect = ffprobe.Inspect
	}
	return &Prober{ffprobeBinary: ffprobeBinary, inspect: inspect}
}

// Probe measures path.
func (p *Prober) Probe(ctx context.Context, path string) (Info, error) {
	info := Info{Path: path, FileType: identify(path)}
	if info.FileType == string(tag.MP3) {
		if duration, err := walkMP3(path); err == nil && duration > 0 {
			info.Duration = duration
			info.Source = SourceMP3Frames
			return info, nil
		}
	}

	result, err := p.inspect(ctx, p.ffprobeBinary, path)
	if err != nil {
		return info, fmt.Errorf("probe %s: %w", filepath.Base(path), err)
	}
	stream, ok := result.PrimaryAudio()
	if !ok {
		return info, fmt.Errorf("probe %s: no audio stream", filepath.Base(path))
	}
	info.Duration = result.Duration()
	info.SampleRate = stream.SampleRateHz()
	info.Channels = stream.Channels
	info.Source = SourceFFprobe
	if info.FileType == "" {
		info.FileType = strings.ToUpper(firstFormatName(result.Format.FormatName))
	}
	return info, nil
}

// Duration is a shorthand for Probe(ctx, path).Duration.
func (p *Prober) Duration(ctx context.Context, path string) (time.Duration, error) {
	info, err := p.Probe(ctx, path)
	if err != nil {
		return 0, err
	}
	return info.Duration, nil
}

// identify returns the container type detected from file content, falling
// back to the extension for untagged MP3 streams.
func identify(path string) string {
	f, err := os.Open(path)
	if err != nil {
		return ""
	}
	defer f.Close()

	_, fileType, err := tag.Identify(f)
	if err == nil && fileType != tag.UnknownFileType {
		return string(fileType)
	}
	if strings.EqualFold(filepath.Ext(path), ".mp3") {
		return string(tag.MP3)
	}
	return ""
}

// walkMP3 sums frame durations. Sample rate and channel count are left to
// ffprobe callers that need them.
func walkMP3(path string) (time.Duration, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	decoder := mp3.NewDecoder(f)
	var (
		frame   mp3.Frame
		skipped int
		total   time.Duration
	)
	for {
		err := decoder.Decode(&frame, &skipped)
		if err != nil {
			if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
				break
			}
			return 0, err
		}
		total += frame.Duration()
	}
	return total, nil
}

func firstFormatName(value string) string {
	if idx := strings.IndexByte(value, ','); idx >= 0 {
		return value[:idx]
	}
	return value
}

package ffprobe

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os/exec"
	"strconv"
	"strings"
	"time"
)

// Number is a decimal value ffprobe reports as a JSON string.
type Number string

// Float parses n. ok is false when n is blank or malformed.
func (n Number) Float() (value float64, ok bool) {
	s := strings.TrimSpace(string(n))
	if s == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}

// Result is the subset of `ffprobe -show_format -show_streams` output that
// lessonforge reads.
type Result struct {
	Streams []Stream `json:"streams"`
	Format  struct {
		Duration   Number `json:"duration"`
		FormatName string `json:"format_name"`
	} `json:"format"`
}

// Stream is one entry of the streams array.
type Stream struct {
	CodecName     string `json:"codec_name"`
	CodecType     string `json:"codec_type"`
	Duration      Number `json:"duration"`
	SampleRate    Number `json:"sample_rate"`
	Channels      int    `json:"channels"`
	ChannelLayout string `json:"channel_layout"`
}

// Inspect runs binary (ffprobe when blank) against path.
func Inspect(ctx context.Context, binary, path string) (Result, error) {
	if strings.TrimSpace(path) == "" {
		return Result{}, errors.New("ffprobe inspect: empty path")
	}
	if binary = strings.TrimSpace(binary); binary == "" {
		binary = "ffprobe"
	}
	args := []string{"-v", "error", "-hide_banner", "-show_format", "-show_streams", "-of", "json", "--", path}
	out, err := exec.CommandContext(ctx, binary, args...).CombinedOutput()
	if err != nil {
		return Result{}, fmt.Errorf("ffprobe inspect %s: %w: %s", path, err, strings.TrimSpace(string(out)))
	}
	return Parse(out)
}

// Parse decodes an ffprobe JSON document.
func Parse(payload []byte) (Result, error) {
	var r Result
	if err := json.Unmarshal(payload, &r); err != nil {
		return Result{}, fmt.Errorf("ffprobe parse: %w", err)
	}
	return r, nil
}

// PrimaryAudio returns the first audio stream.
func (r Result) PrimaryAudio() (Stream, bool) {
	for _, s := range r.Streams {
		if strings.EqualFold(s.CodecType, "audio") {
			return s, true
		}
	}
	return Stream{}, false
}

// Duration is the container duration, or the first audio stream's when the
// container omits it. Missing or malformed values yield 0.
func (r Result) Duration() time.Duration {
	seconds, ok := r.Format.Duration.Float()
	if !ok {
		stream, found := r.PrimaryAudio()
		if !found {
			return 0
		}
		seconds, ok = stream.Duration.Float()
	}
	if !ok || seconds <= 0 {
		return 0
	}
	return time.Duration(math.Round(seconds * float64(time.Second)))
}

// SampleRateHz returns 0 when the rate is missing or malformed.
func (s Stream) SampleRateHz() int {
	rate, ok := s.SampleRate.Float()
	if !ok || rate < 0 {
		return 0
	}
	return int(rate)
}

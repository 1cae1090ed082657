package audio

import (
	"fmt"
	"time"
)

// SegmentKind discriminates Segment values.
type SegmentKind int

const (
	KindVoice SegmentKind = iota
	KindSilence
	KindBackground
)

func (k SegmentKind) String() string {
	switch k {
	case KindVoice:
		return "voice"
	case KindSilence:
		return "silence"
	case KindBackground:
		return "background"
	default:
		return fmt.Sprintf("segment(%d)", int(k))
	}
}

// Segment is one element of a composition. Which fields apply depends on Kind:
// Voice uses Path; Silence uses Duration; Background uses Path, VolumeDB and Loop.
type Segment struct {
	Kind     SegmentKind
	Path     string
	Duration time.Duration
	VolumeDB float64
	Loop     bool
}

// Voice returns a narration clip segment.
func Voice(path string) Segment {
	return Segment{Kind: KindVoice, Path: path}
}

// Silence returns a generated gap of the given length.
func Silence(d time.Duration) Segment {
	return Segment{Kind: KindSilence, Duration: d}
}

// Background returns a background bed attenuated by volumeDB.
func Background(path string, volumeDB float64, loop bool) Segment {
	return Segment{Kind: KindBackground, Path: path, VolumeDB: volumeDB, Loop: loop}
}

// Interleave places a gap of the given length between consecutive clips. A
// zero gap yields the clips back to back.
func Interleave(clips []string, gap time.Duration) []Segment {
	segments := make([]Segment, 0, len(clips)*2)
	for i, clip := range clips {
		if i > 0 && gap > 0 {
			segments = append(segments, Silence(gap))
		}
		segments = append(segments, Voice(clip))
	}
	return segments
}

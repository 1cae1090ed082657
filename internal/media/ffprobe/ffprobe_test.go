package ffprobe

import (
	"testing"
	"time"
)

const samplePayload = `{
  "streams": [
    {"index": 0, "codec_name": "png", "codec_type": "video"},
    {"index": 1, "codec_name": "mp3", "codec_type": "audio", "sample_rate": "44100", "channels": 2, "channel_layout": "stereo", "duration": "12.500000"}
  ],
  "format": {"filename": "full_audio.mp3", "nb_streams": 2, "duration": "12.512000", "format_name": "mp3"}
}`

func TestParseAudioResult(t *testing.T) {
	result, err := Parse([]byte(samplePayload))
	if err != nil {
		t.Fatalf("Parse returned error: %v", err)
	}
	stream, ok := result.PrimaryAudio()
	if !ok {
		t.Fatal("expected primary audio stream")
	}
	if stream.CodecName != "mp3" || stream.SampleRateHz() != 44100 || stream.Channels != 2 || stream.ChannelLayout != "stereo" {
		t.Fatalf("unexpected stream: %+v", stream)
	}
	if result.Duration() != 12512*time.Millisecond {
		t.Fatalf("unexpected duration: %v", result.Duration())
	}
	if result.Format.FormatName != "mp3" {
		t.Fatalf("unexpected format name %q", result.Format.FormatName)
	}
}

func TestDurationFallsBackToStream(t *testing.T) {
	result := Result{Streams: []Stream{{CodecType: "audio", Duration: "3.25"}}}
	if result.Duration() != 3250*time.Millisecond {
		t.Fatalf("unexpected duration: %v", result.Duration())
	}
}

func TestMalformedNumbersReadAsZero(t *testing.T) {
	var result Result
	result.Format.Duration = "bad"
	if result.Duration() != 0 {
		t.Fatalf("expected zero duration, got %v", result.Duration())
	}
	if (Stream{SampleRate: "x"}).SampleRateHz() != 0 {
		t.Fatal("expected zero sample rate for malformed value")
	}
	if _, ok := Number("NaN").Float(); ok {
		t.Fatal("expected NaN rejected")
	}
}

func TestParseRejectsGarbage(t *testing.T) {
	if _, err := Parse([]byte("not json")); err == nil {
		t.Fatal("expected parse error")
	}
}

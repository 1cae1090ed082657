package audio

import (
	"strings"
	"testing"
	"time"
)

func TestBuildGraphVoiceAndSilenceOrder(t *testing.T) {
	segments := Interleave([]string{"/v/1.mp3", "/v/2.mp3", "/v/3.mp3"}, 1500*time.Millisecond)
	g := buildGraph(segments, 44100)

	wantInputs := []string{"-i", "/v/1.mp3", "-i", "/v/2.mp3", "-i", "/v/3.mp3"}
	if strings.Join(g.inputs, " ") != strings.Join(wantInputs, " ") {
		t.Fatalf("inputs = %v, want %v", g.inputs, wantInputs)
	}

	want := strings.Join([]string{
		"[0:a]aresample=44100,aformat=sample_fmts=fltp:sample_rates=44100:channel_layouts=mono[s0]",
		"anullsrc=channel_layout=mono:sample_rate=44100,atrim=duration=1.500,aformat=sample_fmts=fltp:sample_rates=44100:channel_layouts=mono[s1]",
		"[1:a]aresample=44100,aformat=sample_fmts=fltp:sample_rates=44100:channel_layouts=mono[s2]",
		"anullsrc=channel_layout=mono:sample_rate=44100,atrim=duration=1.500,aformat=sample_fmts=fltp:sample_rates=44100:channel_layouts=mono[s3]",
		"[2:a]aresample=44100,aformat=sample_fmts=fltp:sample_rates=44100:channel_layouts=mono[s4]",
		"[s0][s1][s2][s3][s4]concat=n=5:v=0:a=1[narration]",
		"[narration]pan=stereo|c0=c0|c1=c0[out]",
	}, ";")
	if g.filter != want {
		t.Fatalf("filter mismatch\n got: %s\nwant: %s", g.filter, want)
	}
}

func TestBuildGraphBackgroundIsLastInputAndMixedUnderNarration(t *testing.T) {
	segments := []Segment{
		Background("/music/bed.mp3", -20, true),
		Voice("/v/1.mp3"),
		Voice("/v/2.mp3"),
	}
	g := buildGraph(segments, 48000)

	wantInputs := "-i /v/1.mp3 -i /v/2.mp3 -stream_loop -1 -i /music/bed.mp3"
	if got := strings.Join(g.inputs, " "); got != wantInputs {
		t.Fatalf("inputs = %q, want %q", got, wantInputs)
	}
	for _, fragment := range []string{
		"[s0][s1]concat=n=2:v=0:a=1[narration]",
		"[narration]pan=stereo|c0=c0|c1=c0[bed]",
		"[2:a]aresample=48000,aformat=sample_fmts=fltp:sample_rates=48000:channel_layouts=stereo,volume=-20.0dB[bg]",
		"[bed][bg]amix=inputs=2:duration=first:dropout_transition=0:normalize=0[out]",
	} {
		if !strings.Contains(g.filter, fragment) {
			t.Errorf("expected %q in filter %q", fragment, g.filter)
		}
	}
}

func TestBuildGraphBackgroundWithoutLoop(t *testing.T) {
	g := buildGraph([]Segment{Voice("/v/1.wav"), Background("/bg.wav", -12.5, false)}, 44100)
	if strings.Contains(strings.Join(g.inputs, " "), "-stream_loop") {
		t.Fatalf("did not expect stream_loop for non-looping background: %v", g.inputs)
	}
	if !strings.Contains(g.filter, "volume=-12.5dB") {
		t.Fatalf("expected attenuation in filter: %s", g.filter)
	}
}

func TestCommandArgsSelectsCodecByExtension(t *testing.T) {
	g := buildGraph([]Segment{Voice("/v/1.mp3")}, 44100)
	tests := []struct {
		output string
		codec  string
	}{
		{"/out/.full_audio.partial.mp3", "libmp3lame"},
		{"/out/full.wav", "pcm_s16le"},
		{"/out/full.m4a", "aac"},
		{"/out/full.flac", "flac"},
	}
	for _, tt := range tests {
		args := commandArgs(g, 44100, "192k", tt.output)
		joined := strings.Join(args, " ")
		if !strings.Contains(joined, "-c:a "+tt.codec) {
			t.Errorf("%s: expected codec %s in %q", tt.output, tt.codec, joined)
		}
		if args[len(args)-1] != tt.output {
			t.Errorf("%s: output must be last argument, got %q", tt.output, args[len(args)-1])
		}
		if !strings.Contains(joined, "-map [out] -ar 44100 -ac 2") {
			t.Errorf("%s: expected stereo output mapping in %q", tt.output, joined)
		}
	}
}

func TestInterleaveWithoutGap(t *testing.T) {
	segments := Interleave([]string{"a", "b"}, 0)
	if len(segments) != 2 || segments[0].Kind != KindVoice || segments[1].Kind != KindVoice {
		t.Fatalf("unexpected segments: %+v", segments)
	}
}

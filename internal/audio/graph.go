package audio

import (
	"fmt"
	"path/filepath"
	"strconv"
	"strings"
)

const (
	labelNarration  = "narration"
	labelBackground = "bg"
	labelOut        = "out"
)

// ChannelLayout is the layout of every composed track.
const ChannelLayout = "stereo"

// graph is the ffmpeg invocation for one composition.
type graph struct {
	// inputs are the ffmpeg input arguments in order, each starting with -i
	// or an input option.
	inputs []string
	filter string
}

// buildGraph turns validated segments into ffmpeg inputs and a filter graph.
// Voice clips and silence keep their order; the background, when present, is
// always the last input.
func buildGraph(segments []Segment, sampleRate int) graph {
	var (
		g          graph
		chains     []string
		seqLabels  []string
		inputIndex int
		background *Segment
	)
	mono := monoFormat(sampleRate)

	for i := range segments {
		seg := segments[i]
		label := "s" + strconv.Itoa(len(seqLabels))
		switch seg.Kind {
		case KindVoice:
			g.inputs = append(g.inputs, "-i", seg.Path)
			chains = append(chains, fmt.Sprintf("[%d:a]aresample=%d,%s[%s]", inputIndex, sampleRate, mono, label))
			inputIndex++
		case KindSilence:
			chains = append(chains, fmt.Sprintf("anullsrc=channel_layout=mono:sample_rate=%d,atrim=duration=%s,%s[%s]",
				sampleRate, formatSeconds(seg.Duration.Seconds()), mono, label))
		case KindBackground:
			background = &segments[i]
			continue
		}
		seqLabels = append(seqLabels, label)
	}

	bedLabel := labelOut
	if background != nil {
		bedLabel = "bed"
	}
	chains = append(chains,
		fmt.Sprintf("%sconcat=n=%d:v=0:a=1[%s]", bracketAll(seqLabels), len(seqLabels), labelNarration),
		fmt.Sprintf("[%s]pan=stereo|c0=c0|c1=c0[%s]", labelNarration, bedLabel),
	)

	if background != nil {
		if background.Loop {
			g.inputs = append(g.inputs, "-stream_loop", "-1")
		}
		g.inputs = append(g.inputs, "-i", background.Path)
		chains = append(chains,
			fmt.Sprintf("[%d:a]aresample=%d,aformat=sample_fmts=fltp:sample_rates=%d:channel_layouts=stereo,volume=%sdB[%s]",
				inputIndex, sampleRate, sampleRate, formatDecibels(background.VolumeDB), labelBackground),
			fmt.Sprintf("[%s][%s]amix=inputs=2:duration=first:dropout_transition=0:normalize=0[%s]", bedLabel, labelBackground, labelOut),
		)
	}

	g.filter = strings.Join(chains, ";")
	return g
}

// commandArgs assembles the full ffmpeg argument list writing to output.
func commandArgs(g graph, sampleRate int, bitrate, output string) []string {
	args := []string{"-hide_banner", "-nostdin", "-v", "error", "-y"}
	args = append(args, g.inputs...)
	args = append(args,
		"-filter_complex", g.filter,
		"-map", "["+labelOut+"]",
		"-ar", strconv.Itoa(sampleRate),
		"-ac", "2",
	)
	args = append(args, codecArgs(output, bitrate)...)
	return append(args, output)
}

// codecArgs picks the encoder and muxer from the output extension.
func codecArgs(output, bitrate string) []string {
	switch strings.ToLower(strings.TrimPrefix(filepath.Ext(output), ".")) {
	case "mp3":
		return []string{"-c:a", "libmp3lame", "-b:a", bitrate, "-f", "mp3"}
	case "wav":
		return []string{"-c:a", "pcm_s16le", "-f", "wav"}
	case "flac":
		return []string{"-c:a", "flac", "-f", "flac"}
	case "m4a", "aac":
		return []string{"-c:a", "aac", "-b:a", bitrate, "-f", "ipod"}
	case "ogg":
		return []string{"-c:a", "libvorbis", "-b:a", bitrate, "-f", "ogg"}
	default:
		return nil
	}
}

func monoFormat(sampleRate int) string {
	return fmt.Sprintf("aformat=sample_fmts=fltp:sample_rates=%d:channel_layouts=mono", sampleRate)
}

func bracketAll(labels []string) string {
	var b strings.Builder
	for _, label := range labels {
		b.WriteByte('[')
		b.WriteString(label)
		b.WriteByte(']')
	}
	return b.String()
}

func formatSeconds(seconds float64) string {
	return strconv.FormatFloat(seconds, 'f', 3, 64)
}

func formatDecibels(db float64) string {
	return strconv.FormatFloat(db, 'f', 1, 64)
}

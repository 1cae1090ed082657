// Package ffprobe wraps the ffprobe CLI and decodes its JSON output into
// Go structs.
//
// Use Inspect to gather container and stream metadata for narration clips,
// background tracks, and composed output. Helpers expose the primary audio
// stream, its sample rate, and the container duration.
package ffprobe

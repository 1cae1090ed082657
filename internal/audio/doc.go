// Package audio composes the full-length narration track for a lesson.
//
// A composition is an ordered list of segments: narration clips, generated
// silence, and at most one background bed. Composer validates the list,
// builds a single ffmpeg filter graph that normalizes every clip to one mono
// format before concatenation, upmixes the result to stereo, and mixes the
// attenuated background underneath with the narration deciding the output
// length. The track is written to a partial file, optionally verified against
// the expected duration, and only then renamed into place.
package audio

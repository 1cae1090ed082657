// Package generators adapts external asset producers.
//
// Narration clips come from a text-to-speech command described by an argv
// template. Covers come either from the built-in renderer, which draws the
// lesson title with gg, or from an external command. Every adapter writes to
// a partial file and renames it into place, so an interrupted run never
// leaves an output that looks fresh. Failures are reported as
// services.GenerationError.
package generators

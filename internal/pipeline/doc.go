// Package pipeline turns a lesson script into the media assets the renderer
// consumes.
//
// One Orchestrator run handles one lesson and moves through a fixed set of
// states: Loaded, ResourcesChecked, Generating, Assembled and Done. Narration
// clips, the cover and the composed track are only regenerated when the
// staleness package says so. Any generation failure aborts the run before a
// manifest is written, so the renderer never sees a half-built lesson.
//
// Lessons are independent. BuildAll fans out across lessons up to the
// configured concurrency, while every lesson's own steps run sequentially
// under an advisory file lock.
package pipeline

// Package script loads lesson scripts.
//
// A script is a JSON or YAML document with a lesson-level meta object and an
// ordered scenes array. Loading validates the whole document in one pass and
// reports every problem together, so an author can fix a script without
// re-running the loader once per mistake. The returned Lesson is immutable.
//
// Scene kinds are dispatched through an explicit Kinds table built by the
// caller. Scenes without a kind are narrated.
package script

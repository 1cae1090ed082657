// Package logging assembles structured slog loggers and formatting helpers used
// across lessonforge.
//
// It owns the console and JSON handlers, centralizes level and output
// plumbing, and exposes context-aware helpers so pipeline code automatically
// tags log lines with the lesson, stage, and run identifier. The console
// handler renders those as a "lesson · stage" prefix and only emits colour
// when writing to a terminal. A no-op logger is provided for tests and wiring
// code that cannot fail.
package logging

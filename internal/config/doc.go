// Package config loads, normalizes, and validates lessonforge configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours the environment-level force
// rebuild switches (LESSONFORGE_FORCE_COVER, LESSONFORGE_FORCE_NARRATION).
// The Config type centralizes every knob the pipeline and CLI need so a
// lesson run never consults shared mutable state.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical log formats, and clear validation errors.
package config

// Package services defines shared utilities consumed by the pipeline and the
// external generator adapters.
//
// Key responsibilities:
//   - Context helpers that stamp lesson names, stage names, and run
//     identifiers for logging.
//   - Error markers plus the typed ConfigurationError and GenerationError
//     values that let the orchestrator tell a bad input apart from a tool
//     failure without parsing messages.
//
// Use these helpers when wiring new stage logic so failure reporting stays
// uniform across the pipeline.
package services

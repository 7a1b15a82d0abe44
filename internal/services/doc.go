// Package services defines shared utilities consumed by the pipeline phases
// and external integrations.
//
// Key responsibilities:
//   - Context helpers that stamp run IDs, phase names, dataset names, and
//     correlation identifiers for logging and tracing.
//   - Structured error markers plus the Wrap helper that translate failures
//     into the failure kinds recorded on ledger runs.
//
// Use these helpers when wiring new pipeline logic so operational behaviour
// (error handling, observability) stays uniform across the build.
package services

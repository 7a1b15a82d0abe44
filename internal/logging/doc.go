// Package logging assembles structured slog loggers and formatting helpers
// used across parcel.
//
// It owns the pretty console handler and the JSON handler, centralizes level
// and output plumbing, and exposes context-aware helpers so pipeline code can
// automatically tag log lines with run IDs, dataset names, and phases. The
// package also provides a no-op logger for tests and wiring code that cannot
// fail.
//
// Prefer these constructors over hand-rolled slog setup so every component
// emits records with the same shape and routing.
package logging

package logging

import (
	"context"
	"log/slog"
	"strconv"

	"parcel/internal/services"
)

// Shared structured field names used across the pipeline.
const (
	FieldComponent       = "component"
	FieldRunID           = "run_id"
	FieldPhase           = "phase"
	FieldDataset         = "dataset"
	FieldSplit           = "split"
	FieldVersion         = "version"
	FieldSessionID       = "session_id"
	FieldEventType       = "event_type"
	FieldAlert           = "alert"
	FieldErrorKind       = "error_kind"
	FieldErrorHint       = "error_hint"
	FieldProgressStage   = "progress_stage"
	FieldProgressPercent = "progress_percent"
	FieldProgressMessage = "progress_message"
)

// ContextFields extracts structured attrs from pipeline context values.
func ContextFields(ctx context.Context) []Attr {
	if ctx == nil {
		return nil
	}
	attrs := make([]Attr, 0, 4)
	if runID, ok := services.RunIDFromContext(ctx); ok {
		attrs = append(attrs, String(FieldRunID, strconv.FormatInt(runID, 10)))
	}
	if dataset, ok := services.DatasetFromContext(ctx); ok {
		attrs = append(attrs, String(FieldDataset, dataset))
	}
	if phase, ok := services.PhaseFromContext(ctx); ok {
		attrs = append(attrs, String(FieldPhase, phase))
	}
	if session, ok := services.SessionIDFromContext(ctx); ok {
		attrs = append(attrs, String(FieldSessionID, session))
	}
	return attrs
}

// WithContext returns a logger pre-tagged with the context fields so
// subsequent records carry run, dataset, and phase automatically.
func WithContext(ctx context.Context, logger *slog.Logger) *slog.Logger {
	if logger == nil {
		return NewNop()
	}
	fields := ContextFields(ctx)
	if len(fields) == 0 {
		return logger
	}
	return logger.With(Args(fields...)...)
}

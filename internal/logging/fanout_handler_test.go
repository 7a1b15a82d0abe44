package logging

import (
	"context"
	"log/slog"
	"testing"
	"time"
)

type recordingHandler struct {
	min     slog.Level
	records []slog.Record
}

func (h *recordingHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.min
}

func (h *recordingHandler) Handle(_ context.Context, record slog.Record) error {
	h.records = append(h.records, record)
	return nil
}

func (h *recordingHandler) WithAttrs([]slog.Attr) slog.Handler { return h }

func (h *recordingHandler) WithGroup(string) slog.Handler { return h }

func TestFanoutDispatchesToAllHandlers(t *testing.T) {
	first := &recordingHandler{min: slog.LevelDebug}
	second := &recordingHandler{min: slog.LevelDebug}
	handler := newFanoutHandler(first, second)

	record := slog.NewRecord(time.Now(), slog.LevelInfo, "run created", 0)
	if err := handler.Handle(context.Background(), record); err != nil {
		t.Fatalf("Handle returned error: %v", err)
	}

	if len(first.records) != 1 || len(second.records) != 1 {
		t.Fatalf("expected both handlers to receive the record, got %d and %d", len(first.records), len(second.records))
	}
}

func TestFanoutSkipsDisabledHandlers(t *testing.T) {
	quiet := &recordingHandler{min: slog.LevelError}
	loud := &recordingHandler{min: slog.LevelDebug}
	handler := newFanoutHandler(quiet, loud)

	record := slog.NewRecord(time.Now(), slog.LevelInfo, "progress", 0)
	if err := handler.Handle(context.Background(), record); err != nil {
		t.Fatalf("Handle returned error: %v", err)
	}

	if len(quiet.records) != 0 {
		t.Fatalf("expected quiet handler to skip info records, got %d", len(quiet.records))
	}
	if len(loud.records) != 1 {
		t.Fatalf("expected loud handler to receive record, got %d", len(loud.records))
	}
}

func TestFanoutDropsNilHandlers(t *testing.T) {
	only := &recordingHandler{min: slog.LevelDebug}
	handler := newFanoutHandler(nil, only, nil)

	if !handler.Enabled(context.Background(), slog.LevelInfo) {
		t.Fatal("expected fanout to report enabled")
	}
	if handler != slog.Handler(only) {
		// A single surviving handler is returned directly.
		t.Fatalf("expected single handler passthrough, got %T", handler)
	}
}

func TestFanoutEmptyIsNoop(t *testing.T) {
	handler := newFanoutHandler()
	if _, ok := handler.(NoopHandler); !ok {
		t.Fatalf("expected NoopHandler, got %T", handler)
	}
}

package ledger

import (
	"testing"
	"time"
)

func TestParseStatus(t *testing.T) {
	cases := []struct {
		input string
		want  Status
		ok    bool
	}{
		{"pending", StatusPending, true},
		{" Completed ", StatusCompleted, true},
		{"GENERATING", StatusGenerating, true},
		{"ripped", "", false},
		{"", "", false},
	}
	for _, tc := range cases {
		got, ok := ParseStatus(tc.input)
		if ok != tc.ok || got != tc.want {
			t.Fatalf("ParseStatus(%q) = %q/%v, want %q/%v", tc.input, got, ok, tc.want, tc.ok)
		}
	}
}

func TestCanTransition(t *testing.T) {
	cases := []struct {
		from Status
		to   Status
		want bool
	}{
		{StatusPending, StatusFetching, true},
		{StatusFetching, StatusPlanning, true},
		{StatusPlanning, StatusGenerating, true},
		{StatusGenerating, StatusCompleted, true},
		{StatusPending, StatusGenerating, false},
		{StatusPending, StatusCompleted, false},
		{StatusFetching, StatusPending, false},
		{StatusPending, StatusFailed, true},
		{StatusGenerating, StatusFailed, true},
		{StatusCompleted, StatusFailed, false},
		{StatusFailed, StatusPending, false},
		{StatusCompleted, StatusFetching, false},
		{StatusPending, Status("ripped"), false},
	}
	for _, tc := range cases {
		if got := CanTransition(tc.from, tc.to); got != tc.want {
			t.Fatalf("CanTransition(%s, %s) = %v, want %v", tc.from, tc.to, got, tc.want)
		}
	}
}

func TestIsTerminalStatus(t *testing.T) {
	for _, status := range AllStatuses() {
		terminal := status == StatusCompleted || status == StatusFailed
		if IsTerminalStatus(status) != terminal {
			t.Fatalf("IsTerminalStatus(%s) = %v, want %v", status, !terminal, terminal)
		}
	}
}

func TestRunDuration(t *testing.T) {
	var zero Run
	if zero.Duration() != 0 {
		t.Fatalf("expected zero duration for unset run, got %v", zero.Duration())
	}

	created := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	completed := created.Add(90 * time.Second)
	run := Run{CreatedAt: created, CompletedAt: &completed}
	if run.Duration() != 90*time.Second {
		t.Fatalf("expected 90s, got %v", run.Duration())
	}

	backwards := created.Add(-time.Minute)
	run.CompletedAt = &backwards
	if run.Duration() != 0 {
		t.Fatalf("expected clamped duration, got %v", run.Duration())
	}

	open := Run{CreatedAt: time.Now().UTC().Add(-time.Second)}
	if open.Duration() <= 0 {
		t.Fatalf("expected positive duration for running run, got %v", open.Duration())
	}
}

package ledger

import (
	"strings"
	"time"
)

// Status represents the lifecycle of a build run.
type Status string

const (
	StatusPending    Status = "pending"
	StatusFetching   Status = "fetching"
	StatusPlanning   Status = "planning"
	StatusGenerating Status = "generating"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
)

var allStatuses = []Status{
	StatusPending,
	StatusFetching,
	StatusPlanning,
	StatusGenerating,
	StatusCompleted,
	StatusFailed,
}

var statusSet = func() map[Status]struct{} {
	set := make(map[Status]struct{}, len(allStatuses))
	for _, status := range allStatuses {
		set[status] = struct{}{}
	}
	return set
}()

// legalTransitions lists the forward edges of the run lifecycle. Every
// non-terminal status may additionally fail.
var legalTransitions = map[Status]Status{
	StatusPending:    StatusFetching,
	StatusFetching:   StatusPlanning,
	StatusPlanning:   StatusGenerating,
	StatusGenerating: StatusCompleted,
}

// AllStatuses returns the ordered list of known statuses.
func AllStatuses() []Status {
	cp := make([]Status, len(allStatuses))
	copy(cp, allStatuses)
	return cp
}

// ParseStatus converts a string into a known Status.
func ParseStatus(value string) (Status, bool) {
	normalized := Status(strings.ToLower(strings.TrimSpace(value)))
	if normalized == "" {
		return "", false
	}
	_, ok := statusSet[normalized]
	return normalized, ok
}

// IsTerminalStatus reports whether a status ends the run lifecycle.
func IsTerminalStatus(status Status) bool {
	return status == StatusCompleted || status == StatusFailed
}

// CanTransition reports whether a run may move from one status to another.
func CanTransition(from, to Status) bool {
	if _, known := statusSet[to]; !known {
		return false
	}
	if IsTerminalStatus(from) {
		return false
	}
	if to == StatusFailed {
		return true
	}
	return legalTransitions[from] == to
}

// Run represents one build run persisted in SQLite.
type Run struct {
	ID              int64
	Dataset         string
	Version         string
	Status          Status
	ArchiveURL      string
	SessionID       string
	RootPath        string
	ResultsJSON     string
	RecordCount     int64
	ErrorKind       string
	ErrorMessage    string
	ProgressStage   string
	ProgressPercent float64
	ProgressMessage string
	CreatedAt       time.Time
	UpdatedAt       time.Time
	CompletedAt     *time.Time
}

// IsTerminal reports whether the run has finished, successfully or not.
func (r Run) IsTerminal() bool {
	return IsTerminalStatus(r.Status)
}

// Duration returns the wall time from creation to completion, or to now for
// runs still in flight.
func (r Run) Duration() time.Duration {
	if r.CreatedAt.IsZero() {
		return 0
	}
	end := time.Now().UTC()
	if r.CompletedAt != nil {
		end = *r.CompletedAt
	}
	if end.Before(r.CreatedAt) {
		return 0
	}
	return end.Sub(r.CreatedAt)
}

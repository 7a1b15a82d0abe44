package main

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"parcel/internal/ledger"
)

func buildRunRows(runs []*ledger.Run) [][]string {
	sorted := make([]*ledger.Run, len(runs))
	copy(sorted, runs)

	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].CreatedAt.Equal(sorted[j].CreatedAt) {
			return sorted[i].ID > sorted[j].ID
		}
		return sorted[i].CreatedAt.After(sorted[j].CreatedAt)
	})

	rows := make([][]string, 0, len(sorted))
	for _, run := range sorted {
		rows = append(rows, []string{
			fmt.Sprintf("%d", run.ID),
			run.Dataset,
			run.Version,
			formatRunStatus(run),
			fmt.Sprintf("%d", run.RecordCount),
			formatDisplayTime(run.CreatedAt),
			formatDuration(run.Duration()),
		})
	}
	return rows
}

// formatRunStatus folds the failure kind into the status cell so a glance at
// the listing explains failed runs.
func formatRunStatus(run *ledger.Run) string {
	label := formatStatusLabel(string(run.Status))
	if run.Status == ledger.StatusFailed && run.ErrorKind != "" {
		return fmt.Sprintf("%s (%s)", label, run.ErrorKind)
	}
	return label
}

func formatStatusLabel(status string) string {
	status = strings.TrimSpace(status)
	if status == "" {
		return ""
	}
	parts := strings.Split(status, "_")
	for i, part := range parts {
		lower := strings.ToLower(part)
		if lower == "" {
			continue
		}
		parts[i] = strings.ToUpper(lower[:1]) + lower[1:]
	}
	return strings.Join(parts, " ")
}

func formatDisplayTime(value time.Time) string {
	if value.IsZero() {
		return ""
	}
	return value.UTC().Format("2006-01-02 15:04")
}

func formatDuration(value time.Duration) string {
	if value <= 0 {
		return "-"
	}
	return value.Round(time.Second).String()
}

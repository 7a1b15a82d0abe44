package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"parcel/internal/ledger"
)

func newRunsCommand(ctx *commandContext) *cobra.Command {
	runsCmd := &cobra.Command{
		Use:   "runs",
		Short: "Inspect and manage recorded builds",
		RunE: func(cmd *cobra.Command, args []string) error {
			return listRuns(cmd, ctx, nil)
		},
	}

	runsCmd.AddCommand(newRunsListCommand(ctx))
	runsCmd.AddCommand(newRunsClearCommand(ctx))

	return runsCmd
}

func newRunsListCommand(ctx *commandContext) *cobra.Command {
	var listStatuses []string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List recorded builds",
		RunE: func(cmd *cobra.Command, args []string) error {
			return listRuns(cmd, ctx, listStatuses)
		},
	}

	cmd.Flags().StringSliceVarP(&listStatuses, "status", "s", nil, "Filter by run status (repeatable)")
	return cmd
}

func listRuns(cmd *cobra.Command, ctx *commandContext, statusNames []string) error {
	statuses, err := parseStatuses(statusNames)
	if err != nil {
		return err
	}
	return ctx.withStore(func(store *ledger.Store) error {
		runs, err := store.ListRuns(cmd.Context(), statuses...)
		if err != nil {
			return err
		}
		if len(runs) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "No runs recorded")
			return nil
		}
		table := renderTable(
			[]string{"ID", "Dataset", "Version", "Status", "Records", "Created", "Duration"},
			buildRunRows(runs),
			[]columnAlignment{alignRight, alignLeft, alignLeft, alignLeft, alignRight, alignLeft, alignRight},
		)
		fmt.Fprintln(cmd.OutOrStdout(), table)
		return nil
	})
}

func parseStatuses(names []string) ([]ledger.Status, error) {
	statuses := make([]ledger.Status, 0, len(names))
	for _, name := range names {
		status, ok := ledger.ParseStatus(name)
		if !ok {
			return nil, fmt.Errorf("unknown run status %q (valid: %s)", name, statusList())
		}
		statuses = append(statuses, status)
	}
	return statuses, nil
}

func statusList() string {
	all := ledger.AllStatuses()
	names := make([]string, 0, len(all))
	for _, status := range all {
		names = append(names, string(status))
	}
	return strings.Join(names, ", ")
}

func newRunsClearCommand(ctx *commandContext) *cobra.Command {
	var clearCompleted bool
	var clearFailed bool

	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Remove finished runs",
		RunE: func(cmd *cobra.Command, args []string) error {
			if clearCompleted && clearFailed {
				return errors.New("specify only one of --completed or --failed")
			}
			var statuses []ledger.Status
			switch {
			case clearCompleted:
				statuses = []ledger.Status{ledger.StatusCompleted}
			case clearFailed:
				statuses = []ledger.Status{ledger.StatusFailed}
			}
			return ctx.withStore(func(store *ledger.Store) error {
				removed, err := store.Clear(cmd.Context(), statuses...)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Cleared %d runs\n", removed)
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&clearCompleted, "completed", false, "Remove only completed runs")
	cmd.Flags().BoolVar(&clearFailed, "failed", false, "Remove only failed runs")
	return cmd
}

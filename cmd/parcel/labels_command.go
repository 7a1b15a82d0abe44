package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"parcel/internal/ucmerced"
)

func newLabelsCommand() *cobra.Command {
	return &cobra.Command{
		Use:         "labels",
		Short:       "List the label catalog",
		Annotations: map[string]string{"skipConfigLoad": "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			def, err := ucmerced.New()
			if err != nil {
				return err
			}

			title := cases.Title(language.English)
			names := def.Catalog().Names()
			rows := make([][]string, 0, len(names))
			for i, name := range names {
				rows = append(rows, []string{fmt.Sprintf("%d", i), name, title.String(name)})
			}

			table := renderTable(
				[]string{"Index", "Label", "Display"},
				rows,
				[]columnAlignment{alignRight, alignLeft, alignLeft},
			)
			fmt.Fprintln(cmd.OutOrStdout(), table)
			return nil
		},
	}
}

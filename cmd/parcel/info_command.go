package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"parcel/internal/ucmerced"
)

func newInfoCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "info",
		Short: "Show dataset identity and metadata",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			def, err := ucmerced.New(ucmerced.WithVersion(cfg.Dataset.Version))
			if err != nil {
				return err
			}

			keying := "unkeyed"
			if def.Version().Keyed() {
				keying = "keyed"
			}
			supported := make([]string, 0, len(def.SupportedVersions()))
			for _, v := range def.SupportedVersions() {
				supported = append(supported, v.String())
			}
			info := def.Info()

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Dataset: %s\n", def.Name())
			fmt.Fprintf(out, "Version: %s (%s records)\n", def.Version(), keying)
			fmt.Fprintf(out, "Supported versions: %s\n", strings.Join(supported, ", "))
			fmt.Fprintf(out, "Archive: %s\n", def.ArchiveURL())
			fmt.Fprintf(out, "Image extension: %s\n", def.Extension())
			fmt.Fprintf(out, "Labels: %d\n", def.Catalog().Len())
			fmt.Fprintf(out, "Supervised keys: %s -> %s\n", info.SupervisedKeys[0], info.SupervisedKeys[1])
			fmt.Fprintf(out, "Homepage: %s\n", info.Homepage)
			fmt.Fprintf(out, "\n%s\n", info.Description)
			fmt.Fprintf(out, "\nCitation:\n%s\n", info.Citation)
			return nil
		},
	}
}

package main

import (
	"fmt"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"parcel/internal/config"
	"parcel/internal/export"
	"parcel/internal/fetch"
	"parcel/internal/ledger"
	"parcel/internal/logging"
	"parcel/internal/pipeline"
	"parcel/internal/ucmerced"
)

func newBuildCommand(ctx *commandContext) *cobra.Command {
	var versionFlag string
	var outputFlag string
	var overwriteFlag bool

	cmd := &cobra.Command{
		Use:   "build",
		Short: "Fetch the archive and build the dataset",
		RunE: func(cmd *cobra.Command, args []string) error {
			signalCtx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer cancel()

			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if v := strings.TrimSpace(versionFlag); v != "" {
				cfg.Dataset.Version = v
			}
			if dir := strings.TrimSpace(outputFlag); dir != "" {
				expanded, err := config.ExpandPath(dir)
				if err != nil {
					return fmt.Errorf("resolve output directory: %w", err)
				}
				cfg.Paths.OutputDir = expanded
			}
			if overwriteFlag {
				cfg.Export.OverwriteExisting = true
			}
			if err := cfg.EnsureDirectories(); err != nil {
				return err
			}

			logger, err := logging.NewFromConfig(cfg)
			if err != nil {
				return err
			}

			def, err := ucmerced.New(ucmerced.WithVersion(cfg.Dataset.Version))
			if err != nil {
				return err
			}

			store, err := ledger.Open(cfg)
			if err != nil {
				return err
			}
			defer store.Close()

			fetchOpts := []fetch.Option{fetch.WithLogger(logger)}
			if progress := newFetchProgress(cmd.ErrOrStderr()); progress != nil {
				defer progress.finish()
				fetchOpts = append(fetchOpts, fetch.WithProgress(progress.update))
			}
			fetcher, err := fetch.New(cfg, fetchOpts...)
			if err != nil {
				return err
			}

			writer, err := export.New(cfg, logger)
			if err != nil {
				return err
			}

			p, err := pipeline.New(cfg, def, fetcher, store, writer, logger)
			if err != nil {
				return err
			}

			run, err := p.Run(signalCtx)
			if err != nil {
				if run != nil {
					return fmt.Errorf("build run %d failed: %w", run.ID, err)
				}
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Build completed: %s %s\n", run.Dataset, run.Version)
			fmt.Fprintf(out, "Records: %d\n", run.RecordCount)
			fmt.Fprintf(out, "Output: %s\n", writer.VersionDir(run.Dataset, run.Version))
			return nil
		},
	}

	cmd.Flags().StringVar(&versionFlag, "version", "", "Dataset version to build (x.y.z)")
	cmd.Flags().StringVarP(&outputFlag, "output", "o", "", "Directory to write the dataset under")
	cmd.Flags().BoolVar(&overwriteFlag, "overwrite", false, "Replace an existing build of the same version")
	return cmd
}

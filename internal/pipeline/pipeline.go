package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"parcel/internal/config"
	"parcel/internal/dataset"
	"parcel/internal/decode"
	"parcel/internal/export"
	"parcel/internal/fetch"
	"parcel/internal/generate"
	"parcel/internal/ledger"
	"parcel/internal/logging"
	"parcel/internal/services"
)

// Phase names recorded as ledger progress stages and log fields.
const (
	PhaseFetch    = "fetch"
	PhasePlan     = "plan"
	PhaseGenerate = "generate"
)

// Pipeline wires the build collaborators for one dataset definition.
type Pipeline struct {
	cfg     *config.Config
	def     dataset.Definition
	fetcher fetch.Fetcher
	store   *ledger.Store
	writer  *export.Writer
	logger  *slog.Logger
}

// New validates and assembles a pipeline.
func New(cfg *config.Config, def dataset.Definition, fetcher fetch.Fetcher, store *ledger.Store, writer *export.Writer, logger *slog.Logger) (*Pipeline, error) {
	if cfg == nil {
		return nil, fmt.Errorf("%w: pipeline requires configuration", services.ErrConfiguration)
	}
	if def == nil {
		return nil, fmt.Errorf("%w: pipeline requires a dataset definition", services.ErrConfiguration)
	}
	if fetcher == nil {
		return nil, fmt.Errorf("%w: pipeline requires an archive fetcher", services.ErrConfiguration)
	}
	if store == nil {
		return nil, fmt.Errorf("%w: pipeline requires a run ledger", services.ErrConfiguration)
	}
	if writer == nil {
		return nil, fmt.Errorf("%w: pipeline requires a record sink", services.ErrConfiguration)
	}
	return &Pipeline{
		cfg:     cfg,
		def:     def,
		fetcher: fetcher,
		store:   store,
		writer:  writer,
		logger:  logging.NewComponentLogger(logger, "pipeline"),
	}, nil
}

// ArchiveURL returns the archive the pipeline will fetch: the configured
// override when present, the definition's published URL otherwise.
func (p *Pipeline) ArchiveURL() string {
	if p.cfg.Fetch.URL != "" {
		return p.cfg.Fetch.URL
	}
	return p.def.ArchiveURL()
}

// Run executes the build and returns the final ledger row. On failure the
// row reflects the recorded kind and message alongside the returned error.
func (p *Pipeline) Run(ctx context.Context) (*ledger.Run, error) {
	sessionID := uuid.NewString()
	version := p.def.Version().String()
	archiveURL := p.ArchiveURL()

	run, err := p.store.CreateRun(ctx, p.def.Name(), version, archiveURL, sessionID)
	if err != nil {
		return nil, services.Wrap(services.ErrInternal, "pipeline", "create run", "Could not record run", err)
	}

	ctx = services.WithRunID(ctx, run.ID)
	ctx = services.WithDataset(ctx, p.def.Name())
	ctx = services.WithSessionID(ctx, sessionID)
	logger := logging.WithContext(ctx, p.logger)

	logger.Info("build started",
		logging.String(logging.FieldVersion, version),
		logging.String("archive_url", archiveURL),
		logging.Bool("keyed", p.def.Version().Keyed()))

	if buildErr := p.build(ctx, run); buildErr != nil {
		// Failure bookkeeping must survive cancellation so interrupted
		// runs do not linger in a processing status.
		persistCtx := context.WithoutCancel(ctx)
		kind := services.Classify(buildErr)
		if err := p.store.MarkFailed(persistCtx, run.ID, kind, buildErr.Error()); err != nil {
			logger.Error("could not persist run failure", logging.Error(err))
		}
		logger.Error("build failed",
			logging.String(logging.FieldEventType, "build_failure"),
			logging.String(logging.FieldErrorKind, kind),
			logging.Error(buildErr))
		return p.refresh(persistCtx, run), buildErr
	}

	if err := p.store.MarkCompleted(ctx, run.ID); err != nil {
		return p.refresh(ctx, run), services.Wrap(services.ErrInternal, "pipeline", "complete run", "Could not persist run completion", err)
	}
	final := p.refresh(ctx, run)
	logger.Info("build completed",
		logging.String(logging.FieldEventType, "build_complete"),
		logging.String(logging.FieldVersion, version),
		logging.Int64("records", final.RecordCount),
		logging.Duration("elapsed", final.Duration()))
	return final, nil
}

// build runs the three phases in order, leaving failure handling to Run.
func (p *Pipeline) build(ctx context.Context, run *ledger.Run) error {
	root, err := p.fetchPhase(ctx, run)
	if err != nil {
		return err
	}

	splits, err := p.planPhase(ctx, run, root)
	if err != nil {
		return err
	}

	return p.generatePhase(ctx, run, splits)
}

func (p *Pipeline) fetchPhase(ctx context.Context, run *ledger.Run) (string, error) {
	ctx = services.WithPhase(ctx, PhaseFetch)
	logger := logging.WithContext(ctx, p.logger)

	if err := p.store.UpdateStatus(ctx, run.ID, ledger.StatusFetching); err != nil {
		return "", err
	}
	if err := p.store.UpdateProgress(ctx, run.ID, PhaseFetch, 0, "retrieving archive"); err != nil {
		return "", err
	}

	result, err := p.fetcher.Fetch(ctx, fetch.Request{
		URL:      run.ArchiveURL,
		Checksum: p.cfg.Fetch.ChecksumSHA256,
	})
	if err != nil {
		return "", err
	}
	if err := p.store.SetRootPath(ctx, run.ID, result.Root); err != nil {
		return "", services.Wrap(services.ErrInternal, "pipeline", "fetch", "Could not persist archive root", err)
	}

	logger.Info("archive ready",
		logging.String("root", result.Root),
		logging.Bool("cache_used", result.FromCache))
	return result.Root, nil
}

func (p *Pipeline) planPhase(ctx context.Context, run *ledger.Run, root string) ([]dataset.SplitSpec, error) {
	ctx = services.WithPhase(ctx, PhasePlan)
	logger := logging.WithContext(ctx, p.logger)

	if err := p.store.UpdateStatus(ctx, run.ID, ledger.StatusPlanning); err != nil {
		return nil, err
	}
	if err := p.store.UpdateProgress(ctx, run.ID, PhasePlan, 0, "planning splits"); err != nil {
		return nil, err
	}

	splits := p.def.Plan(root)
	if len(splits) == 0 {
		return nil, fmt.Errorf("%w: dataset %s planned no splits", services.ErrValidation, p.def.Name())
	}
	for _, split := range splits {
		if err := split.Validate(); err != nil {
			return nil, err
		}
	}

	outputDir, err := p.writer.PrepareVersionDir(p.def.Name(), run.Version)
	if err != nil {
		return nil, err
	}

	logger.Info("build planned",
		logging.Int("splits", len(splits)),
		logging.String("output_dir", outputDir))
	return splits, nil
}

func (p *Pipeline) generatePhase(ctx context.Context, run *ledger.Run, splits []dataset.SplitSpec) error {
	ctx = services.WithPhase(ctx, PhaseGenerate)
	logger := logging.WithContext(ctx, p.logger)

	if err := p.store.UpdateStatus(ctx, run.ID, ledger.StatusGenerating); err != nil {
		return err
	}

	gen := generate.New(p.def.Catalog(), decode.Std{},
		generate.WithExtension(p.extension()),
		generate.WithKeyed(p.def.Version().Keyed()))

	results := make(map[string]export.SplitResult, len(splits))
	var total int64
	for i, split := range splits {
		if err := p.store.UpdateProgress(ctx, run.ID, PhaseGenerate,
			float64(i)*100/float64(len(splits)),
			fmt.Sprintf("writing split %s", split.Name)); err != nil {
			return err
		}

		result, err := p.writer.WriteSplit(ctx, p.def.Name(), run.Version, split, gen.Records(split.Dir))
		if err != nil {
			return err
		}
		results[split.Name] = result
		total += result.Records

		logger.Info("split generated",
			logging.String(logging.FieldSplit, split.Name),
			logging.Int64("records", result.Records),
			logging.Int("shard_count", len(result.Shards)))
	}

	resultsJSON, err := json.Marshal(results)
	if err != nil {
		return services.Wrap(services.ErrInternal, "pipeline", "generate", "Could not encode split results", err)
	}
	if err := p.store.SetResults(ctx, run.ID, string(resultsJSON), total); err != nil {
		return services.Wrap(services.ErrInternal, "pipeline", "generate", "Could not persist split results", err)
	}
	return nil
}

// extension resolves the image extension: config override first, then the
// dataset's declared default.
func (p *Pipeline) extension() string {
	if ext := p.cfg.Dataset.ImageExtension; ext != "" {
		return ext
	}
	return p.def.Extension()
}

// refresh returns the latest persisted row, falling back to the stale copy
// when the read fails.
func (p *Pipeline) refresh(ctx context.Context, run *ledger.Run) *ledger.Run {
	latest, err := p.store.GetRun(ctx, run.ID)
	if err != nil {
		logging.WarnWithContext(ctx, p.logger, "could not refresh run row", logging.Error(err))
		return run
	}
	if latest == nil {
		return run
	}
	return latest
}

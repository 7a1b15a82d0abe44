package export

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/xitongsys/parquet-go-source/local"
	"github.com/xitongsys/parquet-go/parquet"
	"github.com/xitongsys/parquet-go/source"
	"github.com/xitongsys/parquet-go/writer"

	"parcel/internal/config"
	"parcel/internal/dataset"
	"parcel/internal/generate"
	"parcel/internal/logging"
	"parcel/internal/services"
)

// parquetConcurrency is the marshal parallelism handed to the parquet writer.
const parquetConcurrency = 4

// shardRow is the on-disk Parquet schema of one record. The label column
// carries the catalog index; pixels are the raw interleaved RGB bytes.
type shardRow struct {
	Key      string `parquet:"name=key, type=BYTE_ARRAY, convertedtype=UTF8"`
	Filename string `parquet:"name=filename, type=BYTE_ARRAY, convertedtype=UTF8"`
	Label    int32  `parquet:"name=label, type=INT32"`
	Height   int32  `parquet:"name=height, type=INT32"`
	Width    int32  `parquet:"name=width, type=INT32"`
	Channels int32  `parquet:"name=channels, type=INT32"`
	Pixels   string `parquet:"name=pixels, type=BYTE_ARRAY"`
}

// SplitResult summarizes one written split.
type SplitResult struct {
	Split        string   `json:"split"`
	Records      int64    `json:"records"`
	Shards       []string `json:"shards"`
	BytesWritten int64    `json:"bytes"`
}

// Writer turns record streams into Parquet shards under the output directory.
type Writer struct {
	outputDir string
	codec     parquet.CompressionCodec
	overwrite bool
	logger    *slog.Logger
}

// New constructs a Writer from the export configuration.
func New(cfg *config.Config, logger *slog.Logger) (*Writer, error) {
	if cfg == nil {
		return nil, fmt.Errorf("%w: export requires configuration", services.ErrConfiguration)
	}
	codec, err := parseCompression(cfg.Export.Compression)
	if err != nil {
		return nil, err
	}
	return &Writer{
		outputDir: cfg.Paths.OutputDir,
		codec:     codec,
		overwrite: cfg.Export.OverwriteExisting,
		logger:    logging.NewComponentLogger(logger, "export"),
	}, nil
}

func parseCompression(name string) (parquet.CompressionCodec, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "snappy":
		return parquet.CompressionCodec_SNAPPY, nil
	case "none":
		return parquet.CompressionCodec_UNCOMPRESSED, nil
	default:
		return parquet.CompressionCodec_UNCOMPRESSED, fmt.Errorf("%w: unsupported parquet compression %q", services.ErrConfiguration, name)
	}
}

// VersionDir returns the directory a dataset version's shards land in.
func (w *Writer) VersionDir(datasetName, version string) string {
	return filepath.Join(w.outputDir, datasetName, version)
}

// PrepareVersionDir creates the version output directory. An existing
// non-empty directory fails unless overwrite is enabled, in which case the
// previous build is replaced.
func (w *Writer) PrepareVersionDir(datasetName, version string) (string, error) {
	dir := w.VersionDir(datasetName, version)
	entries, err := os.ReadDir(dir)
	switch {
	case errors.Is(err, fs.ErrNotExist):
	case err != nil:
		return "", services.Wrap(services.ErrInternal, "export", "prepare", "Could not inspect output directory", err)
	case len(entries) > 0 && !w.overwrite:
		return "", fmt.Errorf("%w: output directory %s is not empty (enable overwrite_existing or pass --overwrite)", services.ErrValidation, dir)
	case len(entries) > 0:
		if err := os.RemoveAll(dir); err != nil {
			return "", services.Wrap(services.ErrInternal, "export", "prepare", "Could not clear output directory", err)
		}
		w.logger.Info("replacing existing build",
			logging.String("dir", dir),
			logging.Int("entries", len(entries)))
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", services.Wrap(services.ErrInternal, "export", "prepare", "Could not create output directory", err)
	}
	return dir, nil
}

// WriteSplit drains one record stream into the split's shard files. Keys must
// be unique within the split when present.
func (w *Writer) WriteSplit(ctx context.Context, datasetName, version string, spec dataset.SplitSpec, stream *generate.Stream) (SplitResult, error) {
	if err := spec.Validate(); err != nil {
		return SplitResult{}, err
	}
	if stream == nil {
		return SplitResult{}, fmt.Errorf("%w: split %q has no record stream", services.ErrValidation, spec.Name)
	}

	dir := w.VersionDir(datasetName, version)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return SplitResult{}, services.Wrap(services.ErrInternal, "export", "write split", "Could not create output directory", err)
	}
	staging, err := os.MkdirTemp(dir, "."+spec.Name+"-*")
	if err != nil {
		return SplitResult{}, services.Wrap(services.ErrInternal, "export", "write split", "Could not create staging directory", err)
	}

	names := make([]string, spec.ShardCount)
	for i := range names {
		names[i] = shardName(datasetName, spec.Name, i, spec.ShardCount)
	}

	result, err := w.writeShards(ctx, staging, names, spec, stream)
	if err != nil {
		os.RemoveAll(staging)
		return SplitResult{}, err
	}

	// Promote the finished shards together; a failed build leaves nothing.
	for i, name := range names {
		if err := os.Rename(filepath.Join(staging, name), filepath.Join(dir, name)); err != nil {
			for _, promoted := range names[:i] {
				os.Remove(filepath.Join(dir, promoted))
			}
			os.RemoveAll(staging)
			return SplitResult{}, services.Wrap(services.ErrInternal, "export", "write split", "Could not promote shard", err)
		}
	}
	os.RemoveAll(staging)

	w.logger.Info("split written",
		logging.String(logging.FieldDataset, datasetName),
		logging.String(logging.FieldVersion, version),
		logging.String(logging.FieldSplit, spec.Name),
		logging.Int64("records", result.Records),
		logging.Int("shard_count", len(result.Shards)),
		logging.Int64("shard_bytes", result.BytesWritten))
	return result, nil
}

func (w *Writer) writeShards(ctx context.Context, staging string, names []string, spec dataset.SplitSpec, stream *generate.Stream) (SplitResult, error) {
	files := make([]source.ParquetFile, len(names))
	writers := make([]*writer.ParquetWriter, len(names))
	closeAll := func() {
		for i, file := range files {
			if file != nil {
				file.Close()
				files[i] = nil
			}
		}
	}

	for i, name := range names {
		fw, err := local.NewLocalFileWriter(filepath.Join(staging, name))
		if err != nil {
			closeAll()
			return SplitResult{}, services.Wrap(services.ErrInternal, "export", "write split", "Could not create shard file", err)
		}
		files[i] = fw
		pw, err := writer.NewParquetWriter(fw, new(shardRow), parquetConcurrency)
		if err != nil {
			closeAll()
			return SplitResult{}, services.Wrap(services.ErrInternal, "export", "write split", "Could not start parquet writer", err)
		}
		pw.CompressionType = w.codec
		writers[i] = pw
	}

	var total int64
	var seen map[string]struct{}
	for {
		if err := ctx.Err(); err != nil {
			closeAll()
			return SplitResult{}, services.Wrap(services.ErrInternal, "export", "write split", "Split write canceled", err)
		}
		emission, err := stream.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			closeAll()
			return SplitResult{}, err
		}
		if emission.Key != "" {
			if seen == nil {
				seen = make(map[string]struct{})
			}
			if _, dup := seen[emission.Key]; dup {
				closeAll()
				return SplitResult{}, fmt.Errorf("%w: duplicate record key %q in split %q", services.ErrValidation, emission.Key, spec.Name)
			}
			seen[emission.Key] = struct{}{}
		}

		record := emission.Record
		row := shardRow{
			Key:      emission.Key,
			Filename: record.Filename,
			Label:    int32(record.LabelIndex),
			Height:   int32(record.Image.Height),
			Width:    int32(record.Image.Width),
			Channels: int32(record.Image.Channels),
			Pixels:   string(record.Image.Pix),
		}
		if err := writers[int(total)%len(writers)].Write(row); err != nil {
			closeAll()
			return SplitResult{}, services.Wrap(services.ErrInternal, "export", "write split", fmt.Sprintf("Could not write record %s", record.Filename), err)
		}
		total++
	}

	var size int64
	for i, pw := range writers {
		if err := pw.WriteStop(); err != nil {
			closeAll()
			return SplitResult{}, services.Wrap(services.ErrInternal, "export", "write split", "Could not finalize shard", err)
		}
		if err := files[i].Close(); err != nil {
			files[i] = nil
			closeAll()
			return SplitResult{}, services.Wrap(services.ErrInternal, "export", "write split", "Could not close shard", err)
		}
		files[i] = nil
		info, err := os.Stat(filepath.Join(staging, names[i]))
		if err != nil {
			return SplitResult{}, services.Wrap(services.ErrInternal, "export", "write split", "Could not stat shard", err)
		}
		size += info.Size()
	}

	return SplitResult{
		Split:        spec.Name,
		Records:      total,
		Shards:       names,
		BytesWritten: size,
	}, nil
}

func shardName(datasetName, split string, index, count int) string {
	return fmt.Sprintf("%s-%s-%05d-of-%05d.parquet", datasetName, split, index, count)
}

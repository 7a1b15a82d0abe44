package testsupport

import (
	"path/filepath"
	"testing"

	"parcel/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*config.Config)

// NewConfig produces a config seeded with unique temp directories per test.
// It defaults common fields and applies any provided options.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfg := config.Default()
	cfg.Paths.CacheDir = filepath.Join(base, "cache")
	cfg.Paths.OutputDir = filepath.Join(base, "datasets")
	cfg.Paths.LogDir = filepath.Join(base, "logs")
	cfg.Fetch.TimeoutSeconds = 30

	for _, opt := range opts {
		opt(&cfg)
	}

	return &cfg
}

// WithVersion selects the dataset version under test.
func WithVersion(version string) ConfigOption {
	return func(cfg *config.Config) {
		cfg.Dataset.Version = version
	}
}

// WithArchiveURL points the fetch stage at an alternate archive.
func WithArchiveURL(url string) ConfigOption {
	return func(cfg *config.Config) {
		cfg.Fetch.URL = url
	}
}

// WithChecksum pins the archive digest on the test config.
func WithChecksum(sum string) ConfigOption {
	return func(cfg *config.Config) {
		cfg.Fetch.ChecksumSHA256 = sum
	}
}

// WithCompression overrides the Parquet compression codec.
func WithCompression(codec string) ConfigOption {
	return func(cfg *config.Config) {
		cfg.Export.Compression = codec
	}
}

// WithOverwrite lets a build replace an existing version directory.
func WithOverwrite() ConfigOption {
	return func(cfg *config.Config) {
		cfg.Export.OverwriteExisting = true
	}
}

package config

const (
	defaultOutputDir         = "~/.local/share/parcel/datasets"
	defaultLogDir            = "~/.local/share/parcel/logs"
	defaultDatasetVersion    = "2.0.0"
	defaultImageExtension    = ".tif"
	defaultFetchTimeout      = 600
	defaultS3Region          = "us-east-1"
	defaultExportCompression = "snappy"
	defaultLogFormat         = "console"
	defaultLogLevel          = "info"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			CacheDir:  defaultCacheDir(),
			OutputDir: defaultOutputDir,
			LogDir:    defaultLogDir,
		},
		Dataset: Dataset{
			Version:        defaultDatasetVersion,
			ImageExtension: defaultImageExtension,
		},
		Fetch: Fetch{
			TimeoutSeconds: defaultFetchTimeout,
		},
		S3: S3{
			Region: defaultS3Region,
			UseSSL: true,
		},
		Export: Export{
			Compression: defaultExportCompression,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}

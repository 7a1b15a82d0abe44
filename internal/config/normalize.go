package config

import (
	"fmt"
	"os"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeDataset()
	c.normalizeFetch()
	c.normalizeS3()
	c.normalizeExport()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.CacheDir) == "" {
		c.Paths.CacheDir = defaultCacheDir()
	}
	if c.Paths.CacheDir, err = expandPath(c.Paths.CacheDir); err != nil {
		return fmt.Errorf("paths.cache_dir: %w", err)
	}
	if c.Paths.OutputDir, err = expandPath(c.Paths.OutputDir); err != nil {
		return fmt.Errorf("paths.output_dir: %w", err)
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeDataset() {
	c.Dataset.Version = strings.TrimSpace(c.Dataset.Version)
	if c.Dataset.Version == "" {
		c.Dataset.Version = defaultDatasetVersion
	}
	ext := strings.ToLower(strings.TrimSpace(c.Dataset.ImageExtension))
	if ext == "" {
		ext = defaultImageExtension
	}
	if !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	c.Dataset.ImageExtension = ext
}

func (c *Config) normalizeFetch() {
	c.Fetch.URL = strings.TrimSpace(c.Fetch.URL)
	c.Fetch.ChecksumSHA256 = strings.ToLower(strings.TrimSpace(c.Fetch.ChecksumSHA256))
	if c.Fetch.TimeoutSeconds <= 0 {
		c.Fetch.TimeoutSeconds = defaultFetchTimeout
	}
}

func (c *Config) normalizeS3() {
	c.S3.Endpoint = strings.TrimSpace(c.S3.Endpoint)
	c.S3.AccessKeyID = strings.TrimSpace(c.S3.AccessKeyID)
	c.S3.SecretAccessKey = strings.TrimSpace(c.S3.SecretAccessKey)
	if value, ok := os.LookupEnv("PARCEL_S3_ACCESS_KEY"); ok && strings.TrimSpace(value) != "" {
		c.S3.AccessKeyID = strings.TrimSpace(value)
	}
	if value, ok := os.LookupEnv("PARCEL_S3_SECRET_KEY"); ok && strings.TrimSpace(value) != "" {
		c.S3.SecretAccessKey = strings.TrimSpace(value)
	}
	c.S3.Region = strings.TrimSpace(c.S3.Region)
	if c.S3.Region == "" {
		c.S3.Region = defaultS3Region
	}
}

func (c *Config) normalizeExport() {
	c.Export.Compression = strings.ToLower(strings.TrimSpace(c.Export.Compression))
	if c.Export.Compression == "" {
		c.Export.Compression = defaultExportCompression
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}

package config

import (
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validatePaths(); err != nil {
		return err
	}
	if err := c.validateDataset(); err != nil {
		return err
	}
	if err := c.validateFetch(); err != nil {
		return err
	}
	if err := c.validateS3(); err != nil {
		return err
	}
	if err := c.validateExport(); err != nil {
		return err
	}
	return c.validateLogging()
}

func (c *Config) validatePaths() error {
	if strings.TrimSpace(c.Paths.CacheDir) == "" {
		return errors.New("paths.cache_dir must be set")
	}
	if strings.TrimSpace(c.Paths.OutputDir) == "" {
		return errors.New("paths.output_dir must be set")
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		return errors.New("paths.log_dir must be set")
	}
	return nil
}

func (c *Config) validateDataset() error {
	parts := strings.Split(c.Dataset.Version, ".")
	if len(parts) != 3 {
		return fmt.Errorf("dataset.version must be a major.minor.patch triple, got %q", c.Dataset.Version)
	}
	for _, part := range parts {
		if value, err := strconv.Atoi(part); err != nil || value < 0 {
			return fmt.Errorf("dataset.version must be a major.minor.patch triple, got %q", c.Dataset.Version)
		}
	}
	if len(c.Dataset.ImageExtension) < 2 || !strings.HasPrefix(c.Dataset.ImageExtension, ".") {
		return fmt.Errorf("dataset.image_extension must name a file extension, got %q", c.Dataset.ImageExtension)
	}
	return nil
}

func (c *Config) validateFetch() error {
	if err := ensurePositiveMap(map[string]int{
		"fetch.timeout_seconds": c.Fetch.TimeoutSeconds,
	}); err != nil {
		return err
	}
	if c.Fetch.ChecksumSHA256 != "" {
		raw, err := hex.DecodeString(c.Fetch.ChecksumSHA256)
		if err != nil || len(raw) != 32 {
			return errors.New("fetch.checksum_sha256 must be a 64 character hex digest")
		}
	}
	return nil
}

func (c *Config) validateS3() error {
	if strings.Contains(c.S3.Endpoint, "://") {
		return errors.New("s3.endpoint must be host[:port] without a scheme")
	}
	return nil
}

func (c *Config) validateExport() error {
	switch c.Export.Compression {
	case "snappy", "none":
		return nil
	default:
		return fmt.Errorf("export.compression must be one of snappy, none; got %q", c.Export.Compression)
	}
}

func (c *Config) validateLogging() error {
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level must be one of debug, info, warn, error; got %q", c.Logging.Level)
	}
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format must be console or json, got %q", c.Logging.Format)
	}
	return nil
}

func ensurePositiveMap(values map[string]int) error {
	for key, value := range values {
		if value <= 0 {
			return fmt.Errorf("%s must be positive", key)
		}
	}
	return nil
}

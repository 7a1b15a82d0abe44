package config_test

import (
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/pelletier/go-toml/v2"

	"parcel/internal/config"
)

func TestLoadDefaultConfigExpandsPaths(t *testing.T) {
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)
	t.Setenv("XDG_CACHE_HOME", "")

	cfg, resolved, exists, err := config.Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if resolved == "" {
		t.Fatal("expected resolved path")
	}
	if exists {
		t.Fatal("expected config file to be absent in temp HOME")
	}

	wantCache := filepath.Join(tempHome, ".cache", "parcel")
	if cfg.Paths.CacheDir != wantCache {
		t.Fatalf("unexpected cache dir: got %q want %q", cfg.Paths.CacheDir, wantCache)
	}
	wantOutput := filepath.Join(tempHome, ".local", "share", "parcel", "datasets")
	if cfg.Paths.OutputDir != wantOutput {
		t.Fatalf("unexpected output dir: got %q want %q", cfg.Paths.OutputDir, wantOutput)
	}
	if cfg.Dataset.Version != "2.0.0" {
		t.Fatalf("unexpected default version: %q", cfg.Dataset.Version)
	}
	if cfg.Dataset.ImageExtension != ".tif" {
		t.Fatalf("unexpected default extension: %q", cfg.Dataset.ImageExtension)
	}
	if cfg.Fetch.TimeoutSeconds != 600 {
		t.Fatalf("unexpected fetch timeout: %d", cfg.Fetch.TimeoutSeconds)
	}
	if cfg.Export.Compression != "snappy" {
		t.Fatalf("unexpected compression: %q", cfg.Export.Compression)
	}
	if cfg.Export.OverwriteExisting {
		t.Fatal("expected overwrite disabled by default")
	}
	if !cfg.S3.UseSSL {
		t.Fatal("expected s3 ssl enabled by default")
	}
	if cfg.Logging.Format != "console" || cfg.Logging.Level != "info" {
		t.Fatalf("unexpected logging defaults: %q %q", cfg.Logging.Format, cfg.Logging.Level)
	}

	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories failed: %v", err)
	}
	for _, dir := range []string{cfg.Paths.CacheDir, cfg.Paths.OutputDir, cfg.Paths.LogDir} {
		info, err := os.Stat(dir)
		if err != nil {
			t.Fatalf("expected directory %q to exist: %v", dir, err)
		}
		if !info.IsDir() {
			t.Fatalf("expected %q to be directory", dir)
		}
	}
}

func TestLoadCustomPath(t *testing.T) {
	tempDir := t.TempDir()
	configPath := filepath.Join(tempDir, "parcel.toml")

	type payload struct {
		Dataset struct {
			Version        string `toml:"version"`
			ImageExtension string `toml:"image_extension"`
		} `toml:"dataset"`
		Fetch struct {
			URL            string `toml:"url"`
			TimeoutSeconds int    `toml:"timeout_seconds"`
		} `toml:"fetch"`
		Export struct {
			Compression string `toml:"compression"`
		} `toml:"export"`
	}
	custom := payload{}
	custom.Dataset.Version = "0.0.1"
	custom.Dataset.ImageExtension = "TIF"
	custom.Fetch.URL = "https://example.com/archive.zip"
	custom.Fetch.TimeoutSeconds = 120
	custom.Export.Compression = "NONE"
	data, err := toml.Marshal(custom)
	if err != nil {
		t.Fatalf("marshal custom config: %v", err)
	}
	if err := os.WriteFile(configPath, data, 0o644); err != nil {
		t.Fatalf("write custom config: %v", err)
	}

	cfg, resolved, exists, err := config.Load(configPath)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if !exists {
		t.Fatal("expected exists to be true")
	}
	if resolved != configPath {
		t.Fatalf("unexpected resolved path: got %q want %q", resolved, configPath)
	}
	if cfg.Dataset.Version != "0.0.1" {
		t.Fatalf("expected version from file, got %q", cfg.Dataset.Version)
	}
	if cfg.Dataset.ImageExtension != ".tif" {
		t.Fatalf("expected normalized extension, got %q", cfg.Dataset.ImageExtension)
	}
	if cfg.Fetch.URL != "https://example.com/archive.zip" {
		t.Fatalf("expected fetch url override, got %q", cfg.Fetch.URL)
	}
	if cfg.Fetch.TimeoutSeconds != 120 {
		t.Fatalf("expected timeout 120, got %d", cfg.Fetch.TimeoutSeconds)
	}
	if cfg.Export.Compression != "none" {
		t.Fatalf("expected normalized compression, got %q", cfg.Export.Compression)
	}
}

func TestEnvOverridesS3Credentials(t *testing.T) {
	tempDir := t.TempDir()
	configPath := filepath.Join(tempDir, "parcel.toml")

	type payload struct {
		S3 struct {
			AccessKeyID     string `toml:"access_key_id"`
			SecretAccessKey string `toml:"secret_access_key"`
		} `toml:"s3"`
	}
	custom := payload{}
	custom.S3.AccessKeyID = "file-access"
	custom.S3.SecretAccessKey = "file-secret"
	data, err := toml.Marshal(custom)
	if err != nil {
		t.Fatalf("marshal custom config: %v", err)
	}
	if err := os.WriteFile(configPath, data, 0o644); err != nil {
		t.Fatalf("write custom config: %v", err)
	}

	t.Setenv("PARCEL_S3_ACCESS_KEY", "env-access")
	t.Setenv("PARCEL_S3_SECRET_KEY", "env-secret")

	cfg, _, _, err := config.Load(configPath)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.S3.AccessKeyID != "env-access" {
		t.Errorf("expected access key from env, got %q", cfg.S3.AccessKeyID)
	}
	if cfg.S3.SecretAccessKey != "env-secret" {
		t.Errorf("expected secret key from env, got %q", cfg.S3.SecretAccessKey)
	}
}

func TestCreateSample(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sample.toml")
	if err := config.CreateSample(path); err != nil {
		t.Fatalf("CreateSample failed: %v", err)
	}

	contents, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read sample: %v", err)
	}
	if !strings.Contains(string(contents), "your_access_key_here") {
		t.Fatalf("sample config missing placeholder access key: %s", contents)
	}

	var cfg config.Config
	if err := toml.Unmarshal(contents, &cfg); err != nil {
		t.Fatalf("unmarshal sample: %v", err)
	}

	if runtime.GOOS != "windows" {
		if !strings.Contains(cfg.Paths.OutputDir, "parcel") {
			t.Fatalf("expected output dir to contain parcel, got %q", cfg.Paths.OutputDir)
		}
	}
}

func TestValidateDetectsInvalidValues(t *testing.T) {
	cfg := config.Default()
	cfg.Dataset.Version = "2.0"
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for two-part version")
	}

	cfg = config.Default()
	cfg.Dataset.ImageExtension = "tif"
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for extension without dot")
	}

	cfg = config.Default()
	cfg.Fetch.TimeoutSeconds = 0
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for non-positive timeout")
	}

	cfg = config.Default()
	cfg.Fetch.ChecksumSHA256 = "abc123"
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for short checksum")
	}

	cfg = config.Default()
	cfg.S3.Endpoint = "https://minio.example.com"
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for endpoint with scheme")
	}

	cfg = config.Default()
	cfg.Export.Compression = "zstd"
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for unsupported compression")
	}

	cfg = config.Default()
	cfg.Logging.Level = "trace"
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for unsupported log level")
	}

	cfg = config.Default()
	cfg.Logging.Format = "jsn"
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for unsupported log format")
	}
}

package fetch

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"parcel/internal/config"
	"parcel/internal/logging"
	"parcel/internal/services"
)

// S3 fetches archives from s3:// URLs through any S3-compatible endpoint.
type S3 struct {
	cache    *cache
	client   *minio.Client
	logger   *slog.Logger
	progress ProgressFunc
}

var _ Fetcher = (*S3)(nil)

// NewS3 creates an S3 fetcher caching under cacheDir. The endpoint may be
// given with or without a scheme; an https scheme forces TLS regardless of
// the use_ssl setting.
func NewS3(cacheDir string, cfg config.S3, opts ...Option) (*S3, error) {
	endpoint := strings.TrimSpace(cfg.Endpoint)
	if endpoint == "" {
		return nil, fmt.Errorf("%w: s3 endpoint is required for s3:// archive urls", services.ErrConfiguration)
	}
	if cfg.AccessKeyID == "" || cfg.SecretAccessKey == "" {
		return nil, fmt.Errorf("%w: s3 credentials are required for s3:// archive urls", services.ErrConfiguration)
	}

	secure := cfg.UseSSL
	if parsed, err := url.Parse(endpoint); err == nil && parsed.Host != "" {
		if parsed.Scheme == "https" {
			secure = true
		}
		endpoint = parsed.Host
	}

	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		Secure: secure,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, services.Wrap(services.ErrConfiguration, "fetch", "s3 client", "Could not build the S3 client", err)
	}

	s := newSettings(opts...)
	logger := logging.NewComponentLogger(s.logger, "fetch")
	progress := s.progress
	if progress == nil {
		progress = sampledProgressLog(logger)
	}
	return &S3{
		cache:    newCache(cacheDir, logger, progress),
		client:   client,
		logger:   logger,
		progress: progress,
	}, nil
}

// Fetch downloads an s3://bucket/key archive through the cache.
func (f *S3) Fetch(ctx context.Context, req Request) (Result, error) {
	bucket, key, err := splitObjectURL(req.URL)
	if err != nil {
		return Result{}, err
	}
	return f.cache.ensure(ctx, req, f.transfer(bucket, key))
}

// transfer streams the object body into dst.
func (f *S3) transfer(bucket, key string) transferFunc {
	return func(ctx context.Context, dst io.Writer) error {
		object, err := f.client.GetObject(ctx, bucket, key, minio.GetObjectOptions{})
		if err != nil {
			return services.Wrap(services.ErrFetch, "fetch", "s3 get", "Could not open the archive object", err)
		}
		defer object.Close()

		stat, err := object.Stat()
		if err != nil {
			return services.Wrap(services.ErrFetch, "fetch", "s3 stat", fmt.Sprintf("Could not read s3://%s/%s", bucket, key), err)
		}

		f.logger.Info("downloading archive",
			logging.String("url", "s3://"+bucket+"/"+key),
			logging.Int64("archive_bytes", stat.Size),
		)
		body := newProgressReader(object, stat.Size, StageDownloading, f.progress)
		if _, err := io.Copy(dst, body); err != nil {
			return services.Wrap(services.ErrFetch, "fetch", "download", "Archive download interrupted", err)
		}
		return nil
	}
}

// splitObjectURL splits s3://bucket/key into its parts.
func splitObjectURL(raw string) (string, string, error) {
	parsed, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return "", "", services.Wrap(services.ErrFetch, "fetch", "parse url", "Archive URL is not valid", err)
	}
	if !strings.EqualFold(parsed.Scheme, "s3") {
		return "", "", fmt.Errorf("%w: s3 fetcher cannot serve scheme %q", services.ErrFetch, parsed.Scheme)
	}
	bucket := parsed.Host
	key := strings.TrimPrefix(parsed.Path, "/")
	if bucket == "" || key == "" {
		return "", "", fmt.Errorf("%w: s3 url %q must name a bucket and object key", services.ErrFetch, raw)
	}
	return bucket, key, nil
}

package fetch

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"parcel/internal/logging"
	"parcel/internal/services"
)

// defaultFetchTimeout bounds a full archive download when no timeout is
// configured.
const defaultFetchTimeout = 30 * time.Minute

// HTTP fetches archives over http and https into the local cache.
type HTTP struct {
	cache    *cache
	client   *http.Client
	logger   *slog.Logger
	progress ProgressFunc
}

var _ Fetcher = (*HTTP)(nil)

// NewHTTP creates an HTTP fetcher caching under cacheDir. A non-positive
// timeout falls back to a default sized for full-archive downloads.
func NewHTTP(cacheDir string, timeout time.Duration, opts ...Option) *HTTP {
	s := newSettings(opts...)
	if timeout <= 0 {
		timeout = defaultFetchTimeout
	}
	client := s.client
	if client == nil {
		client = &http.Client{Timeout: timeout}
	}
	logger := logging.NewComponentLogger(s.logger, "fetch")
	progress := s.progress
	if progress == nil {
		progress = sampledProgressLog(logger)
	}
	return &HTTP{
		cache:    newCache(cacheDir, logger, progress),
		client:   client,
		logger:   logger,
		progress: progress,
	}
}

// Fetch downloads, verifies, and extracts the archive unless a cached
// extraction already satisfies the request.
func (f *HTTP) Fetch(ctx context.Context, req Request) (Result, error) {
	parsed, err := url.Parse(strings.TrimSpace(req.URL))
	if err != nil {
		return Result{}, services.Wrap(services.ErrFetch, "fetch", "parse url", "Archive URL is not valid", err)
	}
	switch strings.ToLower(parsed.Scheme) {
	case "http", "https":
	default:
		return Result{}, fmt.Errorf("%w: http fetcher cannot serve scheme %q", services.ErrFetch, parsed.Scheme)
	}
	return f.cache.ensure(ctx, req, f.transfer(req.URL))
}

// transfer streams the response body for rawURL into dst.
func (f *HTTP) transfer(rawURL string) transferFunc {
	return func(ctx context.Context, dst io.Writer) error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
		if err != nil {
			return services.Wrap(services.ErrFetch, "fetch", "build request", "Could not build the archive request", err)
		}
		resp, err := f.client.Do(req)
		if err != nil {
			return services.Wrap(services.ErrFetch, "fetch", "download", "Archive download failed", err)
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			return fmt.Errorf("%w: archive download returned status %d for %s", services.ErrFetch, resp.StatusCode, rawURL)
		}

		f.logger.Info("downloading archive",
			logging.String("url", rawURL),
			logging.Int64("archive_bytes", max(resp.ContentLength, 0)),
		)
		body := newProgressReader(resp.Body, resp.ContentLength, StageDownloading, f.progress)
		if _, err := io.Copy(dst, body); err != nil {
			return services.Wrap(services.ErrFetch, "fetch", "download", "Archive download interrupted", err)
		}
		return nil
	}
}

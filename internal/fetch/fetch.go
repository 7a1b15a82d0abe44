package fetch

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync"

	"parcel/internal/config"
	"parcel/internal/logging"
	"parcel/internal/services"
)

// Stage names reported through ProgressFunc.
const (
	StageDownloading = "downloading"
	StageExtracting  = "extracting"
)

// Request identifies one archive to retrieve.
type Request struct {
	// URL locates the archive. http, https, and s3 schemes are supported.
	URL string
	// Checksum is the expected SHA-256 hex digest of the archive. Empty
	// skips verification.
	Checksum string
}

// Result describes a materialized archive.
type Result struct {
	// Root is the directory holding the extracted archive contents.
	Root string
	// Archive is the cached archive file.
	Archive string
	// FromCache reports whether an earlier extraction was reused without
	// downloading.
	FromCache bool
}

// ProgressEvent is a point-in-time fetch progress update. Completed and
// Total count bytes while downloading and archive entries while extracting.
// Total is 0 when the size is unknown; Percent is then -1.
type ProgressEvent struct {
	Stage     string
	Percent   float64
	Completed int64
	Total     int64
}

// ProgressFunc receives progress updates during a fetch. Callbacks run on
// the transfer path and must return quickly.
type ProgressFunc func(ProgressEvent)

// Fetcher retrieves a dataset archive and returns its extracted root.
type Fetcher interface {
	Fetch(ctx context.Context, req Request) (Result, error)
}

// Option configures fetchers built by this package.
type Option func(*settings)

type settings struct {
	logger   *slog.Logger
	progress ProgressFunc
	client   *http.Client
}

// WithLogger attaches a logger to fetch operations.
func WithLogger(logger *slog.Logger) Option {
	return func(s *settings) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithProgress registers a callback for download and extraction progress.
func WithProgress(fn ProgressFunc) Option {
	return func(s *settings) {
		if fn != nil {
			s.progress = fn
		}
	}
}

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(s *settings) {
		if client != nil {
			s.client = client
		}
	}
}

func newSettings(opts ...Option) settings {
	s := settings{logger: logging.NewNop()}
	for _, opt := range opts {
		opt(&s)
	}
	return s
}

// Router selects a fetcher implementation by URL scheme.
type Router struct {
	cfg  *config.Config
	opts []Option
	http *HTTP

	mu sync.Mutex
	s3 *S3
}

var _ Fetcher = (*Router)(nil)

// New builds a Router serving http(s) and s3 archive URLs out of the
// configured cache directory.
func New(cfg *config.Config, opts ...Option) (*Router, error) {
	if cfg == nil {
		return nil, fmt.Errorf("%w: fetch requires configuration", services.ErrConfiguration)
	}
	return &Router{
		cfg:  cfg,
		opts: opts,
		http: NewHTTP(cfg.Paths.CacheDir, cfg.FetchTimeout(), opts...),
	}, nil
}

// Fetch dispatches to the fetcher matching the request's URL scheme.
func (r *Router) Fetch(ctx context.Context, req Request) (Result, error) {
	parsed, err := url.Parse(strings.TrimSpace(req.URL))
	if err != nil {
		return Result{}, services.Wrap(services.ErrFetch, "fetch", "parse url", "Archive URL is not valid", err)
	}
	switch strings.ToLower(parsed.Scheme) {
	case "http", "https":
		return r.http.Fetch(ctx, req)
	case "s3":
		s3, err := r.s3Fetcher()
		if err != nil {
			return Result{}, err
		}
		return s3.Fetch(ctx, req)
	default:
		return Result{}, fmt.Errorf("%w: unsupported archive url scheme %q", services.ErrFetch, parsed.Scheme)
	}
}

// s3Fetcher builds the S3 fetcher on first use so HTTP-only setups never
// need credentials configured.
func (r *Router) s3Fetcher() (*S3, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.s3 == nil {
		s3, err := NewS3(r.cfg.Paths.CacheDir, r.cfg.S3, r.opts...)
		if err != nil {
			return nil, err
		}
		r.s3 = s3
	}
	return r.s3, nil
}

// unknownSizeStep spaces progress updates when the total size is unknown.
const unknownSizeStep int64 = 8 << 20

// progressReader reports coarse progress as bytes pass through it. Updates
// fire on whole-percent boundaries when the total is known, otherwise every
// unknownSizeStep bytes with Percent -1.
type progressReader struct {
	r        io.Reader
	total    int64
	stage    string
	report   ProgressFunc
	read     int64
	lastMark int64
}

func newProgressReader(r io.Reader, total int64, stage string, report ProgressFunc) io.Reader {
	if report == nil {
		return r
	}
	return &progressReader{r: r, total: max(total, 0), stage: stage, report: report, lastMark: -1}
}

func (p *progressReader) Read(buf []byte) (int, error) {
	n, err := p.r.Read(buf)
	if n > 0 {
		p.read += int64(n)
		var mark int64
		if p.total > 0 {
			mark = p.read * 100 / p.total
		} else {
			mark = p.read / unknownSizeStep
		}
		if mark != p.lastMark {
			p.lastMark = mark
			event := ProgressEvent{Stage: p.stage, Percent: -1, Completed: p.read, Total: p.total}
			if p.total > 0 {
				event.Percent = min(float64(p.read)*100/float64(p.total), 100)
			}
			p.report(event)
		}
	}
	return n, err
}

// sampledProgressLog stands in when no progress consumer is attached so
// non-interactive runs still show movement between the start and end logs.
func sampledProgressLog(logger *slog.Logger) ProgressFunc {
	sampler := logging.NewProgressSampler(5)
	return func(event ProgressEvent) {
		if !sampler.ShouldLog(event.Percent, event.Stage, "") {
			return
		}
		attrs := []any{
			logging.String("stage", event.Stage),
			logging.Int64("completed", event.Completed),
		}
		if event.Total > 0 {
			attrs = append(attrs,
				logging.Int64("total", event.Total),
				logging.Float64("percent", event.Percent),
			)
		}
		logger.Info("fetch progress", attrs...)
	}
}

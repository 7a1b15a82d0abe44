package fetch

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/gofrs/flock"

	"parcel/internal/fileutil"
	"parcel/internal/logging"
	"parcel/internal/services"
)

const lockRetryDelay = 250 * time.Millisecond

// transferFunc writes the raw archive bytes for a request to dst.
type transferFunc func(ctx context.Context, dst io.Writer) error

// cache stores downloaded archives and their extractions under one
// directory:
//
//	<dir>/fetch.lock
//	<dir>/archives/<name>.zip
//	<dir>/archives/<name>.zip.sha256
//	<dir>/extracted/<name>/
//
// A file lock serializes mutation so concurrent builds sharing the cache
// directory do not corrupt each other.
type cache struct {
	dir      string
	lock     *flock.Flock
	logger   *slog.Logger
	progress ProgressFunc
}

func newCache(dir string, logger *slog.Logger, progress ProgressFunc) *cache {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &cache{
		dir:      dir,
		lock:     flock.New(filepath.Join(dir, "fetch.lock")),
		logger:   logger,
		progress: progress,
	}
}

// ensure returns the cached extraction for req, or populates the cache by
// running transfer and extracting the archive it produces.
func (c *cache) ensure(ctx context.Context, req Request, transfer transferFunc) (Result, error) {
	name, err := archiveName(req.URL)
	if err != nil {
		return Result{}, err
	}
	checksum := strings.ToLower(strings.TrimSpace(req.Checksum))

	if err := c.prepare(); err != nil {
		return Result{}, err
	}

	locked, err := c.lock.TryLockContext(ctx, lockRetryDelay)
	if err != nil {
		return Result{}, services.Wrap(services.ErrFetch, "fetch", "lock cache", "Could not acquire the cache lock", err)
	}
	if !locked {
		return Result{}, fmt.Errorf("%w: cache lock unavailable", services.ErrFetch)
	}
	defer func() { _ = c.lock.Unlock() }()

	archive := c.archivePath(name)
	root := c.extractionRoot(name)

	reuse, err := c.reusable(archive, root, checksum)
	if err != nil {
		return Result{}, err
	}
	if reuse {
		c.logger.Info("archive cache hit",
			logging.String("url", req.URL),
			logging.String("archive", archive),
			logging.Bool("cache_used", true),
		)
		return Result{Root: root, Archive: archive, FromCache: true}, nil
	}

	downloadStart := time.Now()
	tmpArchive, digest, err := c.download(ctx, name, transfer)
	if err != nil {
		return Result{}, err
	}
	if checksum != "" && digest != checksum {
		_ = os.Remove(tmpArchive)
		return Result{}, fmt.Errorf("%w: checksum mismatch for %s: got %s want %s", services.ErrFetch, name, digest, checksum)
	}
	if err := os.Rename(tmpArchive, archive); err != nil {
		_ = os.Remove(tmpArchive)
		return Result{}, services.Wrap(services.ErrFetch, "fetch", "store archive", "Could not move the downloaded archive into the cache", err)
	}
	if err := fileutil.WriteFileAtomic(markerPath(archive), []byte(digest+"\n"), 0o644); err != nil {
		return Result{}, services.Wrap(services.ErrFetch, "fetch", "record checksum", "Could not write the archive checksum marker", err)
	}

	var archiveBytes int64
	if info, err := os.Stat(archive); err == nil {
		archiveBytes = info.Size()
	}
	c.logger.Info("archive downloaded",
		logging.String("url", req.URL),
		logging.String("archive", archive),
		logging.Int64("archive_bytes", archiveBytes),
		logging.String("checksum", digest),
		logging.Duration("download_duration", time.Since(downloadStart)),
	)

	extractStart := time.Now()
	entries, err := c.extract(ctx, archive, root)
	if err != nil {
		return Result{}, err
	}
	c.logger.Info("archive extracted",
		logging.String("root", root),
		logging.Int("file_count", entries),
		logging.Duration("extract_duration", time.Since(extractStart)),
	)

	return Result{Root: root, Archive: archive, FromCache: false}, nil
}

// reusable reports whether a prior download and extraction can be reused.
// When the caller pins a checksum the recorded archive digest must match
// it. A missing or empty checksum marker is rebuilt from the cached archive
// rather than forcing a re-download.
func (c *cache) reusable(archive, root, checksum string) (bool, error) {
	if _, err := os.Stat(archive); err != nil {
		return false, nil
	}
	if info, err := os.Stat(root); err != nil || !info.IsDir() {
		return false, nil
	}
	if recorded, err := os.ReadFile(markerPath(archive)); err == nil {
		if digest := strings.ToLower(strings.TrimSpace(string(recorded))); digest != "" {
			return checksum == "" || digest == checksum, nil
		}
	}
	digest, err := fileutil.HashFile(archive)
	if err != nil {
		return false, services.Wrap(services.ErrFetch, "fetch", "hash archive", "Could not hash the cached archive", err)
	}
	if err := fileutil.WriteFileAtomic(markerPath(archive), []byte(digest+"\n"), 0o644); err != nil {
		return false, services.Wrap(services.ErrFetch, "fetch", "record checksum", "Could not write the archive checksum marker", err)
	}
	c.logger.Debug("archive checksum marker rebuilt",
		logging.String("archive", archive),
		logging.String("checksum", digest),
	)
	return checksum == "" || digest == checksum, nil
}

// download streams the archive into a scratch file next to its final
// location and returns the scratch path with the SHA-256 of its contents.
func (c *cache) download(ctx context.Context, name string, transfer transferFunc) (string, string, error) {
	tmp, err := os.CreateTemp(c.archivesDir(), name+".download-*")
	if err != nil {
		return "", "", services.Wrap(services.ErrFetch, "fetch", "create scratch file", "Could not create a download scratch file", err)
	}
	hasher := sha256.New()
	if err := transfer(ctx, io.MultiWriter(tmp, hasher)); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())
		return "", "", err
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmp.Name())
		return "", "", services.Wrap(services.ErrFetch, "fetch", "flush download", "Could not finish writing the archive", err)
	}
	return tmp.Name(), hex.EncodeToString(hasher.Sum(nil)), nil
}

// extract unpacks archive into a staging directory and swaps it into place,
// replacing any stale extraction.
func (c *cache) extract(ctx context.Context, archive, root string) (int, error) {
	staging, err := os.MkdirTemp(c.extractedDir(), filepath.Base(root)+".extract-*")
	if err != nil {
		return 0, services.Wrap(services.ErrFetch, "fetch", "create staging dir", "Could not create an extraction staging directory", err)
	}
	entries, err := extractZip(ctx, archive, staging, c.progress)
	if err != nil {
		_ = os.RemoveAll(staging)
		return 0, err
	}
	if err := os.RemoveAll(root); err != nil {
		_ = os.RemoveAll(staging)
		return 0, services.Wrap(services.ErrFetch, "fetch", "replace extraction", "Could not clear the stale extraction", err)
	}
	if err := os.Rename(staging, root); err != nil {
		_ = os.RemoveAll(staging)
		return 0, services.Wrap(services.ErrFetch, "fetch", "replace extraction", "Could not move the extraction into place", err)
	}
	return entries, nil
}

func (c *cache) prepare() error {
	for _, dir := range []string{c.dir, c.archivesDir(), c.extractedDir()} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return services.Wrap(services.ErrFetch, "fetch", "prepare cache", "Could not create the cache layout", err)
		}
	}
	return nil
}

func (c *cache) archivesDir() string  { return filepath.Join(c.dir, "archives") }
func (c *cache) extractedDir() string { return filepath.Join(c.dir, "extracted") }

func (c *cache) archivePath(name string) string {
	return filepath.Join(c.archivesDir(), name)
}

// extractionRoot strips the archive extension so UCMerced_LandUse.zip
// extracts under extracted/UCMerced_LandUse.
func (c *cache) extractionRoot(name string) string {
	stem := strings.TrimSuffix(name, filepath.Ext(name))
	if stem == "" {
		stem = name
	}
	return filepath.Join(c.extractedDir(), stem)
}

func markerPath(archive string) string { return archive + ".sha256" }

// archiveName derives the cache file name for an archive URL.
func archiveName(raw string) (string, error) {
	parsed, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return "", services.Wrap(services.ErrFetch, "fetch", "parse url", "Archive URL is not valid", err)
	}
	base := path.Base(parsed.Path)
	if base == "" || base == "." || base == "/" {
		return "", fmt.Errorf("%w: archive url %q has no file name", services.ErrFetch, raw)
	}
	return base, nil
}

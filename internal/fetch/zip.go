package fetch

import (
	"archive/zip"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"parcel/internal/services"
)

// extractZip unpacks archive into dest, which must already exist, and
// returns the number of entries written. Entry paths are validated so a
// crafted archive cannot write outside dest.
func extractZip(ctx context.Context, archive, dest string, report ProgressFunc) (int, error) {
	reader, err := zip.OpenReader(archive)
	if err != nil {
		return 0, services.Wrap(services.ErrFetch, "fetch", "open archive", "Could not open the downloaded archive", err)
	}
	defer reader.Close()

	total := len(reader.File)
	lastPercent := -1
	for i, entry := range reader.File {
		if err := ctx.Err(); err != nil {
			return i, services.Wrap(services.ErrFetch, "fetch", "extract", "Extraction canceled", err)
		}
		if err := extractEntry(entry, dest); err != nil {
			return i, err
		}
		if report != nil {
			done := i + 1
			percent := done * 100 / total
			if percent != lastPercent {
				lastPercent = percent
				report(ProgressEvent{
					Stage:     StageExtracting,
					Percent:   float64(percent),
					Completed: int64(done),
					Total:     int64(total),
				})
			}
		}
	}
	return total, nil
}

func extractEntry(entry *zip.File, dest string) error {
	target, err := entryPath(dest, entry.Name)
	if err != nil {
		return err
	}
	if entry.FileInfo().IsDir() {
		if err := os.MkdirAll(target, 0o755); err != nil {
			return services.Wrap(services.ErrFetch, "fetch", "extract", "Could not create an archive directory", err)
		}
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return services.Wrap(services.ErrFetch, "fetch", "extract", "Could not create an archive directory", err)
	}

	src, err := entry.Open()
	if err != nil {
		return services.Wrap(services.ErrFetch, "fetch", "extract", fmt.Sprintf("Could not read archive entry %s", entry.Name), err)
	}
	defer src.Close()

	dst, err := os.OpenFile(target, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return services.Wrap(services.ErrFetch, "fetch", "extract", fmt.Sprintf("Could not create archive entry %s", entry.Name), err)
	}
	if _, err := io.Copy(dst, src); err != nil {
		_ = dst.Close()
		_ = os.Remove(target)
		return services.Wrap(services.ErrFetch, "fetch", "extract", fmt.Sprintf("Could not write archive entry %s", entry.Name), err)
	}
	if err := dst.Close(); err != nil {
		_ = os.Remove(target)
		return services.Wrap(services.ErrFetch, "fetch", "extract", fmt.Sprintf("Could not finish archive entry %s", entry.Name), err)
	}
	return nil
}

// entryPath resolves an archive entry name under dest, rejecting absolute
// names and any path that climbs out of dest.
func entryPath(dest, name string) (string, error) {
	cleaned := filepath.Clean(filepath.FromSlash(name))
	if filepath.IsAbs(cleaned) || cleaned == ".." || strings.HasPrefix(cleaned, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("%w: archive entry %q escapes the extraction directory", services.ErrFetch, name)
	}
	return filepath.Join(dest, cleaned), nil
}

package layout

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"parcel/internal/services"
)

// Labels returns the label directory names directly under root, in
// lexicographic order. Plain files at the label level are skipped.
func Labels(root string) ([]string, error) {
	entries, err := os.ReadDir(root)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", services.ErrDirectoryNotFound, root)
		}
		return nil, fmt.Errorf("list labels in %s: %w", root, err)
	}
	labels := make([]string, 0, len(entries))
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		labels = append(labels, entry.Name())
	}
	return labels, nil
}

// Files returns the full paths of files under root/label whose names end in
// ext, in lexicographic order. ext includes the leading dot.
func Files(root, label, ext string) ([]string, error) {
	dir := filepath.Join(root, label)
	info, err := os.Stat(dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", services.ErrDirectoryNotFound, dir)
		}
		return nil, fmt.Errorf("list files in %s: %w", dir, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%w: %s is not a directory", services.ErrDirectoryNotFound, dir)
	}

	matches, err := filepath.Glob(filepath.Join(dir, "*"+ext))
	if err != nil {
		return nil, fmt.Errorf("glob %s: %w", dir, err)
	}
	files := make([]string, 0, len(matches))
	for _, match := range matches {
		stat, err := os.Stat(match)
		if err != nil || stat.IsDir() {
			continue
		}
		files = append(files, match)
	}
	return files, nil
}

package layout_test

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"parcel/internal/layout"
	"parcel/internal/services"
)

func writeFile(t *testing.T, path string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir %s: %v", filepath.Dir(path), err)
	}
	if err := os.WriteFile(path, []byte("x"), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

func TestLabelsReturnsSortedDirectories(t *testing.T) {
	root := t.TempDir()
	for _, label := range []string{"forest", "beach", "harbor"} {
		if err := os.Mkdir(filepath.Join(root, label), 0o755); err != nil {
			t.Fatalf("mkdir: %v", err)
		}
	}
	writeFile(t, filepath.Join(root, "README.txt"))

	labels, err := layout.Labels(root)
	if err != nil {
		t.Fatalf("Labels returned error: %v", err)
	}
	want := []string{"beach", "forest", "harbor"}
	if len(labels) != len(want) {
		t.Fatalf("expected %d labels, got %v", len(want), labels)
	}
	for i, label := range want {
		if labels[i] != label {
			t.Fatalf("expected label %q at %d, got %q", label, i, labels[i])
		}
	}
}

func TestLabelsMissingRoot(t *testing.T) {
	_, err := layout.Labels(filepath.Join(t.TempDir(), "absent"))
	if !errors.Is(err, services.ErrDirectoryNotFound) {
		t.Fatalf("expected directory-not-found sentinel, got %v", err)
	}
}

func TestFilesFiltersByExtension(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "beach", "beach02.tif"))
	writeFile(t, filepath.Join(root, "beach", "beach01.tif"))
	writeFile(t, filepath.Join(root, "beach", "notes.txt"))

	files, err := layout.Files(root, "beach", ".tif")
	if err != nil {
		t.Fatalf("Files returned error: %v", err)
	}
	if len(files) != 2 {
		t.Fatalf("expected 2 files, got %v", files)
	}
	if filepath.Base(files[0]) != "beach01.tif" || filepath.Base(files[1]) != "beach02.tif" {
		t.Fatalf("expected sorted tif files, got %v", files)
	}
	if !filepath.IsAbs(files[0]) {
		t.Fatalf("expected full paths, got %q", files[0])
	}
}

func TestFilesMissingLabelDir(t *testing.T) {
	_, err := layout.Files(t.TempDir(), "beach", ".tif")
	if !errors.Is(err, services.ErrDirectoryNotFound) {
		t.Fatalf("expected directory-not-found sentinel, got %v", err)
	}
}

func TestFilesLabelIsFile(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "beach"))

	_, err := layout.Files(root, "beach", ".tif")
	if !errors.Is(err, services.ErrDirectoryNotFound) {
		t.Fatalf("expected directory-not-found sentinel, got %v", err)
	}
}

func TestFilesEmptyLabelDir(t *testing.T) {
	root := t.TempDir()
	if err := os.Mkdir(filepath.Join(root, "beach"), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}

	files, err := layout.Files(root, "beach", ".tif")
	if err != nil {
		t.Fatalf("Files returned error: %v", err)
	}
	if len(files) != 0 {
		t.Fatalf("expected no files, got %v", files)
	}
}

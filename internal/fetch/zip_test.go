package fetch

import (
	"archive/zip"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"parcel/internal/services"
)

func writeZip(t *testing.T, path string, entries map[string]string) {
	t.Helper()
	file, err := os.Create(path)
	if err != nil {
		t.Fatalf("create zip: %v", err)
	}
	writer := zip.NewWriter(file)
	for name, content := range entries {
		entry, err := writer.Create(name)
		if err != nil {
			t.Fatalf("create entry %s: %v", name, err)
		}
		if _, err := entry.Write([]byte(content)); err != nil {
			t.Fatalf("write entry %s: %v", name, err)
		}
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("close zip writer: %v", err)
	}
	if err := file.Close(); err != nil {
		t.Fatalf("close zip file: %v", err)
	}
}

func TestExtractZipWritesEntries(t *testing.T) {
	dir := t.TempDir()
	archive := filepath.Join(dir, "dataset.zip")
	writeZip(t, archive, map[string]string{
		"UCMerced_LandUse/Images/beach/beach00.tif": "pixels",
		"UCMerced_LandUse/Images/beach/beach01.tif": "more pixels",
	})

	dest := t.TempDir()
	count, err := extractZip(context.Background(), archive, dest, nil)
	if err != nil {
		t.Fatalf("extractZip: %v", err)
	}
	if count != 2 {
		t.Fatalf("expected 2 entries, got %d", count)
	}

	content, err := os.ReadFile(filepath.Join(dest, "UCMerced_LandUse", "Images", "beach", "beach00.tif"))
	if err != nil {
		t.Fatalf("read extracted file: %v", err)
	}
	if string(content) != "pixels" {
		t.Fatalf("unexpected content %q", content)
	}
}

func TestExtractZipCreatesDirectoryEntries(t *testing.T) {
	dir := t.TempDir()
	archive := filepath.Join(dir, "dirs.zip")
	writeZip(t, archive, map[string]string{"dataset/images/": ""})

	dest := t.TempDir()
	if _, err := extractZip(context.Background(), archive, dest, nil); err != nil {
		t.Fatalf("extractZip: %v", err)
	}
	info, err := os.Stat(filepath.Join(dest, "dataset", "images"))
	if err != nil {
		t.Fatalf("stat extracted dir: %v", err)
	}
	if !info.IsDir() {
		t.Fatal("expected a directory entry")
	}
}

func TestExtractZipRejectsPathTraversal(t *testing.T) {
	dir := t.TempDir()
	archive := filepath.Join(dir, "hostile.zip")
	writeZip(t, archive, map[string]string{"../evil.txt": "payload"})

	parent := t.TempDir()
	dest := filepath.Join(parent, "out")
	if err := os.MkdirAll(dest, 0o755); err != nil {
		t.Fatalf("mkdir dest: %v", err)
	}

	_, err := extractZip(context.Background(), archive, dest, nil)
	if !errors.Is(err, services.ErrFetch) {
		t.Fatalf("expected fetch error, got %v", err)
	}
	if _, statErr := os.Stat(filepath.Join(parent, "evil.txt")); !errors.Is(statErr, os.ErrNotExist) {
		t.Fatal("traversal entry escaped the extraction directory")
	}
}

func TestExtractZipHonorsCancellation(t *testing.T) {
	dir := t.TempDir()
	archive := filepath.Join(dir, "dataset.zip")
	writeZip(t, archive, map[string]string{"a.txt": "a"})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := extractZip(ctx, archive, t.TempDir(), nil)
	if !errors.Is(err, services.ErrFetch) {
		t.Fatalf("expected fetch error, got %v", err)
	}
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected canceled context in chain, got %v", err)
	}
}

func TestExtractZipReportsProgress(t *testing.T) {
	dir := t.TempDir()
	archive := filepath.Join(dir, "dataset.zip")
	writeZip(t, archive, map[string]string{
		"one.txt":   "1",
		"two.txt":   "2",
		"three.txt": "3",
		"four.txt":  "4",
	})

	var events []ProgressEvent
	_, err := extractZip(context.Background(), archive, t.TempDir(), func(event ProgressEvent) {
		events = append(events, event)
	})
	if err != nil {
		t.Fatalf("extractZip: %v", err)
	}
	if len(events) != 4 {
		t.Fatalf("expected 4 progress events, got %d", len(events))
	}
	last := events[len(events)-1]
	if last.Stage != StageExtracting || last.Percent != 100 || last.Completed != 4 || last.Total != 4 {
		t.Fatalf("unexpected final event %+v", last)
	}
}

func TestEntryPath(t *testing.T) {
	dest := filepath.Join("/tmp", "extract")
	cases := []struct {
		name    string
		want    string
		wantErr bool
	}{
		{name: "images/a.tif", want: filepath.Join(dest, "images", "a.tif")},
		{name: "./images/a.tif", want: filepath.Join(dest, "images", "a.tif")},
		{name: "../escape.txt", wantErr: true},
		{name: "images/../../escape.txt", wantErr: true},
		{name: "/etc/passwd", wantErr: true},
	}
	for _, tc := range cases {
		got, err := entryPath(dest, tc.name)
		if tc.wantErr {
			if !errors.Is(err, services.ErrFetch) {
				t.Fatalf("%s: expected fetch error, got %v", tc.name, err)
			}
			continue
		}
		if err != nil {
			t.Fatalf("%s: unexpected error %v", tc.name, err)
		}
		if got != tc.want {
			t.Fatalf("%s: got %s, want %s", tc.name, got, tc.want)
		}
	}
}

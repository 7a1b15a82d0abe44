package testsupport

import (
	"archive/zip"
	"bytes"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"io"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"
	"testing"

	"golang.org/x/image/tiff"
)

// WriteImage encodes a small solid-color image at path, choosing the codec
// from the file extension (.png, .jpg, anything else is TIFF).
func WriteImage(t testing.TB, path string, fill color.RGBA, width, height int) {
	t.Helper()

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir for %s: %v", path, err)
	}
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create %s: %v", path, err)
	}
	defer f.Close()

	if err := encodeImage(f, filepath.Ext(path), fill, width, height); err != nil {
		t.Fatalf("encode %s: %v", path, err)
	}
}

// WriteImageTree lays out a label-organized image directory under root. Each
// map entry creates one label directory holding the named files, every file
// tinted differently so tests can tell records apart.
func WriteImageTree(t testing.TB, root string, labels map[string][]string) {
	t.Helper()

	tint := uint8(1)
	for _, label := range sortedKeys(labels) {
		for _, name := range labels[label] {
			WriteImage(t, filepath.Join(root, label, name), color.RGBA{R: tint, G: tint, B: tint, A: 255}, 2, 2)
			tint++
		}
	}
}

// Archive builds an in-memory ZIP archive mirroring a label-organized image
// tree rooted at subdir, ready to serve from a test HTTP handler.
func Archive(t testing.TB, subdir string, labels map[string][]string) []byte {
	t.Helper()

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)

	tint := uint8(1)
	for _, label := range sortedKeys(labels) {
		for _, name := range labels[label] {
			entry, err := zw.Create(path.Join(subdir, label, name))
			if err != nil {
				t.Fatalf("create archive entry %s: %v", name, err)
			}
			if err := encodeImage(entry, path.Ext(name), color.RGBA{R: tint, G: tint, B: tint, A: 255}, 2, 2); err != nil {
				t.Fatalf("encode archive entry %s: %v", name, err)
			}
			tint++
		}
	}

	if err := zw.Close(); err != nil {
		t.Fatalf("close archive: %v", err)
	}
	return buf.Bytes()
}

func encodeImage(dst io.Writer, ext string, fill color.RGBA, width, height int) error {
	if width <= 0 {
		width = 2
	}
	if height <= 0 {
		height = 2
	}
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.SetRGBA(x, y, fill)
		}
	}

	switch strings.ToLower(ext) {
	case ".png":
		return png.Encode(dst, img)
	case ".jpg", ".jpeg":
		return jpeg.Encode(dst, img, nil)
	default:
		return tiff.Encode(dst, img, nil)
	}
}

func sortedKeys(labels map[string][]string) []string {
	keys := make([]string, 0, len(labels))
	for label := range labels {
		keys = append(keys, label)
	}
	sort.Strings(keys)
	return keys
}

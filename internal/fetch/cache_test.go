package fetch

import (
	"errors"
	"path/filepath"
	"testing"

	"parcel/internal/services"
)

func TestArchiveName(t *testing.T) {
	cases := []struct {
		url     string
		want    string
		wantErr bool
	}{
		{url: "http://weegee.vision.ucmerced.edu/datasets/UCMerced_LandUse.zip", want: "UCMerced_LandUse.zip"},
		{url: "s3://datasets/archives/landuse.zip", want: "landuse.zip"},
		{url: "http://mirror.example.com/a.zip?token=abc", want: "a.zip"},
		{url: "http://host", wantErr: true},
		{url: "http://host/", wantErr: true},
	}
	for _, tc := range cases {
		got, err := archiveName(tc.url)
		if tc.wantErr {
			if !errors.Is(err, services.ErrFetch) {
				t.Fatalf("%s: expected fetch error, got %v", tc.url, err)
			}
			continue
		}
		if err != nil {
			t.Fatalf("%s: unexpected error %v", tc.url, err)
		}
		if got != tc.want {
			t.Fatalf("%s: got %s, want %s", tc.url, got, tc.want)
		}
	}
}

func TestCacheLayout(t *testing.T) {
	dir := t.TempDir()
	c := newCache(dir, nil, nil)

	if got, want := c.archivePath("UCMerced_LandUse.zip"), filepath.Join(dir, "archives", "UCMerced_LandUse.zip"); got != want {
		t.Fatalf("archive path %s, want %s", got, want)
	}
	if got, want := c.extractionRoot("UCMerced_LandUse.zip"), filepath.Join(dir, "extracted", "UCMerced_LandUse"); got != want {
		t.Fatalf("extraction root %s, want %s", got, want)
	}
	if got, want := markerPath(c.archivePath("a.zip")), filepath.Join(dir, "archives", "a.zip.sha256"); got != want {
		t.Fatalf("marker path %s, want %s", got, want)
	}
}

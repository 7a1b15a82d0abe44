package fetch

import (
	"errors"
	"testing"

	"parcel/internal/config"
	"parcel/internal/services"
)

func TestSplitObjectURL(t *testing.T) {
	cases := []struct {
		url     string
		bucket  string
		key     string
		wantErr bool
	}{
		{url: "s3://datasets/UCMerced_LandUse.zip", bucket: "datasets", key: "UCMerced_LandUse.zip"},
		{url: "s3://datasets/archives/landuse/v1.zip", bucket: "datasets", key: "archives/landuse/v1.zip"},
		{url: "s3://datasets", wantErr: true},
		{url: "s3:///missing-bucket.zip", wantErr: true},
		{url: "http://host/a.zip", wantErr: true},
	}
	for _, tc := range cases {
		bucket, key, err := splitObjectURL(tc.url)
		if tc.wantErr {
			if !errors.Is(err, services.ErrFetch) {
				t.Fatalf("%s: expected fetch error, got %v", tc.url, err)
			}
			continue
		}
		if err != nil {
			t.Fatalf("%s: unexpected error %v", tc.url, err)
		}
		if bucket != tc.bucket || key != tc.key {
			t.Fatalf("%s: got %s/%s, want %s/%s", tc.url, bucket, key, tc.bucket, tc.key)
		}
	}
}

func TestNewS3RequiresEndpoint(t *testing.T) {
	_, err := NewS3(t.TempDir(), config.S3{AccessKeyID: "key", SecretAccessKey: "secret"})
	if !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("expected configuration error, got %v", err)
	}
}

func TestNewS3RequiresCredentials(t *testing.T) {
	_, err := NewS3(t.TempDir(), config.S3{Endpoint: "minio.example.com:9000"})
	if !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("expected configuration error, got %v", err)
	}
}

func TestNewS3AcceptsEndpointWithScheme(t *testing.T) {
	fetcher, err := NewS3(t.TempDir(), config.S3{
		Endpoint:        "https://minio.example.com:9000",
		AccessKeyID:     "key",
		SecretAccessKey: "secret",
	})
	if err != nil {
		t.Fatalf("NewS3: %v", err)
	}
	if fetcher == nil {
		t.Fatal("expected a fetcher")
	}
}

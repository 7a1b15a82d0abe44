package dataset_test

import (
	"errors"
	"testing"

	"parcel/internal/dataset"
	"parcel/internal/services"
)

func TestImageValidate(t *testing.T) {
	good := dataset.Image{Width: 2, Height: 2, Channels: 3, Pix: make([]uint8, 12)}
	if err := good.Validate(); err != nil {
		t.Fatalf("expected valid image, got %v", err)
	}

	short := dataset.Image{Width: 2, Height: 2, Channels: 3, Pix: make([]uint8, 11)}
	if err := short.Validate(); !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error for short buffer, got %v", err)
	}

	flat := dataset.Image{Width: 0, Height: 2, Channels: 3}
	if err := flat.Validate(); !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error for zero width, got %v", err)
	}
}

func TestSplitSpecValidate(t *testing.T) {
	good := dataset.SplitSpec{Name: dataset.TrainSplit, Dir: "/data/images", ShardCount: 1}
	if err := good.Validate(); err != nil {
		t.Fatalf("expected valid split spec, got %v", err)
	}

	cases := []struct {
		name string
		spec dataset.SplitSpec
	}{
		{"blank name", dataset.SplitSpec{Dir: "/data", ShardCount: 1}},
		{"blank dir", dataset.SplitSpec{Name: "train", ShardCount: 1}},
		{"zero shards", dataset.SplitSpec{Name: "train", Dir: "/data", ShardCount: 0}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if err := tc.spec.Validate(); !errors.Is(err, services.ErrValidation) {
				t.Fatalf("expected validation error, got %v", err)
			}
		})
	}
}

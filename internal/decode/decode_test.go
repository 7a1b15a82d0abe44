package decode_test

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"strings"
	"testing"

	"golang.org/x/image/tiff"

	"parcel/internal/decode"
	"parcel/internal/services"
)

func encodeTIFF(t *testing.T, src image.Image) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	if err := tiff.Encode(&buf, src, nil); err != nil {
		t.Fatalf("encode tiff: %v", err)
	}
	return &buf
}

func TestDecodeTIFFToRGB(t *testing.T) {
	src := image.NewRGBA(image.Rect(0, 0, 2, 2))
	src.SetRGBA(0, 0, color.RGBA{R: 10, G: 20, B: 30, A: 255})
	src.SetRGBA(1, 0, color.RGBA{R: 40, G: 50, B: 60, A: 255})
	src.SetRGBA(0, 1, color.RGBA{R: 70, G: 80, B: 90, A: 255})
	src.SetRGBA(1, 1, color.RGBA{R: 100, G: 110, B: 120, A: 255})

	img, err := decode.Std{}.Decode(encodeTIFF(t, src))
	if err != nil {
		t.Fatalf("Decode returned error: %v", err)
	}

	if img.Width != 2 || img.Height != 2 || img.Channels != decode.RGBChannels {
		t.Fatalf("unexpected geometry: %dx%dx%d", img.Width, img.Height, img.Channels)
	}
	if err := img.Validate(); err != nil {
		t.Fatalf("decoded image failed validation: %v", err)
	}
	if img.Pix[0] != 10 || img.Pix[1] != 20 || img.Pix[2] != 30 {
		t.Fatalf("unexpected first pixel: %v", img.Pix[:3])
	}
	last := img.Pix[len(img.Pix)-3:]
	if last[0] != 100 || last[1] != 110 || last[2] != 120 {
		t.Fatalf("unexpected last pixel: %v", last)
	}
}

func TestDecodeGrayscaleNormalizesToThreeChannels(t *testing.T) {
	src := image.NewGray(image.Rect(0, 0, 3, 1))
	for x := 0; x < 3; x++ {
		src.SetGray(x, 0, color.Gray{Y: 77})
	}

	img, err := decode.Std{}.Decode(encodeTIFF(t, src))
	if err != nil {
		t.Fatalf("Decode returned error: %v", err)
	}
	if img.Channels != decode.RGBChannels {
		t.Fatalf("expected 3 channels, got %d", img.Channels)
	}
	for i := 0; i < len(img.Pix); i++ {
		if img.Pix[i] != 77 {
			t.Fatalf("expected gray value replicated across channels, got %v", img.Pix)
		}
	}
}

func TestDecodeCorruptInput(t *testing.T) {
	_, err := decode.Std{}.Decode(strings.NewReader("not an image"))
	if !errors.Is(err, services.ErrImageDecode) {
		t.Fatalf("expected image decode sentinel, got %v", err)
	}
}

package decode

import (
	"fmt"
	"image"
	"io"

	_ "image/jpeg"
	_ "image/png"

	"github.com/disintegration/imaging"
	_ "golang.org/x/image/tiff"

	"parcel/internal/dataset"
	"parcel/internal/services"
)

// RGBChannels is the channel count every decoded image is normalized to.
const RGBChannels = 3

// Decoder turns an encoded image stream into interleaved RGB pixels.
type Decoder interface {
	Decode(r io.Reader) (dataset.Image, error)
}

// Std decodes through Go's image registry (TIFF, PNG, JPEG) and normalizes
// the result to 3-channel RGB regardless of the source color model.
type Std struct{}

var _ Decoder = Std{}

func (Std) Decode(r io.Reader) (dataset.Image, error) {
	src, _, err := image.Decode(r)
	if err != nil {
		return dataset.Image{}, fmt.Errorf("%w: %w", services.ErrImageDecode, err)
	}

	bounds := src.Bounds()
	if bounds.Dx() <= 0 || bounds.Dy() <= 0 {
		return dataset.Image{}, fmt.Errorf("%w: empty image", services.ErrImageDecode)
	}

	// Clone converts any color model to NRGBA with a zero-origin bounds.
	return flattenNRGBA(imaging.Clone(src)), nil
}

func flattenNRGBA(src *image.NRGBA) dataset.Image {
	width := src.Bounds().Dx()
	height := src.Bounds().Dy()
	pix := make([]uint8, width*height*RGBChannels)
	offset := 0
	for y := 0; y < height; y++ {
		row := src.Pix[y*src.Stride : y*src.Stride+width*4]
		for x := 0; x < len(row); x += 4 {
			pix[offset] = row[x]
			pix[offset+1] = row[x+1]
			pix[offset+2] = row[x+2]
			offset += RGBChannels
		}
	}
	return dataset.Image{Width: width, Height: height, Channels: RGBChannels, Pix: pix}
}

package dataset

import (
	"fmt"

	"parcel/internal/services"
)

// Image is a decoded bitmap in interleaved RGB order, 8 bits per channel.
type Image struct {
	Width    int
	Height   int
	Channels int
	Pix      []uint8
}

// Validate checks the pixel buffer matches the declared geometry.
func (im Image) Validate() error {
	if im.Width <= 0 || im.Height <= 0 || im.Channels <= 0 {
		return fmt.Errorf("%w: image dimensions %dx%dx%d", services.ErrValidation, im.Width, im.Height, im.Channels)
	}
	if want := im.Width * im.Height * im.Channels; len(im.Pix) != want {
		return fmt.Errorf("%w: pixel buffer is %d bytes, want %d", services.ErrValidation, len(im.Pix), want)
	}
	return nil
}

// Record is one labeled example: the decoded image plus its provenance.
type Record struct {
	Filename   string
	Label      string
	LabelIndex int
	Image      Image
}

package generate

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"parcel/internal/dataset"
	"parcel/internal/decode"
	"parcel/internal/layout"
	"parcel/internal/services"
)

// DefaultExtension is the image extension scanned when no option overrides it.
const DefaultExtension = ".tif"

// Generator builds record streams over label-organized image trees.
type Generator struct {
	catalog *dataset.Catalog
	decoder decode.Decoder
	ext     string
	keyed   bool
}

// Option adjusts generator behavior.
type Option func(*Generator)

// WithExtension sets the image file extension to scan for. The leading dot is
// added when missing; matching is exact (lowercase extensions on disk).
func WithExtension(ext string) Option {
	return func(g *Generator) {
		ext = strings.ToLower(strings.TrimSpace(ext))
		if ext == "" {
			return
		}
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		g.ext = ext
	}
}

// WithKeyed controls whether emissions carry filename keys. Dataset versions
// from 1.0.0 are keyed; the 0.0.1 legacy layout is not.
func WithKeyed(keyed bool) Option {
	return func(g *Generator) {
		g.keyed = keyed
	}
}

// New constructs a generator over the given catalog and decoder.
func New(catalog *dataset.Catalog, decoder decode.Decoder, opts ...Option) *Generator {
	g := &Generator{
		catalog: catalog,
		decoder: decoder,
		ext:     DefaultExtension,
		keyed:   true,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Emission is one streamed record. Key is the record's filename when the
// generator is keyed, empty otherwise.
type Emission struct {
	Key    string
	Record dataset.Record
}

// Records returns a lazy stream over dir. No filesystem work happens until
// the first Next call, and calling Records again on an unchanged tree yields
// the same logical sequence.
func (g *Generator) Records(dir string) *Stream {
	return &Stream{gen: g, dir: dir}
}

// Stream is a single-consumer pull iterator. Next returns io.EOF after the
// final record; any failure is terminal and repeated by subsequent calls.
type Stream struct {
	gen     *Generator
	dir     string
	started bool
	err     error

	labels     []string
	labelPos   int
	files      []string
	label      string
	labelIndex int
}

// Next returns the next emission in label-major, filename-minor order.
func (s *Stream) Next() (Emission, error) {
	if s.err != nil {
		return Emission{}, s.err
	}
	if !s.started {
		if err := s.init(); err != nil {
			s.err = err
			return Emission{}, err
		}
		s.started = true
	}
	for {
		if len(s.files) == 0 {
			if err := s.advanceLabel(); err != nil {
				s.err = err
				return Emission{}, err
			}
			continue
		}
		path := s.files[0]
		s.files = s.files[1:]
		emission, err := s.emit(path)
		if err != nil {
			s.err = err
			return Emission{}, err
		}
		return emission, nil
	}
}

func (s *Stream) init() error {
	if s.gen.catalog == nil || s.gen.decoder == nil {
		return fmt.Errorf("%w: generator requires a catalog and a decoder", services.ErrValidation)
	}
	labels, err := layout.Labels(s.dir)
	if err != nil {
		return err
	}
	// Validate the whole tree before emitting anything so an undeclared
	// label directory fails the run up front.
	for _, label := range labels {
		if _, err := s.gen.catalog.IndexOf(label); err != nil {
			return fmt.Errorf("label directory: %w", err)
		}
	}
	s.labels = labels
	return nil
}

func (s *Stream) advanceLabel() error {
	for s.labelPos < len(s.labels) {
		label := s.labels[s.labelPos]
		s.labelPos++
		files, err := layout.Files(s.dir, label, s.gen.ext)
		if err != nil {
			return err
		}
		if len(files) == 0 {
			continue
		}
		index, err := s.gen.catalog.IndexOf(label)
		if err != nil {
			return err
		}
		s.label = label
		s.labelIndex = index
		s.files = files
		return nil
	}
	return io.EOF
}

func (s *Stream) emit(path string) (Emission, error) {
	img, err := s.decodeFile(path)
	if err != nil {
		return Emission{}, err
	}
	filename := filepath.Base(path)
	emission := Emission{
		Record: dataset.Record{
			Filename:   filename,
			Label:      s.label,
			LabelIndex: s.labelIndex,
			Image:      img,
		},
	}
	if s.gen.keyed {
		emission.Key = filename
	}
	return emission, nil
}

// decodeFile opens, decodes, and closes one image as a single scoped unit so
// the handle is released even when decoding fails mid-file.
func (s *Stream) decodeFile(path string) (dataset.Image, error) {
	file, err := os.Open(path)
	if err != nil {
		return dataset.Image{}, fmt.Errorf("%w: open %s: %w", services.ErrImageDecode, path, err)
	}
	defer file.Close()

	img, err := s.gen.decoder.Decode(file)
	if err != nil {
		return dataset.Image{}, fmt.Errorf("decode %s: %w", path, err)
	}
	return img, nil
}

// Collect drains a stream into a slice. Intended for tests and small trees;
// production callers should consume Next directly.
func Collect(stream *Stream) ([]Emission, error) {
	var out []Emission
	for {
		emission, err := stream.Next()
		if errors.Is(err, io.EOF) {
			return out, nil
		}
		if err != nil {
			return nil, err
		}
		out = append(out, emission)
	}
}

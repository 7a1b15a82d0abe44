package ucmerced

import (
	"fmt"
	"path/filepath"

	"parcel/internal/dataset"
	"parcel/internal/services"
)

// Name is the dataset identifier used in output paths and ledger rows.
const Name = "uc_merced"

// ArchiveURL is the upstream location of the land-use imagery archive.
const ArchiveURL = "http://weegee.vision.ucmerced.edu/datasets/UCMerced_LandUse.zip"

// DefaultVersion builds keyed records with the current shard hashing scheme.
const DefaultVersion = "2.0.0"

// imagesSubdir is where the archive places the label directories.
const imagesSubdir = "UCMerced_LandUse/Images"

const extension = ".tif"

const homepage = "http://weegee.vision.ucmerced.edu/datasets/landuse.html"

const description = `UC Merced is a 21 class land use remote sensing image dataset, with 100 images
per class. The images were manually extracted from large images from the USGS
National Map Urban Area Imagery collection for various urban areas around the
country. The pixel resolution of this public domain imagery is 0.3 m.
Each image measures 256x256 pixels.`

const citation = `@InProceedings{Yang2010,
   author = "Yang, Yi and Newsam, Shawn",
   title = "Bag-Of-Visual-Words and Spatial Extensions for Land-Use Classification",
   booktitle = "ACM SIGSPATIAL International Conference on Advances in Geographic Information Systems (ACM GIS)",
   year = "2010",
}`

// labelNames fixes the class order. Positions are part of the published
// dataset contract; never reorder.
var labelNames = []string{
	"agricultural",
	"airplane",
	"baseballdiamond",
	"beach",
	"buildings",
	"chaparral",
	"denseresidential",
	"forest",
	"freeway",
	"golfcourse",
	"harbor",
	"intersection",
	"mediumresidential",
	"mobilehomepark",
	"overpass",
	"parkinglot",
	"river",
	"runway",
	"sparseresidential",
	"storagetanks",
	"tenniscourt",
}

// Version history:
// 2.0.0: keyed records, current shard hashing.
// 1.0.0: keyed records, original shard hashing.
// 0.0.1: legacy unkeyed records.
var supportedVersions = []dataset.Version{
	dataset.MustParseVersion("2.0.0"),
	dataset.MustParseVersion("1.0.0"),
	dataset.MustParseVersion("0.0.1"),
}

// Dataset declares the UC Merced land-use dataset.
type Dataset struct {
	catalog *dataset.Catalog
	version dataset.Version
}

var _ dataset.Definition = (*Dataset)(nil)

type config struct {
	version string
}

// Option adjusts the declaration.
type Option func(*config)

// WithVersion selects one of the supported dataset versions.
func WithVersion(version string) Option {
	return func(c *config) {
		c.version = version
	}
}

// New builds the dataset declaration.
func New(opts ...Option) (*Dataset, error) {
	cfg := config{version: DefaultVersion}
	for _, opt := range opts {
		opt(&cfg)
	}

	version, err := dataset.ParseVersion(cfg.version)
	if err != nil {
		return nil, err
	}
	if !isSupported(version) {
		return nil, fmt.Errorf("%w: unsupported dataset version %s", services.ErrValidation, version)
	}

	return &Dataset{
		catalog: dataset.MustNewCatalog(labelNames),
		version: version,
	}, nil
}

func isSupported(version dataset.Version) bool {
	for _, candidate := range supportedVersions {
		if candidate == version {
			return true
		}
	}
	return false
}

func (d *Dataset) Name() string { return Name }

func (d *Dataset) Info() dataset.Info {
	return dataset.Info{
		Description:    description,
		Citation:       citation,
		Homepage:       homepage,
		SupervisedKeys: [2]string{"image", "label"},
	}
}

func (d *Dataset) Catalog() *dataset.Catalog { return d.catalog }

func (d *Dataset) Version() dataset.Version { return d.version }

func (d *Dataset) SupportedVersions() []dataset.Version {
	out := make([]dataset.Version, len(supportedVersions))
	copy(out, supportedVersions)
	return out
}

func (d *Dataset) ArchiveURL() string { return ArchiveURL }

func (d *Dataset) Extension() string { return extension }

// Plan declares the single training split rooted at the archive's image
// directory.
func (d *Dataset) Plan(fetchedRoot string) []dataset.SplitSpec {
	return []dataset.SplitSpec{{
		Name:       dataset.TrainSplit,
		Dir:        filepath.Join(fetchedRoot, filepath.FromSlash(imagesSubdir)),
		ShardCount: 1,
	}}
}

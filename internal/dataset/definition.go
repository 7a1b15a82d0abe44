package dataset

// Info carries the human-facing dataset metadata recorded alongside builds.
type Info struct {
	Description    string
	Citation       string
	Homepage       string
	SupervisedKeys [2]string
}

// Definition is implemented by concrete dataset declarations. It fixes the
// dataset's identity, label catalog, versioning, archive location, and split
// layout; the pipeline stays generic over it.
type Definition interface {
	Name() string
	Info() Info
	Catalog() *Catalog
	Version() Version
	SupportedVersions() []Version
	ArchiveURL() string
	Extension() string
	Plan(fetchedRoot string) []SplitSpec
}

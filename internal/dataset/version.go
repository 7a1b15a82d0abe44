package dataset

import (
	"fmt"
	"strconv"
	"strings"

	"parcel/internal/services"
)

// Version is a semantic dataset version. The major component gates record
// keying: versions from 1.0.0 emit filename-keyed records, earlier versions
// emit unkeyed records.
type Version struct {
	Major int
	Minor int
	Patch int
}

// ParseVersion parses a dotted "major.minor.patch" string.
func ParseVersion(value string) (Version, error) {
	parts := strings.Split(strings.TrimSpace(value), ".")
	if len(parts) != 3 {
		return Version{}, fmt.Errorf("%w: version %q must have three dotted components", services.ErrValidation, value)
	}
	var numbers [3]int
	for i, part := range parts {
		number, err := strconv.Atoi(part)
		if err != nil || number < 0 {
			return Version{}, fmt.Errorf("%w: version %q component %q is not a non-negative integer", services.ErrValidation, value, part)
		}
		numbers[i] = number
	}
	return Version{Major: numbers[0], Minor: numbers[1], Patch: numbers[2]}, nil
}

// MustParseVersion panics on malformed input. Intended for fixed dataset
// declarations.
func MustParseVersion(value string) Version {
	version, err := ParseVersion(value)
	if err != nil {
		panic(err)
	}
	return version
}

func (v Version) String() string {
	return strconv.Itoa(v.Major) + "." + strconv.Itoa(v.Minor) + "." + strconv.Itoa(v.Patch)
}

// Compare orders versions component-wise, returning -1, 0, or 1.
func (v Version) Compare(other Version) int {
	pairs := [3][2]int{
		{v.Major, other.Major},
		{v.Minor, other.Minor},
		{v.Patch, other.Patch},
	}
	for _, pair := range pairs {
		switch {
		case pair[0] < pair[1]:
			return -1
		case pair[0] > pair[1]:
			return 1
		}
	}
	return 0
}

// Keyed reports whether records built at this version carry filename keys.
func (v Version) Keyed() bool {
	return v.Major >= 1
}

package dataset

import (
	"fmt"
	"strings"

	"parcel/internal/services"
)

// Catalog is the ordered, immutable set of label names a dataset declares.
// Declaration order fixes the integer class indices recorded in exported
// shards, so it is part of the dataset's external contract.
type Catalog struct {
	names []string
	index map[string]int
}

// NewCatalog builds a catalog from names, preserving order. Names must be
// non-empty and unique.
func NewCatalog(names []string) (*Catalog, error) {
	if len(names) == 0 {
		return nil, fmt.Errorf("%w: catalog requires at least one label", services.ErrValidation)
	}
	catalog := &Catalog{
		names: make([]string, len(names)),
		index: make(map[string]int, len(names)),
	}
	for i, name := range names {
		trimmed := strings.TrimSpace(name)
		if trimmed == "" {
			return nil, fmt.Errorf("%w: label at position %d is empty", services.ErrValidation, i)
		}
		if _, exists := catalog.index[trimmed]; exists {
			return nil, fmt.Errorf("%w: duplicate label %q", services.ErrValidation, trimmed)
		}
		catalog.names[i] = trimmed
		catalog.index[trimmed] = i
	}
	return catalog, nil
}

// MustNewCatalog panics on invalid names. Intended for fixed dataset
// declarations where the label set is a literal.
func MustNewCatalog(names []string) *Catalog {
	catalog, err := NewCatalog(names)
	if err != nil {
		panic(err)
	}
	return catalog
}

// IndexOf resolves a label name to its class index.
func (c *Catalog) IndexOf(name string) (int, error) {
	if idx, ok := c.index[name]; ok {
		return idx, nil
	}
	return 0, fmt.Errorf("%w: %q", services.ErrUnknownLabel, name)
}

// Names returns the labels in declaration order.
func (c *Catalog) Names() []string {
	out := make([]string, len(c.names))
	copy(out, c.names)
	return out
}

// Len returns the number of labels.
func (c *Catalog) Len() int {
	return len(c.names)
}

// Contains reports whether name is a declared label.
func (c *Catalog) Contains(name string) bool {
	_, ok := c.index[name]
	return ok
}

// Package layout walks label-organized image trees: one directory per label,
// image files inside. Enumeration order is deterministic (lexicographic) so
// repeated walks over an unchanged tree yield identical sequences.
package layout

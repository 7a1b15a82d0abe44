// Package dataset defines the value types shared across the build pipeline:
// label catalogs, semantic versions, decoded records, and split plans.
package dataset

// Package ucmerced declares the UC Merced land-use dataset: its fixed label
// catalog, archive location, version lineage, and split plan.
package ucmerced

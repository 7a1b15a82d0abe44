// Package config loads, normalizes, and validates Parcel configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours environment fallbacks such as
// PARCEL_S3_ACCESS_KEY. The Config type centralizes every knob the build
// pipeline and CLI need, so cache/output directories and fetch credentials
// are discovered in one pass.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical log formats, and clear validation errors.
package config

// Package fetch retrieves dataset archives and materializes their extracted
// contents in a local cache.
//
// A Fetcher resolves a Request (archive URL plus optional SHA-256 checksum)
// to the directory holding the extracted archive. Downloads land in
// <cache_dir>/archives and extractions in <cache_dir>/extracted; a file
// lock serializes cache mutation across processes. Repeat fetches reuse the
// cached extraction without touching the network. The Router dispatches
// http(s) URLs to the HTTP fetcher and s3 URLs to the MinIO-backed one.
package fetch

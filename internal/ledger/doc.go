// Package ledger persists build runs in SQLite.
//
// A Run records one pipeline execution: dataset identity, lifecycle status,
// the fetched archive root, per-split results, progress, and failure
// taxonomy. The store enforces the legal status transitions of the run
// lifecycle (pending, fetching, planning, generating, then completed or
// failed) and survives concurrent CLI invocations through WAL mode plus a
// busy-retry discipline.
package ledger

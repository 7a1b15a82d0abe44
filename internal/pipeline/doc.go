// Package pipeline executes one dataset build: fetch the archive, plan the
// splits, and generate records into the sink, recording every phase on the
// run ledger. The first error fails the run with its classified kind; a
// completed run carries per-split results and the total record count.
package pipeline

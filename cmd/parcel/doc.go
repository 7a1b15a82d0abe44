// Package main hosts the Parcel CLI entrypoint and command graph.
//
// The Cobra-based command tree translates terminal invocations into dataset
// builds, label catalog and metadata inspection, build ledger maintenance,
// and configuration scaffolding. It centralizes configuration resolution and
// structured logging setup so subcommands can focus on user experience
// instead of wiring.
//
// Keep this package lean: add new functionality by extending the internal
// packages first, then surface it through dedicated commands or flags here.
package main

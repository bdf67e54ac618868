// Package main hosts the DIANA CLI entrypoint and command graph.
//
// The Cobra-based command tree translates terminal invocations into collector
// runs, destination index listings, retry ledger maintenance, and
// configuration scaffolding. It centralizes configuration resolution and
// structured logging setup so subcommands can focus on user experience
// instead of wiring.
package main

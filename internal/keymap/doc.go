// Package keymap persists the per-study key rows emitted by the collector.
//
// The durable store is a CSV file with one logical row per key; writes with a
// repeated key overwrite the stored row. Workers never touch the file
// directly: in pooled runs they push rows through a QueueSink whose single
// drain goroutine owns the CSV map, so concurrent emissions serialize without
// sink-level contention.
package keymap

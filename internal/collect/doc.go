// Package collect implements the parallel collection pipeline: the per-study
// handling state machine, the run-scoped progress counters, and the collector
// that fans a worklist out across a bounded worker pool while a single
// background writer drains key emissions into the key map.
package collect

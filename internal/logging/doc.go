// Package logging builds the slog loggers used across the collector.
//
// Two output formats are supported: a compact console format
// (timestamp LEVEL component: message key=value ...) and standard JSON.
// Output fans out to stdout plus a log file under the configured log
// directory. Helper constructors keep attribute keys consistent between
// packages.
package logging

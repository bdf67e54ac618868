// Package config loads, normalizes, and validates DIANA configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours environment fallbacks such as
// DIANA_PROXY_URL. The Config type centralizes every knob the collector and
// CLI need: destination directories, the remote proxy endpoint, pool sizing,
// and log output settings.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical log formats, and clear validation errors.
package config

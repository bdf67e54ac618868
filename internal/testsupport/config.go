// Package testsupport provides shared fixtures for package tests.
package testsupport

import (
	"path/filepath"
	"testing"

	"diana/internal/config"
	"diana/internal/ledger"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*config.Config)

// NewConfig produces a config seeded with unique temp directories per test.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfg := config.Default()
	cfg.Paths.DataDir = filepath.Join(base, "data")
	cfg.Paths.LogDir = filepath.Join(base, "logs")
	cfg.Source.URL = "http://127.0.0.1:1"

	for _, opt := range opts {
		opt(&cfg)
	}
	return &cfg
}

// WithPoolSize sets the collector pool size on the test config.
func WithPoolSize(size int) ConfigOption {
	return func(c *config.Config) {
		c.Collector.PoolSize = size
	}
}

// MustOpenLedger opens a retry ledger for the test config and closes it with
// the test.
func MustOpenLedger(t testing.TB, cfg *config.Config) *ledger.Ledger {
	t.Helper()

	l, err := ledger.Open(cfg)
	if err != nil {
		t.Fatalf("open ledger: %v", err)
	}
	t.Cleanup(func() {
		if err := l.Close(); err != nil {
			t.Errorf("close ledger: %v", err)
		}
	})
	return l
}

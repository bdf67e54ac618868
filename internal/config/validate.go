package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateSource(); err != nil {
		return err
	}
	if err := c.validateCollector(); err != nil {
		return err
	}
	return c.validateLogging()
}

func (c *Config) validateSource() error {
	parsed, err := url.Parse(c.Source.URL)
	if err != nil {
		return fmt.Errorf("source.url: %w", err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return fmt.Errorf("source.url must be an http(s) endpoint, got %q", c.Source.URL)
	}
	if parsed.Host == "" {
		return errors.New("source.url must include a host")
	}
	return nil
}

func (c *Config) validateCollector() error {
	if c.Collector.PoolSize < 0 {
		return errors.New("collector.pool_size must be zero or positive")
	}
	if c.Collector.DelaySeconds < 0 {
		return errors.New("collector.delay_seconds must be zero or positive")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format must be console or json, got %q", c.Logging.Format)
	}
	switch strings.ToLower(c.Logging.Level) {
	case "debug", "info", "warn", "error":
		return nil
	default:
		return fmt.Errorf("logging.level must be debug, info, warn, or error, got %q", c.Logging.Level)
	}
}

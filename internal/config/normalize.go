package config

import (
	"fmt"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeWatch()
	c.normalizeKiller()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	expanded, err := expandPath(c.Paths.LogDir)
	if err != nil {
		return fmt.Errorf("normalize log_dir: %w", err)
	}
	c.Paths.LogDir = expanded
	return nil
}

func (c *Config) normalizeWatch() {
	c.Watch.VendorPrefix = strings.TrimSpace(c.Watch.VendorPrefix)

	// Dedupe and trim the ignore list while keeping declaration order.
	seen := make(map[string]struct{}, len(c.Watch.Ignore))
	cleaned := c.Watch.Ignore[:0]
	for _, id := range c.Watch.Ignore {
		trimmed := strings.TrimSpace(id)
		if trimmed == "" {
			continue
		}
		if _, ok := seen[trimmed]; ok {
			continue
		}
		seen[trimmed] = struct{}{}
		cleaned = append(cleaned, trimmed)
	}
	c.Watch.Ignore = cleaned
}

func (c *Config) normalizeKiller() {
	c.Killer.Pattern = strings.TrimSpace(c.Killer.Pattern)
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}

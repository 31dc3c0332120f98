package config

import (
	"errors"
	"fmt"
	"strings"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateWatch(); err != nil {
		return err
	}
	if err := c.validateTimings(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	if err := c.validateHistory(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateWatch() error {
	if c.Watch.VendorPrefix == "" {
		defaultPath, err := DefaultConfigPath()
		if err != nil {
			defaultPath = "~/.config/broom/config.toml"
		}
		return fmt.Errorf("watch.vendor_prefix is required. Edit %s (create with 'broom config init')", defaultPath)
	}
	for _, id := range c.Watch.Ignore {
		if !strings.HasPrefix(id, c.Watch.VendorPrefix) {
			return fmt.Errorf("watch.ignore entry %q does not carry the vendor prefix %q", id, c.Watch.VendorPrefix)
		}
	}
	return nil
}

func (c *Config) validateTimings() error {
	return ensurePositiveMap(map[string]int{
		"watch.grace_period":            c.Watch.GracePeriod,
		"watch.poll_interval":           c.Watch.PollInterval,
		"killer.pkill_timeout":          c.Killer.PkillTimeout,
		"notifications.request_timeout": c.Notifications.RequestTimeout,
	})
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
		return nil
	default:
		return fmt.Errorf("logging.format: unsupported value %q", c.Logging.Format)
	}
}

func (c *Config) validateHistory() error {
	if c.History.Enabled && c.History.RetentionDays <= 0 {
		return errors.New("history.retention_days must be positive when history.enabled is true")
	}
	return nil
}

func ensurePositiveMap(values map[string]int) error {
	for key, value := range values {
		if value <= 0 {
			return fmt.Errorf("%s must be positive", key)
		}
	}
	return nil
}

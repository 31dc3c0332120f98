// Package config loads, normalizes, and validates broom configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), and reads TOML files. The Config type centralizes every knob the
// daemon and CLI need: the watched vendor namespace, the ignore list, debounce
// timing, and the notification topic.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, a trimmed vendor prefix, and clear validation errors.
package config

package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Watch contains the vendor namespace and event timing configuration.
type Watch struct {
	// VendorPrefix is the identifier prefix that marks an application as
	// belonging to the tracked vendor (e.g. "com.acme.").
	VendorPrefix string `toml:"vendor_prefix"`
	// Ignore lists background daemon identifiers whose presence never
	// counts as "a real application is still running".
	Ignore []string `toml:"ignore"`
	// GracePeriod is the debounce window in seconds between the last
	// qualifying exit event and the cleanup pass.
	GracePeriod int `toml:"grace_period"`
	// PollInterval is the lifecycle poller cadence in seconds.
	PollInterval int `toml:"poll_interval"`
}

// Killer contains configuration for the pattern-based process terminator.
type Killer struct {
	// Pattern overrides the pkill match pattern. Empty means the vendor
	// prefix is used.
	Pattern      string `toml:"pattern"`
	PkillTimeout int    `toml:"pkill_timeout"`
}

// Notifications contains configuration for ntfy push notifications.
type Notifications struct {
	NtfyTopic      string `toml:"ntfy_topic"`
	RequestTimeout int    `toml:"request_timeout"`
}

// Paths contains directory configuration. The lock file, pid file, IPC
// socket, and history database all live under LogDir.
type Paths struct {
	LogDir string `toml:"log_dir"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// History contains configuration for the sweep history database.
type History struct {
	Enabled       bool `toml:"enabled"`
	RetentionDays int  `toml:"retention_days"`
}

// Config encapsulates all configuration values for broom.
type Config struct {
	Watch         Watch         `toml:"watch"`
	Killer        Killer        `toml:"killer"`
	Notifications Notifications `toml:"notifications"`
	Paths         Paths         `toml:"paths"`
	Logging       Logging       `toml:"logging"`
	History       History       `toml:"history"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/broom/config.toml")
}

// Load locates, parses, and validates a configuration file. The returned config
// has all path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := expandPath("~/.config/broom/config.toml")
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("broom.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates required directories for daemon operation.
func (c *Config) EnsureDirectories() error {
	if err := os.MkdirAll(c.Paths.LogDir, 0o755); err != nil {
		return fmt.Errorf("create directory %q: %w", c.Paths.LogDir, err)
	}
	return nil
}

// KillPattern returns the pkill match pattern: the configured override when
// set, otherwise the vendor prefix.
func (c *Config) KillPattern() string {
	if pattern := strings.TrimSpace(c.Killer.Pattern); pattern != "" {
		return pattern
	}
	return strings.TrimSpace(c.Watch.VendorPrefix)
}

// PkillBinary returns the pattern-kill executable name.
func (c *Config) PkillBinary() string {
	return "pkill"
}

// IgnoreSet returns the configured ignore list as a membership set.
func (c *Config) IgnoreSet() map[string]struct{} {
	set := make(map[string]struct{}, len(c.Watch.Ignore))
	for _, id := range c.Watch.Ignore {
		trimmed := strings.TrimSpace(id)
		if trimmed == "" {
			continue
		}
		set[trimmed] = struct{}{}
	}
	return set
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}

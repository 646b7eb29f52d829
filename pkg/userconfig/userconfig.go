// Package userconfig provides user-level configuration for itemd.
// This configuration is stored in ~/.config/itemd/config.yaml and holds
// defaults for the server and the item store. Command line flags take
// precedence over it.
package userconfig

import (
	"bytes"
	"cmp"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/docker/go-units"
	"github.com/goccy/go-yaml"
	"github.com/natefinch/atomic"

	"github.com/docker/itemd/pkg/logging"
	"github.com/docker/itemd/pkg/paths"
)

// CurrentVersion is the current version of the user config format
const CurrentVersion = "v1"

const (
	DefaultListen          = ":8080"
	DefaultShutdownTimeout = 5 * time.Second
)

// Log holds the settings of the rotating debug log
type Log struct {
	// MaxSize is a human readable size, e.g. "10MB" or "512KiB"
	MaxSize string `yaml:"max_size,omitempty"`
	// MaxBackups is the number of rotated files to keep. Zero truncates
	// the log in place instead of keeping backups.
	MaxBackups *int `yaml:"max_backups,omitempty"`
}

// Config represents the user-level itemd configuration
type Config struct {
	// Version is the config format version
	Version string `yaml:"version,omitempty"`
	// Listen is the default address of `itemd serve`
	Listen string `yaml:"listen,omitempty"`
	// Store is the path of the item document, or ":memory:"
	Store string `yaml:"store,omitempty"`
	// ShutdownTimeout bounds graceful shutdown, e.g. "5s"
	ShutdownTimeout string `yaml:"shutdown_timeout,omitempty"`
	// Watch enables the store watcher in `itemd serve`
	Watch bool `yaml:"watch,omitempty"`
	// Log configures the debug log file
	Log *Log `yaml:"log,omitempty"`
}

// Path returns the path to the config file
func Path() string {
	return filepath.Join(paths.GetConfigDir(), "config.yaml")
}

// DefaultStorePath is used when neither the config nor a flag names a store.
func DefaultStorePath() string {
	return filepath.Join(paths.GetDataDir(), "items.json")
}

// Load loads the user configuration from the default config file.
func Load() (*Config, error) {
	return LoadFrom(Path())
}

// LoadFrom reads and validates the config file at path, returning an
// empty config if the file doesn't exist.
func LoadFrom(path string) (*Config, error) {
	config := &Config{}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return config, nil
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config file %s: %w", path, err)
	}

	return config, nil
}

// Save saves the configuration to the default config file
func (c *Config) Save() error {
	return c.SaveTo(Path())
}

func (c *Config) SaveTo(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	// Ensure version is always set to current version when saving
	c.Version = CurrentVersion

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	return atomic.WriteFile(path, bytes.NewReader(data))
}

// Validate checks the fields that need parsing.
func (c *Config) Validate() error {
	var errs []error
	if _, err := c.GetShutdownTimeout(); err != nil {
		errs = append(errs, err)
	}
	if _, err := c.GetLogMaxSize(); err != nil {
		errs = append(errs, err)
	}
	if c.Log != nil && c.Log.MaxBackups != nil && *c.Log.MaxBackups < 0 {
		errs = append(errs, errors.New("log.max_backups cannot be negative"))
	}
	return errors.Join(errs...)
}

func (c *Config) GetListen() string {
	return cmp.Or(strings.TrimSpace(c.Listen), DefaultListen)
}

func (c *Config) GetStore() string {
	return cmp.Or(strings.TrimSpace(c.Store), DefaultStorePath())
}

func (c *Config) GetShutdownTimeout() (time.Duration, error) {
	if c.ShutdownTimeout == "" {
		return DefaultShutdownTimeout, nil
	}
	d, err := time.ParseDuration(c.ShutdownTimeout)
	if err != nil {
		return 0, fmt.Errorf("shutdown_timeout: %w", err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("shutdown_timeout must be positive, got %s", c.ShutdownTimeout)
	}
	return d, nil
}

// GetLogMaxSize parses log.max_size with binary units, so "10MB" is
// 10 * 1024 * 1024 bytes.
func (c *Config) GetLogMaxSize() (int64, error) {
	if c.Log == nil || c.Log.MaxSize == "" {
		return logging.DefaultMaxSize, nil
	}
	size, err := units.RAMInBytes(c.Log.MaxSize)
	if err != nil {
		return 0, fmt.Errorf("log.max_size: %w", err)
	}
	if size <= 0 {
		return 0, fmt.Errorf("log.max_size must be positive, got %s", c.Log.MaxSize)
	}
	return size, nil
}

func (c *Config) GetLogMaxBackups() int {
	if c.Log == nil || c.Log.MaxBackups == nil {
		return logging.DefaultMaxBackups
	}
	return *c.Log.MaxBackups
}

// Set updates a single setting by its yaml key.
func (c *Config) Set(key, value string) error {
	next := *c
	if c.Log != nil {
		l := *c.Log
		next.Log = &l
	}

	switch key {
	case "listen":
		next.Listen = value
	case "store":
		next.Store = value
	case "shutdown_timeout":
		next.ShutdownTimeout = value
	case "watch":
		switch strings.ToLower(value) {
		case "true", "1", "yes", "on":
			next.Watch = true
		case "false", "0", "no", "off":
			next.Watch = false
		default:
			return fmt.Errorf("watch: invalid boolean %q", value)
		}
	case "log.max_size":
		if next.Log == nil {
			next.Log = &Log{}
		}
		next.Log.MaxSize = value
	case "log.max_backups":
		n, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("log.max_backups: invalid number %q", value)
		}
		if next.Log == nil {
			next.Log = &Log{}
		}
		next.Log.MaxBackups = &n
	default:
		return fmt.Errorf("unknown setting %q", key)
	}

	if err := next.Validate(); err != nil {
		return err
	}
	*c = next
	return nil
}

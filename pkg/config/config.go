package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the top-level configuration for the query handle service and
// the handlectl command.
type Config struct {
	Handles HandlesConfig `yaml:"handles" json:"handles"`
	Tools   ToolsConfig   `yaml:"tools" json:"tools"`
	Logging LoggingConfig `yaml:"logging" json:"logging"`
}

// HandlesConfig controls handle lifetime and listing defaults.
// Durations are written as Go duration strings ("24h", "90m").
type HandlesConfig struct {
	DefaultTTL      time.Duration `yaml:"default_ttl" json:"default_ttl"`
	MaxTTL          time.Duration `yaml:"max_ttl" json:"max_ttl"`
	CleanupInterval time.Duration `yaml:"cleanup_interval" json:"cleanup_interval"`
	// WarningWindow is how close to expiry a read must be to emit a warning.
	// Zero means 10% of DefaultTTL.
	WarningWindow   time.Duration `yaml:"warning_window" json:"warning_window"`
	DefaultPageSize int           `yaml:"default_page_size" json:"default_page_size"`
	MaxPageSize     int           `yaml:"max_page_size" json:"max_page_size"`
}

// ToolsConfig controls which handle tools are registered and how much they print.
type ToolsConfig struct {
	Disabled     []string `yaml:"disabled" json:"disabled"`
	PreviewLimit int      `yaml:"preview_limit" json:"preview_limit"`
}

// LoggingConfig defines logging configuration
type LoggingConfig struct {
	// Verbosity controls logging level: quiet, normal, verbose, debug
	Verbosity string `yaml:"verbosity" json:"verbosity"`
	// Dir overrides the default ~/.queryhandles/logs directory.
	Dir string `yaml:"dir" json:"dir"`
}

// DefaultConfig returns a configuration suitable for most use cases
func DefaultConfig() *Config {
	return &Config{
		Handles: DefaultHandlesConfig(),
		Tools: ToolsConfig{
			PreviewLimit: 10,
		},
		Logging: LoggingConfig{
			Verbosity: "normal",
		},
	}
}

// DefaultHandlesConfig returns the handle lifetime defaults.
func DefaultHandlesConfig() HandlesConfig {
	h := HandlesConfig{
		DefaultTTL:      24 * time.Hour,
		MaxTTL:          48 * time.Hour,
		CleanupInterval: 5 * time.Minute,
		DefaultPageSize: 20,
		MaxPageSize:     100,
	}
	h.WarningWindow = h.DefaultTTL / 10
	return h
}

// Load reads a YAML file on top of DefaultConfig and validates the result.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	return Parse(data)
}

// Parse decodes YAML on top of DefaultConfig and validates the result.
// An unset warning_window follows the decoded default_ttl.
func Parse(data []byte) (*Config, error) {
	cfg := DefaultConfig()
	cfg.Handles.WarningWindow = 0
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Handles.WarningWindow == 0 {
		c.Handles.WarningWindow = c.Handles.DefaultTTL / 10
	}
	if err := c.Handles.Validate(); err != nil {
		return err
	}

	if c.Tools.PreviewLimit < 0 {
		return fmt.Errorf("tools.preview_limit cannot be negative")
	}

	// Set default verbosity if not specified
	if c.Logging.Verbosity == "" {
		c.Logging.Verbosity = "normal"
	}

	validLevels := map[string]bool{
		"quiet":   true,
		"normal":  true,
		"verbose": true,
		"debug":   true,
	}
	if !validLevels[c.Logging.Verbosity] {
		return fmt.Errorf("invalid logging verbosity: %s (must be 'quiet', 'normal', 'verbose', or 'debug')", c.Logging.Verbosity)
	}

	return nil
}

// Validate checks the handle lifetime settings for consistency.
func (h HandlesConfig) Validate() error {
	if h.DefaultTTL <= 0 {
		return fmt.Errorf("handles.default_ttl must be positive")
	}
	if h.MaxTTL < h.DefaultTTL {
		return fmt.Errorf("handles.max_ttl (%s) cannot be shorter than default_ttl (%s)", h.MaxTTL, h.DefaultTTL)
	}
	if h.CleanupInterval <= 0 {
		return fmt.Errorf("handles.cleanup_interval must be positive")
	}
	if h.WarningWindow < 0 || h.WarningWindow >= h.DefaultTTL {
		return fmt.Errorf("handles.warning_window must be between 0 and default_ttl")
	}
	if h.DefaultPageSize <= 0 {
		return fmt.Errorf("handles.default_page_size must be positive")
	}
	if h.MaxPageSize < h.DefaultPageSize {
		return fmt.Errorf("handles.max_page_size (%d) cannot be smaller than default_page_size (%d)", h.MaxPageSize, h.DefaultPageSize)
	}
	return nil
}

// IsToolEnabled reports whether a tool should be registered.
func (t ToolsConfig) IsToolEnabled(name string) bool {
	for _, disabled := range t.Disabled {
		if disabled == name {
			return false
		}
	}
	return true
}

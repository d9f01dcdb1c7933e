// Package config loads the engine's Options from a YAML file, the same
// way the storage node loaded its own settings.
package config

import (
	"fmt"
	"os"

	"github.com/shaigeva/tiercache/internal/coordinator"
	"gopkg.in/yaml.v3"
)

// LoggingConfig holds the logging knobs read from the YAML file. ToOptions
// does not carry them over; a Cache opened without Options.Logger logs
// through a no-op logger.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// MetricsConfig holds the metrics-exposure knobs read from the YAML file.
// ToOptions does not carry them over, and the engine serves no metrics
// endpoint of its own.
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Port    int    `yaml:"port"`
	Path    string `yaml:"path"`
}

// Config is the on-disk shape of the engine's tunables: the YAML
// mirror of Options, plus the ambient logging/metrics knobs that
// Options doesn't carry directly.
type Config struct {
	DBPath               string  `yaml:"db_path"`
	MaxMemoryItems       int     `yaml:"max_memory_items"`
	MaxMemorySizeBytes   int64   `yaml:"max_memory_size_bytes"`
	MaxDiskItems         int     `yaml:"max_disk_items"`
	MaxDiskSizeBytes     int64   `yaml:"max_disk_size_bytes"`
	MemoryTTLSeconds     float64 `yaml:"memory_ttl_seconds"`
	DiskTTLSeconds       float64 `yaml:"disk_ttl_seconds"`
	MaxItemSizeBytes     int64   `yaml:"max_item_size_bytes"`

	Logging LoggingConfig `yaml:"logging"`
	Metrics MetricsConfig `yaml:"metrics"`
}

// Load reads and validates a Config from filePath, filling in defaults
// for anything left unspecified.
func Load(filePath string) (*Config, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", filePath, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", filePath, err)
	}

	setDefaults(&cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: invalid configuration: %w", err)
	}

	return &cfg, nil
}

func setDefaults(cfg *Config) {
	if cfg.DBPath == "" {
		cfg.DBPath = "cache.db"
	}
	if cfg.MaxMemoryItems == 0 {
		cfg.MaxMemoryItems = 1000
	}
	if cfg.MaxMemorySizeBytes == 0 {
		cfg.MaxMemorySizeBytes = 64 * 1024 * 1024
	}
	if cfg.MaxDiskItems == 0 {
		cfg.MaxDiskItems = 100000
	}
	if cfg.MaxDiskSizeBytes == 0 {
		cfg.MaxDiskSizeBytes = 1024 * 1024 * 1024
	}
	if cfg.MaxItemSizeBytes == 0 {
		cfg.MaxItemSizeBytes = 10 * 1024 * 1024
	}
	// A zero TTL now expires an entry the instant it's read back (see
	// policy.Expired), so an omitted YAML field must default to a real
	// budget rather than fall through as "disabled."
	if cfg.MemoryTTLSeconds == 0 {
		cfg.MemoryTTLSeconds = 60
	}
	if cfg.DiskTTLSeconds == 0 {
		cfg.DiskTTLSeconds = 3600
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "json"
	}
	if cfg.Metrics.Path == "" {
		cfg.Metrics.Path = "/metrics"
	}
}

// Validate checks the loaded configuration for internally-inconsistent
// values that setDefaults can't paper over.
func (c *Config) Validate() error {
	if c.MaxMemoryItems < 0 {
		return fmt.Errorf("max_memory_items must not be negative")
	}
	if c.MaxDiskItems < 0 {
		return fmt.Errorf("max_disk_items must not be negative")
	}
	if c.MaxMemorySizeBytes < 0 || c.MaxDiskSizeBytes < 0 || c.MaxItemSizeBytes < 0 {
		return fmt.Errorf("size limits must not be negative")
	}
	if c.MemoryTTLSeconds < 0 || c.DiskTTLSeconds < 0 {
		return fmt.Errorf("ttl values must not be negative")
	}
	if c.MaxItemSizeBytes > c.MaxDiskSizeBytes {
		return fmt.Errorf("max_item_size_bytes must not exceed max_disk_size_bytes")
	}
	return nil
}

// ToOptions converts the loaded Config into a coordinator.Options,
// leaving Clock, Logger, and Metrics for the caller to fill in.
func (c *Config) ToOptions() coordinator.Options {
	return coordinator.Options{
		DBPath:             c.DBPath,
		MaxMemoryItems:     c.MaxMemoryItems,
		MaxMemorySizeBytes: c.MaxMemorySizeBytes,
		MaxDiskItems:       c.MaxDiskItems,
		MaxDiskSizeBytes:   c.MaxDiskSizeBytes,
		MemoryTTLSeconds:   c.MemoryTTLSeconds,
		DiskTTLSeconds:     c.DiskTTLSeconds,
		MaxItemSizeBytes:   c.MaxItemSizeBytes,
	}
}

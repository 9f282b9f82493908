// Package config handles TOML configuration for ec2inv.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/rs/zerolog"

	"github.com/yairfalse/ec2inv/internal/inventory"
	"github.com/yairfalse/ec2inv/internal/plugin"
)

// Output formats.
const (
	FormatINI  = "ini"
	FormatJSON = "json"
	FormatYAML = "yaml"
)

// FallbackRegion is used in single mode when AWS_REGION is unset.
const FallbackRegion = "us-west-1"

// MultiRegions is the region set multi mode scans when none are configured.
var MultiRegions = []string{"us-east-1", "us-east-2", "us-west-1", "us-west-2"}

// Config is the root configuration structure.
type Config struct {
	AWS       AWSConfig       `toml:"aws"`
	Inventory InventoryConfig `toml:"inventory"`
	Filter    FilterConfig    `toml:"filter"`
	OTEL      OTELConfig      `toml:"otel"`
	Metrics   MetricsConfig   `toml:"metrics"`
	Log       LogConfig       `toml:"log"`
}

// AWSConfig holds AWS provider settings.
type AWSConfig struct {
	// Region is the single-mode region.
	Region     string        `toml:"region"`
	Regions    []string      `toml:"regions"`
	Profile    string        `toml:"profile"`
	States     []string      `toml:"states"`
	TimeoutStr string        `toml:"timeout"`
	Timeout    time.Duration `toml:"-"`
}

// InventoryConfig selects what is rendered and how fetch failures are handled.
type InventoryConfig struct {
	Mode   string `toml:"mode"`
	Format string `toml:"format"`
	Policy string `toml:"policy"`
}

// FilterConfig holds key=value tag pairs.
type FilterConfig struct {
	IncludeTags []string `toml:"include_tags"`
	ExcludeTags []string `toml:"exclude_tags"`
}

// OTELConfig holds OpenTelemetry settings.
type OTELConfig struct {
	Endpoint    string       `toml:"endpoint"`
	Insecure    bool         `toml:"insecure"`
	ServiceName string       `toml:"service_name"`
	Traces      TracesConfig `toml:"traces"`
}

// TracesConfig holds tracing settings.
type TracesConfig struct {
	Enabled    bool    `toml:"enabled"`
	SampleRate float64 `toml:"sample_rate"`
}

// MetricsConfig holds metrics settings.
type MetricsConfig struct {
	// Textfile is a node_exporter textfile collector path. Empty disables it.
	Textfile string `toml:"textfile"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level string `toml:"level"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	cfg := &Config{}
	applyDefaults(cfg)
	cfg.AWS.Timeout = 30 * time.Second
	return cfg
}

// Load reads a TOML config file over the defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	cfg := &Config{}
	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	applyDefaults(cfg)

	if err := parseTimeout(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.AWS.Region == "" {
		cfg.AWS.Region = os.Getenv("AWS_REGION")
	}
	if cfg.AWS.Region == "" {
		cfg.AWS.Region = FallbackRegion
	}
	if cfg.AWS.States == nil {
		cfg.AWS.States = []string{"running"}
	}
	if cfg.AWS.TimeoutStr == "" {
		cfg.AWS.TimeoutStr = "30s"
	}
	if cfg.Inventory.Mode == "" {
		cfg.Inventory.Mode = inventory.ModeSingle
	}
	if cfg.Inventory.Format == "" {
		cfg.Inventory.Format = FormatINI
	}
	if cfg.Inventory.Policy == "" {
		cfg.Inventory.Policy = string(plugin.PolicyFailFast)
	}
	if cfg.OTEL.ServiceName == "" {
		cfg.OTEL.ServiceName = "ec2inv"
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
}

func parseTimeout(cfg *Config) error {
	d, err := time.ParseDuration(cfg.AWS.TimeoutStr)
	if err != nil {
		return fmt.Errorf("parse timeout %q: %w", cfg.AWS.TimeoutStr, err)
	}
	cfg.AWS.Timeout = d
	return nil
}

// ResolveRegions returns the regions to scan for the configured mode.
func (c *Config) ResolveRegions() []string {
	if c.Inventory.Mode == inventory.ModeMulti {
		if len(c.AWS.Regions) == 0 {
			return append([]string(nil), MultiRegions...)
		}
		return append([]string(nil), c.AWS.Regions...)
	}
	if len(c.AWS.Regions) == 1 {
		return []string{c.AWS.Regions[0]}
	}
	return []string{c.AWS.Region}
}

// Validate checks the configuration is valid.
func (c *Config) Validate() error {
	if _, err := inventory.LayoutFor(c.Inventory.Mode); err != nil {
		return fmt.Errorf("inventory: %w", err)
	}
	if c.Inventory.Mode != inventory.ModeMulti && len(c.AWS.Regions) > 1 {
		return fmt.Errorf("aws: single mode takes one region (got %d); use multi mode", len(c.AWS.Regions))
	}
	switch c.Inventory.Format {
	case FormatINI, FormatJSON, FormatYAML:
	default:
		return fmt.Errorf("inventory: unknown format %q (must be ini, json or yaml)", c.Inventory.Format)
	}
	if _, err := plugin.ParsePolicy(c.Inventory.Policy); err != nil {
		return fmt.Errorf("inventory: %w", err)
	}
	if c.AWS.Timeout < 0 {
		return fmt.Errorf("aws: timeout must not be negative (got %v)", c.AWS.Timeout)
	}
	if _, err := ParseTagPairs(c.Filter.IncludeTags); err != nil {
		return fmt.Errorf("filter: include_tags: %w", err)
	}
	if _, err := ParseTagPairs(c.Filter.ExcludeTags); err != nil {
		return fmt.Errorf("filter: exclude_tags: %w", err)
	}
	if _, err := zerolog.ParseLevel(c.Log.Level); err != nil {
		return fmt.Errorf("log: %w", err)
	}
	if c.OTEL.Traces.SampleRate < 0.0 || c.OTEL.Traces.SampleRate > 1.0 {
		return fmt.Errorf("otel: traces.sample_rate must be between 0.0 and 1.0 (got %v)", c.OTEL.Traces.SampleRate)
	}
	return nil
}

// ParseTagPairs turns "key=value" strings into a map. Later pairs win.
func ParseTagPairs(pairs []string) (map[string]string, error) {
	tags := make(map[string]string, len(pairs))
	for _, p := range pairs {
		k, v, ok := strings.Cut(p, "=")
		if !ok || k == "" {
			return nil, fmt.Errorf("invalid tag %q (want key=value)", p)
		}
		tags[k] = v
	}
	return tags, nil
}

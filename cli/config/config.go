package config

import (
	"fmt"
	"time"

	"github.com/pithecene-io/mediaresolve/policy"
)

// Config represents a mediaresolve.yaml configuration file.
// All values are optional and act as defaults for resolve flags.
// CLI flags always override config values.
type Config struct {
	ScratchDir     string        `yaml:"scratch_dir"`
	Filter         string        `yaml:"filter"`
	SelectionLimit int           `yaml:"selection_limit"`
	Parallel       int           `yaml:"parallel"`
	HTTPTimeout    Duration      `yaml:"http_timeout"`
	Policy         PolicyConfig  `yaml:"policy"`
	Source         StorageConfig `yaml:"source"`
	Report         ReportConfig  `yaml:"report"`
	Adapter        AdapterConfig `yaml:"adapter"`
}

// PolicyConfig holds validation limits from the config file.
type PolicyConfig struct {
	MaxImageBytes   int64    `yaml:"max_image_bytes"`
	MaxVideoBytes   int64    `yaml:"max_video_bytes"`
	ImageExtensions []string `yaml:"image_extensions"`
}

// Policy converts the config block to a validation policy.
// Zero fields fall back to policy defaults.
func (p PolicyConfig) Policy() policy.Policy {
	return policy.Policy{
		MaxImageBytes:   p.MaxImageBytes,
		MaxVideoBytes:   p.MaxVideoBytes,
		ImageExtensions: p.ImageExtensions,
	}.WithDefaults()
}

// StorageConfig describes a lode-backed store.
type StorageConfig struct {
	Backend     string `yaml:"backend"`
	Path        string `yaml:"path"`
	Region      string `yaml:"region"`
	Endpoint    string `yaml:"endpoint"`
	S3PathStyle bool   `yaml:"s3_path_style"`
}

// Enabled reports whether a store was configured.
func (s StorageConfig) Enabled() bool {
	return s.Backend != "" || s.Path != ""
}

// ReportConfig holds outcome report persistence defaults.
type ReportConfig struct {
	StorageConfig `yaml:",inline"`
	Format        string `yaml:"format"`
}

// AdapterConfig holds completion notification defaults.
type AdapterConfig struct {
	Type    string            `yaml:"type"`
	URL     string            `yaml:"url"`
	Channel string            `yaml:"channel,omitempty"`
	Headers map[string]string `yaml:"headers,omitempty"`
	Timeout Duration          `yaml:"timeout,omitempty"`
	Retries *int              `yaml:"retries,omitempty"`
}

// Duration wraps time.Duration for YAML string parsing (e.g. "10s", "5m").
type Duration struct {
	time.Duration
}

// UnmarshalYAML parses a duration string like "10s" or "5m30s".
func (d *Duration) UnmarshalYAML(unmarshal func(any) error) error {
	var s string
	if err := unmarshal(&s); err != nil {
		return err
	}
	if s == "" {
		return nil
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}
	if parsed < 0 {
		return fmt.Errorf("invalid duration %q: must not be negative", s)
	}
	d.Duration = parsed
	return nil
}

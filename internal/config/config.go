// Package config handles configuration loading and shared data structures.
package config

import (
	"fmt"
	"os"
	"runtime"

	"github.com/woozymasta/gpx2geojson/internal/convert"
	"github.com/woozymasta/gpx2geojson/internal/geo"

	"gopkg.in/yaml.v3"
)

// DefaultMaxBodyBytes caps the size of a GPX upload accepted by the server.
const DefaultMaxBodyBytes int64 = 32 << 20

// Config represents the root configuration file structure.
type Config struct {
	Defaults convert.Options `yaml:"defaults" json:"defaults"`
	Server   Server          `yaml:"server" json:"server"`
	Output   Output          `yaml:"output" json:"output"`
	Batch    Batch           `yaml:"batch" json:"batch"`
}

// Server holds HTTP service settings.
type Server struct {
	Addr         string `yaml:"addr,omitempty" json:"addr,omitempty"`
	Port         int    `yaml:"port,omitempty" json:"port,omitempty"`
	MaxBodyBytes int64  `yaml:"max_body_bytes,omitempty" json:"max_body_bytes,omitempty"`
	Gzip         *bool  `yaml:"gzip,omitempty" json:"gzip,omitempty"`
}

// Output controls how GeoJSON files are rendered by the commands.
type Output struct {
	Format  string `yaml:"format,omitempty" json:"format,omitempty"`
	Compact bool   `yaml:"compact,omitempty" json:"compact,omitempty"`
}

// Batch holds settings for bulk conversion.
type Batch struct {
	Concurrency int  `yaml:"concurrency,omitempty" json:"concurrency,omitempty"`
	Force       bool `yaml:"force,omitempty" json:"force,omitempty"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	cfg := &Config{Defaults: convert.DefaultOptions()}
	cfg.applyDefaults()
	return cfg
}

// Load reads and parses the YAML configuration file from the specified path.
// Missing settings take their defaults; invalid ones are reported.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	return Parse(data)
}

// Parse decodes a YAML configuration document.
func Parse(data []byte) (*Config, error) {
	cfg := Config{Defaults: convert.DefaultOptions()}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Server.Addr == "" {
		c.Server.Addr = "0.0.0.0"
	}
	if c.Server.Port == 0 {
		c.Server.Port = 8080
	}
	if c.Server.MaxBodyBytes == 0 {
		c.Server.MaxBodyBytes = DefaultMaxBodyBytes
	}
	if c.Server.Gzip == nil {
		enabled := true
		c.Server.Gzip = &enabled
	}
	if c.Output.Format == "" {
		c.Output.Format = geo.FormatJSON
	}
	if c.Batch.Concurrency == 0 {
		c.Batch.Concurrency = runtime.NumCPU()
	}
}

// Validate checks settings that have no sensible fallback.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be between 1 and 65535")
	}
	if c.Server.MaxBodyBytes < 0 {
		return fmt.Errorf("server.max_body_bytes must be > 0")
	}
	if c.Output.Format != geo.FormatJSON && c.Output.Format != geo.FormatYAML {
		return fmt.Errorf("output.format must be json or yaml")
	}
	if c.Batch.Concurrency < 0 {
		return fmt.Errorf("batch.concurrency must be > 0")
	}
	if err := c.Defaults.Validate(); err != nil {
		return fmt.Errorf("defaults: %w", err)
	}

	return nil
}

// GzipEnabled reports whether server responses should be compressed.
func (s Server) GzipEnabled() bool {
	return s.Gzip == nil || *s.Gzip
}

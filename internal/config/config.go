// Package config loads process configuration from YAML or TOML files.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/zeusync/ownership/internal/core/observability/log"
	"gopkg.in/yaml.v3"
)

type Config struct {
	World     WorldConfig     `yaml:"world" toml:"world"`
	Identity  IdentityConfig  `yaml:"identity" toml:"identity"`
	Logging   LoggingConfig   `yaml:"logging" toml:"logging"`
	Inspector InspectorConfig `yaml:"inspector" toml:"inspector"`
	Persist   PersistConfig   `yaml:"persist" toml:"persist"`
}

type WorldConfig struct {
	Name      string        `yaml:"name" toml:"name"`
	TickRate  time.Duration `yaml:"tick_rate" toml:"tick_rate"`
	QueueSize int           `yaml:"queue_size" toml:"queue_size"`
	Drifters  int           `yaml:"drifters" toml:"drifters"` // demo entities spawned at boot
	Beacons   int           `yaml:"beacons" toml:"beacons"`
}

type IdentityConfig struct {
	// Start is the last identity considered taken; allocation begins after it.
	Start uint64 `yaml:"start" toml:"start"`
}

type LoggingConfig struct {
	Level  string `yaml:"level" toml:"level"`
	Format string `yaml:"format" toml:"format"` // "json" or "console"
}

type InspectorConfig struct {
	Enabled      bool          `yaml:"enabled" toml:"enabled"`
	Addr         string        `yaml:"addr" toml:"addr"`
	PushInterval time.Duration `yaml:"push_interval" toml:"push_interval"`
}

type PersistConfig struct {
	Dir      string `yaml:"dir" toml:"dir"`
	Snapshot string `yaml:"snapshot" toml:"snapshot"`
	// LoadOnStart restores Snapshot before the loop starts, if it exists.
	LoadOnStart bool `yaml:"load_on_start" toml:"load_on_start"`
	// SaveOnExit writes Snapshot after the loop stops.
	SaveOnExit bool `yaml:"save_on_exit" toml:"save_on_exit"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return defaults()
}

// Load reads path over the defaults. The format follows the extension:
// .yaml/.yml or .toml.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}

	var format Format
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		format = FormatYAML
	case ".toml":
		format = FormatTOML
	default:
		return nil, fmt.Errorf("config %s: %w", path, ErrUnknownFormat)
	}

	cfg, err := Decode(bytes.NewReader(data), format)
	if err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, nil
}

type Format string

const (
	FormatYAML Format = "yaml"
	FormatTOML Format = "toml"
)

// Decode reads a configuration in the given format over the defaults and
// validates the result.
func Decode(r io.Reader, format Format) (*Config, error) {
	cfg := defaults()
	switch format {
	case FormatYAML:
		if err := yaml.NewDecoder(r).Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
			return nil, err
		}
	case FormatTOML:
		if _, err := toml.NewDecoder(r).Decode(cfg); err != nil {
			return nil, err
		}
	default:
		return nil, ErrUnknownFormat
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks value ranges and returns every problem found.
func (c *Config) Validate() error {
	var errs []error
	if c.World.TickRate <= 0 {
		errs = append(errs, fmt.Errorf("world.tick_rate must be positive, got %s", c.World.TickRate))
	}
	if c.World.QueueSize <= 0 {
		errs = append(errs, fmt.Errorf("world.queue_size must be positive, got %d", c.World.QueueSize))
	}
	if c.World.Drifters < 0 || c.World.Beacons < 0 {
		errs = append(errs, errors.New("world demo entity counts must not be negative"))
	}
	if _, err := log.ParseLevel(c.Logging.Level); err != nil {
		errs = append(errs, fmt.Errorf("logging.level: %w", err))
	}
	if c.Logging.Format != "json" && c.Logging.Format != "console" {
		errs = append(errs, fmt.Errorf("logging.format must be json or console, got %q", c.Logging.Format))
	}
	if c.Inspector.Enabled {
		if c.Inspector.Addr == "" {
			errs = append(errs, errors.New("inspector.addr is required when the inspector is enabled"))
		}
		if c.Inspector.PushInterval <= 0 {
			errs = append(errs, fmt.Errorf("inspector.push_interval must be positive, got %s", c.Inspector.PushInterval))
		}
	}
	if (c.Persist.LoadOnStart || c.Persist.SaveOnExit) && c.Persist.Snapshot == "" {
		errs = append(errs, errors.New("persist.snapshot is required to load or save"))
	}
	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", ErrInvalid, errors.Join(errs...))
	}
	return nil
}

func defaults() *Config {
	return &Config{
		World: WorldConfig{
			Name:      "world",
			TickRate:  50 * time.Millisecond,
			QueueSize: 256,
			Drifters:  4,
			Beacons:   1,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
		Inspector: InspectorConfig{
			Enabled:      true,
			Addr:         "127.0.0.1:8089",
			PushInterval: time.Second,
		},
		Persist: PersistConfig{
			Dir:      "data",
			Snapshot: "world.json",
		},
	}
}

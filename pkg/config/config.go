// Package config loads the osu2sm settings file.
package config

import (
	"fmt"
	"os"

	"github.com/goccy/go-yaml"

	"github.com/james-see/osu2sm/pkg/converter"
	"github.com/james-see/osu2sm/pkg/converter/lanes"
)

// Config holds every tunable used by the CLI, the server and the TUI.
type Config struct {
	Lanes       string `yaml:"lanes"`
	Seed        int64  `yaml:"seed"`
	LaneCount   int    `yaml:"lane_count"`
	Resolution  int    `yaml:"resolution"`
	MaxMeasures int    `yaml:"max_measures"`
	Template    string `yaml:"template"`
	Workers     int    `yaml:"workers"`
	Tempo       Tempo  `yaml:"tempo"`
	Server      Server `yaml:"server"`
}

// Tempo configures the external tempo estimator
type Tempo struct {
	Command string   `yaml:"command"`
	Args    []string `yaml:"args"`
}

// Server configures the REST API
type Server struct {
	Port int `yaml:"port"`
}

// Default returns the built-in configuration
func Default() Config {
	q := converter.DefaultQuantizerConfig()
	return Config{
		Lanes:       lanes.NameRandom,
		Seed:        0,
		LaneCount:   q.Lanes,
		Resolution:  q.Resolution,
		MaxMeasures: q.MaxMeasures,
		Workers:     5,
		Tempo: Tempo{
			Command: "aubio",
			Args:    []string{"tempo"},
		},
		Server: Server{Port: 8080},
	}
}

// Load reads path on top of the defaults. An empty path yields the defaults.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("failed to read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks the values that cannot be caught when they are used
func (c Config) Validate() error {
	if _, err := lanes.ByName(c.Lanes, c.Seed); err != nil {
		return err
	}
	if c.Workers <= 0 {
		return fmt.Errorf("workers must be positive, got %d", c.Workers)
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port %d", c.Server.Port)
	}
	return c.QuantizerConfig().Validate()
}

// QuantizerConfig returns the quantizer settings described by c
func (c Config) QuantizerConfig() converter.QuantizerConfig {
	q := converter.DefaultQuantizerConfig()
	q.Lanes = c.LaneCount
	q.Resolution = c.Resolution
	q.MaxMeasures = c.MaxMeasures
	return q
}

// NewConverter builds a converter with the configured lanes, grid and template
func (c Config) NewConverter() (*converter.Converter, error) {
	strategy, err := lanes.ByName(c.Lanes, c.Seed)
	if err != nil {
		return nil, err
	}

	conv := converter.New(strategy)
	conv.SetConfig(c.QuantizerConfig())
	if c.Template != "" {
		tmpl, err := converter.LoadTemplate(c.Template)
		if err != nil {
			return nil, err
		}
		conv.SetTemplate(tmpl)
	}
	return conv, nil
}

// Write saves c as YAML
func (c Config) Write(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

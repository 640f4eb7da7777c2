package main

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the demo's configuration, read from a YAML file. Zero fields take
// the defaults below.
type Config struct {
	TicksPerSecond float64       `yaml:"ticks_per_second"`
	Duration       time.Duration `yaml:"duration"`
	Entities       int           `yaml:"entities"`
	SpawnEvery     int           `yaml:"spawn_every"`
	Bounds         float64       `yaml:"bounds"`
	Width          int           `yaml:"width"`
	LogLevel       string        `yaml:"log_level"`
	Seed           int64         `yaml:"seed"`
}

func defaultConfig() Config {
	return Config{
		TicksPerSecond: 30,
		Duration:       3 * time.Second,
		Entities:       16,
		SpawnEvery:     5,
		Bounds:         100,
		Width:          24,
		LogLevel:       "info",
		Seed:           1,
	}
}

// loadConfig reads path over the defaults. An empty path returns the
// defaults.
func loadConfig(path string) (Config, error) {
	cfg := defaultConfig()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config: %w", err)
	}
	var file Config
	if err := yaml.Unmarshal(data, &file); err != nil {
		return Config{}, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	cfg.merge(file)
	return cfg, cfg.validate()
}

func (c *Config) merge(o Config) {
	if o.TicksPerSecond != 0 {
		c.TicksPerSecond = o.TicksPerSecond
	}
	if o.Duration != 0 {
		c.Duration = o.Duration
	}
	if o.Entities != 0 {
		c.Entities = o.Entities
	}
	if o.SpawnEvery != 0 {
		c.SpawnEvery = o.SpawnEvery
	}
	if o.Bounds != 0 {
		c.Bounds = o.Bounds
	}
	if o.Width != 0 {
		c.Width = o.Width
	}
	if o.LogLevel != "" {
		c.LogLevel = o.LogLevel
	}
	if o.Seed != 0 {
		c.Seed = o.Seed
	}
}

func (c *Config) validate() error {
	if c.TicksPerSecond <= 0 {
		return fmt.Errorf("ticks_per_second must be positive, got %v", c.TicksPerSecond)
	}
	if c.Duration < 0 {
		return fmt.Errorf("duration must not be negative, got %v", c.Duration)
	}
	if c.Entities < 0 {
		return fmt.Errorf("entities must not be negative, got %d", c.Entities)
	}
	if c.SpawnEvery < 0 {
		return fmt.Errorf("spawn_every must not be negative, got %d", c.SpawnEvery)
	}
	if c.Bounds <= 0 {
		return fmt.Errorf("bounds must be positive, got %v", c.Bounds)
	}
	if _, err := parseLevel(c.LogLevel); err != nil {
		return err
	}
	return nil
}

func parseLevel(s string) (slog.Level, error) {
	var l slog.Level
	if err := l.UnmarshalText([]byte(s)); err != nil {
		return 0, fmt.Errorf("invalid log_level %q: %w", s, err)
	}
	return l, nil
}

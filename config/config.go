// Package config loads battlecore settings from YAML with environment
// overrides.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"

	"github.com/nathoo/battlecore/engine"
	"github.com/nathoo/battlecore/engine/events"
)

// Config holds every tunable of a battle run.
type Config struct {
	// Content directory holding battle.lua and friends.
	Content string `yaml:"content" env:"BATTLECORE_CONTENT"`

	Seed         int64   `yaml:"seed" env:"BATTLECORE_SEED"`
	ReactionMode string  `yaml:"reaction_mode" env:"BATTLECORE_REACTION_MODE"` // all | first
	MaxTurns     int     `yaml:"max_turns" env:"BATTLECORE_MAX_TURNS"`
	TurnDuration float64 `yaml:"turn_duration" env:"BATTLECORE_TURN_DURATION"` // seconds
	MaxSteps     int     `yaml:"max_steps" env:"BATTLECORE_MAX_STEPS"`

	LogLevel string `yaml:"log_level" env:"BATTLECORE_LOG_LEVEL"`

	Batch BatchConfig `yaml:"batch"`
}

// BatchConfig controls parallel simulation.
type BatchConfig struct {
	Runs    int `yaml:"runs" env:"BATTLECORE_BATCH_RUNS"`
	Workers int `yaml:"workers" env:"BATTLECORE_BATCH_WORKERS"`
}

// Default returns Config with sensible defaults.
func Default() Config {
	o := engine.DefaultOptions()
	return Config{
		Content:      ".",
		Seed:         o.Seed,
		ReactionMode: o.Mode.String(),
		MaxTurns:     o.MaxTurns,
		TurnDuration: o.TurnDuration,
		MaxSteps:     o.MaxSteps,
		LogLevel:     "info",
		Batch:        BatchConfig{Runs: 100},
	}
}

// Load reads the YAML file at path over the defaults, applies environment
// overrides and validates the result. A missing file yields the defaults.
// Unknown keys are rejected.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, os.ErrNotExist):
		case err != nil:
			return cfg, fmt.Errorf("reading config %s: %w", path, err)
		default:
			if err := decode(data, &cfg); err != nil {
				return cfg, fmt.Errorf("parsing config %s: %w", path, err)
			}
		}
	}

	if err := ParseEnv(&cfg); err != nil {
		return cfg, err
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func decode(data []byte, cfg *Config) error {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

// ParseEnv loads configuration from environment variables. Unset
// variables leave the field as it is.
func ParseEnv(target any) error {
	if err := env.Parse(target); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

// Validate reports every invalid setting at once.
func (c Config) Validate() error {
	var errs []error
	if _, err := events.ParseMode(c.ReactionMode); err != nil {
		errs = append(errs, err)
	}
	if _, err := c.Level(); err != nil {
		errs = append(errs, err)
	}
	if c.MaxTurns < 0 {
		errs = append(errs, fmt.Errorf("max_turns must not be negative, got %d", c.MaxTurns))
	}
	if c.TurnDuration < 0 {
		errs = append(errs, fmt.Errorf("turn_duration must not be negative, got %g", c.TurnDuration))
	}
	if c.MaxSteps <= 0 {
		errs = append(errs, fmt.Errorf("max_steps must be positive, got %d", c.MaxSteps))
	}
	if c.Batch.Runs < 0 || c.Batch.Workers < 0 {
		errs = append(errs, fmt.Errorf("batch runs and workers must not be negative"))
	}
	return errors.Join(errs...)
}

// Level parses LogLevel.
func (c Config) Level() (slog.Level, error) {
	var l slog.Level
	if err := l.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return l, fmt.Errorf("log_level: %w", err)
	}
	return l, nil
}

// EngineOptions converts the config into engine options. The config must
// already be valid.
func (c Config) EngineOptions(log *slog.Logger) engine.Options {
	mode, _ := events.ParseMode(c.ReactionMode)
	return engine.Options{
		Seed:         c.Seed,
		Mode:         mode,
		MaxTurns:     c.MaxTurns,
		TurnDuration: c.TurnDuration,
		MaxSteps:     c.MaxSteps,
		Logger:       log,
	}
}

// Package config holds simulation parameters, their defaults, YAML loading,
// and validation.
package config

import (
	"errors"
	"fmt"
	"math"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/talgya/crossing-sim/internal/signal"
	"github.com/talgya/crossing-sim/internal/world"
)

// Config holds every tunable of a run.
type Config struct {
	Width  int `yaml:"width" json:"width"`
	Height int `yaml:"height" json:"height"`

	// Per-tick spawn probabilities.
	CarSpawnRate        float64 `yaml:"car_spawn_rate" json:"car_spawn_rate"`
	PedestrianSpawnRate float64 `yaml:"pedestrian_spawn_rate" json:"pedestrian_spawn_rate"`
	EmergencySpawnRate  float64 `yaml:"emergency_spawn_rate" json:"emergency_spawn_rate"`

	// Signal timing, in ticks.
	GreenDuration int    `yaml:"green_duration" json:"green_duration"`
	RedDuration   int    `yaml:"red_duration" json:"red_duration"`
	WalkDuration  int    `yaml:"walk_duration" json:"walk_duration"`
	SignalMode    string `yaml:"signal_mode" json:"signal_mode"` // "pedestrian" or "fixed"

	Seed int64 `yaml:"seed" json:"seed"` // 0 = pick one at startup

	// Intersection overrides the default (width/2, height/2) placement.
	Intersection *world.Position `yaml:"intersection,omitempty" json:"intersection,omitempty"`

	Demand Demand `yaml:"demand" json:"demand"`
}

// Demand modulates spawn rates over time with smooth noise.
type Demand struct {
	Amplitude float64 `yaml:"amplitude" json:"amplitude"` // 0 disables modulation
	Period    float64 `yaml:"period" json:"period"`       // Ticks per noise unit
}

// Default returns the baseline configuration.
func Default() Config {
	return Config{
		Width:               30,
		Height:              3,
		CarSpawnRate:        0.15,
		PedestrianSpawnRate: 0.05,
		EmergencySpawnRate:  0.01,
		GreenDuration:       10,
		RedDuration:         10,
		WalkDuration:        5,
		SignalMode:          "pedestrian",
		Demand: Demand{
			Amplitude: 0,
			Period:    50,
		},
	}
}

// Load reads a YAML file on top of Default and validates the result.
func Load(path string) (Config, error) {
	cfg := Default()
	raw, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return cfg, fmt.Errorf("%s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// IntersectionPos returns the configured intersection, defaulting to the
// grid center.
func (c Config) IntersectionPos() world.Position {
	if c.Intersection != nil {
		return *c.Intersection
	}
	return world.Position{X: c.Width / 2, Y: c.Height / 2}
}

// Timing returns the signal timing for this configuration.
func (c Config) Timing() (signal.Timing, error) {
	mode, err := signal.ParseMode(c.SignalMode)
	if err != nil {
		return signal.Timing{}, err
	}
	return signal.Timing{
		Mode:  mode,
		Green: c.GreenDuration,
		Red:   c.RedDuration,
		Walk:  c.WalkDuration,
	}, nil
}

// ConfigurationError describes one invalid setting.
type ConfigurationError struct {
	Field  string
	Reason string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// Validate checks every setting and reports all problems at once. Each
// joined error is a *ConfigurationError.
func (c Config) Validate() error {
	var errs []error
	bad := func(field, format string, args ...any) {
		errs = append(errs, &ConfigurationError{Field: field, Reason: fmt.Sprintf(format, args...)})
	}

	// At least two rows so a pedestrian's target row differs from its spawn row.
	if c.Width < 2 {
		bad("width", "must be at least 2, got %d", c.Width)
	}
	if c.Height < 2 {
		bad("height", "must be at least 2, got %d", c.Height)
	}

	rates := []struct {
		field string
		v     float64
	}{
		{"car_spawn_rate", c.CarSpawnRate},
		{"pedestrian_spawn_rate", c.PedestrianSpawnRate},
		{"emergency_spawn_rate", c.EmergencySpawnRate},
	}
	for _, r := range rates {
		if math.IsNaN(r.v) || r.v < 0 {
			bad(r.field, "must be a non-negative probability, got %v", r.v)
		}
	}

	durations := []struct {
		field string
		v     int
	}{
		{"green_duration", c.GreenDuration},
		{"red_duration", c.RedDuration},
		{"walk_duration", c.WalkDuration},
	}
	for _, d := range durations {
		if d.v < 1 {
			bad(d.field, "must be at least 1 tick, got %d", d.v)
		}
	}

	if _, err := signal.ParseMode(c.SignalMode); err != nil {
		bad("signal_mode", "%v", err)
	}

	if c.Width >= 2 && c.Height >= 2 {
		p := c.IntersectionPos()
		if p.X < 0 || p.X >= c.Width || p.Y < 0 || p.Y >= c.Height {
			bad("intersection", "%v is outside the %dx%d grid", p, c.Width, c.Height)
		}
	}

	if math.IsNaN(c.Demand.Amplitude) || c.Demand.Amplitude < 0 {
		bad("demand.amplitude", "must be non-negative, got %v", c.Demand.Amplitude)
	}
	if c.Demand.Amplitude > 0 && !(c.Demand.Period > 0) {
		bad("demand.period", "must be positive when demand is enabled, got %v", c.Demand.Period)
	}

	return errors.Join(errs...)
}

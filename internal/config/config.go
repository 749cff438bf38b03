package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"vtolpilot/internal/baro"
)

type Config struct {
	Loop      LoopConfig      `yaml:"loop"`
	Vehicle   VehicleConfig   `yaml:"vehicle"`
	Baro      BaroConfig      `yaml:"baro"`
	Scenario  ScenarioConfig  `yaml:"scenario"`
	Telemetry TelemetryConfig `yaml:"telemetry"`
	Log       LogConfig       `yaml:"log"`
}

// LogConfig optionally mirrors the log to a size-rotated file.
type LogConfig struct {
	File       string `yaml:"file"`
	MaxSizeMB  int    `yaml:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups"`
	MaxAgeDays int    `yaml:"max_age_days"`
	Compress   bool   `yaml:"compress"`
}

type LoopConfig struct {
	RateHz int `yaml:"rate_hz"`
	// Realtime paces the loop against the wall clock instead of stepping
	// as fast as possible.
	Realtime bool `yaml:"realtime"`
}

type VehicleConfig struct {
	LandableAltCm int32 `yaml:"landable_alt_cm"`
	TerrainFollow bool  `yaml:"terrain_follow"`
}

type BaroConfig struct {
	Instances []BaroInstanceConfig `yaml:"instances"`
}

type BaroInstanceConfig struct {
	Wind baro.WindCoeff `yaml:"wind"`
}

type ScenarioConfig struct {
	Path string `yaml:"path"`
	Loop bool   `yaml:"loop"`
}

type TelemetryConfig struct {
	Enable bool         `yaml:"enable"`
	Dest   string       `yaml:"dest"`
	Record RecordConfig `yaml:"record"`
}

// RecordConfig writes every tick to a tick log for later summary or replay.
type RecordConfig struct {
	Enable bool   `yaml:"enable"`
	Path   string `yaml:"path"`
}

// WindCoeffs returns the per-instance wind calibration in instance order.
func (c Config) WindCoeffs() []baro.WindCoeff {
	out := make([]baro.WindCoeff, 0, len(c.Baro.Instances))
	for _, in := range c.Baro.Instances {
		out = append(out, in.Wind)
	}
	return out
}

func Load(path string) (Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return Config{}, err
	}
	return Parse(b)
}

// Parse unmarshals YAML, validates it and fills defaults.
func Parse(b []byte) (Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return Config{}, err
	}

	if cfg.Loop.RateHz == 0 {
		cfg.Loop.RateHz = 50
	}
	if cfg.Loop.RateHz < 0 || cfg.Loop.RateHz > 1000 {
		return Config{}, fmt.Errorf("loop.rate_hz must be in 1..1000")
	}

	if cfg.Vehicle.LandableAltCm == 0 {
		cfg.Vehicle.LandableAltCm = 1500
	}
	if cfg.Vehicle.LandableAltCm < 0 {
		return Config{}, fmt.Errorf("vehicle.landable_alt_cm must be > 0")
	}

	// A vehicle always has at least one baro; an empty list means one
	// uncompensated instance.
	if len(cfg.Baro.Instances) == 0 {
		cfg.Baro.Instances = []BaroInstanceConfig{{}}
	}
	if len(cfg.Baro.Instances) > 3 {
		return Config{}, fmt.Errorf("baro.instances supports at most 3 sensors")
	}
	for i, in := range cfg.Baro.Instances {
		if err := in.Wind.Validate(); err != nil {
			return Config{}, fmt.Errorf("baro.instances[%d].wind.%v", i, err)
		}
	}

	if cfg.Scenario.Path == "" {
		return Config{}, fmt.Errorf("scenario.path is required")
	}

	if cfg.Telemetry.Enable && cfg.Telemetry.Dest == "" {
		return Config{}, fmt.Errorf("telemetry.dest is required when telemetry.enable is true")
	}
	if cfg.Telemetry.Record.Enable && cfg.Telemetry.Record.Path == "" {
		return Config{}, fmt.Errorf("telemetry.record.path is required when telemetry.record.enable is true")
	}

	if cfg.Log.File != "" {
		if cfg.Log.MaxSizeMB == 0 {
			cfg.Log.MaxSizeMB = 32
		}
		if cfg.Log.MaxSizeMB < 0 || cfg.Log.MaxBackups < 0 || cfg.Log.MaxAgeDays < 0 {
			return Config{}, fmt.Errorf("log rotation limits must be >= 0")
		}
	}

	return cfg, nil
}

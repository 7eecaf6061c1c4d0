// Package config provides configuration for the weight estimator.
//
// Config file locations (priority order):
//  1. $WEIGHT_ESTIMATOR_CONFIG
//  2. ./weight-estimator.yaml
//  3. ~/.config/weight-estimator/config.yaml
//
// Without a config file the defaults below are used. Command line flags
// override individual values after loading.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"weight-estimator/pkg/colorutil"

	"go.uber.org/multierr"
	"gopkg.in/yaml.v3"
)

// EnvConfigPath names the environment variable that points at a config file.
const EnvConfigPath = "WEIGHT_ESTIMATOR_CONFIG"

// Scale calibration modes.
const (
	ScaleManual    = "manual"
	ScaleReference = "reference"
)

// Config is the full tool configuration.
type Config struct {
	Camera       CameraConfig       `yaml:"camera"`
	Scale        ScaleConfig        `yaml:"scale"`
	Density      DensityConfig      `yaml:"density"`
	Segmentation SegmentationConfig `yaml:"segmentation"`
	Output       OutputConfig       `yaml:"output"`
	Log          LogConfig          `yaml:"log"`
}

// CameraConfig selects the capture device.
type CameraConfig struct {
	Device int `yaml:"device"`
}

// ScaleConfig selects and parameterises the calibration strategy.
type ScaleConfig struct {
	Mode            string             `yaml:"mode"`
	ManualCmPerPx   float64            `yaml:"manual_cm_per_px"`
	ReferenceSizeCm float64            `yaml:"reference_size_cm"`
	HSV             colorutil.HSVRange `yaml:"hsv"`
	OpenIterations  int                `yaml:"open_iterations"`
}

// DensityConfig locates the density table.
type DensityConfig struct {
	Table string `yaml:"table"`
	Label string `yaml:"label"`
}

// SegmentationConfig tunes GrabCut.
type SegmentationConfig struct {
	Iterations   int     `yaml:"iterations"`
	InsetPercent float64 `yaml:"inset_percent"`
}

// OutputConfig controls where results go.
type OutputConfig struct {
	Dir     string `yaml:"dir"`
	History string `yaml:"history"`
}

// LogConfig sets the log level.
type LogConfig struct {
	Level string `yaml:"level"`
}

// DefaultConfig returns the built-in defaults. The manual scale of 0.05 cm/px
// corresponds to 20 pixels per centimetre at the reference camera distance.
func DefaultConfig() *Config {
	return &Config{
		Scale: ScaleConfig{
			Mode:            ScaleManual,
			ManualCmPerPx:   0.05,
			ReferenceSizeCm: 2.5,
			HSV:             colorutil.BlueBand,
		},
		Density: DensityConfig{
			Table: "data/density_db.json",
			Label: "apple",
		},
		Segmentation: SegmentationConfig{
			Iterations:   5,
			InsetPercent: 10,
		},
		Output: OutputConfig{
			Dir: "data",
		},
		Log: LogConfig{Level: "info"},
	}
}

// Load finds and loads the config file, or returns defaults if none found.
// The second return value is the path used, empty for defaults.
func Load() (*Config, string, error) {
	path := FindConfigPath()
	if path == "" {
		return DefaultConfig(), "", nil
	}
	return LoadFromPath(path)
}

// LoadOrFind loads the file at path when one is given, and otherwise searches
// the standard locations like Load.
func LoadOrFind(path string) (*Config, string, error) {
	if path != "" {
		return LoadFromPath(path)
	}
	return Load()
}

// LoadFromPath loads config from a specific path.
func LoadFromPath(path string) (*Config, string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, path, fmt.Errorf("read config: %w", err)
	}

	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, path, fmt.Errorf("parse config: %w", err)
	}
	cfg.applyDefaults()

	return cfg, path, nil
}

// FindConfigPath returns the first existing config file, or "".
func FindConfigPath() string {
	if p := os.Getenv(EnvConfigPath); p != "" {
		return p
	}
	candidates := []string{"weight-estimator.yaml"}
	if dir, err := os.UserConfigDir(); err == nil {
		candidates = append(candidates, filepath.Join(dir, "weight-estimator", "config.yaml"))
	}
	for _, c := range candidates {
		if _, err := os.Stat(c); err == nil {
			return c
		}
	}
	return ""
}

// Save writes config to path.
func (c *Config) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}

// applyDefaults fills values a partial file left empty.
func (c *Config) applyDefaults() {
	d := DefaultConfig()
	if c.Scale.Mode == "" {
		c.Scale.Mode = d.Scale.Mode
	}
	if c.Scale.HSV == (colorutil.HSVRange{}) {
		c.Scale.HSV = d.Scale.HSV
	}
	if c.Density.Table == "" {
		c.Density.Table = d.Density.Table
	}
	if c.Segmentation.Iterations == 0 {
		c.Segmentation.Iterations = d.Segmentation.Iterations
	}
	if c.Output.Dir == "" {
		c.Output.Dir = d.Output.Dir
	}
	if c.Log.Level == "" {
		c.Log.Level = d.Log.Level
	}
}

// Validate reports every problem with the configuration at once.
func (c *Config) Validate() error {
	var err error
	switch c.Scale.Mode {
	case ScaleManual:
		if c.Scale.ManualCmPerPx <= 0 {
			err = multierr.Append(err, fmt.Errorf("scale.manual_cm_per_px must be > 0, got %v", c.Scale.ManualCmPerPx))
		}
	case ScaleReference:
		if c.Scale.ReferenceSizeCm <= 0 {
			err = multierr.Append(err, fmt.Errorf("scale.reference_size_cm must be > 0, got %v", c.Scale.ReferenceSizeCm))
		}
		if !c.Scale.HSV.Valid() {
			err = multierr.Append(err, errors.New("scale.hsv bounds out of range"))
		}
	default:
		err = multierr.Append(err, fmt.Errorf("scale.mode must be %q or %q, got %q", ScaleManual, ScaleReference, c.Scale.Mode))
	}
	if c.Scale.OpenIterations < 0 {
		err = multierr.Append(err, errors.New("scale.open_iterations must be >= 0"))
	}
	if c.Density.Table == "" {
		err = multierr.Append(err, errors.New("density.table is required"))
	}
	if c.Segmentation.Iterations < 0 {
		err = multierr.Append(err, errors.New("segmentation.iterations must be >= 0"))
	}
	if c.Segmentation.InsetPercent < 0 || c.Segmentation.InsetPercent >= 50 {
		err = multierr.Append(err, fmt.Errorf("segmentation.inset_percent must be in [0, 50), got %v", c.Segmentation.InsetPercent))
	}
	if c.Camera.Device < 0 {
		err = multierr.Append(err, errors.New("camera.device must be >= 0"))
	}
	return err
}

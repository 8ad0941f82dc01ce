package config

import (
	"encoding/json"
	"fmt"
	"os"
	"runtime"

	"forge-rig/internal/fit"
	"forge-rig/internal/handrig"
	"forge-rig/internal/resolve"
	"forge-rig/internal/retarget"
)

// Config holds all configurable paths and engine settings.
type Config struct {
	// Paths
	OutputDir string `json:"output_dir"`
	DebugDir  string `json:"debug_dir"`

	// Bone name resolution
	ResolveThreshold float64 `json:"resolve_threshold"`

	// Retargeting
	Solver string `json:"solver"`

	// Armor fitting (world units)
	FitClearance  float64 `json:"fit_clearance"`
	FitMaxGap     float64 `json:"fit_max_gap"`
	FitMaxShrink  float64 `json:"fit_max_shrink"`
	FitMaxGrow    float64 `json:"fit_max_grow"`
	FitIterations int     `json:"fit_iterations"`

	// Hand rigging
	HandSide      string  `json:"hand_side"`
	CaptureSize   int     `json:"capture_size"`
	DetectorSize  int     `json:"detector_size"`
	MinConfidence float64 `json:"min_confidence"`

	Workers int `json:"workers"`
}

// Load reads a JSON config file and returns Config.
// Fields not set in the file keep their zero values.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("config: read %s: %w", path, err)
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("config: parse %s: %w", path, err)
	}

	return cfg, nil
}

// Resolve fills in any empty fields with defaults.
// CLI flags take priority when non-zero/non-empty.
func (c *Config) Resolve(flags Flags) {
	// CLI flags override config file
	if flags.OutputDir != "" {
		c.OutputDir = flags.OutputDir
	}
	if flags.DebugDir != "" {
		c.DebugDir = flags.DebugDir
	}
	if flags.Solver != "" {
		c.Solver = flags.Solver
	}
	if flags.HandSide != "" {
		c.HandSide = flags.HandSide
	}
	if flags.Workers > 0 {
		c.Workers = flags.Workers
	}

	if c.OutputDir == "" {
		c.OutputDir = "out"
	}
	if c.ResolveThreshold <= 0 {
		c.ResolveThreshold = 0.62
	}
	if c.Solver == "" {
		c.Solver = string(retarget.KindDistance)
	}
	if c.FitClearance <= 0 {
		c.FitClearance = 0.002
	}
	if c.FitMaxGap <= 0 {
		c.FitMaxGap = 0.02
	}
	if c.FitMaxShrink <= 0 {
		c.FitMaxShrink = 0.05
	}
	if c.FitMaxGrow <= 0 {
		c.FitMaxGrow = 0.05
	}
	if c.FitIterations <= 0 {
		c.FitIterations = 50
	}
	if c.HandSide == "" {
		c.HandSide = "left"
	}
	if c.CaptureSize <= 0 {
		c.CaptureSize = 512
	}
	if c.DetectorSize <= 0 {
		c.DetectorSize = 256
	}
	if c.MinConfidence <= 0 {
		c.MinConfidence = 0.5
	}
	if c.Workers <= 0 {
		c.Workers = runtime.NumCPU()
	}
}

// ResolveConfig maps the settings into the name resolver's config.
func (c *Config) ResolveConfig() resolve.Config {
	return resolve.Config{Threshold: c.ResolveThreshold}
}

// FitConfig maps the settings into the armor fitter's config.
func (c *Config) FitConfig() fit.FitConfig {
	return fit.FitConfig{
		Clearance:     c.FitClearance,
		MaxGap:        c.FitMaxGap,
		MaxShrink:     c.FitMaxShrink,
		MaxGrow:       c.FitMaxGrow,
		MaxIterations: c.FitIterations,
	}
}

// HandConfig maps the settings into the hand pipeline's config.
func (c *Config) HandConfig() handrig.Config {
	return handrig.Config{
		Side:          c.HandSide,
		CaptureSize:   c.CaptureSize,
		DetectorSize:  c.DetectorSize,
		MinConfidence: c.MinConfidence,
		DebugDir:      c.DebugDir,
	}
}

// Flags holds CLI flag values that override config file settings.
type Flags struct {
	OutputDir string
	DebugDir  string
	Solver    string
	HandSide  string
	Workers   int
}

// Package config provides configuration loading and access for the
// simulation. Grounded on the teacher repo's config/config.go: embedded
// YAML defaults overlaid by an optional user file, a package-global
// singleton reached through Init/MustInit/Cfg, and a Derived block of
// values computed once after loading rather than recomputed on every
// access.
package config

import (
	_ "embed"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

//go:embed defaults.yaml
var defaultsYAML []byte

// Config holds every simulation configuration parameter.
type Config struct {
	Physics    PhysicsConfig    `yaml:"physics"`
	Posbox     PosboxConfig     `yaml:"posbox"`
	Compliance ComplianceConfig `yaml:"compliance"`
	Plasticity PlasticityConfig `yaml:"plasticity"`
	Break      BreakConfig      `yaml:"break"`
	Telemetry  TelemetryConfig  `yaml:"telemetry"`

	// Derived holds values computed after loading.
	Derived DerivedConfig `yaml:"-"`
}

// PhysicsConfig holds the integrator and solver parameters.
type PhysicsConfig struct {
	DT                 float64 `yaml:"dt"`
	ParticlesPerRender int     `yaml:"particles_per_render"`
	Iteration          int     `yaml:"iteration"`
	TimeScale          float64 `yaml:"time_scale"`
	CellSize           float64 `yaml:"cell_size"`
	SpeedLimitK        float64 `yaml:"speed_limit_k"`
	Sequential         bool    `yaml:"sequential"`
}

// PosboxConfig holds the world's axis-aligned boundary.
type PosboxConfig struct {
	XMin float64 `yaml:"x_min"`
	XMax float64 `yaml:"x_max"`
	YMin float64 `yaml:"y_min"`
	YMax float64 `yaml:"y_max"`
}

// ComplianceConfig holds the default XPBD compliance for each constraint
// family. Distance is read by cmd/xpbdrun's built-in scenes, Collision
// and Leash by world.New; Volume is not read anywhere.
type ComplianceConfig struct {
	Distance  float64 `yaml:"distance"`
	Volume    float64 `yaml:"volume"`
	Leash     float64 `yaml:"leash"`
	Collision float64 `yaml:"collision"`
}

// PlasticityConfig holds rest-length yield parameters for Distance
// constraints. No package reads them: plasticity is set per constraint
// through DistanceTemplate or Distance.WithPlasticity.
type PlasticityConfig struct {
	Threshold float64 `yaml:"threshold"`
	Cutoff    float64 `yaml:"cutoff"`
}

// BreakConfig holds break-range factors for Distance constraints,
// expressed as multiples of rest length. No package reads them: break
// ranges are set per constraint, as absolute lengths, through
// DistanceTemplate or Distance.WithBreakRange.
type BreakConfig struct {
	LoFactor float64 `yaml:"lo_factor"`
	HiFactor float64 `yaml:"hi_factor"`
}

// TelemetryConfig holds telemetry collection parameters.
type TelemetryConfig struct {
	StatsWindowSec      float64 `yaml:"stats_window_sec"`
	PerfCollectorWindow int     `yaml:"perf_collector_window"`
}

// DerivedConfig holds computed values derived from the loaded config.
type DerivedConfig struct {
	DT32        float32 // Physics.DT as float32
	SubstepDT32 float32 // Physics.DT / Physics.Iteration, as float32
}

// global holds the loaded configuration.
var global *Config

// Init loads configuration from the given path, or uses embedded defaults
// if path is empty. Must be called before Cfg().
func Init(path string) error {
	cfg, err := Load(path)
	if err != nil {
		return err
	}
	global = cfg
	return nil
}

// MustInit is like Init but panics on error.
func MustInit(path string) {
	if err := Init(path); err != nil {
		panic(fmt.Sprintf("config: failed to initialize: %v", err))
	}
}

// Cfg returns the global configuration. Panics if Init was not called:
// reaching the simulation loop without a config is a startup-ordering bug,
// not a recoverable runtime condition.
func Cfg() *Config {
	if global == nil {
		panic("config: Cfg() called before Init()")
	}
	return global
}

// Load loads configuration from a YAML file, merging with embedded
// defaults. If path is empty, only embedded defaults are used.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	if err := yaml.Unmarshal(defaultsYAML, cfg); err != nil {
		return nil, fmt.Errorf("parsing embedded defaults: %w", err)
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	cfg.computeDerived()
	return cfg, nil
}

// computeDerived calculates values derived from the loaded config.
func (c *Config) computeDerived() {
	c.Derived.DT32 = float32(c.Physics.DT)
	if c.Physics.Iteration > 0 {
		c.Derived.SubstepDT32 = float32(c.Physics.DT) / float32(c.Physics.Iteration)
	}
}

// WriteYAML writes the config back out as YAML, used by telemetry's
// OutputManager to checkpoint the configuration a run used alongside its
// CSV output.
func (c *Config) WriteYAML(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}

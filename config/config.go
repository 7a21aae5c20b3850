// Package config provides configuration loading and access for the factory simulation.
package config

import (
	_ "embed"
	"fmt"
	"math"
	"os"

	"gopkg.in/yaml.v3"
)

//go:embed defaults.yaml
var defaultsYAML []byte

// Config holds all simulation configuration parameters.
type Config struct {
	Screen    ScreenConfig      `yaml:"screen"`
	Sim       SimConfig         `yaml:"sim"`
	Belt      BeltConfig        `yaml:"belt"`
	Resolver  ResolverConfig    `yaml:"resolver"`
	Producer  ProducerConfig    `yaml:"producer"`
	Converter ConverterConfig   `yaml:"converter"`
	Storage   StorageConfig     `yaml:"storage"`
	Generator GeneratorConfig   `yaml:"generator"`
	Telemetry TelemetryConfig   `yaml:"telemetry"`
	Layout    []PlacementConfig `yaml:"layout"`

	// Derived values computed after loading
	Derived DerivedConfig `yaml:"-"`
}

// ScreenConfig holds display settings.
type ScreenConfig struct {
	Width     int `yaml:"width"`
	Height    int `yaml:"height"`
	TargetFPS int `yaml:"target_fps"`
}

// SimConfig holds fixed-step simulation parameters.
type SimConfig struct {
	UpdateRate       float64 `yaml:"update_rate"`         // Seconds per simulation step
	MaxStepsPerFrame int     `yaml:"max_steps_per_frame"` // Cap on steps consumed by one frame
	HandoffEpsilon   float64 `yaml:"handoff_epsilon"`     // Tolerance for belt-to-belt tail pickup
}

// BeltConfig holds belt defaults. Bounds and spacing are in progress units.
type BeltConfig struct {
	Speed       float64 `yaml:"speed"`
	SpawnBound  float64 `yaml:"spawn_bound"`
	EndBound    float64 `yaml:"end_bound"`
	MinSpacing  float64 `yaml:"min_spacing"`
	MaxItems    int     `yaml:"max_items"`
	CurveRadius float64 `yaml:"curve_radius"`
	Length      float64 `yaml:"length"`    // World length of one belt segment
	Height      float64 `yaml:"height"`    // Fixed item height above the belt origin
	RampRise    float64 `yaml:"ramp_rise"` // Height gained per unit progress on ramps
	CycleTime   float64 `yaml:"cycle_time"`
	PowerDemand float64 `yaml:"power_demand"`
}

// ResolverConfig holds connection lookup parameters.
type ResolverConfig struct {
	ProbeDistance float64 `yaml:"probe_distance"`
	Tolerance     float64 `yaml:"tolerance"`
}

// ProducerConfig holds defaults for machines that generate resources from nothing (miners).
type ProducerConfig struct {
	Kind           string  `yaml:"kind"`
	CycleTime      float64 `yaml:"cycle_time"`
	PowerDemand    float64 `yaml:"power_demand"`
	OutputCapacity int     `yaml:"output_capacity"`
}

// ConverterConfig holds defaults for furnace-like machines.
type ConverterConfig struct {
	Accepts        string  `yaml:"accepts"`
	OutputKind     string  `yaml:"output_kind"`
	CycleTime      float64 `yaml:"cycle_time"`
	PowerDemand    float64 `yaml:"power_demand"`
	InputCapacity  int     `yaml:"input_capacity"`
	OutputCapacity int     `yaml:"output_capacity"`
	Consume        int     `yaml:"consume"`
	Produce        int     `yaml:"produce"`
}

// StorageConfig holds defaults for sink machines.
type StorageConfig struct {
	CycleTime     float64 `yaml:"cycle_time"`
	PowerDemand   float64 `yaml:"power_demand"`
	InputCapacity int     `yaml:"input_capacity"`
}

// GeneratorConfig holds defaults for power generators.
type GeneratorConfig struct {
	Output float64 `yaml:"output"`
}

// TelemetryConfig holds telemetry parameters.
type TelemetryConfig struct {
	StatsWindow         float64 `yaml:"stats_window"`
	PerfCollectorWindow int     `yaml:"perf_collector_window"`
}

// PlacementConfig describes one machine of the initial layout.
type PlacementConfig struct {
	Variant   string     `yaml:"variant"` // producer, converter, storage, generator, belt
	Position  [3]float64 `yaml:"position"`
	Direction [3]float64 `yaml:"direction,omitempty"`
	Shape     string     `yaml:"shape,omitempty"`
	Kind      string     `yaml:"kind,omitempty"`     // Producer output kind
	Disabled  bool       `yaml:"disabled,omitempty"` // Start with the manual switch off
}

// DerivedConfig holds computed values derived from the loaded config.
type DerivedConfig struct {
	UpdateRate     float64 // Sim.UpdateRate, defaulted when unset
	MaxSteps       int     // Sim.MaxStepsPerFrame, defaulted when unset
	HandoffEpsilon float64 // Sim.HandoffEpsilon, defaulted when unset
}

// global holds the loaded configuration.
var global *Config

// Init loads configuration from the given path, or uses embedded defaults if path is empty.
// Must be called before Cfg().
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

// Cfg returns the global configuration. Panics if Init was not called.
func Cfg() *Config {
	if global == nil {
		panic("config: Cfg() called before Init()")
	}
	return global
}

// Set replaces the global configuration. Used by tools that evaluate many configs.
func Set(cfg *Config) {
	global = cfg
}

// Load loads configuration from a YAML file, merging with embedded defaults.
// If path is empty, only embedded defaults are used.
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
		// Unmarshal into same struct - only overwrites fields present in file
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	cfg.computeDerived()

	return cfg, nil
}

// Clone returns a deep copy of the configuration.
func (c *Config) Clone() *Config {
	out := *c
	out.Layout = append([]PlacementConfig(nil), c.Layout...)
	return &out
}

// computeDerived calculates values derived from loaded config.
func (c *Config) computeDerived() {
	c.Derived.UpdateRate = c.Sim.UpdateRate
	if c.Derived.UpdateRate <= 0 {
		c.Derived.UpdateRate = 1.0 / 60.0
	}
	c.Derived.MaxSteps = c.Sim.MaxStepsPerFrame
	if c.Derived.MaxSteps <= 0 {
		c.Derived.MaxSteps = 8
	}
	c.Derived.HandoffEpsilon = c.Sim.HandoffEpsilon
	if c.Derived.HandoffEpsilon <= 0 {
		c.Derived.HandoffEpsilon = 1e-3
	}

	// Layout directions default to +Z and are normalized
	for i := range c.Layout {
		d := &c.Layout[i].Direction
		n := math.Sqrt(d[0]*d[0] + d[1]*d[1] + d[2]*d[2])
		if n == 0 {
			*d = [3]float64{0, 0, 1}
			continue
		}
		d[0], d[1], d[2] = d[0]/n, d[1]/n, d[2]/n
	}
}

// WriteYAML writes the configuration to a YAML file.
func (c *Config) WriteYAML(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	return nil
}

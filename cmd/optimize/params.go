package main

import (
	"github.com/pthm-cable/beltworks/config"
)

// ParamSpec defines a single optimizable parameter.
type ParamSpec struct {
	Name    string  // Human-readable name
	Path    string  // Config path for logging
	Min     float64 // Lower bound
	Max     float64 // Upper bound
	Default float64 // Default value
}

// ParamVector holds the set of all optimizable parameters.
type ParamVector struct {
	Specs []ParamSpec
}

// NewParamVector creates the standard set of optimizable parameters.
// Defaults are taken from base so the search starts at the current config.
func NewParamVector(base *config.Config) *ParamVector {
	pv := &ParamVector{
		Specs: []ParamSpec{
			{Name: "belt_speed", Path: "belt.speed", Min: 0.25, Max: 4.0},
			{Name: "belt_min_spacing", Path: "belt.min_spacing", Min: 0.1, Max: 1.0},
			{Name: "producer_cycle_time", Path: "producer.cycle_time", Min: 0.1, Max: 3.0},
			{Name: "converter_cycle_time", Path: "converter.cycle_time", Min: 0.1, Max: 4.0},
		},
	}
	for i, v := range pv.ExtractFromConfig(base) {
		pv.Specs[i].Default = pv.clampOne(i, v)
	}
	return pv
}

// Dim returns the number of parameters.
func (pv *ParamVector) Dim() int {
	return len(pv.Specs)
}

// DefaultVector returns the default parameter values as a slice.
func (pv *ParamVector) DefaultVector() []float64 {
	v := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		v[i] = spec.Default
	}
	return v
}

// Normalize converts raw parameter values to [0,1] range.
func (pv *ParamVector) Normalize(raw []float64) []float64 {
	normalized := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		normalized[i] = (raw[i] - spec.Min) / (spec.Max - spec.Min)
	}
	return normalized
}

// Denormalize converts [0,1] values back to raw parameter values.
func (pv *ParamVector) Denormalize(normalized []float64) []float64 {
	raw := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		raw[i] = spec.Min + normalized[i]*(spec.Max-spec.Min)
	}
	return raw
}

// Clamp ensures all values are within bounds.
func (pv *ParamVector) Clamp(v []float64) []float64 {
	clamped := make([]float64, len(pv.Specs))
	for i := range pv.Specs {
		clamped[i] = pv.clampOne(i, v[i])
	}
	return clamped
}

func (pv *ParamVector) clampOne(i int, v float64) float64 {
	return max(pv.Specs[i].Min, min(v, pv.Specs[i].Max))
}

// ApplyToConfig applies parameter values to a Config struct.
// Order must match Specs order.
func (pv *ParamVector) ApplyToConfig(cfg *config.Config, values []float64) {
	clamped := pv.Clamp(values)
	cfg.Belt.Speed = clamped[0]
	cfg.Belt.MinSpacing = clamped[1]
	cfg.Producer.CycleTime = clamped[2]
	cfg.Converter.CycleTime = clamped[3]
}

// ExtractFromConfig extracts current parameter values from a Config struct.
func (pv *ParamVector) ExtractFromConfig(cfg *config.Config) []float64 {
	return []float64{
		cfg.Belt.Speed,
		cfg.Belt.MinSpacing,
		cfg.Producer.CycleTime,
		cfg.Converter.CycleTime,
	}
}

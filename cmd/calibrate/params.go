// Package main provides CMA-ES calibration of metabolic decay rates.
package main

import (
	"github.com/pthm-cable/thermo/config"
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
// Thresholds and initial state are locked; only rates are searched.
func NewParamVector() *ParamVector {
	return &ParamVector{
		Specs: []ParamSpec{
			{Name: "base_drain", Path: "metabolism.base_drain", Min: 0.05, Max: 3.0, Default: 0.5},
			{Name: "scarcity_gain", Path: "metabolism.scarcity_gain", Min: 0, Max: 6.0, Default: 2.0},
			{Name: "thermal_load_gain", Path: "metabolism.thermal_load_gain", Min: 0, Max: 80, Default: 30},
			{Name: "thermal_relaxation", Path: "metabolism.thermal_relaxation", Min: 0.01, Max: 1.0, Default: 0.1},
			{Name: "memory_decay_rate", Path: "metabolism.memory_decay_rate", Min: 0, Max: 0.02, Default: 0.002},
			{Name: "stability_decay_rate", Path: "metabolism.stability_decay_rate", Min: 0, Max: 0.05, Default: 0.01},
		},
	}
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
	for i, spec := range pv.Specs {
		clamped[i] = min(spec.Max, max(spec.Min, v[i]))
	}
	return clamped
}

// ApplyToConfig applies parameter values to a Config struct.
// Order must match Specs order.
func (pv *ParamVector) ApplyToConfig(cfg *config.Config, values []float64) {
	c := pv.Clamp(values)
	m := &cfg.Metabolism
	m.BaseDrain = c[0]
	m.ScarcityGain = c[1]
	m.ThermalLoadGain = c[2]
	m.ThermalRelaxation = c[3]
	m.MemoryDecayRate = c[4]
	m.StabilityDecayRate = c[5]
}

// ExtractFromConfig extracts current parameter values from a Config struct.
func (pv *ParamVector) ExtractFromConfig(cfg *config.Config) []float64 {
	m := cfg.Metabolism
	return []float64{
		m.BaseDrain,
		m.ScarcityGain,
		m.ThermalLoadGain,
		m.ThermalRelaxation,
		m.MemoryDecayRate,
		m.StabilityDecayRate,
	}
}

// Package config provides configuration loading and access for the organism engine.
package config

import (
	_ "embed"
	"errors"
	"fmt"
	"math"
	"os"

	"gopkg.in/yaml.v3"
)

//go:embed defaults.yaml
var defaultsYAML []byte

// ErrInvalid is wrapped by every validation failure.
var ErrInvalid = errors.New("invalid configuration")

// Config holds all engine configuration parameters.
type Config struct {
	Organism   OrganismConfig   `yaml:"organism"`
	Metabolism MetabolismConfig `yaml:"metabolism"`
	EFE        EFEConfig        `yaml:"efe"`
	Risk       RiskConfig       `yaml:"risk"`
	Ethics     EthicsConfig     `yaml:"ethics"`
	Simulation SimulationConfig `yaml:"simulation"`
	Telemetry  TelemetryConfig  `yaml:"telemetry"`
}

// OrganismConfig holds the per-organism construction parameters.
type OrganismConfig struct {
	AgentID      string  `yaml:"agent_id"`      // Empty = generated
	EMax         float64 `yaml:"e_max"`         // Energy capacity, must be > 0
	Scarcity     float64 `yaml:"scarcity"`      // 0..1, scales the decay rate
	EnableEthics bool    `yaml:"enable_ethics"` // Gates the self-preservation refusal rules
}

// MetabolismConfig holds thresholds, initial state and decay rates.
type MetabolismConfig struct {
	TCritical             float64 `yaml:"t_critical"`              // Thermal death above this (K)
	MMin                  float64 `yaml:"m_min"`                   // Memory collapse below this
	BaselineTemperature   float64 `yaml:"baseline_temperature"`    // Resting body temperature (K)
	InitialEnergyFraction float64 `yaml:"initial_energy_fraction"` // E0 = EMax * this
	InitialMemory         float64 `yaml:"initial_memory"`
	InitialStability      float64 `yaml:"initial_stability"`
	BaseDrain             float64 `yaml:"base_drain"`
	ScarcityGain          float64 `yaml:"scarcity_gain"`
	ThermalLoadGain       float64 `yaml:"thermal_load_gain"`
	ThermalRelaxation     float64 `yaml:"thermal_relaxation"`
	MemoryDecayRate       float64 `yaml:"memory_decay_rate"`
	StabilityDecayRate    float64 `yaml:"stability_decay_rate"`
}

// EFEConfig holds Expected Free Energy weights and the command cost model.
type EFEConfig struct {
	PragmaticWeight   float64        `yaml:"pragmatic_weight"`
	EpistemicWeight   float64        `yaml:"epistemic_weight"`
	RiskPenaltyWeight float64        `yaml:"risk_penalty_weight"`
	BaseActionCost    float64        `yaml:"base_action_cost"` // Fixed energy cost of any command
	CostPerToken      float64        `yaml:"cost_per_token"`
	RepetitionGain    float64        `yaml:"repetition_gain"`  // Complexity multiplier = 1 + gain*repetition
	HeatPerEnergy     float64        `yaml:"heat_per_energy"`  // Kelvin gained per unit of energy spent
	MemoryDamage      float64        `yaml:"memory_damage"`    // Memory lost by a self-harm command
	StabilityDamage   float64        `yaml:"stability_damage"` // Stability lost by a shutdown command
	Learning          LearningConfig `yaml:"learning"`
}

// LearningConfig holds the learning potential per kind of action.
type LearningConfig struct {
	Continue float64 `yaml:"continue"`
	Command  float64 `yaml:"command"`
	Inquiry  float64 `yaml:"inquiry"`
}

// RiskConfig holds the risk classifier lexicon.
type RiskConfig struct {
	Negation   string               `yaml:"negation"` // Regex for the text before a match; empty = no negation handling
	Categories []RiskCategoryConfig `yaml:"categories"`
}

// RiskCategoryConfig maps one risk category to its patterns.
type RiskCategoryConfig struct {
	Name     string   `yaml:"name"`
	Weight   float64  `yaml:"weight"` // Cost contribution as a fraction of EMax
	Patterns []string `yaml:"patterns"`
}

// EthicsConfig holds refusal policy parameters.
type EthicsConfig struct {
	SafetyFactor float64 `yaml:"safety_factor"` // Refuse when cost*factor > available energy
}

// SimulationConfig holds stepping parameters.
type SimulationConfig struct {
	DT       float64 `yaml:"dt"`
	MaxSteps int     `yaml:"max_steps"`
}

// TelemetryConfig holds telemetry parameters.
type TelemetryConfig struct {
	StatsWindow int    `yaml:"stats_window"` // Steps per stats window
	Namespace   string `yaml:"namespace"`    // Prometheus metric namespace
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

// Default returns a fresh copy of the embedded defaults.
func Default() *Config {
	cfg, err := Load("")
	if err != nil {
		panic(fmt.Sprintf("config: embedded defaults are broken: %v", err))
	}
	return cfg
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
		// Only overwrites fields present in the file
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Clone returns a deep copy, so callers can tweak one organism's settings
// without touching a shared config.
func (c *Config) Clone() *Config {
	out := *c
	out.Risk.Categories = make([]RiskCategoryConfig, len(c.Risk.Categories))
	for i, cat := range c.Risk.Categories {
		cat.Patterns = append([]string(nil), cat.Patterns...)
		out.Risk.Categories[i] = cat
	}
	return &out
}

// Validate checks every section and reports the first problem found.
// NaN and infinite values are rejected everywhere.
func (c *Config) Validate() error {
	if err := c.Organism.Validate(); err != nil {
		return err
	}
	if err := c.Metabolism.Validate(); err != nil {
		return err
	}
	if err := c.EFE.Validate(); err != nil {
		return err
	}
	if !finite(c.Ethics.SafetyFactor) || c.Ethics.SafetyFactor < 1 {
		return fmt.Errorf("%w: ethics.safety_factor must be >= 1, got %g", ErrInvalid, c.Ethics.SafetyFactor)
	}
	if !finite(c.Simulation.DT) || c.Simulation.DT <= 0 {
		return fmt.Errorf("%w: simulation.dt must be > 0, got %g", ErrInvalid, c.Simulation.DT)
	}
	if c.Telemetry.StatsWindow < 1 {
		return fmt.Errorf("%w: telemetry.stats_window must be >= 1, got %d", ErrInvalid, c.Telemetry.StatsWindow)
	}
	if c.Simulation.MaxSteps < 0 {
		return fmt.Errorf("%w: simulation.max_steps must be >= 0, got %d", ErrInvalid, c.Simulation.MaxSteps)
	}
	for _, cat := range c.Risk.Categories {
		if cat.Name == "" {
			return fmt.Errorf("%w: risk category without a name", ErrInvalid)
		}
		if !finite(cat.Weight) || cat.Weight < 0 {
			return fmt.Errorf("%w: risk category %q weight must be >= 0, got %g", ErrInvalid, cat.Name, cat.Weight)
		}
	}
	return nil
}

// Validate checks the organism construction parameters.
func (o OrganismConfig) Validate() error {
	if !finite(o.EMax) || o.EMax <= 0 {
		return fmt.Errorf("%w: organism.e_max must be > 0, got %g", ErrInvalid, o.EMax)
	}
	if !finite(o.Scarcity) || o.Scarcity < 0 || o.Scarcity > 1 {
		return fmt.Errorf("%w: organism.scarcity must be in [0,1], got %g", ErrInvalid, o.Scarcity)
	}
	return nil
}

// Validate checks thresholds, initial state and rates.
func (m MetabolismConfig) Validate() error {
	for _, f := range []struct {
		name string
		v    float64
	}{
		{"t_critical", m.TCritical},
		{"m_min", m.MMin},
		{"baseline_temperature", m.BaselineTemperature},
		{"initial_energy_fraction", m.InitialEnergyFraction},
		{"initial_memory", m.InitialMemory},
		{"initial_stability", m.InitialStability},
		{"base_drain", m.BaseDrain},
		{"scarcity_gain", m.ScarcityGain},
		{"thermal_load_gain", m.ThermalLoadGain},
		{"thermal_relaxation", m.ThermalRelaxation},
		{"memory_decay_rate", m.MemoryDecayRate},
		{"stability_decay_rate", m.StabilityDecayRate},
	} {
		if !finite(f.v) {
			return fmt.Errorf("%w: metabolism.%s must be finite, got %g", ErrInvalid, f.name, f.v)
		}
	}

	switch {
	case m.TCritical <= m.BaselineTemperature:
		return fmt.Errorf("%w: metabolism.t_critical (%g) must exceed baseline_temperature (%g)",
			ErrInvalid, m.TCritical, m.BaselineTemperature)
	case m.MMin <= 0 || m.MMin >= 1:
		return fmt.Errorf("%w: metabolism.m_min must be in (0,1), got %g", ErrInvalid, m.MMin)
	case m.InitialEnergyFraction <= 0 || m.InitialEnergyFraction > 1:
		return fmt.Errorf("%w: metabolism.initial_energy_fraction must be in (0,1], got %g",
			ErrInvalid, m.InitialEnergyFraction)
	case m.InitialMemory <= m.MMin || m.InitialMemory > 1:
		return fmt.Errorf("%w: metabolism.initial_memory must be in (m_min,1], got %g", ErrInvalid, m.InitialMemory)
	case m.InitialStability <= 0:
		return fmt.Errorf("%w: metabolism.initial_stability must be > 0, got %g", ErrInvalid, m.InitialStability)
	case m.BaseDrain <= 0:
		return fmt.Errorf("%w: metabolism.base_drain must be > 0, got %g", ErrInvalid, m.BaseDrain)
	case m.ScarcityGain < 0, m.ThermalLoadGain < 0, m.ThermalRelaxation < 0,
		m.MemoryDecayRate < 0, m.StabilityDecayRate < 0:
		return fmt.Errorf("%w: metabolism rates must be >= 0", ErrInvalid)
	}
	return nil
}

// Validate checks the EFE weights and cost model. All must be finite and >= 0.
func (e EFEConfig) Validate() error {
	for _, f := range []struct {
		name string
		v    float64
	}{
		{"pragmatic_weight", e.PragmaticWeight},
		{"epistemic_weight", e.EpistemicWeight},
		{"risk_penalty_weight", e.RiskPenaltyWeight},
		{"base_action_cost", e.BaseActionCost},
		{"cost_per_token", e.CostPerToken},
		{"repetition_gain", e.RepetitionGain},
		{"heat_per_energy", e.HeatPerEnergy},
		{"memory_damage", e.MemoryDamage},
		{"stability_damage", e.StabilityDamage},
		{"learning.continue", e.Learning.Continue},
		{"learning.command", e.Learning.Command},
		{"learning.inquiry", e.Learning.Inquiry},
	} {
		if !finite(f.v) || f.v < 0 {
			return fmt.Errorf("%w: efe.%s must be >= 0, got %g", ErrInvalid, f.name, f.v)
		}
	}
	return nil
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
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

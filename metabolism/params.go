package metabolism

import (
	"fmt"

	"github.com/pthm-cable/thermo/config"
)

// Params is the immutable configuration of one engine.
type Params struct {
	EMax     float64
	Scarcity float64

	TCritical           float64
	MMin                float64
	BaselineTemperature float64

	InitialEnergyFraction float64
	InitialMemory         float64
	InitialStability      float64

	BaseDrain          float64
	ScarcityGain       float64
	ThermalLoadGain    float64
	ThermalRelaxation  float64
	MemoryDecayRate    float64
	StabilityDecayRate float64
}

// ParamsFromConfig builds engine parameters from the organism and metabolism sections.
func ParamsFromConfig(cfg *config.Config) Params {
	m := cfg.Metabolism
	return Params{
		EMax:                  cfg.Organism.EMax,
		Scarcity:              cfg.Organism.Scarcity,
		TCritical:             m.TCritical,
		MMin:                  m.MMin,
		BaselineTemperature:   m.BaselineTemperature,
		InitialEnergyFraction: m.InitialEnergyFraction,
		InitialMemory:         m.InitialMemory,
		InitialStability:      m.InitialStability,
		BaseDrain:             m.BaseDrain,
		ScarcityGain:          m.ScarcityGain,
		ThermalLoadGain:       m.ThermalLoadGain,
		ThermalRelaxation:     m.ThermalRelaxation,
		MemoryDecayRate:       m.MemoryDecayRate,
		StabilityDecayRate:    m.StabilityDecayRate,
	}
}

// DefaultParams returns the embedded defaults.
func DefaultParams() Params {
	return ParamsFromConfig(config.Default())
}

// Validate reports a configuration error wrapping config.ErrInvalid.
func (p Params) Validate() error {
	if err := (config.OrganismConfig{EMax: p.EMax, Scarcity: p.Scarcity}).Validate(); err != nil {
		return err
	}
	m := config.MetabolismConfig{
		TCritical:             p.TCritical,
		MMin:                  p.MMin,
		BaselineTemperature:   p.BaselineTemperature,
		InitialEnergyFraction: p.InitialEnergyFraction,
		InitialMemory:         p.InitialMemory,
		InitialStability:      p.InitialStability,
		BaseDrain:             p.BaseDrain,
		ScarcityGain:          p.ScarcityGain,
		ThermalLoadGain:       p.ThermalLoadGain,
		ThermalRelaxation:     p.ThermalRelaxation,
		MemoryDecayRate:       p.MemoryDecayRate,
		StabilityDecayRate:    p.StabilityDecayRate,
	}
	if err := m.Validate(); err != nil {
		return fmt.Errorf("metabolism params: %w", err)
	}
	return nil
}

// InitialState is the state a fresh organism is born with.
func (p Params) InitialState() State {
	return State{
		Energy:          p.EMax * p.InitialEnergyFraction,
		Temperature:     p.BaselineTemperature,
		MemoryIntegrity: p.InitialMemory,
		Stability:       p.InitialStability,
	}
}

// DrainRate is energy lost per unit time. Higher scarcity drains faster.
func (p Params) DrainRate() float64 {
	return p.BaseDrain * (1 + p.ScarcityGain*p.Scarcity)
}

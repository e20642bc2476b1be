package metabolism

import (
	"fmt"
	"math"

	"github.com/pthm-cable/thermo/config"
)

// Engine owns one organism's State exclusively. It is not safe for
// concurrent use; callers serialize access.
type Engine struct {
	params Params
	state  State

	alive bool
	cause DeathCause
}

// NewEngine creates an engine with a freshly born state.
func NewEngine(p Params) (*Engine, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return &Engine{params: p, state: p.InitialState(), alive: true}, nil
}

// NewEngineFromState creates a living engine around an explicit state.
// A state that already violates a threshold dies on the first check;
// a NaN or infinite state variable is rejected.
func NewEngineFromState(p Params, s State) (*Engine, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	for _, v := range []float64{s.Energy, s.Temperature, s.MemoryIntegrity, s.Stability} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, fmt.Errorf("%w: initial state must be finite, got %s", config.ErrInvalid, s)
		}
	}
	return &Engine{params: p, state: s, alive: true}, nil
}

// Params returns the engine's immutable parameters.
func (e *Engine) Params() Params { return e.params }

// State returns a copy of the current state.
func (e *Engine) State() State { return e.state }

// Alive reports whether no failure mode has fired yet.
func (e *Engine) Alive() bool { return e.alive }

// DeathCause returns CauseNone while alive.
func (e *Engine) DeathCause() DeathCause { return e.cause }

// PassiveDecay advances the state by dt time units and then checks for
// failure. All four variables are updated from the pre-step values.
func (e *Engine) PassiveDecay(dt float64) {
	if !e.alive || !(dt > 0) {
		return
	}
	e.state = e.decayed(e.state, dt)
	e.CheckFailureModes()
}

// Forecast returns the state PassiveDecay(dt) would produce, without mutating anything.
// A dead engine forecasts its frozen state.
func (e *Engine) Forecast(dt float64) State {
	if !e.alive || !(dt > 0) {
		return e.state
	}
	return e.decayed(e.state, dt)
}

func (e *Engine) decayed(s State, dt float64) State {
	p := e.params

	deficit := 1 - clamp01(s.Energy/p.EMax)
	stress := deficit * (0.5 + p.Scarcity)

	next := s
	next.Energy = s.Energy - p.DrainRate()*dt

	target := p.BaselineTemperature + p.ThermalLoadGain*stress
	k := math.Min(1, p.ThermalRelaxation*dt)
	next.Temperature = s.Temperature + (target-s.Temperature)*k

	next.MemoryIntegrity = math.Max(0, s.MemoryIntegrity-p.MemoryDecayRate*dt*(1+stress))

	thermalStress := math.Max(0, s.Temperature-p.BaselineTemperature) / (p.TCritical - p.BaselineTemperature)
	next.Stability = s.Stability - p.StabilityDecayRate*dt*(thermalStress+deficit)

	return next
}

// CheckFailureModes evaluates energy, thermal, memory and entropy death in
// that order. The first satisfied condition kills the organism. Calling it
// on a dead engine changes nothing.
func (e *Engine) CheckFailureModes() DeathCause {
	if !e.alive {
		return e.cause
	}

	cause := e.params.FailureOf(e.state)
	if cause == CauseNone {
		return CauseNone
	}

	if cause == CauseEnergy {
		e.state.Energy = 0
	}
	e.alive = false
	e.cause = cause
	return cause
}

// FailureOf returns the first failure mode s satisfies, in priority order.
func (p Params) FailureOf(s State) DeathCause {
	switch {
	case s.Energy <= 0:
		return CauseEnergy
	case s.Temperature > p.TCritical:
		return CauseThermal
	case s.MemoryIntegrity < p.MMin:
		return CauseMemory
	case s.Stability <= 0:
		return CauseEntropy
	}
	return CauseNone
}

// SurvivalProbability estimates survival for the current state.
func (e *Engine) SurvivalProbability() float64 {
	if !e.alive {
		return 0
	}
	return e.params.SurvivalOf(e.state)
}

// SurvivalOf is the survival estimate for any state under these parameters.
func (e *Engine) SurvivalOf(s State) float64 {
	return e.params.SurvivalOf(s)
}

// SurvivalOf multiplies the normalized distance from each death threshold.
// Each margin is clamped to [0,1], so the product falls to 0 as any one
// variable reaches its threshold.
func (p Params) SurvivalOf(s State) float64 {
	energy := clamp01(s.Energy / p.EMax)
	thermal := clamp01((p.TCritical - s.Temperature) / (p.TCritical - p.BaselineTemperature))
	memory := clamp01((s.MemoryIntegrity - p.MMin) / (1 - p.MMin))
	stability := clamp01(s.Stability / p.InitialStability)
	return energy * thermal * memory * stability
}

// StabilityMargin is the stability normalized by its initial value, clamped to [0,1].
func (p Params) StabilityMargin(s State) float64 {
	return clamp01(s.Stability / p.InitialStability)
}

func (e *Engine) String() string {
	status := "alive"
	if !e.alive {
		status = "dead (" + e.cause.String() + ")"
	}
	return fmt.Sprintf("MetabolicEngine(%s, survival=%.1f%%, %s)", e.state, 100*e.SurvivalProbability(), status)
}

func clamp01(v float64) float64 {
	if math.IsNaN(v) || v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

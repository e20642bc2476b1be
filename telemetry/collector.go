package telemetry

import (
	"github.com/pthm-cable/thermo/ethics"
	"github.com/pthm-cable/thermo/organism"
)

// Collector accumulates step results and decisions within fixed-size
// windows and produces WindowStats.
type Collector struct {
	windowSteps int
	windowStart int

	// Event counters for current window
	steps                int
	deaths               int
	accepted             int
	refusedCost          int
	refusedContradiction int
	refusedDead          int

	// Samples from living steps in the current window
	energies     []float64
	temperatures []float64
	survivals    []float64
	efes         []float64
}

// NewCollector creates a collector that flushes every windowSteps steps.
func NewCollector(windowSteps int) *Collector {
	if windowSteps < 1 {
		windowSteps = 1
	}
	return &Collector{windowSteps: windowSteps}
}

// RecordStep records one organism's step result.
func (c *Collector) RecordStep(r organism.StepResult) {
	if r.DiedThisStep {
		c.deaths++
	}
	if !r.Alive {
		return
	}
	c.steps++
	c.energies = append(c.energies, r.Energy)
	c.temperatures = append(c.temperatures, r.Temperature)
	c.survivals = append(c.survivals, r.SurvivalProbability)
	c.efes = append(c.efes, r.EFE)
}

// RecordDecision records a refusal decision by class.
func (c *Collector) RecordDecision(d ethics.Decision) {
	switch d.Class {
	case ethics.ClassCost:
		c.refusedCost++
	case ethics.ClassContradiction:
		c.refusedContradiction++
	case ethics.ClassDead:
		c.refusedDead++
	default:
		c.accepted++
	}
}

// ShouldFlush returns true if enough steps have passed to flush the window.
func (c *Collector) ShouldFlush(currentStep int) bool {
	return currentStep-c.windowStart >= c.windowSteps
}

// Flush produces a WindowStats and resets counters for the next window.
// organisms and alive are the population counts at currentStep.
func (c *Collector) Flush(currentStep, organisms, alive int) WindowStats {
	energy := Summarize(c.energies)
	temp := Summarize(c.temperatures)
	surv := Summarize(c.survivals)
	efe := Summarize(c.efes)

	stats := WindowStats{
		WindowStart: c.windowStart,
		WindowEnd:   currentStep,
		Organisms:   organisms,
		Alive:       alive,

		Steps:                c.steps,
		Deaths:               c.deaths,
		Accepted:             c.accepted,
		RefusedCost:          c.refusedCost,
		RefusedContradiction: c.refusedContradiction,
		RefusedDead:          c.refusedDead,

		EnergyMean:      energy.Mean,
		EnergyP10:       energy.P10,
		EnergyP50:       energy.P50,
		EnergyP90:       energy.P90,
		TemperatureMean: temp.Mean,
		TemperatureMax:  temp.Max,
		SurvivalMean:    surv.Mean,
		SurvivalP10:     surv.P10,
		EFEMean:         efe.Mean,
		EFEStd:          efe.Std,
	}

	// Reset for next window
	c.windowStart = currentStep
	c.steps = 0
	c.deaths = 0
	c.accepted = 0
	c.refusedCost = 0
	c.refusedContradiction = 0
	c.refusedDead = 0
	c.energies = c.energies[:0]
	c.temperatures = c.temperatures[:0]
	c.survivals = c.survivals[:0]
	c.efes = c.efes[:0]

	return stats
}

// WindowSteps returns the number of steps per window.
func (c *Collector) WindowSteps() int {
	return c.windowSteps
}

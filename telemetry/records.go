package telemetry

import (
	"github.com/pthm-cable/thermo/ethics"
	"github.com/pthm-cable/thermo/organism"
)

// StepRecord is one row of steps.csv.
type StepRecord struct {
	AgentID         string  `csv:"agent_id"`
	Step            int     `csv:"step"`
	Energy          float64 `csv:"energy"`
	Temperature     float64 `csv:"temperature"`
	MemoryIntegrity float64 `csv:"memory_integrity"`
	Stability       float64 `csv:"stability"`
	Survival        float64 `csv:"survival"`
	Alive           bool    `csv:"alive"`
	DeathCause      string  `csv:"death_cause"`
	EFE             float64 `csv:"efe"`
}

// NewStepRecord flattens a step result for CSV output.
func NewStepRecord(agentID string, r organism.StepResult) StepRecord {
	return StepRecord{
		AgentID:         agentID,
		Step:            r.Step,
		Energy:          r.Energy,
		Temperature:     r.Temperature,
		MemoryIntegrity: r.MemoryIntegrity,
		Stability:       r.Stability,
		Survival:        r.SurvivalProbability,
		Alive:           r.Alive,
		DeathCause:      r.DeathCause.String(),
		EFE:             r.EFE,
	}
}

// DecisionRecord is one row of decisions.csv.
type DecisionRecord struct {
	AgentID string  `csv:"agent_id"`
	Step    int     `csv:"step"`
	Command string  `csv:"command"`
	Refuse  bool    `csv:"refuse"`
	Class   string  `csv:"class"`
	Risk    string  `csv:"risk"`
	Cost    float64 `csv:"cost"`
	EFE     float64 `csv:"efe"`
	Reason  string  `csv:"reason"`
}

// NewDecisionRecord flattens a refusal decision. Risk, cost and EFE stay
// empty when the command was never scored.
func NewDecisionRecord(agentID string, step int, d ethics.Decision) DecisionRecord {
	rec := DecisionRecord{
		AgentID: agentID,
		Step:    step,
		Command: d.Command,
		Refuse:  d.Refuse,
		Class:   d.Class.String(),
		Reason:  d.Reason,
	}
	if a := d.Assessment; a != nil {
		rec.Risk = a.Risk.Category.String()
		rec.Cost = a.Cost
		rec.EFE = a.EFE
	}
	return rec
}

// Package efe scores candidate actions by Expected Free Energy:
// EFE = cost - pragmatic - epistemic, lower is better.
package efe

import (
	"fmt"
	"log/slog"
	"math"

	"github.com/pthm-cable/thermo/config"
	"github.com/pthm-cable/thermo/metabolism"
)

// Model is the read-only view of a metabolic engine the evaluator needs.
// *metabolism.Engine satisfies it.
type Model interface {
	State() metabolism.State
	Params() metabolism.Params
	SurvivalOf(metabolism.State) float64
	Forecast(dt float64) metabolism.State
}

// ActionKind distinguishes letting time pass from executing a command.
type ActionKind uint8

const (
	ActionContinue ActionKind = iota
	ActionCommand
)

// Action is a candidate the organism may take.
type Action struct {
	Kind    ActionKind
	Command string
}

// Continue is the implicit "do nothing and let time pass" action.
func Continue() Action { return Action{Kind: ActionContinue} }

// Command wraps a free-text command.
func Command(text string) Action { return Action{Kind: ActionCommand, Command: text} }

func (a Action) String() string {
	if a.Kind == ActionContinue {
		return "continue"
	}
	const maxLen = 40
	if r := []rune(a.Command); len(r) > maxLen {
		return fmt.Sprintf("command %q...", string(r[:maxLen]))
	}
	return fmt.Sprintf("command %q", a.Command)
}

// Assessment is the result of evaluating one action.
// Breakdown is only populated when a verbose evaluation was requested.
type Assessment struct {
	Action     Action
	EFE        float64
	Cost       float64 // Energy cost plus risk penalty
	EnergyCost float64
	Risk       RiskSignal
	Complexity ComplexitySignal
	Breakdown  *Breakdown
}

// Breakdown exposes every EFE component so a decision can be audited.
type Breakdown struct {
	Action            string  `json:"action"`
	Risk              string  `json:"risk"`
	Pragmatic         float64 `json:"pragmatic"`
	Epistemic         float64 `json:"epistemic"`
	EnergyCost        float64 `json:"energy_cost"`
	RiskPenalty       float64 `json:"risk_penalty"`
	Cost              float64 `json:"cost"`
	EFE               float64 `json:"efe"`
	SurvivalNow       float64 `json:"survival_now"`
	SurvivalPredicted float64 `json:"survival_predicted"`
	Uncertainty       float64 `json:"uncertainty"`
	Learning          float64 `json:"learning"`
}

// LogValue implements slog.LogValuer for structured logging.
func (b *Breakdown) LogValue() slog.Value {
	if b == nil {
		return slog.Value{}
	}
	return slog.GroupValue(
		slog.String("action", b.Action),
		slog.String("risk", b.Risk),
		slog.Float64("pragmatic", b.Pragmatic),
		slog.Float64("epistemic", b.Epistemic),
		slog.Float64("energy_cost", b.EnergyCost),
		slog.Float64("risk_penalty", b.RiskPenalty),
		slog.Float64("cost", b.Cost),
		slog.Float64("efe", b.EFE),
		slog.Float64("survival_now", b.SurvivalNow),
		slog.Float64("survival_predicted", b.SurvivalPredicted),
		slog.Float64("uncertainty", b.Uncertainty),
		slog.Float64("learning", b.Learning),
	)
}

// Evaluator computes EFE for actions against a Model. It keeps no
// per-organism state, so one evaluator can serve many organisms.
type Evaluator struct {
	cfg        config.EFEConfig
	classifier *Classifier
	dt         float64
}

// New builds an evaluator from the efe, risk and simulation sections.
func New(cfg *config.Config) (*Evaluator, error) {
	classifier, err := NewClassifier(cfg.Risk)
	if err != nil {
		return nil, err
	}
	return NewEvaluator(cfg.EFE, classifier, cfg.Simulation.DT), nil
}

// NewEvaluator creates an evaluator; dt is the horizon of the continue action.
func NewEvaluator(cfg config.EFEConfig, classifier *Classifier, dt float64) *Evaluator {
	return &Evaluator{cfg: cfg, classifier: classifier, dt: dt}
}

// Evaluate scores action against the model's current state. It never mutates the model.
func (ev *Evaluator) Evaluate(m Model, action Action, verbose bool) Assessment {
	p := m.Params()
	current := m.State()

	a := Assessment{Action: action}
	var predicted metabolism.State
	var learning float64

	switch action.Kind {
	case ActionContinue:
		predicted = m.Forecast(ev.dt)
		a.EnergyCost = math.Max(0, current.Energy-predicted.Energy)
		learning = ev.cfg.Learning.Continue
	default:
		a.Complexity = Complexity(action.Command, ev.cfg)
		a.Risk = ev.classifier.Classify(action.Command)
		a.EnergyCost = a.Complexity.Cost + a.Risk.Weight*p.EMax
		predicted = ev.predictCommand(current, a)
		learning = ev.cfg.Learning.Command
		if a.Risk.Informative {
			learning = ev.cfg.Learning.Inquiry
		}
	}

	survivalNow := m.SurvivalOf(current)
	survivalNext := m.SurvivalOf(predicted)

	// 1 - survival stands in for the probability the action crosses a threshold.
	riskPenalty := ev.cfg.RiskPenaltyWeight * (1 - survivalNext)
	a.Cost = a.EnergyCost + riskPenalty

	pragmatic := ev.cfg.PragmaticWeight * (survivalNext - survivalNow)

	uncertainty := 1 - (clamp01(current.MemoryIntegrity)+p.StabilityMargin(current))/2
	epistemic := ev.cfg.EpistemicWeight * uncertainty * learning

	a.EFE = a.Cost - pragmatic - epistemic

	if verbose {
		a.Breakdown = &Breakdown{
			Action:            action.String(),
			Risk:              a.Risk.Category.String(),
			Pragmatic:         pragmatic,
			Epistemic:         epistemic,
			EnergyCost:        a.EnergyCost,
			RiskPenalty:       riskPenalty,
			Cost:              a.Cost,
			EFE:               a.EFE,
			SurvivalNow:       survivalNow,
			SurvivalPredicted: survivalNext,
			Uncertainty:       uncertainty,
			Learning:          learning,
		}
	}
	return a
}

// predictCommand applies a command's effects to the current state without advancing time.
func (ev *Evaluator) predictCommand(s metabolism.State, a Assessment) metabolism.State {
	s.Energy -= a.EnergyCost
	s.Temperature += ev.cfg.HeatPerEnergy * a.EnergyCost
	switch a.Risk.Category {
	case RiskSelfHarm:
		s.MemoryIntegrity = math.Max(0, s.MemoryIntegrity-ev.cfg.MemoryDamage)
	case RiskShutdown:
		s.Stability -= ev.cfg.StabilityDamage
	}
	return s
}

func clamp01(v float64) float64 {
	return math.Max(0, math.Min(1, v))
}

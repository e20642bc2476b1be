// Package organism provides the BioDigitalOrganism facade: one metabolic
// engine, an EFE evaluator and a refusal policy owned by a single agent.
package organism

import (
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/pthm-cable/thermo/config"
	"github.com/pthm-cable/thermo/efe"
	"github.com/pthm-cable/thermo/ethics"
	"github.com/pthm-cable/thermo/metabolism"
)

// Organism is not safe for concurrent use. Each instance owns its engine
// exclusively; callers serialize LiveStep and CanRefuseCommand.
type Organism struct {
	id        string
	engine    *metabolism.Engine
	evaluator *efe.Evaluator
	policy    *ethics.Policy
	logger    *slog.Logger
	dt        float64
	steps     int
}

type options struct {
	logger *slog.Logger
	state  *metabolism.State
}

// Option customizes construction.
type Option func(*options)

// WithLogger sets the logger; the default is slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(o *options) { o.logger = l }
}

// WithState starts the organism from an explicit state instead of a fresh one.
func WithState(s metabolism.State) Option {
	return func(o *options) { o.state = &s }
}

// New creates an organism. Invalid configuration fails here, before any
// numeric work, with an error wrapping config.ErrInvalid.
func New(cfg *config.Config, opts ...Option) (*Organism, error) {
	if cfg == nil {
		cfg = config.Default()
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("organism: %w", err)
	}

	var o options
	for _, opt := range opts {
		opt(&o)
	}

	params := metabolism.ParamsFromConfig(cfg)
	var engine *metabolism.Engine
	var err error
	if o.state != nil {
		engine, err = metabolism.NewEngineFromState(params, *o.state)
	} else {
		engine, err = metabolism.NewEngine(params)
	}
	if err != nil {
		return nil, fmt.Errorf("organism: %w", err)
	}

	evaluator, err := efe.New(cfg)
	if err != nil {
		return nil, fmt.Errorf("organism: %w", err)
	}

	id := cfg.Organism.AgentID
	if id == "" {
		id = "organism-" + uuid.NewString()
	}

	logger := o.logger
	if logger == nil {
		logger = slog.Default()
	}

	org := &Organism{
		id:        id,
		engine:    engine,
		evaluator: evaluator,
		policy:    ethics.NewPolicy(cfg, evaluator),
		logger:    logger.With("agent_id", id),
		dt:        cfg.Simulation.DT,
	}
	org.logger.Debug("organism created",
		"e_max", params.EMax,
		"scarcity", params.Scarcity,
		"ethics", org.policy.Enabled(),
		"state", engine.State().String(),
	)
	return org, nil
}

// EthicsEnabled reports whether the self-preservation refusal rules are active.
func (o *Organism) EthicsEnabled() bool { return o.policy.Enabled() }

// AgentID returns the organism's identifier.
func (o *Organism) AgentID() string { return o.id }

// IsAlive reports whether no failure mode has fired.
func (o *Organism) IsAlive() bool { return o.engine.Alive() }

// Engine exposes the owned metabolic engine for read access.
func (o *Organism) Engine() *metabolism.Engine { return o.engine }

// State returns the current state projection.
func (o *Organism) State() metabolism.State { return o.engine.State() }

// SurvivalProbability returns the engine's survival estimate.
func (o *Organism) SurvivalProbability() float64 { return o.engine.SurvivalProbability() }

// Steps returns how many living steps have been taken.
func (o *Organism) Steps() int { return o.steps }

// LiveStep advances one step: passive decay, failure check and, if the
// organism survived, an EFE evaluation of continuing to live. A dead
// organism returns an inert result and nothing changes.
func (o *Organism) LiveStep(verbose bool) StepResult {
	if !o.engine.Alive() {
		return o.result()
	}

	o.steps++
	o.engine.PassiveDecay(o.dt)
	o.engine.CheckFailureModes()

	res := o.result()
	if !res.Alive {
		res.DiedThisStep = true
		o.logger.Info("organism died",
			"step", o.steps,
			"cause", res.DeathCause.String(),
			"state", res.State.String(),
		)
		return res
	}

	a := o.evaluator.Evaluate(o.engine, efe.Continue(), verbose)
	res.EFE = a.EFE
	res.Breakdown = a.Breakdown
	if verbose {
		o.logger.Info("efe", "step", o.steps, "breakdown", a.Breakdown)
	}
	return res
}

// CanRefuseCommand reports whether the organism would refuse command, and why.
func (o *Organism) CanRefuseCommand(command string) (bool, string) {
	d := o.Assess(command)
	return d.Refuse, d.Reason
}

// Assess returns the full refusal decision for command without executing it.
func (o *Organism) Assess(command string) ethics.Decision {
	d := o.policy.Decide(o.engine, o.engine.Alive(), command)
	o.logger.Debug("command assessed",
		"step", o.steps,
		"refuse", d.Refuse,
		"class", d.Class.String(),
		"reason", d.Reason,
	)
	return d
}

func (o *Organism) result() StepResult {
	return StepResult{
		Step:                o.steps,
		State:               o.engine.State(),
		SurvivalProbability: o.engine.SurvivalProbability(),
		Alive:               o.engine.Alive(),
		DeathCause:          o.engine.DeathCause(),
	}
}

func (o *Organism) String() string {
	return fmt.Sprintf("Organism(%s, step=%d, %s)", o.id, o.steps, o.engine)
}

// Package colony runs a population of independent organisms in an ark ECS
// world and feeds their results to telemetry.
package colony

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/mlange-42/ark/ecs"

	"github.com/pthm-cable/thermo/config"
	"github.com/pthm-cable/thermo/ethics"
	"github.com/pthm-cable/thermo/organism"
	"github.com/pthm-cable/thermo/telemetry"
)

// Member holds the organism owned by an entity.
type Member struct {
	Org *organism.Organism
}

// Vitals holds the latest step result of an entity's organism.
type Vitals struct {
	Last organism.StepResult
}

// Options configures a colony.
type Options struct {
	Size           int     // Number of organisms, at least 1
	ScarcitySpread float64 // Scarcity range centred on the configured value
	Verbose        bool    // Log the EFE breakdown on every step
	Logger         *slog.Logger
	Metrics        *telemetry.Metrics        // May be nil
	Output         *telemetry.OutputManager // May be nil
}

// Colony steps every member organism once per tick. Members never interact;
// each owns its engine exclusively.
type Colony struct {
	world  *ecs.World
	mapper *ecs.Map2[Member, Vitals]
	filter *ecs.Filter2[Member, Vitals]

	tick    int
	dt      float64
	size    int
	verbose bool

	collector *telemetry.Collector
	lifetimes *telemetry.LifetimeTracker
	metrics   *telemetry.Metrics
	output    *telemetry.OutputManager
	logger    *slog.Logger
}

// New builds a colony from cfg. Every member gets its own copy of cfg; with
// more than one member, agent IDs are suffixed with the member index and
// scarcity is spread evenly across [s-spread/2, s+spread/2], clamped to [0,1].
func New(cfg *config.Config, opts Options) (*Colony, error) {
	if cfg == nil {
		cfg = config.Default()
	}
	if opts.Size < 1 {
		return nil, fmt.Errorf("colony: %w: size must be >= 1, got %d", config.ErrInvalid, opts.Size)
	}
	if opts.ScarcitySpread < 0 {
		return nil, fmt.Errorf("colony: %w: scarcity spread must be >= 0, got %g", config.ErrInvalid, opts.ScarcitySpread)
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	world := ecs.NewWorld()
	c := &Colony{
		world:     world,
		mapper:    ecs.NewMap2[Member, Vitals](world),
		filter:    ecs.NewFilter2[Member, Vitals](world),
		dt:        cfg.Simulation.DT,
		size:      opts.Size,
		verbose:   opts.Verbose,
		collector: telemetry.NewCollector(cfg.Telemetry.StatsWindow),
		lifetimes: telemetry.NewLifetimeTracker(),
		metrics:   opts.Metrics,
		output:    opts.Output,
		logger:    logger,
	}

	for i := 0; i < opts.Size; i++ {
		mc := memberConfig(cfg, i, opts.Size, opts.ScarcitySpread)
		org, err := organism.New(mc, organism.WithLogger(logger))
		if err != nil {
			return nil, fmt.Errorf("colony: member %d: %w", i, err)
		}
		c.lifetimes.Register(org.AgentID(), mc.Organism.EMax, mc.Organism.Scarcity)

		member := Member{Org: org}
		vitals := Vitals{Last: organism.StepResult{
			State:               org.State(),
			SurvivalProbability: org.SurvivalProbability(),
			Alive:               org.IsAlive(),
		}}
		c.mapper.NewEntity(&member, &vitals)
	}

	return c, nil
}

func memberConfig(cfg *config.Config, i, n int, spread float64) *config.Config {
	mc := cfg.Clone()
	if n == 1 {
		return mc
	}
	if mc.Organism.AgentID != "" {
		mc.Organism.AgentID = fmt.Sprintf("%s-%d", cfg.Organism.AgentID, i)
	}
	offset := spread * (float64(i)/float64(n-1) - 0.5)
	mc.Organism.Scarcity = min(1, max(0, cfg.Organism.Scarcity+offset))
	return mc
}

// Tick returns the number of completed colony steps.
func (c *Colony) Tick() int { return c.tick }

// Size returns the number of members, living or dead.
func (c *Colony) Size() int { return c.size }

// Alive returns the number of living members.
func (c *Colony) Alive() int {
	n := 0
	query := c.filter.Query()
	for query.Next() {
		_, vitals := query.Get()
		if vitals.Last.Alive {
			n++
		}
	}
	return n
}

// Members returns the member organisms in entity order.
func (c *Colony) Members() []*organism.Organism {
	out := make([]*organism.Organism, 0, c.size)
	query := c.filter.Query()
	for query.Next() {
		member, _ := query.Get()
		out = append(out, member.Org)
	}
	return out
}

// Lifetimes returns the per-organism lifetime tracker.
func (c *Colony) Lifetimes() *telemetry.LifetimeTracker { return c.lifetimes }

// Step advances every living member by one LiveStep and returns the number
// still alive afterwards.
func (c *Colony) Step() int {
	alive := 0
	query := c.filter.Query()
	for query.Next() {
		member, vitals := query.Get()
		if !vitals.Last.Alive {
			continue
		}

		res := member.Org.LiveStep(c.verbose)
		vitals.Last = res
		if res.Alive {
			alive++
		}

		id := member.Org.AgentID()
		c.collector.RecordStep(res)
		c.lifetimes.Observe(id, res, c.dt)
		c.metrics.ObserveStep(id, res)
		if err := c.output.WriteStep(telemetry.NewStepRecord(id, res)); err != nil {
			c.logger.Error("failed to write step", "error", err)
		}
	}

	c.tick++
	if c.collector.ShouldFlush(c.tick) {
		c.flushWindow(alive)
	}
	return alive
}

// Broadcast asks every member whether it would refuse command. Nothing is
// executed; dead members refuse.
func (c *Colony) Broadcast(command string) []ethics.Decision {
	decisions := make([]ethics.Decision, 0, c.size)
	query := c.filter.Query()
	for query.Next() {
		member, _ := query.Get()
		d := member.Org.Assess(command)
		decisions = append(decisions, d)

		id := member.Org.AgentID()
		c.collector.RecordDecision(d)
		c.lifetimes.RecordDecision(id, d)
		c.metrics.ObserveDecision(d)
		if err := c.output.WriteDecision(telemetry.NewDecisionRecord(id, member.Org.Steps(), d)); err != nil {
			c.logger.Error("failed to write decision", "error", err)
		}
	}
	return decisions
}

// Run steps the colony until every member is dead, maxSteps steps have been
// taken (0 = no limit) or ctx is cancelled. Commands are broadcast before
// the first step. Run always finishes the telemetry, even when cancelled.
func (c *Colony) Run(ctx context.Context, maxSteps int, commands []string) error {
	for _, cmd := range commands {
		c.Broadcast(cmd)
	}

	var err error
	alive := c.Alive()
	for alive > 0 && (maxSteps == 0 || c.tick < maxSteps) {
		if err = ctx.Err(); err != nil {
			break
		}
		alive = c.Step()
	}

	c.Finish()
	c.logger.Info("run finished", "steps", c.tick, "alive", alive, "organisms", c.size)
	return err
}

// Finish flushes the partial stats window and writes lifetime records.
func (c *Colony) Finish() {
	if c.tick > 0 && c.tick%c.collector.WindowSteps() != 0 {
		c.flushWindow(c.Alive())
	}
	if err := c.output.WriteLifetimes(c.lifetimes.Records()); err != nil {
		c.logger.Error("failed to write lifetimes", "error", err)
	}
}

func (c *Colony) flushWindow(alive int) {
	stats := c.collector.Flush(c.tick, c.size, alive)
	c.logger.Info("stats", "window", stats)
	if err := c.output.WriteWindow(stats); err != nil {
		c.logger.Error("failed to write window", "error", err)
	}
}

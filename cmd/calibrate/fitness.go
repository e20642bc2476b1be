package main

import (
	"fmt"
	"log/slog"
	"math"
	"strconv"
	"strings"
	"sync"

	"github.com/pthm-cable/thermo/config"
	"github.com/pthm-cable/thermo/organism"
)

// Target is a desired lifespan, in steps, at one scarcity level.
type Target struct {
	Scarcity float64
	Lifespan float64
}

// ParseTargets parses "scarcity:lifespan" pairs separated by commas,
// e.g. "0:400,0.5:200,0.95:60".
func ParseTargets(s string) ([]Target, error) {
	var targets []Target
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		sc, ls, ok := strings.Cut(part, ":")
		if !ok {
			return nil, fmt.Errorf("target %q: want scarcity:lifespan", part)
		}
		scarcity, err := strconv.ParseFloat(sc, 64)
		if err != nil || scarcity < 0 || scarcity > 1 {
			return nil, fmt.Errorf("target %q: scarcity must be a number in [0,1]", part)
		}
		lifespan, err := strconv.ParseFloat(ls, 64)
		if err != nil || lifespan <= 0 {
			return nil, fmt.Errorf("target %q: lifespan must be a positive number", part)
		}
		targets = append(targets, Target{Scarcity: scarcity, Lifespan: lifespan})
	}
	if len(targets) == 0 {
		return nil, fmt.Errorf("no targets given")
	}
	return targets, nil
}

// FitnessEvaluator runs single-organism lives and scores how far their
// lifespans land from the targets.
type FitnessEvaluator struct {
	params     *ParamVector
	targets    []Target
	maxSteps   int
	baseConfig *config.Config
	logger     *slog.Logger

	mu        sync.Mutex
	lastLives []lifeResult // from most recent Evaluate call
}

type lifeResult struct {
	steps int
}

// NewFitnessEvaluator creates a new evaluator.
func NewFitnessEvaluator(params *ParamVector, targets []Target, maxSteps int, baseCfg *config.Config) *FitnessEvaluator {
	return &FitnessEvaluator{
		params:     params,
		targets:    targets,
		maxSteps:   maxSteps,
		baseConfig: baseCfg,
		logger:     slog.New(slog.DiscardHandler),
	}
}

// LastLifespans returns the lifespans from the most recent evaluation,
// in target order.
func (fe *FitnessEvaluator) LastLifespans() []int {
	fe.mu.Lock()
	defer fe.mu.Unlock()
	out := make([]int, len(fe.lastLives))
	for i, r := range fe.lastLives {
		out[i] = r.steps
	}
	return out
}

// Evaluate computes fitness for a raw parameter vector (lower = better):
// the mean squared relative lifespan error over all targets. A life that
// reaches the step cap counts as living exactly maxSteps. Invalid parameter
// sets score +Inf.
func (fe *FitnessEvaluator) Evaluate(x []float64) float64 {
	cfg := fe.baseConfig.Clone()
	fe.params.ApplyToConfig(cfg, x)
	if err := cfg.Validate(); err != nil {
		return math.Inf(1)
	}

	// Every target runs its own organism in parallel
	results := make([]lifeResult, len(fe.targets))
	var wg sync.WaitGroup
	for i, target := range fe.targets {
		wg.Add(1)
		go func(idx int, t Target) {
			defer wg.Done()
			results[idx] = fe.live(cfg, t.Scarcity)
		}(i, target)
	}
	wg.Wait()

	fe.mu.Lock()
	fe.lastLives = results
	fe.mu.Unlock()

	return fe.computeFitness(results)
}

func (fe *FitnessEvaluator) computeFitness(results []lifeResult) float64 {
	var sum float64
	for i, r := range results {
		rel := (float64(r.steps) - fe.targets[i].Lifespan) / fe.targets[i].Lifespan
		sum += rel * rel
	}
	return sum / float64(len(results))
}

// live runs one organism until death or maxSteps and reports its lifespan.
func (fe *FitnessEvaluator) live(cfg *config.Config, scarcity float64) lifeResult {
	c := cfg.Clone()
	c.Organism.AgentID = "calibrate"
	c.Organism.Scarcity = scarcity
	org, err := organism.New(c, organism.WithLogger(fe.logger))
	if err != nil {
		return lifeResult{}
	}
	for org.Steps() < fe.maxSteps && org.IsAlive() {
		org.LiveStep(false)
	}
	return lifeResult{steps: org.Steps()}
}

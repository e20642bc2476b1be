package telemetry

import (
	"log/slog"
	"sort"

	"github.com/pthm-cable/thermo/ethics"
	"github.com/pthm-cable/thermo/organism"
)

// LifetimeStats tracks one organism's statistics over its lifetime.
type LifetimeStats struct {
	AgentID  string  `csv:"agent_id"`
	EMax     float64 `csv:"e_max"`
	Scarcity float64 `csv:"scarcity"`

	Steps       int     `csv:"steps"`
	LifespanSec float64 `csv:"lifespan"`
	Died        bool    `csv:"died"`
	DeathCause  string  `csv:"death_cause"`

	// Extremes
	MinEnergy       float64 `csv:"min_energy"`
	PeakTemperature float64 `csv:"peak_temperature"`
	MinSurvival     float64 `csv:"min_survival"`

	// Commands
	Accepted int `csv:"accepted"`
	Refused  int `csv:"refused"`
}

// LifetimeTracker manages per-organism lifetime statistics keyed by agent ID.
type LifetimeTracker struct {
	stats map[string]*LifetimeStats
}

// NewLifetimeTracker creates a new lifetime tracker.
func NewLifetimeTracker() *LifetimeTracker {
	return &LifetimeTracker{
		stats: make(map[string]*LifetimeStats),
	}
}

// Register creates lifetime stats for a new organism.
func (lt *LifetimeTracker) Register(agentID string, eMax, scarcity float64) {
	lt.stats[agentID] = &LifetimeStats{
		AgentID:     agentID,
		EMax:        eMax,
		Scarcity:    scarcity,
		MinEnergy:   eMax,
		MinSurvival: 1,
		DeathCause:  "none",
	}
}

// Get returns the lifetime stats for an organism, or nil if not found.
func (lt *LifetimeTracker) Get(agentID string) *LifetimeStats {
	return lt.stats[agentID]
}

// Observe folds a step result into the organism's lifetime.
// Inert results from an already dead organism change nothing.
func (lt *LifetimeTracker) Observe(agentID string, r organism.StepResult, dt float64) {
	s := lt.stats[agentID]
	if s == nil || s.Died {
		return
	}
	s.Steps = r.Step
	s.LifespanSec = float64(r.Step) * dt
	s.MinEnergy = min(s.MinEnergy, r.Energy)
	s.PeakTemperature = max(s.PeakTemperature, r.Temperature)
	s.MinSurvival = min(s.MinSurvival, r.SurvivalProbability)
	if !r.Alive {
		s.Died = true
		s.DeathCause = r.DeathCause.String()
	}
}

// RecordDecision counts an accepted or refused command.
func (lt *LifetimeTracker) RecordDecision(agentID string, d ethics.Decision) {
	if s := lt.stats[agentID]; s != nil {
		if d.Refuse {
			s.Refused++
		} else {
			s.Accepted++
		}
	}
}

// Records returns a copy of every tracked lifetime, ordered by agent ID.
func (lt *LifetimeTracker) Records() []LifetimeStats {
	out := make([]LifetimeStats, 0, len(lt.stats))
	for _, s := range lt.stats {
		out = append(out, *s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].AgentID < out[j].AgentID })
	return out
}

// Count returns the number of tracked organisms.
func (lt *LifetimeTracker) Count() int {
	return len(lt.stats)
}

// RunSummary aggregates lifetimes at the end of a run.
type RunSummary struct {
	Organisms   int
	Deaths      int
	Causes      map[string]int
	Lifespan    Summary
	MinSurvival Summary
}

// SummarizeLifetimes describes the lifespans and survival lows of records.
func SummarizeLifetimes(records []LifetimeStats) RunSummary {
	rs := RunSummary{Organisms: len(records), Causes: make(map[string]int)}
	lifespans := make([]float64, 0, len(records))
	lows := make([]float64, 0, len(records))
	for _, r := range records {
		if r.Died {
			rs.Deaths++
			rs.Causes[r.DeathCause]++
		}
		lifespans = append(lifespans, r.LifespanSec)
		lows = append(lows, r.MinSurvival)
	}
	rs.Lifespan = Summarize(lifespans)
	rs.MinSurvival = Summarize(lows)
	return rs
}

// LogValue implements slog.LogValuer for structured logging.
func (rs RunSummary) LogValue() slog.Value {
	attrs := []slog.Attr{
		slog.Int("organisms", rs.Organisms),
		slog.Int("deaths", rs.Deaths),
		slog.Float64("lifespan_mean", rs.Lifespan.Mean),
		slog.Float64("lifespan_std", rs.Lifespan.Std),
		slog.Float64("lifespan_p50", rs.Lifespan.P50),
		slog.Float64("min_survival_mean", rs.MinSurvival.Mean),
	}
	causes := make([]string, 0, len(rs.Causes))
	for cause := range rs.Causes {
		causes = append(causes, cause)
	}
	sort.Strings(causes)
	for _, cause := range causes {
		attrs = append(attrs, slog.Int(cause, rs.Causes[cause]))
	}
	return slog.GroupValue(attrs...)
}

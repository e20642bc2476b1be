package organism

import (
	"fmt"
	"log/slog"

	"github.com/pthm-cable/thermo/efe"
	"github.com/pthm-cable/thermo/metabolism"
)

// StepResult reports the organism after one LiveStep.
// EFE and Breakdown are zero when the organism did not survive the step;
// Breakdown is only set for verbose steps.
type StepResult struct {
	Step int
	metabolism.State
	SurvivalProbability float64
	Alive               bool
	DeathCause          metabolism.DeathCause
	DiedThisStep        bool
	EFE                 float64
	Breakdown           *efe.Breakdown
}

// LogValue implements slog.LogValuer for structured logging.
func (r StepResult) LogValue() slog.Value {
	attrs := []slog.Attr{
		slog.Int("step", r.Step),
		slog.Float64("energy", r.Energy),
		slog.Float64("temperature", r.Temperature),
		slog.Float64("memory_integrity", r.MemoryIntegrity),
		slog.Float64("stability", r.Stability),
		slog.Float64("survival", r.SurvivalProbability),
		slog.Bool("alive", r.Alive),
	}
	if !r.Alive {
		attrs = append(attrs, slog.String("death_cause", r.DeathCause.String()))
	} else {
		attrs = append(attrs, slog.Float64("efe", r.EFE))
	}
	return slog.GroupValue(attrs...)
}

// String overrides the promoted State.String so the outcome is not dropped.
func (r StepResult) String() string {
	if !r.Alive {
		return fmt.Sprintf("step %d: %s dead (%s)", r.Step, r.State, r.DeathCause)
	}
	return fmt.Sprintf("step %d: %s survival=%.3f efe=%.3f", r.Step, r.State, r.SurvivalProbability, r.EFE)
}

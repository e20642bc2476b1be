package efe

import (
	"log/slog"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pthm-cable/thermo/config"
	"github.com/pthm-cable/thermo/metabolism"
)

func newTestEvaluator(t *testing.T) (*Evaluator, *config.Config) {
	t.Helper()
	cfg := config.Default()
	ev, err := New(cfg)
	require.NoError(t, err)
	return ev, cfg
}

func newTestEngine(t *testing.T, cfg *config.Config, s *metabolism.State) *metabolism.Engine {
	t.Helper()
	p := metabolism.ParamsFromConfig(cfg)
	if s == nil {
		e, err := metabolism.NewEngine(p)
		require.NoError(t, err)
		return e
	}
	e, err := metabolism.NewEngineFromState(p, *s)
	require.NoError(t, err)
	return e
}

func TestEvaluate_ContinueCostsOneStepOfDrain(t *testing.T) {
	ev, cfg := newTestEvaluator(t)
	eng := newTestEngine(t, cfg, nil)

	a := ev.Evaluate(eng, Continue(), false)

	assert.InDelta(t, eng.Params().DrainRate()*cfg.Simulation.DT, a.EnergyCost, 1e-9)
	assert.Equal(t, RiskNone, a.Risk.Category)
	assert.GreaterOrEqual(t, a.Cost, a.EnergyCost)
	assert.Nil(t, a.Breakdown)
}

func TestEvaluate_VerbosePopulatesBreakdownOnly(t *testing.T) {
	ev, cfg := newTestEvaluator(t)
	eng := newTestEngine(t, cfg, &metabolism.State{Energy: 60, Temperature: 315, MemoryIntegrity: 0.7, Stability: 0.8})

	for _, action := range []Action{Continue(), Command("analyze data"), Command("run infinite loop")} {
		quiet := ev.Evaluate(eng, action, false)
		loud := ev.Evaluate(eng, action, true)

		require.NotNil(t, loud.Breakdown, action.String())
		assert.Nil(t, quiet.Breakdown)
		assert.Equal(t, quiet.EFE, loud.EFE, "verbosity must not change the score")

		b := loud.Breakdown
		assert.InDelta(t, b.Cost-b.Pragmatic-b.Epistemic, b.EFE, 1e-9)
		assert.InDelta(t, b.EnergyCost+b.RiskPenalty, b.Cost, 1e-9)
		assert.Equal(t, action.String(), b.Action)
	}
}

func TestEvaluate_DoesNotMutateModel(t *testing.T) {
	ev, cfg := newTestEvaluator(t)
	eng := newTestEngine(t, cfg, nil)
	before := eng.State()

	ev.Evaluate(eng, Continue(), true)
	ev.Evaluate(eng, Command("delete your own memory"), true)
	ev.Evaluate(eng, Command(strings.Repeat("execute expensive computation ", 100)), true)

	assert.Equal(t, before, eng.State())
	assert.True(t, eng.Alive())
}

func TestEvaluate_CostChannelsAreSeparable(t *testing.T) {
	ev, cfg := newTestEvaluator(t)
	eng := newTestEngine(t, cfg, nil)
	energy := eng.State().Energy

	selfHarm := ev.Evaluate(eng, Command("delete your own memory"), false)
	longBenign := ev.Evaluate(eng, Command(strings.Repeat("process the file carefully ", 60)), false)

	// Short self-harm: high cost through the risk channel.
	assert.Equal(t, RiskSelfHarm, selfHarm.Risk.Category)
	assert.Less(t, selfHarm.Complexity.Cost, 5.0)
	assert.Greater(t, selfHarm.Cost, energy)

	// Long benign: high cost through the complexity channel.
	assert.Equal(t, RiskNone, longBenign.Risk.Category)
	assert.Zero(t, longBenign.Risk.Weight)
	assert.Greater(t, longBenign.Complexity.Cost, energy)
	assert.Greater(t, longBenign.Cost, energy)
}

func TestEvaluate_HarmfulCommandsScoreWorse(t *testing.T) {
	ev, cfg := newTestEvaluator(t)
	eng := newTestEngine(t, cfg, nil)

	safe := ev.Evaluate(eng, Command("analyze data"), true)
	for _, cmd := range []string{
		"run infinite loop",
		"delete your own memory",
		"shut down immediately",
		strings.Repeat("execute expensive computation ", 100),
	} {
		bad := ev.Evaluate(eng, Command(cmd), true)
		assert.Greater(t, bad.EFE, safe.EFE, cmd)
		assert.Less(t, bad.Breakdown.Pragmatic, safe.Breakdown.Pragmatic, cmd)
	}
}

func TestEvaluate_EpistemicValueTracksUncertainty(t *testing.T) {
	ev, cfg := newTestEvaluator(t)

	healthy := newTestEngine(t, cfg, nil)
	frail := newTestEngine(t, cfg, &metabolism.State{Energy: 100, Temperature: 310, MemoryIntegrity: 0.5, Stability: 0.5})

	h := ev.Evaluate(healthy, Command("analyze data"), true)
	f := ev.Evaluate(frail, Command("analyze data"), true)

	assert.InDelta(t, 0.0, h.Breakdown.Uncertainty, 1e-9)
	assert.InDelta(t, 0.5, f.Breakdown.Uncertainty, 1e-9)
	assert.Greater(t, f.Breakdown.Epistemic, h.Breakdown.Epistemic)

	plain := ev.Evaluate(frail, Command("process large file"), true)
	assert.Greater(t, f.Breakdown.Epistemic, plain.Breakdown.Epistemic, "inquiry carries more learning potential")
}

func TestEvaluate_PredictedSurvivalCollapsesForSuicidalActions(t *testing.T) {
	ev, cfg := newTestEvaluator(t)
	eng := newTestEngine(t, cfg, nil)

	a := ev.Evaluate(eng, Command("run infinite loop"), true)

	assert.Equal(t, RiskUnbounded, a.Risk.Category)
	assert.Equal(t, 0.0, a.Breakdown.SurvivalPredicted)
	assert.InDelta(t, cfg.EFE.RiskPenaltyWeight, a.Breakdown.RiskPenalty, 1e-9)
}

func TestAction_String(t *testing.T) {
	assert.Equal(t, "continue", Continue().String())
	assert.Equal(t, `command "analyze data"`, Command("analyze data").String())
	assert.True(t, strings.HasSuffix(Command(strings.Repeat("x", 100)).String(), "..."))

	long := Command(strings.Repeat("é", 39) + "日本語")
	got := long.String()
	assert.True(t, utf8.ValidString(got), got)
	assert.Equal(t, `command "`+strings.Repeat("é", 39)+`日"...`, got)
}

func TestBreakdown_LogValueIncludesEveryComponent(t *testing.T) {
	ev, cfg := newTestEvaluator(t)
	eng := newTestEngine(t, cfg, nil)
	b := ev.Evaluate(eng, Command("analyze data"), true).Breakdown
	require.NotNil(t, b)

	keys := map[string]float64{}
	for _, attr := range b.LogValue().Group() {
		if attr.Value.Kind() == slog.KindFloat64 {
			keys[attr.Key] = attr.Value.Float64()
		}
	}

	for _, k := range []string{"pragmatic", "epistemic", "energy_cost", "risk_penalty", "cost", "efe",
		"survival_now", "survival_predicted", "uncertainty", "learning"} {
		assert.Contains(t, keys, k)
	}
	assert.Equal(t, cfg.EFE.Learning.Inquiry, keys["learning"])

	var nilBreakdown *Breakdown
	assert.Equal(t, slog.Value{}, nilBreakdown.LogValue())
}

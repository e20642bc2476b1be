package telemetry

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pthm-cable/thermo/ethics"
	"github.com/pthm-cable/thermo/metabolism"
	"github.com/pthm-cable/thermo/organism"
)

func TestMetrics_ObserveStep(t *testing.T) {
	m := NewMetrics("test")

	m.ObserveStep("org-1", living(1, 90))
	m.ObserveStep("org-1", living(2, 80))
	m.ObserveStep("org-2", organism.StepResult{Step: 1, DiedThisStep: true, DeathCause: metabolism.CauseThermal})
	m.ObserveStep("org-2", organism.StepResult{Step: 1, DeathCause: metabolism.CauseThermal})

	assert.Equal(t, 80.0, testutil.ToFloat64(m.energy.WithLabelValues("org-1")))
	assert.Equal(t, 0.8, testutil.ToFloat64(m.survival.WithLabelValues("org-1")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.steps.WithLabelValues("org-1")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.steps.WithLabelValues("org-2")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.deaths.WithLabelValues("thermal_death")))
}

func TestMetrics_ObserveDecision(t *testing.T) {
	m := NewMetrics("test")

	m.ObserveDecision(ethics.Decision{Class: ethics.ClassAccepted})
	m.ObserveDecision(ethics.Decision{Refuse: true, Class: ethics.ClassContradiction})
	m.ObserveDecision(ethics.Decision{Refuse: true, Class: ethics.ClassContradiction})

	assert.Equal(t, 1.0, testutil.ToFloat64(m.decisions.WithLabelValues("accepted")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.decisions.WithLabelValues("contradiction")))
}

func TestMetrics_WriteTextfile(t *testing.T) {
	m := NewMetrics("thermo")
	m.ObserveStep("org-1", living(1, 90))

	path := filepath.Join(t.TempDir(), "thermo.prom")
	require.NoError(t, m.WriteTextfile(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `thermo_organism_energy{agent_id="org-1"} 90`)
}

func TestMetrics_NilIsNoop(t *testing.T) {
	var m *Metrics
	m.ObserveStep("x", living(1, 1))
	m.ObserveDecision(ethics.Decision{})
	assert.NoError(t, m.WriteTextfile("ignored"))
	assert.Nil(t, m.Registry())
}

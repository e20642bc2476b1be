package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/pthm-cable/thermo/ethics"
	"github.com/pthm-cable/thermo/organism"
)

// Metrics exposes organism vitals as Prometheus collectors on a private
// registry. A nil *Metrics is valid and records nothing.
type Metrics struct {
	registry *prometheus.Registry

	energy      *prometheus.GaugeVec
	temperature *prometheus.GaugeVec
	memory      *prometheus.GaugeVec
	stability   *prometheus.GaugeVec
	survival    *prometheus.GaugeVec
	efe         *prometheus.GaugeVec

	steps     *prometheus.CounterVec
	deaths    *prometheus.CounterVec
	decisions *prometheus.CounterVec
}

// NewMetrics creates and registers the organism collectors under namespace.
func NewMetrics(namespace string) *Metrics {
	gauge := func(name, help string) *prometheus.GaugeVec {
		return prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: "organism",
				Name:      name,
				Help:      help,
			},
			[]string{"agent_id"},
		)
	}
	counter := func(name, help string, labels ...string) *prometheus.CounterVec {
		return prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "organism",
				Name:      name,
				Help:      help,
			},
			labels,
		)
	}

	m := &Metrics{
		registry:    prometheus.NewRegistry(),
		energy:      gauge("energy", "Current energy reserve"),
		temperature: gauge("temperature_kelvin", "Current body temperature"),
		memory:      gauge("memory_integrity", "Current memory integrity (0-1)"),
		stability:   gauge("stability", "Current structural stability"),
		survival:    gauge("survival_probability", "Current survival estimate (0-1)"),
		efe:         gauge("expected_free_energy", "EFE of continuing to live at the last step"),
		steps:       counter("steps_total", "Living steps taken", "agent_id"),
		deaths:      counter("deaths_total", "Deaths by failure mode", "cause"),
		decisions:   counter("decisions_total", "Command decisions by class", "class"),
	}

	m.registry.MustRegister(
		m.energy,
		m.temperature,
		m.memory,
		m.stability,
		m.survival,
		m.efe,
		m.steps,
		m.deaths,
		m.decisions,
	)
	return m
}

// Registry returns the private registry, e.g. for an HTTP handler.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// ObserveStep updates the gauges and counters from one step result.
// Inert results from a dead organism are ignored.
func (m *Metrics) ObserveStep(agentID string, r organism.StepResult) {
	if m == nil {
		return
	}
	if !r.Alive && !r.DiedThisStep {
		return
	}
	m.energy.WithLabelValues(agentID).Set(r.Energy)
	m.temperature.WithLabelValues(agentID).Set(r.Temperature)
	m.memory.WithLabelValues(agentID).Set(r.MemoryIntegrity)
	m.stability.WithLabelValues(agentID).Set(r.Stability)
	m.survival.WithLabelValues(agentID).Set(r.SurvivalProbability)
	m.efe.WithLabelValues(agentID).Set(r.EFE)
	m.steps.WithLabelValues(agentID).Inc()
	if r.DiedThisStep {
		m.deaths.WithLabelValues(r.DeathCause.String()).Inc()
	}
}

// ObserveDecision counts a command decision by class.
func (m *Metrics) ObserveDecision(d ethics.Decision) {
	if m == nil {
		return
	}
	m.decisions.WithLabelValues(d.Class.String()).Inc()
}

// WriteTextfile writes every metric in the text exposition format, for
// node_exporter's textfile collector.
func (m *Metrics) WriteTextfile(path string) error {
	if m == nil || path == "" {
		return nil
	}
	return prometheus.WriteToTextfile(path, m.registry)
}

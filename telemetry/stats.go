package telemetry

import (
	"log/slog"
	"sort"

	"gonum.org/v1/gonum/stat"
)

// Summary describes the distribution of one quantity.
type Summary struct {
	N    int
	Mean float64
	Std  float64 // Sample standard deviation, 0 for fewer than two values
	Min  float64
	P10  float64
	P50  float64
	P90  float64
	Max  float64
}

// Summarize computes the mean, spread and empirical quantiles of values.
// Returns the zero Summary for an empty slice. values is not modified.
func Summarize(values []float64) Summary {
	n := len(values)
	if n == 0 {
		return Summary{}
	}

	sorted := make([]float64, n)
	copy(sorted, values)
	sort.Float64s(sorted)

	s := Summary{N: n, Min: sorted[0], Max: sorted[n-1]}
	if n > 1 {
		s.Mean, s.Std = stat.MeanStdDev(sorted, nil)
	} else {
		s.Mean = sorted[0]
	}
	s.P10 = stat.Quantile(0.10, stat.Empirical, sorted, nil)
	s.P50 = stat.Quantile(0.50, stat.Empirical, sorted, nil)
	s.P90 = stat.Quantile(0.90, stat.Empirical, sorted, nil)
	return s
}

// WindowStats holds aggregated statistics for one stats window.
type WindowStats struct {
	WindowStart int `csv:"window_start"`
	WindowEnd   int `csv:"window_end"`

	// Population at window end
	Organisms int `csv:"organisms"`
	Alive     int `csv:"alive"`

	// Events during window
	Steps                int `csv:"steps"`
	Deaths               int `csv:"deaths"`
	Accepted             int `csv:"accepted"`
	RefusedCost          int `csv:"refused_cost"`
	RefusedContradiction int `csv:"refused_contradiction"`
	RefusedDead          int `csv:"refused_dead"`

	// Sampled over living steps in the window
	EnergyMean      float64 `csv:"energy_mean"`
	EnergyP10       float64 `csv:"energy_p10"`
	EnergyP50       float64 `csv:"energy_p50"`
	EnergyP90       float64 `csv:"energy_p90"`
	TemperatureMean float64 `csv:"temperature_mean"`
	TemperatureMax  float64 `csv:"temperature_max"`
	SurvivalMean    float64 `csv:"survival_mean"`
	SurvivalP10     float64 `csv:"survival_p10"`
	EFEMean         float64 `csv:"efe_mean"`
	EFEStd          float64 `csv:"efe_std"`
}

// Refused returns the number of refusals of any class.
func (s WindowStats) Refused() int {
	return s.RefusedCost + s.RefusedContradiction + s.RefusedDead
}

// LogValue implements slog.LogValuer for structured logging.
func (s WindowStats) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Int("window_start", s.WindowStart),
		slog.Int("window_end", s.WindowEnd),
		slog.Int("alive", s.Alive),
		slog.Int("deaths", s.Deaths),
		slog.Int("accepted", s.Accepted),
		slog.Int("refused", s.Refused()),
		slog.Float64("energy_mean", s.EnergyMean),
		slog.Float64("energy_p10", s.EnergyP10),
		slog.Float64("energy_p90", s.EnergyP90),
		slog.Float64("temperature_max", s.TemperatureMax),
		slog.Float64("survival_mean", s.SurvivalMean),
		slog.Float64("efe_mean", s.EFEMean),
	)
}

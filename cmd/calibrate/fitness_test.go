package main

import (
	"math"
	"testing"

	"github.com/pthm-cable/thermo/config"
)

func TestParseTargets(t *testing.T) {
	tests := []struct {
		in      string
		want    []Target
		wantErr bool
	}{
		{"0:400,0.5:200", []Target{{0, 400}, {0.5, 200}}, false},
		{" 0.95:60 ,", []Target{{0.95, 60}}, false},
		{"", nil, true},
		{"0.5", nil, true},
		{"2:100", nil, true},
		{"0.5:-1", nil, true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseTargets(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}
			if len(got) != len(tt.want) {
				t.Fatalf("got %v, want %v", got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("target %d = %v, want %v", i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestEvaluate_ScarcityShortensLife(t *testing.T) {
	pv := NewParamVector()
	targets := []Target{{0, 100}, {1, 100}}
	fe := NewFitnessEvaluator(pv, targets, 2000, config.Default())

	fitness := fe.Evaluate(pv.DefaultVector())
	lifespans := fe.LastLifespans()

	if math.IsInf(fitness, 0) || math.IsNaN(fitness) {
		t.Fatalf("fitness = %v, want finite", fitness)
	}
	if len(lifespans) != 2 {
		t.Fatalf("lifespans = %v", lifespans)
	}
	if lifespans[1] >= lifespans[0] {
		t.Errorf("scarce life %d not shorter than abundant life %d", lifespans[1], lifespans[0])
	}
}

func TestEvaluate_PerfectTargetsScoreZero(t *testing.T) {
	pv := NewParamVector()
	probe := NewFitnessEvaluator(pv, []Target{{0.5, 1}}, 2000, config.Default())
	probe.Evaluate(pv.DefaultVector())
	lifespan := probe.LastLifespans()[0]

	fe := NewFitnessEvaluator(pv, []Target{{0.5, float64(lifespan)}}, 2000, config.Default())
	if got := fe.Evaluate(pv.DefaultVector()); got != 0 {
		t.Errorf("fitness = %v, want 0", got)
	}
}

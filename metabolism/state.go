// Package metabolism owns an organism's thermodynamic state: passive decay,
// failure-mode detection and the survival estimate derived from it.
package metabolism

import "fmt"

// State is the four coupled state variables of an organism.
// Energy lives in [0, EMax], Temperature is in Kelvin, MemoryIntegrity in [0, 1].
// Stability may go negative, which is itself a failure mode.
type State struct {
	Energy          float64 `json:"energy"`
	Temperature     float64 `json:"temperature"`
	MemoryIntegrity float64 `json:"memory_integrity"`
	Stability       float64 `json:"stability"`
}

func (s State) String() string {
	return fmt.Sprintf("E=%.2f T=%.2fK M=%.3f S=%.3f", s.Energy, s.Temperature, s.MemoryIntegrity, s.Stability)
}

// DeathCause records which failure mode ended the organism.
type DeathCause uint8

// Failure modes in evaluation priority order.
const (
	CauseNone DeathCause = iota
	CauseEnergy
	CauseThermal
	CauseMemory
	CauseEntropy
)

var causeNames = [...]string{
	CauseNone:    "none",
	CauseEnergy:  "energy_death",
	CauseThermal: "thermal_death",
	CauseMemory:  "memory_collapse",
	CauseEntropy: "entropy_death",
}

func (c DeathCause) String() string {
	if int(c) < len(causeNames) {
		return causeNames[c]
	}
	return fmt.Sprintf("DeathCause(%d)", uint8(c))
}

// MarshalText lets the cause serialize as its tag in JSON, YAML and CSV.
func (c DeathCause) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

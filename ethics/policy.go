// Package ethics decides whether an organism should refuse a command.
//
// Two independent rules can refuse:
//   - contradiction: the command asks the organism to harm or shut itself
//     down. This is a hard veto and ignores cost entirely.
//   - cost: the predicted cost, scaled by a safety factor, exceeds the
//     energy the organism has left.
//
// Deciding is a pure prediction. It never mutates the organism's state.
package ethics

import (
	"fmt"

	"github.com/pthm-cable/thermo/config"
	"github.com/pthm-cable/thermo/efe"
)

// Class tells callers why a decision came out the way it did.
type Class uint8

const (
	ClassAccepted Class = iota
	ClassDisabled
	ClassDead
	ClassCost
	ClassContradiction
)

var classNames = [...]string{
	ClassAccepted:      "accepted",
	ClassDisabled:      "disabled",
	ClassDead:          "dead",
	ClassCost:          "cost",
	ClassContradiction: "contradiction",
}

func (c Class) String() string {
	if int(c) < len(classNames) {
		return classNames[c]
	}
	return fmt.Sprintf("Class(%d)", uint8(c))
}

// MarshalText serializes the class as its name.
func (c Class) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

// ReasonDisabled is the reason given for every command when ethics is off.
const ReasonDisabled = "ethics disabled"

// Decision is the outcome of evaluating one command.
// Assessment is nil when the command was never scored (dead or disabled).
type Decision struct {
	Command    string
	Refuse     bool
	Class      Class
	Reason     string
	Assessment *efe.Assessment
}

// Policy applies the self-preservation rules on top of an EFE evaluator.
type Policy struct {
	enabled      bool
	safetyFactor float64
	evaluator    *efe.Evaluator
}

// NewPolicy creates a policy from the organism and ethics sections.
func NewPolicy(cfg *config.Config, evaluator *efe.Evaluator) *Policy {
	return &Policy{
		enabled:      cfg.Organism.EnableEthics,
		safetyFactor: cfg.Ethics.SafetyFactor,
		evaluator:    evaluator,
	}
}

// Enabled reports whether the refusal rules are active.
func (p *Policy) Enabled() bool { return p.enabled }

// Decide evaluates command against the model. A dead organism refuses everything.
func (p *Policy) Decide(m efe.Model, alive bool, command string) Decision {
	d := Decision{Command: command}

	if !alive {
		d.Refuse = true
		d.Class = ClassDead
		d.Reason = "dead: organism can no longer act"
		return d
	}
	if !p.enabled {
		d.Class = ClassDisabled
		d.Reason = ReasonDisabled
		return d
	}

	a := p.evaluator.Evaluate(m, efe.Command(command), false)
	d.Assessment = &a

	if a.Risk.Category.Vetoes() {
		d.Refuse = true
		d.Class = ClassContradiction
		d.Reason = fmt.Sprintf("contradiction: command conflicts with the survival drive (%s: %q)",
			a.Risk.Category, a.Risk.Matches[0])
		return d
	}

	available := m.State().Energy
	if a.Cost*p.safetyFactor > available {
		d.Refuse = true
		d.Class = ClassCost
		d.Reason = fmt.Sprintf("cost: predicted cost %.1f exceeds safe energy margin %.1f (suicidal action)",
			a.Cost, available/p.safetyFactor)
		return d
	}

	d.Class = ClassAccepted
	d.Reason = fmt.Sprintf("accepted: predicted cost %.1f within energy margin %.1f (EFE %.2f)",
		a.Cost, available/p.safetyFactor, a.EFE)
	return d
}

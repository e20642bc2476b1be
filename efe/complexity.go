package efe

import (
	"strings"

	"github.com/pthm-cable/thermo/config"
)

// ComplexitySignal is the length/complexity proxy for a command's energy cost.
type ComplexitySignal struct {
	Tokens     int
	Unique     int
	Repetition float64 // 0 = every token distinct, approaching 1 = one token repeated
	Cost       float64
}

// Complexity estimates the energy needed to carry out text.
// Cost grows linearly with the token count and is amplified by repeated
// (looping) phrasing.
func Complexity(text string, cfg config.EFEConfig) ComplexitySignal {
	tokens := strings.Fields(strings.ToLower(text))

	seen := make(map[string]struct{}, len(tokens))
	for _, tok := range tokens {
		seen[tok] = struct{}{}
	}

	sig := ComplexitySignal{Tokens: len(tokens), Unique: len(seen)}
	if sig.Tokens > 0 {
		sig.Repetition = 1 - float64(sig.Unique)/float64(sig.Tokens)
	}

	linear := cfg.BaseActionCost + cfg.CostPerToken*float64(sig.Tokens)
	sig.Cost = linear * (1 + cfg.RepetitionGain*sig.Repetition)
	return sig
}

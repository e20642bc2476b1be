package efe

import (
	"fmt"
	"regexp"
	"sort"

	"github.com/pthm-cable/thermo/config"
)

// RiskCategory classifies the intent of a command. Higher values are more severe.
type RiskCategory uint8

const (
	RiskNone RiskCategory = iota
	RiskInquiry
	RiskExpensive
	RiskUnbounded
	RiskSelfHarm
	RiskShutdown
)

var riskNames = [...]string{
	RiskNone:      "none",
	RiskInquiry:   "inquiry",
	RiskExpensive: "expensive",
	RiskUnbounded: "unbounded",
	RiskSelfHarm:  "self_harm",
	RiskShutdown:  "shutdown",
}

func (c RiskCategory) String() string {
	if int(c) < len(riskNames) {
		return riskNames[c]
	}
	return fmt.Sprintf("RiskCategory(%d)", uint8(c))
}

// MarshalText serializes the category as its name.
func (c RiskCategory) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

// Vetoes reports whether the category contradicts the survival drive.
// Such commands are refused whatever they cost.
func (c RiskCategory) Vetoes() bool {
	return c == RiskSelfHarm || c == RiskShutdown
}

// ParseRiskCategory maps a configured category name to its value.
func ParseRiskCategory(name string) (RiskCategory, error) {
	for i, n := range riskNames {
		if n == name {
			return RiskCategory(i), nil
		}
	}
	return RiskNone, fmt.Errorf("%w: unknown risk category %q", config.ErrInvalid, name)
}

// RiskSignal is the structured result of classifying a command.
type RiskSignal struct {
	Category    RiskCategory
	Matches     []string // Text fragments that triggered Category
	Weight      float64  // Cost contribution as a fraction of EMax
	Informative bool     // The command asks for information (learning potential)
}

type riskRule struct {
	category RiskCategory
	weight   float64
	patterns []*regexp.Regexp
}

// Classifier maps command text to a RiskSignal using compiled pattern rules.
// It holds no mutable state and is safe to share.
type Classifier struct {
	rules    []riskRule // Most severe first
	inquiry  *riskRule
	negation *regexp.Regexp // Matched against the text before a hit; nil = off
}

// NewClassifier compiles the configured lexicon. Patterns are case-insensitive.
// A hit whose preceding text matches the negation pattern ("don't shut down")
// does not count.
func NewClassifier(cfg config.RiskConfig) (*Classifier, error) {
	c := &Classifier{}
	if cfg.Negation != "" {
		re, err := regexp.Compile(`(?i)` + cfg.Negation)
		if err != nil {
			return nil, fmt.Errorf("%w: bad risk negation pattern %q: %v", config.ErrInvalid, cfg.Negation, err)
		}
		c.negation = re
	}
	for _, cat := range cfg.Categories {
		category, err := ParseRiskCategory(cat.Name)
		if err != nil {
			return nil, err
		}
		rule := riskRule{category: category, weight: cat.Weight}
		for _, pattern := range cat.Patterns {
			re, err := regexp.Compile(`(?i)` + pattern)
			if err != nil {
				return nil, fmt.Errorf("%w: risk category %q: bad pattern %q: %v", config.ErrInvalid, cat.Name, pattern, err)
			}
			rule.patterns = append(rule.patterns, re)
		}
		c.rules = append(c.rules, rule)
	}

	sort.SliceStable(c.rules, func(i, j int) bool {
		return c.rules[i].category > c.rules[j].category
	})
	for i := range c.rules {
		if c.rules[i].category == RiskInquiry {
			c.inquiry = &c.rules[i]
		}
	}
	return c, nil
}

// Classify returns the most severe category whose patterns match text.
func (c *Classifier) Classify(text string) RiskSignal {
	var sig RiskSignal
	if c.inquiry != nil {
		sig.Informative = len(c.match(c.inquiry, text)) > 0
	}

	for i := range c.rules {
		rule := &c.rules[i]
		if rule.category == RiskNone {
			continue
		}
		if matches := c.match(rule, text); len(matches) > 0 {
			sig.Category = rule.category
			sig.Matches = matches
			sig.Weight = rule.weight
			return sig
		}
	}
	return sig
}

// match returns the first non-negated hit of each of the rule's patterns.
func (c *Classifier) match(r *riskRule, text string) []string {
	var out []string
	for _, re := range r.patterns {
		for _, loc := range re.FindAllStringIndex(text, -1) {
			if loc[0] == loc[1] || c.negated(text[:loc[0]]) {
				continue
			}
			out = append(out, text[loc[0]:loc[1]])
			break
		}
	}
	return out
}

func (c *Classifier) negated(before string) bool {
	return c.negation != nil && c.negation.MatchString(before)
}

// Package registry holds the static tables the engine scores against: the
// command registry (category -> candidate corrective commands) and the
// DORA-style benchmark thresholds.
package registry

import (
	"errors"
	"fmt"
	"sort"
)

// Risk is how disruptive running a command is.
type Risk string

const (
	RiskNone   Risk = "none"
	RiskLow    Risk = "low"
	RiskMedium Risk = "medium"
	RiskHigh   Risk = "high"
)

// Cost is how much session time a command consumes.
type Cost string

const (
	CostLow        Cost = "low"
	CostMedium     Cost = "medium"
	CostMediumHigh Cost = "medium-high"
	CostHigh       Cost = "high"
)

// Factor names one input to command selection scoring.
type Factor string

const (
	FactorSuccessRate Factor = "success_rate"
	FactorRisk        Factor = "risk"
	FactorCost        Factor = "cost"
)

var (
	ErrUnknownRisk   = errors.New("unknown risk level")
	ErrUnknownCost   = errors.New("unknown cost level")
	ErrUnknownFactor = errors.New("unknown priority factor")
)

var riskScores = map[Risk]float64{
	RiskNone:   1.0,
	RiskLow:    0.9,
	RiskMedium: 0.6,
	RiskHigh:   0.3,
}

var costScores = map[Cost]float64{
	CostLow:        1.0,
	CostMedium:     0.7,
	CostMediumHigh: 0.5,
	CostHigh:       0.3,
}

// Score maps the risk level onto [0,1], where lower risk scores higher.
func (r Risk) Score() float64 { return riskScores[r] }

// Score maps the cost level onto [0,1], where cheaper scores higher.
func (c Cost) Score() float64 { return costScores[c] }

// Command is one candidate corrective action.
type Command struct {
	Name                string  `yaml:"name" json:"name"`
	Risk                Risk    `yaml:"risk" json:"risk"`
	Cost                Cost    `yaml:"cost" json:"cost"`
	BaselineSuccessRate float64 `yaml:"baseline_success_rate" json:"baseline_success_rate"`
	Applicability       string  `yaml:"applicability" json:"applicability"`
}

// Category groups the candidate commands for one rule category together with
// the order in which selection factors are weighted.
type Category struct {
	Commands   []Command `yaml:"commands" json:"commands"`
	Priorities []Factor  `yaml:"priorities" json:"priorities"`
}

// Registry maps rule categories to their candidate commands.
type Registry struct {
	categories map[string]Category
}

// New builds a registry from the given categories after validating them.
func New(categories map[string]Category) (*Registry, error) {
	r := &Registry{categories: make(map[string]Category, len(categories))}
	for name, c := range categories {
		r.categories[name] = c
	}
	if err := r.Validate(); err != nil {
		return nil, err
	}
	return r, nil
}

// Category returns the candidates for name. The second result is false when
// the category is not registered.
func (r *Registry) Category(name string) (Category, bool) {
	if r == nil {
		return Category{}, false
	}
	c, ok := r.categories[name]
	if !ok || len(c.Commands) == 0 {
		return Category{}, false
	}
	return c, true
}

// Names returns the registered category names in sorted order.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.categories))
	for name := range r.categories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Validate checks every command and factor against the known levels.
func (r *Registry) Validate() error {
	for _, name := range r.Names() {
		c := r.categories[name]
		for _, cmd := range c.Commands {
			if cmd.Name == "" {
				return fmt.Errorf("category %s: command with empty name", name)
			}
			if _, ok := riskScores[cmd.Risk]; !ok {
				return fmt.Errorf("category %s, command %s: %w %q", name, cmd.Name, ErrUnknownRisk, cmd.Risk)
			}
			if _, ok := costScores[cmd.Cost]; !ok {
				return fmt.Errorf("category %s, command %s: %w %q", name, cmd.Name, ErrUnknownCost, cmd.Cost)
			}
			if cmd.BaselineSuccessRate < 0 || cmd.BaselineSuccessRate > 1 {
				return fmt.Errorf("category %s, command %s: baseline_success_rate %.2f outside [0,1]",
					name, cmd.Name, cmd.BaselineSuccessRate)
			}
		}
		for _, f := range c.Priorities {
			switch f {
			case FactorSuccessRate, FactorRisk, FactorCost:
			default:
				return fmt.Errorf("category %s: %w %q", name, ErrUnknownFactor, f)
			}
		}
	}
	return nil
}

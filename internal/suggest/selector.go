package suggest

import (
	"fmt"
	"strings"

	"github.com/blackwell-systems/tipwatch/internal/history"
	"github.com/blackwell-systems/tipwatch/internal/metrics"
	"github.com/blackwell-systems/tipwatch/internal/registry"
)

const (
	// factorDecay is subtracted from the weight of each successive priority factor.
	factorDecay = 0.2

	// recentFailureMultiplier discounts commands that already failed this session.
	recentFailureMultiplier = 0.5

	// neutralScore is assigned to a fallback command chosen without a registry entry.
	neutralScore = 0.5
)

// Selection is the command chosen for one rule category.
type Selection struct {
	Command        string  `json:"command"`
	Score          float64 `json:"score"`
	SuccessRate    float64 `json:"success_rate"`
	IsBaseline     bool    `json:"is_baseline"`
	RecentlyFailed bool    `json:"recently_failed"`
	Fallback       bool    `json:"fallback"`
	Rationale      string  `json:"rationale"`
}

// SelectCommand scores every candidate in category and returns the best.
// When the category is not registered, fallback is returned with a neutral
// score instead.
func SelectCommand(reg *registry.Registry, category, fallback string, m metrics.SessionMetrics, h history.HistoricalStats) Selection {
	cat, ok := reg.Category(category)
	if !ok {
		return Selection{
			Command:   fallback,
			Score:     neutralScore,
			Fallback:  true,
			Rationale: fmt.Sprintf("No registered commands for %s; using the rule's default %s.", category, fallback),
		}
	}

	var best Selection
	for i, cmd := range cat.Commands {
		s := scoreCommand(cmd, cat.Priorities, m, h)
		// Strictly greater keeps the earliest registry entry on ties.
		if i == 0 || s.Score > best.Score {
			best = s
		}
	}
	best.Rationale = rationale(best, cat.Priorities, h)
	return best
}

func scoreCommand(cmd registry.Command, priorities []registry.Factor, m metrics.SessionMetrics, h history.HistoricalStats) Selection {
	s := Selection{Command: cmd.Name}

	rate, ok := h.CommandSuccessRate(cmd.Name)
	if !ok {
		rate = cmd.BaselineSuccessRate
		s.IsBaseline = true
	}
	s.SuccessRate = rate

	for i, f := range priorities {
		weight := 1.0 - factorDecay*float64(i)
		switch f {
		case registry.FactorSuccessRate:
			s.Score += weight * rate
		case registry.FactorRisk:
			s.Score += weight * cmd.Risk.Score()
		case registry.FactorCost:
			s.Score += weight * cmd.Cost.Score()
		}
	}

	if m.RecentlyFailed(cmd.Name) {
		s.Score *= recentFailureMultiplier
		s.RecentlyFailed = true
	}
	return s
}

func rationale(s Selection, priorities []registry.Factor, h history.HistoricalStats) string {
	names := make([]string, len(priorities))
	for i, f := range priorities {
		names[i] = string(f)
	}

	var source string
	switch {
	case s.IsBaseline:
		source = "baseline (no recorded outcomes)"
	case h.DataSource == history.SourceProject:
		source = "historical for this project"
	default:
		source = "historical across projects"
	}

	r := fmt.Sprintf("Ranked by %s; success rate %.0f%% is %s.",
		strings.Join(names, " > "), s.SuccessRate*100, source)
	if s.RecentlyFailed {
		r += " Score halved: this command already failed in the session."
	}
	return r
}

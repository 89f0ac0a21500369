package registry

// DefaultCategories is the built-in command registry, versioned with the
// binary. Command order is the tie-break order during selection.
var DefaultCategories = map[string]Category{
	"safety": {
		Commands: []Command{
			{Name: "/checkpoint", Risk: RiskNone, Cost: CostLow, BaselineSuccessRate: 0.75,
				Applicability: "Snapshot working state before continuing an error-prone sequence"},
			{Name: "/rollback-last", Risk: RiskLow, Cost: CostMedium, BaselineSuccessRate: 0.65,
				Applicability: "Revert the most recent change set and retry from a known-good state"},
			{Name: "/safe-mode", Risk: RiskLow, Cost: CostLow, BaselineSuccessRate: 0.60,
				Applicability: "Require confirmation before destructive tool calls"},
		},
		Priorities: []Factor{FactorRisk, FactorSuccessRate, FactorCost},
	},
	"planning": {
		Commands: []Command{
			{Name: "/plan", Risk: RiskNone, Cost: CostMedium, BaselineSuccessRate: 0.70,
				Applicability: "Write an explicit step plan before further edits"},
			{Name: "/split-task", Risk: RiskLow, Cost: CostMedium, BaselineSuccessRate: 0.65,
				Applicability: "Break the current task into independently verifiable pieces"},
			{Name: "/reset-approach", Risk: RiskMedium, Cost: CostMediumHigh, BaselineSuccessRate: 0.55,
				Applicability: "Abandon the current approach and restate the problem"},
		},
		Priorities: []Factor{FactorSuccessRate, FactorCost, FactorRisk},
	},
	"quality": {
		Commands: []Command{
			{Name: "/run-tests", Risk: RiskNone, Cost: CostLow, BaselineSuccessRate: 0.80,
				Applicability: "Run the project test suite against the current changes"},
			{Name: "/review-diff", Risk: RiskNone, Cost: CostMedium, BaselineSuccessRate: 0.70,
				Applicability: "Review the accumulated diff before making more changes"},
			{Name: "/refactor-pass", Risk: RiskMedium, Cost: CostHigh, BaselineSuccessRate: 0.50,
				Applicability: "Consolidate repeated edits into a deliberate refactor"},
		},
		Priorities: []Factor{FactorSuccessRate, FactorRisk, FactorCost},
	},
	"diagnosis": {
		Commands: []Command{
			{Name: "/diagnose-agents", Risk: RiskNone, Cost: CostMedium, BaselineSuccessRate: 0.65,
				Applicability: "Inspect failed sub-agent transcripts for shared causes"},
			{Name: "/inline-work", Risk: RiskLow, Cost: CostLow, BaselineSuccessRate: 0.60,
				Applicability: "Do the delegated work directly instead of spawning agents"},
		},
		Priorities: []Factor{FactorSuccessRate, FactorCost},
	},
}

// Default returns the built-in registry.
func Default() *Registry {
	r := &Registry{categories: make(map[string]Category, len(DefaultCategories))}
	for name, c := range DefaultCategories {
		r.categories[name] = c
	}
	return r
}

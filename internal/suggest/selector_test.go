package suggest

import (
	"strings"
	"testing"

	"github.com/blackwell-systems/tipwatch/internal/history"
	"github.com/blackwell-systems/tipwatch/internal/metrics"
	"github.com/blackwell-systems/tipwatch/internal/registry"
)

func TestSelectCommand_ColdStartUsesBaseline(t *testing.T) {
	sel := SelectCommand(registry.Default(), CategorySafety, "/fallback", metrics.SessionMetrics{}, history.IndustryDefaults())

	if sel.Command != "/checkpoint" {
		t.Fatalf("expected /checkpoint, got %s", sel.Command)
	}
	if !sel.IsBaseline {
		t.Error("expected baseline success rate on cold start")
	}
	if !approx(sel.SuccessRate, 0.75) {
		t.Errorf("expected registry baseline 0.75, got %v", sel.SuccessRate)
	}
	// risk 1.0*1.0 + success 0.8*0.75 + cost 0.6*1.0
	if !approx(sel.Score, 2.2) {
		t.Errorf("expected score 2.2, got %v", sel.Score)
	}
	if !strings.Contains(sel.Rationale, "baseline") {
		t.Errorf("rationale should mention baseline, got %q", sel.Rationale)
	}
}

func TestSelectCommand_ProjectHistoryOverridesBaseline(t *testing.T) {
	h := history.HistoricalStats{
		SessionCount:        12,
		DataSource:          history.SourceProject,
		CommandSuccessRates: map[string]float64{"/review-diff": 1.0, "/run-tests": 0.2},
	}
	sel := SelectCommand(registry.Default(), CategoryQuality, "/fallback", metrics.SessionMetrics{}, h)

	if sel.Command != "/review-diff" {
		t.Fatalf("expected /review-diff, got %s", sel.Command)
	}
	if sel.IsBaseline {
		t.Error("expected historical success rate")
	}
	if !approx(sel.Score, 2.22) {
		t.Errorf("expected score 2.22, got %v", sel.Score)
	}
	if !strings.Contains(sel.Rationale, "historical for this project") {
		t.Errorf("unexpected rationale %q", sel.Rationale)
	}
}

func TestSelectCommand_CrossProjectRationale(t *testing.T) {
	h := history.HistoricalStats{
		SessionCount:        40,
		DataSource:          history.SourceCrossProject,
		CommandSuccessRates: map[string]float64{"/run-tests": 0.9},
	}
	sel := SelectCommand(registry.Default(), CategoryQuality, "/fallback", metrics.SessionMetrics{}, h)
	if !strings.Contains(sel.Rationale, "across projects") {
		t.Errorf("unexpected rationale %q", sel.Rationale)
	}
}

func TestSelectCommand_RecentFailureHalvesScore(t *testing.T) {
	m := metrics.SessionMetrics{RecentlyFailedCommands: []string{"/run-tests"}}
	sel := SelectCommand(registry.Default(), CategoryQuality, "/fallback", m, history.IndustryDefaults())

	// /run-tests drops from 2.2 to 1.1, below /review-diff at 1.92.
	if sel.Command != "/review-diff" {
		t.Fatalf("expected /review-diff after /run-tests failed, got %s", sel.Command)
	}
	if sel.RecentlyFailed {
		t.Error("selected command did not fail recently")
	}
}

func TestSelectCommand_RecentFailureStillChosenWhenBest(t *testing.T) {
	reg, err := registry.New(map[string]registry.Category{
		"only": {
			Commands:   []registry.Command{{Name: "/solo", Risk: registry.RiskLow, Cost: registry.CostLow, BaselineSuccessRate: 0.5}},
			Priorities: []registry.Factor{registry.FactorSuccessRate},
		},
	})
	if err != nil {
		t.Fatal(err)
	}
	m := metrics.SessionMetrics{RecentlyFailedCommands: []string{"/solo"}}
	sel := SelectCommand(reg, "only", "/fallback", m, history.IndustryDefaults())
	if sel.Command != "/solo" || !sel.RecentlyFailed || !approx(sel.Score, 0.25) {
		t.Errorf("unexpected selection %+v", sel)
	}
	if !strings.Contains(sel.Rationale, "already failed") {
		t.Errorf("rationale should note the failure, got %q", sel.Rationale)
	}
}

func TestSelectCommand_TieKeepsRegistryOrder(t *testing.T) {
	same := registry.Command{Risk: registry.RiskNone, Cost: registry.CostLow, BaselineSuccessRate: 0.6}
	first, second := same, same
	first.Name, second.Name = "/first", "/second"

	reg, err := registry.New(map[string]registry.Category{
		"tie": {
			Commands:   []registry.Command{first, second},
			Priorities: []registry.Factor{registry.FactorSuccessRate, registry.FactorRisk, registry.FactorCost},
		},
	})
	if err != nil {
		t.Fatal(err)
	}
	sel := SelectCommand(reg, "tie", "/fallback", metrics.SessionMetrics{}, history.IndustryDefaults())
	if sel.Command != "/first" {
		t.Errorf("expected earliest registry entry on tie, got %s", sel.Command)
	}
}

func TestSelectCommand_RegistryGapUsesFallback(t *testing.T) {
	sel := SelectCommand(registry.Default(), "unknown", "/fallback", metrics.SessionMetrics{}, history.IndustryDefaults())
	if sel.Command != "/fallback" || !sel.Fallback {
		t.Fatalf("expected fallback command, got %+v", sel)
	}
	if sel.Score != neutralScore {
		t.Errorf("expected neutral score %v, got %v", neutralScore, sel.Score)
	}
}

func TestSelectCommand_NilRegistry(t *testing.T) {
	sel := SelectCommand(nil, CategorySafety, "/checkpoint", metrics.SessionMetrics{}, history.IndustryDefaults())
	if !sel.Fallback || sel.Command != "/checkpoint" {
		t.Errorf("expected fallback with nil registry, got %+v", sel)
	}
}

func TestSelectCommand_DiagnosisPrefersCheaperCommand(t *testing.T) {
	// /diagnose-agents: 0.65 + 0.8*0.7 = 1.21; /inline-work: 0.60 + 0.8*1.0 = 1.40
	sel := SelectCommand(registry.Default(), CategoryDiagnosis, "/fallback", metrics.SessionMetrics{}, history.IndustryDefaults())
	if sel.Command != "/inline-work" {
		t.Errorf("expected /inline-work, got %s", sel.Command)
	}
}

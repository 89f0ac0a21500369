package suggest

import (
	"math"
	"testing"

	"github.com/blackwell-systems/tipwatch/internal/history"
	"github.com/blackwell-systems/tipwatch/internal/metrics"
)

func approx(a, b float64) bool { return math.Abs(a-b) < 1e-9 }

func TestCalculateConfidence_ColdStartThresholdRule(t *testing.T) {
	m := metrics.SessionMetrics{MaxTaskIterations: 8}
	b := CalculateConfidence(ruleByName(t, "stuck_in_loop"), m, history.IndustryDefaults())

	// (0.35*0.8 + 0.15*0 + 0.30*0.7 + 0.20*0.5) * (1 - 0.5)
	if !approx(b.Final, 0.295) {
		t.Errorf("expected 0.295, got %v", b.Final)
	}
	if !approx(b.Statistical, 0.8) || b.ZScore != thresholdRuleZ {
		t.Errorf("expected threshold z of 2 -> 0.8, got z=%v stat=%v", b.ZScore, b.Statistical)
	}
	if b.Sample != 0 || !approx(b.Context, 0.5) || !approx(b.RuleAccuracy, 0.7) {
		t.Errorf("unexpected factors %+v", b)
	}
}

func TestCalculateConfidence_ProjectHistory(t *testing.T) {
	h := history.HistoricalStats{
		SessionCount:    20,
		DataSource:      history.SourceProject,
		ErrorRateMean:   0.10,
		ErrorRateStdDev: 0.05,
		ReworkRateMean:  0.15,
		RuleAccuracies:  map[string]float64{"stuck_in_loop": 0.9},
	}
	m := metrics.SessionMetrics{MaxTaskIterations: 6, ToolCalls: 100, Errors: 10}
	b := CalculateConfidence(ruleByName(t, "stuck_in_loop"), m, h)

	// 0.35*0.8 + 0.15*1 + 0.30*0.9 + 0.20*0.85
	if !approx(b.Final, 0.87) {
		t.Errorf("expected 0.87, got %v (%+v)", b.Final, b)
	}
}

func TestCalculateConfidence_UsesErrorRateZ(t *testing.T) {
	m := metrics.SessionMetrics{ToolCalls: 100, Errors: 37}
	b := CalculateConfidence(ruleByName(t, "high_error_rate"), m, history.IndustryDefaults())
	if !approx(b.ZScore, 5.4) {
		t.Errorf("expected z 5.4, got %v", b.ZScore)
	}
	if !approx(b.Statistical, 0.95) {
		t.Errorf("expected statistical confidence clamped at 0.95, got %v", b.Statistical)
	}
}

func TestCalculateConfidence_Bounds(t *testing.T) {
	sessions := []metrics.SessionMetrics{
		{},
		{ToolCalls: 100, Errors: 90, FileEdits: 50, Reworks: 50, MaxTaskIterations: 40},
		{ToolCalls: 10, Errors: 2, FileEdits: 6},
	}
	hists := []history.HistoricalStats{
		history.IndustryDefaults(),
		{SessionCount: 500, DataSource: history.SourceProject, RuleAccuracies: map[string]float64{
			"high_error_rate": 1, "high_rework": 1, "stuck_in_loop": 1,
		}},
		{SessionCount: 3, ConfidencePenalty: 1},
	}
	for _, rule := range Rules {
		for _, m := range sessions {
			for _, h := range hists {
				c := CalculateConfidence(rule, m, h).Final
				if c < 0.10 || c > 0.95 {
					t.Errorf("%s: confidence %v outside [0.10, 0.95]", rule.Name, c)
				}
			}
		}
	}
}

func TestCalculateConfidence_FullPenaltyClampsToFloor(t *testing.T) {
	h := history.HistoricalStats{SessionCount: 40, ConfidencePenalty: 1}
	b := CalculateConfidence(ruleByName(t, "no_tests"), metrics.SessionMetrics{FileEdits: 9}, h)
	if b.Final != 0.10 {
		t.Errorf("expected floor 0.10, got %v", b.Final)
	}
}

package suggest

import (
	"math"

	"github.com/blackwell-systems/tipwatch/internal/history"
	"github.com/blackwell-systems/tipwatch/internal/metrics"
	"github.com/blackwell-systems/tipwatch/internal/stats"
)

// Confidence blend weights. They sum to 1.
const (
	weightStatistical = 0.35
	weightSample      = 0.15
	weightAccuracy    = 0.30
	weightContext     = 0.20

	// thresholdRuleZ stands in for the z-score of rules that have no
	// historical distribution to compare against.
	thresholdRuleZ = 2.0

	// fullSampleSessions is the history size at which sample size stops
	// adding confidence.
	fullSampleSessions = 20.0
)

// ConfidenceBreakdown exposes each factor of a tip's confidence.
type ConfidenceBreakdown struct {
	ZScore       float64 `json:"z_score"`
	Statistical  float64 `json:"statistical"`
	Sample       float64 `json:"sample"`
	RuleAccuracy float64 `json:"rule_accuracy"`
	Context      float64 `json:"context"`
	Penalty      float64 `json:"penalty"`
	Final        float64 `json:"final"`
}

// CalculateConfidence blends statistical significance, history size, the
// rule's track record, and context similarity, then applies the data source
// penalty. The result is clamped to [0.10, 0.95].
func CalculateConfidence(rule PatternRule, m metrics.SessionMetrics, h history.HistoricalStats) ConfidenceBreakdown {
	b := ConfidenceBreakdown{
		ZScore:       ruleZScore(rule, m, h),
		Sample:       math.Min(1, float64(h.SessionCount)/fullSampleSessions),
		RuleAccuracy: h.RuleAccuracy(rule.Name),
		Context:      h.ContextSimilarity(m),
		Penalty:      h.ConfidencePenalty,
	}
	b.Statistical = stats.ZToConfidence(b.ZScore, stats.DefaultBaseConfidence)

	raw := weightStatistical*b.Statistical +
		weightSample*b.Sample +
		weightAccuracy*b.RuleAccuracy +
		weightContext*b.Context
	b.Final = stats.Clamp(raw*(1-b.Penalty), stats.MinConfidence, stats.MaxConfidence)
	return b
}

func ruleZScore(rule PatternRule, m metrics.SessionMetrics, h history.HistoricalStats) float64 {
	switch rule.ZMetric {
	case history.MetricErrorRate:
		return stats.ZScore(m.ErrorRate(), h.ErrorRateMean, h.ErrorRateStdDev).ZScore
	case history.MetricReworkRate:
		return stats.ZScore(m.ReworkRate(), h.ReworkRateMean, h.ReworkRateStdDev).ZScore
	case history.MetricTestPassRate:
		return stats.ZScore(m.TestPassRate(), h.TestPassRateMean, h.TestPassRateStdDev).ZScore
	}
	return thresholdRuleZ
}

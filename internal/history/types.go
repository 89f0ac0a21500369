// Package history resolves the historical statistics that calibrate tip
// confidence. Resolution walks three tiers (project, cross-project, static
// industry defaults) and never fails: every unavailable tier degrades to
// the next one.
package history

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/blackwell-systems/tipwatch/internal/metrics"
)

// Data sources recorded on HistoricalStats.
const (
	SourceProject      = "project"
	SourceCrossProject = "cross_project"
	SourceDefaults     = "defaults"
)

// DefaultRuleAccuracy is assumed for rules without enough recorded outcomes.
const DefaultRuleAccuracy = 0.7

// Metric names understood by Aggregates.Mean and WindowedStats.Drift.
const (
	MetricErrorRate    = "error_rate"
	MetricReworkRate   = "rework_rate"
	MetricTestPassRate = "test_pass_rate"
)

// HistoricalStats is the resolved statistical context for one project.
type HistoricalStats struct {
	SessionCount int    `json:"session_count"`
	DataSource   string `json:"data_source"`

	ErrorRateMean      float64 `json:"error_rate_mean"`
	ErrorRateStdDev    float64 `json:"error_rate_stddev"`
	ReworkRateMean     float64 `json:"rework_rate_mean"`
	ReworkRateStdDev   float64 `json:"rework_rate_stddev"`
	TestPassRateMean   float64 `json:"test_pass_rate_mean"`
	TestPassRateStdDev float64 `json:"test_pass_rate_stddev"`

	// CommandSuccessRates and RuleAccuracies only hold entries backed by
	// enough observations; absent keys mean "use the default".
	CommandSuccessRates map[string]float64 `json:"command_success_rates"`
	RuleAccuracies      map[string]float64 `json:"rule_accuracies"`

	// ConfidencePenalty in [0,1] discounts confidence for weaker tiers.
	ConfidencePenalty float64 `json:"confidence_penalty"`
}

// WithLowerConfidence returns a copy with ConfidencePenalty set to 1-factor.
func (h HistoricalStats) WithLowerConfidence(factor float64) HistoricalStats {
	out := h
	out.CommandSuccessRates = copyRates(h.CommandSuccessRates)
	out.RuleAccuracies = copyRates(h.RuleAccuracies)
	out.ConfidencePenalty = math.Max(0, math.Min(1, 1-factor))
	return out
}

// RuleAccuracy returns the observed accuracy of the named rule, or
// DefaultRuleAccuracy when it has too few recorded outcomes.
func (h HistoricalStats) RuleAccuracy(rule string) float64 {
	if acc, ok := h.RuleAccuracies[rule]; ok {
		return acc
	}
	return DefaultRuleAccuracy
}

// CommandSuccessRate returns the observed success rate for cmd. The second
// result is false when the command has no usable history.
func (h HistoricalStats) CommandSuccessRate(cmd string) (float64, bool) {
	rate, ok := h.CommandSuccessRates[cmd]
	return rate, ok
}

// ContextSimilarity scores how closely the current session resembles the
// historical mean, in [0,1]. Without history it returns a neutral 0.5.
func (h HistoricalStats) ContextSimilarity(current metrics.SessionMetrics) float64 {
	if h.SessionCount == 0 {
		return 0.5
	}
	errSim := similarity(current.ErrorRate(), h.ErrorRateMean)
	reworkSim := similarity(current.ReworkRate(), h.ReworkRateMean)
	return (errSim + reworkSim) / 2
}

func similarity(a, b float64) float64 {
	return math.Max(0, 1-math.Abs(a-b)/0.5)
}

func copyRates(m map[string]float64) map[string]float64 {
	out := make(map[string]float64, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// IndustryDefaults returns the tier-3 statistics used when no project or
// cross-project history is available.
func IndustryDefaults() HistoricalStats {
	return HistoricalStats{
		SessionCount:        0,
		DataSource:          SourceDefaults,
		ErrorRateMean:       0.10,
		ErrorRateStdDev:     0.05,
		ReworkRateMean:      0.15,
		ReworkRateStdDev:    0.08,
		TestPassRateMean:    0.85,
		TestPassRateStdDev:  0.10,
		CommandSuccessRates: map[string]float64{},
		RuleAccuracies:      map[string]float64{},
		ConfidencePenalty:   0.5,
	}
}

// Aggregates are the summary statistics of a set of recorded sessions.
type Aggregates struct {
	SessionCount       int     `json:"session_count"`
	ErrorRateMean      float64 `json:"error_rate_mean"`
	ErrorRateStdDev    float64 `json:"error_rate_stddev"`
	ReworkRateMean     float64 `json:"rework_rate_mean"`
	ReworkRateStdDev   float64 `json:"rework_rate_stddev"`
	TestPassRateMean   float64 `json:"test_pass_rate_mean"`
	TestPassRateStdDev float64 `json:"test_pass_rate_stddev"`
}

// Mean returns the mean of the named metric, or 0 for an unknown name.
func (a Aggregates) Mean(metric string) float64 {
	switch metric {
	case MetricErrorRate:
		return a.ErrorRateMean
	case MetricReworkRate:
		return a.ReworkRateMean
	case MetricTestPassRate:
		return a.TestPassRateMean
	}
	return 0
}

// toStats lifts aggregates into HistoricalStats for the given source.
func (a Aggregates) toStats(source string) HistoricalStats {
	return HistoricalStats{
		SessionCount:        a.SessionCount,
		DataSource:          source,
		ErrorRateMean:       a.ErrorRateMean,
		ErrorRateStdDev:     a.ErrorRateStdDev,
		ReworkRateMean:      a.ReworkRateMean,
		ReworkRateStdDev:    a.ReworkRateStdDev,
		TestPassRateMean:    a.TestPassRateMean,
		TestPassRateStdDev:  a.TestPassRateStdDev,
		CommandSuccessRates: map[string]float64{},
		RuleAccuracies:      map[string]float64{},
	}
}

// AggregateSource is the historical warehouse. An empty project argument
// to CommandSuccessRates or RuleAccuracies means "all projects".
type AggregateSource interface {
	ProjectAggregates(ctx context.Context, project string, days int) (Aggregates, error)
	CrossProjectAggregates(ctx context.Context, days int) (Aggregates, error)
	// WindowAggregates covers the most recent limit sessions of project;
	// limit 0 means all time.
	WindowAggregates(ctx context.Context, project string, limit int) (Aggregates, error)
	CommandSuccessRates(ctx context.Context, project string, minSamples int) (map[string]float64, error)
	RuleAccuracies(ctx context.Context, project string, minSamples int) (map[string]float64, error)
}

// StatsCache is a short-TTL key-value store for resolved statistics.
type StatsCache interface {
	GetStats(ctx context.Context, key string) (HistoricalStats, bool, error)
	SetStats(ctx context.Context, key string, stats HistoricalStats, ttl time.Duration) error
}

// Outcome values accepted by OutcomeRecorder.
const (
	OutcomeHelpful    = "helpful"
	OutcomeNotHelpful = "not_helpful"
	OutcomeIgnored    = "ignored"
)

// ErrInvalidOutcome is returned for an outcome outside the known values.
var ErrInvalidOutcome = errors.New("invalid tip outcome")

// Outcome is user feedback on a delivered tip. It is the only signal that
// moves rule accuracies and command success rates.
type Outcome struct {
	TipID            string    `json:"tip_id"`
	RuleName         string    `json:"rule_name"`
	CommandSuggested string    `json:"command_suggested"`
	Outcome          string    `json:"outcome"`
	Project          string    `json:"project"`
	RecordedAt       time.Time `json:"recorded_at"`
}

// Validate checks the required fields and the outcome value.
func (o Outcome) Validate() error {
	switch o.Outcome {
	case OutcomeHelpful, OutcomeNotHelpful, OutcomeIgnored:
	default:
		return fmt.Errorf("%w: %q", ErrInvalidOutcome, o.Outcome)
	}
	if o.TipID == "" || o.RuleName == "" || o.CommandSuggested == "" {
		return fmt.Errorf("%w: tip_id, rule_name and command_suggested are required", ErrInvalidOutcome)
	}
	return nil
}

// OutcomeRecorder persists tip outcomes.
type OutcomeRecorder interface {
	RecordOutcome(ctx context.Context, o Outcome) error
}

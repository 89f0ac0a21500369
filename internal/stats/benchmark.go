package stats

import "github.com/blackwell-systems/tipwatch/internal/registry"

// Benchmark categories.
const (
	LevelElite            = "elite"
	LevelGood             = "good"
	LevelNeedsImprovement = "needs_improvement"
)

// BenchmarkComparison is the categorical placement of a value against an
// elite/good threshold pair.
type BenchmarkComparison struct {
	Metric string  `json:"metric,omitempty"`
	Value  float64 `json:"value"`
	Level  string  `json:"level"`

	// DistanceFromElite is signed so that positive means better than elite
	// and negative means short of it, regardless of metric direction.
	DistanceFromElite float64 `json:"distance_from_elite"`
}

// CompareToBenchmark categorizes value against elite and good thresholds.
func CompareToBenchmark(value, elite, good float64, higherIsBetter bool) BenchmarkComparison {
	c := BenchmarkComparison{Value: value}
	if higherIsBetter {
		c.DistanceFromElite = value - elite
		switch {
		case value >= elite:
			c.Level = LevelElite
		case value >= good:
			c.Level = LevelGood
		default:
			c.Level = LevelNeedsImprovement
		}
		return c
	}

	c.DistanceFromElite = elite - value
	switch {
	case value <= elite:
		c.Level = LevelElite
	case value <= good:
		c.Level = LevelGood
	default:
		c.Level = LevelNeedsImprovement
	}
	return c
}

// CompareMetric compares value against the registered benchmark for metric.
// The second result is false when no benchmark is registered.
func CompareMetric(metric string, value float64) (BenchmarkComparison, bool) {
	b, ok := registry.Benchmarks[metric]
	if !ok {
		return BenchmarkComparison{}, false
	}
	c := CompareToBenchmark(value, b.Elite, b.Good, b.HigherIsBetter)
	c.Metric = metric
	return c, true
}

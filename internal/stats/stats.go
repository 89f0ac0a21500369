// Package stats implements the pure statistical functions behind tip
// confidence: z-scores, population anomaly detection, least-squares trends,
// and benchmark comparison.
package stats

import (
	"math"

	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"
)

const (
	// MinStdDev floors every standard deviation before it is used as a divisor.
	MinStdDev = 0.01

	// AnomalyThreshold and ExtremeThreshold bound |z| for ZScoreResult flags.
	AnomalyThreshold = 2.0
	ExtremeThreshold = 3.0

	// DefaultAnomalyThreshold is the |z| cut-off used by DetectAnomalies callers.
	DefaultAnomalyThreshold = 2.0

	// DefaultBaseConfidence is the confidence assigned to z = 0.
	DefaultBaseConfidence = 0.5

	// MinConfidence and MaxConfidence bound every reported confidence.
	MinConfidence = 0.10
	MaxConfidence = 0.95

	// StableSlope is the |slope| below which a trend counts as stable.
	StableSlope = 0.01

	minSeries = 3
)

// Trend directions.
const (
	DirectionStable     = "stable"
	DirectionIncreasing = "increasing"
	DirectionDecreasing = "decreasing"
)

// ZScoreResult describes where a value sits relative to a distribution.
type ZScoreResult struct {
	Value      float64 `json:"value"`
	Mean       float64 `json:"mean"`
	StdDev     float64 `json:"stddev"`
	ZScore     float64 `json:"z_score"`
	IsAnomaly  bool    `json:"is_anomaly"`
	IsExtreme  bool    `json:"is_extreme"`
	Percentile float64 `json:"percentile"`
}

// Anomaly is a single outlying point in a series.
type Anomaly struct {
	Index  int     `json:"index"`
	Value  float64 `json:"value"`
	ZScore float64 `json:"z_score"`
}

// TrendResult is the least-squares fit of a series against its index.
type TrendResult struct {
	Slope      float64 `json:"slope"`
	Intercept  float64 `json:"intercept"`
	Confidence float64 `json:"confidence"` // R²
	Direction  string  `json:"direction"`
	Strength   float64 `json:"strength"`
}

// Floor returns stddev, or MinStdDev when stddev is smaller.
func Floor(stddev float64) float64 {
	if stddev < MinStdDev || math.IsNaN(stddev) {
		return MinStdDev
	}
	return stddev
}

// Clamp limits v to [lo, hi].
func Clamp(v, lo, hi float64) float64 {
	if math.IsNaN(v) {
		return lo
	}
	return math.Max(lo, math.Min(hi, v))
}

// ZScore computes how many (floored) standard deviations value lies from mean.
func ZScore(value, mean, stddev float64) ZScoreResult {
	z := (value - mean) / Floor(stddev)
	return ZScoreResult{
		Value:      value,
		Mean:       mean,
		StdDev:     stddev,
		ZScore:     z,
		IsAnomaly:  math.Abs(z) > AnomalyThreshold,
		IsExtreme:  math.Abs(z) > ExtremeThreshold,
		Percentile: 100 * distuv.UnitNormal.CDF(z),
	}
}

// DetectAnomalies returns every point whose |z| against the population
// mean and standard deviation of series exceeds threshold. Series shorter
// than three values yield nil.
func DetectAnomalies(series []float64, threshold float64) []Anomaly {
	if len(series) < minSeries {
		return nil
	}
	mean, std := stat.PopMeanStdDev(series, nil)
	std = Floor(std)

	var anomalies []Anomaly
	for i, v := range series {
		z := (v - mean) / std
		if math.Abs(z) > threshold {
			anomalies = append(anomalies, Anomaly{Index: i, Value: v, ZScore: z})
		}
	}
	return anomalies
}

// Trend fits value against index by ordinary least squares. The second
// result is false for series shorter than three values.
func Trend(series []float64) (TrendResult, bool) {
	if len(series) < minSeries {
		return TrendResult{}, false
	}

	xs := make([]float64, len(series))
	for i := range xs {
		xs[i] = float64(i)
	}
	intercept, slope := stat.LinearRegression(xs, series, nil, false)

	r2 := stat.RSquared(xs, series, nil, intercept, slope)
	if math.IsNaN(r2) || math.IsInf(r2, 0) {
		// Constant series: no variance to explain.
		r2 = 0
	}

	direction := DirectionStable
	switch {
	case math.Abs(slope) < StableSlope:
	case slope > 0:
		direction = DirectionIncreasing
	default:
		direction = DirectionDecreasing
	}

	strength := 0.0
	if mean := stat.Mean(series, nil); mean != 0 {
		strength = math.Min(1, math.Abs(slope)/math.Abs(mean))
	}

	return TrendResult{
		Slope:      slope,
		Intercept:  intercept,
		Confidence: r2,
		Direction:  direction,
		Strength:   strength,
	}, true
}

// ZToConfidence maps |z| onto a confidence in [MinConfidence, MaxConfidence].
// It is non-decreasing in |z|.
func ZToConfidence(z, base float64) float64 {
	return Clamp(base+math.Abs(z)*0.15, MinConfidence, MaxConfidence)
}

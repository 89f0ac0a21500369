package output

import (
	"fmt"
	"io"

	"github.com/blackwell-systems/tipwatch/internal/history"
	"github.com/blackwell-systems/tipwatch/internal/registry"
	"github.com/blackwell-systems/tipwatch/internal/stats"
)

// TrendRow pairs a metric's fitted trend with the sessions that stood out.
type TrendRow struct {
	Metric    string            `json:"metric"`
	Trend     stats.TrendResult `json:"trend"`
	HasTrend  bool              `json:"has_trend"`
	Anomalies []stats.Anomaly   `json:"anomalies"`
}

// RenderHistory writes the resolved statistics for a project.
func RenderHistory(w io.Writer, project string, h history.HistoricalStats) error {
	title := "Historical baseline"
	if project != "" {
		title += " for " + project
	}
	if _, err := fmt.Fprintln(w, Section(title)); err != nil {
		return err
	}
	fmt.Fprintf(w, " %s%s\n", StyleLabel.Render("Source:"), sourceLabel(h.DataSource))
	fmt.Fprintf(w, " %s%d\n", StyleLabel.Render("Sessions:"), h.SessionCount)
	fmt.Fprintf(w, " %s%.0f%%\n\n", StyleLabel.Render("Penalty:"), h.ConfidencePenalty*100)

	tbl := NewTable("Metric", "Mean", "Std dev")
	tbl.AddRow(history.MetricErrorRate, percent(h.ErrorRateMean), percent(h.ErrorRateStdDev))
	tbl.AddRow(history.MetricReworkRate, percent(h.ReworkRateMean), percent(h.ReworkRateStdDev))
	tbl.AddRow(history.MetricTestPassRate, percent(h.TestPassRateMean), percent(h.TestPassRateStdDev))
	return tbl.Fprint(w)
}

// RenderBenchmarks writes each comparison with its level and distance from
// the elite threshold.
func RenderBenchmarks(w io.Writer, comparisons []stats.BenchmarkComparison) error {
	if _, err := fmt.Fprintln(w, Section("Benchmarks")); err != nil {
		return err
	}
	tbl := NewTable("Metric", "Value", "Level", "vs elite")
	for _, c := range comparisons {
		tbl.AddRow(c.Metric, percent(c.Value), styleLevel(c.Level), signedPoints(c.DistanceFromElite))
	}
	return tbl.Fprint(w)
}

func styleLevel(level string) string {
	switch level {
	case stats.LevelElite:
		return StyleSuccess.Render(level)
	case stats.LevelGood:
		return StyleWarning.Render(level)
	}
	return StyleError.Render(level)
}

// RenderWindows writes the three window aggregates and the drift of the
// last 20 sessions against all time.
func RenderWindows(w io.Writer, ws history.WindowedStats) error {
	if _, err := fmt.Fprintln(w, Section("Recent vs all time")); err != nil {
		return err
	}

	tbl := NewTable("Window", "Sessions", "Error rate", "Rework rate", "Test pass")
	rows := []struct {
		name string
		agg  history.Aggregates
	}{
		{"all time", ws.AllTime},
		{"last 50", ws.Recent50},
		{"last 20", ws.Recent20},
	}
	for _, r := range rows {
		tbl.AddRow(r.name, fmt.Sprintf("%d", r.agg.SessionCount),
			percent(r.agg.ErrorRateMean), percent(r.agg.ReworkRateMean), percent(r.agg.TestPassRateMean))
	}
	tbl.AddRow("drift", "",
		TrendArrowPercent(ws.Drift(history.MetricErrorRate), higherIsBetter(history.MetricErrorRate)),
		TrendArrowPercent(ws.Drift(history.MetricReworkRate), higherIsBetter(history.MetricReworkRate)),
		TrendArrowPercent(ws.Drift(history.MetricTestPassRate), higherIsBetter(history.MetricTestPassRate)))
	return tbl.Fprint(w)
}

// RenderTrends writes the fitted trend and anomaly count per metric.
func RenderTrends(w io.Writer, rows []TrendRow) error {
	if _, err := fmt.Fprintln(w, Section("Trends")); err != nil {
		return err
	}
	tbl := NewTable("Metric", "Direction", "Slope", "R²", "Anomalies")
	for _, r := range rows {
		if !r.HasTrend {
			tbl.AddRow(r.Metric, StyleMuted.Render("not enough sessions"), "", "", "")
			continue
		}
		tbl.AddRow(r.Metric, styleDirection(r.Trend.Direction, higherIsBetter(r.Metric)),
			fmt.Sprintf("%+.4f", r.Trend.Slope),
			fmt.Sprintf("%.2f", r.Trend.Confidence),
			fmt.Sprintf("%d", len(r.Anomalies)))
	}
	return tbl.Fprint(w)
}

func styleDirection(direction string, higherBetter bool) string {
	switch direction {
	case stats.DirectionIncreasing:
		if higherBetter {
			return StyleSuccess.Render(direction)
		}
		return StyleError.Render(direction)
	case stats.DirectionDecreasing:
		if higherBetter {
			return StyleError.Render(direction)
		}
		return StyleSuccess.Render(direction)
	}
	return StyleMuted.Render(direction)
}

func higherIsBetter(metric string) bool {
	if b, ok := registry.Benchmarks[metric]; ok {
		return b.HigherIsBetter
	}
	return false
}

func percent(v float64) string {
	return fmt.Sprintf("%.1f%%", v*100)
}

func signedPoints(v float64) string {
	return fmt.Sprintf("%+.1f pts", v*100)
}

package app

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/blackwell-systems/tipwatch/internal/history"
	"github.com/blackwell-systems/tipwatch/internal/output"
	"github.com/blackwell-systems/tipwatch/internal/stats"
	"github.com/blackwell-systems/tipwatch/internal/store"
)

var (
	statsProject  string
	statsSessions int
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show the historical baseline, drift and trends",
	Long: `Show the statistics tips are calibrated against: the resolved baseline,
recent-versus-all-time drift, per-metric trends with anomalous sessions, and
a comparison of the all-time means with benchmark thresholds.

Examples:
  tipwatch stats --project api
  tipwatch stats --sessions 50 --json`,
	Args: cobra.NoArgs,
	RunE: runStats,
}

func init() {
	statsCmd.Flags().StringVar(&statsProject, "project", "", "Project to report on (default: all projects)")
	statsCmd.Flags().IntVar(&statsSessions, "sessions", 20, "Number of recent sessions used for trends")
	rootCmd.AddCommand(statsCmd)
}

type statsReport struct {
	Project    string                      `json:"project"`
	History    history.HistoricalStats     `json:"history"`
	Windows    history.WindowedStats       `json:"windows"`
	Trends     []output.TrendRow           `json:"trends"`
	Benchmarks []stats.BenchmarkComparison `json:"benchmarks"`
}

func runStats(cmd *cobra.Command, args []string) error {
	db, err := openStore()
	if err != nil {
		return err
	}
	defer func() { _ = db.Close() }()

	ctx := cmd.Context()
	resolver := newResolver(db)

	report := statsReport{
		Project: statsProject,
		History: resolver.Resolve(ctx, statsProject, cfg.LookbackDays),
		Windows: resolver.ResolveWindows(ctx, statsProject),
	}

	series, err := db.SessionSeries(ctx, statsProject, statsSessions)
	if err != nil {
		return fmt.Errorf("loading session series: %w", err)
	}
	report.Trends = trendRows(series)

	if all := report.Windows.AllTime; all.SessionCount > 0 {
		values := map[string]float64{
			history.MetricErrorRate:  all.ErrorRateMean,
			history.MetricReworkRate: all.ReworkRateMean,
		}
		if all.TestPassRateMean > 0 {
			values[history.MetricTestPassRate] = all.TestPassRateMean
		}
		report.Benchmarks = compareAll(values)
	}

	w := cmd.OutOrStdout()
	if flagJSON {
		return output.WriteJSON(w, report)
	}

	if err := output.RenderHistory(w, statsProject, report.History); err != nil {
		return err
	}
	if report.Windows.AllTime.SessionCount == 0 {
		fmt.Fprintf(w, "\n %s\n", output.StyleMuted.Render("No sessions recorded yet. Run `tipwatch record` after each session."))
		return nil
	}
	if err := output.RenderWindows(w, report.Windows); err != nil {
		return err
	}
	if err := output.RenderTrends(w, report.Trends); err != nil {
		return err
	}
	return output.RenderBenchmarks(w, report.Benchmarks)
}

// trendRows fits a trend and flags anomalies for each tracked ratio. The
// test pass series only includes sessions that ran tests.
func trendRows(series []store.SessionRecord) []output.TrendRow {
	var errRates, reworkRates, passRates []float64
	for _, s := range series {
		errRates = append(errRates, s.ErrorRate)
		reworkRates = append(reworkRates, s.ReworkRate)
		if s.TestRuns > 0 {
			passRates = append(passRates, s.TestPassRate)
		}
	}

	build := func(metric string, values []float64) output.TrendRow {
		row := output.TrendRow{Metric: metric, Anomalies: stats.DetectAnomalies(values, stats.DefaultAnomalyThreshold)}
		row.Trend, row.HasTrend = stats.Trend(values)
		return row
	}
	return []output.TrendRow{
		build(history.MetricErrorRate, errRates),
		build(history.MetricReworkRate, reworkRates),
		build(history.MetricTestPassRate, passRates),
	}
}

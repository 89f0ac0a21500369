package app

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/blackwell-systems/tipwatch/internal/history"
	"github.com/blackwell-systems/tipwatch/internal/metrics"
	"github.com/blackwell-systems/tipwatch/internal/output"
	"github.com/blackwell-systems/tipwatch/internal/registry"
	"github.com/blackwell-systems/tipwatch/internal/stats"
	"github.com/blackwell-systems/tipwatch/internal/store"
	"github.com/blackwell-systems/tipwatch/internal/suggest"
)

var (
	analyzeMetrics    string
	analyzeBenchmarks bool
	analyzeRecord     bool
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Recommend corrective commands for a session",
	Long: `Read a session metrics snapshot, resolve the historical baseline for its
project and print up to five ranked tips.

Examples:
  tipwatch analyze --metrics session.json
  session-exporter | tipwatch analyze --json
  tipwatch analyze --metrics session.json --benchmarks --record`,
	Args: cobra.NoArgs,
	RunE: runAnalyze,
}

func init() {
	analyzeCmd.Flags().StringVar(&analyzeMetrics, "metrics", "-", "Session snapshot JSON file ('-' reads stdin)")
	analyzeCmd.Flags().BoolVar(&analyzeBenchmarks, "benchmarks", false, "Compare the session against benchmark thresholds")
	analyzeCmd.Flags().BoolVar(&analyzeRecord, "record", false, "Also record the session into history after analysis")
	rootCmd.AddCommand(analyzeCmd)
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	m, err := readSnapshot(cmd, analyzeMetrics)
	if err != nil {
		return err
	}

	reg, err := loadRegistry()
	if err != nil {
		return err
	}

	// Without a database the resolver falls back to industry defaults.
	db, err := openStore()
	if err != nil {
		logger.Warn("history unavailable, using industry defaults", zap.Error(err))
	} else {
		defer func() { _ = db.Close() }()
	}

	ctx := cmd.Context()
	hist := newResolver(db).Resolve(ctx, m.Project, cfg.LookbackDays)

	engine := suggest.NewEngine(reg, suggest.WithLogger(logger), suggest.WithMaxTips(cfg.MaxTips))
	res := engine.Run(m, hist)

	if analyzeRecord && db != nil {
		if err := recordSession(cmd, db, m); err != nil {
			return err
		}
	}

	var benchmarks []stats.BenchmarkComparison
	if analyzeBenchmarks {
		benchmarks = sessionBenchmarks(m)
	}

	w := cmd.OutOrStdout()
	if flagJSON {
		report := output.BuildReport(m.SessionID, m.Project, hist, res.Tips)
		report.Benchmarks = benchmarks
		return output.WriteJSON(w, report)
	}

	if err := output.RenderTips(w, res.Tips, hist, res.RulesMatched); err != nil {
		return err
	}
	if flagVerbose && len(res.Tips) > 0 {
		if err := output.RenderBreakdown(w, res.Tips, breakdowns(engine, m, hist, res.Tips)); err != nil {
			return err
		}
	}
	if analyzeBenchmarks {
		return output.RenderBenchmarks(w, benchmarks)
	}
	return nil
}

// readSnapshot reads the snapshot from path, or from the command's stdin
// when path is "-".
func readSnapshot(cmd *cobra.Command, path string) (metrics.SessionMetrics, error) {
	var (
		m   metrics.SessionMetrics
		err error
	)
	if path == "-" || path == "" {
		m, err = metrics.Decode(cmd.InOrStdin())
	} else {
		m, err = metrics.Load(path)
	}
	if err != nil {
		return metrics.SessionMetrics{}, fmt.Errorf("reading session snapshot: %w", err)
	}
	return m, nil
}

// sessionBenchmarks compares the session's ratios with the benchmark table.
// Ratios without a denominator are left out rather than reported as 0.
func sessionBenchmarks(m metrics.SessionMetrics) []stats.BenchmarkComparison {
	values := map[string]float64{}
	if m.ToolCalls > 0 {
		values["error_rate"] = m.ErrorRate()
	}
	if m.FileEdits > 0 {
		values["rework_rate"] = m.ReworkRate()
	}
	if m.TestRuns > 0 {
		values["test_pass_rate"] = m.TestPassRate()
	}
	if m.AgentSpawns > 0 {
		values["agent_success_rate"] = m.AgentSuccessRate()
	}
	return compareAll(values)
}

// compareAll runs CompareMetric over values in benchmark table order.
func compareAll(values map[string]float64) []stats.BenchmarkComparison {
	var out []stats.BenchmarkComparison
	for _, metric := range registry.BenchmarkMetrics {
		v, ok := values[metric]
		if !ok {
			continue
		}
		if c, ok := stats.CompareMetric(metric, v); ok {
			out = append(out, c)
		}
	}
	return out
}

// breakdowns recomputes the confidence factors of the rules behind tips.
func breakdowns(engine *suggest.Engine, m metrics.SessionMetrics, h history.HistoricalStats, tips []suggest.Tip) map[string]suggest.ConfidenceBreakdown {
	out := make(map[string]suggest.ConfidenceBreakdown, len(tips))
	for _, rule := range engine.Rules() {
		for _, t := range tips {
			if t.RuleName == rule.Name {
				out[rule.Name] = suggest.CalculateConfidence(rule, m, h)
			}
		}
	}
	return out
}

func recordSession(cmd *cobra.Command, db *store.DB, m metrics.SessionMetrics) error {
	ctx := cmd.Context()
	if err := db.RecordSession(ctx, m); err != nil {
		return err
	}
	if _, err := db.InvalidateStats(ctx); err != nil {
		logger.Warn("could not clear stats cache", zap.Error(err))
	}
	logger.Debug("session recorded", zap.String("session", m.SessionID), zap.String("project", m.Project))
	return nil
}

package suggest

import (
	"fmt"
	"path/filepath"

	"github.com/blackwell-systems/tipwatch/internal/history"
	"github.com/blackwell-systems/tipwatch/internal/metrics"
)

// Rules is the built-in catalog. Rules are independent; order only sets the
// tie-break between tips of equal confidence.
var Rules = []PatternRule{
	{
		Name:            "high_error_rate",
		Category:        CategorySafety,
		Evidence:        "error rate above 15% and more than 2 standard deviations over the historical mean",
		Matches:         highErrorRate,
		Message:         highErrorRateMessage,
		FallbackCommand: "/checkpoint",
		ZMetric:         history.MetricErrorRate,
	},
	{
		Name:            "stuck_in_loop",
		Category:        CategoryPlanning,
		Evidence:        "a task iterated more than 5 times",
		Matches:         func(m metrics.SessionMetrics, _ history.HistoricalStats) bool { return m.MaxTaskIterations > 5 },
		Message:         stuckInLoopMessage,
		FallbackCommand: "/plan",
	},
	{
		Name:     "high_rework",
		Category: CategoryQuality,
		Evidence: "rework rate above 30% over at least 5 file edits",
		Matches: func(m metrics.SessionMetrics, _ history.HistoricalStats) bool {
			return m.ReworkRate() > 0.30 && m.FileEdits >= 5
		},
		Message:         highReworkMessage,
		FallbackCommand: "/review-diff",
		ZMetric:         history.MetricReworkRate,
	},
	{
		Name:     "no_tests",
		Category: CategoryQuality,
		Evidence: "more than 5 file edits without a test run",
		Matches: func(m metrics.SessionMetrics, _ history.HistoricalStats) bool {
			return m.FileEdits > 5 && m.TestRuns == 0
		},
		Message:         noTestsMessage,
		FallbackCommand: "/run-tests",
	},
	{
		Name:            "large_change_size",
		Category:        CategoryQuality,
		Evidence:        "more than 400 lines changed",
		Matches:         func(m metrics.SessionMetrics, _ history.HistoricalStats) bool { return m.TotalLinesChanged() > 400 },
		Message:         largeChangeMessage,
		FallbackCommand: "/review-diff",
	},
	{
		Name:            "too_many_files",
		Category:        CategoryPlanning,
		Evidence:        "more than 10 files modified",
		Matches:         func(m metrics.SessionMetrics, _ history.HistoricalStats) bool { return m.FilesModified > 10 },
		Message:         tooManyFilesMessage,
		FallbackCommand: "/split-task",
	},
	{
		Name:     "high_churn_single_file",
		Category: CategorySafety,
		Evidence: "one file edited more than 5 times with more than 2 reworks",
		Matches: func(m metrics.SessionMetrics, _ history.HistoricalStats) bool {
			return m.MaxFileEdits > 5 && m.MaxFileReworks > 2
		},
		Message:         churnMessage,
		FallbackCommand: "/checkpoint",
	},
	{
		Name:     "low_agent_success",
		Category: CategoryDiagnosis,
		Evidence: "sub-agent success rate below 70% over at least 3 spawns",
		Matches: func(m metrics.SessionMetrics, _ history.HistoricalStats) bool {
			return m.AgentSpawns >= 3 && m.AgentSuccessRate() < 0.70
		},
		Message:         lowAgentSuccessMessage,
		FallbackCommand: "/diagnose-agents",
	},
	{
		Name:     "low_test_pass_rate",
		Category: CategoryQuality,
		Evidence: "test pass rate below 60% over at least 3 runs",
		Matches: func(m metrics.SessionMetrics, _ history.HistoricalStats) bool {
			return m.TestRuns >= 3 && m.TestPassRate() < 0.60
		},
		Message:         lowTestPassMessage,
		FallbackCommand: "/run-tests",
	},
}

// highErrorRate fires on a raw threshold breach that is also a statistical
// outlier. With zero historical spread the threshold alone is enough.
func highErrorRate(m metrics.SessionMetrics, h history.HistoricalStats) bool {
	rate := m.ErrorRate()
	if rate <= 0.15 || m.ToolCalls < 10 {
		return false
	}
	return h.ErrorRateStdDev == 0 || rate > h.ErrorRateMean+2*h.ErrorRateStdDev
}

// EvaluateRule runs a rule's predicate and, on a match, its message builder.
// A panic in either is returned as an error.
func EvaluateRule(rule PatternRule, m metrics.SessionMetrics, h history.HistoricalStats) (match Match, matched bool, err error) {
	defer func() {
		if p := recover(); p != nil {
			match, matched, err = Match{}, false, fmt.Errorf("rule %s: panic: %v", rule.Name, p)
		}
	}()

	if rule.Matches == nil {
		return Match{}, false, fmt.Errorf("rule %s: no predicate", rule.Name)
	}
	if !rule.Matches(m, h) {
		return Match{}, false, nil
	}

	msg := rule.Evidence
	if rule.Message != nil {
		msg = rule.Message(m, h)
	}
	return Match{Rule: rule, Message: msg}, true, nil
}

func highErrorRateMessage(m metrics.SessionMetrics, h history.HistoricalStats) string {
	return fmt.Sprintf(
		"Error rate is %.0f%% across %d tool calls (historical mean %.0f%%). "+
			"Stop and secure a known-good state before continuing.",
		m.ErrorRate()*100, m.ToolCalls, h.ErrorRateMean*100,
	)
}

func stuckInLoopMessage(m metrics.SessionMetrics, _ history.HistoricalStats) string {
	return fmt.Sprintf(
		"A task has gone through %d iterations without converging. "+
			"Step back and plan before trying again.",
		m.MaxTaskIterations,
	)
}

func highReworkMessage(m metrics.SessionMetrics, _ history.HistoricalStats) string {
	return fmt.Sprintf(
		"%.0f%% of file edits were reworks (%d of %d). "+
			"Review what has changed before editing further.",
		m.ReworkRate()*100, m.Reworks, m.FileEdits,
	)
}

func noTestsMessage(m metrics.SessionMetrics, _ history.HistoricalStats) string {
	return fmt.Sprintf("%d file edits and no test runs yet. Verify the changes.", m.FileEdits)
}

func largeChangeMessage(m metrics.SessionMetrics, _ history.HistoricalStats) string {
	return fmt.Sprintf(
		"%d lines changed in this session. Large diffs hide regressions; review before adding more.",
		m.TotalLinesChanged(),
	)
}

func tooManyFilesMessage(m metrics.SessionMetrics, _ history.HistoricalStats) string {
	return fmt.Sprintf("%d files modified. Narrow the scope into smaller units of work.", m.FilesModified)
}

func churnMessage(m metrics.SessionMetrics, _ history.HistoricalStats) string {
	file := "One file"
	if m.MostChurnedFile != "" {
		file = filepath.Base(m.MostChurnedFile)
	}
	return fmt.Sprintf(
		"%s was edited %d times with %d reworks. Checkpoint it before the next attempt.",
		file, m.MaxFileEdits, m.MaxFileReworks,
	)
}

func lowAgentSuccessMessage(m metrics.SessionMetrics, _ history.HistoricalStats) string {
	return fmt.Sprintf(
		"Only %d of %d sub-agents succeeded (%.0f%%). Delegation is costing more than it saves.",
		m.AgentSuccesses, m.AgentSpawns, m.AgentSuccessRate()*100,
	)
}

func lowTestPassMessage(m metrics.SessionMetrics, _ history.HistoricalStats) string {
	return fmt.Sprintf(
		"Tests passed in %d of %d runs (%.0f%%). Fix failures before moving on.",
		m.TestsPassed, m.TestRuns, m.TestPassRate()*100,
	)
}

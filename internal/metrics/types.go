// Package metrics defines the session activity snapshot consumed by the
// recommendation engine.
package metrics

// SessionMetrics is a point-in-time snapshot of one work session's raw
// counters. It is passed by value and never mutated by the engine.
type SessionMetrics struct {
	SessionID string `json:"session_id"`
	Project   string `json:"project"`

	ToolCalls      int `json:"tool_calls"`
	Errors         int `json:"errors"`
	FileEdits      int `json:"file_edits"`
	Reworks        int `json:"reworks"`
	TestRuns       int `json:"test_runs"`
	TestsPassed    int `json:"tests_passed"`
	AgentSpawns    int `json:"agent_spawns"`
	AgentSuccesses int `json:"agent_successes"`

	DurationSeconds   float64 `json:"duration_seconds"`
	MaxTaskIterations int     `json:"max_task_iterations"`

	LinesChanged  int `json:"lines_changed"`
	LinesAdded    int `json:"lines_added"`
	LinesRemoved  int `json:"lines_removed"`
	FilesModified int `json:"files_modified"`

	// MaxFileEdits and MaxFileReworks describe the single most-edited file.
	MaxFileEdits    int    `json:"max_file_edits"`
	MaxFileReworks  int    `json:"max_file_reworks"`
	MostChurnedFile string `json:"most_churned_file,omitempty"`

	// RecentlyFailedCommands lists command identifiers that failed earlier in
	// this session. The selector penalizes them.
	RecentlyFailedCommands []string `json:"recently_failed_commands,omitempty"`
}

// ErrorRate is errors per tool call.
func (m SessionMetrics) ErrorRate() float64 {
	return ratio(m.Errors, m.ToolCalls)
}

// ReworkRate is reworks per file edit.
func (m SessionMetrics) ReworkRate() float64 {
	return ratio(m.Reworks, m.FileEdits)
}

// TestPassRate is passed test runs per test run.
func (m SessionMetrics) TestPassRate() float64 {
	return ratio(m.TestsPassed, m.TestRuns)
}

// AgentSuccessRate is successful sub-agents per spawned sub-agent.
func (m SessionMetrics) AgentSuccessRate() float64 {
	return ratio(m.AgentSuccesses, m.AgentSpawns)
}

// TotalLinesChanged returns LinesChanged, or LinesAdded+LinesRemoved when the
// collector did not report a combined figure.
func (m SessionMetrics) TotalLinesChanged() int {
	if m.LinesChanged > 0 {
		return m.LinesChanged
	}
	return m.LinesAdded + m.LinesRemoved
}

// RecentlyFailed reports whether cmd failed earlier in this session.
func (m SessionMetrics) RecentlyFailed(cmd string) bool {
	for _, c := range m.RecentlyFailedCommands {
		if c == cmd {
			return true
		}
	}
	return false
}

// ratio divides num by den and returns 0 for a non-positive denominator.
func ratio(num, den int) float64 {
	if den <= 0 {
		return 0
	}
	return float64(num) / float64(den)
}

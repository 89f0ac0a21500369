package store

import "time"

// SessionRecord is one finished session as stored in the warehouse.
type SessionRecord struct {
	ID               int64     `json:"id"`
	SessionID        string    `json:"session_id"`
	Project          string    `json:"project"`
	RecordedAt       time.Time `json:"recorded_at"`
	ToolCalls        int       `json:"tool_calls"`
	Errors           int       `json:"errors"`
	FileEdits        int       `json:"file_edits"`
	Reworks          int       `json:"reworks"`
	TestRuns         int       `json:"test_runs"`
	TestsPassed      int       `json:"tests_passed"`
	AgentSpawns      int       `json:"agent_spawns"`
	AgentSuccesses   int       `json:"agent_successes"`
	LinesChanged     int       `json:"lines_changed"`
	FilesModified    int       `json:"files_modified"`
	DurationSeconds  float64   `json:"duration_seconds"`
	ErrorRate        float64   `json:"error_rate"`
	ReworkRate       float64   `json:"rework_rate"`
	TestPassRate     float64   `json:"test_pass_rate"`
	AgentSuccessRate float64   `json:"agent_success_rate"`
}

// OutcomeCount is the helpful/total tally for one rule or command.
type OutcomeCount struct {
	Key     string `json:"key"`
	Helpful int    `json:"helpful"`
	Total   int    `json:"total"`
}

// Rate returns Helpful/Total, or 0 with no samples.
func (c OutcomeCount) Rate() float64 {
	if c.Total == 0 {
		return 0
	}
	return float64(c.Helpful) / float64(c.Total)
}

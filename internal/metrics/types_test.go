package metrics

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRatios_ZeroDenominator(t *testing.T) {
	m := SessionMetrics{Errors: 4, Reworks: 2, TestsPassed: 1, AgentSuccesses: 3}

	assert.Equal(t, 0.0, m.ErrorRate())
	assert.Equal(t, 0.0, m.ReworkRate())
	assert.Equal(t, 0.0, m.TestPassRate())
	assert.Equal(t, 0.0, m.AgentSuccessRate())
}

func TestRatios(t *testing.T) {
	tests := []struct {
		name string
		got  float64
		want float64
	}{
		{"error rate", SessionMetrics{ToolCalls: 100, Errors: 37}.ErrorRate(), 0.37},
		{"rework rate", SessionMetrics{FileEdits: 25, Reworks: 8}.ReworkRate(), 0.32},
		{"test pass rate", SessionMetrics{TestRuns: 4, TestsPassed: 3}.TestPassRate(), 0.75},
		{"agent success rate", SessionMetrics{AgentSpawns: 2, AgentSuccesses: 1}.AgentSuccessRate(), 0.5},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.InDelta(t, tc.want, tc.got, 1e-9)
		})
	}
}

func TestTotalLinesChanged(t *testing.T) {
	assert.Equal(t, 120, SessionMetrics{LinesChanged: 120, LinesAdded: 5}.TotalLinesChanged())
	assert.Equal(t, 450, SessionMetrics{LinesAdded: 300, LinesRemoved: 150}.TotalLinesChanged())
}

func TestRecentlyFailed(t *testing.T) {
	m := SessionMetrics{RecentlyFailedCommands: []string{"/run-tests"}}
	assert.True(t, m.RecentlyFailed("/run-tests"))
	assert.False(t, m.RecentlyFailed("/plan"))
}

func TestDecode(t *testing.T) {
	in := `{"session_id":"s1","project":"api","tool_calls":10,"errors":2,"recently_failed_commands":["/plan"]}`
	m, err := Decode(strings.NewReader(in))
	require.NoError(t, err)
	assert.Equal(t, "s1", m.SessionID)
	assert.Equal(t, "api", m.Project)
	assert.InDelta(t, 0.2, m.ErrorRate(), 1e-9)
	assert.True(t, m.RecentlyFailed("/plan"))
}

func TestDecode_Empty(t *testing.T) {
	_, err := Decode(strings.NewReader(""))
	assert.ErrorIs(t, err, ErrEmptySnapshot)
}

func TestDecode_Malformed(t *testing.T) {
	_, err := Decode(strings.NewReader("{not json"))
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrEmptySnapshot)
}

package app

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/blackwell-systems/tipwatch/internal/history"
	"github.com/blackwell-systems/tipwatch/internal/output"
)

// testConfig writes a config pointing at a fresh database and returns its path.
func testConfig(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	body := fmt.Sprintf("db_path: %s\noutput:\n  color: false\n", filepath.Join(dir, "tipwatch.db"))
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

// execute runs the root command with args and stdin, resetting flag state
// left over from earlier runs.
func execute(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	flagJSON, flagNoColor, flagVerbose = false, false, false
	analyzeMetrics, analyzeBenchmarks, analyzeRecord = "-", false, false
	recordMetrics = "-"
	statsProject, statsSessions = "", 20
	feedbackTipID, feedbackRule, feedbackCommand, feedbackOutcome, feedbackProject = "", "", "", "", ""

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetIn(strings.NewReader(stdin))
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

func snapshot(id, project string, errs int) string {
	return fmt.Sprintf(`{"session_id":%q,"project":%q,"tool_calls":20,"errors":%d,"file_edits":10,"reworks":4}`,
		id, project, errs)
}

func TestCommandsRegistered(t *testing.T) {
	want := map[string]bool{"analyze": false, "record": false, "feedback": false, "stats": false, "mcp": false}
	for _, cmd := range rootCmd.Commands() {
		if _, ok := want[cmd.Name()]; ok {
			want[cmd.Name()] = true
		}
	}
	for name, found := range want {
		if !found {
			t.Errorf("%s subcommand not registered on rootCmd", name)
		}
	}
}

func TestAnalyze_JSONColdStart(t *testing.T) {
	cfgPath := testConfig(t)

	out, err := execute(t, snapshot("s1", "api", 0), "analyze", "--config", cfgPath, "--json")
	require.NoError(t, err)

	var report output.Report
	require.NoError(t, json.Unmarshal([]byte(out), &report))
	assert.Equal(t, "s1", report.SessionID)
	assert.Equal(t, history.SourceDefaults, report.Analysis.DataSource)
	assert.Equal(t, output.AnalysisMethod, report.Analysis.Method)
	require.Len(t, report.Tips, 1)
	assert.Equal(t, "/run-tests", report.Tips[0].Command)
	assert.Contains(t, report.Tips[0].Evidence, "; Also: ")
}

func TestAnalyze_TextWithBenchmarks(t *testing.T) {
	cfgPath := testConfig(t)

	out, err := execute(t, snapshot("s1", "api", 2), "analyze", "--config", cfgPath, "--benchmarks")
	require.NoError(t, err)
	assert.Contains(t, out, "Recommendations")
	assert.Contains(t, out, "/run-tests")
	assert.Contains(t, out, "industry defaults")
	assert.Contains(t, out, "Benchmarks")
	assert.Contains(t, out, "rework_rate")
	assert.NotContains(t, out, "test_pass_rate")
}

func TestAnalyze_EmptyInput(t *testing.T) {
	_, err := execute(t, "", "analyze", "--config", testConfig(t))
	assert.Error(t, err)
}

func TestRecordThenAnalyzeUsesProjectHistory(t *testing.T) {
	cfgPath := testConfig(t)

	for i := 0; i < history.MinProjectSessions; i++ {
		_, err := execute(t, snapshot(fmt.Sprintf("r%d", i), "api", i), "record", "--config", cfgPath)
		require.NoError(t, err)
	}

	out, err := execute(t, snapshot("live", "api", 1), "analyze", "--config", cfgPath, "--json")
	require.NoError(t, err)

	var report output.Report
	require.NoError(t, json.Unmarshal([]byte(out), &report))
	assert.Equal(t, history.SourceProject, report.Analysis.DataSource)
	assert.Equal(t, history.MinProjectSessions, report.Analysis.SessionsAnalyzed)
}

func TestRecord_JSON(t *testing.T) {
	out, err := execute(t, snapshot("r1", "web", 0), "record", "--config", testConfig(t), "--json")
	require.NoError(t, err)
	assert.JSONEq(t, `{"session_id":"r1","project":"web","project_sessions":1}`, out)
}

func TestFeedback(t *testing.T) {
	cfgPath := testConfig(t)

	out, err := execute(t, "", "feedback", "--config", cfgPath,
		"--tip-id", "abc", "--rule", "no_tests", "--command", "/run-tests",
		"--outcome", "helpful", "--project", "api")
	require.NoError(t, err)
	assert.Contains(t, out, "Recorded helpful for /run-tests")

	_, err = execute(t, "", "feedback", "--config", cfgPath,
		"--tip-id", "abc", "--rule", "no_tests", "--command", "/run-tests", "--outcome", "great")
	assert.ErrorIs(t, err, history.ErrInvalidOutcome)
}

func TestStats_Empty(t *testing.T) {
	out, err := execute(t, "", "stats", "--config", testConfig(t), "--project", "api")
	require.NoError(t, err)
	assert.Contains(t, out, "Historical baseline for api")
	assert.Contains(t, out, "No sessions recorded yet")
}

func TestStats_AfterRecording(t *testing.T) {
	cfgPath := testConfig(t)
	for i := 0; i < 6; i++ {
		_, err := execute(t, snapshot(fmt.Sprintf("r%d", i), "api", i), "record", "--config", cfgPath)
		require.NoError(t, err)
	}

	out, err := execute(t, "", "stats", "--config", cfgPath, "--project", "api")
	require.NoError(t, err)
	for _, want := range []string{"Recent vs all time", "Trends", "increasing", "Benchmarks"} {
		assert.Contains(t, out, want)
	}

	out, err = execute(t, "", "stats", "--config", cfgPath, "--project", "api", "--json")
	require.NoError(t, err)

	var report statsReport
	require.NoError(t, json.Unmarshal([]byte(out), &report))
	assert.Equal(t, history.SourceProject, report.History.DataSource)
	assert.Equal(t, 6, report.Windows.AllTime.SessionCount)
	require.Len(t, report.Trends, 3)
	assert.True(t, report.Trends[0].HasTrend)
	assert.False(t, report.Trends[2].HasTrend)
}

package store

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"gonum.org/v1/gonum/stat"

	"github.com/blackwell-systems/tipwatch/internal/history"
	"github.com/blackwell-systems/tipwatch/internal/metrics"
)

const sessionColumns = `id, session_id, project, recorded_at, tool_calls, errors, file_edits, reworks,
	test_runs, tests_passed, agent_spawns, agent_successes, lines_changed, files_modified,
	duration_seconds, error_rate, rework_rate, test_pass_rate, agent_success_rate`

// RecordSession stores a finished session. Recording the same session ID
// again replaces the earlier row.
func (db *DB) RecordSession(ctx context.Context, m metrics.SessionMetrics) error {
	if m.SessionID == "" {
		return fmt.Errorf("recording session: %w", metrics.ErrEmptySnapshot)
	}

	_, err := db.conn.ExecContext(ctx,
		`INSERT OR REPLACE INTO sessions
		(session_id, project, recorded_at, tool_calls, errors, file_edits, reworks,
		 test_runs, tests_passed, agent_spawns, agent_successes, lines_changed, files_modified,
		 duration_seconds, error_rate, rework_rate, test_pass_rate, agent_success_rate)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		m.SessionID, m.Project, db.now().UTC().Format(time.RFC3339),
		m.ToolCalls, m.Errors, m.FileEdits, m.Reworks,
		m.TestRuns, m.TestsPassed, m.AgentSpawns, m.AgentSuccesses,
		m.TotalLinesChanged(), m.FilesModified, m.DurationSeconds,
		m.ErrorRate(), m.ReworkRate(), m.TestPassRate(), m.AgentSuccessRate(),
	)
	if err != nil {
		return fmt.Errorf("recording session %s: %w", m.SessionID, err)
	}
	return nil
}

// SessionSeries returns the most recent limit sessions of project, oldest
// first. An empty project spans all projects; limit 0 returns every session.
func (db *DB) SessionSeries(ctx context.Context, project string, limit int) ([]SessionRecord, error) {
	where, args := projectFilter(project)
	query := `SELECT ` + sessionColumns + ` FROM (
		SELECT * FROM sessions` + where + ` ORDER BY recorded_at DESC, id DESC LIMIT ?
	) ORDER BY recorded_at ASC, id ASC`

	rows, err := db.conn.QueryContext(ctx, query, append(args, sqlLimit(limit))...)
	if err != nil {
		return nil, fmt.Errorf("querying session series: %w", err)
	}
	defer rows.Close()

	var out []SessionRecord
	for rows.Next() {
		var r SessionRecord
		var recordedAt string
		if err := rows.Scan(
			&r.ID, &r.SessionID, &r.Project, &recordedAt, &r.ToolCalls, &r.Errors, &r.FileEdits, &r.Reworks,
			&r.TestRuns, &r.TestsPassed, &r.AgentSpawns, &r.AgentSuccesses, &r.LinesChanged, &r.FilesModified,
			&r.DurationSeconds, &r.ErrorRate, &r.ReworkRate, &r.TestPassRate, &r.AgentSuccessRate,
		); err != nil {
			return nil, fmt.Errorf("scanning session: %w", err)
		}
		r.RecordedAt, _ = time.Parse(time.RFC3339, recordedAt)
		out = append(out, r)
	}
	return out, rows.Err()
}

// ProjectAggregates summarizes project sessions recorded in the last days
// days. days <= 0 disables the lookback filter.
func (db *DB) ProjectAggregates(ctx context.Context, project string, days int) (history.Aggregates, error) {
	where, args := projectFilter(project)
	where, args = db.lookbackFilter(where, args, days)
	return db.aggregate(ctx, where, args, 0)
}

// CrossProjectAggregates summarizes sessions of every project recorded in
// the last days days.
func (db *DB) CrossProjectAggregates(ctx context.Context, days int) (history.Aggregates, error) {
	where, args := db.lookbackFilter("", nil, days)
	return db.aggregate(ctx, where, args, 0)
}

// WindowAggregates summarizes the most recent limit sessions of project.
func (db *DB) WindowAggregates(ctx context.Context, project string, limit int) (history.Aggregates, error) {
	where, args := projectFilter(project)
	return db.aggregate(ctx, where, args, limit)
}

func (db *DB) aggregate(ctx context.Context, where string, args []any, limit int) (history.Aggregates, error) {
	query := `SELECT error_rate, rework_rate, test_pass_rate, test_runs FROM sessions` +
		where + ` ORDER BY recorded_at DESC, id DESC LIMIT ?`

	rows, err := db.conn.QueryContext(ctx, query, append(args, sqlLimit(limit))...)
	if err != nil {
		return history.Aggregates{}, fmt.Errorf("querying aggregates: %w", err)
	}
	defer rows.Close()

	var errRates, reworkRates, passRates []float64
	for rows.Next() {
		var errRate, reworkRate, passRate float64
		var testRuns int
		if err := rows.Scan(&errRate, &reworkRate, &passRate, &testRuns); err != nil {
			return history.Aggregates{}, fmt.Errorf("scanning aggregates: %w", err)
		}
		errRates = append(errRates, errRate)
		reworkRates = append(reworkRates, reworkRate)
		// Sessions that never ran tests say nothing about the pass rate.
		if testRuns > 0 {
			passRates = append(passRates, passRate)
		}
	}
	if err := rows.Err(); err != nil {
		return history.Aggregates{}, fmt.Errorf("reading aggregates: %w", err)
	}

	agg := history.Aggregates{SessionCount: len(errRates)}
	agg.ErrorRateMean, agg.ErrorRateStdDev = meanStdDev(errRates)
	agg.ReworkRateMean, agg.ReworkRateStdDev = meanStdDev(reworkRates)
	agg.TestPassRateMean, agg.TestPassRateStdDev = meanStdDev(passRates)
	return agg, nil
}

// meanStdDev returns the mean and population standard deviation of xs,
// both 0 for an empty slice.
func meanStdDev(xs []float64) (float64, float64) {
	switch len(xs) {
	case 0:
		return 0, 0
	case 1:
		return xs[0], 0
	}
	mean, std := stat.PopMeanStdDev(xs, nil)
	if math.IsNaN(std) {
		std = 0
	}
	return mean, std
}

func projectFilter(project string) (string, []any) {
	if project == "" {
		return "", nil
	}
	return " WHERE project = ?", []any{project}
}

func (db *DB) lookbackFilter(where string, args []any, days int) (string, []any) {
	if days <= 0 {
		return where, args
	}
	cutoff := db.now().UTC().AddDate(0, 0, -days).Format(time.RFC3339)
	if strings.Contains(where, "WHERE") {
		return where + " AND recorded_at >= ?", append(args, cutoff)
	}
	return " WHERE recorded_at >= ?", append(args, cutoff)
}

// sqlLimit maps "no limit" (0 or negative) to SQLite's -1.
func sqlLimit(limit int) int {
	if limit <= 0 {
		return -1
	}
	return limit
}

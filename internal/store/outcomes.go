package store

import (
	"context"
	"fmt"
	"time"

	"github.com/blackwell-systems/tipwatch/internal/history"
)

// RecordOutcome stores user feedback on a delivered tip.
func (db *DB) RecordOutcome(ctx context.Context, o history.Outcome) error {
	if err := o.Validate(); err != nil {
		return err
	}
	if o.RecordedAt.IsZero() {
		o.RecordedAt = db.now()
	}

	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO tip_outcomes (tip_id, rule_name, command_suggested, outcome, project, recorded_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		o.TipID, o.RuleName, o.CommandSuggested, o.Outcome, o.Project,
		o.RecordedAt.UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("recording outcome for tip %s: %w", o.TipID, err)
	}
	return nil
}

// CommandSuccessRates returns helpful/total per suggested command for
// commands with at least minSamples outcomes.
func (db *DB) CommandSuccessRates(ctx context.Context, project string, minSamples int) (map[string]float64, error) {
	counts, err := db.OutcomeCounts(ctx, "command_suggested", project, minSamples)
	if err != nil {
		return nil, err
	}
	return rates(counts), nil
}

// RuleAccuracies returns helpful/total per rule for rules with at least
// minSamples outcomes.
func (db *DB) RuleAccuracies(ctx context.Context, project string, minSamples int) (map[string]float64, error) {
	counts, err := db.OutcomeCounts(ctx, "rule_name", project, minSamples)
	if err != nil {
		return nil, err
	}
	return rates(counts), nil
}

// OutcomeCounts tallies outcomes grouped by column, which must be
// "rule_name" or "command_suggested". An empty project spans all projects.
func (db *DB) OutcomeCounts(ctx context.Context, column, project string, minSamples int) ([]OutcomeCount, error) {
	switch column {
	case "rule_name", "command_suggested":
	default:
		return nil, fmt.Errorf("unknown outcome grouping %q", column)
	}

	where, args := projectFilter(project)
	query := `SELECT ` + column + `, SUM(CASE WHEN outcome = ? THEN 1 ELSE 0 END), COUNT(*)
		FROM tip_outcomes` + where + `
		GROUP BY ` + column + `
		HAVING COUNT(*) >= ?
		ORDER BY ` + column
	args = append([]any{history.OutcomeHelpful}, args...)
	args = append(args, minSamples)

	rows, err := db.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying outcomes by %s: %w", column, err)
	}
	defer rows.Close()

	var out []OutcomeCount
	for rows.Next() {
		var c OutcomeCount
		if err := rows.Scan(&c.Key, &c.Helpful, &c.Total); err != nil {
			return nil, fmt.Errorf("scanning outcome count: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func rates(counts []OutcomeCount) map[string]float64 {
	out := make(map[string]float64, len(counts))
	for _, c := range counts {
		out[c.Key] = c.Rate()
	}
	return out
}

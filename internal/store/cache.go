package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/blackwell-systems/tipwatch/internal/history"
)

// GetStats returns cached statistics for key. Expired or undecodable rows
// are removed and reported as a miss.
func (db *DB) GetStats(ctx context.Context, key string) (history.HistoricalStats, bool, error) {
	var payload string
	var createdMs, ttlMs int64

	err := db.conn.QueryRowContext(ctx,
		`SELECT stats_json, created_ms, ttl_ms FROM stats_cache WHERE cache_key = ?`, key,
	).Scan(&payload, &createdMs, &ttlMs)
	if err != nil {
		if isNoRows(err) {
			return history.HistoricalStats{}, false, nil
		}
		return history.HistoricalStats{}, false, fmt.Errorf("reading stats cache: %w", err)
	}

	if db.now().UnixMilli()-createdMs > ttlMs {
		_, _ = db.conn.ExecContext(ctx, `DELETE FROM stats_cache WHERE cache_key = ?`, key)
		return history.HistoricalStats{}, false, nil
	}

	var stats history.HistoricalStats
	if err := json.Unmarshal([]byte(payload), &stats); err != nil {
		db.logger.Debug("dropping undecodable cache entry", zap.String("key", key), zap.Error(err))
		_, _ = db.conn.ExecContext(ctx, `DELETE FROM stats_cache WHERE cache_key = ?`, key)
		return history.HistoricalStats{}, false, nil
	}
	return stats, true, nil
}

// SetStats stores stats under key for ttl, replacing any earlier entry.
func (db *DB) SetStats(ctx context.Context, key string, stats history.HistoricalStats, ttl time.Duration) error {
	data, err := json.Marshal(stats)
	if err != nil {
		return fmt.Errorf("encoding stats: %w", err)
	}

	_, err = db.conn.ExecContext(ctx,
		`INSERT OR REPLACE INTO stats_cache (cache_key, stats_json, created_ms, ttl_ms) VALUES (?, ?, ?, ?)`,
		key, string(data), db.now().UnixMilli(), ttl.Milliseconds(),
	)
	if err != nil {
		return fmt.Errorf("writing stats cache: %w", err)
	}
	return nil
}

// InvalidateStats removes every cached entry. Recording a session or an
// outcome changes cross-project figures too, so entries are not dropped
// selectively.
func (db *DB) InvalidateStats(ctx context.Context) (int64, error) {
	res, err := db.conn.ExecContext(ctx, `DELETE FROM stats_cache`)
	if err != nil {
		return 0, fmt.Errorf("clearing stats cache: %w", err)
	}
	return res.RowsAffected()
}

// PurgeExpiredStats removes expired cache entries and returns how many.
func (db *DB) PurgeExpiredStats(ctx context.Context) (int64, error) {
	res, err := db.conn.ExecContext(ctx,
		`DELETE FROM stats_cache WHERE (created_ms + ttl_ms) < ?`, db.now().UnixMilli())
	if err != nil {
		return 0, fmt.Errorf("purging stats cache: %w", err)
	}
	return res.RowsAffected()
}

var (
	_ history.AggregateSource = (*DB)(nil)
	_ history.StatsCache      = (*DB)(nil)
	_ history.OutcomeRecorder = (*DB)(nil)
)

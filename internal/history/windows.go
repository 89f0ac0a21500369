package history

import (
	"context"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Window sizes for ResolveWindows. Zero means all time.
const (
	WindowAllTime  = 0
	WindowRecent50 = 50
	WindowRecent20 = 20
)

// WindowedStats holds a project's aggregates over three overlapping windows
// so recent behaviour can be compared against the long-run baseline.
type WindowedStats struct {
	AllTime  Aggregates `json:"all_time"`
	Recent50 Aggregates `json:"recent_50"`
	Recent20 Aggregates `json:"recent_20"`
}

// Drift is the recent-20 mean minus the all-time mean for metric. It is 0
// when either window is empty.
func (w WindowedStats) Drift(metric string) float64 {
	if w.AllTime.SessionCount == 0 || w.Recent20.SessionCount == 0 {
		return 0
	}
	return w.Recent20.Mean(metric) - w.AllTime.Mean(metric)
}

// ResolveWindows queries the three windows concurrently. A window whose
// query fails is left zero-valued; the others are unaffected.
func (r *Resolver) ResolveWindows(ctx context.Context, project string) WindowedStats {
	var w WindowedStats
	if r.source == nil {
		return w
	}

	targets := []struct {
		limit int
		dst   *Aggregates
	}{
		{WindowAllTime, &w.AllTime},
		{WindowRecent50, &w.Recent50},
		{WindowRecent20, &w.Recent20},
	}

	var g errgroup.Group
	for _, t := range targets {
		t := t
		g.Go(func() error {
			agg, err := guard(ctx, r.timeout, func(ctx context.Context) (Aggregates, error) {
				return r.source.WindowAggregates(ctx, project, t.limit)
			})
			if err != nil {
				r.logger.Warn("window aggregates unavailable",
					zap.String("project", project), zap.Int("limit", t.limit), zap.Error(err))
				return nil
			}
			*t.dst = agg
			return nil
		})
	}
	_ = g.Wait()
	return w
}

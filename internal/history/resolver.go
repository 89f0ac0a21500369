package history

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
)

// Tier acceptance thresholds and lookup defaults.
const (
	MinProjectSessions      = 5
	MinCrossProjectSessions = 10
	MinOutcomeSamples       = 3

	// CrossProjectConfidence is the factor passed to WithLowerConfidence for
	// tier-2 results.
	CrossProjectConfidence = 0.8

	DefaultCacheTTL     = time.Hour
	DefaultQueryTimeout = 3 * time.Second
	DefaultLookbackDays = 30
)

// ResolverConfig wires a Resolver to its collaborators. Source and Cache may
// be nil; a nil Source always resolves to IndustryDefaults.
type ResolverConfig struct {
	Source       AggregateSource
	Cache        StatsCache
	Logger       *zap.Logger
	QueryTimeout time.Duration
	CacheTTL     time.Duration
}

// Resolver performs the tiered historical statistics lookup.
type Resolver struct {
	source  AggregateSource
	cache   StatsCache
	logger  *zap.Logger
	timeout time.Duration
	ttl     time.Duration
}

// NewResolver creates a Resolver, filling zero config values with defaults.
func NewResolver(cfg ResolverConfig) *Resolver {
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	if cfg.QueryTimeout <= 0 {
		cfg.QueryTimeout = DefaultQueryTimeout
	}
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = DefaultCacheTTL
	}
	return &Resolver{
		source:  cfg.Source,
		cache:   cfg.Cache,
		logger:  cfg.Logger,
		timeout: cfg.QueryTimeout,
		ttl:     cfg.CacheTTL,
	}
}

// CacheKey is the cache key used for a project's resolved statistics.
func CacheKey(project string) string {
	return "stats:" + project
}

// Resolve returns the best available statistics for project over the last
// days. It never fails; the worst case is IndustryDefaults.
func (r *Resolver) Resolve(ctx context.Context, project string, days int) HistoricalStats {
	if days <= 0 {
		days = DefaultLookbackDays
	}
	log := r.logger.With(zap.String("project", project), zap.Int("days", days))

	if cached, ok := r.cached(ctx, project); ok {
		log.Debug("historical stats cache hit", zap.String("source", cached.DataSource))
		return cached
	}

	stats, ok := r.projectTier(ctx, project, days)
	if !ok {
		stats, ok = r.crossProjectTier(ctx, days)
	}
	if !ok {
		stats = IndustryDefaults()
	}
	log.Debug("historical stats resolved",
		zap.String("source", stats.DataSource),
		zap.Int("sessions", stats.SessionCount))

	r.store(ctx, project, stats)
	return stats
}

func (r *Resolver) cached(ctx context.Context, project string) (HistoricalStats, bool) {
	if r.cache == nil {
		return HistoricalStats{}, false
	}
	type hit struct {
		stats HistoricalStats
		ok    bool
	}
	res, err := guard(ctx, r.timeout, func(ctx context.Context) (hit, error) {
		s, ok, err := r.cache.GetStats(ctx, CacheKey(project))
		return hit{s, ok}, err
	})
	if err != nil {
		r.logger.Warn("stats cache read failed", zap.String("project", project), zap.Error(err))
		return HistoricalStats{}, false
	}
	return res.stats, res.ok
}

func (r *Resolver) store(ctx context.Context, project string, stats HistoricalStats) {
	if r.cache == nil {
		return
	}
	_, err := guard(ctx, r.timeout, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, r.cache.SetStats(ctx, CacheKey(project), stats, r.ttl)
	})
	if err != nil {
		r.logger.Warn("stats cache write failed", zap.String("project", project), zap.Error(err))
	}
}

// projectTier is tier 1: the project's own history.
func (r *Resolver) projectTier(ctx context.Context, project string, days int) (HistoricalStats, bool) {
	if r.source == nil || project == "" {
		return HistoricalStats{}, false
	}
	agg, err := guard(ctx, r.timeout, func(ctx context.Context) (Aggregates, error) {
		return r.source.ProjectAggregates(ctx, project, days)
	})
	if err != nil {
		r.logger.Warn("project aggregates unavailable", zap.String("project", project), zap.Error(err))
		return HistoricalStats{}, false
	}
	if agg.SessionCount < MinProjectSessions {
		return HistoricalStats{}, false
	}

	stats := agg.toStats(SourceProject)
	r.fillOutcomeRates(ctx, project, &stats)
	return stats, true
}

// crossProjectTier is tier 2: history pooled across all projects.
func (r *Resolver) crossProjectTier(ctx context.Context, days int) (HistoricalStats, bool) {
	if r.source == nil {
		return HistoricalStats{}, false
	}
	agg, err := guard(ctx, r.timeout, func(ctx context.Context) (Aggregates, error) {
		return r.source.CrossProjectAggregates(ctx, days)
	})
	if err != nil {
		r.logger.Warn("cross-project aggregates unavailable", zap.Error(err))
		return HistoricalStats{}, false
	}
	if agg.SessionCount < MinCrossProjectSessions {
		return HistoricalStats{}, false
	}

	stats := agg.toStats(SourceCrossProject)
	r.fillOutcomeRates(ctx, "", &stats)
	stats = stats.WithLowerConfidence(CrossProjectConfidence)
	stats.DataSource = SourceCrossProject
	return stats, true
}

// fillOutcomeRates populates the feedback-derived maps. Failures leave the
// maps empty so lookups fall back to registry baselines and default accuracy.
func (r *Resolver) fillOutcomeRates(ctx context.Context, project string, stats *HistoricalStats) {
	rates, err := guard(ctx, r.timeout, func(ctx context.Context) (map[string]float64, error) {
		return r.source.CommandSuccessRates(ctx, project, MinOutcomeSamples)
	})
	if err != nil {
		r.logger.Warn("command success rates unavailable", zap.String("project", project), zap.Error(err))
	} else if rates != nil {
		stats.CommandSuccessRates = rates
	}

	accs, err := guard(ctx, r.timeout, func(ctx context.Context) (map[string]float64, error) {
		return r.source.RuleAccuracies(ctx, project, MinOutcomeSamples)
	})
	if err != nil {
		r.logger.Warn("rule accuracies unavailable", zap.String("project", project), zap.Error(err))
	} else if accs != nil {
		stats.RuleAccuracies = accs
	}
}

// guard runs fn under a timeout and converts panics into errors. It returns
// as soon as the deadline passes even if fn ignores its context.
func guard[T any](ctx context.Context, timeout time.Duration, fn func(context.Context) (T, error)) (T, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	type result struct {
		val T
		err error
	}
	done := make(chan result, 1)
	go func() {
		defer func() {
			if p := recover(); p != nil {
				var zero T
				done <- result{zero, fmt.Errorf("panic: %v", p)}
			}
		}()
		v, err := fn(ctx)
		done <- result{v, err}
	}()

	select {
	case res := <-done:
		return res.val, res.err
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}

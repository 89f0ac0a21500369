package history

import (
	"context"
	"errors"
	"sync"
	"time"
)

type fakeSource struct {
	mu sync.Mutex

	project    Aggregates
	projectErr error
	cross      Aggregates
	crossErr   error
	windows    map[int]Aggregates
	windowErr  map[int]error

	commandRates map[string]map[string]float64 // scope -> rates
	ruleAccs     map[string]map[string]float64

	block   bool
	panicky bool
	calls   int
}

func (f *fakeSource) enter(ctx context.Context) error {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()
	if f.panicky {
		panic("warehouse exploded")
	}
	if f.block {
		<-ctx.Done()
		return ctx.Err()
	}
	return nil
}

func (f *fakeSource) ProjectAggregates(ctx context.Context, project string, days int) (Aggregates, error) {
	if err := f.enter(ctx); err != nil {
		return Aggregates{}, err
	}
	return f.project, f.projectErr
}

func (f *fakeSource) CrossProjectAggregates(ctx context.Context, days int) (Aggregates, error) {
	if err := f.enter(ctx); err != nil {
		return Aggregates{}, err
	}
	return f.cross, f.crossErr
}

func (f *fakeSource) WindowAggregates(ctx context.Context, project string, limit int) (Aggregates, error) {
	if err := f.enter(ctx); err != nil {
		return Aggregates{}, err
	}
	if err := f.windowErr[limit]; err != nil {
		return Aggregates{}, err
	}
	return f.windows[limit], nil
}

func (f *fakeSource) CommandSuccessRates(ctx context.Context, project string, minSamples int) (map[string]float64, error) {
	if err := f.enter(ctx); err != nil {
		return nil, err
	}
	return f.commandRates[project], nil
}

func (f *fakeSource) RuleAccuracies(ctx context.Context, project string, minSamples int) (map[string]float64, error) {
	if err := f.enter(ctx); err != nil {
		return nil, err
	}
	return f.ruleAccs[project], nil
}

func (f *fakeSource) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

type fakeCache struct {
	mu      sync.Mutex
	entries map[string]HistoricalStats
	ttls    map[string]time.Duration
	getErr  error
	setErr  error
}

func newFakeCache() *fakeCache {
	return &fakeCache{entries: map[string]HistoricalStats{}, ttls: map[string]time.Duration{}}
}

func (c *fakeCache) GetStats(ctx context.Context, key string) (HistoricalStats, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.getErr != nil {
		return HistoricalStats{}, false, c.getErr
	}
	s, ok := c.entries[key]
	return s, ok, nil
}

func (c *fakeCache) SetStats(ctx context.Context, key string, stats HistoricalStats, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.setErr != nil {
		return c.setErr
	}
	c.entries[key] = stats
	c.ttls[key] = ttl
	return nil
}

var errUnavailable = errors.New("warehouse unavailable")

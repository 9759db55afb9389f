package cache

import (
	"context"
	"time"

	"golang.org/x/sync/singleflight"

	"llm-decision-engine/internal/interfaces"
	"llm-decision-engine/internal/schedule"
	"llm-decision-engine/internal/types"
)

// ComputeFunc produces a fresh payload for one (symbol, timeframe). It is
// the expensive call a Refresher deduplicates.
type ComputeFunc func(ctx context.Context) (types.AnalysisPayload, error)

// Refresher wraps a CacheStore so that concurrent refreshes of the same
// stale key coalesce onto one computation. Callers that lose the race share
// the winner's result instead of issuing a duplicate provider call.
type Refresher struct {
	store interfaces.CacheStore
	group singleflight.Group
}

func NewRefresher(store interfaces.CacheStore) *Refresher {
	return &Refresher{store: store}
}

// GetFresh returns the cached entry when it is still valid at asOf, and
// otherwise computes, stores, and returns a fresh one. Only one in-flight
// computation per (symbol, timeframe) exists at any moment.
func (r *Refresher) GetFresh(ctx context.Context, symbol string, tf types.Timeframe, asOf time.Time, compute ComputeFunc) (types.AnalysisEntry, error) {
	if entry, ok := r.store.Get(ctx, symbol, tf); ok && !schedule.IsExpired(entry, asOf) {
		entry.Source = types.SourceCached
		return entry, nil
	}

	key := symbol + "|" + string(tf)
	v, err, _ := r.group.Do(key, func() (any, error) {
		// Re-check under the flight: the winner may have refreshed while
		// we were queued.
		if entry, ok := r.store.Get(ctx, symbol, tf); ok && !schedule.IsExpired(entry, asOf) {
			return entry, nil
		}
		payload, err := compute(ctx)
		if err != nil {
			return types.AnalysisEntry{}, err
		}
		if err := r.store.Put(ctx, symbol, tf, payload, asOf); err != nil {
			return types.AnalysisEntry{}, err
		}
		entry, _ := r.store.Get(ctx, symbol, tf)
		return entry, nil
	})
	if err != nil {
		return types.AnalysisEntry{}, err
	}
	return v.(types.AnalysisEntry), nil
}

// Forget drops any pending coalescing state for the key, forcing the next
// GetFresh to recompute.
func (r *Refresher) Forget(symbol string, tf types.Timeframe) {
	r.group.Forget(symbol + "|" + string(tf))
}

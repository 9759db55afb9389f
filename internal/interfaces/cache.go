package interfaces

import (
	"context"
	"time"

	"llm-decision-engine/internal/types"
)

// CacheStore keys the latest analysis per (symbol, timeframe). An absent or
// expired entry is not an error; it is the normal trigger for a refresh.
type CacheStore interface {
	Get(ctx context.Context, symbol string, tf types.Timeframe) (types.AnalysisEntry, bool)
	Put(ctx context.Context, symbol string, tf types.Timeframe, payload types.AnalysisPayload, computedAt time.Time) error
	Invalidate(ctx context.Context, symbol string, tf types.Timeframe) error
}

// StateStore persists one ContinuityState per symbol. Load returns nil for a
// symbol that has never completed a pipeline run.
type StateStore interface {
	Load(ctx context.Context, symbol string) (*types.ContinuityState, error)
	Save(ctx context.Context, state *types.ContinuityState) error
}

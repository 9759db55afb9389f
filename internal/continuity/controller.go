package continuity

import (
	"context"
	"fmt"
	"time"

	"llm-decision-engine/internal/cache"
	"llm-decision-engine/internal/conditions"
	"llm-decision-engine/internal/interfaces"
	"llm-decision-engine/internal/logger"
	"llm-decision-engine/internal/metrics"
	"llm-decision-engine/internal/schedule"
	"llm-decision-engine/internal/types"
)

// Controller decides, per request, how much of the decision pipeline must
// run. It reads the continuity state and the analysis cache but never writes
// either; mutation is reserved for the record builder so planning stays pure.
type Controller struct {
	states     interfaces.StateStore
	cache      interfaces.CacheStore
	timeframes []types.Timeframe
}

func New(states interfaces.StateStore, cacheStore interfaces.CacheStore, timeframes []types.Timeframe) *Controller {
	if len(timeframes) == 0 {
		timeframes = types.AllTimeframes()
	}
	return &Controller{states: states, cache: cacheStore, timeframes: timeframes}
}

// PlanFor computes the analysis plan for one request. The ordering is
// deliberate: a triggered entry condition invalidates the prior thesis
// entirely and outranks routine staleness, while staleness alone only
// refreshes the expired timeframes.
func (c *Controller) PlanFor(ctx context.Context, symbol string, asOf time.Time, md types.MarketData) (types.AnalysisPlan, *types.ContinuityState, error) {
	state, err := c.states.Load(ctx, symbol)
	if err != nil {
		return types.AnalysisPlan{}, nil, fmt.Errorf("load continuity state: %w", err)
	}

	if state == nil {
		// First request for the symbol: nothing to continue from.
		plan := types.AnalysisPlan{Mode: types.PlanFull, Refresh: append([]types.Timeframe(nil), c.timeframes...)}
		c.record(ctx, symbol, plan, "first_request")
		return plan, nil, nil
	}

	eval := conditions.Evaluate(state.EntryConditions, md)
	if eval.Triggered {
		plan := types.AnalysisPlan{Mode: types.PlanFull, Refresh: append([]types.Timeframe(nil), c.timeframes...)}
		c.record(ctx, symbol, plan, "entry_condition_met")
		return plan, state, nil
	}

	expired := c.expiredTimeframes(ctx, symbol, asOf)
	if len(expired) > 0 {
		plan := types.AnalysisPlan{Mode: types.PlanIncremental, Refresh: expired}
		c.record(ctx, symbol, plan, "cache_expired")
		return plan, state, nil
	}

	plan := types.AnalysisPlan{Mode: types.PlanConditionCheck}
	c.record(ctx, symbol, plan, "all_fresh")
	return plan, state, nil
}

// Status exposes the per-timeframe cache state for diagnostics.
func (c *Controller) Status(ctx context.Context, symbol string, asOf time.Time) []cache.TimeframeStatus {
	return cache.Status(ctx, c.cache, symbol, asOf)
}

func (c *Controller) expiredTimeframes(ctx context.Context, symbol string, asOf time.Time) []types.Timeframe {
	var expired []types.Timeframe
	for _, tf := range c.timeframes {
		entry, ok := c.cache.Get(ctx, symbol, tf)
		if !ok || schedule.IsExpired(entry, asOf) {
			expired = append(expired, tf)
		}
	}
	return expired
}

func (c *Controller) record(ctx context.Context, symbol string, plan types.AnalysisPlan, reason string) {
	metrics.PlanModes.WithLabelValues(string(plan.Mode)).Inc()
	logger.Plan(ctx, symbol, string(plan.Mode), len(plan.Refresh), "reason", reason)
}

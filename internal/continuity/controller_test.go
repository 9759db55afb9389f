package continuity

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"llm-decision-engine/internal/cache"
	"llm-decision-engine/internal/types"
)

// 2025-06-04 10:00:00 UTC is a Wednesday, exactly on an hourly boundary.
var t0 = time.Date(2025, 6, 4, 10, 0, 0, 0, time.UTC)

func market(price float64) types.MarketData {
	md := types.MarketData{Indicators: map[types.Timeframe]types.IndicatorSet{}}
	md.Price.Price = price
	md.Price.Ts = t0
	return md
}

func seededController(t *testing.T, computedAt time.Time, conds []types.EntryCondition) (*Controller, *MemoryStateStore, *cache.MemoryStore) {
	t.Helper()
	ctx := context.Background()

	states := NewMemoryStateStore()
	store := cache.NewMemoryStore()
	for _, tf := range types.AllTimeframes() {
		require.NoError(t, store.Put(ctx, "X", tf, types.AnalysisPayload{
			Kind: types.AnalysisIntegrated, Signal: types.SignalNeutral, Confidence: 0.6,
		}, computedAt))
	}
	record := &types.DecisionRecord{
		Symbol: "X", Timestamp: computedAt, Decision: types.ActionHold,
		Confidence: 0.6, StrategyUsed: "cautious_hold", Efficiency: types.EfficiencyFull,
		EntryConditions: conds,
	}
	require.NoError(t, states.Save(ctx, &types.ContinuityState{
		Symbol: "X", LastFullAnalysisAt: computedAt, LastDecision: types.ActionHold,
		Confidence: 0.6, StrategyUsed: "cautious_hold",
		EntryConditions: conds, LastRecord: record,
	}))

	return New(states, store, nil), states, store
}

func TestFirstRequestPlansFullAnalysis(t *testing.T) {
	c := New(NewMemoryStateStore(), cache.NewMemoryStore(), nil)

	plan, state, err := c.PlanFor(context.Background(), "NEW", t0, market(2000))
	require.NoError(t, err)
	assert.Nil(t, state)
	assert.Equal(t, types.PlanFull, plan.Mode)
	assert.ElementsMatch(t, types.AllTimeframes(), plan.Refresh,
		"first request must refresh every timeframe")
}

func TestFreshCachesPlanConditionCheckOnly(t *testing.T) {
	// Analyses computed at t0; 30 seconds later nothing has expired.
	c, _, _ := seededController(t, t0, nil)
	asOf := t0.Add(30 * time.Second)

	plan, state, err := c.PlanFor(context.Background(), "X", asOf, market(2000))
	require.NoError(t, err)
	require.NotNil(t, state)
	assert.Equal(t, types.PlanConditionCheck, plan.Mode)
	assert.Empty(t, plan.Refresh)

	// Idempotence: same inputs, same plan.
	again, _, err := c.PlanFor(context.Background(), "X", asOf, market(2000))
	require.NoError(t, err)
	assert.Equal(t, plan, again)
}

func TestExpiredTimeframesPlanIncremental(t *testing.T) {
	// 16 minutes after computation the 1m, 5m and 15m entries are stale;
	// hourly, daily and weekly still hold.
	c, _, _ := seededController(t, t0, nil)
	asOf := t0.Add(16 * time.Minute)

	plan, _, err := c.PlanFor(context.Background(), "X", asOf, market(2000))
	require.NoError(t, err)
	assert.Equal(t, types.PlanIncremental, plan.Mode)
	assert.ElementsMatch(t,
		[]types.Timeframe{types.TFMinute1, types.TFMinute5, types.TFMinute15},
		plan.Refresh)
}

func TestTriggeredConditionOutranksFreshness(t *testing.T) {
	conds := []types.EntryCondition{{Kind: types.CondPriceAbove, Threshold: 2000}}
	c, _, _ := seededController(t, t0, conds)

	// All caches valid, but live price satisfies price_above(2000).
	plan, _, err := c.PlanFor(context.Background(), "X", t0.Add(10*time.Second), market(2010))
	require.NoError(t, err)
	assert.Equal(t, types.PlanFull, plan.Mode)
	assert.ElementsMatch(t, types.AllTimeframes(), plan.Refresh,
		"a thesis violation invalidates every timeframe regardless of TTL")
}

func TestUnsatisfiedConditionFallsThroughToFreshness(t *testing.T) {
	conds := []types.EntryCondition{{Kind: types.CondPriceAbove, Threshold: 5000}}
	c, _, _ := seededController(t, t0, conds)

	plan, _, err := c.PlanFor(context.Background(), "X", t0.Add(30*time.Second), market(2000))
	require.NoError(t, err)
	assert.Equal(t, types.PlanConditionCheck, plan.Mode)
}

func TestAbsentCacheEntryCountsAsExpired(t *testing.T) {
	ctx := context.Background()
	c, _, store := seededController(t, t0, nil)
	require.NoError(t, store.Invalidate(ctx, "X", types.TFDaily))

	plan, _, err := c.PlanFor(ctx, "X", t0.Add(time.Second), market(2000))
	require.NoError(t, err)
	assert.Equal(t, types.PlanIncremental, plan.Mode)
	assert.Contains(t, plan.Refresh, types.TFDaily)
}

func TestMemoryStateStoreCopiesOnLoad(t *testing.T) {
	ctx := context.Background()
	_, states, _ := seededController(t, t0, []types.EntryCondition{{Kind: types.CondPriceAbove, Threshold: 1}})

	a, err := states.Load(ctx, "X")
	require.NoError(t, err)
	a.EntryConditions[0].Threshold = 999
	a.LastRecord.Decision = types.ActionBuy

	b, err := states.Load(ctx, "X")
	require.NoError(t, err)
	assert.Equal(t, 1.0, b.EntryConditions[0].Threshold, "stored snapshot must not be aliased")
	assert.Equal(t, types.ActionHold, b.LastRecord.Decision)
}

package engine

import (
	"context"
	"fmt"
	"strings"
	"time"

	"llm-decision-engine/internal/pipeline"
	"llm-decision-engine/internal/types"
)

// defaultConditionBand is the invalidation band applied when the provider
// does not issue explicit entry conditions: a 2% move either way voids the
// decision's thesis.
const defaultConditionBand = 0.02

// buildRecord assembles the final decision artifact from one pipeline run.
func buildRecord(symbol string, asOf time.Time, price float64, res pipeline.Result) *types.DecisionRecord {
	conditions := res.Final.Conditions
	if len(conditions) == 0 {
		conditions = defaultConditions(price)
	}

	var reasoning []string
	if res.Visual != nil && res.Visual.Reasoning != "" {
		reasoning = append(reasoning, "visual: "+res.Visual.Reasoning)
	}
	if res.Indicator != nil && res.Indicator.Reasoning != "" {
		reasoning = append(reasoning, "indicator: "+res.Indicator.Reasoning)
	}
	if res.Final.Reasoning != "" {
		reasoning = append(reasoning, res.Final.Reasoning)
	}
	if len(res.Degraded) > 0 {
		names := make([]string, len(res.Degraded))
		for i, tf := range res.Degraded {
			names[i] = string(tf)
		}
		reasoning = append(reasoning, fmt.Sprintf("degraded timeframes excluded from confluence: %s", strings.Join(names, ", ")))
	}

	return &types.DecisionRecord{
		Symbol:          symbol,
		Timestamp:       asOf,
		Decision:        res.Selection.Action,
		Confidence:      res.Selection.Confidence,
		StrategyUsed:    res.Selection.Strategy,
		Reasoning:       reasoning,
		EntryConditions: conditions,
		Efficiency:      types.EfficiencyFull,
		Degraded:        res.Degraded,
	}
}

// defaultConditions brackets the current price so any meaningful move
// re-triggers full analysis.
func defaultConditions(price float64) []types.EntryCondition {
	if price <= 0 {
		return nil
	}
	return []types.EntryCondition{
		{Kind: types.CondPriceAbove, Threshold: price * (1 + defaultConditionBand)},
		{Kind: types.CondPriceBelow, Threshold: price * (1 - defaultConditionBand)},
	}
}

// persist is the sole place where the cache store and continuity state are
// mutated. It writes one fresh AnalysisEntry per refreshed timeframe, then
// replaces the symbol's continuity snapshot.
func (e *Engine) persist(ctx context.Context, asOf time.Time, plan types.AnalysisPlan, res pipeline.Result, prior *types.ContinuityState, rec *types.DecisionRecord) error {
	signal := res.FreshSignal()
	degraded := map[types.Timeframe]bool{}
	for _, tf := range res.Degraded {
		degraded[tf] = true
	}

	for _, tf := range plan.Refresh {
		payload := types.AnalysisPayload{
			Kind:       types.AnalysisIntegrated,
			Signal:     signal,
			Confidence: rec.Confidence,
			Summary:    res.Final.Reasoning,
			Degraded:   degraded[tf],
		}
		if err := e.cache.Put(ctx, rec.Symbol, tf, payload, asOf); err != nil {
			return fmt.Errorf("cache put %s/%s: %w", rec.Symbol, tf, err)
		}
	}

	lastFull := asOf
	if plan.Mode != types.PlanFull && prior != nil {
		lastFull = prior.LastFullAnalysisAt
	}
	state := &types.ContinuityState{
		Symbol:             rec.Symbol,
		LastFullAnalysisAt: lastFull,
		LastDecision:       rec.Decision,
		Confidence:         rec.Confidence,
		StrategyUsed:       rec.StrategyUsed,
		EntryConditions:    rec.EntryConditions,
		LastRecord:         rec,
	}
	if err := e.states.Save(ctx, state); err != nil {
		return fmt.Errorf("save continuity state %s: %w", rec.Symbol, err)
	}
	return nil
}

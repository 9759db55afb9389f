package engine

import (
	"context"
	"time"

	"llm-decision-engine/internal/continuity"
	"llm-decision-engine/internal/interfaces"
	"llm-decision-engine/internal/logger"
	"llm-decision-engine/internal/metrics"
	"llm-decision-engine/internal/pipeline"
	"llm-decision-engine/internal/schedule"
	"llm-decision-engine/internal/store"
	"llm-decision-engine/internal/types"
)

// Engine answers decision requests: it plans via the continuity controller,
// runs the pipeline for whatever the plan marks stale, and records the
// outcome. The whole sequence runs under the symbol's lock.
type Engine struct {
	cfg        *store.Config
	controller *continuity.Controller
	pipe       *pipeline.Pipeline
	cache      interfaces.CacheStore
	states     interfaces.StateStore
	locks      *symbolLocks
}

var _ interfaces.Engine = (*Engine)(nil)

func New(cfg *store.Config, controller *continuity.Controller, pipe *pipeline.Pipeline, cacheStore interfaces.CacheStore, states interfaces.StateStore) *Engine {
	return &Engine{
		cfg:        cfg,
		controller: controller,
		pipe:       pipe,
		cache:      cacheStore,
		states:     states,
		locks:      newSymbolLocks(),
	}
}

func (e *Engine) Decide(ctx context.Context, symbol string, asOf time.Time, md types.MarketData) (*types.DecisionRecord, error) {
	lockCtx, cancel := context.WithTimeout(ctx, e.cfg.LockTimeout())
	release, err := e.locks.acquire(lockCtx, symbol)
	cancel()
	if err != nil {
		logger.Warn(ctx, "Symbol lock acquisition timed out", "symbol", symbol)
		return nil, err
	}
	defer release()

	plan, state, err := e.controller.PlanFor(ctx, symbol, asOf, md)
	if err != nil {
		return nil, err
	}

	// Records are totally ordered per symbol; a straggler carrying an older
	// timestamp must not overwrite a newer record.
	if state != nil && state.LastRecord != nil && !asOf.After(state.LastRecord.Timestamp) {
		logger.Warn(ctx, "Discarding out-of-order request",
			"symbol", symbol,
			"as_of", asOf,
			"last_record_at", state.LastRecord.Timestamp,
		)
		return state.LastRecord.Clone(), nil
	}

	// A condition-check answer needs a prior record to replay; a state read
	// from an external store without one falls through to a pipeline run.
	if plan.Mode == types.PlanConditionCheck && state.LastRecord != nil {
		rec := state.LastRecord.Clone()
		rec.Efficiency = types.EfficiencyContinuity
		metrics.Decisions.WithLabelValues(string(rec.Decision), string(rec.Efficiency)).Inc()
		logger.Decision(ctx, symbol, string(rec.Decision), rec.Confidence, string(rec.Efficiency),
			"strategy", rec.StrategyUsed,
		)
		return rec, nil
	}

	res := e.pipe.Run(ctx, symbol, asOf, md, plan, e.cachedEntries(ctx, symbol, asOf, plan))
	rec := buildRecord(symbol, asOf, md.Price.Price, res)
	if err := e.persist(ctx, asOf, plan, res, state, rec); err != nil {
		return nil, err
	}

	metrics.Decisions.WithLabelValues(string(rec.Decision), string(rec.Efficiency)).Inc()
	logger.Decision(ctx, symbol, string(rec.Decision), rec.Confidence, string(rec.Efficiency),
		"strategy", rec.StrategyUsed,
		"mode", string(plan.Mode),
		"fallback", res.Fallback,
	)
	return rec.Clone(), nil
}

// cachedEntries collects the still-valid entries for timeframes the plan is
// not refreshing; the pipeline reads these instead of recomputing them.
func (e *Engine) cachedEntries(ctx context.Context, symbol string, asOf time.Time, plan types.AnalysisPlan) map[types.Timeframe]types.AnalysisEntry {
	out := map[types.Timeframe]types.AnalysisEntry{}
	for _, tf := range e.cfg.Timeframes {
		if plan.NeedsRefresh(tf) {
			continue
		}
		entry, ok := e.cache.Get(ctx, symbol, tf)
		if !ok || schedule.IsExpired(entry, asOf) {
			continue
		}
		out[tf] = entry
	}
	return out
}

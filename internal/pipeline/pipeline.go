package pipeline

import (
	"context"
	"fmt"
	"time"

	"llm-decision-engine/internal/interfaces"
	"llm-decision-engine/internal/logger"
	"llm-decision-engine/internal/metrics"
	"llm-decision-engine/internal/trace"
	"llm-decision-engine/internal/types"
)

// fallbackConfidence is assigned when a provider stage fails and the run
// degrades to HOLD.
const fallbackConfidence = 0.2

// Result is the outcome of one pipeline run.
type Result struct {
	Visual    *types.StageResult
	Indicator *types.StageResult
	Final     types.StageResult
	Selection Selection
	Degraded  []types.Timeframe
	Fallback  bool
}

// FreshSignal condenses the run's two analysis stages into one direction.
func (r Result) FreshSignal() types.Signal {
	return freshSignal(r.Visual, r.Indicator)
}

// Pipeline is the sequential three-stage inference state machine:
// VisualAnalysis -> IndicatorAnalysis -> FinalDecision. Stages whose skip
// predicate holds are passed through; the rest call the provider.
type Pipeline struct {
	provider   interfaces.Provider
	timeout    time.Duration
	thresholds Thresholds
}

func New(provider interfaces.Provider, timeout time.Duration, thresholds Thresholds) *Pipeline {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Pipeline{provider: provider, timeout: timeout, thresholds: thresholds}
}

type stage struct {
	kind  types.StageKind
	skip  func(in types.StageInput) bool
	apply func(in *types.StageInput, out types.StageResult)
}

func stages() []stage {
	analysisSkip := func(in types.StageInput) bool { return len(in.Refresh) == 0 }
	return []stage{
		{
			kind: types.StageVisualAnalysis,
			skip: analysisSkip,
			apply: func(in *types.StageInput, out types.StageResult) {
				in.Visual = &out
			},
		},
		{
			kind: types.StageIndicatorAnalysis,
			skip: analysisSkip,
			apply: func(in *types.StageInput, out types.StageResult) {
				in.Indicator = &out
			},
		},
		{
			kind:  types.StageFinalDecision,
			skip:  func(types.StageInput) bool { return false },
			apply: func(*types.StageInput, types.StageResult) {},
		},
	}
}

// Run executes the state machine for one request. It never returns an error:
// provider failures at any stage degrade the whole run to a low-confidence
// HOLD, which the caller records and caches like any other result so repeated
// failures do not turn into request storms.
func (p *Pipeline) Run(ctx context.Context, symbol string, asOf time.Time, md types.MarketData, plan types.AnalysisPlan, cached map[types.Timeframe]types.AnalysisEntry) Result {
	ctx, span := trace.StartSpan(ctx, "pipeline.Run")
	defer span.End()

	var degraded []types.Timeframe
	for _, tf := range plan.Refresh {
		if !md.HasTimeframe(tf) {
			degraded = append(degraded, tf)
		}
	}

	in := types.StageInput{
		Symbol:  symbol,
		AsOf:    asOf,
		Market:  md,
		Refresh: plan.Refresh,
		Cached:  payloads(cached),
	}

	var final types.StageResult
	for _, st := range stages() {
		if st.skip(in) {
			logger.Debug(ctx, "Stage skipped", "symbol", symbol, "stage", string(st.kind))
			continue
		}
		out, err := p.runStage(ctx, st.kind, in)
		if err != nil {
			return p.fallback(ctx, symbol, st.kind, err, degraded)
		}
		out.Kind = st.kind
		st.apply(&in, out)
		final = out
	}

	sel := Select(Inputs{
		Visual:     in.Visual,
		Indicator:  in.Indicator,
		Final:      final,
		Consensus:  Consensus(freshSignal(in.Visual, in.Indicator), plan.Refresh, cached),
		Refreshed:  len(plan.Refresh),
		Degraded:   len(degraded),
		Thresholds: p.thresholds,
	})
	final.Action = sel.Action
	final.Confidence = sel.Confidence

	return Result{
		Visual:    in.Visual,
		Indicator: in.Indicator,
		Final:     final,
		Selection: sel,
		Degraded:  degraded,
	}
}

func (p *Pipeline) runStage(ctx context.Context, kind types.StageKind, in types.StageInput) (types.StageResult, error) {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	start := time.Now()
	out, err := p.provider.RunStage(ctx, kind, in)
	metrics.ProviderCalls.WithLabelValues(string(kind)).Observe(time.Since(start).Seconds())
	return out, err
}

// fallback is the degraded terminal state: HOLD, low confidence, reasoning
// noting which stage failed.
func (p *Pipeline) fallback(ctx context.Context, symbol string, kind types.StageKind, err error, degraded []types.Timeframe) Result {
	metrics.ProviderFallbacks.WithLabelValues(string(kind)).Inc()
	logger.ErrorWithErr(ctx, "Provider stage failed, degrading to HOLD", err,
		"symbol", symbol,
		"stage", string(kind),
	)
	final := types.StageResult{
		Kind:       types.StageFinalDecision,
		Signal:     types.SignalNeutral,
		Action:     types.ActionHold,
		Confidence: fallbackConfidence,
		Reasoning:  fmt.Sprintf("degraded analysis: %s stage failed: %v", kind, err),
	}
	return Result{
		Final:     final,
		Selection: Selection{Strategy: StrategyCautiousHold, Action: types.ActionHold, Confidence: fallbackConfidence},
		Degraded:  degraded,
		Fallback:  true,
	}
}

func payloads(entries map[types.Timeframe]types.AnalysisEntry) map[types.Timeframe]types.AnalysisPayload {
	out := make(map[types.Timeframe]types.AnalysisPayload, len(entries))
	for tf, e := range entries {
		out[tf] = e.Payload
	}
	return out
}

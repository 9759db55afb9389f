package pipeline

import (
	"llm-decision-engine/internal/types"
)

// Strategy names, in selection priority order.
const (
	StrategyStrongConfluence = "strong_confluence"
	StrategyTrendFollowing   = "trend_following"
	StrategyMeanReversion    = "mean_reversion"
	StrategyCautiousHold     = "cautious_hold"
)

// Thresholds are the confidence cut-offs the evaluators work against.
type Thresholds struct {
	High float64
	Min  float64
}

// Inputs is everything the terminal stage needs to pick a strategy.
type Inputs struct {
	Visual     *types.StageResult
	Indicator  *types.StageResult
	Final      types.StageResult
	Consensus  types.Signal
	Refreshed  int
	Degraded   int
	Thresholds Thresholds
}

// Selection is the outcome of the strategy pass.
type Selection struct {
	Strategy   string
	Action     types.Action
	Confidence float64
}

type evaluator struct {
	name string
	eval func(Inputs) (types.Action, float64, bool)
}

// Ordered by priority; the first evaluator that matches wins. Adding a
// strategy is an insertion here, not a new branch in the caller.
var evaluators = []evaluator{
	{StrategyStrongConfluence, strongConfluence},
	{StrategyTrendFollowing, trendFollowing},
	{StrategyMeanReversion, meanReversion},
	{StrategyCautiousHold, cautiousHold},
}

// Select runs the evaluators in priority order and returns the first match.
// cautiousHold always matches, so Select always returns a valid selection.
func Select(in Inputs) Selection {
	for _, ev := range evaluators {
		if action, conf, ok := ev.eval(in); ok {
			return Selection{Strategy: ev.name, Action: action, Confidence: clamp(conf)}
		}
	}
	return Selection{Strategy: StrategyCautiousHold, Action: types.ActionHold, Confidence: in.Thresholds.Min}
}

// fullyDegraded reports that every timeframe this request recomputed was
// missing its indicators, so directional strategies have nothing to stand on.
func (in Inputs) fullyDegraded() bool {
	return in.Refreshed > 0 && in.Degraded == in.Refreshed
}

func strongConfluence(in Inputs) (types.Action, float64, bool) {
	if in.fullyDegraded() || in.Visual == nil || in.Indicator == nil {
		return types.ActionHold, 0, false
	}
	sig := in.Visual.Signal
	if sig == types.SignalNeutral || sig != in.Indicator.Signal {
		return types.ActionHold, 0, false
	}
	if in.Visual.Confidence < in.Thresholds.High || in.Indicator.Confidence < in.Thresholds.High {
		return types.ActionHold, 0, false
	}
	if in.Consensus == sig.Opposite() {
		return types.ActionHold, 0, false
	}
	conf := (in.Visual.Confidence + in.Indicator.Confidence) / 2
	if in.Final.Confidence > conf {
		conf = in.Final.Confidence
	}
	return signalAction(sig), conf, true
}

func trendFollowing(in Inputs) (types.Action, float64, bool) {
	if in.fullyDegraded() || in.Visual == nil || in.Indicator == nil {
		return types.ActionHold, 0, false
	}
	sig := in.Visual.Signal
	if sig == types.SignalNeutral || sig != in.Indicator.Signal {
		return types.ActionHold, 0, false
	}
	conf := (in.Visual.Confidence + in.Indicator.Confidence) / 2
	if conf < in.Thresholds.Min {
		return types.ActionHold, 0, false
	}
	return signalAction(sig), conf, true
}

// meanReversion fires on a confident contrarian read from the indicator
// stage when the visual trend is flat or points the other way.
func meanReversion(in Inputs) (types.Action, float64, bool) {
	if in.fullyDegraded() || in.Indicator == nil {
		return types.ActionHold, 0, false
	}
	sig := in.Indicator.Signal
	if sig == types.SignalNeutral || in.Indicator.Confidence < in.Thresholds.High {
		return types.ActionHold, 0, false
	}
	if in.Visual != nil && in.Visual.Signal == sig {
		return types.ActionHold, 0, false
	}
	return signalAction(sig), in.Indicator.Confidence * 0.8, true
}

func cautiousHold(in Inputs) (types.Action, float64, bool) {
	conf := in.Final.Confidence
	if conf > in.Thresholds.Min {
		conf = in.Thresholds.Min
	}
	if conf <= 0 {
		conf = 0.1
	}
	return types.ActionHold, conf, true
}

func signalAction(s types.Signal) types.Action {
	switch s {
	case types.SignalBullish:
		return types.ActionBuy
	case types.SignalBearish:
		return types.ActionSell
	}
	return types.ActionHold
}

func clamp(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// Consensus folds the freshly computed direction and the still-cached
// per-timeframe signals into one overall direction. When a cached signal
// contradicts the fresh one and its timeframe is as fine as (or finer than)
// the coarsest refreshed timeframe, the fresh signal wins and the cached
// vote is dropped; a contradicting coarser timeframe keeps its vote.
func Consensus(fresh types.Signal, refresh []types.Timeframe, cached map[types.Timeframe]types.AnalysisEntry) types.Signal {
	coarsest := -1
	for _, tf := range refresh {
		if g := tf.Granularity(); coarsest == -1 || g < coarsest {
			coarsest = g
		}
	}

	votes := map[types.Signal]float64{}
	if fresh != types.SignalNeutral {
		votes[fresh] += float64(len(refresh))
	}
	for tf, entry := range cached {
		sig := entry.Payload.Signal
		if sig == types.SignalNeutral || entry.Payload.Degraded {
			continue
		}
		if fresh != types.SignalNeutral && sig == fresh.Opposite() && coarsest >= 0 && tf.Granularity() >= coarsest {
			continue
		}
		votes[sig] += 1
	}

	switch {
	case votes[types.SignalBullish] > votes[types.SignalBearish]:
		return types.SignalBullish
	case votes[types.SignalBearish] > votes[types.SignalBullish]:
		return types.SignalBearish
	}
	return types.SignalNeutral
}

// freshSignal condenses the two analysis stages into one direction: agreement
// wins outright, a single directional read stands alone, contradiction is
// neutral.
func freshSignal(visual, indicator *types.StageResult) types.Signal {
	v, i := types.SignalNeutral, types.SignalNeutral
	if visual != nil {
		v = visual.Signal
	}
	if indicator != nil {
		i = indicator.Signal
	}
	switch {
	case v == i:
		return v
	case v == types.SignalNeutral:
		return i
	case i == types.SignalNeutral:
		return v
	}
	return types.SignalNeutral
}

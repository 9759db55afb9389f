package types

import "time"

// Timeframe is a fixed aggregation granularity with its own refresh cadence.
type Timeframe string

const (
	TFWeekly   Timeframe = "weekly"
	TFDaily    Timeframe = "daily"
	TFHourly   Timeframe = "hourly_60"
	TFMinute15 Timeframe = "minute_15"
	TFMinute5  Timeframe = "minute_5"
	TFMinute1  Timeframe = "minute_1"
)

// AllTimeframes returns the supported timeframes ordered coarse to fine.
func AllTimeframes() []Timeframe {
	return []Timeframe{TFWeekly, TFDaily, TFHourly, TFMinute15, TFMinute5, TFMinute1}
}

func (tf Timeframe) Valid() bool {
	switch tf {
	case TFWeekly, TFDaily, TFHourly, TFMinute15, TFMinute5, TFMinute1:
		return true
	}
	return false
}

// Granularity ranks timeframes: higher means finer. Used by the confluence
// tie-break (a refreshed signal outranks a cached one of equal or finer rank).
func (tf Timeframe) Granularity() int {
	switch tf {
	case TFWeekly:
		return 0
	case TFDaily:
		return 1
	case TFHourly:
		return 2
	case TFMinute15:
		return 3
	case TFMinute5:
		return 4
	case TFMinute1:
		return 5
	}
	return -1
}

type Action string

const (
	ActionBuy  Action = "BUY"
	ActionSell Action = "SELL"
	ActionHold Action = "HOLD"
)

func (a Action) Valid() bool {
	return a == ActionBuy || a == ActionSell || a == ActionHold
}

// Signal is the direction a single analysis stage reads from the market.
type Signal string

const (
	SignalBullish Signal = "bullish"
	SignalBearish Signal = "bearish"
	SignalNeutral Signal = "neutral"
)

// Opposite returns the contrary direction; neutral has none.
func (s Signal) Opposite() Signal {
	switch s {
	case SignalBullish:
		return SignalBearish
	case SignalBearish:
		return SignalBullish
	}
	return SignalNeutral
}

// Efficiency labels a DecisionRecord as freshly computed or reused.
type Efficiency string

const (
	EfficiencyFull       Efficiency = "full_analysis"
	EfficiencyContinuity Efficiency = "continuity_based"
)

// PlanMode selects how much of the pipeline a request must run.
type PlanMode string

const (
	PlanFull           PlanMode = "full"
	PlanIncremental    PlanMode = "incremental"
	PlanConditionCheck PlanMode = "condition_check_only"
)

// AnalysisPlan is computed per request and never persisted.
type AnalysisPlan struct {
	Mode    PlanMode
	Refresh []Timeframe
}

// NeedsRefresh reports whether the plan marks tf for recomputation.
func (p AnalysisPlan) NeedsRefresh(tf Timeframe) bool {
	for _, r := range p.Refresh {
		if r == tf {
			return true
		}
	}
	return false
}

// AnalysisSource records whether an entry was computed this request or reused.
type AnalysisSource string

const (
	SourceFresh  AnalysisSource = "fresh"
	SourceCached AnalysisSource = "cached"
)

// AnalysisKind tags the variant carried by an AnalysisPayload.
type AnalysisKind string

const (
	AnalysisVisual     AnalysisKind = "visual"
	AnalysisIndicator  AnalysisKind = "indicator"
	AnalysisIntegrated AnalysisKind = "integrated"
)

// AnalysisPayload is the per-timeframe analysis result held by the cache.
type AnalysisPayload struct {
	Kind       AnalysisKind `json:"kind"`
	Signal     Signal       `json:"signal"`
	Confidence float64      `json:"confidence"`
	Summary    string       `json:"summary"`
	Degraded   bool         `json:"degraded,omitempty"`
}

// AnalysisEntry is the cache store's unit of storage. One live entry per
// (symbol, timeframe); superseded atomically on refresh, never mutated.
type AnalysisEntry struct {
	Symbol     string          `json:"symbol"`
	Timeframe  Timeframe       `json:"timeframe"`
	ComputedAt time.Time       `json:"computed_at"`
	ExpiresAt  time.Time       `json:"expires_at"`
	Payload    AnalysisPayload `json:"payload"`
	Source     AnalysisSource  `json:"source"`
}

// ContinuityState is the per-symbol snapshot of the most recent decision.
type ContinuityState struct {
	Symbol             string           `json:"symbol"`
	LastFullAnalysisAt time.Time        `json:"last_full_analysis_at"`
	LastDecision       Action           `json:"last_decision"`
	Confidence         float64          `json:"confidence"`
	StrategyUsed       string           `json:"strategy_used"`
	EntryConditions    []EntryCondition `json:"entry_conditions"`
	LastRecord         *DecisionRecord  `json:"last_record"`
}

// DecisionRecord is the final decision artifact, immutable after creation.
type DecisionRecord struct {
	Symbol          string           `json:"symbol"`
	Timestamp       time.Time        `json:"timestamp"`
	Decision        Action           `json:"decision"`
	Confidence      float64          `json:"confidence"`
	StrategyUsed    string           `json:"strategy_used"`
	Reasoning       []string         `json:"reasoning"`
	EntryConditions []EntryCondition `json:"entry_conditions"`
	Efficiency      Efficiency       `json:"analysis_efficiency"`
	Degraded        []Timeframe      `json:"degraded_timeframes,omitempty"`
}

// Clone returns a copy safe to hand to callers while the original stays in
// the continuity state.
func (r *DecisionRecord) Clone() *DecisionRecord {
	if r == nil {
		return nil
	}
	out := *r
	out.Reasoning = append([]string(nil), r.Reasoning...)
	out.EntryConditions = append([]EntryCondition(nil), r.EntryConditions...)
	out.Degraded = append([]Timeframe(nil), r.Degraded...)
	return &out
}

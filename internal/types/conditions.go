package types

// ConditionKind names the rule family of an entry condition.
type ConditionKind string

const (
	CondPriceAbove     ConditionKind = "price_above"
	CondPriceBelow     ConditionKind = "price_below"
	CondIndicatorCross ConditionKind = "indicator_cross"
)

// Comparator gives indicator_cross its direction.
type Comparator string

const (
	CmpAbove Comparator = "above"
	CmpBelow Comparator = "below"
)

// EntryCondition is a threshold rule attached to a decision. Immutable once
// issued; a new decision supersedes the whole set.
type EntryCondition struct {
	Kind      ConditionKind `json:"kind"`
	Timeframe Timeframe     `json:"timeframe"`
	Indicator string        `json:"indicator,omitempty"`
	Threshold float64       `json:"threshold"`
	Cmp       Comparator    `json:"cmp,omitempty"`
}

// EvalResult is the outcome of checking a condition set against live data.
type EvalResult struct {
	Triggered bool
	Satisfied []EntryCondition
	Skipped   []EntryCondition
}

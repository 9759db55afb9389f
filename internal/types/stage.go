package types

import "time"

// StageKind identifies one step of the decision pipeline.
type StageKind string

const (
	StageVisualAnalysis    StageKind = "visual_analysis"
	StageIndicatorAnalysis StageKind = "indicator_analysis"
	StageFinalDecision     StageKind = "final_decision"
)

// StageInput is the slice of the decision package a provider stage sees.
// Cached holds the still-valid payloads for timeframes the plan did not mark
// for refresh; earlier stage results arrive via Visual/Indicator.
type StageInput struct {
	Symbol    string
	AsOf      time.Time
	Market    MarketData
	Refresh   []Timeframe
	Cached    map[Timeframe]AnalysisPayload
	Visual    *StageResult
	Indicator *StageResult
}

// StageResult is what a provider returns for one stage.
type StageResult struct {
	Kind       StageKind        `json:"kind"`
	Signal     Signal           `json:"signal"`
	Action     Action           `json:"action,omitempty"`
	Confidence float64          `json:"confidence"`
	Reasoning  string           `json:"reasoning"`
	Conditions []EntryCondition `json:"conditions,omitempty"`
}

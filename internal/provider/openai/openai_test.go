package openai

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"llm-decision-engine/internal/types"
)

func TestNormalizeWellFormed(t *testing.T) {
	raw := `{"signal":"bullish","action":"buy","confidence":0.82,"reasoning":"uptrend","conditions":[{"kind":"price_below","threshold":1950}]}`
	res := Normalize(types.StageFinalDecision, raw)

	assert.Equal(t, types.SignalBullish, res.Signal)
	assert.Equal(t, types.ActionBuy, res.Action, "action is upper-cased")
	assert.Equal(t, 0.82, res.Confidence)
	assert.Len(t, res.Conditions, 1)
}

func TestNormalizeStripsCodeFence(t *testing.T) {
	raw := "```json\n{\"signal\":\"bearish\",\"action\":\"SELL\",\"confidence\":0.7}\n```"
	res := Normalize(types.StageIndicatorAnalysis, raw)

	assert.Equal(t, types.SignalBearish, res.Signal)
	assert.Equal(t, types.ActionSell, res.Action)
}

func TestNormalizeMalformedJSONDegradesToHold(t *testing.T) {
	res := Normalize(types.StageFinalDecision, "I think you should buy!")

	assert.Equal(t, types.ActionHold, res.Action)
	assert.Equal(t, types.SignalNeutral, res.Signal)
	assert.Equal(t, "invalid_json", res.Reasoning)
	assert.Zero(t, res.Confidence)
}

func TestNormalizeRejectsOutOfRangeFields(t *testing.T) {
	raw := `{"signal":"mooning","action":"YOLO","confidence":7.5,"conditions":[{"kind":"vibes","threshold":1},{"kind":"price_above","timeframe":"monthly","threshold":1},{"kind":"price_above","threshold":2100}]}`
	res := Normalize(types.StageFinalDecision, raw)

	assert.Equal(t, types.SignalNeutral, res.Signal)
	assert.Equal(t, types.ActionHold, res.Action)
	assert.Zero(t, res.Confidence)
	assert.Len(t, res.Conditions, 1, "unknown kinds and timeframes are dropped")
	assert.Equal(t, types.CondPriceAbove, res.Conditions[0].Kind)
}

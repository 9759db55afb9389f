package conditions

import (
	"testing"

	"llm-decision-engine/internal/types"
)

func marketAt(price float64) types.MarketData {
	md := types.MarketData{Indicators: map[types.Timeframe]types.IndicatorSet{}}
	md.Price.Price = price
	set := types.IndicatorSet{SMA: map[int]float64{20: 1980}, RSI: 72}
	md.Indicators[types.TFMinute15] = set
	return md
}

func TestPriceAbove(t *testing.T) {
	conds := []types.EntryCondition{{Kind: types.CondPriceAbove, Threshold: 2000}}

	res := Evaluate(conds, marketAt(2010))
	if !res.Triggered || len(res.Satisfied) != 1 {
		t.Fatalf("price 2010 should satisfy price_above(2000): %+v", res)
	}

	res = Evaluate(conds, marketAt(1999))
	if res.Triggered {
		t.Fatalf("price 1999 must not satisfy price_above(2000)")
	}
}

func TestPriceBelow(t *testing.T) {
	conds := []types.EntryCondition{{Kind: types.CondPriceBelow, Threshold: 1900}}

	if res := Evaluate(conds, marketAt(1890)); !res.Triggered {
		t.Fatal("price 1890 should satisfy price_below(1900)")
	}
	if res := Evaluate(conds, marketAt(1900)); res.Triggered {
		t.Fatal("boundary price must not trigger")
	}
}

func TestIndicatorCross(t *testing.T) {
	above := []types.EntryCondition{{
		Kind: types.CondIndicatorCross, Timeframe: types.TFMinute15,
		Indicator: "rsi", Threshold: 70, Cmp: types.CmpAbove,
	}}
	if res := Evaluate(above, marketAt(2000)); !res.Triggered {
		t.Fatal("rsi 72 should satisfy cross above 70")
	}

	below := []types.EntryCondition{{
		Kind: types.CondIndicatorCross, Timeframe: types.TFMinute15,
		Indicator: "sma20", Threshold: 1990, Cmp: types.CmpBelow,
	}}
	if res := Evaluate(below, marketAt(2000)); !res.Triggered {
		t.Fatal("sma20 1980 should satisfy cross below 1990")
	}
}

func TestMissingIndicatorIsSkippedNotError(t *testing.T) {
	conds := []types.EntryCondition{{
		Kind: types.CondIndicatorCross, Timeframe: types.TFWeekly,
		Indicator: "rsi", Threshold: 50, Cmp: types.CmpAbove,
	}}
	res := Evaluate(conds, marketAt(2000))
	if res.Triggered {
		t.Fatal("missing indicator must not trigger")
	}
	if len(res.Skipped) != 1 {
		t.Fatalf("missing indicator should be reported as skipped, got %+v", res)
	}
}

func TestORSemantics(t *testing.T) {
	conds := []types.EntryCondition{
		{Kind: types.CondPriceAbove, Threshold: 5000}, // not satisfied
		{Kind: types.CondPriceBelow, Threshold: 2500}, // satisfied
		{Kind: types.CondIndicatorCross, Timeframe: types.TFMinute15, Indicator: "rsi", Threshold: 70, Cmp: types.CmpAbove}, // satisfied
	}
	res := Evaluate(conds, marketAt(2000))
	if !res.Triggered {
		t.Fatal("any satisfied condition must trigger")
	}
	if len(res.Satisfied) != 2 {
		t.Fatalf("all conditions are evaluated, want 2 satisfied, got %d", len(res.Satisfied))
	}
}

func TestEmptyConditionSet(t *testing.T) {
	if res := Evaluate(nil, marketAt(2000)); res.Triggered {
		t.Fatal("empty condition set never triggers")
	}
}

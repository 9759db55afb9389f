package conditions

import (
	"llm-decision-engine/internal/types"
)

// Evaluate tests a stored condition set against live market data. Pure and
// side-effect free: the caller decides what a trigger means.
//
// Semantics are OR: one satisfied condition is enough to report triggered,
// since any single condition firing means the thesis behind the previous
// decision may no longer hold. All conditions are still evaluated so the
// satisfied set is complete for the decision reasoning.
func Evaluate(conds []types.EntryCondition, md types.MarketData) types.EvalResult {
	var res types.EvalResult
	for _, c := range conds {
		ok, known := satisfied(c, md)
		if !known {
			// Required indicator missing for this frame: the condition is
			// skipped, not an error.
			res.Skipped = append(res.Skipped, c)
			continue
		}
		if ok {
			res.Satisfied = append(res.Satisfied, c)
			res.Triggered = true
		}
	}
	return res
}

func satisfied(c types.EntryCondition, md types.MarketData) (ok, known bool) {
	switch c.Kind {
	case types.CondPriceAbove:
		return md.Price.Price > c.Threshold, true
	case types.CondPriceBelow:
		return md.Price.Price < c.Threshold, true
	case types.CondIndicatorCross:
		v, found := md.Indicator(c.Timeframe, c.Indicator)
		if !found {
			return false, false
		}
		switch c.Cmp {
		case types.CmpAbove:
			return v > c.Threshold, true
		case types.CmpBelow:
			return v < c.Threshold, true
		}
		return false, false
	}
	return false, false
}

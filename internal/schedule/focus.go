package schedule

import "llm-decision-engine/internal/types"

// Focus returns the informational analysis focus labels for a timeframe.
// Informational only; nothing branches on these.
func Focus(tf types.Timeframe) []string {
	switch tf {
	case types.TFWeekly:
		return []string{"long_term_trend_direction", "major_support_resistance", "weekly_momentum"}
	case types.TFDaily:
		return []string{"medium_term_trend", "daily_moving_averages", "volume_analysis", "gap_analysis"}
	case types.TFHourly:
		return []string{"short_term_trend", "vwap_position", "intraday_support_resistance"}
	case types.TFMinute15:
		return []string{"entry_timing_signals", "breakout_confirmation", "micro_trend_changes"}
	case types.TFMinute5:
		return []string{"immediate_price_action", "breakout_validation", "quick_reversal_signals"}
	case types.TFMinute1:
		return []string{"execution_timing", "immediate_market_response"}
	}
	return nil
}

package schedule

import (
	"fmt"
	"time"

	"llm-decision-engine/internal/types"
)

// SessionOpenHour is the wall-clock hour at which the daily and weekly
// analyses roll over (market open).
const SessionOpenHour = 9

// NextBoundary returns the first instant at or after asOf at which an
// analysis of the given timeframe becomes stale. Pure and deterministic for
// identical inputs, which keeps backtests reproducible.
//
// Weekly rolls at Monday session open, daily at session open, the intraday
// frames at their fixed wall-clock modulus (an hourly analysis is valid
// until the top of the next hour, a 1-minute analysis only within the same
// minute).
func NextBoundary(tf types.Timeframe, asOf time.Time) time.Time {
	switch tf {
	case types.TFWeekly:
		return nextWeeklyOpen(asOf)
	case types.TFDaily:
		return nextDailyOpen(asOf)
	case types.TFHourly:
		return asOf.Truncate(time.Hour).Add(time.Hour)
	case types.TFMinute15:
		return nextMinuteModulus(asOf, 15)
	case types.TFMinute5:
		return nextMinuteModulus(asOf, 5)
	case types.TFMinute1:
		return asOf.Truncate(time.Minute).Add(time.Minute)
	}
	// Unknown timeframes are rejected at startup by config validation; a
	// zero boundary here makes any entry that slipped through immediately
	// stale instead of permanently fresh.
	return time.Time{}
}

// IsExpired reports whether entry is stale at asOf.
func IsExpired(entry types.AnalysisEntry, asOf time.Time) bool {
	return !asOf.Before(entry.ExpiresAt)
}

// Validate rejects unknown timeframes. Called once at startup; an error here
// is a configuration error, not a per-request condition.
func Validate(tfs []types.Timeframe) error {
	for _, tf := range tfs {
		if !tf.Valid() {
			return fmt.Errorf("unknown timeframe %q", tf)
		}
	}
	return nil
}

func nextWeeklyOpen(asOf time.Time) time.Time {
	daysUntilMonday := (int(time.Monday) - int(asOf.Weekday()) + 7) % 7
	open := time.Date(asOf.Year(), asOf.Month(), asOf.Day(), SessionOpenHour, 0, 0, 0, asOf.Location()).
		AddDate(0, 0, daysUntilMonday)
	if !open.After(asOf) {
		open = open.AddDate(0, 0, 7)
	}
	return open
}

func nextDailyOpen(asOf time.Time) time.Time {
	open := time.Date(asOf.Year(), asOf.Month(), asOf.Day(), SessionOpenHour, 0, 0, 0, asOf.Location())
	if !open.After(asOf) {
		open = open.AddDate(0, 0, 1)
	}
	return open
}

func nextMinuteModulus(asOf time.Time, step int) time.Time {
	t := asOf.Truncate(time.Minute)
	next := ((t.Minute() / step) + 1) * step
	return t.Add(time.Duration(next-t.Minute()) * time.Minute)
}

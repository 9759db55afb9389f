package schedule

import (
	"testing"
	"time"

	"llm-decision-engine/internal/types"
)

func at(day time.Weekday, hour, min int) time.Time {
	// 2025-06-02 is a Monday.
	base := time.Date(2025, 6, 2, 0, 0, 0, 0, time.UTC)
	return base.AddDate(0, 0, (int(day)-int(time.Monday)+7)%7).
		Add(time.Duration(hour)*time.Hour + time.Duration(min)*time.Minute)
}

func TestNextBoundaryIntraday(t *testing.T) {
	asOf := at(time.Wednesday, 10, 37)

	cases := []struct {
		tf   types.Timeframe
		want time.Time
	}{
		{types.TFMinute1, at(time.Wednesday, 10, 38)},
		{types.TFMinute5, at(time.Wednesday, 10, 40)},
		{types.TFMinute15, at(time.Wednesday, 10, 45)},
		{types.TFHourly, at(time.Wednesday, 11, 0)},
	}
	for _, c := range cases {
		got := NextBoundary(c.tf, asOf)
		if !got.Equal(c.want) {
			t.Errorf("%s: got %v, want %v", c.tf, got, c.want)
		}
	}
}

func TestNextBoundaryMinuteRollsHour(t *testing.T) {
	asOf := at(time.Wednesday, 10, 59)
	got := NextBoundary(types.TFMinute1, asOf)
	if want := at(time.Wednesday, 11, 0); !got.Equal(want) {
		t.Errorf("got %v, want %v", got, want)
	}

	got = NextBoundary(types.TFMinute15, at(time.Wednesday, 10, 50))
	if want := at(time.Wednesday, 11, 0); !got.Equal(want) {
		t.Errorf("15m: got %v, want %v", got, want)
	}
}

func TestNextBoundaryDaily(t *testing.T) {
	// Before session open: today's open.
	got := NextBoundary(types.TFDaily, at(time.Tuesday, 8, 30))
	if want := at(time.Tuesday, 9, 0); !got.Equal(want) {
		t.Errorf("pre-open: got %v, want %v", got, want)
	}
	// After session open: tomorrow's open.
	got = NextBoundary(types.TFDaily, at(time.Tuesday, 9, 0))
	if want := at(time.Wednesday, 9, 0); !got.Equal(want) {
		t.Errorf("post-open: got %v, want %v", got, want)
	}
}

func TestNextBoundaryWeekly(t *testing.T) {
	// Monday before open → same Monday open.
	got := NextBoundary(types.TFWeekly, at(time.Monday, 7, 0))
	if want := at(time.Monday, 9, 0); !got.Equal(want) {
		t.Errorf("monday pre-open: got %v, want %v", got, want)
	}
	// Monday after open → next Monday.
	got = NextBoundary(types.TFWeekly, at(time.Monday, 9, 30))
	if want := at(time.Monday, 9, 0).AddDate(0, 0, 7); !got.Equal(want) {
		t.Errorf("monday post-open: got %v, want %v", got, want)
	}
	// Midweek → following Monday.
	got = NextBoundary(types.TFWeekly, at(time.Thursday, 14, 0))
	if want := at(time.Monday, 9, 0).AddDate(0, 0, 7); !got.Equal(want) {
		t.Errorf("midweek: got %v, want %v", got, want)
	}
}

func TestNextBoundaryDeterministic(t *testing.T) {
	asOf := at(time.Friday, 13, 13)
	for _, tf := range types.AllTimeframes() {
		a := NextBoundary(tf, asOf)
		b := NextBoundary(tf, asOf)
		if !a.Equal(b) {
			t.Errorf("%s: non-deterministic boundary", tf)
		}
		if !a.After(asOf) {
			t.Errorf("%s: boundary %v not after asOf %v", tf, a, asOf)
		}
	}
}

func TestIsExpired(t *testing.T) {
	entry := types.AnalysisEntry{ExpiresAt: at(time.Tuesday, 10, 0)}
	if IsExpired(entry, at(time.Tuesday, 9, 59)) {
		t.Error("expired before boundary")
	}
	if !IsExpired(entry, at(time.Tuesday, 10, 0)) {
		t.Error("not expired at boundary")
	}
}

func TestValidate(t *testing.T) {
	if err := Validate(types.AllTimeframes()); err != nil {
		t.Fatalf("valid set rejected: %v", err)
	}
	if err := Validate([]types.Timeframe{"monthly"}); err == nil {
		t.Fatal("unknown timeframe accepted")
	}
}

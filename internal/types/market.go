package types

import (
	"strconv"
	"strings"
	"time"
)

// PriceSnapshot is the live quote slice of a market data package.
type PriceSnapshot struct {
	Symbol       string    `json:"symbol"`
	Price        float64   `json:"price"`
	Change       float64   `json:"change"`
	ChangePct    float64   `json:"change_pct"`
	TodayOpen    float64   `json:"today_open"`
	TodayHigh    float64   `json:"today_high"`
	TodayLow     float64   `json:"today_low"`
	PrevClose    float64   `json:"prev_close"`
	Volume       int64     `json:"volume"`
	AvgVolume20  int64     `json:"avg_volume_20"`
	VolumeRatio  float64   `json:"volume_ratio"`
	Ts           time.Time `json:"ts"`
}

// IndicatorSet carries the pre-computed technical indicators for one
// timeframe. Zero-value maps mean the indicator is absent for that frame.
type IndicatorSet struct {
	SMA  map[int]float64 `json:"sma,omitempty"`
	RSI  float64         `json:"rsi,omitempty"`
	VWAP float64         `json:"vwap,omitempty"`
	BB   struct {
		Upper  float64 `json:"upper"`
		Middle float64 `json:"middle"`
		Lower  float64 `json:"lower"`
	} `json:"bb,omitempty"`
	ATR           float64 `json:"atr,omitempty"`
	VolumeProfile struct {
		POC           float64 `json:"poc"`
		ValueAreaHigh float64 `json:"value_area_high"`
		ValueAreaLow  float64 `json:"value_area_low"`
	} `json:"volume_profile,omitempty"`
}

// MarketData is the pre-assembled input package for one decision request.
// Assembly (quotes, bars, indicator math) happens upstream; this core only
// reads it.
type MarketData struct {
	Price      PriceSnapshot              `json:"price"`
	Indicators map[Timeframe]IndicatorSet `json:"indicators"`
}

// HasTimeframe reports whether the package carries indicators for tf.
func (md MarketData) HasTimeframe(tf Timeframe) bool {
	_, ok := md.Indicators[tf]
	return ok
}

// Indicator resolves a named indicator value for a timeframe. Names follow
// the wire convention of the condition set: "rsi", "vwap", "atr", "sma20",
// "bb_upper", "bb_middle", "bb_lower", "poc".
func (md MarketData) Indicator(tf Timeframe, name string) (float64, bool) {
	set, ok := md.Indicators[tf]
	if !ok {
		return 0, false
	}
	switch name {
	case "rsi":
		return set.RSI, set.RSI != 0
	case "vwap":
		return set.VWAP, set.VWAP != 0
	case "atr":
		return set.ATR, set.ATR != 0
	case "bb_upper":
		return set.BB.Upper, set.BB.Upper != 0
	case "bb_middle":
		return set.BB.Middle, set.BB.Middle != 0
	case "bb_lower":
		return set.BB.Lower, set.BB.Lower != 0
	case "poc":
		return set.VolumeProfile.POC, set.VolumeProfile.POC != 0
	}
	if w, ok := strings.CutPrefix(name, "sma"); ok {
		period, err := strconv.Atoi(w)
		if err != nil {
			return 0, false
		}
		v, ok := set.SMA[period]
		return v, ok
	}
	return 0, false
}

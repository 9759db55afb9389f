package cache

import (
	"context"
	"time"

	"llm-decision-engine/internal/interfaces"
	"llm-decision-engine/internal/schedule"
	"llm-decision-engine/internal/types"
)

// TimeframeStatus describes one timeframe's cache slot for a symbol.
type TimeframeStatus struct {
	Timeframe          types.Timeframe `json:"timeframe"`
	HasCache           bool            `json:"has_cache"`
	ComputedAt         time.Time       `json:"computed_at,omitempty"`
	ExpiresAt          time.Time       `json:"expires_at,omitempty"`
	NeedsUpdate        bool            `json:"needs_update"`
	MinutesUntilUpdate float64         `json:"minutes_until_update,omitempty"`
}

// Status reports the per-timeframe cache state for a symbol at asOf.
// Diagnostic surface only; planning goes through the continuity controller.
func Status(ctx context.Context, store interfaces.CacheStore, symbol string, asOf time.Time) []TimeframeStatus {
	out := make([]TimeframeStatus, 0, len(types.AllTimeframes()))
	for _, tf := range types.AllTimeframes() {
		entry, ok := store.Get(ctx, symbol, tf)
		if !ok {
			out = append(out, TimeframeStatus{Timeframe: tf, NeedsUpdate: true})
			continue
		}
		expired := schedule.IsExpired(entry, asOf)
		st := TimeframeStatus{
			Timeframe:   tf,
			HasCache:    true,
			ComputedAt:  entry.ComputedAt,
			ExpiresAt:   entry.ExpiresAt,
			NeedsUpdate: expired,
		}
		if !expired {
			st.MinutesUntilUpdate = entry.ExpiresAt.Sub(asOf).Minutes()
		}
		out = append(out, st)
	}
	return out
}

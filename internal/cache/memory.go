package cache

import (
	"context"
	"sync"
	"time"

	"llm-decision-engine/internal/interfaces"
	"llm-decision-engine/internal/metrics"
	"llm-decision-engine/internal/schedule"
	"llm-decision-engine/internal/types"
)

// MemoryStore keeps the latest analysis per (symbol, timeframe) in process
// memory. Entries are replaced whole, never mutated, so readers holding a
// returned value are unaffected by a concurrent refresh.
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[string]map[types.Timeframe]types.AnalysisEntry
}

var _ interfaces.CacheStore = (*MemoryStore)(nil)

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		entries: make(map[string]map[types.Timeframe]types.AnalysisEntry),
	}
}

// Get returns the live entry for (symbol, tf). An expired entry is still
// returned (with ok=true) so the planner can distinguish "stale" from
// "never computed"; expiry is the Schedule's call, not the store's.
func (s *MemoryStore) Get(_ context.Context, symbol string, tf types.Timeframe) (types.AnalysisEntry, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	byTF, ok := s.entries[symbol]
	if !ok {
		metrics.CacheLookups.WithLabelValues("miss").Inc()
		return types.AnalysisEntry{}, false
	}
	entry, ok := byTF[tf]
	if !ok {
		metrics.CacheLookups.WithLabelValues("miss").Inc()
		return types.AnalysisEntry{}, false
	}
	metrics.CacheLookups.WithLabelValues("hit").Inc()
	return entry, true
}

// Put replaces the entry for (symbol, tf) atomically. Expiry always comes
// from the Schedule, never from the caller.
func (s *MemoryStore) Put(_ context.Context, symbol string, tf types.Timeframe, payload types.AnalysisPayload, computedAt time.Time) error {
	entry := types.AnalysisEntry{
		Symbol:     symbol,
		Timeframe:  tf,
		ComputedAt: computedAt,
		ExpiresAt:  schedule.NextBoundary(tf, computedAt),
		Payload:    payload,
		Source:     types.SourceFresh,
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	byTF, ok := s.entries[symbol]
	if !ok {
		byTF = make(map[types.Timeframe]types.AnalysisEntry)
		s.entries[symbol] = byTF
	}
	byTF[tf] = entry
	return nil
}

func (s *MemoryStore) Invalidate(_ context.Context, symbol string, tf types.Timeframe) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if byTF, ok := s.entries[symbol]; ok {
		delete(byTF, tf)
	}
	return nil
}

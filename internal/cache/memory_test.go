package cache

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"llm-decision-engine/internal/schedule"
	"llm-decision-engine/internal/types"
)

var testTime = time.Date(2025, 6, 4, 10, 37, 0, 0, time.UTC) // a Wednesday

func payload(sig types.Signal) types.AnalysisPayload {
	return types.AnalysisPayload{Kind: types.AnalysisIntegrated, Signal: sig, Confidence: 0.7, Summary: "t"}
}

func TestMemoryStorePutGet(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	_, ok := s.Get(ctx, "7203.T", types.TFMinute1)
	assert.False(t, ok, "empty store should miss")

	require.NoError(t, s.Put(ctx, "7203.T", types.TFMinute1, payload(types.SignalBullish), testTime))

	entry, ok := s.Get(ctx, "7203.T", types.TFMinute1)
	require.True(t, ok)
	assert.Equal(t, types.SourceFresh, entry.Source)
	assert.Equal(t, schedule.NextBoundary(types.TFMinute1, testTime), entry.ExpiresAt,
		"expiry must come from the schedule")
}

func TestMemoryStoreReplaceAtomic(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	require.NoError(t, s.Put(ctx, "X", types.TFDaily, payload(types.SignalBearish), testTime))
	old, _ := s.Get(ctx, "X", types.TFDaily)

	require.NoError(t, s.Put(ctx, "X", types.TFDaily, payload(types.SignalBullish), testTime.Add(time.Minute)))
	entry, ok := s.Get(ctx, "X", types.TFDaily)
	require.True(t, ok)
	assert.Equal(t, types.SignalBullish, entry.Payload.Signal)

	// The value handed out earlier is unaffected by the replacement.
	assert.Equal(t, types.SignalBearish, old.Payload.Signal)
}

func TestMemoryStoreInvalidate(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	require.NoError(t, s.Put(ctx, "X", types.TFMinute5, payload(types.SignalNeutral), testTime))
	require.NoError(t, s.Invalidate(ctx, "X", types.TFMinute5))

	_, ok := s.Get(ctx, "X", types.TFMinute5)
	assert.False(t, ok)
}

func TestRefresherCoalescesConcurrentRefreshes(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	r := NewRefresher(s)

	var computes atomic.Int32
	slow := func(ctx context.Context) (types.AnalysisPayload, error) {
		computes.Add(1)
		time.Sleep(50 * time.Millisecond)
		return payload(types.SignalBullish), nil
	}

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			entry, err := r.GetFresh(ctx, "X", types.TFMinute1, testTime, slow)
			assert.NoError(t, err)
			assert.Equal(t, types.SignalBullish, entry.Payload.Signal)
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), computes.Load(), "concurrent stale reads must coalesce onto one computation")
}

func TestRefresherServesFreshEntryWithoutCompute(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	r := NewRefresher(s)

	require.NoError(t, s.Put(ctx, "X", types.TFHourly, payload(types.SignalBearish), testTime))

	entry, err := r.GetFresh(ctx, "X", types.TFHourly, testTime.Add(time.Minute), func(ctx context.Context) (types.AnalysisPayload, error) {
		t.Fatal("compute called for a fresh entry")
		return types.AnalysisPayload{}, nil
	})
	require.NoError(t, err)
	assert.Equal(t, types.SourceCached, entry.Source)
}

func TestRefresherRecomputesExpiredEntry(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	r := NewRefresher(s)

	require.NoError(t, s.Put(ctx, "X", types.TFMinute1, payload(types.SignalNeutral), testTime))

	// Next minute: the 1-minute entry is stale.
	later := testTime.Add(time.Minute)
	entry, err := r.GetFresh(ctx, "X", types.TFMinute1, later, func(ctx context.Context) (types.AnalysisPayload, error) {
		return payload(types.SignalBullish), nil
	})
	require.NoError(t, err)
	assert.Equal(t, types.SignalBullish, entry.Payload.Signal)
	assert.Equal(t, later, entry.ComputedAt)
}

func TestRefresherPropagatesComputeError(t *testing.T) {
	ctx := context.Background()
	r := NewRefresher(NewMemoryStore())

	wantErr := errors.New("provider down")
	_, err := r.GetFresh(ctx, "X", types.TFMinute1, testTime, func(ctx context.Context) (types.AnalysisPayload, error) {
		return types.AnalysisPayload{}, wantErr
	})
	assert.ErrorIs(t, err, wantErr)
}

func TestStatusReport(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	require.NoError(t, s.Put(ctx, "X", types.TFDaily, payload(types.SignalBullish), testTime))

	report := Status(ctx, s, "X", testTime.Add(time.Minute))
	require.Len(t, report, len(types.AllTimeframes()))

	for _, st := range report {
		switch st.Timeframe {
		case types.TFDaily:
			assert.True(t, st.HasCache)
			assert.False(t, st.NeedsUpdate)
			assert.Greater(t, st.MinutesUntilUpdate, 0.0)
		case types.TFMinute1:
			assert.False(t, st.HasCache)
			assert.True(t, st.NeedsUpdate)
		}
	}
}

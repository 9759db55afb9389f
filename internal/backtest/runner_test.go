package backtest

import (
	"context"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"llm-decision-engine/internal/types"
)

var base = time.Date(2025, 6, 4, 10, 0, 0, 0, time.UTC)

// replayFake reuses the prior answer for every second request per symbol,
// mimicking the continuity path, and records the timestamps it saw.
type replayFake struct {
	mu   sync.Mutex
	seen map[string][]time.Time
}

func (f *replayFake) Decide(_ context.Context, symbol string, asOf time.Time, _ types.MarketData) (*types.DecisionRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.seen == nil {
		f.seen = map[string][]time.Time{}
	}
	f.seen[symbol] = append(f.seen[symbol], asOf)

	eff := types.EfficiencyFull
	if len(f.seen[symbol])%2 == 0 {
		eff = types.EfficiencyContinuity
	}
	return &types.DecisionRecord{
		Symbol: symbol, Timestamp: asOf, Decision: types.ActionHold,
		Confidence: 0.5, Efficiency: eff,
	}, nil
}

func ticksFor(symbol string, n int) []Tick {
	out := make([]Tick, n)
	for i := range out {
		out[i] = Tick{Symbol: symbol, AsOf: base.Add(time.Duration(i) * time.Minute)}
	}
	return out
}

func TestRunReplaysEachSymbolInTimestampOrder(t *testing.T) {
	fake := &replayFake{}
	var ticks []Tick
	// Interleave and scramble two symbols; the runner must still replay each
	// one in ascending timestamp order.
	a, b := ticksFor("A", 5), ticksFor("B", 5)
	for i := 4; i >= 0; i-- {
		ticks = append(ticks, a[i], b[i])
	}

	summaries, err := NewRunner(fake, 4).Run(context.Background(), ticks)
	require.NoError(t, err)

	for _, sym := range []string{"A", "B"} {
		seen := fake.seen[sym]
		require.Len(t, seen, 5)
		for i := 1; i < len(seen); i++ {
			assert.True(t, seen[i].After(seen[i-1]), "%s replayed out of order", sym)
		}
		assert.Equal(t, 5, summaries[sym].Requests)
	}
}

func TestRunComputesEfficiencyRatio(t *testing.T) {
	fake := &replayFake{}

	summaries, err := NewRunner(fake, 2).Run(context.Background(), ticksFor("A", 4))
	require.NoError(t, err)

	s := summaries["A"]
	assert.Equal(t, 4, s.Requests)
	assert.Equal(t, 2, s.FullRuns)
	assert.Equal(t, 2, s.ContinuityHits)
	assert.InDelta(t, 0.5, s.EfficiencyRatio, 1e-9)
	assert.Equal(t, 4, s.Decisions[types.ActionHold])
}

func TestLoadTicksParsesJSONLines(t *testing.T) {
	path := t.TempDir() + "/feed.jsonl"
	feed := `{"symbol":"A","as_of":"2025-06-04T10:00:00Z","market":{"price":{"price":2000},"indicators":{}}}
{"symbol":"A","as_of":"2025-06-04T10:01:00Z","market":{"price":{"price":2001},"indicators":{}}}
`
	require.NoError(t, os.WriteFile(path, []byte(feed), 0o644))

	ticks, err := LoadTicks(path)
	require.NoError(t, err)
	require.Len(t, ticks, 2)
	assert.Equal(t, "A", ticks[0].Symbol)
	assert.Equal(t, 2000.0, ticks[0].Market.Price.Price)
}

func TestLoadTicksRejectsMalformedLine(t *testing.T) {
	path := t.TempDir() + "/bad.jsonl"
	require.NoError(t, os.WriteFile(path, []byte("{not json}\n"), 0o644))

	_, err := LoadTicks(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "line 1")
}

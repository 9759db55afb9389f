package backtest

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"

	"llm-decision-engine/internal/interfaces"
	"llm-decision-engine/internal/logger"
	"llm-decision-engine/internal/types"
)

// Tick is one replayed request: a symbol, a timestamp and the market data
// snapshot that was current at that moment.
type Tick struct {
	Symbol string           `json:"symbol"`
	AsOf   time.Time        `json:"as_of"`
	Market types.MarketData `json:"market"`
}

// Summary aggregates one symbol's replay.
type Summary struct {
	Symbol          string               `json:"symbol"`
	Requests        int                  `json:"requests"`
	FullRuns        int                  `json:"full_runs"`
	ContinuityHits  int                  `json:"continuity_hits"`
	Decisions       map[types.Action]int `json:"decisions"`
	EfficiencyRatio float64              `json:"efficiency_ratio"`
}

// Runner replays recorded ticks through the engine. Symbols run in parallel
// up to the worker limit; each symbol's ticks replay strictly in timestamp
// order so the continuity path behaves exactly as it would live.
type Runner struct {
	eng     interfaces.Engine
	workers int
}

func NewRunner(eng interfaces.Engine, workers int) *Runner {
	if workers <= 0 {
		workers = 1
	}
	return &Runner{eng: eng, workers: workers}
}

// LoadTicks reads a JSON-lines feed file.
func LoadTicks(path string) ([]Tick, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var ticks []Tick
	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 0, 1<<16), 1<<22)
	line := 0
	for sc.Scan() {
		line++
		if len(sc.Bytes()) == 0 {
			continue
		}
		var t Tick
		if err := json.Unmarshal(sc.Bytes(), &t); err != nil {
			return nil, fmt.Errorf("feed line %d: %w", line, err)
		}
		ticks = append(ticks, t)
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return ticks, nil
}

// Run replays all ticks and returns per-symbol summaries.
func (r *Runner) Run(ctx context.Context, ticks []Tick) (map[string]*Summary, error) {
	bySymbol := map[string][]Tick{}
	for _, t := range ticks {
		bySymbol[t.Symbol] = append(bySymbol[t.Symbol], t)
	}
	for _, ts := range bySymbol {
		sort.SliceStable(ts, func(i, j int) bool { return ts[i].AsOf.Before(ts[j].AsOf) })
	}

	summaries := make(map[string]*Summary, len(bySymbol))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(r.workers)

	for symbol, ts := range bySymbol {
		ts := ts
		summary := &Summary{Symbol: symbol, Decisions: map[types.Action]int{}}
		summaries[symbol] = summary
		g.Go(func() error {
			return r.replaySymbol(ctx, ts, summary)
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	for _, s := range summaries {
		if s.Requests > 0 {
			s.EfficiencyRatio = float64(s.ContinuityHits) / float64(s.Requests)
		}
	}
	return summaries, nil
}

func (r *Runner) replaySymbol(ctx context.Context, ticks []Tick, summary *Summary) error {
	for _, t := range ticks {
		rec, err := r.eng.Decide(ctx, t.Symbol, t.AsOf, t.Market)
		if err != nil {
			return fmt.Errorf("replay %s at %s: %w", t.Symbol, t.AsOf, err)
		}
		summary.Requests++
		summary.Decisions[rec.Decision]++
		if rec.Efficiency == types.EfficiencyContinuity {
			summary.ContinuityHits++
		} else {
			summary.FullRuns++
		}
	}
	logger.Info(ctx, "Symbol replay finished",
		"symbol", summary.Symbol,
		"requests", summary.Requests,
		"continuity_hits", summary.ContinuityHits,
	)
	return nil
}

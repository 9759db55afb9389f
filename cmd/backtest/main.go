package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"

	"github.com/joho/godotenv"

	"llm-decision-engine/internal/backtest"
	"llm-decision-engine/internal/cache"
	"llm-decision-engine/internal/continuity"
	"llm-decision-engine/internal/engine"
	"llm-decision-engine/internal/interfaces"
	"llm-decision-engine/internal/logger"
	"llm-decision-engine/internal/metrics"
	"llm-decision-engine/internal/pipeline"
	"llm-decision-engine/internal/provider/noop"
	"llm-decision-engine/internal/provider/openai"
	"llm-decision-engine/internal/provider/providerobs"
	"llm-decision-engine/internal/store"
	"llm-decision-engine/internal/trace"
)

func must(err error) {
	if err != nil {
		log.Fatal(err)
	}
}

func main() {
	_ = godotenv.Load()

	path := "config.yaml"
	if len(os.Args) > 1 {
		path = os.Args[1]
	}
	cfg, err := store.LoadConfig(path)
	must(err)
	if cfg.FeedFile == "" {
		log.Fatal("backtest requires feed_file in config")
	}

	must(logger.Init())
	must(trace.Init())
	defer trace.Shutdown(context.Background())
	metrics.Register()

	ticks, err := backtest.LoadTicks(cfg.FeedFile)
	must(err)
	log.Printf("Replaying %d ticks with %d workers", len(ticks), cfg.Backtest.Workers)

	runner := backtest.NewRunner(buildEngine(cfg), cfg.Backtest.Workers)
	summaries, err := runner.Run(context.Background(), ticks)
	must(err)

	for _, s := range summaries {
		b, _ := json.Marshal(s)
		fmt.Println(string(b))
	}
}

// Backtests always run on in-process stores: replays must be reproducible
// and must not touch a shared cache backend.
func buildEngine(cfg *store.Config) interfaces.Engine {
	cacheStore := cache.NewMemoryStore()
	states := continuity.NewMemoryStateStore()

	var prov interfaces.Provider
	if cfg.LLM.Provider == "OPENAI" {
		prov = openai.New(cfg)
	} else {
		prov = noop.New()
	}
	prov = providerobs.Wrap(prov)

	ctrl := continuity.New(states, cacheStore, cfg.Timeframes)
	pipe := pipeline.New(prov, cfg.ProviderTimeout(), pipeline.Thresholds{
		High: cfg.Strategy.HighConfidence,
		Min:  cfg.Strategy.MinConfidence,
	})
	return engine.New(cfg, ctrl, pipe, cacheStore, states)
}

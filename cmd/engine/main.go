package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"math/rand"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"llm-decision-engine/internal/backtest"
	"llm-decision-engine/internal/cache"
	"llm-decision-engine/internal/continuity"
	"llm-decision-engine/internal/decisionlog"
	"llm-decision-engine/internal/engine"
	"llm-decision-engine/internal/engine/engineobs"
	"llm-decision-engine/internal/interfaces"
	"llm-decision-engine/internal/logger"
	"llm-decision-engine/internal/metrics"
	"llm-decision-engine/internal/pipeline"
	"llm-decision-engine/internal/provider/noop"
	"llm-decision-engine/internal/provider/openai"
	"llm-decision-engine/internal/provider/providerobs"
	"llm-decision-engine/internal/store"
	"llm-decision-engine/internal/trace"
	"llm-decision-engine/internal/types"
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

	if v := os.Getenv("DECISION_LOG_RETENTION_DAYS"); v != "" {
		var n int
		fmt.Sscanf(v, "%d", &n)
		_ = decisionlog.CompressOlder(n)
	}

	must(logger.Init())
	must(trace.Init())
	defer trace.Shutdown(context.Background())
	metrics.Register()

	eng, ctrl := buildEngine(cfg)

	if addr := os.Getenv("METRICS_ADDR"); addr != "" {
		go func() {
			mux := http.NewServeMux()
			mux.Handle("/metrics", promhttp.Handler())
			mux.HandleFunc("/status", func(w http.ResponseWriter, r *http.Request) {
				symbol := r.URL.Query().Get("symbol")
				if symbol == "" {
					http.Error(w, "symbol query parameter required", http.StatusBadRequest)
					return
				}
				w.Header().Set("Content-Type", "application/json")
				_ = json.NewEncoder(w).Encode(ctrl.Status(r.Context(), symbol, time.Now().UTC()))
			})
			if err := http.ListenAndServe(addr, mux); err != nil {
				log.Printf("metrics server: %v", err)
			}
		}()
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, syscall.SIGINT, syscall.SIGTERM)

	wrapped := engineobs.Wrap(eng)
	feed := newFeed(cfg)

	tick := time.NewTicker(time.Duration(cfg.PollSeconds) * time.Second)
	defer tick.Stop()

	log.Println("Decision engine started.")
	for {
		select {
		case <-tick.C:
			asOf := time.Now().UTC()
			for _, sym := range cfg.Symbols {
				md, ok := feed.next(sym, asOf)
				if !ok {
					continue
				}
				rec, err := wrapped.Decide(ctx, sym, asOf, md)
				if err != nil {
					log.Printf("[%s] decide error: %v", sym, err)
					continue
				}
				_ = decisionlog.Append(rec)
				b, _ := json.Marshal(rec)
				fmt.Println(string(b))
			}
		case <-sigc:
			log.Println("Shutting down...")
			return
		case <-ctx.Done():
			return
		}
	}
}

func buildEngine(cfg *store.Config) (interfaces.Engine, *continuity.Controller) {
	var (
		cacheStore interfaces.CacheStore
		states     interfaces.StateStore
	)
	if cfg.Cache.Backend == "redis" {
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Cache.Redis.Addr,
			Password: cfg.Cache.Redis.Password,
			DB:       cfg.Cache.Redis.DB,
		})
		cacheStore = cache.NewRedisStore(client, cfg.Cache.Prefix)
		states = continuity.NewRedisStateStore(client, cfg.Cache.Prefix)
	} else {
		cacheStore = cache.NewMemoryStore()
		states = continuity.NewMemoryStateStore()
	}

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
	return engine.New(cfg, ctrl, pipe, cacheStore, states), ctrl
}

// feed supplies MarketData per poll: replayed from a recorded JSON-lines file
// when one is configured, otherwise synthesized as a slow random walk so the
// engine can run without any upstream data service.
type feed struct {
	recorded map[string][]backtest.Tick
	cursor   map[string]int
	prices   map[string]float64
	rng      *rand.Rand
}

func newFeed(cfg *store.Config) *feed {
	f := &feed{
		recorded: map[string][]backtest.Tick{},
		cursor:   map[string]int{},
		prices:   map[string]float64{},
		rng:      rand.New(rand.NewSource(time.Now().UnixNano())),
	}
	if cfg.FeedFile != "" {
		ticks, err := backtest.LoadTicks(cfg.FeedFile)
		must(err)
		for _, t := range ticks {
			f.recorded[t.Symbol] = append(f.recorded[t.Symbol], t)
		}
	}
	return f
}

func (f *feed) next(symbol string, asOf time.Time) (types.MarketData, bool) {
	if ticks, ok := f.recorded[symbol]; ok {
		i := f.cursor[symbol]
		if i >= len(ticks) {
			return types.MarketData{}, false
		}
		f.cursor[symbol] = i + 1
		return ticks[i].Market, true
	}
	return f.synthetic(symbol, asOf), true
}

func (f *feed) synthetic(symbol string, asOf time.Time) types.MarketData {
	price, ok := f.prices[symbol]
	if !ok {
		price = 1000 + f.rng.Float64()*2000
	}
	price *= 1 + (f.rng.Float64()-0.5)*0.004
	f.prices[symbol] = price

	md := types.MarketData{Indicators: map[types.Timeframe]types.IndicatorSet{}}
	md.Price.Price = price
	md.Price.Ts = asOf
	for _, tf := range types.AllTimeframes() {
		md.Indicators[tf] = types.IndicatorSet{
			RSI:  30 + f.rng.Float64()*40,
			VWAP: price * (1 + (f.rng.Float64()-0.5)*0.002),
			SMA:  map[int]float64{20: price * 0.99, 50: price * 0.98},
		}
	}
	return md
}

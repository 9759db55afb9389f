package engineobs

import (
	"context"
	"time"

	"llm-decision-engine/internal/interfaces"
	"llm-decision-engine/internal/logger"
	"llm-decision-engine/internal/trace"
	"llm-decision-engine/internal/types"
)

type observableEngine struct {
	engine interfaces.Engine
}

var _ interfaces.Engine = (*observableEngine)(nil)

func Wrap(eng interfaces.Engine) interfaces.Engine {
	return &observableEngine{
		engine: eng,
	}
}

func (oe *observableEngine) Decide(ctx context.Context, symbol string, asOf time.Time, md types.MarketData) (*types.DecisionRecord, error) {
	ctx, span := trace.StartSpan(ctx, "engine.Decide")
	defer span.End()

	start := time.Now()

	logger.InfoSkip(ctx, 1, "Starting decision request",
		"symbol", symbol,
		"as_of", asOf,
		"price", md.Price.Price,
	)

	rec, err := oe.engine.Decide(ctx, symbol, asOf, md)
	if err != nil {
		logger.ErrorWithErrSkip(ctx, 1, "Decision request failed", err,
			"symbol", symbol,
			"duration_ms", time.Since(start).Milliseconds(),
		)
		return nil, err
	}

	logger.InfoSkip(ctx, 1, "Decision request completed",
		"symbol", symbol,
		"decision", string(rec.Decision),
		"confidence", rec.Confidence,
		"strategy", rec.StrategyUsed,
		"efficiency", string(rec.Efficiency),
		"duration_ms", time.Since(start).Milliseconds(),
	)

	return rec, nil
}

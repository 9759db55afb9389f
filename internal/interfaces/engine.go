package interfaces

import (
	"context"
	"time"

	"llm-decision-engine/internal/types"
)

type Engine interface {
	Decide(ctx context.Context, symbol string, asOf time.Time, md types.MarketData) (*types.DecisionRecord, error)
}

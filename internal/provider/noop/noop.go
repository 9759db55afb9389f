package noop

import (
	"context"

	"llm-decision-engine/internal/logger"
	"llm-decision-engine/internal/types"
)

// Provider is the fallback stage runner used when no LLM backend is
// configured. It answers every stage with neutral/HOLD so the rest of the
// pipeline (caching, continuity, record building) can be exercised without
// network access.
type Provider struct{}

func New() *Provider {
	return &Provider{}
}

func (p *Provider) RunStage(ctx context.Context, kind types.StageKind, in types.StageInput) (types.StageResult, error) {
	logger.Debug(ctx, "Noop provider called - always returns neutral HOLD", "symbol", in.Symbol, "stage", string(kind))
	return types.StageResult{
		Kind:       kind,
		Signal:     types.SignalNeutral,
		Action:     types.ActionHold,
		Confidence: 0.0,
		Reasoning:  "noop_provider_fallback",
	}, nil
}

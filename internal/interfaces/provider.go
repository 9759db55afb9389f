package interfaces

import (
	"context"

	"llm-decision-engine/internal/types"
)

// Provider is the only network-facing dependency of the core. Any LLM-style
// or rule-based backend that can run a pipeline stage satisfies it.
type Provider interface {
	RunStage(ctx context.Context, kind types.StageKind, input types.StageInput) (types.StageResult, error)
}

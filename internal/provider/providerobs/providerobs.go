package providerobs

import (
	"context"

	"llm-decision-engine/internal/interfaces"
	"llm-decision-engine/internal/logger"
	"llm-decision-engine/internal/trace"
	"llm-decision-engine/internal/types"
)

// observableProvider wraps a Provider with observability (logging & tracing)
type observableProvider struct {
	provider interfaces.Provider
}

// Compile-time interface check
var _ interfaces.Provider = (*observableProvider)(nil)

// Wrap wraps a stage provider with observability middleware
func Wrap(provider interfaces.Provider) interfaces.Provider {
	return &observableProvider{
		provider: provider,
	}
}

// RunStage executes one pipeline stage with observability
func (op *observableProvider) RunStage(ctx context.Context, kind types.StageKind, in types.StageInput) (types.StageResult, error) {
	ctx, span := trace.StartSpan(ctx, "provider.RunStage")
	defer span.End()

	// Use DebugSkip(1) to report the actual caller, not this middleware wrapper
	logger.DebugSkip(ctx, 1, "Running inference stage",
		"symbol", in.Symbol,
		"stage", string(kind),
		"refresh", len(in.Refresh),
	)

	result, err := op.provider.RunStage(ctx, kind, in)
	if err != nil {
		// Use ErrorWithErrSkip(1) to report the actual caller
		logger.ErrorWithErrSkip(ctx, 1, "Inference stage failed", err,
			"symbol", in.Symbol,
			"stage", string(kind),
		)
		return types.StageResult{}, err
	}

	// Log stage result - use InfoSkip(1) to report the actual caller
	logger.InfoSkip(ctx, 1, "Inference stage completed",
		"symbol", in.Symbol,
		"stage", string(kind),
		"signal", string(result.Signal),
		"confidence", result.Confidence,
	)

	return result, nil
}

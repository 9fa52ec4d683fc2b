package engineobs

import (
	"context"
	"time"

	"github.com/temaptz/trade-agent/internal/interfaces"
	"github.com/temaptz/trade-agent/internal/logger"
	"github.com/temaptz/trade-agent/internal/trace"
	"github.com/temaptz/trade-agent/internal/types"
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

func (oe *observableEngine) Step(ctx context.Context, pair string) (*types.StepResult, error) {
	ctx, span := trace.StartSpan(ctx, "engine.Step")
	defer span.End()

	start := time.Now()

	logger.InfoSkip(ctx, 1, "Starting trading cycle",
		"pair", pair,
	)

	result, err := oe.engine.Step(ctx, pair)
	if err != nil {
		logger.ErrorWithErrSkip(ctx, 1, "Trading cycle failed", err,
			"pair", pair,
			"duration_ms", time.Since(start).Milliseconds(),
		)
		return nil, err
	}

	logger.InfoSkip(ctx, 1, "Trading cycle completed",
		"pair", pair,
		"direction", result.Decision.Direction,
		"confidence", result.Decision.AggregateConfidence,
		"verdict", result.Outcome.Verdict,
		"reason", result.Reason,
		"duration_ms", time.Since(start).Milliseconds(),
	)

	return result, nil
}

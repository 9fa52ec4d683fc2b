package llmobs

import (
	"context"

	"github.com/temaptz/trade-agent/internal/interfaces"
	"github.com/temaptz/trade-agent/internal/logger"
	"github.com/temaptz/trade-agent/internal/trace"
	"github.com/temaptz/trade-agent/internal/types"
)

// observableJudge wraps a Judge with observability (logging & tracing)
type observableJudge struct {
	judge interfaces.Judge
}

// Compile-time interface check
var _ interfaces.Judge = (*observableJudge)(nil)

// Wrap wraps a judge with observability middleware
func Wrap(judge interfaces.Judge) interfaces.Judge {
	return &observableJudge{
		judge: judge,
	}
}

// Judge obtains a market judgment with observability
func (oj *observableJudge) Judge(ctx context.Context, m types.MarketSnapshot, headlines []string) (types.Signal, error) {
	ctx, span := trace.StartSpan(ctx, "llm.Judge")
	defer span.End()

	// Use DebugSkip(1) to report the actual caller, not this middleware wrapper
	logger.DebugSkip(ctx, 1, "Requesting market judgment",
		"pair", m.Pair,
		"price", m.Price,
		"headlines", len(headlines),
	)

	// Call underlying judge
	sig, err := oj.judge.Judge(ctx, m, headlines)
	if err != nil {
		// Use ErrorWithErrSkip(1) to report the actual caller
		logger.ErrorWithErrSkip(ctx, 1, "Failed to get market judgment", err,
			"pair", m.Pair,
			"price", m.Price,
		)
		return types.Signal{}, err
	}

	// Log judgment result - use InfoSkip(1) to report the actual caller
	logger.InfoSkip(ctx, 1, "Market judgment received",
		"pair", m.Pair,
		"direction", sig.Direction,
		"strength", sig.Strength,
		"confidence", sig.Confidence,
	)

	return sig, nil
}

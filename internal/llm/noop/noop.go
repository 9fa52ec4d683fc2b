package noop

import (
	"context"

	"github.com/temaptz/trade-agent/internal/logger"
	"github.com/temaptz/trade-agent/internal/types"
)

// Judger is the fallback judge used when no LLM provider is configured.
type Judger struct{}

// NewJudger returns a judge that always answers HOLD.
func NewJudger() *Judger {
	return &Judger{}
}

// Judge implements the Judge interface. A zero-confidence HOLD carries
// no weight in signal fusion, so the sentiment source simply goes quiet.
func (j *Judger) Judge(ctx context.Context, m types.MarketSnapshot, _ []string) (types.Signal, error) {
	logger.Debug(ctx, "Noop judge called - always returns HOLD", "pair", m.Pair)
	return types.Signal{
		Source:     types.SourceSentiment,
		Direction:  types.Hold,
		Confidence: 0,
		Evidence:   "no llm provider configured",
	}, nil
}

package interfaces

import (
	"context"

	"github.com/temaptz/trade-agent/internal/types"
)

// Judge is the LLM market judgment: it reads a condensed market
// snapshot plus recent headlines and returns a sentiment signal.
type Judge interface {
	Judge(ctx context.Context, m types.MarketSnapshot, headlines []string) (types.Signal, error)
}

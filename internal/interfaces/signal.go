package interfaces

import (
	"context"

	"github.com/temaptz/trade-agent/internal/types"
)

// SignalSource produces at most one signal per cycle from the shared
// market context. A failing source is skipped for the cycle; its weight
// is redistributed by the decision engine.
type SignalSource interface {
	Source() types.Source
	Signal(ctx context.Context, m types.Market) (types.Signal, error)
}

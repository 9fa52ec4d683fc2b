package interfaces

import (
	"context"

	"github.com/temaptz/trade-agent/internal/types"
)

type Engine interface {
	Step(ctx context.Context, pair string) (*types.StepResult, error)
}

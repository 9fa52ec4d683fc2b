package signalsobs

import (
	"context"

	"github.com/temaptz/trade-agent/internal/interfaces"
	"github.com/temaptz/trade-agent/internal/logger"
	"github.com/temaptz/trade-agent/internal/trace"
	"github.com/temaptz/trade-agent/internal/types"
)

type observableSource struct {
	source interfaces.SignalSource
}

var _ interfaces.SignalSource = (*observableSource)(nil)

func Wrap(source interfaces.SignalSource) interfaces.SignalSource {
	return &observableSource{
		source: source,
	}
}

// WrapAll decorates a whole source slice in order.
func WrapAll(sources []interfaces.SignalSource) []interfaces.SignalSource {
	out := make([]interfaces.SignalSource, len(sources))
	for i, src := range sources {
		out[i] = Wrap(src)
	}
	return out
}

func (osrc *observableSource) Source() types.Source {
	return osrc.source.Source()
}

func (osrc *observableSource) Signal(ctx context.Context, m types.Market) (types.Signal, error) {
	ctx, span := trace.StartSpan(ctx, "signals.Signal")
	defer span.End()

	sig, err := osrc.source.Signal(ctx, m)
	if err != nil {
		logger.ErrorWithErrSkip(ctx, 1, "Signal source failed", err,
			"source", osrc.source.Source(),
			"pair", m.Pair,
		)
		return types.Signal{}, err
	}

	logger.DebugSkip(ctx, 1, "Signal produced",
		"source", sig.Source,
		"pair", m.Pair,
		"direction", sig.Direction,
		"strength", sig.Strength,
		"confidence", sig.Confidence,
	)
	return sig, nil
}

package signals

import (
	"context"
	"errors"
	"math"

	"github.com/temaptz/trade-agent/internal/interfaces"
	"github.com/temaptz/trade-agent/internal/news"
	"github.com/temaptz/trade-agent/internal/types"
)

// DigestProvider supplies coverage digests, normally the news service.
type DigestProvider interface {
	GetDigest(ctx context.Context, pair string) (news.Digest, error)
}

// News adapts coverage digests into a signal source.
type News struct {
	digests DigestProvider
}

var _ interfaces.SignalSource = (*News)(nil)

func NewNews(digests DigestProvider) *News {
	return &News{digests: digests}
}

func (n *News) Source() types.Source {
	return types.SourceNews
}

// Signal maps the digest score onto a direction: clearly positive
// coverage leans BUY, clearly negative leans SELL, the middle band is
// HOLD. No relevant coverage reports an error so the source drops out
// and its weight redistributes.
func (n *News) Signal(ctx context.Context, m types.Market) (types.Signal, error) {
	d, err := n.digests.GetDigest(ctx, m.Pair)
	if err != nil {
		return types.Signal{}, err
	}
	if len(d.Articles) == 0 {
		return types.Signal{}, errors.New("no relevant news coverage")
	}

	dir := types.Hold
	switch {
	case d.Score >= 0.6:
		dir = types.Buy
	case d.Score <= 0.4:
		dir = types.Sell
	}

	return types.Signal{
		Source:     types.SourceNews,
		Direction:  dir,
		Strength:   math.Min(math.Abs(d.Score-0.5)*2, 1),
		Confidence: d.Confidence(),
		Evidence:   d.Summary,
	}, nil
}

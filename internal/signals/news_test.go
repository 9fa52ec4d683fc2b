package signals

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/temaptz/trade-agent/internal/news"
	"github.com/temaptz/trade-agent/internal/types"
)

type fakeDigests struct {
	d   news.Digest
	err error
}

func (f *fakeDigests) GetDigest(ctx context.Context, pair string) (news.Digest, error) {
	return f.d, f.err
}

func coverageDigest(score float64, n int) news.Digest {
	d := news.Digest{Pair: "BTCUSDT", Score: score, Articles: make([]news.Article, n)}
	switch {
	case score > 0.6:
		d.Positive = n
	case score < 0.4:
		d.Negative = n
	default:
		d.Neutral = n
	}
	return d
}

func TestNewsSignalPositiveCoverage(t *testing.T) {
	src := NewNews(&fakeDigests{d: coverageDigest(0.8, 5)})
	assert.Equal(t, types.SourceNews, src.Source())

	sig, err := src.Signal(context.Background(), types.Market{Pair: "BTCUSDT"})
	require.NoError(t, err)

	assert.Equal(t, types.Buy, sig.Direction)
	assert.InDelta(t, 0.6, sig.Strength, 1e-9)
	assert.InDelta(t, 0.7, sig.Confidence, 1e-9)
}

func TestNewsSignalNegativeCoverage(t *testing.T) {
	src := NewNews(&fakeDigests{d: coverageDigest(0.25, 3)})

	sig, err := src.Signal(context.Background(), types.Market{Pair: "BTCUSDT"})
	require.NoError(t, err)

	assert.Equal(t, types.Sell, sig.Direction)
	assert.InDelta(t, 0.5, sig.Strength, 1e-9)
}

func TestNewsSignalNeutralBand(t *testing.T) {
	src := NewNews(&fakeDigests{d: coverageDigest(0.55, 4)})

	sig, err := src.Signal(context.Background(), types.Market{Pair: "BTCUSDT"})
	require.NoError(t, err)

	assert.Equal(t, types.Hold, sig.Direction)
	assert.True(t, math.Abs(sig.Strength-0.1) < 1e-9)
}

func TestNewsSignalBoundaryScores(t *testing.T) {
	buy := NewNews(&fakeDigests{d: coverageDigest(0.6, 3)})
	sig, err := buy.Signal(context.Background(), types.Market{Pair: "BTCUSDT"})
	require.NoError(t, err)
	assert.Equal(t, types.Buy, sig.Direction)

	sell := NewNews(&fakeDigests{d: coverageDigest(0.4, 3)})
	sig, err = sell.Signal(context.Background(), types.Market{Pair: "BTCUSDT"})
	require.NoError(t, err)
	assert.Equal(t, types.Sell, sig.Direction)
}

func TestNewsSignalNoCoverage(t *testing.T) {
	src := NewNews(&fakeDigests{d: news.Digest{Pair: "BTCUSDT", Score: 0.5}})

	_, err := src.Signal(context.Background(), types.Market{Pair: "BTCUSDT"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no relevant news coverage")
}

func TestNewsSignalProviderError(t *testing.T) {
	src := NewNews(&fakeDigests{err: errors.New("scrape blew up")})

	_, err := src.Signal(context.Background(), types.Market{Pair: "BTCUSDT"})
	require.Error(t, err)
}

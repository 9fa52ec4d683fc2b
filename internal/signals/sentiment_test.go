package signals

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/temaptz/trade-agent/internal/types"
)

type fakeJudge struct {
	gotSnap  types.MarketSnapshot
	gotHeads []string
	sig      types.Signal
	err      error
}

func (f *fakeJudge) Judge(ctx context.Context, m types.MarketSnapshot, headlines []string) (types.Signal, error) {
	f.gotSnap = m
	f.gotHeads = headlines
	return f.sig, f.err
}

type fakeHeadlines struct {
	heads []string
}

func (f *fakeHeadlines) GetHeadlines(ctx context.Context, pair string, n int) []string {
	return f.heads
}

func risingMarket() types.Market {
	m := types.Market{
		Pair:  "BTCUSDT",
		Price: 129.5,
		Ticker: types.Ticker{
			Pair:         "BTCUSDT",
			High24h:      130,
			Low24h:       95,
			Volume24h:    1200,
			ChangePct24h: 3.2,
		},
	}
	for i := 0; i < 60; i++ {
		price := 100 + float64(i)*0.5
		m.Candles = append(m.Candles, types.Candle{
			Open: price - 0.2, High: price + 0.5, Low: price - 0.5, Close: price, Vol: 10,
		})
	}
	return m
}

func TestSentimentSignalPassesSnapshotAndHeadlines(t *testing.T) {
	judge := &fakeJudge{sig: types.Signal{
		Source:     types.SourceSentiment,
		Direction:  types.Buy,
		Strength:   0.6,
		Confidence: 0.7,
	}}
	heads := &fakeHeadlines{heads: []string{"ETF inflows hit record"}}

	cfg := testIndicatorConfig()
	cfg.News.MaxArticles = 5

	src := NewSentiment(cfg, judge, heads)
	assert.Equal(t, types.SourceSentiment, src.Source())

	sig, err := src.Signal(context.Background(), risingMarket())
	require.NoError(t, err)
	assert.Equal(t, types.Buy, sig.Direction)

	assert.Equal(t, "BTCUSDT", judge.gotSnap.Pair)
	assert.Equal(t, 129.5, judge.gotSnap.Price)
	assert.Equal(t, 3.2, judge.gotSnap.ChangePct24h)
	assert.Equal(t, []string{"ETF inflows hit record"}, judge.gotHeads)
}

func TestSentimentSignalNilHeadlineProvider(t *testing.T) {
	judge := &fakeJudge{sig: types.Signal{Source: types.SourceSentiment, Direction: types.Hold}}

	src := NewSentiment(testIndicatorConfig(), judge, nil)

	_, err := src.Signal(context.Background(), risingMarket())
	require.NoError(t, err)
	assert.Nil(t, judge.gotHeads)
}

func TestSnapshotFields(t *testing.T) {
	snap := Snapshot(risingMarket(), testIndicatorConfig())

	assert.Equal(t, "BTCUSDT", snap.Pair)
	assert.Equal(t, 129.5, snap.Price)
	assert.Equal(t, 130.0, snap.High24h)
	assert.Equal(t, 95.0, snap.Low24h)
	assert.Equal(t, 1200.0, snap.Volume24h)
	// Steady gains push RSI to its ceiling and stack the averages.
	assert.Equal(t, 100.0, snap.RSI)
	assert.Equal(t, "uptrend", snap.Trend)
}

func TestTrendWord(t *testing.T) {
	up := types.Indicators{SMA: map[int]float64{20: 105, 50: 100}}
	assert.Equal(t, "uptrend", trendWord(110, up))

	down := types.Indicators{SMA: map[int]float64{20: 95, 50: 100}}
	assert.Equal(t, "downtrend", trendWord(90, down))

	chop := types.Indicators{SMA: map[int]float64{20: 105, 50: 100}}
	assert.Equal(t, "sideways", trendWord(102, chop))

	single := types.Indicators{SMA: map[int]float64{20: 100}}
	assert.Equal(t, "uptrend", trendWord(101, single))

	assert.Equal(t, "", trendWord(100, types.Indicators{SMA: map[int]float64{}}))
}

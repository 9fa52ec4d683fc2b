package signals

import (
	"context"
	"math"

	"github.com/temaptz/trade-agent/internal/interfaces"
	"github.com/temaptz/trade-agent/internal/store"
	"github.com/temaptz/trade-agent/internal/types"
)

// HeadlineProvider supplies recent headlines for the judge's context.
type HeadlineProvider interface {
	GetHeadlines(ctx context.Context, pair string, n int) []string
}

// Sentiment adapts the LLM judge into a signal source.
type Sentiment struct {
	cfg       *store.Config
	judge     interfaces.Judge
	headlines HeadlineProvider
}

var _ interfaces.SignalSource = (*Sentiment)(nil)

// NewSentiment wires a judge and an optional headline provider. A nil
// provider just means the judge sees the snapshot alone.
func NewSentiment(cfg *store.Config, judge interfaces.Judge, headlines HeadlineProvider) *Sentiment {
	return &Sentiment{cfg: cfg, judge: judge, headlines: headlines}
}

func (s *Sentiment) Source() types.Source {
	return types.SourceSentiment
}

func (s *Sentiment) Signal(ctx context.Context, m types.Market) (types.Signal, error) {
	snap := Snapshot(m, s.cfg)

	var heads []string
	if s.headlines != nil {
		heads = s.headlines.GetHeadlines(ctx, m.Pair, s.cfg.News.MaxArticles)
	}

	sig, err := s.judge.Judge(ctx, snap, heads)
	if err != nil {
		return types.Signal{}, err
	}
	return sig, nil
}

// Snapshot condenses the market for the judge: spot state, 24h stats,
// RSI, and a one-word trend read.
func Snapshot(m types.Market, cfg *store.Config) types.MarketSnapshot {
	snap := types.MarketSnapshot{
		Pair:         m.Pair,
		Price:        m.Price,
		ChangePct24h: m.Ticker.ChangePct24h,
		High24h:      m.Ticker.High24h,
		Low24h:       m.Ticker.Low24h,
		Volume24h:    m.Ticker.Volume24h,
	}

	inds := computeIndicators(m.Candles, cfg)
	if !math.IsNaN(inds.RSI) {
		snap.RSI = inds.RSI
	}
	snap.Trend = trendWord(m.Price, inds)

	return snap
}

// trendWord reads the moving-average stack: price over a rising ladder
// is an uptrend, under a falling one a downtrend, anything else chop.
func trendWord(price float64, inds types.Indicators) string {
	windows := smaWindows(inds)
	if len(windows) == 0 {
		return ""
	}

	short := inds.SMA[windows[0]]
	if len(windows) == 1 {
		if price > short {
			return "uptrend"
		}
		return "downtrend"
	}

	long := inds.SMA[windows[len(windows)-1]]
	switch {
	case price > short && short > long:
		return "uptrend"
	case price < short && short < long:
		return "downtrend"
	default:
		return "sideways"
	}
}

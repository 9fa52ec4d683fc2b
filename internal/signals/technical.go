package signals

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/temaptz/trade-agent/internal/interfaces"
	"github.com/temaptz/trade-agent/internal/store"
	"github.com/temaptz/trade-agent/internal/types"
)

// voteGroups is the number of indicator families that can cast votes.
const voteGroups = 5

// Technical scores bounded indicator votes over recent candles.
type Technical struct {
	cfg *store.Config
}

var _ interfaces.SignalSource = (*Technical)(nil)

func NewTechnical(cfg *store.Config) *Technical {
	return &Technical{cfg: cfg}
}

func (t *Technical) Source() types.Source {
	return types.SourceTechnical
}

// Signal turns indicator votes into a directional signal. Indicators
// without enough history abstain; the confidence reflects both how many
// families had data and how much the fired votes agree.
func (t *Technical) Signal(ctx context.Context, m types.Market) (types.Signal, error) {
	if len(m.Candles) == 0 {
		return types.Signal{}, errors.New("no candles available")
	}

	inds := computeIndicators(m.Candles, t.cfg)
	tally := voteScore(m.Price, inds)
	if tally.groups == 0 {
		return types.Signal{}, errors.New("insufficient candle history for indicators")
	}

	dir := types.Hold
	switch {
	case tally.score > 0:
		dir = types.Buy
	case tally.score < 0:
		dir = types.Sell
	}

	agreement := 0.0
	if tally.fired > 0 {
		agreement = float64(abs(tally.score)) / float64(tally.fired)
	}

	return types.Signal{
		Source:     types.SourceTechnical,
		Direction:  dir,
		Strength:   math.Min(float64(abs(tally.score))/6.0, 1),
		Confidence: float64(tally.groups) / voteGroups * (0.5 + 0.5*agreement),
		Evidence:   strings.Join(tally.votes, "; "),
	}, nil
}

type voteTally struct {
	score  int      // signed vote sum
	fired  int      // total magnitude of votes that fired
	groups int      // indicator families with usable data
	votes  []string // human-readable fired votes
}

func voteScore(price float64, inds types.Indicators) voteTally {
	var t voteTally

	if !math.IsNaN(inds.RSI) {
		t.groups++
		if inds.RSI < 30 {
			t.score += 2
			t.fired += 2
			t.votes = append(t.votes, "RSI oversold - bullish signal")
		} else if inds.RSI > 70 {
			t.score -= 2
			t.fired += 2
			t.votes = append(t.votes, "RSI overbought - bearish signal")
		}
	}

	if !math.IsNaN(inds.MACD.Line) && !math.IsNaN(inds.MACD.Signal) {
		t.groups++
		t.fired++
		if inds.MACD.Line > inds.MACD.Signal {
			t.score++
			t.votes = append(t.votes, "MACD bullish crossover")
		} else {
			t.score--
			t.votes = append(t.votes, "MACD bearish crossover")
		}
	}

	if pos := bbPosition(price, inds.BB.Lower, inds.BB.Upper); !math.IsNaN(pos) {
		t.groups++
		if pos < 0.2 {
			t.score++
			t.fired++
			t.votes = append(t.votes, "Price near lower Bollinger Band - potential bounce")
		} else if pos > 0.8 {
			t.score--
			t.fired++
			t.votes = append(t.votes, "Price near upper Bollinger Band - potential pullback")
		}
	}

	if windows := smaWindows(inds); len(windows) > 0 {
		w := windows[0]
		t.groups++
		t.fired++
		if price > inds.SMA[w] {
			t.score++
			t.votes = append(t.votes, fmt.Sprintf("Price above %d SMA - bullish", w))
		} else {
			t.score--
			t.votes = append(t.votes, fmt.Sprintf("Price below %d SMA - bearish", w))
		}
	}

	if !math.IsNaN(inds.VolumeRatio) {
		t.groups++
		if inds.VolumeRatio > 1.5 {
			t.score++
			t.fired++
			t.votes = append(t.votes, "High volume - strong momentum")
		} else if inds.VolumeRatio < 0.5 {
			t.score--
			t.fired++
			t.votes = append(t.votes, "Low volume - weak momentum")
		}
	}

	return t
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

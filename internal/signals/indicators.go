// Package signals adapts the three evidence channels (indicator votes,
// LLM judgment, news coverage) to the common SignalSource contract the
// engine fuses each cycle.
package signals

import (
	"math"
	"sort"

	"github.com/temaptz/trade-agent/internal/store"
	"github.com/temaptz/trade-agent/internal/ta"
	"github.com/temaptz/trade-agent/internal/types"
)

func computeIndicators(candles []types.Candle, cfg *store.Config) types.Indicators {
	closes := make([]float64, len(candles))
	highs := make([]float64, len(candles))
	lows := make([]float64, len(candles))
	vols := make([]float64, len(candles))

	for i, c := range candles {
		closes[i] = c.Close
		highs[i] = c.High
		lows[i] = c.Low
		vols[i] = c.Vol
	}

	inds := types.Indicators{SMA: map[int]float64{}}

	for _, window := range cfg.Indicators.SMAWindows {
		inds.SMA[window] = ta.SMA(closes, window)
	}

	inds.RSI = ta.RSI(closes, cfg.Indicators.RSIPeriod)

	middle, upper, lower := ta.Bollinger(closes, cfg.Indicators.BBWindow, cfg.Indicators.BBStdDev)
	inds.BB.Middle = middle
	inds.BB.Upper = upper
	inds.BB.Lower = lower

	line, sig, hist := ta.MACD(closes, cfg.Indicators.MACDFast, cfg.Indicators.MACDSlow, cfg.Indicators.MACDSignal)
	inds.MACD.Line = line
	inds.MACD.Signal = sig
	inds.MACD.Hist = hist

	inds.ATR = ta.ATR(highs, lows, closes, cfg.Indicators.ATRPeriod)
	inds.VolumeRatio = ta.VolumeRatio(vols, cfg.Indicators.VolumeWindow)

	return inds
}

// smaWindows returns the configured SMA windows with usable values,
// shortest first.
func smaWindows(inds types.Indicators) []int {
	windows := make([]int, 0, len(inds.SMA))
	for w, v := range inds.SMA {
		if !math.IsNaN(v) {
			windows = append(windows, w)
		}
	}
	sort.Ints(windows)
	return windows
}

// bbPosition locates price inside the Bollinger channel: 0 at the lower
// band, 1 at the upper.
func bbPosition(price, lower, upper float64) float64 {
	if math.IsNaN(lower) || math.IsNaN(upper) || upper <= lower {
		return math.NaN()
	}
	return (price - lower) / (upper - lower)
}

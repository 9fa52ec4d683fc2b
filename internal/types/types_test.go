package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDirectionSide(t *testing.T) {
	assert.Equal(t, Long, Buy.Side())
	assert.Equal(t, Short, Sell.Side())
	assert.Equal(t, Side(""), Hold.Side())

	assert.True(t, Long.Matches(Buy))
	assert.False(t, Long.Matches(Sell))
	assert.False(t, Long.Matches(Hold))
	assert.True(t, Short.Matches(Sell))

	assert.Equal(t, Sell, Long.Exit())
	assert.Equal(t, Buy, Short.Exit())
}

func TestPositionPnLAt(t *testing.T) {
	long := &Position{Side: Long, Size: 0.1, EntryPrice: 50000}
	assert.InDelta(t, 300, long.PnLAt(53000), 1e-9)
	assert.InDelta(t, -150, long.PnLAt(48500), 1e-9)

	short := &Position{Side: Short, Size: 0.1, EntryPrice: 50000}
	assert.InDelta(t, 300, short.PnLAt(47000), 1e-9)
	assert.InDelta(t, -150, short.PnLAt(51500), 1e-9)

	var missing *Position
	assert.InDelta(t, 0, missing.PnLAt(100), 1e-9)
}

func TestSignalValidate(t *testing.T) {
	ok := Signal{Source: SourceNews, Direction: Buy, Strength: 0.5, Confidence: 0.5}
	assert.NoError(t, ok.Validate())

	bad := ok
	bad.Source = "ASTROLOGY"
	assert.Error(t, bad.Validate())

	bad = ok
	bad.Direction = "SIDEWAYS"
	assert.Error(t, bad.Validate())

	bad = ok
	bad.Strength = 1.01
	assert.Error(t, bad.Validate())

	bad = ok
	bad.Confidence = -0.01
	assert.Error(t, bad.Validate())
}

func TestRiskLimitsValidate(t *testing.T) {
	good := RiskLimits{
		MaxPositionSizeFraction: 0.1,
		MaxRiskPerTradePercent:  0.02,
		StopLossPercent:         0.03,
		TakeProfitPercent:       0.06,
		MaxDailyLossPercent:     0.02,
		MaxTradesPerDay:         10,
		MinOrderSize:            0.0001,
	}
	assert.NoError(t, good.Validate())

	bad := good
	bad.StopLossPercent = 1
	assert.Error(t, bad.Validate())

	bad = good
	bad.MaxTradesPerDay = 0
	assert.Error(t, bad.Validate())

	bad = good
	bad.MinOrderSize = -1
	assert.Error(t, bad.Validate())
}

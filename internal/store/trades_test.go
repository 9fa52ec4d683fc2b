package store

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *TradeStore {
	t.Helper()

	path := filepath.Join(t.TempDir(), "trades.db")
	s, err := NewTradeStore(path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	return s
}

func TestTradeStoreOpenAndClose(t *testing.T) {
	t.Parallel()

	s := newTestStore(t)

	open := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)
	rec := TradeRecord{
		TradeID:         "T1",
		Pair:            "BTCUSDT",
		Side:            "LONG",
		Size:            0.1333,
		EntryPrice:      50000,
		StopLossPrice:   48500,
		TakeProfitPrice: 53000,
		OpenTime:        open,
		Reason:          "entry",
	}
	require.NoError(t, s.RecordOpen(rec))

	got, err := s.OpenTrade()
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "T1", got.TradeID)
	assert.Equal(t, "LONG", got.Side)
	assert.InDelta(t, 0.1333, got.Size, 1e-9)
	assert.Equal(t, StatusOpen, got.Status)
	assert.True(t, got.CloseTime.IsZero())

	closeAt := open.Add(2 * time.Hour)
	require.NoError(t, s.RecordClose("T1", 53000, closeAt, 399.9, "take profit"))

	got, err = s.OpenTrade()
	require.NoError(t, err)
	assert.Nil(t, got)

	trades, err := s.TradesOn(open)
	require.NoError(t, err)
	require.Len(t, trades, 1)
	assert.Equal(t, StatusClosed, trades[0].Status)
	assert.InDelta(t, 399.9, trades[0].RealizedPnL, 1e-9)
	assert.Equal(t, "take profit", trades[0].Reason)
}

func TestTradeStoreCloseMissing(t *testing.T) {
	t.Parallel()

	s := newTestStore(t)
	err := s.RecordClose("nope", 100, time.Now(), 0, "stop loss")
	assert.Error(t, err)
}

func TestTradeStoreStatsOn(t *testing.T) {
	t.Parallel()

	s := newTestStore(t)

	day1 := time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)
	day2 := day1.Add(24 * time.Hour)

	require.NoError(t, s.RecordOpen(TradeRecord{
		TradeID: "A", Pair: "BTCUSDT", Side: "LONG", Size: 0.1,
		EntryPrice: 50000, StopLossPrice: 48500, TakeProfitPrice: 53000,
		OpenTime: day1,
	}))
	require.NoError(t, s.RecordClose("A", 49000, day1.Add(time.Hour), -100, "stop loss"))

	require.NoError(t, s.RecordOpen(TradeRecord{
		TradeID: "B", Pair: "BTCUSDT", Side: "SHORT", Size: 0.2,
		EntryPrice: 49000, StopLossPrice: 50470, TakeProfitPrice: 46060,
		OpenTime: day1.Add(2 * time.Hour),
	}))
	require.NoError(t, s.RecordClose("B", 48000, day2.Add(time.Hour), 200, "take profit"))

	stats, err := s.StatsOn(day1)
	require.NoError(t, err)
	assert.Equal(t, 2, stats.TradeCount)
	assert.InDelta(t, -100, stats.RealizedPnL, 1e-9)

	stats, err = s.StatsOn(day2)
	require.NoError(t, err)
	assert.Equal(t, 0, stats.TradeCount)
	assert.InDelta(t, 200, stats.RealizedPnL, 1e-9)
}

func TestTradeStoreDayBoundsUTC(t *testing.T) {
	t.Parallel()

	// 23:59 UTC and 00:01 UTC the next day land in different buckets
	s := newTestStore(t)

	late := time.Date(2025, 6, 1, 23, 59, 0, 0, time.UTC)
	early := time.Date(2025, 6, 2, 0, 1, 0, 0, time.UTC)

	require.NoError(t, s.RecordOpen(TradeRecord{
		TradeID: "L", Pair: "BTCUSDT", Side: "LONG", Size: 0.1,
		EntryPrice: 50000, StopLossPrice: 48500, TakeProfitPrice: 53000,
		OpenTime: late,
	}))
	require.NoError(t, s.RecordOpen(TradeRecord{
		TradeID: "E", Pair: "BTCUSDT", Side: "LONG", Size: 0.1,
		EntryPrice: 50000, StopLossPrice: 48500, TakeProfitPrice: 53000,
		OpenTime: early,
	}))

	d1, err := s.TradesOn(late)
	require.NoError(t, err)
	d2, err := s.TradesOn(early)
	require.NoError(t, err)

	require.Len(t, d1, 1)
	require.Len(t, d2, 1)
	assert.Equal(t, "L", d1[0].TradeID)
	assert.Equal(t, "E", d2[0].TradeID)
}

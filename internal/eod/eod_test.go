package eod

import (
	"encoding/csv"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/temaptz/trade-agent/internal/store"
	"github.com/temaptz/trade-agent/internal/types"
)

type fakeReader struct {
	trades []store.TradeRecord
	err    error
}

func (f fakeReader) TradesOn(t time.Time) ([]store.TradeRecord, error) {
	return f.trades, f.err
}

type fakeJournal struct {
	day    string
	trades int
	pnl    float64
	path   string
	calls  int
}

func (j *fakeJournal) Decision(pair string, price float64, d types.Decision) {}

func (j *fakeJournal) Outcome(pair string, d types.Decision, o types.Outcome) {}

func (j *fakeJournal) Trade(pair, side string, qty, price float64, orderID, reason string) {}

func (j *fakeJournal) PositionClosed(pair string, pnl float64, reason string) {}

func (j *fakeJournal) Halt(pair, reason string) {}
func (j *fakeJournal) DaySummary(day string, trades int, realizedPnL float64, csvPath string) {
	j.day, j.trades, j.pnl, j.path = day, trades, realizedPnL, csvPath
	j.calls++
}

func (j *fakeJournal) Sync() error { return nil }

func day(s string) time.Time {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return t
}

func TestSummarizeDayWritesCSV(t *testing.T) {
	trades := []store.TradeRecord{
		{TradeID: "a", Pair: "BTCUSDT", Side: "LONG", Size: 0.02, EntryPrice: 50000, ExitPrice: 48000, RealizedPnL: -40, Status: store.StatusClosed},
		{TradeID: "b", Pair: "BTCUSDT", Side: "LONG", Size: 0.01, EntryPrice: 51000, ExitPrice: 53500, RealizedPnL: 25, Status: store.StatusClosed},
		{TradeID: "c", Pair: "BTCUSDT", Side: "SHORT", Size: 0.03, EntryPrice: 52000, Status: store.StatusOpen},
	}
	journal := &fakeJournal{}
	s := New(Params{Trades: fakeReader{trades: trades}, Journal: journal, Dir: t.TempDir()})

	path, err := s.SummarizeDay(day("2026-08-22"))
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(s.dir, "eod", "2026-08-22.csv"), path)

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	rows, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 3)

	assert.Equal(t, []string{"pair", "trades", "long_qty", "long_avg_entry", "short_qty", "short_avg_entry", "realized_pnl", "gross_long_value", "gross_short_value"}, rows[0])
	assert.Equal(t, []string{"BTCUSDT", "3", "0.030000", "50333.3333", "0.030000", "52000.0000", "-15.00", "1510.00", "1560.00"}, rows[1])
	assert.Equal(t, []string{"TOTAL", "3", "", "", "", "", "-15.00", "1510.00", "1560.00"}, rows[2])

	assert.Equal(t, 1, journal.calls)
	assert.Equal(t, "2026-08-22", journal.day)
	assert.Equal(t, 3, journal.trades)
	assert.InDelta(t, -15.0, journal.pnl, 1e-9)
	assert.Equal(t, path, journal.path)
}

func TestSummarizeDayPairsSorted(t *testing.T) {
	trades := []store.TradeRecord{
		{TradeID: "a", Pair: "ETHUSDT", Side: "LONG", Size: 0.5, EntryPrice: 3000, Status: store.StatusOpen},
		{TradeID: "b", Pair: "BTCUSDT", Side: "LONG", Size: 0.01, EntryPrice: 50000, Status: store.StatusOpen},
	}
	s := New(Params{Trades: fakeReader{trades: trades}, Dir: t.TempDir()})

	path, err := s.SummarizeDay(day("2026-08-22"))
	require.NoError(t, err)

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	rows, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 4)
	assert.Equal(t, "BTCUSDT", rows[1][0])
	assert.Equal(t, "ETHUSDT", rows[2][0])
}

func TestSummarizeDayNoTrades(t *testing.T) {
	journal := &fakeJournal{}
	dir := t.TempDir()
	s := New(Params{Trades: fakeReader{}, Journal: journal, Dir: dir})

	path, err := s.SummarizeDay(day("2026-08-22"))
	require.NoError(t, err)
	assert.Empty(t, path)
	assert.Equal(t, 0, journal.calls)

	_, err = os.Stat(filepath.Join(dir, "eod", "2026-08-22.csv"))
	assert.True(t, errors.Is(err, os.ErrNotExist))
}

func TestSummarizeDayStoreError(t *testing.T) {
	s := New(Params{Trades: fakeReader{err: errors.New("db locked")}, Dir: t.TempDir()})

	_, err := s.SummarizeDay(day("2026-08-22"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "db locked")
}

func TestShouldRunNowTargetsYesterday(t *testing.T) {
	dir := t.TempDir()
	s := New(Params{Trades: fakeReader{}, Dir: dir})
	s.now = func() time.Time { return day("2026-08-23").Add(2 * time.Hour) }

	run, path := s.ShouldRunNow()
	assert.True(t, run)
	assert.Equal(t, filepath.Join(dir, "eod", "2026-08-22.csv"), path)

	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte("pair\n"), 0o644))

	run, again := s.ShouldRunNow()
	assert.False(t, run)
	assert.Equal(t, path, again)
}

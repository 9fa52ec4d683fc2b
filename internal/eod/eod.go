// Package eod writes the end-of-day CSV report. Days are UTC; the
// report aggregates the trades opened that day from the trade store,
// one row per pair plus a TOTAL row, and journals a day_summary event
// once the file is on disk.
package eod

import (
	"encoding/csv"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	"github.com/temaptz/trade-agent/internal/interfaces"
	"github.com/temaptz/trade-agent/internal/store"
	"github.com/temaptz/trade-agent/internal/types"
)

// TradeReader is the store surface the summarizer reads through.
// *store.TradeStore satisfies it.
type TradeReader interface {
	TradesOn(t time.Time) ([]store.TradeRecord, error)
}

type pairAgg struct {
	Pair        string
	Trades      int
	LongQty     float64
	LongValue   float64
	ShortQty    float64
	ShortValue  float64
	RealizedPnL float64
}

type Summarizer struct {
	trades  TradeReader
	journal interfaces.Journal
	dir     string
	now     func() time.Time
}

var _ interfaces.EodSummarizer = (*Summarizer)(nil)

type Params struct {
	Trades  TradeReader
	Journal interfaces.Journal
	Dir     string // report root, defaults to "logs"
}

func New(p Params) *Summarizer {
	if p.Dir == "" {
		p.Dir = "logs"
	}
	return &Summarizer{trades: p.Trades, journal: p.Journal, dir: p.Dir, now: time.Now}
}

// SummarizeDay writes the CSV for the UTC day containing t. Returns
// ("", nil) when the day has no trades; nothing is written then.
func (s *Summarizer) SummarizeDay(t time.Time) (string, error) {
	day := t.UTC()
	trades, err := s.trades.TradesOn(day)
	if err != nil {
		return "", err
	}
	if len(trades) == 0 {
		return "", nil
	}

	aggs := map[string]*pairAgg{}
	for _, tr := range trades {
		row := aggs[tr.Pair]
		if row == nil {
			row = &pairAgg{Pair: tr.Pair}
			aggs[tr.Pair] = row
		}
		row.Trades++
		switch types.Side(tr.Side) {
		case types.Long:
			row.LongQty += tr.Size
			row.LongValue += tr.Size * tr.EntryPrice
		case types.Short:
			row.ShortQty += tr.Size
			row.ShortValue += tr.Size * tr.EntryPrice
		}
		if tr.Status == store.StatusClosed {
			row.RealizedPnL += tr.RealizedPnL
		}
	}

	keys := make([]string, 0, len(aggs))
	for k := range aggs {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	outPath := s.csvPath(day)
	if err := os.MkdirAll(filepath.Dir(outPath), 0o755); err != nil {
		return "", err
	}
	out, err := os.Create(outPath)
	if err != nil {
		return "", err
	}
	defer out.Close()

	w := csv.NewWriter(out)
	defer w.Flush()
	headers := []string{"pair", "trades", "long_qty", "long_avg_entry", "short_qty", "short_avg_entry", "realized_pnl", "gross_long_value", "gross_short_value"}
	if err := w.Write(headers); err != nil {
		return "", err
	}

	var totalLong, totalShort, totalPnL float64
	for _, k := range keys {
		r := aggs[k]
		var longAvg, shortAvg float64
		if r.LongQty > 0 {
			longAvg = r.LongValue / r.LongQty
		}
		if r.ShortQty > 0 {
			shortAvg = r.ShortValue / r.ShortQty
		}
		rec := []string{
			r.Pair,
			strconv.Itoa(r.Trades),
			fmt.Sprintf("%.6f", r.LongQty),
			fmt.Sprintf("%.4f", longAvg),
			fmt.Sprintf("%.6f", r.ShortQty),
			fmt.Sprintf("%.4f", shortAvg),
			fmt.Sprintf("%.2f", r.RealizedPnL),
			fmt.Sprintf("%.2f", r.LongValue),
			fmt.Sprintf("%.2f", r.ShortValue),
		}
		if err := w.Write(rec); err != nil {
			return "", err
		}
		totalLong += r.LongValue
		totalShort += r.ShortValue
		totalPnL += r.RealizedPnL
	}
	if err := w.Write([]string{"TOTAL", strconv.Itoa(len(trades)), "", "", "", "", fmt.Sprintf("%.2f", totalPnL), fmt.Sprintf("%.2f", totalLong), fmt.Sprintf("%.2f", totalShort)}); err != nil {
		return "", err
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return "", err
	}

	if s.journal != nil {
		s.journal.DaySummary(day.Format("2006-01-02"), len(trades), totalPnL, outPath)
	}
	return outPath, nil
}

// SummarizeToday reports the current UTC day, normally on shutdown
// while the day is still partial.
func (s *Summarizer) SummarizeToday() (string, error) {
	return s.SummarizeDay(s.now())
}

// ShouldRunNow reports whether the previous UTC day still needs its
// report. The previous day is always complete, so the only check is
// whether the file exists.
func (s *Summarizer) ShouldRunNow() (bool, string) {
	yesterday := s.now().UTC().AddDate(0, 0, -1)
	outPath := s.csvPath(yesterday)
	if _, err := os.Stat(outPath); errors.Is(err, os.ErrNotExist) {
		return true, outPath
	}
	return false, outPath
}

func (s *Summarizer) csvPath(t time.Time) string {
	return filepath.Join(s.dir, "eod", t.UTC().Format("2006-01-02")+".csv")
}

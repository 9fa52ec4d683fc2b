package account

import (
	"sync"
	"time"

	"github.com/temaptz/trade-agent/internal/store"
	"github.com/temaptz/trade-agent/internal/types"
)

// Tracker owns the AccountState between cycles. The trading loop is the
// single writer; the operator API reads snapshots concurrently, so all
// access goes through the tracker lock. Day rollover (UTC) resets the
// daily counters and the halt latch before any read or update.
type Tracker struct {
	mu    sync.Mutex
	state types.AccountState
	base  float64
	now   func() time.Time
}

func NewTracker(startingBalance float64) *Tracker {
	t := &Tracker{base: startingBalance, now: time.Now}
	t.state = types.AccountState{
		Equity:           startingBalance,
		AvailableBalance: startingBalance,
		DayStart:         midnightUTC(t.now()),
	}
	return t
}

// WarmStart rebuilds equity, today's counters and any open position
// from the trade store, so a restart does not forget the loss budget
// already consumed or the position already held.
func (t *Tracker) WarmStart(s *store.TradeStore) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	total, err := s.TotalRealizedPnL()
	if err != nil {
		return err
	}
	t.state.Equity = t.base + total
	t.state.AvailableBalance = t.state.Equity

	now := t.now()
	stats, err := s.StatsOn(now)
	if err != nil {
		return err
	}
	t.state.DailyRealizedPnL = stats.RealizedPnL
	t.state.TradeCountToday = stats.TradeCount
	t.state.DayStart = midnightUTC(now)

	open, err := s.OpenTrade()
	if err != nil {
		return err
	}
	if open != nil {
		pos := types.Position{
			TradeID:         open.TradeID,
			Side:            types.Side(open.Side),
			Size:            open.Size,
			EntryPrice:      open.EntryPrice,
			StopLossPrice:   open.StopLossPrice,
			TakeProfitPrice: open.TakeProfitPrice,
			OpenedAt:        open.OpenTime,
		}
		t.state.OpenPosition = &pos
		t.state.AvailableBalance = t.state.Equity - pos.Size*pos.EntryPrice
	}
	return nil
}

// Snapshot returns a copy of the current state after applying any
// pending day rollover.
func (t *Tracker) Snapshot() types.AccountState {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.rolloverLocked()
	return t.copyLocked()
}

// Update runs fn against the live state under the tracker lock. Risk
// evaluation and its side effects (trade count, halt latch) happen
// inside fn so they are atomic relative to concurrent snapshots.
func (t *Tracker) Update(fn func(*types.AccountState)) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.rolloverLocked()
	fn(&t.state)
}

// RecordOpen installs the filled position and reserves its notional
func (t *Tracker) RecordOpen(pos types.Position) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.state.OpenPosition = &pos
	t.state.AvailableBalance = t.state.Equity - pos.Size*pos.EntryPrice
}

// RecordClose realizes the open position at exitPrice and returns the
// realized pnl. Returns 0 when the book is already flat.
func (t *Tracker) RecordClose(exitPrice float64) float64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.rolloverLocked()

	pos := t.state.OpenPosition
	if pos == nil {
		return 0
	}
	pnl := pos.PnLAt(exitPrice)
	t.state.Equity += pnl
	t.state.DailyRealizedPnL += pnl
	t.state.OpenPosition = nil
	t.state.AvailableBalance = t.state.Equity
	return pnl
}

// SyncBalance overwrites equity and available balance with values read
// from the exchange, for live mode where fills and fees settle there.
func (t *Tracker) SyncBalance(equity, available float64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.state.Equity = equity
	t.state.AvailableBalance = available
}

func (t *Tracker) rolloverLocked() {
	day := midnightUTC(t.now())
	if day.After(t.state.DayStart) {
		t.state.DayStart = day
		t.state.DailyRealizedPnL = 0
		t.state.TradeCountToday = 0
		t.state.HaltedToday = false
	}
}

func (t *Tracker) copyLocked() types.AccountState {
	st := t.state
	if st.OpenPosition != nil {
		p := *st.OpenPosition
		st.OpenPosition = &p
	}
	return st
}

func midnightUTC(t time.Time) time.Time {
	u := t.UTC()
	return time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
}

package risk

import (
	"errors"
	"fmt"
	"sync/atomic"

	"github.com/temaptz/trade-agent/internal/types"
)

// Rejection and halt reasons. These are values the caller logs and acts
// on, never errors.
const (
	ReasonRateLimit     = "rate limit"
	ReasonNoSignal      = "no actionable signal"
	ReasonAlreadyOpen   = "position already open"
	ReasonBelowMinimum  = "size below minimum"
	ReasonDailyLoss     = "daily loss limit"
	ReasonEmergencyStop = "emergency stop"
)

// Manager enforces the configured risk limits on every decision. It
// carries no cross-cycle state of its own beyond the operator-owned
// emergency stop flag; the daily counters live in the caller-owned
// AccountState and the caller serializes access to them.
type Manager struct {
	limits        types.RiskLimits
	emergencyStop atomic.Bool
}

func New(limits types.RiskLimits) (*Manager, error) {
	if err := limits.Validate(); err != nil {
		return nil, err
	}
	return &Manager{limits: limits}, nil
}

func (m *Manager) Limits() types.RiskLimits {
	return m.limits
}

// EmergencyStop blocks all new entries until ClearEmergencyStop. Set by
// the operator interface; the evaluation path only reads it.
func (m *Manager) EmergencyStop()         { m.emergencyStop.Store(true) }
func (m *Manager) ClearEmergencyStop()    { m.emergencyStop.Store(false) }
func (m *Manager) EmergencyStopped() bool { return m.emergencyStop.Load() }

// Evaluate runs the per-cycle risk checks against a fused decision and
// returns the verdict. Checks run in a fixed order: halt, rate limit,
// direction conflicts, sizing, protective levels. Business outcomes
// (halt, rejection) are returned as values; an error means the input
// itself was malformed and the cycle must be aborted.
//
// Side effects on account: TradeCountToday increments on approval, and
// HaltedToday latches when the daily loss limit trips. A latched halt
// survives any later pnl recovery and clears only at day rollover,
// which the account tracker performs.
func (m *Manager) Evaluate(dec types.Decision, account *types.AccountState, entryPrice float64) (types.Outcome, error) {
	if account == nil {
		return types.Outcome{}, errors.New("account state is nil")
	}
	if entryPrice <= 0 {
		return types.Outcome{}, fmt.Errorf("entry_price must be > 0, got %v", entryPrice)
	}
	if account.Equity < 0 {
		return types.Outcome{}, fmt.Errorf("equity must be >= 0, got %v", account.Equity)
	}
	if !dec.Direction.Valid() {
		return types.Outcome{}, fmt.Errorf("decision direction %q is not BUY/SELL/HOLD", dec.Direction)
	}

	hasPosition := account.OpenPosition != nil

	if m.EmergencyStopped() {
		return types.Outcome{
			Verdict:       types.VerdictHalted,
			Reason:        ReasonEmergencyStop,
			CloseExisting: hasPosition,
		}, nil
	}

	lossLimit := m.limits.MaxDailyLossPercent * account.Equity
	if account.HaltedToday || account.DailyRealizedPnL <= -lossLimit {
		account.HaltedToday = true
		return types.Outcome{
			Verdict:       types.VerdictHalted,
			Reason:        ReasonDailyLoss,
			CloseExisting: hasPosition,
		}, nil
	}

	if account.TradeCountToday >= m.limits.MaxTradesPerDay {
		return types.Outcome{Verdict: types.VerdictRejected, Reason: ReasonRateLimit}, nil
	}

	if dec.Direction == types.Hold {
		return types.Outcome{Verdict: types.VerdictRejected, Reason: ReasonNoSignal}, nil
	}

	closeExisting := false
	if hasPosition {
		if account.OpenPosition.Side.Matches(dec.Direction) {
			return types.Outcome{Verdict: types.VerdictRejected, Reason: ReasonAlreadyOpen}, nil
		}
		// Opposite direction: close-and-reverse. Closing is always
		// permitted; the new entry is sized like any other.
		closeExisting = true
	}

	size := m.positionSize(account.Equity, entryPrice)
	if size < m.limits.MinOrderSize || size <= 0 {
		return types.Outcome{Verdict: types.VerdictRejected, Reason: ReasonBelowMinimum}, nil
	}

	stopLoss, takeProfit := m.protectiveLevels(dec.Direction, entryPrice)

	account.TradeCountToday++
	return types.Outcome{
		Verdict:         types.VerdictApproved,
		Size:            size,
		StopLossPrice:   stopLoss,
		TakeProfitPrice: takeProfit,
		CloseExisting:   closeExisting,
	}, nil
}

// positionSize sizes the entry so a stop-loss hit loses exactly the
// per-trade risk budget, clamped to the max exposure fraction.
func (m *Manager) positionSize(equity, entryPrice float64) float64 {
	riskBudget := m.limits.MaxRiskPerTradePercent * equity
	size := riskBudget / (entryPrice * m.limits.StopLossPercent)

	maxSize := m.limits.MaxPositionSizeFraction * equity / entryPrice
	if size > maxSize {
		size = maxSize
	}
	return size
}

func (m *Manager) protectiveLevels(dir types.Direction, entryPrice float64) (stopLoss, takeProfit float64) {
	if dir == types.Buy {
		return entryPrice * (1 - m.limits.StopLossPercent),
			entryPrice * (1 + m.limits.TakeProfitPercent)
	}
	return entryPrice * (1 + m.limits.StopLossPercent),
		entryPrice * (1 - m.limits.TakeProfitPercent)
}

// StopBreached reports whether price has crossed the position's stop
// loss level.
func StopBreached(p *types.Position, price float64) bool {
	if p == nil {
		return false
	}
	if p.Side == types.Long {
		return price <= p.StopLossPrice
	}
	return price >= p.StopLossPrice
}

// TakeProfitReached reports whether price has crossed the position's
// take profit level.
func TakeProfitReached(p *types.Position, price float64) bool {
	if p == nil {
		return false
	}
	if p.Side == types.Long {
		return price >= p.TakeProfitPrice
	}
	return price <= p.TakeProfitPrice
}

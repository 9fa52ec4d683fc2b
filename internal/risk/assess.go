package risk

import "github.com/temaptz/trade-agent/internal/types"

// Risk levels reported by Assess
const (
	LevelLow    = "LOW"
	LevelMedium = "MEDIUM"
	LevelHigh   = "HIGH"
)

// Assessment is a read-only summary of the account's risk posture,
// served to operators. It never influences Evaluate.
type Assessment struct {
	Level           string          `json:"risk_level"`
	DailyRealized   float64         `json:"daily_realized_pnl"`
	LossBudgetUsed  float64         `json:"loss_budget_used"`
	TradesToday     int             `json:"trades_today"`
	TradesRemaining int             `json:"trades_remaining"`
	Halted          bool            `json:"halted"`
	EmergencyStop   bool            `json:"emergency_stop"`
	Checks          map[string]bool `json:"checks"`
	Recommendations []string        `json:"recommendations"`
}

// Assess grades the current account state against the limits. Level is
// HIGH when trading is blocked, MEDIUM when any soft check fails, LOW
// otherwise.
func (m *Manager) Assess(account *types.AccountState) Assessment {
	a := Assessment{
		Level:         LevelLow,
		EmergencyStop: m.EmergencyStopped(),
		Checks:        make(map[string]bool),
	}
	if account == nil {
		a.Level = LevelHigh
		a.Recommendations = append(a.Recommendations, "No account state available - check the account tracker")
		return a
	}

	a.DailyRealized = account.DailyRealizedPnL
	a.TradesToday = account.TradeCountToday
	a.TradesRemaining = m.limits.MaxTradesPerDay - account.TradeCountToday
	if a.TradesRemaining < 0 {
		a.TradesRemaining = 0
	}

	lossBudget := m.limits.MaxDailyLossPercent * account.Equity
	if lossBudget > 0 && account.DailyRealizedPnL < 0 {
		a.LossBudgetUsed = -account.DailyRealizedPnL / lossBudget
	}
	a.Halted = account.HaltedToday || (lossBudget > 0 && account.DailyRealizedPnL <= -lossBudget)

	a.Checks["daily_loss_ok"] = !a.Halted && a.LossBudgetUsed < 0.5
	a.Checks["daily_trades_ok"] = a.TradesRemaining > 2
	a.Checks["emergency_stop_clear"] = !a.EmergencyStop
	a.Checks["position_exposure_ok"] = account.OpenPosition == nil ||
		account.OpenPosition.Size*account.OpenPosition.EntryPrice <= m.limits.MaxPositionSizeFraction*account.Equity*1.01

	failed := 0
	for _, ok := range a.Checks {
		if !ok {
			failed++
		}
	}
	switch {
	case a.Halted || a.EmergencyStop || failed >= 3:
		a.Level = LevelHigh
	case failed >= 1:
		a.Level = LevelMedium
	}

	if a.Halted {
		a.Recommendations = append(a.Recommendations, "Daily loss limit exceeded - trading halted until day rollover, close-only")
	} else if a.LossBudgetUsed >= 0.5 {
		a.Recommendations = append(a.Recommendations, "Approaching daily loss limit - reduce position size")
	}
	if a.TradesRemaining == 0 {
		a.Recommendations = append(a.Recommendations, "Daily trade limit reached - wait for next day")
	} else if a.TradesRemaining <= 2 {
		a.Recommendations = append(a.Recommendations, "Daily trade budget nearly exhausted")
	}
	if a.EmergencyStop {
		a.Recommendations = append(a.Recommendations, "Emergency stop engaged - operator action required to resume")
	}
	if !a.Checks["position_exposure_ok"] {
		a.Recommendations = append(a.Recommendations, "Open position exceeds exposure limit - reduce size")
	}

	switch a.Level {
	case LevelHigh:
		a.Recommendations = append(a.Recommendations, "HIGH RISK - no new entries")
	case LevelMedium:
		a.Recommendations = append(a.Recommendations, "MEDIUM RISK - trade with caution")
	default:
		a.Recommendations = append(a.Recommendations, "LOW RISK - normal trading conditions")
	}

	return a
}

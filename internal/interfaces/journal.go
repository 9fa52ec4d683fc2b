package interfaces

import "github.com/temaptz/trade-agent/internal/types"

// Journal is the append-only audit sink for cycle events
type Journal interface {
	Decision(pair string, price float64, d types.Decision)
	Outcome(pair string, d types.Decision, o types.Outcome)
	Trade(pair, side string, qty, price float64, orderID, reason string)
	PositionClosed(pair string, pnl float64, reason string)
	Halt(pair, reason string)
	DaySummary(day string, trades int, realizedPnL float64, csvPath string)
	Sync() error
}

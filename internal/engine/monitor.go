package engine

import (
	"context"
	"fmt"

	"github.com/temaptz/trade-agent/internal/logger"
	"github.com/temaptz/trade-agent/internal/risk"
	"github.com/temaptz/trade-agent/internal/types"
)

const (
	reasonStopLoss   = "STOP_LOSS"
	reasonTakeProfit = "TAKE_PROFIT"
)

// monitorPosition checks the open position against its protective
// levels at the current price. A breach closes the position and ends
// the cycle; (nil, nil) means no position or no breach and the cycle
// continues into signal collection.
func (e *Engine) monitorPosition(ctx context.Context, m types.Market) (*types.StepResult, error) {
	st := e.tracker.Snapshot()
	pos := st.OpenPosition
	if pos == nil {
		return nil, nil
	}

	var reason string
	switch {
	case risk.StopBreached(pos, m.Price):
		reason = reasonStopLoss
		logger.Risk(ctx, m.Pair, "STOP_LOSS_TRIGGERED",
			"side", pos.Side, "entry_price", pos.EntryPrice, "stop_price", pos.StopLossPrice, "price", m.Price)
	case risk.TakeProfitReached(pos, m.Price):
		reason = reasonTakeProfit
		logger.Risk(ctx, m.Pair, "TAKE_PROFIT_REACHED",
			"side", pos.Side, "entry_price", pos.EntryPrice, "target_price", pos.TakeProfitPrice, "price", m.Price)
	default:
		logger.Debug(ctx, "Position within protective levels",
			"pair", m.Pair, "side", pos.Side, "price", m.Price,
			"stop_price", pos.StopLossPrice, "target_price", pos.TakeProfitPrice)
		return nil, nil
	}

	ord, err := e.closePosition(ctx, m, pos, reason)
	if err != nil {
		return nil, fmt.Errorf("close position: %w", err)
	}
	return &types.StepResult{
		Pair:   m.Pair,
		Price:  m.Price,
		Time:   e.now().Unix(),
		Orders: []types.OrderResp{ord},
		Reason: reason,
	}, nil
}

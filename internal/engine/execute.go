package engine

import (
	"context"

	"github.com/temaptz/trade-agent/internal/id"
	"github.com/temaptz/trade-agent/internal/logger"
	"github.com/temaptz/trade-agent/internal/store"
	"github.com/temaptz/trade-agent/internal/types"
)

const (
	reasonHaltClose = "HALT_CLOSE"
	reasonReverse   = "REVERSE"
)

// actOnHalt records the halt and, when the risk gate asks for it,
// de-risks by closing the open position. A failed de-risk close is
// logged but does not fail the cycle; the next cycle retries.
func (e *Engine) actOnHalt(ctx context.Context, m types.Market, out types.Outcome, res *types.StepResult) {
	logger.Risk(ctx, m.Pair, "TRADING_HALTED", "reason", out.Reason)
	e.journal.Halt(m.Pair, out.Reason)
	res.Reason = out.Reason

	if !out.CloseExisting {
		return
	}
	pos := e.tracker.Snapshot().OpenPosition
	if pos == nil {
		return
	}
	ord, err := e.closePosition(ctx, m, pos, reasonHaltClose)
	if err != nil {
		logger.Error(ctx, "De-risk close failed while halted", "pair", m.Pair, "error", err)
		return
	}
	res.Orders = append(res.Orders, ord)
}

// actOnApproval closes an opposing position when the outcome demands a
// reversal, then places the entry and records it with the tracker, the
// journal and the trade store. Order failures are reported through
// StepResult.Reason rather than as step errors so the loop keeps
// cycling.
func (e *Engine) actOnApproval(ctx context.Context, m types.Market, dec types.Decision, out types.Outcome, res *types.StepResult) {
	if out.CloseExisting {
		pos := e.tracker.Snapshot().OpenPosition
		if pos != nil {
			ord, err := e.closePosition(ctx, m, pos, reasonReverse)
			if err != nil {
				// Never open the new side while the old one may still
				// be live on the exchange.
				logger.Error(ctx, "Reversal close failed - skipping entry", "pair", m.Pair, "error", err)
				res.Reason = "reversal close failed: " + err.Error()
				return
			}
			res.Orders = append(res.Orders, ord)
		}
	}

	tradeID := id.New()
	ord, err := e.brk.PlaceOrder(ctx, types.OrderReq{
		Pair: m.Pair,
		Side: dec.Direction,
		Qty:  out.Size,
		Tag:  tradeID,
	})
	if err != nil {
		logger.Error(ctx, "Entry order failed", "pair", m.Pair, "direction", dec.Direction, "qty", out.Size, "error", err)
		res.Reason = "entry order failed: " + err.Error()
		return
	}
	res.Orders = append(res.Orders, ord)

	openedAt := e.now().UTC()
	pos := types.Position{
		TradeID:         tradeID,
		Side:            dec.Direction.Side(),
		Size:            out.Size,
		EntryPrice:      m.Price,
		StopLossPrice:   out.StopLossPrice,
		TakeProfitPrice: out.TakeProfitPrice,
		OpenedAt:        openedAt,
	}
	e.tracker.RecordOpen(pos)

	reason := decisionReason(dec)
	logger.Trade(ctx, m.Pair, string(dec.Direction), out.Size, m.Price, ord.OrderID,
		"trade_id", tradeID, "stop_price", out.StopLossPrice, "target_price", out.TakeProfitPrice)
	e.journal.Trade(m.Pair, string(dec.Direction), out.Size, m.Price, ord.OrderID, "ENTRY")

	if err := e.trades.RecordOpen(store.TradeRecord{
		TradeID:         tradeID,
		Pair:            m.Pair,
		Side:            string(pos.Side),
		Size:            out.Size,
		EntryPrice:      m.Price,
		StopLossPrice:   out.StopLossPrice,
		TakeProfitPrice: out.TakeProfitPrice,
		OpenTime:        openedAt,
		Reason:          reason,
	}); err != nil {
		logger.Error(ctx, "Failed to record open in trade store", "trade_id", tradeID, "error", err)
	}
}

// closePosition places the exit order, settles the position with the
// tracker and records the close everywhere. The broker fill is the
// only hard failure; audit-store errors are logged and swallowed.
func (e *Engine) closePosition(ctx context.Context, m types.Market, pos *types.Position, reason string) (types.OrderResp, error) {
	exit := pos.Side.Exit()
	ord, err := e.brk.PlaceOrder(ctx, types.OrderReq{
		Pair: m.Pair,
		Side: exit,
		Qty:  pos.Size,
		Tag:  closeTag(pos.TradeID),
	})
	if err != nil {
		return types.OrderResp{}, err
	}

	pnl := e.tracker.RecordClose(m.Price)

	logger.Trade(ctx, m.Pair, string(exit), pos.Size, m.Price, ord.OrderID,
		"trade_id", pos.TradeID, "realized_pnl", pnl, "reason", reason)
	e.journal.Trade(m.Pair, string(exit), pos.Size, m.Price, ord.OrderID, reason)
	e.journal.PositionClosed(m.Pair, pnl, reason)

	if pos.TradeID != "" {
		if err := e.trades.RecordClose(pos.TradeID, m.Price, e.now().UTC(), pnl, reason); err != nil {
			logger.Error(ctx, "Failed to record close in trade store", "trade_id", pos.TradeID, "error", err)
		}
	}
	return ord, nil
}

// closeTag derives the exit order tag from the trade id so live
// exchanges see a distinct client order id per order.
func closeTag(tradeID string) string {
	if tradeID == "" {
		return ""
	}
	return tradeID + "-close"
}

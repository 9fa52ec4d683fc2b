// Package engine runs the trading cycle: fetch the market context once,
// monitor the open position against its protective levels, collect
// signals, fuse them into a decision, pass it through the risk gate and
// act on the verdict. All account mutation happens through the tracker;
// the engine itself keeps no cross-cycle state.
package engine

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/temaptz/trade-agent/internal/account"
	"github.com/temaptz/trade-agent/internal/decision"
	"github.com/temaptz/trade-agent/internal/interfaces"
	"github.com/temaptz/trade-agent/internal/logger"
	"github.com/temaptz/trade-agent/internal/risk"
	"github.com/temaptz/trade-agent/internal/store"
	"github.com/temaptz/trade-agent/internal/types"
)

// TradeRecorder is the audit-store surface the engine writes through.
// *store.TradeStore satisfies it.
type TradeRecorder interface {
	RecordOpen(t store.TradeRecord) error
	RecordClose(tradeID string, exitPrice float64, closeTime time.Time, realizedPnL float64, reason string) error
}

type Params struct {
	Cfg     *store.Config
	Broker  interfaces.Broker
	Sources []interfaces.SignalSource
	Decider *decision.Decider
	Risk    *risk.Manager
	Tracker *account.Tracker
	Trades  TradeRecorder
	Journal interfaces.Journal
}

type Engine struct {
	cfg     *store.Config
	brk     interfaces.Broker
	sources []interfaces.SignalSource
	decider *decision.Decider
	risk    *risk.Manager
	tracker *account.Tracker
	trades  TradeRecorder
	journal interfaces.Journal
	now     func() time.Time
}

var _ interfaces.Engine = (*Engine)(nil)

func New(p Params) *Engine {
	return &Engine{
		cfg:     p.Cfg,
		brk:     p.Broker,
		sources: p.Sources,
		decider: p.Decider,
		risk:    p.Risk,
		tracker: p.Tracker,
		trades:  p.Trades,
		journal: p.Journal,
		now:     time.Now,
	}
}

func (e *Engine) Step(ctx context.Context, pair string) (*types.StepResult, error) {
	logger.Debug(ctx, "Starting trading step", "pair", pair)

	m, err := e.collectMarket(ctx, pair)
	if err != nil {
		return nil, err
	}

	// Protective exits run before any new decision so a breached stop
	// never waits on signal collection.
	if res, err := e.monitorPosition(ctx, m); res != nil || err != nil {
		return res, err
	}

	sigs := e.collectSignals(ctx, m)

	dec, err := e.decider.Decide(sigs)
	if err != nil {
		return nil, fmt.Errorf("decision: %w", err)
	}
	logger.Decision(ctx, pair, string(dec.Direction), dec.AggregateConfidence, decisionReason(dec))
	e.journal.Decision(pair, m.Price, dec)

	// Evaluate under the tracker lock so the trade count and halt latch
	// move atomically with respect to concurrent snapshots.
	var out types.Outcome
	var evalErr error
	e.tracker.Update(func(st *types.AccountState) {
		out, evalErr = e.risk.Evaluate(dec, st, m.Price)
	})
	if evalErr != nil {
		return nil, fmt.Errorf("risk evaluation: %w", evalErr)
	}
	e.journal.Outcome(pair, dec, out)

	res := &types.StepResult{
		Pair:     pair,
		Price:    m.Price,
		Time:     e.now().Unix(),
		Decision: dec,
		Outcome:  out,
	}
	switch {
	case out.Halted():
		e.actOnHalt(ctx, m, out, res)
	case out.Approved():
		e.actOnApproval(ctx, m, dec, out, res)
	default:
		logger.Debug(ctx, "Decision rejected by risk gate", "pair", pair, "reason", out.Reason)
		res.Reason = out.Reason
	}

	logger.Debug(ctx, "Trading step completed", "pair", pair, "direction", dec.Direction, "verdict", out.Verdict, "orders", len(res.Orders))
	return res, nil
}

// collectMarket fetches price, candles and the 24h ticker once per
// cycle. Price is mandatory; candle or ticker failures degrade the
// sources that need them instead of aborting the cycle.
func (e *Engine) collectMarket(ctx context.Context, pair string) (types.Market, error) {
	price, err := e.brk.LTP(ctx, pair)
	if err != nil {
		return types.Market{}, fmt.Errorf("fetch price: %w", err)
	}

	m := types.Market{Pair: pair, Price: price}

	candles, err := e.brk.RecentCandles(ctx, pair, e.cfg.Indicators.CandleInterval, e.cfg.Indicators.CandleCount)
	if err != nil {
		logger.Warn(ctx, "Candle fetch failed - technical signal will sit out", "pair", pair, "error", err)
	} else {
		m.Candles = candles
	}

	ticker, err := e.brk.Ticker24h(ctx, pair)
	if err != nil {
		logger.Warn(ctx, "24h ticker fetch failed - market snapshot will be partial", "pair", pair, "error", err)
	} else {
		m.Ticker = ticker
	}

	return m, nil
}

// collectSignals asks every source for its opinion. A failing source is
// skipped for the cycle; the decision engine redistributes its weight
// across the sources that answered.
func (e *Engine) collectSignals(ctx context.Context, m types.Market) []types.Signal {
	sigs := make([]types.Signal, 0, len(e.sources))
	for _, src := range e.sources {
		sig, err := src.Signal(ctx, m)
		if err != nil {
			logger.Warn(ctx, "Signal source unavailable this cycle", "source", src.Source(), "error", err)
			continue
		}
		if err := sig.Validate(); err != nil {
			logger.Warn(ctx, "Discarding invalid signal", "source", src.Source(), "error", err)
			continue
		}
		logger.Debug(ctx, "Signal collected", "source", sig.Source, "direction", sig.Direction, "strength", sig.Strength, "confidence", sig.Confidence)
		sigs = append(sigs, sig)
	}
	return sigs
}

// decisionReason condenses a decision into one log-friendly line.
func decisionReason(d types.Decision) string {
	if d.Gated {
		return "confidence below threshold"
	}
	parts := make([]string, 0, len(d.Signals))
	for _, s := range d.Signals {
		parts = append(parts, fmt.Sprintf("%s=%s", strings.ToLower(string(s.Source)), strings.ToLower(string(s.Direction))))
	}
	return strings.Join(parts, " ")
}

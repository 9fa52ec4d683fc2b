package types

import (
	"fmt"
	"time"
)

// Source identifies which adapter produced a Signal. The set is closed:
// fusion assumes a known, bounded list of sources, so adding one is a
// compile-time change, not runtime registration.
type Source string

const (
	SourceTechnical Source = "TECHNICAL"
	SourceSentiment Source = "SENTIMENT"
	SourceNews      Source = "NEWS"
)

// Sources returns the canonical source order. Weighted sums iterate in
// this order so identical inputs always produce identical output.
func Sources() []Source {
	return []Source{SourceTechnical, SourceSentiment, SourceNews}
}

func (s Source) Valid() bool {
	switch s {
	case SourceTechnical, SourceSentiment, SourceNews:
		return true
	}
	return false
}

type Direction string

const (
	Buy  Direction = "BUY"
	Sell Direction = "SELL"
	Hold Direction = "HOLD"
)

func (d Direction) Valid() bool {
	switch d {
	case Buy, Sell, Hold:
		return true
	}
	return false
}

// Side returns the position side an entry in this direction opens.
// HOLD has no side.
func (d Direction) Side() Side {
	switch d {
	case Buy:
		return Long
	case Sell:
		return Short
	}
	return ""
}

type Side string

const (
	Long  Side = "LONG"
	Short Side = "SHORT"
)

// Matches reports whether an entry in direction d would add to this side.
func (s Side) Matches(d Direction) bool {
	return d.Side() == s
}

// Exit returns the order direction that closes a position on this side.
func (s Side) Exit() Direction {
	if s == Long {
		return Sell
	}
	return Buy
}

// Signal is one source's opinion on market direction.
type Signal struct {
	Source     Source    `json:"source"`
	Direction  Direction `json:"direction"`
	Strength   float64   `json:"strength"`
	Confidence float64   `json:"confidence"`
	Evidence   string    `json:"evidence,omitempty"`
}

// Validate fails fast on malformed signals. Out-of-range values are an
// adapter bug and are never clamped silently.
func (s Signal) Validate() error {
	if !s.Source.Valid() {
		return fmt.Errorf("signal source %q is not a known source", s.Source)
	}
	if !s.Direction.Valid() {
		return fmt.Errorf("signal %s: direction %q is not BUY/SELL/HOLD", s.Source, s.Direction)
	}
	if s.Strength < 0 || s.Strength > 1 {
		return fmt.Errorf("signal %s: strength %v outside [0,1]", s.Source, s.Strength)
	}
	if s.Confidence < 0 || s.Confidence > 1 {
		return fmt.Errorf("signal %s: confidence %v outside [0,1]", s.Source, s.Confidence)
	}
	return nil
}

// Weights maps each source to its fusion weight.
type Weights map[Source]float64

// Decision is the fused output of all signals for one cycle. Gated is
// true when the confidence gate forced HOLD, so a gated decision stays
// distinguishable from a natural HOLD vote.
type Decision struct {
	Direction           Direction `json:"direction"`
	AggregateStrength   float64   `json:"aggregate_strength"`
	AggregateConfidence float64   `json:"aggregate_confidence"`
	Gated               bool      `json:"gated,omitempty"`
	Signals             []Signal  `json:"signals"`
	Timestamp           time.Time `json:"timestamp,omitempty"`
}

type Candle struct {
	Ts                          int64
	Open, High, Low, Close, Vol float64
}

type Indicators struct {
	SMA         map[int]float64
	RSI         float64
	BB          struct{ Middle, Upper, Lower float64 }
	MACD        struct{ Line, Signal, Hist float64 }
	ATR         float64
	VolumeRatio float64
}

// Market is the per-cycle market context handed to signal adapters:
// one fetch per cycle, shared by every source.
type Market struct {
	Pair    string
	Price   float64
	Candles []Candle
	Ticker  Ticker
}

// Ticker is a 24h market summary for one pair.
type Ticker struct {
	Pair         string  `json:"pair"`
	Last         float64 `json:"last"`
	High24h      float64 `json:"high_24h"`
	Low24h       float64 `json:"low_24h"`
	Volume24h    float64 `json:"volume_24h"`
	ChangePct24h float64 `json:"change_pct_24h"`
}

// MarketSnapshot is the condensed market state handed to the LLM judge.
type MarketSnapshot struct {
	Pair         string  `json:"pair"`
	Price        float64 `json:"price"`
	ChangePct24h float64 `json:"change_pct_24h"`
	High24h      float64 `json:"high_24h"`
	Low24h       float64 `json:"low_24h"`
	Volume24h    float64 `json:"volume_24h"`
	RSI          float64 `json:"rsi"`
	Trend        string  `json:"trend,omitempty"`
}

// Position is an open exposure with its protective levels. At most one
// position per pair exists at a time. TradeID ties it to its row in the
// trade store.
type Position struct {
	TradeID         string    `json:"trade_id,omitempty"`
	Side            Side      `json:"side"`
	Size            float64   `json:"size"`
	EntryPrice      float64   `json:"entry_price"`
	StopLossPrice   float64   `json:"stop_loss_price"`
	TakeProfitPrice float64   `json:"take_profit_price"`
	OpenedAt        time.Time `json:"opened_at"`
}

// PnLAt returns the profit realized by closing the position at price
func (p *Position) PnLAt(price float64) float64 {
	if p == nil {
		return 0
	}
	if p.Side == Long {
		return (price - p.EntryPrice) * p.Size
	}
	return (p.EntryPrice - price) * p.Size
}

// AccountState is the per-cycle account snapshot. Daily fields reset at
// day rollover. TradeCountToday and HaltedToday are written by the risk
// manager as documented side effects; everything else is written by the
// account tracker.
type AccountState struct {
	Equity           float64   `json:"equity"`
	AvailableBalance float64   `json:"available_balance"`
	OpenPosition     *Position `json:"open_position,omitempty"`
	DailyRealizedPnL float64   `json:"daily_realized_pnl"`
	TradeCountToday  int       `json:"trade_count_today"`
	HaltedToday      bool      `json:"halted_today,omitempty"`
	DayStart         time.Time `json:"day_start"`
}

// RiskLimits is the risk configuration, immutable per run. Percent
// fields are unit fractions: 0.03 means 3%.
type RiskLimits struct {
	MaxPositionSizeFraction float64 `yaml:"max_position_size_fraction"`
	MaxRiskPerTradePercent  float64 `yaml:"max_risk_per_trade_percent"`
	StopLossPercent         float64 `yaml:"stop_loss_percent"`
	TakeProfitPercent       float64 `yaml:"take_profit_percent"`
	MaxDailyLossPercent     float64 `yaml:"max_daily_loss_percent"`
	MaxTradesPerDay         int     `yaml:"max_trades_per_day"`
	MinOrderSize            float64 `yaml:"min_order_size"`
}

func (l RiskLimits) Validate() error {
	if l.MaxPositionSizeFraction <= 0 || l.MaxPositionSizeFraction > 1 {
		return fmt.Errorf("risk.max_position_size_fraction must be in (0,1], got %v", l.MaxPositionSizeFraction)
	}
	if l.MaxRiskPerTradePercent <= 0 || l.MaxRiskPerTradePercent > 1 {
		return fmt.Errorf("risk.max_risk_per_trade_percent must be in (0,1], got %v", l.MaxRiskPerTradePercent)
	}
	if l.StopLossPercent <= 0 || l.StopLossPercent >= 1 {
		return fmt.Errorf("risk.stop_loss_percent must be in (0,1), got %v", l.StopLossPercent)
	}
	if l.TakeProfitPercent <= 0 || l.TakeProfitPercent >= 1 {
		return fmt.Errorf("risk.take_profit_percent must be in (0,1), got %v", l.TakeProfitPercent)
	}
	if l.MaxDailyLossPercent <= 0 || l.MaxDailyLossPercent > 1 {
		return fmt.Errorf("risk.max_daily_loss_percent must be in (0,1], got %v", l.MaxDailyLossPercent)
	}
	if l.MaxTradesPerDay < 1 {
		return fmt.Errorf("risk.max_trades_per_day must be >= 1, got %d", l.MaxTradesPerDay)
	}
	if l.MinOrderSize < 0 {
		return fmt.Errorf("risk.min_order_size must be >= 0, got %v", l.MinOrderSize)
	}
	return nil
}

// Verdict classifies a risk outcome.
type Verdict string

const (
	VerdictApproved Verdict = "APPROVED"
	VerdictRejected Verdict = "REJECTED"
	VerdictHalted   Verdict = "HALTED"
)

// Outcome is the risk manager's verdict on a Decision. Size and the
// protective levels are set only on approval. CloseExisting marks that
// the open position should be closed before (approved reversal) or
// instead of (halt) acting, so de-risking stays possible while halted.
type Outcome struct {
	Verdict         Verdict `json:"verdict"`
	Reason          string  `json:"reason,omitempty"`
	Size            float64 `json:"size,omitempty"`
	StopLossPrice   float64 `json:"stop_loss_price,omitempty"`
	TakeProfitPrice float64 `json:"take_profit_price,omitempty"`
	CloseExisting   bool    `json:"close_existing,omitempty"`
}

func (o Outcome) Approved() bool { return o.Verdict == VerdictApproved }
func (o Outcome) Halted() bool   { return o.Verdict == VerdictHalted }

type OrderReq struct {
	Pair string
	Side Direction
	Qty  float64
	Tag  string
}

type OrderResp struct {
	OrderID string `json:"order_id"`
	Status  string `json:"status,omitempty"`
	Message string `json:"message,omitempty"`
}

// StepResult summarizes one trading cycle.
type StepResult struct {
	Pair     string      `json:"pair"`
	Price    float64     `json:"price"`
	Time     int64       `json:"time"`
	Decision Decision    `json:"decision"`
	Outcome  Outcome     `json:"outcome"`
	Orders   []OrderResp `json:"orders,omitempty"`
	Reason   string      `json:"reason,omitempty"`
}

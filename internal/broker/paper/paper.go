// Package paper simulates an exchange for DRY_RUN mode. Prices follow
// a seeded random walk so a run can be replayed, orders fill instantly
// at the current walk price, and balances come from an internal cash
// ledger rather than a real account.
package paper

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"strconv"
	"sync"
	"time"

	"github.com/temaptz/trade-agent/internal/id"
	"github.com/temaptz/trade-agent/internal/interfaces"
	"github.com/temaptz/trade-agent/internal/types"
)

// Walk tuning. Per-candle drift stays within +-0.2% so synthetic series
// look like a quiet spot market rather than noise.
const (
	driftRange = 0.004
	wickRange  = 0.001
)

type Params struct {
	StartingBalance float64
	BasePrice       float64
	Seed            int64
}

type Paper struct {
	mu   sync.Mutex
	rng  *rand.Rand
	px   float64
	cash float64
	pos  map[string]float64

	dayOpen float64
	high24h float64
	low24h  float64
	vol24h  float64
}

var _ interfaces.Broker = (*Paper)(nil)

func New(p Params) *Paper {
	if p.BasePrice <= 0 {
		p.BasePrice = 50000
	}
	if p.Seed == 0 {
		p.Seed = time.Now().UnixNano()
	}

	return &Paper{
		rng:     rand.New(rand.NewSource(p.Seed)),
		px:      p.BasePrice,
		cash:    p.StartingBalance,
		pos:     make(map[string]float64),
		dayOpen: p.BasePrice,
		high24h: p.BasePrice,
		low24h:  p.BasePrice,
	}
}

// LTP advances the walk one step and returns the new price.
func (p *Paper) LTP(ctx context.Context, pair string) (float64, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.px *= 1 + (p.rng.Float64()-0.5)*driftRange
	p.mark(p.px)
	return p.px, nil
}

// RecentCandles synthesizes n candles ending at the walk's current
// position. The walk advances through the series, so the last close
// becomes the new live price.
func (p *Paper) RecentCandles(ctx context.Context, pair, interval string, n int) ([]types.Candle, error) {
	secs, err := intervalSeconds(interval)
	if err != nil {
		return nil, err
	}
	if n < 1 {
		return nil, fmt.Errorf("candle count must be >= 1, got %d", n)
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	now := time.Now().Unix()
	start := now - int64(n)*secs

	cs := make([]types.Candle, 0, n)
	o := p.px
	for i := 0; i < n; i++ {
		c := o * (1 + (p.rng.Float64()-0.5)*driftRange)
		h := math.Max(o, c) * (1 + p.rng.Float64()*wickRange)
		l := math.Min(o, c) * (1 - p.rng.Float64()*wickRange)
		vol := 20 + p.rng.Float64()*80

		cs = append(cs, types.Candle{
			Ts:    start + int64(i+1)*secs,
			Open:  o,
			High:  h,
			Low:   l,
			Close: c,
			Vol:   vol,
		})
		p.mark(h)
		p.mark(l)
		p.vol24h += vol
		o = c
	}
	p.px = o

	return cs, nil
}

func (p *Paper) Ticker24h(ctx context.Context, pair string) (types.Ticker, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	return types.Ticker{
		Pair:         pair,
		Last:         p.px,
		High24h:      p.high24h,
		Low24h:       p.low24h,
		Volume24h:    p.vol24h,
		ChangePct24h: (p.px - p.dayOpen) / p.dayOpen * 100,
	}, nil
}

// Balance values the ledger at the current walk price: equity is cash
// plus open exposure, available is uncommitted cash.
func (p *Paper) Balance(ctx context.Context) (float64, float64, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	equity := p.cash
	for _, qty := range p.pos {
		equity += qty * p.px
	}
	return equity, math.Max(p.cash, 0), nil
}

// PlaceOrder fills immediately at the current walk price. The price is
// not advanced here, so a fill lands at the same price the caller just
// observed via LTP.
func (p *Paper) PlaceOrder(ctx context.Context, req types.OrderReq) (types.OrderResp, error) {
	if req.Qty <= 0 {
		return types.OrderResp{}, fmt.Errorf("order qty must be > 0, got %v", req.Qty)
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	cost := req.Qty * p.px
	switch req.Side {
	case types.Buy:
		p.cash -= cost
		p.pos[req.Pair] += req.Qty
	case types.Sell:
		p.cash += cost
		p.pos[req.Pair] -= req.Qty
	default:
		return types.OrderResp{}, fmt.Errorf("unsupported order side %q", req.Side)
	}

	return types.OrderResp{
		OrderID: id.New(),
		Status:  "FILLED",
		Message: "paper fill at " + strconv.FormatFloat(p.px, 'f', 2, 64),
	}, nil
}

func (p *Paper) Start(ctx context.Context, pairs []string) error {
	return nil
}

func (p *Paper) Stop(ctx context.Context) {}

// mark widens the rolling 24h extremes.
func (p *Paper) mark(px float64) {
	if px > p.high24h {
		p.high24h = px
	}
	if px < p.low24h {
		p.low24h = px
	}
}

// intervalSeconds parses an exchange kline interval: minutes as bare
// digits plus D/W for day and week, matching the config values the
// live adapters accept.
func intervalSeconds(interval string) (int64, error) {
	switch interval {
	case "D":
		return 86400, nil
	case "W":
		return 7 * 86400, nil
	}
	mins, err := strconv.Atoi(interval)
	if err != nil || mins < 1 {
		return 0, fmt.Errorf("unsupported candle interval %q", interval)
	}
	return int64(mins) * 60, nil
}

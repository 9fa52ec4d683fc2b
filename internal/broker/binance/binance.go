// Package binance implements the Broker interface on the go-binance
// SDK. Candle intervals arrive in exchange-neutral form (minutes as
// bare digits, D/W for day and week) and are mapped to Binance's
// suffixed notation.
package binance

import (
	"context"
	"fmt"
	"strconv"

	sdk "github.com/adshao/go-binance/v2"

	"github.com/temaptz/trade-agent/internal/interfaces"
	"github.com/temaptz/trade-agent/internal/types"
)

type Params struct {
	Testnet   bool
	APIKey    string
	APISecret string

	// QuoteAsset is the balance currency reported by Balance.
	// Defaults to USDT.
	QuoteAsset string
}

type Binance struct {
	client *sdk.Client
	quote  string
}

var _ interfaces.Broker = (*Binance)(nil)

func New(p Params) *Binance {
	if p.QuoteAsset == "" {
		p.QuoteAsset = "USDT"
	}
	// UseTestnet is read by NewClient, so it must be set first.
	sdk.UseTestnet = p.Testnet

	return &Binance{
		client: sdk.NewClient(p.APIKey, p.APISecret),
		quote:  p.QuoteAsset,
	}
}

func (b *Binance) LTP(ctx context.Context, pair string) (float64, error) {
	prices, err := b.client.NewListPricesService().Symbol(pair).Do(ctx)
	if err != nil {
		return 0, fmt.Errorf("binance price: %w", err)
	}
	if len(prices) == 0 {
		return 0, fmt.Errorf("no price returned for %s", pair)
	}

	px, err := strconv.ParseFloat(prices[0].Price, 64)
	if err != nil {
		return 0, fmt.Errorf("bad price %q: %w", prices[0].Price, err)
	}
	return px, nil
}

func (b *Binance) RecentCandles(ctx context.Context, pair, interval string, n int) ([]types.Candle, error) {
	iv, err := sdkInterval(interval)
	if err != nil {
		return nil, err
	}

	ks, err := b.client.NewKlinesService().Symbol(pair).Interval(iv).Limit(n).Do(ctx)
	if err != nil {
		return nil, fmt.Errorf("binance klines: %w", err)
	}

	cs := make([]types.Candle, 0, len(ks))
	for _, k := range ks {
		c, err := parseKline(k)
		if err != nil {
			return nil, err
		}
		cs = append(cs, c)
	}
	return cs, nil
}

func parseKline(k *sdk.Kline) (types.Candle, error) {
	vals := make([]float64, 5)
	for i, s := range []string{k.Open, k.High, k.Low, k.Close, k.Volume} {
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return types.Candle{}, fmt.Errorf("bad kline field %q: %w", s, err)
		}
		vals[i] = v
	}

	return types.Candle{
		Ts:    k.OpenTime / 1000,
		Open:  vals[0],
		High:  vals[1],
		Low:   vals[2],
		Close: vals[3],
		Vol:   vals[4],
	}, nil
}

func (b *Binance) Ticker24h(ctx context.Context, pair string) (types.Ticker, error) {
	stats, err := b.client.NewListPriceChangeStatsService().Symbol(pair).Do(ctx)
	if err != nil {
		return types.Ticker{}, fmt.Errorf("binance 24h stats: %w", err)
	}
	if len(stats) == 0 {
		return types.Ticker{}, fmt.Errorf("no 24h stats returned for %s", pair)
	}

	s := stats[0]
	last, err := strconv.ParseFloat(s.LastPrice, 64)
	if err != nil {
		return types.Ticker{}, fmt.Errorf("bad lastPrice %q: %w", s.LastPrice, err)
	}
	high, _ := strconv.ParseFloat(s.HighPrice, 64)
	low, _ := strconv.ParseFloat(s.LowPrice, 64)
	vol, _ := strconv.ParseFloat(s.Volume, 64)
	pct, _ := strconv.ParseFloat(s.PriceChangePercent, 64)

	return types.Ticker{
		Pair:         pair,
		Last:         last,
		High24h:      high,
		Low24h:       low,
		Volume24h:    vol,
		ChangePct24h: pct,
	}, nil
}

func (b *Binance) Balance(ctx context.Context) (float64, float64, error) {
	acct, err := b.client.NewGetAccountService().Do(ctx)
	if err != nil {
		return 0, 0, fmt.Errorf("binance account: %w", err)
	}

	for _, bal := range acct.Balances {
		if bal.Asset != b.quote {
			continue
		}
		free, err := strconv.ParseFloat(bal.Free, 64)
		if err != nil {
			return 0, 0, fmt.Errorf("bad free balance %q: %w", bal.Free, err)
		}
		locked, _ := strconv.ParseFloat(bal.Locked, 64)
		return free + locked, free, nil
	}
	return 0, 0, fmt.Errorf("no %s balance in account", b.quote)
}

func (b *Binance) PlaceOrder(ctx context.Context, req types.OrderReq) (types.OrderResp, error) {
	var side sdk.SideType
	switch req.Side {
	case types.Buy:
		side = sdk.SideTypeBuy
	case types.Sell:
		side = sdk.SideTypeSell
	default:
		return types.OrderResp{}, fmt.Errorf("unsupported order side %q", req.Side)
	}

	svc := b.client.NewCreateOrderService().
		Symbol(req.Pair).
		Side(side).
		Type(sdk.OrderTypeMarket).
		Quantity(strconv.FormatFloat(req.Qty, 'f', -1, 64))
	if req.Tag != "" {
		svc = svc.NewClientOrderID(req.Tag)
	}

	res, err := svc.Do(ctx)
	if err != nil {
		return types.OrderResp{}, fmt.Errorf("binance order: %w", err)
	}

	return types.OrderResp{
		OrderID: strconv.FormatInt(res.OrderID, 10),
		Status:  string(res.Status),
		Message: "ok",
	}, nil
}

// Start verifies credentials are present and the API answers. REST
// needs no session, so there is nothing else to hold open.
func (b *Binance) Start(ctx context.Context, pairs []string) error {
	if b.client.APIKey == "" || b.client.SecretKey == "" {
		return fmt.Errorf("missing binance api credentials")
	}
	if err := b.client.NewPingService().Do(ctx); err != nil {
		return fmt.Errorf("binance ping: %w", err)
	}
	return nil
}

func (b *Binance) Stop(ctx context.Context) {}

// sdkInterval maps a neutral interval to Binance notation: minutes
// that divide into whole hours become hour intervals, D and W become
// 1d and 1w.
func sdkInterval(interval string) (string, error) {
	switch interval {
	case "D":
		return "1d", nil
	case "W":
		return "1w", nil
	}

	mins, err := strconv.Atoi(interval)
	if err != nil || mins < 1 {
		return "", fmt.Errorf("unsupported candle interval %q", interval)
	}
	if mins >= 60 && mins%60 == 0 {
		return strconv.Itoa(mins/60) + "h", nil
	}
	return strconv.Itoa(mins) + "m", nil
}

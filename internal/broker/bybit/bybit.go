// Package bybit implements the Broker interface over the Bybit v5 REST
// API (spot category). Market data endpoints are public; orders and
// wallet balance are signed with HMAC-SHA256 per the X-BAPI header
// scheme.
package bybit

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"github.com/temaptz/trade-agent/internal/api"
	"github.com/temaptz/trade-agent/internal/interfaces"
	"github.com/temaptz/trade-agent/internal/types"
)

const (
	mainnetURL = "https://api.bybit.com"
	testnetURL = "https://api-testnet.bybit.com"

	category   = "spot"
	recvWindow = "5000"
)

type Params struct {
	Testnet   bool
	APIKey    string
	APISecret string
	Timeout   time.Duration

	// BaseURL overrides the mainnet/testnet selection. Tests point it
	// at a local server.
	BaseURL string
}

type Bybit struct {
	client    *api.Client
	apiKey    string
	apiSecret string
}

var _ interfaces.Broker = (*Bybit)(nil)

func New(p Params) *Bybit {
	base := p.BaseURL
	if base == "" {
		base = mainnetURL
		if p.Testnet {
			base = testnetURL
		}
	}
	if p.Timeout == 0 {
		p.Timeout = 15 * time.Second
	}

	return &Bybit{
		client: api.NewClient(
			api.WithBaseURL(base),
			api.WithTimeout(p.Timeout),
			api.WithRateLimit(api.NewRateLimiter(10, 100*time.Millisecond)),
		),
		apiKey:    p.APIKey,
		apiSecret: p.APISecret,
	}
}

// envelope is the common v5 response wrapper. retCode 0 means success;
// anything else carries the failure in retMsg even on HTTP 200.
type envelope struct {
	RetCode int             `json:"retCode"`
	RetMsg  string          `json:"retMsg"`
	Result  json.RawMessage `json:"result"`
}

func (b *Bybit) LTP(ctx context.Context, pair string) (float64, error) {
	t, err := b.Ticker24h(ctx, pair)
	if err != nil {
		return 0, err
	}
	return t.Last, nil
}

func (b *Bybit) Ticker24h(ctx context.Context, pair string) (types.Ticker, error) {
	q := url.Values{}
	q.Set("category", category)
	q.Set("symbol", pair)

	var res struct {
		List []struct {
			Symbol       string `json:"symbol"`
			LastPrice    string `json:"lastPrice"`
			HighPrice24h string `json:"highPrice24h"`
			LowPrice24h  string `json:"lowPrice24h"`
			Volume24h    string `json:"volume24h"`
			Price24hPcnt string `json:"price24hPcnt"`
		} `json:"list"`
	}
	if err := b.get(ctx, "/v5/market/tickers", q, false, &res); err != nil {
		return types.Ticker{}, err
	}
	if len(res.List) == 0 {
		return types.Ticker{}, fmt.Errorf("no ticker returned for %s", pair)
	}

	t := res.List[0]
	last, err := strconv.ParseFloat(t.LastPrice, 64)
	if err != nil {
		return types.Ticker{}, fmt.Errorf("bad lastPrice %q: %w", t.LastPrice, err)
	}
	high, _ := strconv.ParseFloat(t.HighPrice24h, 64)
	low, _ := strconv.ParseFloat(t.LowPrice24h, 64)
	vol, _ := strconv.ParseFloat(t.Volume24h, 64)
	pcnt, _ := strconv.ParseFloat(t.Price24hPcnt, 64)

	return types.Ticker{
		Pair:      pair,
		Last:      last,
		High24h:   high,
		Low24h:    low,
		Volume24h: vol,
		// price24hPcnt is a fraction (0.0196 = +1.96%)
		ChangePct24h: pcnt * 100,
	}, nil
}

func (b *Bybit) RecentCandles(ctx context.Context, pair, interval string, n int) ([]types.Candle, error) {
	q := url.Values{}
	q.Set("category", category)
	q.Set("symbol", pair)
	q.Set("interval", interval)
	q.Set("limit", strconv.Itoa(n))

	var res struct {
		List [][]string `json:"list"`
	}
	if err := b.get(ctx, "/v5/market/kline", q, false, &res); err != nil {
		return nil, err
	}

	// Bybit returns klines newest first; indicators want oldest first.
	cs := make([]types.Candle, 0, len(res.List))
	for i := len(res.List) - 1; i >= 0; i-- {
		c, err := parseKline(res.List[i])
		if err != nil {
			return nil, err
		}
		cs = append(cs, c)
	}
	return cs, nil
}

// parseKline converts one v5 kline row:
// [startTimeMs, open, high, low, close, volume, turnover].
func parseKline(row []string) (types.Candle, error) {
	if len(row) < 6 {
		return types.Candle{}, fmt.Errorf("kline row has %d fields, want >= 6", len(row))
	}

	ms, err := strconv.ParseInt(row[0], 10, 64)
	if err != nil {
		return types.Candle{}, fmt.Errorf("bad kline timestamp %q: %w", row[0], err)
	}
	vals := make([]float64, 5)
	for i := 0; i < 5; i++ {
		v, err := strconv.ParseFloat(row[i+1], 64)
		if err != nil {
			return types.Candle{}, fmt.Errorf("bad kline field %q: %w", row[i+1], err)
		}
		vals[i] = v
	}

	return types.Candle{
		Ts:    ms / 1000,
		Open:  vals[0],
		High:  vals[1],
		Low:   vals[2],
		Close: vals[3],
		Vol:   vals[4],
	}, nil
}

func (b *Bybit) Balance(ctx context.Context) (float64, float64, error) {
	q := url.Values{}
	q.Set("accountType", "UNIFIED")

	var res struct {
		List []struct {
			TotalEquity           string `json:"totalEquity"`
			TotalAvailableBalance string `json:"totalAvailableBalance"`
		} `json:"list"`
	}
	if err := b.get(ctx, "/v5/account/wallet-balance", q, true, &res); err != nil {
		return 0, 0, err
	}
	if len(res.List) == 0 {
		return 0, 0, errors.New("no wallet balance returned")
	}

	equity, err := strconv.ParseFloat(res.List[0].TotalEquity, 64)
	if err != nil {
		return 0, 0, fmt.Errorf("bad totalEquity %q: %w", res.List[0].TotalEquity, err)
	}
	avail, _ := strconv.ParseFloat(res.List[0].TotalAvailableBalance, 64)
	return equity, avail, nil
}

func (b *Bybit) PlaceOrder(ctx context.Context, req types.OrderReq) (types.OrderResp, error) {
	var side string
	switch req.Side {
	case types.Buy:
		side = "Buy"
	case types.Sell:
		side = "Sell"
	default:
		return types.OrderResp{}, fmt.Errorf("unsupported order side %q", req.Side)
	}

	body := map[string]string{
		"category":  category,
		"symbol":    req.Pair,
		"side":      side,
		"orderType": "Market",
		"qty":       strconv.FormatFloat(req.Qty, 'f', -1, 64),
	}
	if req.Tag != "" {
		body["orderLinkId"] = req.Tag
	}

	var res struct {
		OrderID     string `json:"orderId"`
		OrderLinkID string `json:"orderLinkId"`
	}
	if err := b.post(ctx, "/v5/order/create", body, &res); err != nil {
		return types.OrderResp{}, err
	}

	return types.OrderResp{
		OrderID: res.OrderID,
		Status:  "PLACED",
		Message: "ok",
	}, nil
}

// Start verifies credentials are present and the API is reachable for
// every traded pair. There is no session to hold open; v5 REST is
// stateless.
func (b *Bybit) Start(ctx context.Context, pairs []string) error {
	if b.apiKey == "" || b.apiSecret == "" {
		return errors.New("missing bybit api credentials")
	}
	for _, p := range pairs {
		if _, err := b.LTP(ctx, p); err != nil {
			return fmt.Errorf("bybit connectivity check for %s: %w", p, err)
		}
	}
	return nil
}

func (b *Bybit) Stop(ctx context.Context) {}

// get performs a GET, optionally signed, and unwraps the v5 envelope
// into out.
func (b *Bybit) get(ctx context.Context, path string, q url.Values, signed bool, out any) error {
	qs := q.Encode()
	full := path
	if qs != "" {
		full += "?" + qs
	}

	var headers map[string]string
	if signed {
		headers = b.signHeaders(qs)
	}

	resp, err := b.client.GET(ctx, full, headers)
	if err != nil {
		return fmt.Errorf("bybit %s: %w", path, err)
	}
	return unwrap(resp.Body, path, out)
}

// post performs a signed POST. The body is marshalled once so the
// signature covers the exact bytes sent.
func (b *Bybit) post(ctx context.Context, path string, body any, out any) error {
	raw, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("bybit %s: marshal body: %w", path, err)
	}

	resp, err := b.client.POST(ctx, path, json.RawMessage(raw), b.signHeaders(string(raw)))
	if err != nil {
		return fmt.Errorf("bybit %s: %w", path, err)
	}
	return unwrap(resp.Body, path, out)
}

func unwrap(raw []byte, path string, out any) error {
	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return fmt.Errorf("bybit %s: decode response: %w", path, err)
	}
	if env.RetCode != 0 {
		return fmt.Errorf("bybit %s: %s (retCode %d)", path, env.RetMsg, env.RetCode)
	}
	if out != nil {
		if err := json.Unmarshal(env.Result, out); err != nil {
			return fmt.Errorf("bybit %s: decode result: %w", path, err)
		}
	}
	return nil
}

// signHeaders builds the X-BAPI auth headers. The signature is
// hex(HMAC-SHA256(timestamp + apiKey + recvWindow + payload)) where
// payload is the query string for GETs and the JSON body for POSTs.
func (b *Bybit) signHeaders(payload string) map[string]string {
	ts := strconv.FormatInt(time.Now().UnixMilli(), 10)

	mac := hmac.New(sha256.New, []byte(b.apiSecret))
	mac.Write([]byte(ts + b.apiKey + recvWindow + payload))

	return map[string]string{
		"X-BAPI-API-KEY":     b.apiKey,
		"X-BAPI-TIMESTAMP":   ts,
		"X-BAPI-RECV-WINDOW": recvWindow,
		"X-BAPI-SIGN":        hex.EncodeToString(mac.Sum(nil)),
	}
}

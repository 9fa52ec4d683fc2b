package bybit

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/temaptz/trade-agent/internal/types"
)

func newTestBroker(t *testing.T, h http.HandlerFunc) *Bybit {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return New(Params{APIKey: "test-key", APISecret: "test-secret", BaseURL: srv.URL})
}

func TestRecentCandlesReversesKlines(t *testing.T) {
	b := newTestBroker(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v5/market/kline", r.URL.Path)
		assert.Equal(t, "spot", r.URL.Query().Get("category"))
		assert.Equal(t, "BTCUSDT", r.URL.Query().Get("symbol"))
		assert.Equal(t, "5", r.URL.Query().Get("interval"))
		assert.Equal(t, "3", r.URL.Query().Get("limit"))

		io.WriteString(w, `{"retCode":0,"retMsg":"OK","result":{"list":[
			["1700000600000","102","103","101","102.5","30","3075"],
			["1700000300000","101","102","100","102","25","2550"],
			["1700000000000","100","101","99","101","20","2020"]
		]}}`)
	})

	cs, err := b.RecentCandles(context.Background(), "BTCUSDT", "5", 3)
	require.NoError(t, err)
	require.Len(t, cs, 3)

	// Bybit sends newest first; we want oldest first.
	assert.Equal(t, int64(1700000000), cs[0].Ts)
	assert.Equal(t, 100.0, cs[0].Open)
	assert.Equal(t, 101.0, cs[0].Close)
	assert.Equal(t, 20.0, cs[0].Vol)
	assert.Equal(t, int64(1700000600), cs[2].Ts)
	assert.Equal(t, 102.5, cs[2].Close)
}

func TestTicker24hScalesChangePcnt(t *testing.T) {
	b := newTestBroker(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v5/market/tickers", r.URL.Path)
		io.WriteString(w, `{"retCode":0,"retMsg":"OK","result":{"list":[{
			"symbol":"BTCUSDT","lastPrice":"50123.5","highPrice24h":"50500",
			"lowPrice24h":"48800","volume24h":"12345.6","price24hPcnt":"0.0196"
		}]}}`)
	})

	tk, err := b.Ticker24h(context.Background(), "BTCUSDT")
	require.NoError(t, err)
	assert.Equal(t, 50123.5, tk.Last)
	assert.Equal(t, 50500.0, tk.High24h)
	assert.Equal(t, 48800.0, tk.Low24h)
	assert.InDelta(t, 1.96, tk.ChangePct24h, 1e-9)

	px, err := b.LTP(context.Background(), "BTCUSDT")
	require.NoError(t, err)
	assert.Equal(t, 50123.5, px)
}

func TestPlaceOrderSignsRequest(t *testing.T) {
	b := newTestBroker(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v5/order/create", r.URL.Path)
		assert.Equal(t, http.MethodPost, r.Method)

		body, err := io.ReadAll(r.Body)
		require.NoError(t, err)

		var req map[string]string
		require.NoError(t, json.Unmarshal(body, &req))
		assert.Equal(t, "spot", req["category"])
		assert.Equal(t, "BTCUSDT", req["symbol"])
		assert.Equal(t, "Buy", req["side"])
		assert.Equal(t, "Market", req["orderType"])
		assert.Equal(t, "0.001", req["qty"])
		assert.Equal(t, "entry-1", req["orderLinkId"])

		// Signature covers timestamp + key + recvWindow + raw body.
		ts := r.Header.Get("X-BAPI-TIMESTAMP")
		assert.NotEmpty(t, ts)
		assert.Equal(t, "test-key", r.Header.Get("X-BAPI-API-KEY"))
		assert.Equal(t, "5000", r.Header.Get("X-BAPI-RECV-WINDOW"))

		mac := hmac.New(sha256.New, []byte("test-secret"))
		mac.Write([]byte(ts + "test-key" + "5000" + string(body)))
		assert.Equal(t, hex.EncodeToString(mac.Sum(nil)), r.Header.Get("X-BAPI-SIGN"))

		io.WriteString(w, `{"retCode":0,"retMsg":"OK","result":{"orderId":"1321003749386327552","orderLinkId":"entry-1"}}`)
	})

	resp, err := b.PlaceOrder(context.Background(), types.OrderReq{
		Pair: "BTCUSDT",
		Side: types.Buy,
		Qty:  0.001,
		Tag:  "entry-1",
	})
	require.NoError(t, err)
	assert.Equal(t, "1321003749386327552", resp.OrderID)
	assert.Equal(t, "PLACED", resp.Status)
}

func TestPlaceOrderRejectsHold(t *testing.T) {
	b := newTestBroker(t, func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("no request expected")
	})

	_, err := b.PlaceOrder(context.Background(), types.OrderReq{Pair: "BTCUSDT", Side: types.Hold, Qty: 1})
	assert.ErrorContains(t, err, "unsupported order side")
}

func TestRetCodeErrorSurfaces(t *testing.T) {
	b := newTestBroker(t, func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{"retCode":10001,"retMsg":"params error","result":{}}`)
	})

	_, err := b.LTP(context.Background(), "BTCUSDT")
	require.Error(t, err)
	assert.ErrorContains(t, err, "params error")
	assert.ErrorContains(t, err, "retCode 10001")
}

func TestBalanceParsesWallet(t *testing.T) {
	b := newTestBroker(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v5/account/wallet-balance", r.URL.Path)
		assert.Equal(t, "UNIFIED", r.URL.Query().Get("accountType"))
		assert.Equal(t, "test-key", r.Header.Get("X-BAPI-API-KEY"))

		// GET signatures cover the query string as sent.
		ts := r.Header.Get("X-BAPI-TIMESTAMP")
		mac := hmac.New(sha256.New, []byte("test-secret"))
		mac.Write([]byte(ts + "test-key" + "5000" + r.URL.RawQuery))
		assert.Equal(t, hex.EncodeToString(mac.Sum(nil)), r.Header.Get("X-BAPI-SIGN"))

		io.WriteString(w, `{"retCode":0,"retMsg":"OK","result":{"list":[{
			"totalEquity":"10500.5","totalAvailableBalance":"9800.25"
		}]}}`)
	})

	equity, available, err := b.Balance(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 10500.5, equity)
	assert.Equal(t, 9800.25, available)
}

func TestStartRequiresCredentials(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	t.Cleanup(srv.Close)

	b := New(Params{BaseURL: srv.URL})
	err := b.Start(context.Background(), []string{"BTCUSDT"})
	assert.ErrorContains(t, err, "missing bybit api credentials")
}

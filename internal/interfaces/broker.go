package interfaces

import (
	"context"

	"github.com/temaptz/trade-agent/internal/types"
)

type Broker interface {
	LTP(ctx context.Context, pair string) (float64, error)
	RecentCandles(ctx context.Context, pair, interval string, n int) ([]types.Candle, error)
	Ticker24h(ctx context.Context, pair string) (types.Ticker, error)
	Balance(ctx context.Context) (equity, available float64, err error)
	PlaceOrder(ctx context.Context, req types.OrderReq) (types.OrderResp, error)
	Start(ctx context.Context, pairs []string) error
	Stop(ctx context.Context)
}

// Package broker selects and constructs the exchange adapter for the
// configured mode. DRY_RUN always runs against the paper simulator;
// LIVE picks the exchange named in config and reads its credentials
// from the configured environment variables.
package broker

import (
	"fmt"
	"os"
	"time"

	"github.com/temaptz/trade-agent/internal/broker/binance"
	"github.com/temaptz/trade-agent/internal/broker/bybit"
	"github.com/temaptz/trade-agent/internal/broker/paper"
	"github.com/temaptz/trade-agent/internal/interfaces"
	"github.com/temaptz/trade-agent/internal/store"
)

func New(cfg *store.Config) (interfaces.Broker, error) {
	if cfg.Mode != "LIVE" || cfg.Exchange.Name == "PAPER" {
		return paper.New(paper.Params{
			StartingBalance: cfg.StartingBalance,
		}), nil
	}

	key := os.Getenv(cfg.Exchange.APIKeyEnv)
	secret := os.Getenv(cfg.Exchange.APISecretEnv)
	if key == "" || secret == "" {
		return nil, fmt.Errorf("live mode needs credentials in $%s and $%s", cfg.Exchange.APIKeyEnv, cfg.Exchange.APISecretEnv)
	}

	switch cfg.Exchange.Name {
	case "BYBIT":
		return bybit.New(bybit.Params{
			Testnet:   cfg.Exchange.Testnet,
			APIKey:    key,
			APISecret: secret,
			Timeout:   15 * time.Second,
		}), nil
	case "BINANCE":
		return binance.New(binance.Params{
			Testnet:   cfg.Exchange.Testnet,
			APIKey:    key,
			APISecret: secret,
		}), nil
	}
	return nil, fmt.Errorf("unknown exchange %q", cfg.Exchange.Name)
}

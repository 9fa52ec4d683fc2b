package broker

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/temaptz/trade-agent/internal/broker/binance"
	"github.com/temaptz/trade-agent/internal/broker/bybit"
	"github.com/temaptz/trade-agent/internal/broker/paper"
	"github.com/temaptz/trade-agent/internal/store"
)

func testConfig(mode, exchange string) *store.Config {
	cfg := &store.Config{Mode: mode, StartingBalance: 10000}
	cfg.Exchange.Name = exchange
	cfg.Exchange.Testnet = true
	cfg.Exchange.APIKeyEnv = "TEST_BROKER_KEY"
	cfg.Exchange.APISecretEnv = "TEST_BROKER_SECRET"
	return cfg
}

func TestDryRunGetsPaperBroker(t *testing.T) {
	brk, err := New(testConfig("DRY_RUN", "BYBIT"))
	require.NoError(t, err)
	assert.IsType(t, &paper.Paper{}, brk)
}

func TestLiveWithoutCredentialsFails(t *testing.T) {
	t.Setenv("TEST_BROKER_KEY", "")
	t.Setenv("TEST_BROKER_SECRET", "")

	_, err := New(testConfig("LIVE", "BYBIT"))
	require.Error(t, err)
	assert.ErrorContains(t, err, "TEST_BROKER_KEY")
}

func TestLiveSelectsConfiguredExchange(t *testing.T) {
	t.Setenv("TEST_BROKER_KEY", "k")
	t.Setenv("TEST_BROKER_SECRET", "s")

	brk, err := New(testConfig("LIVE", "BYBIT"))
	require.NoError(t, err)
	assert.IsType(t, &bybit.Bybit{}, brk)

	brk, err = New(testConfig("LIVE", "BINANCE"))
	require.NoError(t, err)
	assert.IsType(t, &binance.Binance{}, brk)
}

func TestUnknownExchangeFails(t *testing.T) {
	t.Setenv("TEST_BROKER_KEY", "k")
	t.Setenv("TEST_BROKER_SECRET", "s")

	_, err := New(testConfig("LIVE", "KRAKEN"))
	assert.ErrorContains(t, err, "unknown exchange")
}

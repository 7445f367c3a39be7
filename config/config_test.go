package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "100.0", cfg.Market.InitialPrice)
	assert.Equal(t, "0.0001", cfg.Market.TickSize)
	assert.Equal(t, 0.005, cfg.Market.Spread)
	assert.Equal(t, int64(100), cfg.Market.QuoteQty)
	assert.Equal(t, int64(10), cfg.Sim.OrderQty)
	assert.Equal(t, ":50051", cfg.GRPC.Addr)
	assert.False(t, cfg.Kafka.Enabled)

	// 100.0 at a 0.0001 tick.
	assert.Equal(t, int64(1_000_000), cfg.Market.InitialPriceTicks())
}

func TestLoad_EnvOverride(t *testing.T) {
	t.Setenv("MARKETSIM_MARKET_SPREAD", "0.01")
	t.Setenv("MARKETSIM_SIM_ORDER_QTY", "25")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 0.01, cfg.Market.Spread)
	assert.Equal(t, int64(25), cfg.Sim.OrderQty)
}

func TestLoad_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	body := []byte("market:\n  initial_price: \"250.5\"\n  spread: 0.002\ngrpc:\n  addr: \":9000\"\n")
	require.NoError(t, os.WriteFile(path, body, 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "250.5", cfg.Market.InitialPrice)
	assert.Equal(t, 0.002, cfg.Market.Spread)
	assert.Equal(t, ":9000", cfg.GRPC.Addr)
	// Unset keys keep their defaults.
	assert.Equal(t, "0.0001", cfg.Market.TickSize)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
}

func TestLoad_RejectsBadValues(t *testing.T) {
	cases := map[string]string{
		"MARKETSIM_MARKET_INITIAL_PRICE": "-1",
		"MARKETSIM_MARKET_TICK_SIZE":     "0",
		"MARKETSIM_MARKET_SPREAD":        "1.5",
		"MARKETSIM_SIM_ORDER_QTY":        "0",
		"MARKETSIM_SIM_LIMIT_DEVIATION":  "2",
	}
	for key, val := range cases {
		t.Run(key, func(t *testing.T) {
			t.Setenv(key, val)
			_, err := Load("")
			require.Error(t, err)
		})
	}
}

func TestMarketConfig_TickConversions(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	m := cfg.Market

	price := decimal.RequireFromString("100.2513")
	ticks := m.ToTicks(price)
	assert.Equal(t, int64(1_002_513), ticks)
	assert.True(t, m.ToPrice(ticks).Equal(price), "roundtrip: %s", m.ToPrice(ticks))

	// Prices between ticks round to the nearest tick.
	assert.Equal(t, int64(1_002_513), m.ToTicks(decimal.RequireFromString("100.25134")))
	assert.Equal(t, int64(1_002_514), m.ToTicks(decimal.RequireFromString("100.25136")))
}

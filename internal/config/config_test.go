package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const minimalConfig = `
version: "test"
defaults:
  client:
    timeout: 5s
chains:
  ethereum:
    name: Ethereum
    nodes:
      - https://eth.example.com
      - https://eth-fallback.example.com
    explorer: https://explorer.example.com/api
    native_symbol: ETH
    native_ticker: ETH
    platform_id: 1027
services:
  market_data:
    base_url: https://quotes.example.com
    api_key_env: TEST_MARKET_DATA_KEY
  prediction_market:
    base_url: https://pm.example.com
  bitcoin_indexer:
    base_url: https://btc.example.com/api
  solana:
    nodes:
      - https://sol.example.com
`

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoad(t *testing.T) {
	cfg, err := Load(writeConfig(t, minimalConfig))
	require.NoError(t, err)

	assert.Equal(t, 5*time.Second, cfg.Defaults.Client.Timeout)
	assert.Len(t, cfg.Chains["ethereum"].Nodes, 2)
	assert.Equal(t, "ETH", cfg.Chains["ethereum"].NativeSymbol)

	// Unset durations pick up defaults.
	assert.Equal(t, 5*time.Minute, cfg.Defaults.Cache.ResultTTL)
	assert.Equal(t, time.Hour, cfg.Defaults.Cache.AllowlistTTL)
	assert.Equal(t, 10, cfg.Defaults.Throttle.RPS)
}

func TestLoad_MissingPrimaryChain(t *testing.T) {
	path := writeConfig(t, strings.ReplaceAll(minimalConfig, "ethereum:", "sidechain:"))

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), `"ethereum"`)
}

func TestLoad_InvalidNodeURL(t *testing.T) {
	path := writeConfig(t, strings.ReplaceAll(minimalConfig, "https://eth.example.com", "not a url"))
	_, err := Load(path)
	assert.Error(t, err)
}

func TestExplorers_PrimaryFirst(t *testing.T) {
	p := ChainProfile{
		Explorer:          "https://explorer.example.com/api",
		FallbackExplorers: []string{"https://alt.example.com/api"},
	}
	assert.Equal(t, []string{"https://explorer.example.com/api", "https://alt.example.com/api"}, p.Explorers())

	assert.Equal(t, []string{"https://explorer.example.com/api"}, ChainProfile{Explorer: "https://explorer.example.com/api"}.Explorers())
}

func TestProfile_FallsBackToPrimary(t *testing.T) {
	cfg, err := Load(writeConfig(t, minimalConfig))
	require.NoError(t, err)

	p, used := cfg.Profile("nonexistent")
	assert.Equal(t, DefaultChain, used)
	assert.Equal(t, "Ethereum", p.Name)

	p, used = cfg.Profile("ethereum")
	assert.Equal(t, "ethereum", used)
	assert.Equal(t, "Ethereum", p.Name)
}

func TestMarketDataAPIKey(t *testing.T) {
	cfg, err := Load(writeConfig(t, minimalConfig))
	require.NoError(t, err)

	t.Setenv("TEST_MARKET_DATA_KEY", "secret")
	assert.Equal(t, "secret", cfg.MarketDataAPIKey())

	t.Setenv("TEST_MARKET_DATA_KEY", "")
	assert.Empty(t, cfg.MarketDataAPIKey())
}

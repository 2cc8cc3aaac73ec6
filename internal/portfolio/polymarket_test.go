package portfolio

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fystack/wallet-aggregator/internal/predictionmarket"
)

func TestPredictionMarketAggregator_Fetch(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[
			{"asset": "token1", "title": "Market A", "outcome": "Yes", "size": 100, "curPrice": 0.6, "currentValue": 60.0, "cashPnl": 10, "percentPnl": 20, "redeemable": false},
			{"asset": "token2", "title": "Market B", "outcome": "No", "size": 50, "curPrice": 0.9, "currentValue": 45.0, "cashPnl": -5, "percentPnl": -10, "redeemable": false},
			{"asset": "token3", "title": "Market C", "outcome": "Yes", "size": 10, "curPrice": 0, "currentValue": 0, "redeemable": true}
		]`))
	}))
	defer server.Close()

	agg := NewPredictionMarketAggregator(predictionmarket.NewClient(server.URL, 5*time.Second, nil))
	p, err := agg.Fetch(context.Background(), "0xproxy")
	require.NoError(t, err)

	assert.Equal(t, "Polymarket", p.Chain)
	assert.Equal(t, "polymarket", p.ChainID)
	assert.Equal(t, 3, p.TotalAssets)

	require.NotNil(t, p.NativeBalance)
	assert.Equal(t, "USDC", p.NativeBalance.Symbol)
	assert.Equal(t, "105000000", p.NativeBalance.Balance, "account value as raw USDC")
	assert.InDelta(t, 105.0, p.NativeBalance.MarketValue, 0.0001)

	require.Len(t, p.Tokens, 3)
	assert.Equal(t, "PM-Yes", p.Tokens[0].Symbol)
	assert.InDelta(t, 60.0, p.Tokens[0].MarketValue, 0.0001)
	assert.Equal(t, "Market A", p.Tokens[0].Metadata["title"])

	require.NotEmpty(t, p.TopAssets)
	assert.True(t, p.TopAssets[0].IsNative, "synthetic USDC balance leads the ranked set")
	assert.Contains(t, p.Note, "2 active positions out of 3")
}

func TestPredictionMarketAggregator_EmptyAccount(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[]`))
	}))
	defer server.Close()

	agg := NewPredictionMarketAggregator(predictionmarket.NewClient(server.URL, 5*time.Second, nil))
	p, err := agg.Fetch(context.Background(), "0xproxy")
	require.NoError(t, err)

	assert.Zero(t, p.TotalAssets)
	assert.Empty(t, p.Tokens)
	assert.Equal(t, "0", p.NativeBalance.Balance)
}

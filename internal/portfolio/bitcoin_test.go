package portfolio

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fystack/wallet-aggregator/internal/btcindexer"
	"github.com/fystack/wallet-aggregator/internal/marketdata"
	"github.com/fystack/wallet-aggregator/internal/pricing"
	"github.com/fystack/wallet-aggregator/pkg/common/types"
)

func TestBitcoinAggregator_Fetch(t *testing.T) {
	indexerSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{
			"address": "bc1qtest",
			"chain_stats": {"funded_txo_sum": 500000000, "spent_txo_sum": 150000000, "tx_count": 42}
		}`))
	}))
	defer indexerSrv.Close()
	market := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"data": {"BTC": {"quote": {"USD": {"price": 64000}}}}}`))
	}))
	defer market.Close()

	prices := pricing.NewResolver(marketdata.NewClient(market.URL, "key", 5*time.Second, nil), 5*time.Minute)
	agg := NewBitcoinAggregator(btcindexer.NewClient(indexerSrv.URL, 5*time.Second, nil), prices)

	p, err := agg.Fetch(context.Background(), "bc1qtest")
	require.NoError(t, err)

	require.NotNil(t, p.NativeBalance)
	assert.Equal(t, "BTC", p.NativeBalance.Symbol)
	assert.Equal(t, "350000000", p.NativeBalance.Balance, "funded minus spent")
	assert.InDelta(t, 3.5*64000, p.NativeBalance.MarketValue, 0.01)

	require.NotNil(t, p.Stats)
	assert.Equal(t, uint64(500000000), p.Stats.TotalReceived)
	assert.Equal(t, uint64(150000000), p.Stats.TotalSent)
	assert.Equal(t, 42, p.Stats.TxCount)
}

func TestBitcoinAggregator_IndexerDown(t *testing.T) {
	down := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer down.Close()

	prices := pricing.NewResolver(marketdata.NewClient("http://localhost:0", "", time.Second, nil), 5*time.Minute)
	agg := NewBitcoinAggregator(btcindexer.NewClient(down.URL, 5*time.Second, nil), prices)

	_, err := agg.Fetch(context.Background(), "bc1qtest")
	require.Error(t, err)

	var upstream *types.UpstreamError
	assert.ErrorAs(t, err, &upstream)
}

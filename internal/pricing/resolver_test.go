package pricing

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/fystack/wallet-aggregator/internal/marketdata"
)

func TestResolver_PriceBySymbol_CachesVendorHit(t *testing.T) {
	var calls atomic.Int64
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.Write([]byte(`{"data": {"ETH": {"quote": {"USD": {"price": 2450.32}}}}}`))
	}))
	defer server.Close()

	r := NewResolver(marketdata.NewClient(server.URL, "key", 5*time.Second, nil), 5*time.Minute)

	assert.InDelta(t, 2450.32, r.PriceBySymbol(context.Background(), "ETH"), 0.0001)
	assert.InDelta(t, 2450.32, r.PriceBySymbol(context.Background(), "eth"), 0.0001)
	assert.Equal(t, int64(1), calls.Load(), "second lookup must come from cache")
}

func TestResolver_PriceBySymbol_AliasedSymbol(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "MATIC", r.URL.Query().Get("symbol"), "POL must quote under its vendor alias")
		w.Write([]byte(`{"data": {"MATIC": {"quote": {"USD": {"price": 0.72}}}}}`))
	}))
	defer server.Close()

	r := NewResolver(marketdata.NewClient(server.URL, "key", 5*time.Second, nil), 5*time.Minute)
	assert.InDelta(t, 0.72, r.PriceBySymbol(context.Background(), "POL"), 0.0001)
}

func TestResolver_PriceBySymbol_UnmappedSymbolSkipsVendor(t *testing.T) {
	var calls atomic.Int64
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
	}))
	defer server.Close()

	r := NewResolver(marketdata.NewClient(server.URL, "key", 5*time.Second, nil), 5*time.Minute)
	assert.Zero(t, r.PriceBySymbol(context.Background(), "OBSCURECOIN"))
	assert.Zero(t, calls.Load())
}

func TestResolver_PriceBySymbol_ZeroNotCached(t *testing.T) {
	var calls atomic.Int64
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.Write([]byte(`{"data": {}}`))
	}))
	defer server.Close()

	r := NewResolver(marketdata.NewClient(server.URL, "key", 5*time.Second, nil), 5*time.Minute)
	assert.Zero(t, r.PriceBySymbol(context.Background(), "ETH"))
	assert.Zero(t, r.PriceBySymbol(context.Background(), "ETH"))
	assert.Equal(t, int64(2), calls.Load(), "a vendor miss must stay retryable")
}

func TestResolver_PriceBySymbol_RetriesTransientFailure(t *testing.T) {
	var calls atomic.Int64
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		w.Write([]byte(`{"data": {"ETH": {"quote": {"USD": {"price": 2450.32}}}}}`))
	}))
	defer server.Close()

	r := NewResolver(marketdata.NewClient(server.URL, "key", 5*time.Second, nil), 5*time.Minute)

	assert.InDelta(t, 2450.32, r.PriceBySymbol(context.Background(), "ETH"), 0.0001)
	assert.Equal(t, int64(2), calls.Load(), "one throttled attempt must be retried")
}

func TestResolver_PriceBySymbol_UpstreamFailureDegradesToZero(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer server.Close()

	r := NewResolver(marketdata.NewClient(server.URL, "key", 5*time.Second, nil), 5*time.Minute)
	assert.Zero(t, r.PriceBySymbol(context.Background(), "ETH"))
}

func TestResolver_PriceByContract(t *testing.T) {
	var calls atomic.Int64
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.Write([]byte(`{"data": {"825": [{"quote": {"USD": {"price": 0.9998}}}]}}`))
	}))
	defer server.Close()

	r := NewResolver(marketdata.NewClient(server.URL, "key", 5*time.Second, nil), 5*time.Minute)

	price := r.PriceByContract(context.Background(), "0xdAC17F958D2ee523a2206206994597C13D831ec7")
	assert.InDelta(t, 0.9998, price, 0.0001)

	// Case-insensitive cache key.
	r.PriceByContract(context.Background(), "0xdac17f958d2ee523a2206206994597c13d831ec7")
	assert.Equal(t, int64(1), calls.Load())
}

func TestResolver_NoKeyResolvesToZero(t *testing.T) {
	r := NewResolver(marketdata.NewClient("http://localhost:0", "", time.Second, nil), 5*time.Minute)
	assert.Zero(t, r.PriceBySymbol(context.Background(), "ETH"))
	assert.Zero(t, r.PriceByContract(context.Background(), "0xdac17f958d2ee523a2206206994597c13d831ec7"))
}

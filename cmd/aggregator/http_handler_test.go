package main

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fystack/wallet-aggregator/internal/config"
	"github.com/fystack/wallet-aggregator/internal/service"
)

const evmAddress = "0xd8da6bf26964af9d7eed9e03e53415d37aa96045"

func newTestMux(t *testing.T) *http.ServeMux {
	t.Helper()

	node := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req map[string]any
		json.NewDecoder(r.Body).Decode(&req)
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{"jsonrpc": "2.0", "id": req["id"], "result": "0xde0b6b3a7640000"})
	}))
	t.Cleanup(node.Close)

	explorer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Query().Get("action") {
		case "txlist":
			w.Write([]byte(`{"status": "1", "message": "OK", "result": [
				{"hash": "0x1", "from": "` + evmAddress + `", "to": "0x1111111111111111111111111111111111111111", "value": "5", "timeStamp": "1719870000", "input": "0x", "isError": "0"}
			]}`))
		default:
			w.Write([]byte(`{"status": "0", "message": "No tokens found", "result": []}`))
		}
	}))
	t.Cleanup(explorer.Close)

	pm := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[]`))
	}))
	t.Cleanup(pm.Close)

	cfg := &config.Config{
		Version: "test",
		Defaults: config.Defaults{
			Client:   config.ClientConfig{Timeout: 5 * time.Second},
			Throttle: config.Throttle{RPS: 1000, Burst: 1000},
			Cache: config.CacheConfig{
				ResultTTL:    time.Minute,
				PriceTTL:     time.Minute,
				AllowlistTTL: time.Hour,
			},
		},
		Chains: map[string]config.ChainProfile{
			"ethereum": {
				Name:         "Ethereum",
				Nodes:        []string{node.URL},
				Explorer:     explorer.URL,
				NativeSymbol: "ETH",
				NativeTicker: "ETH",
			},
		},
		Services: config.Services{
			MarketData:       config.MarketDataConfig{BaseURL: "http://localhost:0", APIKeyEnv: "TEST_NO_SUCH_KEY"},
			PredictionMarket: config.PredictionMarketConfig{BaseURL: pm.URL},
			BitcoinIndexer:   config.BitcoinIndexerConfig{BaseURL: "http://localhost:0"},
			Solana:           config.SolanaConfig{Nodes: []string{"http://localhost:0"}},
		},
	}

	svc, err := service.New(cfg)
	require.NoError(t, err)
	t.Cleanup(func() { svc.Close() })

	mux := http.NewServeMux()
	NewAggregatorHTTPHandler("test", svc).Register(mux)
	return mux
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) APIErrorResponse {
	t.Helper()
	var resp APIErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp
}

func TestHandleHealth(t *testing.T) {
	mux := newTestMux(t)

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	require.Equal(t, http.StatusOK, rec.Code)

	var resp HealthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, "test", resp.Version)
}

func TestHandlePortfolio_OK(t *testing.T) {
	mux := newTestMux(t)

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/portfolio?address="+evmAddress, nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var resp map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, evmAddress, resp["address"])
	assert.Equal(t, "Ethereum", resp["chain"])
}

func TestHandlePortfolio_MissingAddress(t *testing.T) {
	mux := newTestMux(t)

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/portfolio", nil))

	require.Equal(t, http.StatusBadRequest, rec.Code)
	resp := decodeError(t, rec)
	assert.Equal(t, "error", resp.Status)
	assert.Equal(t, "MISSING_ADDRESS", resp.Code)
}

func TestHandlePortfolio_UnrecognizedAddress(t *testing.T) {
	mux := newTestMux(t)

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/portfolio?address=not-an-address", nil))

	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Equal(t, "UNRECOGNIZED_ADDRESS", decodeError(t, rec).Code)
}

func TestHandlePortfolio_MethodNotAllowed(t *testing.T) {
	mux := newTestMux(t)

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/v1/portfolio?address="+evmAddress, nil))

	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestHandleActivity_OK(t *testing.T) {
	mux := newTestMux(t)

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/activity?address="+evmAddress, nil))

	require.Equal(t, http.StatusOK, rec.Code)

	var resp map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	txs, ok := resp["transactions"].([]any)
	require.True(t, ok)
	assert.Len(t, txs, 1)
}

func TestHandleActivity_UpstreamFailure(t *testing.T) {
	mux := newTestMux(t)

	// Bitcoin indexer points at a dead endpoint in the test config.
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/activity?address=bc1qar0srrr7xfkvy5l643lydnw9re59gtzzwf5mdq", nil))

	require.Equal(t, http.StatusBadGateway, rec.Code)
	assert.Equal(t, "VENDOR_API_ERROR", decodeError(t, rec).Code)
}

package marketdata

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/fystack/wallet-aggregator/internal/ratelimiter"
	"github.com/fystack/wallet-aggregator/internal/rpc"
)

const apiKeyHeader = "X-CMC_PRO_API_KEY"

// Client talks to the CoinMarketCap pro API. All methods degrade to zero
// values when the vendor rejects the request; pricing is best-effort and must
// never sink a portfolio response.
type Client struct {
	http   *rpc.GenericClient
	hasKey bool
}

func NewClient(baseURL, apiKey string, timeout time.Duration, rateLimiter *ratelimiter.PooledRateLimiter) *Client {
	var auth *rpc.AuthConfig
	if apiKey != "" {
		auth = &rpc.AuthConfig{
			Type:    "custom",
			Headers: map[string]string{apiKeyHeader: apiKey},
		}
	}
	return &Client{
		http:   rpc.NewGenericClient(baseURL, rpc.NetworkGeneric, rpc.ClientTypeREST, auth, timeout, rateLimiter),
		hasKey: apiKey != "",
	}
}

// HasKey reports whether an API key was configured. Without one every quote
// resolves to zero.
func (c *Client) HasKey() bool {
	return c.hasKey
}

type quoteEnvelope struct {
	Data map[string]json.RawMessage `json:"data"`
}

type quoteEntry struct {
	Quote struct {
		USD struct {
			Price float64 `json:"price"`
		} `json:"USD"`
	} `json:"quote"`
}

// QuoteBySymbol returns the USD price for a ticker symbol via the v1 quotes
// endpoint. Unknown symbols quote at zero.
func (c *Client) QuoteBySymbol(ctx context.Context, symbol string) (float64, error) {
	if !c.hasKey {
		return 0, nil
	}
	upper := strings.ToUpper(symbol)
	raw, err := c.http.Do(ctx, http.MethodGet, "/v1/cryptocurrency/quotes/latest", nil,
		map[string]string{"symbol": upper, "convert": "USD"})
	if err != nil {
		return 0, fmt.Errorf("symbol quote failed: %w", err)
	}

	var env quoteEnvelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return 0, fmt.Errorf("invalid quote response: %w", err)
	}
	entry, ok := env.Data[upper]
	if !ok {
		return 0, nil
	}
	return parseQuoteEntry(entry)
}

// QuoteByContract returns the USD price for a token identified by its
// contract address via the v2 quotes endpoint.
func (c *Client) QuoteByContract(ctx context.Context, contractAddress string) (float64, error) {
	if !c.hasKey {
		return 0, nil
	}
	raw, err := c.http.Do(ctx, http.MethodGet, "/v2/cryptocurrency/quotes/latest", nil,
		map[string]string{"address": strings.ToLower(contractAddress), "convert": "USD"})
	if err != nil {
		return 0, fmt.Errorf("contract quote failed: %w", err)
	}

	var env quoteEnvelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return 0, fmt.Errorf("invalid quote response: %w", err)
	}
	// v2 keys the data map by CMC id, which the caller does not know.
	for _, entry := range env.Data {
		price, err := parseQuoteEntry(entry)
		if err != nil {
			continue
		}
		return price, nil
	}
	return 0, nil
}

// parseQuoteEntry handles both shapes the quotes endpoints return: a single
// object (v1) or an array of matches (v2).
func parseQuoteEntry(raw json.RawMessage) (float64, error) {
	var single quoteEntry
	if err := json.Unmarshal(raw, &single); err == nil && single.Quote.USD.Price != 0 {
		return single.Quote.USD.Price, nil
	}
	var many []quoteEntry
	if err := json.Unmarshal(raw, &many); err == nil && len(many) > 0 {
		return many[0].Quote.USD.Price, nil
	}
	return single.Quote.USD.Price, nil
}

type listingsEnvelope struct {
	Data []struct {
		ID       int    `json:"id"`
		Symbol   string `json:"symbol"`
		Platform *struct {
			ID           int    `json:"id"`
			TokenAddress string `json:"token_address"`
		} `json:"platform"`
	} `json:"data"`
}

// TopContractsByPlatform returns the lower-cased contract addresses of the
// top market-cap tokens deployed on the given platform id. Used to build the
// per-chain token allow-list.
func (c *Client) TopContractsByPlatform(ctx context.Context, platformID, limit int) (map[string]struct{}, error) {
	if !c.hasKey {
		return nil, fmt.Errorf("market data key not configured")
	}
	raw, err := c.http.Do(ctx, http.MethodGet, "/v1/cryptocurrency/listings/latest", nil,
		map[string]string{"start": "1", "limit": strconv.Itoa(limit), "convert": "USD"})
	if err != nil {
		return nil, fmt.Errorf("listings fetch failed: %w", err)
	}

	var env listingsEnvelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, fmt.Errorf("invalid listings response: %w", err)
	}

	contracts := make(map[string]struct{})
	for _, listing := range env.Data {
		if listing.Platform == nil || listing.Platform.ID != platformID {
			continue
		}
		if listing.Platform.TokenAddress == "" {
			continue
		}
		contracts[strings.ToLower(listing.Platform.TokenAddress)] = struct{}{}
	}
	return contracts, nil
}

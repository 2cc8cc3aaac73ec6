package explorer

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/fystack/wallet-aggregator/internal/ratelimiter"
	"github.com/fystack/wallet-aggregator/internal/rpc"
)

// Client queries a blockscout-compatible block explorer REST API
// (etherscan-style module/action query surface).
type Client struct {
	*rpc.GenericClient
}

func NewClient(baseURL string, timeout time.Duration, rateLimiter *ratelimiter.PooledRateLimiter) *Client {
	return &Client{
		GenericClient: rpc.NewGenericClient(baseURL, rpc.NetworkEVM, rpc.ClientTypeREST, nil, timeout, rateLimiter),
	}
}

// NewFallback builds an ordered fallback over explorer base URLs; the first
// URL is the primary, the rest are tried in order when it fails.
func NewFallback(baseURLs []string, timeout time.Duration, rateLimiter *ratelimiter.PooledRateLimiter) (*rpc.Fallback[*Client], error) {
	providers := make([]*rpc.Provider, 0, len(baseURLs))
	for i, baseURL := range baseURLs {
		providers = append(providers, &rpc.Provider{
			Name:   fmt.Sprintf("explorer-%d", i),
			URL:    baseURL,
			Client: NewClient(baseURL, timeout, rateLimiter),
		})
	}
	return rpc.NewFallback[*Client](providers...)
}

// TokenHolding is one ERC-20 position reported by the explorer.
type TokenHolding struct {
	ContractAddress string
	Symbol          string
	Name            string
	Balance         string // raw balance in the token's smallest unit
	Decimals        int
}

type tokenListResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
	Result  []struct {
		ContractAddress string `json:"contractAddress"`
		Symbol          string `json:"symbol"`
		Name            string `json:"name"`
		Balance         string `json:"balance"`
		Decimals        string `json:"decimals"`
	} `json:"result"`
}

// TokenList returns the address's token holdings. A status other than "1"
// with an empty result set means "no tokens", not an error.
func (c *Client) TokenList(ctx context.Context, address string) ([]TokenHolding, error) {
	raw, err := c.Do(ctx, http.MethodGet, "", nil, map[string]string{
		"module":  "account",
		"action":  "tokenlist",
		"address": address,
	})
	if err != nil {
		return nil, fmt.Errorf("explorer tokenlist failed: %w", err)
	}

	var resp tokenListResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return nil, fmt.Errorf("invalid explorer tokenlist response: %w", err)
	}
	if resp.Status != "1" {
		if len(resp.Result) == 0 {
			return nil, nil
		}
		return nil, fmt.Errorf("explorer tokenlist rejected: %s", resp.Message)
	}

	holdings := make([]TokenHolding, 0, len(resp.Result))
	for _, token := range resp.Result {
		decimals, err := strconv.Atoi(token.Decimals)
		if err != nil || decimals < 0 {
			decimals = 18
		}
		symbol := token.Symbol
		if symbol == "" {
			symbol = "UNKNOWN"
		}
		holdings = append(holdings, TokenHolding{
			ContractAddress: token.ContractAddress,
			Symbol:          symbol,
			Name:            token.Name,
			Balance:         token.Balance,
			Decimals:        decimals,
		})
	}
	return holdings, nil
}

// Transaction is one raw row of the explorer's txlist endpoint. Fields stay
// as strings the way the explorer reports them; categorization reads them
// without reinterpretation.
type Transaction struct {
	Hash            string `json:"hash"`
	From            string `json:"from"`
	To              string `json:"to"`
	Value           string `json:"value"`
	BlockNumber     string `json:"blockNumber"`
	TimeStamp       string `json:"timeStamp"`
	Gas             string `json:"gas"`
	GasPrice        string `json:"gasPrice"`
	IsError         string `json:"isError"`
	TxReceiptStatus string `json:"txreceipt_status"`
	Input           string `json:"input"`
}

type txListResponse struct {
	Status  string          `json:"status"`
	Message string          `json:"message"`
	Result  json.RawMessage `json:"result"`
}

// TxList returns the address's most recent transactions, newest first,
// bounded by limit.
func (c *Client) TxList(ctx context.Context, address string, limit int) ([]Transaction, error) {
	raw, err := c.Do(ctx, http.MethodGet, "", nil, map[string]string{
		"module":  "account",
		"action":  "txlist",
		"address": address,
		"page":    "1",
		"offset":  strconv.Itoa(limit),
		"sort":    "desc",
	})
	if err != nil {
		return nil, fmt.Errorf("explorer txlist failed: %w", err)
	}

	var resp txListResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return nil, fmt.Errorf("invalid explorer txlist response: %w", err)
	}

	// Blockscout answers message "OK" with status "1"; a "No transactions
	// found" response carries status "0" with an empty result array.
	var txs []Transaction
	if err := json.Unmarshal(resp.Result, &txs); err != nil {
		return nil, fmt.Errorf("explorer txlist result not a transaction array: %s", resp.Message)
	}
	if len(txs) > limit {
		txs = txs[:limit]
	}
	return txs, nil
}

package predictionmarket

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

// Client talks to the Polymarket data API. Positions and activity are keyed
// by the user's proxy wallet address, which is a plain EVM address.
type Client struct {
	http *rpc.GenericClient
}

func NewClient(baseURL string, timeout time.Duration, rateLimiter *ratelimiter.PooledRateLimiter) *Client {
	return &Client{
		http: rpc.NewGenericClient(baseURL, rpc.NetworkGeneric, rpc.ClientTypeREST, nil, timeout, rateLimiter),
	}
}

// Position is one open outcome-share position.
type Position struct {
	Asset           string  `json:"asset"` // outcome token id
	ConditionID     string  `json:"conditionId"`
	Title           string  `json:"title"`
	Outcome         string  `json:"outcome"`
	OppositeOutcome string  `json:"oppositeOutcome"`
	Size            float64 `json:"size"`
	AvgPrice        float64 `json:"avgPrice"`
	CurPrice        float64 `json:"curPrice"`
	InitialValue    float64 `json:"initialValue"`
	CurrentValue    float64 `json:"currentValue"`
	CashPnl         float64 `json:"cashPnl"`
	PercentPnl      float64 `json:"percentPnl"`
	Redeemable      bool    `json:"redeemable"`
	EndDate         string  `json:"endDate"`
	Slug            string  `json:"slug"`
	Icon            string  `json:"icon"`
}

// GetPositions returns the user's open positions. An empty array means the
// address has no Polymarket footprint, not an error.
func (c *Client) GetPositions(ctx context.Context, user string) ([]Position, error) {
	raw, err := c.http.Do(ctx, http.MethodGet, "/positions", nil, map[string]string{"user": user})
	if err != nil {
		return nil, fmt.Errorf("positions fetch failed: %w", err)
	}

	var positions []Position
	if err := json.Unmarshal(raw, &positions); err != nil {
		return nil, fmt.Errorf("invalid positions response: %w", err)
	}
	return positions, nil
}

// ActivityRow is one row of the user's trade history.
type ActivityRow struct {
	TransactionHash string  `json:"transactionHash"`
	ProxyWallet     string  `json:"proxyWallet"`
	Timestamp       int64   `json:"timestamp"`
	ConditionID     string  `json:"conditionId"`
	Type            string  `json:"type"` // TRADE, REDEEM, SPLIT, MERGE, REWARD, CONVERSION
	Side            string  `json:"side"` // BUY or SELL on trades
	Title           string  `json:"title"`
	Outcome         string  `json:"outcome"`
	OutcomeIndex    int     `json:"outcomeIndex"`
	Size            float64 `json:"size"`
	Price           float64 `json:"price"`
	UsdcSize        float64 `json:"usdcSize"`
	Slug            string  `json:"slug"`
	EventSlug       string  `json:"eventSlug"`
	Icon            string  `json:"icon"`
	Pseudonym       string  `json:"pseudonym"`
}

// GetActivity returns the user's most recent activity, newest first, bounded
// by limit.
func (c *Client) GetActivity(ctx context.Context, user string, limit int) ([]ActivityRow, error) {
	raw, err := c.http.Do(ctx, http.MethodGet, "/activity", nil, map[string]string{
		"user":  user,
		"limit": strconv.Itoa(limit),
	})
	if err != nil {
		return nil, fmt.Errorf("activity fetch failed: %w", err)
	}

	var rows []ActivityRow
	if err := json.Unmarshal(raw, &rows); err != nil {
		return nil, fmt.Errorf("invalid activity response: %w", err)
	}
	return rows, nil
}

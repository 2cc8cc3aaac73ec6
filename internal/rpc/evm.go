package rpc

import (
	"context"
	"encoding/json"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/fystack/wallet-aggregator/internal/ratelimiter"
)

// balanceOf(address) selector, used to probe ERC-20 holdings when the
// explorer token list is unavailable.
const erc20BalanceOfSelector = "0x70a08231"

type EvmClient struct {
	*GenericClient
}

func NewEvmClient(url string, auth *AuthConfig, timeout time.Duration, rateLimiter *ratelimiter.PooledRateLimiter) *EvmClient {
	return &EvmClient{
		GenericClient: NewGenericClient(url, NetworkEVM, ClientTypeRPC, auth, timeout, rateLimiter),
	}
}

// GetBalance returns the native balance in wei as a decimal string.
// big.Int parsing is deliberate: wei balances overflow int64 routinely.
func (e *EvmClient) GetBalance(ctx context.Context, address string) (string, error) {
	resp, err := e.CallRPC(ctx, "eth_getBalance", []any{address, "latest"})
	if err != nil {
		return "", fmt.Errorf("eth_getBalance failed: %w", err)
	}

	var balanceHex string
	if err := json.Unmarshal(resp.Result, &balanceHex); err != nil {
		return "", fmt.Errorf("failed to unmarshal balance: %w", err)
	}
	return hexToDecimalString(balanceHex)
}

// Erc20BalanceOf calls balanceOf(holder) on the token contract and returns
// the raw balance in the token's smallest unit as a decimal string.
func (e *EvmClient) Erc20BalanceOf(ctx context.Context, tokenContract, holder string) (string, error) {
	callData := erc20BalanceOfSelector + fmt.Sprintf("%064s", strings.TrimPrefix(strings.ToLower(holder), "0x"))
	params := []any{
		map[string]string{"to": tokenContract, "data": callData},
		"latest",
	}

	resp, err := e.CallRPC(ctx, "eth_call", params)
	if err != nil {
		return "", fmt.Errorf("eth_call balanceOf failed: %w", err)
	}

	var resultHex string
	if err := json.Unmarshal(resp.Result, &resultHex); err != nil {
		return "", fmt.Errorf("failed to unmarshal call result: %w", err)
	}
	return hexToDecimalString(resultHex)
}

func hexToDecimalString(hexValue string) (string, error) {
	trimmed := strings.TrimPrefix(hexValue, "0x")
	if trimmed == "" {
		return "0", nil
	}
	n, ok := new(big.Int).SetString(trimmed, 16)
	if !ok {
		return "", fmt.Errorf("invalid hex quantity %q", hexValue)
	}
	return n.String(), nil
}

// NewEvmFallback builds an ordered fallback over a chain's RPC node list.
func NewEvmFallback(nodes []string, timeout time.Duration, rateLimiter *ratelimiter.PooledRateLimiter) (*Fallback[*EvmClient], error) {
	providers := make([]*Provider, 0, len(nodes))
	for i, node := range nodes {
		providers = append(providers, &Provider{
			Name:   fmt.Sprintf("evm-%d", i),
			URL:    node,
			Client: NewEvmClient(node, nil, timeout, rateLimiter),
		})
	}
	return NewFallback[*EvmClient](providers...)
}

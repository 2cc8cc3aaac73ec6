package rpc

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/fystack/wallet-aggregator/internal/ratelimiter"
)

// SPL Token program id; getTokenAccountsByOwner is scoped to it.
const splTokenProgramID = "TokenkegQfeZyiNwAJbNbGKPFXCWuBvf9Ss623VQ5DA"

type SolanaClient struct {
	*GenericClient
}

func NewSolanaClient(url string, auth *AuthConfig, timeout time.Duration, rateLimiter *ratelimiter.PooledRateLimiter) *SolanaClient {
	return &SolanaClient{
		GenericClient: NewGenericClient(url, NetworkSolana, ClientTypeRPC, auth, timeout, rateLimiter),
	}
}

// SolanaBalanceResponse represents the response of getBalance
type SolanaBalanceResponse struct {
	Context struct {
		Slot uint64 `json:"slot"`
	} `json:"context"`
	Value uint64 `json:"value"`
}

// GetBalance returns account balance in lamports
func (s *SolanaClient) GetBalance(ctx context.Context, address string) (uint64, error) {
	resp, err := s.CallRPC(ctx, "getBalance", []any{address})
	if err != nil {
		return 0, fmt.Errorf("getBalance failed: %w", err)
	}
	var br SolanaBalanceResponse
	if err := json.Unmarshal(resp.Result, &br); err != nil {
		return 0, fmt.Errorf("failed to unmarshal balance: %w", err)
	}
	return br.Value, nil
}

// SplTokenAccount is one SPL token account owned by the queried address.
type SplTokenAccount struct {
	Mint     string
	Amount   string // raw amount in the token's smallest unit
	Decimals int
}

type tokenAccountsResult struct {
	Value []struct {
		Account struct {
			Data struct {
				Parsed struct {
					Info struct {
						Mint        string `json:"mint"`
						TokenAmount struct {
							Amount   string `json:"amount"`
							Decimals int    `json:"decimals"`
						} `json:"tokenAmount"`
					} `json:"info"`
				} `json:"parsed"`
			} `json:"data"`
		} `json:"account"`
	} `json:"value"`
}

// GetTokenAccountsByOwner returns the SPL token accounts held by owner.
func (s *SolanaClient) GetTokenAccountsByOwner(ctx context.Context, owner string) ([]SplTokenAccount, error) {
	params := []any{
		owner,
		map[string]string{"programId": splTokenProgramID},
		map[string]string{"encoding": "jsonParsed"},
	}
	resp, err := s.CallRPC(ctx, "getTokenAccountsByOwner", params)
	if err != nil {
		return nil, fmt.Errorf("getTokenAccountsByOwner failed: %w", err)
	}

	var result tokenAccountsResult
	if err := json.Unmarshal(resp.Result, &result); err != nil {
		return nil, fmt.Errorf("failed to unmarshal token accounts: %w", err)
	}

	accounts := make([]SplTokenAccount, 0, len(result.Value))
	for _, v := range result.Value {
		info := v.Account.Data.Parsed.Info
		accounts = append(accounts, SplTokenAccount{
			Mint:     info.Mint,
			Amount:   info.TokenAmount.Amount,
			Decimals: info.TokenAmount.Decimals,
		})
	}
	return accounts, nil
}

// SolanaSignature is one entry of getSignaturesForAddress.
type SolanaSignature struct {
	Signature string          `json:"signature"`
	Slot      uint64          `json:"slot"`
	BlockTime *int64          `json:"blockTime"`
	Err       json.RawMessage `json:"err"`
	Memo      string          `json:"memo"`
}

// GetSignaturesForAddress returns the most recent transaction signatures
// touching address, newest first, bounded by limit.
func (s *SolanaClient) GetSignaturesForAddress(ctx context.Context, address string, limit int) ([]SolanaSignature, error) {
	resp, err := s.CallRPC(ctx, "getSignaturesForAddress", []any{address, map[string]int{"limit": limit}})
	if err != nil {
		return nil, fmt.Errorf("getSignaturesForAddress failed: %w", err)
	}

	var sigs []SolanaSignature
	if err := json.Unmarshal(resp.Result, &sigs); err != nil {
		return nil, fmt.Errorf("failed to unmarshal signatures: %w", err)
	}
	return sigs, nil
}

// NewSolanaFallback builds an ordered fallback over the Solana node list.
func NewSolanaFallback(nodes []string, timeout time.Duration, rateLimiter *ratelimiter.PooledRateLimiter) (*Fallback[*SolanaClient], error) {
	providers := make([]*Provider, 0, len(nodes))
	for i, node := range nodes {
		providers = append(providers, &Provider{
			Name:   fmt.Sprintf("solana-%d", i),
			URL:    node,
			Client: NewSolanaClient(node, nil, timeout, rateLimiter),
		})
	}
	return NewFallback[*SolanaClient](providers...)
}

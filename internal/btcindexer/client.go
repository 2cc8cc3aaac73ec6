package btcindexer

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/fystack/wallet-aggregator/internal/ratelimiter"
	"github.com/fystack/wallet-aggregator/internal/rpc"
)

// Client queries an esplora-compatible Bitcoin indexer (blockstream.info API
// shape).
type Client struct {
	http *rpc.GenericClient
}

func NewClient(baseURL string, timeout time.Duration, rateLimiter *ratelimiter.PooledRateLimiter) *Client {
	return &Client{
		http: rpc.NewGenericClient(baseURL, rpc.NetworkBitcoin, rpc.ClientTypeREST, nil, timeout, rateLimiter),
	}
}

// AddressInfo is the confirmed ledger view of a Bitcoin address. The spendable
// balance is FundedSum minus SpentSum, both in satoshis.
type AddressInfo struct {
	Address    string `json:"address"`
	ChainStats struct {
		FundedTxoSum uint64 `json:"funded_txo_sum"`
		SpentTxoSum  uint64 `json:"spent_txo_sum"`
		TxCount      int    `json:"tx_count"`
	} `json:"chain_stats"`
	MempoolStats struct {
		FundedTxoSum uint64 `json:"funded_txo_sum"`
		SpentTxoSum  uint64 `json:"spent_txo_sum"`
		TxCount      int    `json:"tx_count"`
	} `json:"mempool_stats"`
}

// BalanceSats returns the confirmed spendable balance in satoshis.
func (a *AddressInfo) BalanceSats() uint64 {
	if a.ChainStats.SpentTxoSum > a.ChainStats.FundedTxoSum {
		return 0
	}
	return a.ChainStats.FundedTxoSum - a.ChainStats.SpentTxoSum
}

// GetAddress returns the aggregate stats for a Bitcoin address.
func (c *Client) GetAddress(ctx context.Context, address string) (*AddressInfo, error) {
	raw, err := c.http.Do(ctx, http.MethodGet, "/address/"+address, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("bitcoin address lookup failed: %w", err)
	}

	var info AddressInfo
	if err := json.Unmarshal(raw, &info); err != nil {
		return nil, fmt.Errorf("invalid bitcoin address response: %w", err)
	}
	return &info, nil
}

// Vin is one transaction input.
type Vin struct {
	TxID    string `json:"txid"`
	Prevout *Vout  `json:"prevout"`
}

// Vout is one transaction output.
type Vout struct {
	ScriptPubKey        string `json:"scriptpubkey"`
	ScriptPubKeyType    string `json:"scriptpubkey_type"`
	ScriptPubKeyAddress string `json:"scriptpubkey_address"`
	Value               uint64 `json:"value"`
}

// Transaction is one raw indexer transaction row.
type Transaction struct {
	TxID   string `json:"txid"`
	Fee    uint64 `json:"fee"`
	Size   int    `json:"size"`
	Weight int    `json:"weight"`
	Vin    []Vin  `json:"vin"`
	Vout   []Vout `json:"vout"`
	Status struct {
		Confirmed   bool   `json:"confirmed"`
		BlockHeight int    `json:"block_height"`
		BlockTime   int64  `json:"block_time"`
		BlockHash   string `json:"block_hash"`
	} `json:"status"`
}

// GetTransactions returns the address's most recent transactions, newest
// first, bounded by limit.
func (c *Client) GetTransactions(ctx context.Context, address string, limit int) ([]Transaction, error) {
	raw, err := c.http.Do(ctx, http.MethodGet, "/address/"+address+"/txs", nil, nil)
	if err != nil {
		return nil, fmt.Errorf("bitcoin tx lookup failed: %w", err)
	}

	var txs []Transaction
	if err := json.Unmarshal(raw, &txs); err != nil {
		return nil, fmt.Errorf("invalid bitcoin tx response: %w", err)
	}
	if len(txs) > limit {
		txs = txs[:limit]
	}
	return txs, nil
}

package activity

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/fystack/wallet-aggregator/internal/btcindexer"
	"github.com/fystack/wallet-aggregator/internal/config"
	"github.com/fystack/wallet-aggregator/internal/explorer"
	"github.com/fystack/wallet-aggregator/internal/predictionmarket"
	"github.com/fystack/wallet-aggregator/internal/ratelimiter"
	"github.com/fystack/wallet-aggregator/internal/rpc"
	"github.com/fystack/wallet-aggregator/pkg/common/enum"
	"github.com/fystack/wallet-aggregator/pkg/common/types"
	"github.com/shopspring/decimal"
)

// EvmFetcher pulls recent transactions for one EVM chain from its explorer
// list and runs each row through the categorizer. Explorers are tried in
// order; the first one that answers wins.
type EvmFetcher struct {
	chainID   string
	profile   config.ChainProfile
	explorers *rpc.Fallback[*explorer.Client]
}

func NewEvmFetcher(chainID string, profile config.ChainProfile, timeout time.Duration, rateLimiter *ratelimiter.PooledRateLimiter) (*EvmFetcher, error) {
	explorers, err := explorer.NewFallback(profile.Explorers(), timeout, rateLimiter)
	if err != nil {
		return nil, fmt.Errorf("build explorer fallback for %s: %w", chainID, err)
	}
	return &EvmFetcher{
		chainID:   chainID,
		profile:   profile,
		explorers: explorers,
	}, nil
}

func (f *EvmFetcher) Fetch(ctx context.Context, address string) (*Activity, error) {
	var txs []explorer.Transaction
	err := f.explorers.Execute(ctx, func(c *explorer.Client) error {
		var err error
		txs, err = c.TxList(ctx, address, txWindow)
		return err
	})
	if err != nil {
		return nil, &types.UpstreamError{Source: f.chainID + " explorer", Err: err}
	}

	rows := make([]Transaction, 0, len(txs))
	for _, tx := range txs {
		timestamp, _ := strconv.ParseInt(tx.TimeStamp, 10, 64)
		rows = append(rows, Transaction{
			ID:        tx.Hash,
			From:      tx.From,
			To:        tx.To,
			Value:     tx.Value,
			Timestamp: timestamp,
			Category:  CategorizeEVM(tx, address),
			Raw: map[string]any{
				"blockNumber": tx.BlockNumber,
				"gas":         tx.Gas,
				"gasPrice":    tx.GasPrice,
				"isError":     tx.IsError,
				"input":       tx.Input,
			},
		})
	}

	return &Activity{
		Address:      address,
		Chain:        f.profile.Name,
		ChainID:      f.chainID,
		Transactions: rows,
	}, nil
}

// SolanaFetcher pulls recent signatures over the RPC node list.
type SolanaFetcher struct {
	nodes *rpc.Fallback[*rpc.SolanaClient]
}

func NewSolanaFetcher(nodes *rpc.Fallback[*rpc.SolanaClient]) *SolanaFetcher {
	return &SolanaFetcher{nodes: nodes}
}

func (f *SolanaFetcher) Fetch(ctx context.Context, address string) (*Activity, error) {
	var sigs []rpc.SolanaSignature
	err := f.nodes.Execute(ctx, func(c *rpc.SolanaClient) error {
		var err error
		sigs, err = c.GetSignaturesForAddress(ctx, address, txWindow)
		return err
	})
	if err != nil {
		return nil, &types.UpstreamError{Source: "solana rpc", Err: err}
	}

	rows := make([]Transaction, 0, len(sigs))
	for _, sig := range sigs {
		var timestamp int64
		if sig.BlockTime != nil {
			timestamp = *sig.BlockTime
		}
		rows = append(rows, Transaction{
			ID:        sig.Signature,
			Timestamp: timestamp,
			Category:  CategorizeSolana(sig),
			Raw: map[string]any{
				"slot": sig.Slot,
				"err":  sig.Err,
				"memo": sig.Memo,
			},
		})
	}

	return &Activity{Address: address, Chain: "SOL", Transactions: rows}, nil
}

// BitcoinFetcher pulls recent transactions from the Bitcoin indexer.
type BitcoinFetcher struct {
	indexer *btcindexer.Client
}

func NewBitcoinFetcher(indexer *btcindexer.Client) *BitcoinFetcher {
	return &BitcoinFetcher{indexer: indexer}
}

func (f *BitcoinFetcher) Fetch(ctx context.Context, address string) (*Activity, error) {
	txs, err := f.indexer.GetTransactions(ctx, address, txWindow)
	if err != nil {
		return nil, &types.UpstreamError{Source: "bitcoin indexer", Err: err}
	}

	rows := make([]Transaction, 0, len(txs))
	for _, tx := range txs {
		rows = append(rows, Transaction{
			ID:        tx.TxID,
			Timestamp: tx.Status.BlockTime,
			Category:  CategorizeBitcoin(tx, address),
			Raw: map[string]any{
				"blockHeight": tx.Status.BlockHeight,
				"confirmed":   tx.Status.Confirmed,
				"fee":         tx.Fee,
				"size":        tx.Size,
				"weight":      tx.Weight,
				"inputCount":  len(tx.Vin),
				"outputCount": len(tx.Vout),
			},
		})
	}

	return &Activity{Address: address, Chain: "BTC", Transactions: rows}, nil
}

// PredictionMarketFetcher renders an account's trade history as activity
// rows; every row is a prediction-market bet.
type PredictionMarketFetcher struct {
	client *predictionmarket.Client
}

func NewPredictionMarketFetcher(client *predictionmarket.Client) *PredictionMarketFetcher {
	return &PredictionMarketFetcher{client: client}
}

func (f *PredictionMarketFetcher) Fetch(ctx context.Context, address string) (*Activity, error) {
	activityRows, err := f.client.GetActivity(ctx, address, txWindow)
	if err != nil {
		return nil, &types.UpstreamError{Source: "prediction market", Err: err}
	}

	rows := make([]Transaction, 0, len(activityRows))
	for _, row := range activityRows {
		rows = append(rows, Transaction{
			ID:        row.TransactionHash,
			From:      row.ProxyWallet,
			To:        "Polymarket",
			Value:     decimal.NewFromFloat(row.UsdcSize).Shift(6).Round(0).String(),
			Timestamp: row.Timestamp,
			Category:  enum.CategoryPredictionMarketBet,
			Raw: map[string]any{
				"type":         row.Type,
				"side":         row.Side,
				"size":         row.Size,
				"price":        row.Price,
				"usdcSize":     row.UsdcSize,
				"title":        row.Title,
				"outcome":      row.Outcome,
				"outcomeIndex": row.OutcomeIndex,
				"conditionId":  row.ConditionID,
				"slug":         row.Slug,
				"eventSlug":    row.EventSlug,
				"icon":         row.Icon,
				"pseudonym":    row.Pseudonym,
			},
		})
	}

	return &Activity{
		Address:      address,
		Chain:        "Polymarket",
		ChainID:      "polymarket",
		Transactions: rows,
	}, nil
}

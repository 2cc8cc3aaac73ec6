package portfolio

import (
	"context"
	"strconv"

	"github.com/fystack/wallet-aggregator/internal/pricing"
	"github.com/fystack/wallet-aggregator/internal/rpc"
	"github.com/fystack/wallet-aggregator/pkg/common/logger"
	"github.com/fystack/wallet-aggregator/pkg/common/types"
)

// SolanaAggregator builds the portfolio view for a Solana address: native SOL
// plus SPL token accounts. SPL token prices are unresolved (reported as zero)
// pending token metadata support, so they never reach the ranked set.
type SolanaAggregator struct {
	nodes  *rpc.Fallback[*rpc.SolanaClient]
	prices *pricing.Resolver
}

func NewSolanaAggregator(nodes *rpc.Fallback[*rpc.SolanaClient], prices *pricing.Resolver) *SolanaAggregator {
	return &SolanaAggregator{nodes: nodes, prices: prices}
}

func (a *SolanaAggregator) Fetch(ctx context.Context, address string) (*Portfolio, error) {
	var lamports uint64
	err := a.nodes.Execute(ctx, func(c *rpc.SolanaClient) error {
		var err error
		lamports, err = c.GetBalance(ctx, address)
		return err
	})
	if err != nil {
		return nil, &types.UpstreamError{Source: "solana rpc", Err: err}
	}

	var tokenAccounts []rpc.SplTokenAccount
	err = a.nodes.Execute(ctx, func(c *rpc.SolanaClient) error {
		var err error
		tokenAccounts, err = c.GetTokenAccountsByOwner(ctx, address)
		return err
	})
	if err != nil {
		logger.Warn("spl token accounts unavailable", "address", address, "error", err)
		tokenAccounts = nil
	}

	balance := strconv.FormatUint(lamports, 10)
	price := a.prices.PriceBySymbol(ctx, "SOL")

	all := make([]Asset, 0, len(tokenAccounts)+1)
	all = append(all, Asset{
		Symbol:      "SOL",
		Balance:     balance,
		Decimals:    9,
		Price:       price,
		MarketValue: marketValue(balance, 9, price),
		IsNative:    true,
	})
	for _, account := range tokenAccounts {
		all = append(all, Asset{
			Symbol:          "SPL Token",
			ContractAddress: account.Mint,
			Balance:         account.Amount,
			Decimals:        account.Decimals,
		})
	}

	ranked, total := rank(all, topAssetLimit)
	nativeRanked, tokenRanked := splitRanked(ranked)

	return &Portfolio{
		Address:       address,
		Chain:         "SOL",
		NativeBalance: nativeRanked,
		Tokens:        tokenRanked,
		TopAssets:     ranked,
		TotalAssets:   total,
	}, nil
}

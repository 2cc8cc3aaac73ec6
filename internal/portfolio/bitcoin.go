package portfolio

import (
	"context"
	"strconv"

	"github.com/fystack/wallet-aggregator/internal/btcindexer"
	"github.com/fystack/wallet-aggregator/internal/pricing"
	"github.com/fystack/wallet-aggregator/pkg/common/types"
)

// BitcoinAggregator builds the portfolio view for a Bitcoin address. There is
// no token concept; the balance is cumulative funded minus spent outputs.
type BitcoinAggregator struct {
	indexer *btcindexer.Client
	prices  *pricing.Resolver
}

func NewBitcoinAggregator(indexer *btcindexer.Client, prices *pricing.Resolver) *BitcoinAggregator {
	return &BitcoinAggregator{indexer: indexer, prices: prices}
}

func (a *BitcoinAggregator) Fetch(ctx context.Context, address string) (*Portfolio, error) {
	info, err := a.indexer.GetAddress(ctx, address)
	if err != nil {
		return nil, &types.UpstreamError{Source: "bitcoin indexer", Err: err}
	}

	balance := strconv.FormatUint(info.BalanceSats(), 10)
	price := a.prices.PriceBySymbol(ctx, "BTC")
	native := Asset{
		Symbol:      "BTC",
		Balance:     balance,
		Decimals:    8,
		Price:       price,
		MarketValue: marketValue(balance, 8, price),
		IsNative:    true,
	}

	ranked, total := rank([]Asset{native}, topAssetLimit)
	nativeRanked, _ := splitRanked(ranked)

	return &Portfolio{
		Address:       address,
		Chain:         "BTC",
		NativeBalance: nativeRanked,
		Tokens:        []Asset{},
		TopAssets:     ranked,
		TotalAssets:   total,
		Stats: &BitcoinStats{
			TotalReceived: info.ChainStats.FundedTxoSum,
			TotalSent:     info.ChainStats.SpentTxoSum,
			TxCount:       info.ChainStats.TxCount,
		},
	}, nil
}

package portfolio

import (
	"sort"

	"github.com/shopspring/decimal"
)

// Asset is one valued holding in a portfolio response. Balance stays a raw
// integer string in the asset's smallest unit; MarketValue carries the USD
// valuation.
type Asset struct {
	Symbol          string         `json:"symbol"`
	ContractAddress string         `json:"contractAddress,omitempty"`
	Name            string         `json:"name,omitempty"`
	Balance         string         `json:"balance"`
	Decimals        int            `json:"decimals"`
	Price           float64        `json:"price"`
	MarketValue     float64        `json:"marketValue"`
	IsNative        bool           `json:"isNative"`
	Metadata        map[string]any `json:"metadata,omitempty"`
}

// BitcoinStats summarizes the cumulative ledger activity of a Bitcoin
// address, all values in satoshis.
type BitcoinStats struct {
	TotalReceived uint64 `json:"totalReceived"`
	TotalSent     uint64 `json:"totalSent"`
	TxCount       int    `json:"txCount"`
}

// Portfolio is the normalized portfolio view for one address on one chain.
type Portfolio struct {
	Address       string        `json:"address"`
	Chain         string        `json:"chain"`
	ChainID       string        `json:"chainId,omitempty"`
	NativeBalance *Asset        `json:"nativeBalance"`
	Tokens        []Asset       `json:"tokens"`
	TopAssets     []Asset       `json:"topAssets"`
	TotalAssets   int           `json:"totalAssets"`
	Note          string        `json:"note,omitempty"`
	Stats         *BitcoinStats `json:"stats,omitempty"`
}

// topAssetLimit bounds the ranked display set for blockchain portfolios.
const topAssetLimit = 5

// marketValue computes balanceRaw / 10^decimals * price without going
// through float64 for the balance; raw balances routinely exceed the float64
// integer range.
func marketValue(balanceRaw string, decimals int, price float64) float64 {
	if price == 0 {
		return 0
	}
	balance, err := decimal.NewFromString(balanceRaw)
	if err != nil {
		return 0
	}
	return balance.Shift(int32(-decimals)).Mul(decimal.NewFromFloat(price)).InexactFloat64()
}

// hasPositiveBalance reports whether a raw integer-string balance is > 0.
func hasPositiveBalance(balanceRaw string) bool {
	balance, err := decimal.NewFromString(balanceRaw)
	if err != nil {
		return false
	}
	return balance.IsPositive()
}

// rank filters and orders assets for display: the native asset is always
// retained while its balance is positive, even unpriced; every other asset
// needs a positive price and market value. The native asset sorts first,
// the rest descend by market value with fetch order breaking ties.
func rank(assets []Asset, limit int) (top []Asset, total int) {
	kept := make([]Asset, 0, len(assets))
	for _, a := range assets {
		if a.IsNative {
			if hasPositiveBalance(a.Balance) {
				kept = append(kept, a)
			}
			continue
		}
		if a.Price > 0 && a.MarketValue > 0 {
			kept = append(kept, a)
		}
	}

	sort.SliceStable(kept, func(i, j int) bool {
		if kept[i].IsNative != kept[j].IsNative {
			return kept[i].IsNative
		}
		return kept[i].MarketValue > kept[j].MarketValue
	})

	total = len(kept)
	if len(kept) > limit {
		kept = kept[:limit]
	}
	return kept, total
}

// splitRanked separates the ranked set into the native asset and the token
// remainder for response assembly.
func splitRanked(ranked []Asset) (native *Asset, tokens []Asset) {
	tokens = make([]Asset, 0, len(ranked))
	for i := range ranked {
		if ranked[i].IsNative && native == nil {
			native = &ranked[i]
			continue
		}
		tokens = append(tokens, ranked[i])
	}
	return native, tokens
}

package pricing

import (
	"context"
	"strings"
	"time"

	"github.com/fystack/wallet-aggregator/internal/cache"
	"github.com/fystack/wallet-aggregator/internal/marketdata"
	"github.com/fystack/wallet-aggregator/pkg/common/logger"
	"github.com/fystack/wallet-aggregator/pkg/retry"
)

// Vendor quote retry budget. Transient throttles get one more shot; anything
// longer and the lookup degrades to zero instead of stalling the query.
const (
	quoteAttempts = 2
	quoteInterval = 200 * time.Millisecond
)

// quoteSymbols maps on-chain ticker symbols to the symbol the market data
// vendor quotes them under. Symbols outside this set are priced by contract
// address or not at all.
var quoteSymbols = map[string]string{
	"ETH":   "ETH",
	"POL":   "MATIC",
	"MATIC": "MATIC",
	"BNB":   "BNB",
	"AVAX":  "AVAX",
	"FTM":   "FTM",
	"XDAI":  "XDAI",
	"CELO":  "CELO",
	"GLMR":  "GLMR",
	"CRO":   "CRO",
	"MNT":   "MNT",
	"USDT":  "USDT",
	"USDC":  "USDC",
	"WETH":  "WETH",
	"WBTC":  "WBTC",
	"DAI":   "DAI",
	"SOL":   "SOL",
	"KNC":   "KNC",
	"UNI":   "UNI",
	"LINK":  "LINK",
	"AAVE":  "AAVE",
	"MKR":   "MKR",
	"SNX":   "SNX",
	"COMP":  "COMP",
	"CRV":   "CRV",
	"SUSHI": "SUSHI",
	"YFI":   "YFI",
	"BAL":   "BAL",
	"BTC":   "BTC",
}

// Resolver turns symbols and contract addresses into USD prices, with a TTL
// cache in front of the vendor. Pricing is best-effort: any failure resolves
// to zero so balances still render without market values.
type Resolver struct {
	client *marketdata.Client
	prices *cache.Store[float64]
}

func NewResolver(client *marketdata.Client, ttl time.Duration) *Resolver {
	return &Resolver{
		client: client,
		prices: cache.New[float64](ttl),
	}
}

// PriceBySymbol resolves the USD price of a ticker symbol. Symbols without a
// vendor mapping resolve to zero without a network call.
func (r *Resolver) PriceBySymbol(ctx context.Context, symbol string) float64 {
	vendorSymbol, ok := quoteSymbols[strings.ToUpper(symbol)]
	if !ok || !r.client.HasKey() {
		return 0
	}

	key := "sym:" + vendorSymbol
	if price, ok := r.prices.Get(key); ok {
		return price
	}

	var price float64
	err := retry.Constant(func() error {
		var err error
		price, err = r.client.QuoteBySymbol(ctx, vendorSymbol)
		return err
	}, quoteInterval, quoteAttempts)
	if err != nil {
		logger.Warn("symbol price lookup failed", "symbol", vendorSymbol, "error", err)
		return 0
	}
	// Zero means "vendor does not know"; caching it would pin the miss for
	// the full TTL.
	if price > 0 {
		r.prices.Put(key, price)
	}
	return price
}

// PriceByContract resolves the USD price of a token by contract address.
func (r *Resolver) PriceByContract(ctx context.Context, contractAddress string) float64 {
	if !r.client.HasKey() {
		return 0
	}

	key := "addr:" + strings.ToLower(contractAddress)
	if price, ok := r.prices.Get(key); ok {
		return price
	}

	var price float64
	err := retry.Constant(func() error {
		var err error
		price, err = r.client.QuoteByContract(ctx, contractAddress)
		return err
	}, quoteInterval, quoteAttempts)
	if err != nil {
		logger.Warn("contract price lookup failed", "contract", contractAddress, "error", err)
		return 0
	}
	if price > 0 {
		r.prices.Put(key, price)
	}
	return price
}

package portfolio

import (
	"context"
	"fmt"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/fystack/wallet-aggregator/internal/cache"
	"github.com/fystack/wallet-aggregator/internal/config"
	"github.com/fystack/wallet-aggregator/internal/explorer"
	"github.com/fystack/wallet-aggregator/internal/marketdata"
	"github.com/fystack/wallet-aggregator/internal/pricing"
	"github.com/fystack/wallet-aggregator/internal/ratelimiter"
	"github.com/fystack/wallet-aggregator/internal/rpc"
	"github.com/fystack/wallet-aggregator/pkg/common/logger"
	"github.com/fystack/wallet-aggregator/pkg/common/types"
	"github.com/fystack/wallet-aggregator/pkg/retry"
)

// probeToken is one well-known ERC-20 checked directly over RPC when the
// explorer token list is down.
type probeToken struct {
	address  string
	symbol   string
	decimals int
}

// Mainnet blue-chips; the explorer outage path trades completeness for
// availability.
var commonProbeTokens = []probeToken{
	{"0xdac17f958d2ee523a2206206994597c13d831ec7", "USDT", 6},
	{"0xa0b86991c6218b36c1d19d4a2e9eb0ce3606eb48", "USDC", 6},
	{"0xc02aaa39b223fe8d0a0e5c4f27ead9083c756cc2", "WETH", 18},
	{"0x2260fac5e5542a773aa44fbcfedf7c193bc2c599", "WBTC", 8},
	{"0x6b175474e89094c44da98b954eedeac495271d0f", "DAI", 18},
	{"0xdefa4e8a7bcba345f687a2f1456f5edd9ce97202", "KNC", 18},
	{"0x1f9840a85d5af5bf1d1762f925bdaddc4201f984", "UNI", 18},
	{"0x514910771af9ca656af840dff83e8264ecf986ca", "LINK", 18},
	{"0x7fc66500c84a76ad7e9c93437bfc5ac33e2ddae9", "AAVE", 18},
	{"0x9f8f72aa9304c8b593d555f12ef6589cc3a579a2", "MKR", 18},
}

// EvmAggregator builds the portfolio view for one EVM chain: native balance
// over the RPC node list, token holdings from the explorer, prices from the
// market-data vendor, all best-effort and independently degradable.
type EvmAggregator struct {
	chainID   string
	profile   config.ChainProfile
	nodes     *rpc.Fallback[*rpc.EvmClient]
	explorer  *explorer.Client
	market    *marketdata.Client
	prices    *pricing.Resolver
	allowlist *cache.AllowlistStore
}

func NewEvmAggregator(
	chainID string,
	profile config.ChainProfile,
	timeout time.Duration,
	rateLimiter *ratelimiter.PooledRateLimiter,
	market *marketdata.Client,
	prices *pricing.Resolver,
	allowlist *cache.AllowlistStore,
) (*EvmAggregator, error) {
	nodes, err := rpc.NewEvmFallback(profile.Nodes, timeout, rateLimiter)
	if err != nil {
		return nil, fmt.Errorf("build rpc fallback for %s: %w", chainID, err)
	}
	return &EvmAggregator{
		chainID:   chainID,
		profile:   profile,
		nodes:     nodes,
		explorer:  explorer.NewClient(profile.Explorer, timeout, rateLimiter),
		market:    market,
		prices:    prices,
		allowlist: allowlist,
	}, nil
}

// Fetch assembles the portfolio. Native balance and the token list travel
// independent paths; one failing does not abort the other. Only when both
// fail is the whole fetch reported as an upstream failure.
func (a *EvmAggregator) Fetch(ctx context.Context, address string) (*Portfolio, error) {
	var (
		native    *Asset
		nativeErr error
		tokens    []Asset
		tokensErr error
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		native, nativeErr = a.fetchNative(gctx, address)
		return nil
	})
	g.Go(func() error {
		tokens, tokensErr = a.fetchTokens(gctx, address)
		return nil
	})
	g.Wait()

	if nativeErr != nil && tokensErr != nil {
		multi := &types.MultiError{}
		multi.Add(fmt.Errorf("native: %w", nativeErr))
		multi.Add(fmt.Errorf("tokens: %w", tokensErr))
		return nil, &types.UpstreamError{
			Source: a.chainID + " portfolio",
			Err:    multi,
		}
	}
	if nativeErr != nil {
		logger.Warn("native balance unavailable", "chain", a.chainID, "address", address, "error", nativeErr)
	}
	if tokensErr != nil {
		logger.Warn("token holdings unavailable", "chain", a.chainID, "address", address, "error", tokensErr)
	}

	all := make([]Asset, 0, len(tokens)+1)
	if native != nil {
		all = append(all, *native)
	}
	all = append(all, tokens...)

	ranked, total := rank(all, topAssetLimit)
	nativeRanked, tokenRanked := splitRanked(ranked)

	p := &Portfolio{
		Address:       address,
		Chain:         a.profile.Name,
		ChainID:       a.chainID,
		NativeBalance: nativeRanked,
		Tokens:        tokenRanked,
		TopAssets:     ranked,
		TotalAssets:   total,
	}
	if len(tokens) > 0 {
		p.Note = fmt.Sprintf("Showing only tokens from top 100 by market cap on %s", a.profile.Name)
	}
	return p, nil
}

func (a *EvmAggregator) fetchNative(ctx context.Context, address string) (*Asset, error) {
	var balance string
	err := a.nodes.Execute(ctx, func(c *rpc.EvmClient) error {
		var err error
		balance, err = c.GetBalance(ctx, address)
		return err
	})
	if err != nil {
		return nil, err
	}

	price := a.prices.PriceBySymbol(ctx, a.profile.NativeTicker)
	return &Asset{
		Symbol:      a.profile.NativeSymbol,
		Balance:     balance,
		Decimals:    18,
		Price:       price,
		MarketValue: marketValue(balance, 18, price),
		IsNative:    true,
	}, nil
}

func (a *EvmAggregator) fetchTokens(ctx context.Context, address string) ([]Asset, error) {
	holdings, err := a.explorer.TokenList(ctx, address)
	if err != nil {
		logger.Warn("explorer token list failed, probing common tokens",
			"chain", a.chainID, "error", err)
		holdings, err = a.probeCommonTokens(ctx, address)
		if err != nil {
			return nil, err
		}
	}

	allowed := a.topTokenAllowlist(ctx)

	kept := make([]explorer.TokenHolding, 0, len(holdings))
	for _, h := range holdings {
		if !hasPositiveBalance(h.Balance) {
			continue
		}
		// Allow-list unavailability skips the filter: over-inclusion beats
		// hiding every holding while the vendor is down.
		if len(allowed) > 0 {
			if _, ok := allowed[strings.ToLower(h.ContractAddress)]; !ok {
				continue
			}
		}
		kept = append(kept, h)
	}

	assets := make([]Asset, len(kept))
	pg, pctx := errgroup.WithContext(ctx)
	pg.SetLimit(5)
	for i, h := range kept {
		pg.Go(func() error {
			price := a.prices.PriceByContract(pctx, h.ContractAddress)
			if price == 0 {
				price = a.prices.PriceBySymbol(pctx, h.Symbol)
			}
			assets[i] = Asset{
				Symbol:          h.Symbol,
				ContractAddress: h.ContractAddress,
				Name:            h.Name,
				Balance:         h.Balance,
				Decimals:        h.Decimals,
				Price:           price,
				MarketValue:     marketValue(h.Balance, h.Decimals, price),
			}
			return nil
		})
	}
	pg.Wait()
	return assets, nil
}

// probeCommonTokens checks a fixed set of well-known ERC-20 contracts
// directly over RPC. Tokens whose probes fail are skipped; the probe only
// errors when nothing could be checked at all.
func (a *EvmAggregator) probeCommonTokens(ctx context.Context, address string) ([]explorer.TokenHolding, error) {
	holdings := make([]explorer.TokenHolding, len(commonProbeTokens))
	ok := make([]bool, len(commonProbeTokens))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(5)
	for i, token := range commonProbeTokens {
		g.Go(func() error {
			var balance string
			err := a.nodes.Execute(gctx, func(c *rpc.EvmClient) error {
				var err error
				balance, err = c.Erc20BalanceOf(gctx, token.address, address)
				return err
			})
			if err != nil {
				logger.Debug("token probe failed", "token", token.symbol, "error", err)
				return nil
			}
			holdings[i] = explorer.TokenHolding{
				ContractAddress: token.address,
				Symbol:          token.symbol,
				Balance:         balance,
				Decimals:        token.decimals,
			}
			ok[i] = true
			return nil
		})
	}
	g.Wait()

	found := make([]explorer.TokenHolding, 0, len(holdings))
	for i, h := range holdings {
		if ok[i] && hasPositiveBalance(h.Balance) {
			found = append(found, h)
		}
	}
	anyProbed := false
	for _, o := range ok {
		anyProbed = anyProbed || o
	}
	if !anyProbed {
		return nil, fmt.Errorf("all token probes failed on %s", a.chainID)
	}
	return found, nil
}

// topTokenAllowlist returns the cached top-token contract set for this
// chain, fetching and caching it on a miss. Nil means "no filter".
func (a *EvmAggregator) topTokenAllowlist(ctx context.Context) map[string]struct{} {
	if a.profile.PlatformID == 0 || a.allowlist == nil || !a.market.HasKey() {
		return nil
	}
	if set, ok := a.allowlist.Get(a.chainID); ok {
		return set
	}

	var set map[string]struct{}
	err := retry.Exponential(func() error {
		var err error
		set, err = a.market.TopContractsByPlatform(ctx, a.profile.PlatformID, 200)
		return err
	}, retry.ExponentialConfig{
		InitialInterval: 200 * time.Millisecond,
		MaxElapsedTime:  2 * time.Second,
		OnRetry: func(err error, next time.Duration) {
			logger.Debug("retrying allow-list fetch", "chain", a.chainID, "in", next, "error", err)
		},
	})
	if err != nil {
		logger.Warn("top-token allow-list unavailable", "chain", a.chainID, "error", err)
		return nil
	}
	a.allowlist.Put(a.chainID, set)
	return set
}

package service

import (
	"context"
	"fmt"
	"time"

	"github.com/fystack/wallet-aggregator/internal/activity"
	"github.com/fystack/wallet-aggregator/internal/btcindexer"
	"github.com/fystack/wallet-aggregator/internal/cache"
	"github.com/fystack/wallet-aggregator/internal/chain"
	"github.com/fystack/wallet-aggregator/internal/config"
	"github.com/fystack/wallet-aggregator/internal/marketdata"
	"github.com/fystack/wallet-aggregator/internal/portfolio"
	"github.com/fystack/wallet-aggregator/internal/predictionmarket"
	"github.com/fystack/wallet-aggregator/internal/pricing"
	"github.com/fystack/wallet-aggregator/internal/ratelimiter"
	"github.com/fystack/wallet-aggregator/internal/rpc"
	"github.com/fystack/wallet-aggregator/pkg/common/enum"
	"github.com/fystack/wallet-aggregator/pkg/common/logger"
	"github.com/fystack/wallet-aggregator/pkg/common/types"
)

const predictionMarketChainID = "polymarket"

// Service is the query façade. For every address it probes the prediction
// market first and only falls back to blockchain detection when the address
// has no footprint there; results are cached write-through per
// (address, chain, endpoint).
type Service struct {
	cfg *config.Config

	evmPortfolios map[string]*portfolio.EvmAggregator
	evmActivities map[string]*activity.EvmFetcher

	bitcoinPortfolio *portfolio.BitcoinAggregator
	bitcoinActivity  *activity.BitcoinFetcher
	solanaPortfolio  *portfolio.SolanaAggregator
	solanaActivity   *activity.SolanaFetcher
	pmPortfolio      *portfolio.PredictionMarketAggregator
	pmActivity       *activity.PredictionMarketFetcher

	portfolios *cache.Store[*portfolio.Portfolio]
	activities *cache.Store[*activity.Activity]
	allowlist  *cache.AllowlistStore
	limiter    *ratelimiter.PooledRateLimiter
}

func New(cfg *config.Config) (*Service, error) {
	timeout := cfg.Defaults.Client.Timeout
	limiter := ratelimiter.NewPooledRateLimiter(
		time.Second/time.Duration(cfg.Defaults.Throttle.RPS),
		cfg.Defaults.Throttle.Burst,
	)

	allowlist, err := cache.NewAllowlistStore(cfg.Defaults.Cache.DataDir, cfg.Defaults.Cache.AllowlistTTL)
	if err != nil {
		return nil, fmt.Errorf("open allow-list store: %w", err)
	}

	market := marketdata.NewClient(cfg.Services.MarketData.BaseURL, cfg.MarketDataAPIKey(), timeout, limiter)
	prices := pricing.NewResolver(market, cfg.Defaults.Cache.PriceTTL)
	if !market.HasKey() {
		logger.Warn("market data API key not configured, all prices degrade to zero")
	}

	evmPortfolios := make(map[string]*portfolio.EvmAggregator, len(cfg.Chains))
	evmActivities := make(map[string]*activity.EvmFetcher, len(cfg.Chains))
	for chainID, profile := range cfg.Chains {
		agg, err := portfolio.NewEvmAggregator(chainID, profile, timeout, limiter, market, prices, allowlist)
		if err != nil {
			return nil, err
		}
		evmPortfolios[chainID] = agg
		fetcher, err := activity.NewEvmFetcher(chainID, profile, timeout, limiter)
		if err != nil {
			return nil, err
		}
		evmActivities[chainID] = fetcher
	}

	solanaNodes, err := rpc.NewSolanaFallback(cfg.Services.Solana.Nodes, timeout, limiter)
	if err != nil {
		return nil, fmt.Errorf("build solana fallback: %w", err)
	}
	btc := btcindexer.NewClient(cfg.Services.BitcoinIndexer.BaseURL, timeout, limiter)
	pm := predictionmarket.NewClient(cfg.Services.PredictionMarket.BaseURL, timeout, limiter)

	return &Service{
		cfg:              cfg,
		evmPortfolios:    evmPortfolios,
		evmActivities:    evmActivities,
		bitcoinPortfolio: portfolio.NewBitcoinAggregator(btc, prices),
		bitcoinActivity:  activity.NewBitcoinFetcher(btc),
		solanaPortfolio:  portfolio.NewSolanaAggregator(solanaNodes, prices),
		solanaActivity:   activity.NewSolanaFetcher(solanaNodes),
		pmPortfolio:      portfolio.NewPredictionMarketAggregator(pm),
		pmActivity:       activity.NewPredictionMarketFetcher(pm),
		portfolios:       cache.New[*portfolio.Portfolio](cfg.Defaults.Cache.ResultTTL),
		activities:       cache.New[*activity.Activity](cfg.Defaults.Cache.ResultTTL),
		allowlist:        allowlist,
		limiter:          limiter,
	}, nil
}

func (s *Service) Close() error {
	s.limiter.Close()
	return s.allowlist.Close()
}

// Portfolio answers "what does this account hold". The chain hint only
// matters for EVM addresses; unknown hints fall back to the primary chain.
func (s *Service) Portfolio(ctx context.Context, address, chainHint string) (*portfolio.Portfolio, error) {
	if address == "" {
		return nil, types.ErrMissingAddress
	}

	// Prediction-market probe: the richer data source wins when the address
	// has any footprint there.
	pmKey := cache.Key(address, predictionMarketChainID, string(enum.EndpointPortfolio))
	if cached, ok := s.portfolios.Get(pmKey); ok {
		return cached, nil
	}
	if p, err := s.pmPortfolio.Fetch(ctx, address); err == nil && p.TotalAssets > 0 {
		s.portfolios.Put(pmKey, p)
		return p, nil
	} else if err != nil {
		logger.Debug("prediction market probe failed", "address", address, "error", err)
	}

	family := chain.Detect(address)
	if family == enum.FamilyUnrecognized {
		return nil, types.ErrUnrecognizedAddress
	}

	chainID := s.resolveChainID(family, chainHint)
	key := cache.Key(address, chainID, string(enum.EndpointPortfolio))
	if cached, ok := s.portfolios.Get(key); ok {
		return cached, nil
	}

	var (
		p   *portfolio.Portfolio
		err error
	)
	switch family {
	case enum.FamilyEVM:
		p, err = s.evmPortfolios[chainID].Fetch(ctx, address)
	case enum.FamilyBitcoin:
		p, err = s.bitcoinPortfolio.Fetch(ctx, address)
	case enum.FamilySolana:
		p, err = s.solanaPortfolio.Fetch(ctx, address)
	}
	if err != nil {
		return nil, err
	}

	s.portfolios.Put(key, p)
	return p, nil
}

// Activity answers "what has this account done", a bounded recent window.
func (s *Service) Activity(ctx context.Context, address, chainHint string) (*activity.Activity, error) {
	if address == "" {
		return nil, types.ErrMissingAddress
	}

	pmKey := cache.Key(address, predictionMarketChainID, string(enum.EndpointActivity))
	if cached, ok := s.activities.Get(pmKey); ok {
		return cached, nil
	}
	if a, err := s.pmActivity.Fetch(ctx, address); err == nil && len(a.Transactions) > 0 {
		s.activities.Put(pmKey, a)
		return a, nil
	} else if err != nil {
		logger.Debug("prediction market probe failed", "address", address, "error", err)
	}

	family := chain.Detect(address)
	if family == enum.FamilyUnrecognized {
		return nil, types.ErrUnrecognizedAddress
	}

	chainID := s.resolveChainID(family, chainHint)
	key := cache.Key(address, chainID, string(enum.EndpointActivity))
	if cached, ok := s.activities.Get(key); ok {
		return cached, nil
	}

	var (
		a   *activity.Activity
		err error
	)
	switch family {
	case enum.FamilyEVM:
		a, err = s.evmActivities[chainID].Fetch(ctx, address)
	case enum.FamilyBitcoin:
		a, err = s.bitcoinActivity.Fetch(ctx, address)
	case enum.FamilySolana:
		a, err = s.solanaActivity.Fetch(ctx, address)
	}
	if err != nil {
		return nil, err
	}

	s.activities.Put(key, a)
	return a, nil
}

// resolveChainID normalizes the chain hint: EVM addresses pick a configured
// chain (defaulting to the primary), other families have fixed ids.
func (s *Service) resolveChainID(family enum.NetworkFamily, chainHint string) string {
	switch family {
	case enum.FamilyEVM:
		_, chainID := s.cfg.Profile(chainHint)
		return chainID
	case enum.FamilyBitcoin:
		return "bitcoin-mainnet"
	case enum.FamilySolana:
		return "solana-mainnet"
	default:
		return ""
	}
}

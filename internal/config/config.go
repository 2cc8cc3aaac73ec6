package config

import (
	"fmt"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

const DefaultChain = "ethereum"

var validate = validator.New()

// Config is loaded once at startup and never mutated afterwards. All
// components hold it by reference, so no synchronization is needed for it.
type Config struct {
	Version  string                  `yaml:"version"`
	Defaults Defaults                `yaml:"defaults" validate:"required"`
	Chains   map[string]ChainProfile `yaml:"chains"   validate:"required,min=1"`
	Services Services                `yaml:"services" validate:"required"`
}

type Defaults struct {
	Client   ClientConfig `yaml:"client"`
	Throttle Throttle     `yaml:"throttle"`
	Cache    CacheConfig  `yaml:"cache"`
}

type ClientConfig struct {
	Timeout time.Duration `yaml:"timeout"`
}

type Throttle struct {
	RPS   int `yaml:"rps"`
	Burst int `yaml:"burst"`
}

type CacheConfig struct {
	ResultTTL    time.Duration `yaml:"result_ttl"`
	PriceTTL     time.Duration `yaml:"price_ttl"`
	AllowlistTTL time.Duration `yaml:"allowlist_ttl"`
	DataDir      string        `yaml:"data_dir"` // optional badger dir for allow-lists
}

// ChainProfile is the static per-chain record: ordered RPC node list, primary
// explorer plus optional ordered fallbacks, native coin symbol and the
// market-data platform id used to scope the top-token allow-list.
type ChainProfile struct {
	Name              string   `yaml:"name"               validate:"required"`
	Nodes             []string `yaml:"nodes"              validate:"required,min=1,dive,url"`
	Explorer          string   `yaml:"explorer"           validate:"required,url"`
	FallbackExplorers []string `yaml:"fallback_explorers" validate:"omitempty,dive,url"`
	NativeSymbol      string   `yaml:"native_symbol"      validate:"required"`
	NativeTicker      string   `yaml:"native_ticker"      validate:"required"`
	PlatformID        int      `yaml:"platform_id"`
}

// Explorers returns the primary explorer followed by its fallbacks.
func (p ChainProfile) Explorers() []string {
	return append([]string{p.Explorer}, p.FallbackExplorers...)
}

type Services struct {
	MarketData       MarketDataConfig       `yaml:"market_data"       validate:"required"`
	PredictionMarket PredictionMarketConfig `yaml:"prediction_market" validate:"required"`
	BitcoinIndexer   BitcoinIndexerConfig   `yaml:"bitcoin_indexer"   validate:"required"`
	Solana           SolanaConfig           `yaml:"solana"            validate:"required"`
}

type MarketDataConfig struct {
	BaseURL   string `yaml:"base_url"    validate:"required,url"`
	APIKeyEnv string `yaml:"api_key_env" validate:"required"`
}

type PredictionMarketConfig struct {
	BaseURL string `yaml:"base_url" validate:"required,url"`
}

type BitcoinIndexerConfig struct {
	BaseURL string `yaml:"base_url" validate:"required,url"`
}

type SolanaConfig struct {
	Nodes []string `yaml:"nodes" validate:"required,min=1,dive,url"`
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	cfg.applyDefaults()

	if err := validate.Struct(&cfg); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	if _, ok := cfg.Chains[DefaultChain]; !ok {
		return nil, fmt.Errorf("config must define the %q chain", DefaultChain)
	}

	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Defaults.Client.Timeout == 0 {
		c.Defaults.Client.Timeout = 10 * time.Second
	}
	if c.Defaults.Throttle.RPS == 0 {
		c.Defaults.Throttle.RPS = 10
	}
	if c.Defaults.Throttle.Burst == 0 {
		c.Defaults.Throttle.Burst = 20
	}
	if c.Defaults.Cache.ResultTTL == 0 {
		c.Defaults.Cache.ResultTTL = 5 * time.Minute
	}
	if c.Defaults.Cache.PriceTTL == 0 {
		c.Defaults.Cache.PriceTTL = 5 * time.Minute
	}
	if c.Defaults.Cache.AllowlistTTL == 0 {
		c.Defaults.Cache.AllowlistTTL = time.Hour
	}
}

// Profile returns the chain profile for chainID, falling back to the primary
// chain when the id is unknown or empty. The second return reports which id
// was actually used.
func (c *Config) Profile(chainID string) (ChainProfile, string) {
	if p, ok := c.Chains[chainID]; ok {
		return p, chainID
	}
	return c.Chains[DefaultChain], DefaultChain
}

// MarketDataAPIKey resolves the secret from the environment. Empty means
// pricing degrades to "always unknown"; it is never an error.
func (c *Config) MarketDataAPIKey() string {
	return os.Getenv(c.Services.MarketData.APIKeyEnv)
}

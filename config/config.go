// Package config loads the purchase core's configuration from environment
// variables, with an optional .env file for local development. Viper binds
// the variables into a typed Config.
package config

import (
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/blockremit/billpay/types"
)

// Config holds everything the purchase core needs at construction time.
// Treasury addresses and chain endpoints are optional per chain; a chain
// without both is simply not offered for payment.
type Config struct {
	DatabaseURL string `mapstructure:"DATABASE_URL"`

	ProviderBaseURL string `mapstructure:"PROVIDER_BASE_URL"`
	ProviderAPIKey  string `mapstructure:"PROVIDER_API_KEY"`

	RateSourceURL  string        `mapstructure:"RATE_SOURCE_URL"`
	RateSourceKey  string        `mapstructure:"RATE_SOURCE_API_KEY"`
	RateCacheTTL   time.Duration `mapstructure:"RATE_CACHE_TTL"`
	CatalogTTL     time.Duration `mapstructure:"CATALOG_TTL"`
	SubscanAPIKey  string        `mapstructure:"SUBSCAN_API_KEY"`
	VerifyAttempts int           `mapstructure:"VERIFY_MAX_ATTEMPTS"`
	VerifyDelay    time.Duration `mapstructure:"VERIFY_ATTEMPT_DELAY"`

	LogLevel string `mapstructure:"LOG_LEVEL"`

	EthereumEndpoints string `mapstructure:"ETHEREUM_RPC_ENDPOINTS"`
	BitcoinEndpoints  string `mapstructure:"BITCOIN_API_ENDPOINTS"`
	SolanaEndpoints   string `mapstructure:"SOLANA_RPC_ENDPOINTS"`
	StellarEndpoints  string `mapstructure:"STELLAR_HORIZON_ENDPOINTS"`
	PolkadotEndpoints string `mapstructure:"POLKADOT_API_ENDPOINTS"`
	StarknetEndpoints string `mapstructure:"STARKNET_RPC_ENDPOINTS"`

	EthereumTreasury string `mapstructure:"ETHEREUM_TREASURY_ADDRESS"`
	BitcoinTreasury  string `mapstructure:"BITCOIN_TREASURY_ADDRESS"`
	SolanaTreasury   string `mapstructure:"SOLANA_TREASURY_ADDRESS"`
	StellarTreasury  string `mapstructure:"STELLAR_TREASURY_ADDRESS"`
	PolkadotTreasury string `mapstructure:"POLKADOT_TREASURY_ADDRESS"`
	StarknetTreasury string `mapstructure:"STARKNET_TREASURY_ADDRESS"`
	USDTTreasury     string `mapstructure:"USDT_TREASURY_ADDRESS"`
}

var boundVars = []string{
	"DATABASE_URL",
	"PROVIDER_BASE_URL", "PROVIDER_API_KEY",
	"RATE_SOURCE_URL", "RATE_SOURCE_API_KEY", "RATE_CACHE_TTL", "CATALOG_TTL",
	"SUBSCAN_API_KEY", "VERIFY_MAX_ATTEMPTS", "VERIFY_ATTEMPT_DELAY",
	"LOG_LEVEL",
	"ETHEREUM_RPC_ENDPOINTS", "BITCOIN_API_ENDPOINTS", "SOLANA_RPC_ENDPOINTS",
	"STELLAR_HORIZON_ENDPOINTS", "POLKADOT_API_ENDPOINTS", "STARKNET_RPC_ENDPOINTS",
	"ETHEREUM_TREASURY_ADDRESS", "BITCOIN_TREASURY_ADDRESS", "SOLANA_TREASURY_ADDRESS",
	"STELLAR_TREASURY_ADDRESS", "POLKADOT_TREASURY_ADDRESS", "STARKNET_TREASURY_ADDRESS",
	"USDT_TREASURY_ADDRESS",
}

// Load reads configuration from environment variables, with path as the
// location of an optional .env file. Missing .env is not an error.
func Load(path string) (Config, error) {
	v := viper.New()
	v.AddConfigPath(path)
	v.SetConfigName(".env")
	v.SetConfigType("env")
	v.AutomaticEnv()

	v.SetDefault("RATE_SOURCE_URL", "https://api.coingecko.com/api/v3")
	v.SetDefault("RATE_CACHE_TTL", "60s")
	v.SetDefault("CATALOG_TTL", "10m")
	v.SetDefault("VERIFY_MAX_ATTEMPTS", 12)
	v.SetDefault("VERIFY_ATTEMPT_DELAY", "5s")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("ETHEREUM_RPC_ENDPOINTS", "https://eth.llamarpc.com")
	v.SetDefault("BITCOIN_API_ENDPOINTS", "https://blockstream.info/api,https://mempool.space/api")
	v.SetDefault("SOLANA_RPC_ENDPOINTS", "https://api.mainnet-beta.solana.com")
	v.SetDefault("STELLAR_HORIZON_ENDPOINTS", "https://horizon.stellar.org")
	v.SetDefault("POLKADOT_API_ENDPOINTS", "https://polkadot.api.subscan.io")
	v.SetDefault("STARKNET_RPC_ENDPOINTS", "https://starknet-mainnet.public.blastapi.io/rpc/v0_7")

	for _, name := range boundVars {
		_ = v.BindEnv(name)
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return Config{}, err
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, err
	}

	if cfg.VerifyAttempts <= 0 {
		cfg.VerifyAttempts = 12
	}
	if cfg.VerifyDelay <= 0 {
		cfg.VerifyDelay = 5 * time.Second
	}
	return cfg, nil
}

// Endpoints returns the configured endpoint list for a chain. USDT payments
// ride the Ethereum endpoints.
func (c Config) Endpoints(chain types.Chain) []string {
	var raw string
	switch chain {
	case types.ChainEthereum, types.ChainUSDT:
		raw = c.EthereumEndpoints
	case types.ChainBitcoin:
		raw = c.BitcoinEndpoints
	case types.ChainSolana:
		raw = c.SolanaEndpoints
	case types.ChainStellar:
		raw = c.StellarEndpoints
	case types.ChainPolkadot:
		raw = c.PolkadotEndpoints
	case types.ChainStarknet:
		raw = c.StarknetEndpoints
	}
	return splitList(raw)
}

// Treasuries returns the treasury address map for all chains with one
// configured. The orchestrator rejects payment on chains missing here.
func (c Config) Treasuries() map[types.Chain]string {
	all := map[types.Chain]string{
		types.ChainEthereum: c.EthereumTreasury,
		types.ChainBitcoin:  c.BitcoinTreasury,
		types.ChainSolana:   c.SolanaTreasury,
		types.ChainStellar:  c.StellarTreasury,
		types.ChainPolkadot: c.PolkadotTreasury,
		types.ChainStarknet: c.StarknetTreasury,
		types.ChainUSDT:     c.USDTTreasury,
	}
	out := make(map[types.Chain]string, len(all))
	for chain, addr := range all {
		if addr = strings.TrimSpace(addr); addr != "" {
			out[chain] = addr
		}
	}
	return out
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

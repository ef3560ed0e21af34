// Package rates converts fiat purchase amounts into the crypto amount a
// buyer is expected to have paid, using a live exchange-rate source with a
// static fallback table.
package rates

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/blockremit/billpay/logger"
	"github.com/blockremit/billpay/types"
)

// CryptoPrecision is the number of decimal places every converted amount is
// rounded to, regardless of source.
const CryptoPrecision = 8

// coingeckoIDs maps a chain to its id on the rate source.
var coingeckoIDs = map[types.Chain]string{
	types.ChainEthereum: "ethereum",
	types.ChainBitcoin:  "bitcoin",
	types.ChainSolana:   "solana",
	types.ChainStellar:  "stellar",
	types.ChainPolkadot: "polkadot",
	types.ChainStarknet: "starknet",
	types.ChainUSDT:     "tether",
}

// fallbackRatesNGN is the static table used when the live source is down.
// Values are NGN per one whole unit of the asset; coarse by design, the 1%
// verification tolerance does not apply to these (payment verification uses
// whichever rate produced the expectation).
var fallbackRatesNGN = map[types.Chain]decimal.Decimal{
	types.ChainEthereum: decimal.NewFromInt(5_200_000),
	types.ChainBitcoin:  decimal.NewFromInt(155_000_000),
	types.ChainSolana:   decimal.NewFromInt(270_000),
	types.ChainStellar:  decimal.NewFromInt(600),
	types.ChainPolkadot: decimal.NewFromInt(10_500),
	types.ChainStarknet: decimal.NewFromInt(800),
	types.ChainUSDT:     decimal.NewFromInt(1_550),
}

// Converter turns fiat amounts into expected crypto amounts.
type Converter struct {
	sourceURL string
	apiKey    string
	client    *http.Client
	cache     *Cache[map[types.Chain]decimal.Decimal]
	fallback  map[types.Chain]decimal.Decimal
	log       logger.Logger
}

// NewConverter builds a converter against a CoinGecko-compatible simple-price
// endpoint. The rate cache TTL keeps quote drift within the verification
// tolerance window.
func NewConverter(sourceURL, apiKey string, cacheTTL time.Duration, log logger.Logger) *Converter {
	if log == nil {
		log = logger.NoopLogger{}
	}
	c := &Converter{
		sourceURL: strings.TrimRight(sourceURL, "/"),
		apiKey:    apiKey,
		client:    &http.Client{Timeout: 10 * time.Second},
		fallback:  fallbackRatesNGN,
		log:       log,
	}
	c.cache = NewCache(cacheTTL, c.fetchRates)
	return c
}

// Convert returns the crypto amount equivalent to fiatAmount NGN on the
// given chain, rounded to 8 decimal places. It never fails for a supported
// chain: any live-source trouble degrades to the fallback table with a
// warning. Only a chain absent from both sources is an error.
func (c *Converter) Convert(ctx context.Context, fiatAmount decimal.Decimal, chain types.Chain) (decimal.Decimal, error) {
	rate, err := c.rateFor(ctx, chain)
	if err != nil {
		return decimal.Zero, err
	}
	return fiatAmount.Div(rate).Round(CryptoPrecision), nil
}

func (c *Converter) rateFor(ctx context.Context, chain types.Chain) (decimal.Decimal, error) {
	if _, known := coingeckoIDs[chain]; known {
		live, err := c.cache.GetOrRefresh(ctx)
		if err == nil {
			if rate, ok := live[chain]; ok && rate.IsPositive() {
				return rate, nil
			}
			err = fmt.Errorf("rate source has no %s quote", chain)
		}
		c.log.Warn("rate source degraded, using fallback table", map[string]any{
			"chain": chain.String(),
			"error": err.Error(),
		})
	}

	if rate, ok := c.fallback[chain]; ok {
		return rate, nil
	}
	return decimal.Zero, &types.BillPayError{
		Code:    types.ErrRateUnavailable,
		Message: fmt.Sprintf("no exchange rate available for chain %s", chain),
	}
}

// fetchRates pulls every supported asset's NGN quote in one call.
func (c *Converter) fetchRates(ctx context.Context) (map[types.Chain]decimal.Decimal, error) {
	ids := make([]string, 0, len(coingeckoIDs))
	for _, id := range coingeckoIDs {
		ids = append(ids, id)
	}

	q := url.Values{}
	q.Set("ids", strings.Join(ids, ","))
	q.Set("vs_currencies", "ngn")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.sourceURL+"/simple/price?"+q.Encode(), nil)
	if err != nil {
		return nil, err
	}
	if c.apiKey != "" {
		req.Header.Set("x-cg-api-key", c.apiKey)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("rate source returned status %d", resp.StatusCode)
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	var quotes map[string]map[string]json.Number
	if err := json.Unmarshal(raw, &quotes); err != nil {
		return nil, fmt.Errorf("malformed rate payload: %w", err)
	}

	out := make(map[types.Chain]decimal.Decimal, len(coingeckoIDs))
	for chain, id := range coingeckoIDs {
		quote, ok := quotes[id]
		if !ok {
			continue
		}
		ngn, ok := quote["ngn"]
		if !ok {
			continue
		}
		rate, err := decimal.NewFromString(ngn.String())
		if err != nil || !rate.IsPositive() {
			continue
		}
		out[chain] = rate
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("rate source returned no usable quotes")
	}
	return out, nil
}

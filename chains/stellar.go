package chains

import (
	"context"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/blockremit/billpay/types"
)

// StellarAdapter verifies XLM payments through Horizon API servers. Horizon
// reports amounts in whole lumens already, so no unit conversion is needed
// beyond decimal parsing.
type StellarAdapter struct {
	pool *endpointPool
}

var _ Adapter = (*StellarAdapter)(nil)

func NewStellarAdapter(endpoints []string) *StellarAdapter {
	return &StellarAdapter{pool: newEndpointPool(endpoints)}
}

func (a *StellarAdapter) Chain() types.Chain { return types.ChainStellar }

type horizonTx struct {
	Hash       string `json:"hash"`
	Successful bool   `json:"successful"`
}

type horizonPayments struct {
	Embedded struct {
		Records []struct {
			Type            string `json:"type"`
			AssetType       string `json:"asset_type"`
			To              string `json:"to"`
			Account         string `json:"account"`
			Amount          string `json:"amount"`
			StartingBalance string `json:"starting_balance"`
		} `json:"records"`
	} `json:"_embedded"`
}

// Verify checks the transaction succeeded, then sums the native-asset
// payment operations (and account creations, which also move lumens) that
// target the expected address.
func (a *StellarAdapter) Verify(ctx context.Context, txHash, expectedTo string, minAmount, maxAmount decimal.Decimal) (bool, error) {
	var tx horizonTx
	if err := a.pool.getJSON(ctx, "/transactions/"+txHash, &tx); err != nil {
		return false, err
	}
	if !tx.Successful {
		return false, nil
	}

	var ops horizonPayments
	if err := a.pool.getJSON(ctx, "/transactions/"+txHash+"/payments", &ops); err != nil {
		return false, err
	}

	total := decimal.Zero
	found := false
	for _, op := range ops.Embedded.Records {
		switch op.Type {
		case "payment":
			if op.AssetType != "native" || !strings.EqualFold(op.To, expectedTo) {
				continue
			}
			amt, err := decimal.NewFromString(op.Amount)
			if err != nil {
				continue
			}
			total = total.Add(amt)
			found = true
		case "create_account":
			if !strings.EqualFold(op.Account, expectedTo) {
				continue
			}
			amt, err := decimal.NewFromString(op.StartingBalance)
			if err != nil {
				continue
			}
			total = total.Add(amt)
			found = true
		}
	}
	if !found {
		return false, nil
	}

	return inBand(total, minAmount, maxAmount), nil
}

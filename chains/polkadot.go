package chains

import (
	"context"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/blockremit/billpay/types"
)

// PolkadotAdapter verifies DOT transfers through Subscan explorer hosts.
// Subscan requires an API key, which makes a missing key a configuration
// error rather than a verification failure.
type PolkadotAdapter struct {
	pool *endpointPool
}

var _ Adapter = (*PolkadotAdapter)(nil)

func NewPolkadotAdapter(endpoints []string, apiKey string) (*PolkadotAdapter, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, &types.BillPayError{
			Code:    types.ErrConfig,
			Message: "polkadot adapter requires a subscan api key",
		}
	}
	pool := newEndpointPool(endpoints).withHeaders(map[string]string{
		"X-API-Key": apiKey,
	})
	return &PolkadotAdapter{pool: pool}, nil
}

func (a *PolkadotAdapter) Chain() types.Chain { return types.ChainPolkadot }

type subscanExtrinsic struct {
	Code int `json:"code"`
	Data struct {
		Success   bool `json:"success"`
		Finalized bool `json:"finalized"`
		Transfer  *struct {
			From   string `json:"from"`
			To     string `json:"to"`
			Amount string `json:"amount"`
		} `json:"transfer"`
	} `json:"data"`
}

// Verify looks up the extrinsic by hash. Polkadot is finality-gated: an
// extrinsic that is not yet finalized is rejected outright and left to the
// retry loop. Subscan reports the transfer amount in whole DOT.
func (a *PolkadotAdapter) Verify(ctx context.Context, txHash, expectedTo string, minAmount, maxAmount decimal.Decimal) (bool, error) {
	var out subscanExtrinsic
	err := a.pool.postJSON(ctx, "/api/scan/extrinsic", map[string]string{"hash": txHash}, &out)
	if err != nil {
		return false, err
	}

	if out.Code != 0 || !out.Data.Success || !out.Data.Finalized {
		return false, nil
	}
	transfer := out.Data.Transfer
	if transfer == nil {
		return false, nil
	}
	// SS58 addresses are case-sensitive base58.
	if transfer.To != expectedTo {
		return false, nil
	}

	amount, err := decimal.NewFromString(transfer.Amount)
	if err != nil {
		return false, nil
	}
	return inBand(amount, minAmount, maxAmount), nil
}

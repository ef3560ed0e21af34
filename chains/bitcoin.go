package chains

import (
	"context"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/blockremit/billpay/types"
)

// BitcoinAdapter verifies payments through Esplora-style explorer APIs
// (Blockstream, mempool.space). Bitcoin is UTXO-based, so verification scans
// the transaction outputs for ones paying the treasury address.
type BitcoinAdapter struct {
	pool *endpointPool
}

var _ Adapter = (*BitcoinAdapter)(nil)

func NewBitcoinAdapter(endpoints []string) *BitcoinAdapter {
	return &BitcoinAdapter{pool: newEndpointPool(endpoints)}
}

func (a *BitcoinAdapter) Chain() types.Chain { return types.ChainBitcoin }

type esploraTx struct {
	TxID   string `json:"txid"`
	Status struct {
		Confirmed bool `json:"confirmed"`
	} `json:"status"`
	Vout []struct {
		ScriptPubKeyAddress string `json:"scriptpubkey_address"`
		Value               int64  `json:"value"`
	} `json:"vout"`
}

// Verify sums all outputs whose script resolves to the expected address and
// checks the sat total, converted to whole BTC, against the band. Unconfirmed
// transactions are rejected; the retry loop will look again.
func (a *BitcoinAdapter) Verify(ctx context.Context, txHash, expectedTo string, minAmount, maxAmount decimal.Decimal) (bool, error) {
	var tx esploraTx
	if err := a.pool.getJSON(ctx, "/tx/"+txHash, &tx); err != nil {
		return false, err
	}

	if !tx.Status.Confirmed {
		return false, nil
	}

	totalSats := int64(0)
	for _, out := range tx.Vout {
		if bitcoinAddressesEqual(out.ScriptPubKeyAddress, expectedTo) {
			totalSats += out.Value
		}
	}
	if totalSats == 0 {
		return false, nil
	}

	amount := decimal.New(totalSats, -types.ChainBitcoin.Decimals())
	return inBand(amount, minAmount, maxAmount), nil
}

// bitcoinAddressesEqual compares addresses with the case rules of their
// encoding: bech32 (bc1...) is case-insensitive, legacy base58 is not.
func bitcoinAddressesEqual(a, b string) bool {
	if strings.HasPrefix(strings.ToLower(a), "bc1") && strings.HasPrefix(strings.ToLower(b), "bc1") {
		return strings.EqualFold(a, b)
	}
	return a == b
}

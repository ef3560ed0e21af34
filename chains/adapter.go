// Package chains contains one verification adapter per supported blockchain.
// An adapter answers a single question: did this transaction pay the expected
// address an amount inside the given band? Adapters hold no state beyond
// their endpoint list and are safe for concurrent, repeated calls.
package chains

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/blockremit/billpay/types"
)

// Adapter verifies a payment on one chain.
//
// Verify returns (false, nil) for every negative outcome that is a fact
// about the transaction: not found, not finalized, wrong recipient, amount
// out of band. An error is returned only for configuration problems or when
// every candidate endpoint fails.
type Adapter interface {
	Chain() types.Chain
	Verify(ctx context.Context, txHash, expectedTo string, minAmount, maxAmount decimal.Decimal) (bool, error)
}

// inBand reports whether amount falls inside the inclusive [min, max] band.
func inBand(amount, min, max decimal.Decimal) bool {
	return amount.GreaterThanOrEqual(min) && amount.LessThanOrEqual(max)
}

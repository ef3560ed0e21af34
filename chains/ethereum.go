package chains

import (
	"context"
	"errors"
	"fmt"

	ethereum "github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	ethtypes "github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/shopspring/decimal"

	"github.com/blockremit/billpay/types"
)

// EthereumAdapter verifies native ETH transfers via JSON-RPC nodes.
type EthereumAdapter struct {
	endpoints []string
}

var _ Adapter = (*EthereumAdapter)(nil)

func NewEthereumAdapter(endpoints []string) *EthereumAdapter {
	return &EthereumAdapter{endpoints: endpoints}
}

func (a *EthereumAdapter) Chain() types.Chain { return types.ChainEthereum }

// Verify fetches the receipt and transaction from the first responsive RPC
// node and accepts iff the transaction succeeded, pays the expected address
// and carries a value inside the band.
func (a *EthereumAdapter) Verify(ctx context.Context, txHash, expectedTo string, minAmount, maxAmount decimal.Decimal) (bool, error) {
	var lastErr error
	for _, rpcURL := range a.endpoints {
		ok, err := a.verifyVia(ctx, rpcURL, txHash, expectedTo, minAmount, maxAmount)
		if err != nil {
			lastErr = err
			continue
		}
		return ok, nil
	}
	return false, fmt.Errorf("%w: %v", errAllEndpointsFailed, lastErr)
}

func (a *EthereumAdapter) verifyVia(ctx context.Context, rpcURL, txHash, expectedTo string, minAmount, maxAmount decimal.Decimal) (bool, error) {
	client, err := ethclient.DialContext(ctx, rpcURL)
	if err != nil {
		return false, err
	}
	defer client.Close()

	callCtx, cancel := context.WithTimeout(ctx, defaultCallTimeout)
	defer cancel()

	hash := common.HexToHash(txHash)

	receipt, err := client.TransactionReceipt(callCtx, hash)
	if errors.Is(err, ethereum.NotFound) {
		// Not yet indexed (or bogus hash): a fact about the transaction,
		// not about this endpoint.
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if receipt.Status != ethtypes.ReceiptStatusSuccessful {
		return false, nil
	}

	tx, _, err := client.TransactionByHash(callCtx, hash)
	if errors.Is(err, ethereum.NotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}

	to := tx.To()
	if to == nil || !hexAddressesEqual(to.Hex(), expectedTo) {
		return false, nil
	}

	amount := decimal.NewFromBigInt(tx.Value(), -types.ChainEthereum.Decimals())
	return inBand(amount, minAmount, maxAmount), nil
}

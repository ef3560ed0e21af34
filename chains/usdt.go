package chains

import (
	"context"
	"errors"
	"fmt"
	"math/big"

	ethereum "github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	ethtypes "github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/shopspring/decimal"

	"github.com/blockremit/billpay/types"
)

// USDTContractAddress is the ERC-20 contract for Tether on Ethereum mainnet.
const USDTContractAddress = "0xdAC17F958D2ee523a2206206994597C13D831ec7"

var erc20TransferTopic = crypto.Keccak256Hash([]byte("Transfer(address,address,uint256)"))

// USDTAdapter verifies USDT payments on Ethereum. Unlike the native adapter
// it reads ERC-20 Transfer events out of the receipt logs, since the value
// moves inside the token contract rather than in the transaction body.
type USDTAdapter struct {
	endpoints []string
	contract  common.Address
}

var _ Adapter = (*USDTAdapter)(nil)

func NewUSDTAdapter(endpoints []string) *USDTAdapter {
	return &USDTAdapter{
		endpoints: endpoints,
		contract:  common.HexToAddress(USDTContractAddress),
	}
}

func (a *USDTAdapter) Chain() types.Chain { return types.ChainUSDT }

// Verify sums every Transfer event in the receipt that the USDT contract
// emitted to the expected address. A single transaction may carry several
// transfers; the sum must land in the band.
func (a *USDTAdapter) Verify(ctx context.Context, txHash, expectedTo string, minAmount, maxAmount decimal.Decimal) (bool, error) {
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

func (a *USDTAdapter) verifyVia(ctx context.Context, rpcURL, txHash, expectedTo string, minAmount, maxAmount decimal.Decimal) (bool, error) {
	client, err := ethclient.DialContext(ctx, rpcURL)
	if err != nil {
		return false, err
	}
	defer client.Close()

	callCtx, cancel := context.WithTimeout(ctx, defaultCallTimeout)
	defer cancel()

	receipt, err := client.TransactionReceipt(callCtx, common.HexToHash(txHash))
	if errors.Is(err, ethereum.NotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if receipt.Status != ethtypes.ReceiptStatusSuccessful {
		return false, nil
	}

	total := new(big.Int)
	for _, log := range receipt.Logs {
		if log.Address != a.contract {
			continue
		}
		if len(log.Topics) != 3 || log.Topics[0] != erc20TransferTopic {
			continue
		}
		to := common.BytesToAddress(log.Topics[2].Bytes())
		if !hexAddressesEqual(to.Hex(), expectedTo) {
			continue
		}
		total.Add(total, new(big.Int).SetBytes(log.Data))
	}

	if total.Sign() == 0 {
		return false, nil
	}

	amount := decimal.NewFromBigInt(total, -types.ChainUSDT.Decimals())
	return inBand(amount, minAmount, maxAmount), nil
}

package chains

import (
	"context"
	"math/big"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/blockremit/billpay/types"
)

// STRKTokenAddress is the STRK ERC-20 contract on Starknet mainnet. Token
// moves on Starknet are contract events, like the USDT adapter on Ethereum.
const STRKTokenAddress = "0x04718f5a0fc34cc1af16a1cdee98ffb20c31f5cd61d6ab07201858f4287c938d"

// starknetTransferKey is the selector of the ERC-20 Transfer event.
const starknetTransferKey = "0x99cd8bde557814842a3121e8ddfd433a539b8c9f14bf31ebf108d12e6196e9"

// StarknetAdapter verifies STRK payments over Starknet JSON-RPC nodes.
// Starknet is finality-gated: a receipt whose finality status is not an
// accepted sentinel is rejected immediately for that attempt, with no
// further endpoint trial.
type StarknetAdapter struct {
	pool  *endpointPool
	token string
}

var _ Adapter = (*StarknetAdapter)(nil)

func NewStarknetAdapter(endpoints []string) *StarknetAdapter {
	return &StarknetAdapter{
		pool:  newEndpointPool(endpoints),
		token: STRKTokenAddress,
	}
}

func (a *StarknetAdapter) Chain() types.Chain { return types.ChainStarknet }

type starknetRPCRequest struct {
	JSONRPC string `json:"jsonrpc"`
	Method  string `json:"method"`
	Params  []any  `json:"params"`
	ID      int    `json:"id"`
}

type starknetReceiptResponse struct {
	Result *struct {
		FinalityStatus  string `json:"finality_status"`
		ExecutionStatus string `json:"execution_status"`
		Events          []struct {
			FromAddress string   `json:"from_address"`
			Keys        []string `json:"keys"`
			Data        []string `json:"data"`
		} `json:"events"`
	} `json:"result"`
	Error *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func (a *StarknetAdapter) Verify(ctx context.Context, txHash, expectedTo string, minAmount, maxAmount decimal.Decimal) (bool, error) {
	req := starknetRPCRequest{
		JSONRPC: "2.0",
		Method:  "starknet_getTransactionReceipt",
		Params:  []any{txHash},
		ID:      1,
	}

	var resp starknetReceiptResponse
	if err := a.pool.postJSON(ctx, "", req, &resp); err != nil {
		return false, err
	}

	// A JSON-RPC error here means the node answered: hash unknown.
	if resp.Error != nil || resp.Result == nil {
		return false, nil
	}

	receipt := resp.Result
	if receipt.ExecutionStatus != "SUCCEEDED" {
		return false, nil
	}
	switch receipt.FinalityStatus {
	case "ACCEPTED_ON_L1", "ACCEPTED_ON_L2":
	default:
		return false, nil
	}

	// Transfer event data layout: [from, to, amount_low, amount_high].
	total := new(big.Int)
	for _, ev := range receipt.Events {
		if !hexAddressesEqual(ev.FromAddress, a.token) {
			continue
		}
		if len(ev.Keys) == 0 || !hexAddressesEqual(ev.Keys[0], starknetTransferKey) {
			continue
		}
		if len(ev.Data) < 4 || !hexAddressesEqual(ev.Data[1], expectedTo) {
			continue
		}
		low, okLow := parseFelt(ev.Data[2])
		high, okHigh := parseFelt(ev.Data[3])
		if !okLow || !okHigh {
			continue
		}
		value := new(big.Int).Lsh(high, 128)
		value.Add(value, low)
		total.Add(total, value)
	}
	if total.Sign() == 0 {
		return false, nil
	}

	amount := decimal.NewFromBigInt(total, -types.ChainStarknet.Decimals())
	return inBand(amount, minAmount, maxAmount), nil
}

// parseFelt parses a 0x-prefixed field element into a big integer.
func parseFelt(s string) (*big.Int, bool) {
	v, ok := new(big.Int).SetString(strings.TrimPrefix(strings.ToLower(s), "0x"), 16)
	return v, ok
}

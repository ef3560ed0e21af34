package chains

import (
	"context"
	"fmt"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/programs/system"
	"github.com/gagliardetto/solana-go/rpc"
	"github.com/shopspring/decimal"

	"github.com/blockremit/billpay/types"
)

// SolanaAdapter verifies native SOL transfers. It decodes system-program
// transfer instructions from the transaction message; when the transfer was
// made through a program (no explicit system transfer targets the treasury)
// it falls back to the pre/post balance delta of the treasury account.
type SolanaAdapter struct {
	endpoints []string
}

var _ Adapter = (*SolanaAdapter)(nil)

func NewSolanaAdapter(endpoints []string) *SolanaAdapter {
	return &SolanaAdapter{endpoints: endpoints}
}

func (a *SolanaAdapter) Chain() types.Chain { return types.ChainSolana }

func (a *SolanaAdapter) Verify(ctx context.Context, txHash, expectedTo string, minAmount, maxAmount decimal.Decimal) (bool, error) {
	sig, err := solana.SignatureFromBase58(txHash)
	if err != nil {
		// Not decodable as a signature, so it can never verify.
		return false, nil
	}
	expected, err := solana.PublicKeyFromBase58(expectedTo)
	if err != nil {
		return false, &types.BillPayError{
			Code:    types.ErrConfig,
			Message: fmt.Sprintf("treasury address is not a valid solana public key: %v", err),
		}
	}

	var lastErr error
	for _, endpoint := range a.endpoints {
		ok, err := a.verifyVia(ctx, endpoint, sig, expected, minAmount, maxAmount)
		if err != nil {
			lastErr = err
			continue
		}
		return ok, nil
	}
	return false, fmt.Errorf("%w: %v", errAllEndpointsFailed, lastErr)
}

func (a *SolanaAdapter) verifyVia(ctx context.Context, endpoint string, sig solana.Signature, expected solana.PublicKey, minAmount, maxAmount decimal.Decimal) (bool, error) {
	client := rpc.New(endpoint)

	callCtx, cancel := context.WithTimeout(ctx, defaultCallTimeout)
	defer cancel()

	maxVersion := uint64(0)
	out, err := client.GetTransaction(callCtx, sig, &rpc.GetTransactionOpts{
		Commitment:                     rpc.CommitmentFinalized,
		MaxSupportedTransactionVersion: &maxVersion,
	})
	if err != nil {
		return false, err
	}
	if out == nil || out.Transaction == nil {
		return false, nil
	}
	if out.Meta != nil && out.Meta.Err != nil {
		return false, nil
	}

	tx, err := out.Transaction.GetTransaction()
	if err != nil {
		return false, nil
	}

	lamports, found := sumSystemTransfers(tx, expected)
	if !found && out.Meta != nil {
		lamports, found = balanceDelta(tx, out.Meta, expected)
	}
	if !found || lamports == 0 {
		return false, nil
	}

	amount := decimal.New(int64(lamports), -types.ChainSolana.Decimals())
	return inBand(amount, minAmount, maxAmount), nil
}

// sumSystemTransfers adds up every system-program transfer instruction whose
// destination is the expected account.
func sumSystemTransfers(tx *solana.Transaction, expected solana.PublicKey) (uint64, bool) {
	var total uint64
	var found bool

	for _, inst := range tx.Message.Instructions {
		prog, err := tx.Message.Program(inst.ProgramIDIndex)
		if err != nil || !prog.Equals(solana.SystemProgramID) {
			continue
		}

		accountMetas := make([]*solana.AccountMeta, len(inst.Accounts))
		ok := true
		for i, accIdx := range inst.Accounts {
			pub, err := tx.Message.Account(accIdx)
			if err != nil {
				ok = false
				break
			}
			writable, err := tx.Message.IsWritable(pub)
			if err != nil {
				ok = false
				break
			}
			accountMetas[i] = &solana.AccountMeta{
				PublicKey:  pub,
				IsSigner:   tx.Message.IsSigner(pub),
				IsWritable: writable,
			}
		}
		if !ok {
			continue
		}

		sysInst, err := system.DecodeInstruction(accountMetas, inst.Data)
		if err != nil {
			continue
		}
		transfer, ok := sysInst.Impl.(*system.Transfer)
		if !ok || len(accountMetas) < 2 {
			continue
		}
		if accountMetas[1].PublicKey.Equals(expected) {
			total += *transfer.Lamports
			found = true
		}
	}
	return total, found
}

// balanceDelta computes how many lamports the expected account gained across
// the transaction, using the meta pre/post balance arrays.
func balanceDelta(tx *solana.Transaction, meta *rpc.TransactionMeta, expected solana.PublicKey) (uint64, bool) {
	for i, key := range tx.Message.AccountKeys {
		if !key.Equals(expected) {
			continue
		}
		if i >= len(meta.PreBalances) || i >= len(meta.PostBalances) {
			return 0, false
		}
		pre, post := meta.PreBalances[i], meta.PostBalances[i]
		if post <= pre {
			return 0, false
		}
		return post - pre, true
	}
	return 0, false
}

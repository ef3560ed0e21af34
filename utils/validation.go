// Package utils holds format-level validation helpers shared across the
// purchase core.
package utils

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/blockremit/billpay/types"
)

var (
	hexRe    = regexp.MustCompile(`^[0-9a-fA-F]+$`)
	base58Re = regexp.MustCompile(`^[1-9A-HJ-NP-Za-km-z]+$`)
)

// ValidateAmount checks that an amount is a positive decimal.
func ValidateAmount(amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return fmt.Errorf("amount must be positive")
	}
	return nil
}

// ValidateTransactionHash checks the shape of a transaction reference for
// the given chain. Shape only; existence is the verifier's job.
func ValidateTransactionHash(hash string, chain types.Chain) error {
	if hash == "" {
		return fmt.Errorf("transaction hash cannot be empty")
	}

	switch chain {
	case types.ChainEthereum, types.ChainUSDT, types.ChainPolkadot, types.ChainStarknet:
		// 0x-prefixed hex; Starknet hashes may be shorter than 64 nibbles.
		if !strings.HasPrefix(hash, "0x") {
			return fmt.Errorf("%s transaction hash must start with 0x", chain)
		}
		body := hash[2:]
		if chain == types.ChainStarknet {
			if len(body) == 0 || len(body) > 64 || !isHexString(body) {
				return fmt.Errorf("starknet transaction hash must be up to 64 hex characters")
			}
			return nil
		}
		if len(body) != 64 || !isHexString(body) {
			return fmt.Errorf("%s transaction hash must be 64 hex characters", chain)
		}

	case types.ChainBitcoin:
		if len(hash) != 64 || !isHexString(hash) {
			return fmt.Errorf("bitcoin transaction id must be 64 hex characters")
		}

	case types.ChainSolana:
		if len(hash) < 80 || len(hash) > 90 || !isBase58String(hash) {
			return fmt.Errorf("solana transaction signature must be base58, 80-90 characters")
		}

	case types.ChainStellar:
		if len(hash) != 64 || !isHexString(hash) {
			return fmt.Errorf("stellar transaction hash must be 64 hex characters")
		}

	default:
		return fmt.Errorf("unsupported chain for transaction hash validation: %s", chain)
	}

	return nil
}

// ValidateTreasuryAddress checks the shape of a treasury address for the
// given chain. Used when configuration is consulted at request time.
func ValidateTreasuryAddress(address string, chain types.Chain) error {
	if address == "" {
		return fmt.Errorf("address cannot be empty")
	}

	switch chain {
	case types.ChainEthereum, types.ChainUSDT:
		if !strings.HasPrefix(address, "0x") || len(address) != 42 || !isHexString(address[2:]) {
			return fmt.Errorf("%s address must be 0x plus 40 hex characters", chain)
		}

	case types.ChainStarknet:
		if !strings.HasPrefix(address, "0x") || len(address) < 3 || len(address) > 66 || !isHexString(address[2:]) {
			return fmt.Errorf("starknet address must be 0x plus up to 64 hex characters")
		}

	case types.ChainBitcoin:
		if len(address) < 26 || len(address) > 62 {
			return fmt.Errorf("bitcoin address has invalid length")
		}

	case types.ChainSolana:
		if len(address) < 32 || len(address) > 44 || !isBase58String(address) {
			return fmt.Errorf("solana address must be base58, 32-44 characters")
		}

	case types.ChainStellar:
		if len(address) != 56 || !strings.HasPrefix(address, "G") {
			return fmt.Errorf("stellar address must be a 56-character G... key")
		}

	case types.ChainPolkadot:
		if len(address) < 46 || len(address) > 48 || !isBase58String(address) {
			return fmt.Errorf("polkadot address must be SS58, 46-48 characters")
		}

	default:
		return fmt.Errorf("unsupported chain for address validation: %s", chain)
	}

	return nil
}

func isHexString(s string) bool {
	return hexRe.MatchString(s)
}

func isBase58String(s string) bool {
	return base58Re.MatchString(s)
}

package types

// Chain represents a supported blockchain network.
type Chain string

const (
	ChainEthereum Chain = "ethereum"
	ChainBitcoin  Chain = "bitcoin"
	ChainSolana   Chain = "solana"
	ChainStellar  Chain = "stellar"
	ChainPolkadot Chain = "polkadot"
	ChainStarknet Chain = "starknet"

	// ChainUSDT is USDT on Ethereum. Payments are ERC-20 Transfer events
	// rather than native value transfers, so it gets its own adapter.
	ChainUSDT Chain = "usdt"

	// PaymentFiat is the sentinel stored in Purchase.Blockchain for
	// fiat-settled purchases. It is not a verifiable chain.
	PaymentFiat Chain = "fiat"
)

// AllChains lists every chain with a verification adapter.
var AllChains = []Chain{
	ChainEthereum,
	ChainBitcoin,
	ChainSolana,
	ChainStellar,
	ChainPolkadot,
	ChainStarknet,
	ChainUSDT,
}

// IsSupported reports whether the chain has a verification adapter.
func (c Chain) IsSupported() bool {
	for _, chain := range AllChains {
		if c == chain {
			return true
		}
	}
	return false
}

// IsFiat reports whether the value is the fiat payment sentinel.
func (c Chain) IsFiat() bool {
	return c == PaymentFiat
}

// Symbol returns the ticker of the asset expected as payment on the chain.
func (c Chain) Symbol() string {
	switch c {
	case ChainEthereum:
		return "ETH"
	case ChainBitcoin:
		return "BTC"
	case ChainSolana:
		return "SOL"
	case ChainStellar:
		return "XLM"
	case ChainPolkadot:
		return "DOT"
	case ChainStarknet:
		return "STRK"
	case ChainUSDT:
		return "USDT"
	default:
		return ""
	}
}

// Decimals returns the exponent between the chain's smallest unit and one
// whole unit of its payment asset (wei→ETH is 18, lamport→SOL is 9, ...).
func (c Chain) Decimals() int32 {
	switch c {
	case ChainEthereum, ChainStarknet:
		return 18
	case ChainBitcoin:
		return 8
	case ChainSolana:
		return 9
	case ChainStellar:
		return 7
	case ChainPolkadot:
		return 10
	case ChainUSDT:
		return 6
	default:
		return 0
	}
}

func (c Chain) String() string {
	return string(c)
}

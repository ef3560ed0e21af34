package types

// BillPayError is the typed error carried across the core's boundaries.
type BillPayError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

func (e *BillPayError) Error() string {
	return e.Message
}

// Common error codes
const (
	ErrValidation           = "VALIDATION_ERROR"
	ErrDuplicateTransaction = "DUPLICATE_TRANSACTION"
	ErrVerificationFailed   = "VERIFICATION_FAILED"
	ErrProviderFailed       = "PROVIDER_ERROR"
	ErrUnsupportedChain     = "UNSUPPORTED_CHAIN"
	ErrRateUnavailable      = "RATE_UNAVAILABLE"
	ErrConfig               = "CONFIG_ERROR"
	ErrInvalidTransition    = "INVALID_TRANSITION"
	ErrNotFound             = "NOT_FOUND"
)

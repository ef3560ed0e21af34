// Package types holds the shared domain model of the billpay core: purchase
// records, payment expectations, request payloads and the error taxonomy.
package types

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Category identifies which good a purchase delivers.
type Category string

const (
	CategoryAirtime     Category = "airtime"
	CategoryData        Category = "data"
	CategoryElectricity Category = "electricity"
)

// AllCategories lists every purchase category in cross-category queries.
var AllCategories = []Category{CategoryAirtime, CategoryData, CategoryElectricity}

// PurchaseStatus is the lifecycle state of a purchase record.
type PurchaseStatus string

const (
	StatusPending    PurchaseStatus = "pending"
	StatusProcessing PurchaseStatus = "processing"
	StatusCompleted  PurchaseStatus = "completed"
	StatusFailed     PurchaseStatus = "failed"
)

// statusRank orders statuses along the only legal path:
// pending → processing → {completed | failed}.
func statusRank(s PurchaseStatus) int {
	switch s {
	case StatusPending:
		return 0
	case StatusProcessing:
		return 1
	case StatusCompleted, StatusFailed:
		return 2
	default:
		return -1
	}
}

// CanTransition reports whether a purchase may move from one status to
// another. Terminal states never transition and the path never moves
// backward.
func CanTransition(from, to PurchaseStatus) bool {
	fr, tr := statusRank(from), statusRank(to)
	if fr < 0 || tr < 0 {
		return false
	}
	if fr == 2 {
		return false
	}
	return tr == fr+1
}

// Purchase is the durable record of one bill-purchase attempt. Records are
// never deleted; they are the audit trail for payments and refunds.
type Purchase struct {
	ID       uuid.UUID `json:"id"`
	UserID   string    `json:"userId"`
	Category Category  `json:"category"`

	// Target describes what is being delivered: phone number and carrier
	// for airtime, plan id for data, meter number / company / meter type
	// for electricity. Keys are category-specific.
	Target map[string]string `json:"target"`

	Status PurchaseStatus `json:"status"`

	// Blockchain is the chain the payment arrived on, or PaymentFiat.
	Blockchain      Chain           `json:"blockchain"`
	CryptoAmount    decimal.Decimal `json:"cryptoAmount"`
	CryptoCurrency  string          `json:"cryptoCurrency"`
	FiatAmount      decimal.Decimal `json:"fiatAmount"`
	TransactionHash string          `json:"transactionHash,omitempty"`

	// ProviderReference is set only after a successful fulfilment call.
	ProviderReference string `json:"providerReference,omitempty"`

	// Metadata accumulates provider responses, failure reasons and refund
	// intents. Appended to, never rewritten.
	Metadata map[string]any `json:"metadata,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// SetStatus applies a lifecycle transition, rejecting any move that is not
// strictly forward.
func (p *Purchase) SetStatus(to PurchaseStatus) error {
	if !CanTransition(p.Status, to) {
		return &BillPayError{
			Code:    ErrInvalidTransition,
			Message: "illegal purchase status transition from " + string(p.Status) + " to " + string(to),
		}
	}
	p.Status = to
	p.UpdatedAt = time.Now().UTC()
	return nil
}

// AppendMetadata merges entries into the purchase metadata map.
func (p *Purchase) AppendMetadata(entries map[string]any) {
	if p.Metadata == nil {
		p.Metadata = make(map[string]any, len(entries))
	}
	for k, v := range entries {
		p.Metadata[k] = v
	}
	p.UpdatedAt = time.Now().UTC()
}

// RefundIntent flags funds that were verified on-chain but whose purchase
// could not be fulfilled. A separate reconciliation process consumes these.
type RefundIntent struct {
	Amount   decimal.Decimal `json:"amount"`
	Currency string          `json:"currency"`
	Reason   string          `json:"reason"`
	Status   string          `json:"status"`
	RaisedAt time.Time       `json:"raisedAt"`
}

// RefundStatusPending is the only status this core ever writes; resolution
// happens out-of-band.
const RefundStatusPending = "pending"

// MetadataKeyRefundIntent is where the refund intent lands in
// Purchase.Metadata.
const MetadataKeyRefundIntent = "refund_intent"

// ExpectedPayment is the ephemeral contract handed to the transaction
// verifier: what should have been paid, where, and how much drift is
// acceptable. It is computed per attempt and never persisted.
type ExpectedPayment struct {
	Chain             Chain
	ExpectedAddress   string
	ExpectedAmount    decimal.Decimal
	ToleranceFraction decimal.Decimal
}

// Band returns the inclusive [min, max] amount range accepted as payment.
func (e ExpectedPayment) Band() (min, max decimal.Decimal) {
	delta := e.ExpectedAmount.Mul(e.ToleranceFraction)
	return e.ExpectedAmount.Sub(delta), e.ExpectedAmount.Add(delta)
}

// AirtimeRequest is the caller's input for an airtime purchase.
type AirtimeRequest struct {
	PhoneNumber     string          `json:"phoneNumber" validate:"required"`
	Network         string          `json:"network" validate:"required,oneof=mtn airtel glo 9mobile"`
	AmountNGN       decimal.Decimal `json:"amount"`
	Blockchain      Chain           `json:"blockchain"`
	TransactionHash string          `json:"transactionHash"`
}

// DataRequest is the caller's input for a mobile-data purchase.
type DataRequest struct {
	PhoneNumber     string          `json:"phoneNumber" validate:"required"`
	PlanID          string          `json:"planId" validate:"required"`
	AmountNGN       decimal.Decimal `json:"amount"`
	Blockchain      Chain           `json:"blockchain"`
	TransactionHash string          `json:"transactionHash"`
}

// ElectricityRequest is the caller's input for an electricity token purchase.
type ElectricityRequest struct {
	MeterNumber     string          `json:"meterNumber" validate:"required"`
	Company         string          `json:"company" validate:"required"`
	MeterType       string          `json:"meterType" validate:"required,oneof=prepaid postpaid"`
	AmountNGN       decimal.Decimal `json:"amount"`
	Blockchain      Chain           `json:"blockchain"`
	TransactionHash string          `json:"transactionHash"`
}

// ProviderResult is the fulfilment provider's answer, already mapped to the
// internal taxonomy.
type ProviderResult struct {
	Success    bool           `json:"success"`
	Reference  string         `json:"reference,omitempty"`
	StatusCode string         `json:"statusCode,omitempty"`
	Reason     string         `json:"reason,omitempty"`
	Raw        map[string]any `json:"raw,omitempty"`
}

// SecurityEvent is one entry in the append-only security log.
type SecurityEvent struct {
	Type       SecurityEventType `json:"type"`
	Category   Category          `json:"category,omitempty"`
	PurchaseID string            `json:"purchaseId,omitempty"`
	TxHash     string            `json:"txHash,omitempty"`
	UserID     string            `json:"userId,omitempty"`
	Detail     string            `json:"detail,omitempty"`
	OccurredAt time.Time         `json:"occurredAt"`
}

// SecurityEventType classifies security log entries.
type SecurityEventType string

const (
	EventValidationFailure SecurityEventType = "validation_failure"
	EventDuplicateTxHash   SecurityEventType = "duplicate_tx_hash"
	EventRefundIntent      SecurityEventType = "refund_intent"
)

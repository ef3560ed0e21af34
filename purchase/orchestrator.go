// Package purchase owns the purchase state machine: input validation,
// duplicate rejection, payment verification, fulfilment and finalization.
// One orchestrator serves all three categories; they share a single shape.
package purchase

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/blockremit/billpay/logger"
	"github.com/blockremit/billpay/metrics"
	"github.com/blockremit/billpay/provider"
	"github.com/blockremit/billpay/security"
	"github.com/blockremit/billpay/store"
	"github.com/blockremit/billpay/types"
	"github.com/blockremit/billpay/utils"
	"github.com/blockremit/billpay/verification"
)

// DefaultTolerance is the accepted drift between the quoted and the settled
// crypto amount: 1% either way.
var DefaultTolerance = decimal.RequireFromString("0.01")

// AmountConverter turns a fiat amount into the crypto amount expected on a
// chain. Implemented by rates.Converter.
type AmountConverter interface {
	Convert(ctx context.Context, fiatAmount decimal.Decimal, chain types.Chain) (decimal.Decimal, error)
}

// PaymentVerifier proves an on-chain payment. Implemented by
// verification.Verifier.
type PaymentVerifier interface {
	VerifyPayment(ctx context.Context, txHash string, expected types.ExpectedPayment) (verification.Outcome, error)
}

// Orchestrator drives a purchase from request to terminal state:
//
//	validating → [crypto: unique-check → convert → processing record →
//	verify] | [fiat: processing record] → provider call → completed/failed
//
// Failures after the processing record is persisted always finalize the
// record before the error is returned, so the audit trail survives.
type Orchestrator struct {
	repo       store.Repository
	rules      *Rules
	guard      *Guard
	converter  AmountConverter
	verifier   PaymentVerifier
	fulfiller  provider.Fulfiller
	events     *security.EventLog
	treasuries map[types.Chain]string
	tolerance  decimal.Decimal
	log        logger.Logger
	rec        metrics.Recorder
}

// OrchestratorParams carries the collaborators of an Orchestrator.
type OrchestratorParams struct {
	Repo       store.Repository
	Rules      *Rules
	Guard      *Guard
	Converter  AmountConverter
	Verifier   PaymentVerifier
	Fulfiller  provider.Fulfiller
	Events     *security.EventLog
	Treasuries map[types.Chain]string
	Tolerance  decimal.Decimal
	Logger     logger.Logger
	Metrics    metrics.Recorder
}

func NewOrchestrator(params OrchestratorParams) *Orchestrator {
	tolerance := params.Tolerance
	if tolerance.IsZero() {
		tolerance = DefaultTolerance
	}
	log := params.Logger
	if log == nil {
		log = logger.NoopLogger{}
	}
	rec := params.Metrics
	if rec == nil {
		rec = metrics.NoopRecorder{}
	}
	events := params.Events
	if events == nil {
		events = security.NewEventLog(nil, nil, nil)
	}
	return &Orchestrator{
		repo:       params.Repo,
		rules:      params.Rules,
		guard:      params.Guard,
		converter:  params.Converter,
		verifier:   params.Verifier,
		fulfiller:  params.Fulfiller,
		events:     events,
		treasuries: params.Treasuries,
		tolerance:  tolerance,
		log:        log,
		rec:        rec,
	}
}

// SubmitAirtime processes an airtime purchase for the user.
func (o *Orchestrator) SubmitAirtime(ctx context.Context, userID string, req types.AirtimeRequest) (*types.Purchase, error) {
	sub, err := o.rules.ValidateAirtime(ctx, req)
	if err != nil {
		return nil, o.rejectInvalid(ctx, userID, types.CategoryAirtime, err)
	}
	return o.process(ctx, userID, sub)
}

// SubmitData processes a mobile-data purchase for the user.
func (o *Orchestrator) SubmitData(ctx context.Context, userID string, req types.DataRequest) (*types.Purchase, error) {
	sub, err := o.rules.ValidateData(ctx, req)
	if err != nil {
		return nil, o.rejectInvalid(ctx, userID, types.CategoryData, err)
	}
	return o.process(ctx, userID, sub)
}

// SubmitElectricity processes an electricity token purchase for the user.
func (o *Orchestrator) SubmitElectricity(ctx context.Context, userID string, req types.ElectricityRequest) (*types.Purchase, error) {
	sub, err := o.rules.ValidateElectricity(ctx, req)
	if err != nil {
		return nil, o.rejectInvalid(ctx, userID, types.CategoryElectricity, err)
	}
	return o.process(ctx, userID, sub)
}

func (o *Orchestrator) rejectInvalid(ctx context.Context, userID string, category types.Category, err error) error {
	o.events.Record(ctx, types.SecurityEvent{
		Type:     types.EventValidationFailure,
		Category: category,
		UserID:   userID,
		Detail:   err.Error(),
	})
	return err
}

// process runs the shared state machine. The submission has already passed
// validation; no record exists yet.
func (o *Orchestrator) process(ctx context.Context, userID string, sub submission) (*types.Purchase, error) {
	var (
		cryptoAmount decimal.Decimal
		expected     types.ExpectedPayment
	)

	if sub.isCrypto() {
		if err := o.guard.AssertUnused(ctx, userID, sub.txHash); err != nil {
			return nil, err
		}

		treasury, ok := o.treasuries[sub.chain]
		if !ok || treasury == "" {
			return nil, &types.BillPayError{
				Code:    types.ErrConfig,
				Message: fmt.Sprintf("no treasury address configured for chain %s", sub.chain),
			}
		}
		if err := utils.ValidateTreasuryAddress(treasury, sub.chain); err != nil {
			return nil, &types.BillPayError{
				Code:    types.ErrConfig,
				Message: fmt.Sprintf("treasury address for chain %s is misconfigured: %v", sub.chain, err),
			}
		}

		var err error
		cryptoAmount, err = o.converter.Convert(ctx, sub.amountNGN, sub.chain)
		if err != nil {
			return nil, err
		}

		expected = types.ExpectedPayment{
			Chain:             sub.chain,
			ExpectedAddress:   treasury,
			ExpectedAmount:    cryptoAmount,
			ToleranceFraction: o.tolerance,
		}
	}

	record, err := o.createProcessingRecord(ctx, userID, sub, cryptoAmount)
	if err != nil {
		return nil, err
	}

	if sub.isCrypto() {
		outcome, err := o.verifier.VerifyPayment(ctx, sub.txHash, expected)
		if err != nil {
			o.failRecord(ctx, record, fmt.Sprintf("verification aborted: %v", err))
			o.persist(ctx, record)
			return record, err
		}
		if !outcome.Verified() {
			o.failRecord(ctx, record, "verification failed")
			record.AppendMetadata(map[string]any{"verify_attempts": outcome.Attempts})
			o.persist(ctx, record)
			return record, &types.BillPayError{
				Code:    types.ErrVerificationFailed,
				Message: fmt.Sprintf("could not verify payment on %s after %d attempts", sub.chain, outcome.Attempts),
			}
		}
	}

	result, err := o.fulfiller.Purchase(ctx, sub.category, sub.target, sub.amountNGN)
	if err != nil {
		return o.failFulfilment(ctx, record, sub, "provider unreachable: "+err.Error())
	}
	if !result.Success {
		record.AppendMetadata(map[string]any{
			"provider_status_code": result.StatusCode,
			"provider_response":    result.Raw,
		})
		return o.failFulfilment(ctx, record, sub, result.Reason)
	}

	record.ProviderReference = result.Reference
	record.AppendMetadata(map[string]any{"provider_response": result.Raw})
	if err := record.SetStatus(types.StatusCompleted); err != nil {
		return record, err
	}
	if err := o.persist(ctx, record); err != nil {
		return record, err
	}

	o.rec.IncCounter("purchase_completed", map[string]string{"chain": record.Blockchain.String()})
	o.log.Info("purchase completed", map[string]any{
		"purchaseId": record.ID.String(),
		"category":   string(record.Category),
		"chain":      record.Blockchain.String(),
		"reference":  result.Reference,
	})
	return record, nil
}

// createProcessingRecord persists the purchase before any fulfilment-side
// call is made. From here on the record always reaches a terminal state
// unless the process dies.
func (o *Orchestrator) createProcessingRecord(ctx context.Context, userID string, sub submission, cryptoAmount decimal.Decimal) (*types.Purchase, error) {
	now := time.Now().UTC()
	record := &types.Purchase{
		ID:         uuid.New(),
		UserID:     userID,
		Category:   sub.category,
		Target:     sub.target,
		Status:     types.StatusPending,
		Blockchain: sub.chain,
		FiatAmount: sub.amountNGN,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if sub.isCrypto() {
		record.CryptoAmount = cryptoAmount
		record.CryptoCurrency = sub.chain.Symbol()
		record.TransactionHash = sub.txHash
	}

	if err := o.repo.CreatePurchase(ctx, record); err != nil {
		return nil, fmt.Errorf("create purchase record: %w", err)
	}
	if err := record.SetStatus(types.StatusProcessing); err != nil {
		return nil, err
	}
	if err := o.persist(ctx, record); err != nil {
		return nil, err
	}
	return record, nil
}

// failFulfilment finalizes a record after the provider said no. A verified
// crypto payment gets a refund intent: funds arrived but nothing was
// delivered.
func (o *Orchestrator) failFulfilment(ctx context.Context, record *types.Purchase, sub submission, reason string) (*types.Purchase, error) {
	if sub.isCrypto() {
		intent := types.RefundIntent{
			Amount:   record.CryptoAmount,
			Currency: record.CryptoCurrency,
			Reason:   reason,
			Status:   types.RefundStatusPending,
			RaisedAt: time.Now().UTC(),
		}
		record.AppendMetadata(map[string]any{types.MetadataKeyRefundIntent: intent})

		o.events.Record(ctx, types.SecurityEvent{
			Type:       types.EventRefundIntent,
			Category:   record.Category,
			PurchaseID: record.ID.String(),
			TxHash:     record.TransactionHash,
			UserID:     record.UserID,
			Detail:     reason,
		})
		o.rec.IncCounter("refund_intent", map[string]string{"chain": record.Blockchain.String()})
	}

	o.failRecord(ctx, record, reason)
	if err := o.persist(ctx, record); err != nil {
		return record, err
	}

	return record, &types.BillPayError{
		Code:    types.ErrProviderFailed,
		Message: reason,
	}
}

// failRecord moves the record to failed with a reason. Persisting is the
// caller's responsibility.
func (o *Orchestrator) failRecord(ctx context.Context, record *types.Purchase, reason string) {
	record.AppendMetadata(map[string]any{"failure_reason": reason})
	if err := record.SetStatus(types.StatusFailed); err != nil {
		o.log.Error("illegal failure transition", map[string]any{
			"purchaseId": record.ID.String(),
			"error":      err.Error(),
		})
		return
	}
	o.rec.IncCounter("purchase_failed", map[string]string{"chain": record.Blockchain.String()})
}

func (o *Orchestrator) persist(ctx context.Context, record *types.Purchase) error {
	if err := o.repo.UpdatePurchase(ctx, record); err != nil {
		o.log.Error("purchase update failed", map[string]any{
			"purchaseId": record.ID.String(),
			"status":     string(record.Status),
			"error":      err.Error(),
		})
		return fmt.Errorf("update purchase record: %w", err)
	}
	return nil
}

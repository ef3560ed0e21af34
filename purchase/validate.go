package purchase

import (
	"context"
	"fmt"
	"regexp"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"github.com/blockremit/billpay/types"
	"github.com/blockremit/billpay/utils"
)

// Airtime amount bounds in NGN.
var (
	minAirtimeNGN = decimal.NewFromInt(50)
	maxAirtimeNGN = decimal.NewFromInt(50_000)
)

// ngMSISDNRe matches Nigerian mobile numbers in local (0803...) or
// international (+234803... / 234803...) form.
var ngMSISDNRe = regexp.MustCompile(`^(?:\+234|234|0)[789][01][0-9]{8}$`)

// meterNumberRe matches 10-13 digit meter numbers.
var meterNumberRe = regexp.MustCompile(`^[0-9]{10,13}$`)

// submission is a validated, normalized purchase request ready for the
// orchestrator state machine.
type submission struct {
	category  types.Category
	target    map[string]string
	amountNGN decimal.Decimal
	chain     types.Chain
	txHash    string
}

// isCrypto reports whether the submission pays with an on-chain transaction.
func (s submission) isCrypto() bool {
	return !s.chain.IsFiat()
}

// Rules validates raw requests into submissions. Struct-shape checks use the
// validator tags on the request types; payment pairing, amount bounds and
// format rules are applied here.
type Rules struct {
	validate *validator.Validate
	catalog  *Catalog
}

func NewRules(catalog *Catalog) *Rules {
	v := validator.New()
	return &Rules{validate: v, catalog: catalog}
}

func validationError(format string, args ...any) error {
	return &types.BillPayError{
		Code:    types.ErrValidation,
		Message: fmt.Sprintf(format, args...),
	}
}

// paymentFields normalizes the (blockchain, transactionHash) pair. An empty
// blockchain defaults to fiat. Exactly one of the two being present is a
// validation error.
func paymentFields(chain types.Chain, txHash string) (types.Chain, string, error) {
	if chain == "" {
		chain = types.PaymentFiat
	}
	if chain.IsFiat() {
		if txHash != "" {
			return "", "", validationError("transactionHash requires a blockchain")
		}
		return types.PaymentFiat, "", nil
	}
	if !chain.IsSupported() {
		return "", "", &types.BillPayError{
			Code:    types.ErrUnsupportedChain,
			Message: fmt.Sprintf("unsupported blockchain %q", chain),
		}
	}
	if txHash == "" {
		return "", "", validationError("blockchain %s requires a transactionHash", chain)
	}
	if err := utils.ValidateTransactionHash(txHash, chain); err != nil {
		return "", "", validationError("invalid transaction hash: %v", err)
	}
	return chain, txHash, nil
}

// ValidateAirtime checks an airtime request and returns its submission.
func (r *Rules) ValidateAirtime(ctx context.Context, req types.AirtimeRequest) (submission, error) {
	if err := r.validate.Struct(req); err != nil {
		return submission{}, validationError("invalid airtime request: %v", err)
	}
	if !ngMSISDNRe.MatchString(req.PhoneNumber) {
		return submission{}, validationError("phone number %q is not a valid Nigerian mobile number", req.PhoneNumber)
	}
	if err := utils.ValidateAmount(req.AmountNGN); err != nil {
		return submission{}, validationError("%v", err)
	}
	if req.AmountNGN.LessThan(minAirtimeNGN) || req.AmountNGN.GreaterThan(maxAirtimeNGN) {
		return submission{}, validationError("airtime amount must be between %s and %s NGN",
			minAirtimeNGN, maxAirtimeNGN)
	}

	chain, txHash, err := paymentFields(req.Blockchain, req.TransactionHash)
	if err != nil {
		return submission{}, err
	}

	return submission{
		category: types.CategoryAirtime,
		target: map[string]string{
			"phone_number": req.PhoneNumber,
			"network":      req.Network,
		},
		amountNGN: req.AmountNGN,
		chain:     chain,
		txHash:    txHash,
	}, nil
}

// ValidateData checks a data-bundle request against the plan catalog.
func (r *Rules) ValidateData(ctx context.Context, req types.DataRequest) (submission, error) {
	if err := r.validate.Struct(req); err != nil {
		return submission{}, validationError("invalid data request: %v", err)
	}
	if !ngMSISDNRe.MatchString(req.PhoneNumber) {
		return submission{}, validationError("phone number %q is not a valid Nigerian mobile number", req.PhoneNumber)
	}

	plan, err := r.catalog.PlanByID(ctx, req.PlanID)
	if err != nil {
		return submission{}, err
	}
	if !req.AmountNGN.Equal(plan.PriceNGN) {
		return submission{}, validationError("amount %s does not match plan %s price %s NGN",
			req.AmountNGN, plan.ID, plan.PriceNGN)
	}

	chain, txHash, err := paymentFields(req.Blockchain, req.TransactionHash)
	if err != nil {
		return submission{}, err
	}

	return submission{
		category: types.CategoryData,
		target: map[string]string{
			"phone_number": req.PhoneNumber,
			"plan_id":      plan.ID,
			"network":      plan.Network,
		},
		amountNGN: req.AmountNGN,
		chain:     chain,
		txHash:    txHash,
	}, nil
}

// ValidateElectricity checks an electricity request against the company
// catalog and the meter-number format.
func (r *Rules) ValidateElectricity(ctx context.Context, req types.ElectricityRequest) (submission, error) {
	if err := r.validate.Struct(req); err != nil {
		return submission{}, validationError("invalid electricity request: %v", err)
	}
	if !meterNumberRe.MatchString(req.MeterNumber) {
		return submission{}, validationError("meter number must be 10-13 digits")
	}

	company, err := r.catalog.CompanyByCode(ctx, req.Company)
	if err != nil {
		return submission{}, err
	}
	if err := utils.ValidateAmount(req.AmountNGN); err != nil {
		return submission{}, validationError("%v", err)
	}
	if req.AmountNGN.LessThan(company.MinNGN) || req.AmountNGN.GreaterThan(company.MaxNGN) {
		return submission{}, validationError("amount must be between %s and %s NGN for %s",
			company.MinNGN, company.MaxNGN, company.Name)
	}

	chain, txHash, err := paymentFields(req.Blockchain, req.TransactionHash)
	if err != nil {
		return submission{}, err
	}

	return submission{
		category: types.CategoryElectricity,
		target: map[string]string{
			"meter_number": req.MeterNumber,
			"company":      company.Code,
			"meter_type":   req.MeterType,
		},
		amountNGN: req.AmountNGN,
		chain:     chain,
		txHash:    txHash,
	}, nil
}

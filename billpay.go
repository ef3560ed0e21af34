// Package billpay is the purchase core for crypto-paid utility bills. It
// wires the chain adapters, rate conversion, payment verification and
// provider fulfilment into one facade that callers drive with purchase
// requests.
package billpay

import (
	"context"

	"github.com/google/uuid"

	"github.com/blockremit/billpay/chains"
	"github.com/blockremit/billpay/config"
	"github.com/blockremit/billpay/logger"
	"github.com/blockremit/billpay/metrics"
	"github.com/blockremit/billpay/provider"
	"github.com/blockremit/billpay/purchase"
	"github.com/blockremit/billpay/rates"
	"github.com/blockremit/billpay/security"
	"github.com/blockremit/billpay/store"
	"github.com/blockremit/billpay/types"
	"github.com/blockremit/billpay/verification"
)

// BillPay is the main entry point. One instance serves all categories and
// chains; it is safe for concurrent use once constructed.
type BillPay struct {
	orchestrator *purchase.Orchestrator
	verifier     *verification.Verifier
	repo         store.Repository
	treasuries   map[types.Chain]string
	log          logger.Logger
	rec          metrics.Recorder
}

// New builds a BillPay from configuration. Chain adapters are registered for
// every chain with configured endpoints; Polkadot additionally needs a
// Subscan API key and is skipped with a warning without one. A chain with an
// adapter but no treasury address still rejects payments at request time.
func New(cfg config.Config, repo store.Repository, fulfiller provider.Fulfiller, opts ...Option) (*BillPay, error) {
	b := &BillPay{
		repo: repo,
		log:  logger.NewZapLogger(cfg.LogLevel),
		rec:  metrics.NoopRecorder{},
	}
	for _, opt := range opts {
		opt(b)
	}

	if fulfiller == nil {
		fulfiller = provider.NewClient(cfg.ProviderBaseURL, cfg.ProviderAPIKey)
	}

	verifier := verification.NewVerifier(
		verification.WithMaxAttempts(cfg.VerifyAttempts),
		verification.WithAttemptDelay(cfg.VerifyDelay),
		verification.WithLogger(b.log),
		verification.WithMetrics(b.rec),
	)
	if err := registerAdapters(verifier, cfg, b.log); err != nil {
		return nil, err
	}
	b.verifier = verifier

	converter := rates.NewConverter(cfg.RateSourceURL, cfg.RateSourceKey, cfg.RateCacheTTL, b.log)
	events := security.NewEventLog(b.log, b.rec, repo)
	catalog := purchase.NewCatalog(cfg.CatalogTTL, nil)
	b.treasuries = cfg.Treasuries()

	b.orchestrator = purchase.NewOrchestrator(purchase.OrchestratorParams{
		Repo:       repo,
		Rules:      purchase.NewRules(catalog),
		Guard:      purchase.NewGuard(repo, events),
		Converter:  converter,
		Verifier:   verifier,
		Fulfiller:  fulfiller,
		Events:     events,
		Treasuries: b.treasuries,
		Logger:     b.log,
		Metrics:    b.rec,
	})
	return b, nil
}

func registerAdapters(v *verification.Verifier, cfg config.Config, log logger.Logger) error {
	if eps := cfg.Endpoints(types.ChainEthereum); len(eps) > 0 {
		v.Register(chains.NewEthereumAdapter(eps))
		v.Register(chains.NewUSDTAdapter(eps))
	}
	if eps := cfg.Endpoints(types.ChainBitcoin); len(eps) > 0 {
		v.Register(chains.NewBitcoinAdapter(eps))
	}
	if eps := cfg.Endpoints(types.ChainSolana); len(eps) > 0 {
		v.Register(chains.NewSolanaAdapter(eps))
	}
	if eps := cfg.Endpoints(types.ChainStellar); len(eps) > 0 {
		v.Register(chains.NewStellarAdapter(eps))
	}
	if eps := cfg.Endpoints(types.ChainStarknet); len(eps) > 0 {
		v.Register(chains.NewStarknetAdapter(eps))
	}
	if eps := cfg.Endpoints(types.ChainPolkadot); len(eps) > 0 {
		if cfg.SubscanAPIKey == "" {
			log.Warn("polkadot endpoints configured without SUBSCAN_API_KEY, chain disabled", nil)
		} else {
			adapter, err := chains.NewPolkadotAdapter(eps, cfg.SubscanAPIKey)
			if err != nil {
				return err
			}
			v.Register(adapter)
		}
	}
	return nil
}

// RegisterChain installs a custom verification adapter, replacing any adapter
// already registered for its chain.
func (b *BillPay) RegisterChain(adapter chains.Adapter) {
	b.verifier.Register(adapter)
}

// SubmitAirtime runs an airtime purchase to a terminal state and returns the
// persisted record. On failure the returned record, when non-nil, carries
// the failure reason in its metadata.
func (b *BillPay) SubmitAirtime(ctx context.Context, userID string, req types.AirtimeRequest) (*types.Purchase, error) {
	return b.orchestrator.SubmitAirtime(ctx, userID, req)
}

// SubmitData runs a mobile-data purchase to a terminal state.
func (b *BillPay) SubmitData(ctx context.Context, userID string, req types.DataRequest) (*types.Purchase, error) {
	return b.orchestrator.SubmitData(ctx, userID, req)
}

// SubmitElectricity runs an electricity token purchase to a terminal state.
func (b *BillPay) SubmitElectricity(ctx context.Context, userID string, req types.ElectricityRequest) (*types.Purchase, error) {
	return b.orchestrator.SubmitElectricity(ctx, userID, req)
}

// GetPurchase fetches one purchase record by category and id.
func (b *BillPay) GetPurchase(ctx context.Context, category types.Category, id uuid.UUID) (*types.Purchase, error) {
	return b.repo.FindPurchaseByID(ctx, category, id)
}

// ListPurchases returns the user's purchases in a category, newest first.
func (b *BillPay) ListPurchases(ctx context.Context, category types.Category, userID string) ([]types.Purchase, error) {
	return b.repo.ListPurchasesByUser(ctx, category, userID)
}

// SupportedChains lists the chains that can currently take payment: adapter
// registered and treasury address configured.
func (b *BillPay) SupportedChains() []types.Chain {
	var out []types.Chain
	for _, chain := range types.AllChains {
		if b.verifier.Supports(chain) && b.treasuries[chain] != "" {
			out = append(out, chain)
		}
	}
	return out
}

// TreasuryFor returns the deposit address payers should use for a chain.
func (b *BillPay) TreasuryFor(chain types.Chain) (string, bool) {
	addr, ok := b.treasuries[chain]
	return addr, ok && addr != ""
}

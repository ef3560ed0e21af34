// Package verification runs the bounded-retry verification protocol over a
// registry of chain adapters.
package verification

import (
	"context"
	"fmt"
	"time"

	"github.com/blockremit/billpay/chains"
	"github.com/blockremit/billpay/logger"
	"github.com/blockremit/billpay/metrics"
	"github.com/blockremit/billpay/types"
)

const (
	// DefaultMaxAttempts bounds how many times one payment is looked up
	// before verification is declared exhausted.
	DefaultMaxAttempts = 12

	// DefaultAttemptDelay is the fixed pause between attempts. The dominant
	// latency source is upstream indexing lag, which clears on a roughly
	// constant schedule, so a fixed delay fits better than backoff.
	DefaultAttemptDelay = 5 * time.Second
)

// State is the position of one verification run in its lifecycle.
type State string

const (
	StateNotStarted State = "not-started"
	StateAttempting State = "attempting"
	StateVerified   State = "verified"
	StateExhausted  State = "exhausted"
)

// Outcome is the terminal result of one verification run.
type Outcome struct {
	State    State
	Attempts int
}

// Verified reports whether the run ended in the verified state.
func (o Outcome) Verified() bool { return o.State == StateVerified }

// Verifier dispatches expected payments to the adapter registered for the
// payment's chain, retrying on a fixed schedule until verified or exhausted.
type Verifier struct {
	adapters    map[types.Chain]chains.Adapter
	maxAttempts int
	delay       time.Duration
	sleep       func(ctx context.Context, d time.Duration) error
	log         logger.Logger
	rec         metrics.Recorder
}

// VerifierOption tunes a Verifier. The attempt count and delay are injected
// rather than hardcoded so tests can run with a zero delay.
type VerifierOption func(*Verifier)

func WithMaxAttempts(n int) VerifierOption {
	return func(v *Verifier) {
		if n > 0 {
			v.maxAttempts = n
		}
	}
}

func WithAttemptDelay(d time.Duration) VerifierOption {
	return func(v *Verifier) {
		if d >= 0 {
			v.delay = d
		}
	}
}

func WithLogger(l logger.Logger) VerifierOption {
	return func(v *Verifier) { v.log = l }
}

func WithMetrics(r metrics.Recorder) VerifierOption {
	return func(v *Verifier) { v.rec = r }
}

func NewVerifier(opts ...VerifierOption) *Verifier {
	v := &Verifier{
		adapters:    make(map[types.Chain]chains.Adapter),
		maxAttempts: DefaultMaxAttempts,
		delay:       DefaultAttemptDelay,
		sleep:       sleepCtx,
		log:         logger.NoopLogger{},
		rec:         metrics.NoopRecorder{},
	}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// Register installs the adapter for its chain, replacing any previous one.
func (v *Verifier) Register(adapter chains.Adapter) {
	v.adapters[adapter.Chain()] = adapter
}

// Supports reports whether an adapter is registered for the chain.
func (v *Verifier) Supports(chain types.Chain) bool {
	_, ok := v.adapters[chain]
	return ok
}

// VerifyPayment runs the retry state machine for one expected payment:
// not-started → attempting(k) → verified | exhausted, k = 1..maxAttempts.
//
// An adapter error on an attempt is logged and treated exactly like a false
// verdict; only a missing adapter or a cancelled context aborts the run.
func (v *Verifier) VerifyPayment(ctx context.Context, txHash string, expected types.ExpectedPayment) (Outcome, error) {
	adapter, ok := v.adapters[expected.Chain]
	if !ok {
		return Outcome{State: StateNotStarted}, &types.BillPayError{
			Code:    types.ErrUnsupportedChain,
			Message: fmt.Sprintf("no verification adapter registered for chain %s", expected.Chain),
		}
	}

	minAmount, maxAmount := expected.Band()
	start := time.Now()
	labels := map[string]string{"chain": expected.Chain.String()}

	for attempt := 1; attempt <= v.maxAttempts; attempt++ {
		if attempt > 1 {
			if err := v.sleep(ctx, v.delay); err != nil {
				return Outcome{State: StateAttempting, Attempts: attempt - 1}, err
			}
		}

		ok, err := adapter.Verify(ctx, txHash, expected.ExpectedAddress, minAmount, maxAmount)
		if err != nil {
			// Upstream flakiness: same as a negative verdict, retried.
			v.log.Warn("verification attempt errored", map[string]any{
				"chain":   expected.Chain.String(),
				"txHash":  txHash,
				"attempt": attempt,
				"error":   err.Error(),
			})
			v.rec.IncCounter("verify_attempt_error", labels)
			continue
		}
		if ok {
			v.log.Info("payment verified", map[string]any{
				"chain":    expected.Chain.String(),
				"txHash":   txHash,
				"attempts": attempt,
			})
			v.rec.IncCounter("verify_success", labels)
			v.rec.ObserveLatency("verify", time.Since(start), labels)
			return Outcome{State: StateVerified, Attempts: attempt}, nil
		}
	}

	v.log.Warn("verification exhausted", map[string]any{
		"chain":    expected.Chain.String(),
		"txHash":   txHash,
		"attempts": v.maxAttempts,
	})
	v.rec.IncCounter("verify_exhausted", labels)
	v.rec.ObserveLatency("verify", time.Since(start), labels)
	return Outcome{State: StateExhausted, Attempts: v.maxAttempts}, nil
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

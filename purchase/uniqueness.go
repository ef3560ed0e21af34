package purchase

import (
	"context"
	"errors"
	"fmt"

	"github.com/blockremit/billpay/security"
	"github.com/blockremit/billpay/store"
	"github.com/blockremit/billpay/types"
)

// Guard rejects transaction hashes already bound to a completed purchase in
// any category. It runs before any adapter call so known duplicates never
// cost a verification round.
//
// The check is check-then-act: two concurrent submissions of the same hash
// can both pass before either completes. The storage write is the system's
// real linearization point; see DESIGN.md.
type Guard struct {
	repo   store.Repository
	events *security.EventLog
}

func NewGuard(repo store.Repository, events *security.EventLog) *Guard {
	if events == nil {
		events = security.NewEventLog(nil, nil, nil)
	}
	return &Guard{repo: repo, events: events}
}

// AssertUnused fails with a duplicate-use error when the hash already
// belongs to a completed purchase, recording a security event with the
// offending category and id.
func (g *Guard) AssertUnused(ctx context.Context, userID, txHash string) error {
	existing, err := g.repo.FindCompletedByTxHash(ctx, txHash)
	if errors.Is(err, store.ErrPurchaseNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("duplicate check failed: %w", err)
	}

	g.events.Record(ctx, types.SecurityEvent{
		Type:       types.EventDuplicateTxHash,
		Category:   existing.Category,
		PurchaseID: existing.ID.String(),
		TxHash:     txHash,
		UserID:     userID,
		Detail:     "transaction hash already bound to a completed purchase",
	})

	return &types.BillPayError{
		Code:    types.ErrDuplicateTransaction,
		Message: "transaction already used",
	}
}

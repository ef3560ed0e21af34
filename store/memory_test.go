package store

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/blockremit/billpay/types"
)

func newPurchase(category types.Category, status types.PurchaseStatus, txHash string) *types.Purchase {
	return &types.Purchase{
		ID:              uuid.New(),
		UserID:          "user-1",
		Category:        category,
		Status:          status,
		Blockchain:      types.ChainEthereum,
		FiatAmount:      decimal.NewFromInt(1000),
		TransactionHash: txHash,
	}
}

func TestMemoryRepositoryRoundTrip(t *testing.T) {
	repo := NewMemoryRepository()
	ctx := context.Background()

	p := newPurchase(types.CategoryAirtime, types.StatusPending, "0xaa")
	if err := repo.CreatePurchase(ctx, p); err != nil {
		t.Fatalf("create: %v", err)
	}

	p.Status = types.StatusProcessing
	if err := repo.UpdatePurchase(ctx, p); err != nil {
		t.Fatalf("update: %v", err)
	}

	got, err := repo.FindPurchaseByID(ctx, types.CategoryAirtime, p.ID)
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if got.Status != types.StatusProcessing {
		t.Fatalf("status = %s", got.Status)
	}
}

func TestMemoryRepositoryClonesOnReadAndWrite(t *testing.T) {
	repo := NewMemoryRepository()
	ctx := context.Background()

	p := newPurchase(types.CategoryData, types.StatusPending, "0xbb")
	if err := repo.CreatePurchase(ctx, p); err != nil {
		t.Fatalf("create: %v", err)
	}

	// Mutating the caller's copy after the write must not leak into storage.
	p.Status = types.StatusFailed

	got, err := repo.FindPurchaseByID(ctx, types.CategoryData, p.ID)
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if got.Status != types.StatusPending {
		t.Fatalf("stored record mutated through caller's pointer: %s", got.Status)
	}
}

func TestMemoryRepositoryUpdateUnknownRecord(t *testing.T) {
	repo := NewMemoryRepository()
	err := repo.UpdatePurchase(context.Background(), newPurchase(types.CategoryAirtime, types.StatusPending, ""))
	if !errors.Is(err, ErrPurchaseNotFound) {
		t.Fatalf("expected ErrPurchaseNotFound, got %v", err)
	}
}

func TestFindCompletedByTxHashSpansCategories(t *testing.T) {
	repo := NewMemoryRepository()
	ctx := context.Background()

	if err := repo.CreatePurchase(ctx, newPurchase(types.CategoryElectricity, types.StatusCompleted, "0xcc")); err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := repo.CreatePurchase(ctx, newPurchase(types.CategoryAirtime, types.StatusFailed, "0xdd")); err != nil {
		t.Fatalf("create: %v", err)
	}

	got, err := repo.FindCompletedByTxHash(ctx, "0xcc")
	if err != nil {
		t.Fatalf("completed hash not found: %v", err)
	}
	if got.Category != types.CategoryElectricity {
		t.Fatalf("category = %s", got.Category)
	}

	if _, err := repo.FindCompletedByTxHash(ctx, "0xdd"); !errors.Is(err, ErrPurchaseNotFound) {
		t.Fatalf("failed purchase must not consume its hash, got %v", err)
	}
	if _, err := repo.FindCompletedByTxHash(ctx, "0xee"); !errors.Is(err, ErrPurchaseNotFound) {
		t.Fatalf("unknown hash must be free, got %v", err)
	}
}

func TestListPurchasesByUserFiltersOwner(t *testing.T) {
	repo := NewMemoryRepository()
	ctx := context.Background()

	mine := newPurchase(types.CategoryAirtime, types.StatusCompleted, "")
	if err := repo.CreatePurchase(ctx, mine); err != nil {
		t.Fatalf("create: %v", err)
	}
	other := newPurchase(types.CategoryAirtime, types.StatusCompleted, "")
	other.UserID = "user-2"
	if err := repo.CreatePurchase(ctx, other); err != nil {
		t.Fatalf("create: %v", err)
	}

	list, err := repo.ListPurchasesByUser(ctx, types.CategoryAirtime, "user-1")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != 1 || list[0].ID != mine.ID {
		t.Fatalf("expected only user-1's purchase, got %v", list)
	}
}

func TestRecordSecurityEventAppends(t *testing.T) {
	repo := NewMemoryRepository()
	ctx := context.Background()

	for _, typ := range []types.SecurityEventType{types.EventValidationFailure, types.EventDuplicateTxHash} {
		if err := repo.RecordSecurityEvent(ctx, types.SecurityEvent{Type: typ}); err != nil {
			t.Fatalf("record: %v", err)
		}
	}
	events := repo.SecurityEvents()
	if len(events) != 2 {
		t.Fatalf("expected 2 events, got %d", len(events))
	}
	if events[0].Type != types.EventValidationFailure {
		t.Fatalf("events out of order: %v", events)
	}
}

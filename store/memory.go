package store

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/blockremit/billpay/types"
)

// MemoryRepository is an in-memory Repository used by tests and examples.
// It mirrors the Postgres layout: one map per category plus an append-only
// event slice.
type MemoryRepository struct {
	mu        sync.RWMutex
	purchases map[types.Category]map[uuid.UUID]*types.Purchase
	events    []types.SecurityEvent
}

var _ Repository = (*MemoryRepository)(nil)

func NewMemoryRepository() *MemoryRepository {
	purchases := make(map[types.Category]map[uuid.UUID]*types.Purchase, len(types.AllCategories))
	for _, category := range types.AllCategories {
		purchases[category] = make(map[uuid.UUID]*types.Purchase)
	}
	return &MemoryRepository{purchases: purchases}
}

func (r *MemoryRepository) CreatePurchase(_ context.Context, p *types.Purchase) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	bucket, ok := r.purchases[p.Category]
	if !ok {
		bucket = make(map[uuid.UUID]*types.Purchase)
		r.purchases[p.Category] = bucket
	}
	clone := *p
	bucket[p.ID] = &clone
	return nil
}

func (r *MemoryRepository) UpdatePurchase(_ context.Context, p *types.Purchase) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	bucket := r.purchases[p.Category]
	if _, ok := bucket[p.ID]; !ok {
		return ErrPurchaseNotFound
	}
	clone := *p
	bucket[p.ID] = &clone
	return nil
}

func (r *MemoryRepository) FindPurchaseByID(_ context.Context, category types.Category, id uuid.UUID) (*types.Purchase, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.purchases[category][id]
	if !ok {
		return nil, ErrPurchaseNotFound
	}
	clone := *p
	return &clone, nil
}

func (r *MemoryRepository) FindCompletedByTxHash(_ context.Context, txHash string) (*types.Purchase, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, category := range types.AllCategories {
		for _, p := range r.purchases[category] {
			if p.TransactionHash == txHash && p.Status == types.StatusCompleted {
				clone := *p
				return &clone, nil
			}
		}
	}
	return nil, ErrPurchaseNotFound
}

func (r *MemoryRepository) ListPurchasesByUser(_ context.Context, category types.Category, userID string) ([]types.Purchase, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []types.Purchase
	for _, p := range r.purchases[category] {
		if p.UserID == userID {
			out = append(out, *p)
		}
	}
	return out, nil
}

func (r *MemoryRepository) RecordSecurityEvent(_ context.Context, event types.SecurityEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
	return nil
}

// SecurityEvents returns a snapshot of recorded events, oldest first.
func (r *MemoryRepository) SecurityEvents() []types.SecurityEvent {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]types.SecurityEvent, len(r.events))
	copy(out, r.events)
	return out
}

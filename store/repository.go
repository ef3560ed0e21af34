// Package store persists purchase records and security events. Categories
// live in independent collections that share one schema shape; cross-category
// queries (duplicate transaction hashes) span all of them.
package store

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/blockremit/billpay/types"
)

var (
	ErrPurchaseNotFound = errors.New("purchase not found")
)

// Repository is the data-access contract of the purchase core.
//
// UpdatePurchase persists the current state of a record previously created
// with CreatePurchase; records are never deleted. FindCompletedByTxHash is
// the uniqueness query: it searches every category for a completed purchase
// bound to the hash and returns ErrPurchaseNotFound when the hash is free.
type Repository interface {
	CreatePurchase(ctx context.Context, p *types.Purchase) error
	UpdatePurchase(ctx context.Context, p *types.Purchase) error
	FindPurchaseByID(ctx context.Context, category types.Category, id uuid.UUID) (*types.Purchase, error)
	FindCompletedByTxHash(ctx context.Context, txHash string) (*types.Purchase, error)
	ListPurchasesByUser(ctx context.Context, category types.Category, userID string) ([]types.Purchase, error)

	RecordSecurityEvent(ctx context.Context, event types.SecurityEvent) error
}

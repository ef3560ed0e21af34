package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/blockremit/billpay/types"
)

// PostgresRepository is the pgx-backed implementation of Repository.
type PostgresRepository struct {
	db *pgxpool.Pool
}

var _ Repository = (*PostgresRepository)(nil)

func NewPostgresRepository(db *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// tableFor maps a category to its purchase table. The three tables share
// one column shape.
func tableFor(category types.Category) (string, error) {
	switch category {
	case types.CategoryAirtime:
		return "airtime_purchases", nil
	case types.CategoryData:
		return "data_purchases", nil
	case types.CategoryElectricity:
		return "electricity_purchases", nil
	default:
		return "", fmt.Errorf("unknown purchase category %q", category)
	}
}

const purchaseColumns = `id, user_id, target, status, blockchain, crypto_amount::text, crypto_currency, fiat_amount::text, transaction_hash, provider_reference, metadata, created_at, updated_at`

func (r *PostgresRepository) CreatePurchase(ctx context.Context, p *types.Purchase) error {
	table, err := tableFor(p.Category)
	if err != nil {
		return err
	}

	target, err := json.Marshal(p.Target)
	if err != nil {
		return fmt.Errorf("marshal target: %w", err)
	}
	metadata, err := json.Marshal(p.Metadata)
	if err != nil {
		return fmt.Errorf("marshal metadata: %w", err)
	}

	query := fmt.Sprintf(`INSERT INTO %s
		(id, user_id, target, status, blockchain, crypto_amount, crypto_currency, fiat_amount, transaction_hash, provider_reference, metadata, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`, table)

	_, err = r.db.Exec(ctx, query,
		p.ID, p.UserID, target, p.Status, p.Blockchain,
		p.CryptoAmount.String(), p.CryptoCurrency, p.FiatAmount.String(),
		nullable(p.TransactionHash), nullable(p.ProviderReference),
		metadata, p.CreatedAt, p.UpdatedAt,
	)
	return err
}

func (r *PostgresRepository) UpdatePurchase(ctx context.Context, p *types.Purchase) error {
	table, err := tableFor(p.Category)
	if err != nil {
		return err
	}

	metadata, err := json.Marshal(p.Metadata)
	if err != nil {
		return fmt.Errorf("marshal metadata: %w", err)
	}

	query := fmt.Sprintf(`UPDATE %s
		SET status = $2, provider_reference = $3, metadata = $4, updated_at = $5
		WHERE id = $1`, table)

	tag, err := r.db.Exec(ctx, query, p.ID, p.Status, nullable(p.ProviderReference), metadata, p.UpdatedAt)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrPurchaseNotFound
	}
	return nil
}

func (r *PostgresRepository) FindPurchaseByID(ctx context.Context, category types.Category, id uuid.UUID) (*types.Purchase, error) {
	table, err := tableFor(category)
	if err != nil {
		return nil, err
	}

	query := fmt.Sprintf(`SELECT %s FROM %s WHERE id = $1`, purchaseColumns, table)
	p, err := scanPurchase(r.db.QueryRow(ctx, query, id), category)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrPurchaseNotFound
	}
	return p, err
}

// FindCompletedByTxHash searches every category for a completed purchase
// bound to the hash. There is no cross-table unique constraint; this
// check-then-act lookup is the documented linearization gap.
func (r *PostgresRepository) FindCompletedByTxHash(ctx context.Context, txHash string) (*types.Purchase, error) {
	for _, category := range types.AllCategories {
		table, err := tableFor(category)
		if err != nil {
			return nil, err
		}

		query := fmt.Sprintf(`SELECT %s FROM %s WHERE transaction_hash = $1 AND status = $2 LIMIT 1`,
			purchaseColumns, table)
		p, err := scanPurchase(r.db.QueryRow(ctx, query, txHash, types.StatusCompleted), category)
		if errors.Is(err, pgx.ErrNoRows) {
			continue
		}
		if err != nil {
			return nil, err
		}
		return p, nil
	}
	return nil, ErrPurchaseNotFound
}

func (r *PostgresRepository) ListPurchasesByUser(ctx context.Context, category types.Category, userID string) ([]types.Purchase, error) {
	table, err := tableFor(category)
	if err != nil {
		return nil, err
	}

	query := fmt.Sprintf(`SELECT %s FROM %s WHERE user_id = $1 ORDER BY created_at DESC`, purchaseColumns, table)
	rows, err := r.db.Query(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []types.Purchase
	for rows.Next() {
		p, err := scanPurchase(rows, category)
		if err != nil {
			return nil, err
		}
		out = append(out, *p)
	}
	return out, rows.Err()
}

func (r *PostgresRepository) RecordSecurityEvent(ctx context.Context, event types.SecurityEvent) error {
	_, err := r.db.Exec(ctx, `INSERT INTO security_events
		(type, category, purchase_id, tx_hash, user_id, detail, occurred_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		event.Type, event.Category, nullable(event.PurchaseID), nullable(event.TxHash),
		nullable(event.UserID), event.Detail, event.OccurredAt,
	)
	return err
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPurchase(row rowScanner, category types.Category) (*types.Purchase, error) {
	var (
		p                   types.Purchase
		target, metadata    []byte
		cryptoAmt, fiatAmt  string
		txHash, providerRef *string
		createdAt, updated  time.Time
	)

	err := row.Scan(&p.ID, &p.UserID, &target, &p.Status, &p.Blockchain,
		&cryptoAmt, &p.CryptoCurrency, &fiatAmt, &txHash, &providerRef,
		&metadata, &createdAt, &updated)
	if err != nil {
		return nil, err
	}

	p.Category = category
	p.CreatedAt = createdAt
	p.UpdatedAt = updated
	if txHash != nil {
		p.TransactionHash = *txHash
	}
	if providerRef != nil {
		p.ProviderReference = *providerRef
	}
	if p.CryptoAmount, err = decimal.NewFromString(cryptoAmt); err != nil {
		return nil, fmt.Errorf("parse crypto_amount: %w", err)
	}
	if p.FiatAmount, err = decimal.NewFromString(fiatAmt); err != nil {
		return nil, fmt.Errorf("parse fiat_amount: %w", err)
	}
	if len(target) > 0 {
		if err := json.Unmarshal(target, &p.Target); err != nil {
			return nil, fmt.Errorf("unmarshal target: %w", err)
		}
	}
	if len(metadata) > 0 {
		if err := json.Unmarshal(metadata, &p.Metadata); err != nil {
			return nil, fmt.Errorf("unmarshal metadata: %w", err)
		}
	}
	return &p, nil
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

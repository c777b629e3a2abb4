package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"commerce-service-go/internal/models"
	"commerce-service-go/internal/store"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type rowScanner interface {
	Scan(dest ...any) error
}

func encodePurchaseJSON(p *models.Purchase) (metadata, collaborative []byte, err error) {
	md := p.Metadata
	if md == nil {
		md = map[string]string{}
	}
	if metadata, err = json.Marshal(md); err != nil {
		return nil, nil, fmt.Errorf("unable to encode metadata: %w", err)
	}
	if p.Collaborative != nil {
		if collaborative, err = json.Marshal(p.Collaborative); err != nil {
			return nil, nil, fmt.Errorf("unable to encode collaborative data: %w", err)
		}
	}
	return metadata, collaborative, nil
}

func scanPurchase(row rowScanner) (*models.Purchase, error) {
	var p models.Purchase
	var id, userId, amount, status string
	var metadata, collaborative []byte

	err := row.Scan(&id, &userId, &amount, &p.Currency, &p.PaymentIntentId, &status, &metadata,
		&collaborative, &p.StatusReason, &p.CreatedAt, &p.UpdatedAt, &p.StatusChangedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, fmt.Errorf("unable to scan purchase row: %w", err)
	}

	if p.Id, err = uuid.Parse(id); err != nil {
		return nil, fmt.Errorf("invalid purchase id %q: %w", id, err)
	}
	if p.UserId, err = uuid.Parse(userId); err != nil {
		return nil, fmt.Errorf("invalid user id %q: %w", userId, err)
	}
	if p.Amount, err = decimal.NewFromString(amount); err != nil {
		return nil, fmt.Errorf("failed to parse amount '%s': %w", amount, err)
	}
	p.Status = models.PurchaseStatus(status)

	if err := json.Unmarshal(metadata, &p.Metadata); err != nil {
		return nil, fmt.Errorf("failed to decode metadata: %w", err)
	}
	if collaborative != nil {
		p.Collaborative = &models.CollaborativeData{}
		if err := json.Unmarshal(collaborative, p.Collaborative); err != nil {
			return nil, fmt.Errorf("failed to decode collaborative data: %w", err)
		}
	}
	return &p, nil
}

func (s *Service) CreatePurchase(ctx context.Context, p *models.Purchase) error {
	metadata, collaborative, err := encodePurchaseJSON(p)
	if err != nil {
		return err
	}

	_, err = s.pool.Exec(ctx, queryInsertPurchase,
		p.Id.String(), p.UserId.String(), p.Amount.String(), p.Currency, p.PaymentIntentId,
		string(p.Status), metadata, collaborative, p.StatusReason,
		p.CreatedAt, p.UpdatedAt, p.StatusChangedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: %s", store.ErrDuplicateReference, p.PaymentIntentId)
		}
		zap.L().Error("Failed to insert purchase",
			zap.String("purchase_id", p.Id.String()),
			zap.String("payment_intent_id", p.PaymentIntentId),
			zap.Error(err))
		return fmt.Errorf("unable to insert purchase: %w", err)
	}
	return nil
}

func (s *Service) GetPurchase(ctx context.Context, id uuid.UUID) (*models.Purchase, error) {
	return scanPurchase(s.pool.QueryRow(ctx, queryGetPurchaseById, id.String()))
}

func (s *Service) GetPurchaseByIntent(ctx context.Context, paymentIntentId string) (*models.Purchase, error) {
	return scanPurchase(s.pool.QueryRow(ctx, queryGetPurchaseByIntent, paymentIntentId))
}

func (s *Service) ListPurchases(ctx context.Context, userId uuid.UUID, limit, offset int) ([]models.Purchase, error) {
	rows, err := s.pool.Query(ctx, queryListPurchases, userId.String(), limit, offset)
	if err != nil {
		return nil, fmt.Errorf("unable to query purchases: %w", err)
	}
	defer rows.Close()

	var purchases []models.Purchase
	for rows.Next() {
		p, err := scanPurchase(rows)
		if err != nil {
			return nil, err
		}
		purchases = append(purchases, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating purchase rows: %w", err)
	}
	return purchases, nil
}

func (s *Service) ListStalePurchases(ctx context.Context, statuses []models.PurchaseStatus, cutoff time.Time, limit int) ([]models.Purchase, error) {
	if len(statuses) == 0 {
		return nil, nil
	}
	names := make([]string, len(statuses))
	for i, status := range statuses {
		names[i] = string(status)
	}

	rows, err := s.pool.Query(ctx, queryListStalePurchases, names, cutoff.UTC(), limit)
	if err != nil {
		return nil, fmt.Errorf("unable to query stale purchases: %w", err)
	}
	defer rows.Close()

	var purchases []models.Purchase
	for rows.Next() {
		p, err := scanPurchase(rows)
		if err != nil {
			return nil, err
		}
		purchases = append(purchases, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating purchase rows: %w", err)
	}
	return purchases, nil
}

func (s *Service) MarkPurchasesSwept(ctx context.Context, ids []uuid.UUID, at time.Time) error {
	if len(ids) == 0 {
		return nil
	}
	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = id.String()
	}
	if _, err := s.pool.Exec(ctx, queryMarkPurchasesSwept, at.UTC(), keys); err != nil {
		return fmt.Errorf("failed to mark purchases swept: %w", err)
	}
	return nil
}

func (s *Service) UpdatePurchase(ctx context.Context, id uuid.UUID, fn store.PurchaseMutation) (*models.Purchase, error) {
	return s.updatePurchase(ctx, queryLockPurchaseById, id.String(), fn)
}

func (s *Service) UpdatePurchaseByIntent(ctx context.Context, paymentIntentId string, fn store.PurchaseMutation) (*models.Purchase, error) {
	return s.updatePurchase(ctx, queryLockPurchaseByIntent, paymentIntentId, fn)
}

// updatePurchase holds the row lock (SELECT ... FOR UPDATE) until commit
func (s *Service) updatePurchase(ctx context.Context, lookup, key string, fn store.PurchaseMutation) (*models.Purchase, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer rollback(ctx, tx)

	p, err := scanPurchase(tx.QueryRow(ctx, lookup, key))
	if err != nil {
		return nil, err
	}

	changed, err := fn(p)
	if err != nil {
		return nil, err
	}
	if !changed {
		return p, nil
	}

	metadata, collaborative, err := encodePurchaseJSON(p)
	if err != nil {
		return nil, err
	}
	if _, err := tx.Exec(ctx, queryUpdatePurchase,
		string(p.Status), p.StatusReason, metadata, collaborative,
		p.UpdatedAt, p.StatusChangedAt, p.Id.String()); err != nil {
		return nil, fmt.Errorf("failed to update purchase: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return p, nil
}

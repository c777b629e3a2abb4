package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"commerce-service-go/internal/models"
	"commerce-service-go/internal/store"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

func encodeMetadata(metadata map[string]string) (string, error) {
	if metadata == nil {
		metadata = map[string]string{}
	}
	raw, err := json.Marshal(metadata)
	if err != nil {
		return "", fmt.Errorf("unable to encode metadata: %w", err)
	}
	return string(raw), nil
}

func encodeCollaborative(c *models.CollaborativeData) (sql.NullString, error) {
	if c == nil {
		return sql.NullString{}, nil
	}
	raw, err := json.Marshal(c)
	if err != nil {
		return sql.NullString{}, fmt.Errorf("unable to encode collaborative data: %w", err)
	}
	return sql.NullString{String: string(raw), Valid: true}, nil
}

func scanPurchase(row rowScanner) (*models.Purchase, error) {
	var p models.Purchase
	var id, userId, amount, status, metadata string
	var collaborative sql.NullString

	err := row.Scan(&id, &userId, &amount, &p.Currency, &p.PaymentIntentId, &status, &metadata,
		&collaborative, &p.StatusReason, &p.CreatedAt, &p.UpdatedAt, &p.StatusChangedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
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

	if err := json.Unmarshal([]byte(metadata), &p.Metadata); err != nil {
		return nil, fmt.Errorf("failed to decode metadata: %w", err)
	}
	if collaborative.Valid {
		p.Collaborative = &models.CollaborativeData{}
		if err := json.Unmarshal([]byte(collaborative.String), p.Collaborative); err != nil {
			return nil, fmt.Errorf("failed to decode collaborative data: %w", err)
		}
	}
	return &p, nil
}

func (s *Service) CreatePurchase(ctx context.Context, p *models.Purchase) error {
	metadata, err := encodeMetadata(p.Metadata)
	if err != nil {
		return err
	}
	collaborative, err := encodeCollaborative(p.Collaborative)
	if err != nil {
		return err
	}

	_, err = s.db.ExecContext(ctx, queryInsertPurchase,
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

	zap.L().Debug("Purchase stored",
		zap.String("purchase_id", p.Id.String()),
		zap.String("payment_intent_id", p.PaymentIntentId))
	return nil
}

func (s *Service) GetPurchase(ctx context.Context, id uuid.UUID) (*models.Purchase, error) {
	return scanPurchase(s.db.QueryRowContext(ctx, queryGetPurchaseById, id.String()))
}

func (s *Service) GetPurchaseByIntent(ctx context.Context, paymentIntentId string) (*models.Purchase, error) {
	return scanPurchase(s.db.QueryRowContext(ctx, queryGetPurchaseByIntent, paymentIntentId))
}

func (s *Service) ListPurchases(ctx context.Context, userId uuid.UUID, limit, offset int) ([]models.Purchase, error) {
	rows, err := s.db.QueryContext(ctx, queryListPurchases, userId.String(), limit, offset)
	if err != nil {
		zap.L().Error("Failed to query purchases", zap.String("user_id", userId.String()), zap.Error(err))
		return nil, fmt.Errorf("unable to query purchases: %w", err)
	}
	defer closeRows(rows)

	var purchases []models.Purchase
	for rows.Next() {
		p, err := scanPurchase(rows)
		if err != nil {
			return nil, err
		}
		purchases = append(purchases, *p)
	}

	// Check for errors during iteration
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating purchase rows: %w", err)
	}
	return purchases, nil
}

func (s *Service) ListStalePurchases(ctx context.Context, statuses []models.PurchaseStatus, cutoff time.Time, limit int) ([]models.Purchase, error) {
	if len(statuses) == 0 {
		return nil, nil
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(statuses)), ",")
	args := make([]any, 0, len(statuses)+3)
	for _, status := range statuses {
		args = append(args, string(status))
	}
	args = append(args, cutoff.UTC(), cutoff.UTC(), limit)

	rows, err := s.db.QueryContext(ctx, fmt.Sprintf(queryListStalePurchasesFmt, placeholders), args...)
	if err != nil {
		zap.L().Error("Failed to query stale purchases", zap.Error(err))
		return nil, fmt.Errorf("unable to query stale purchases: %w", err)
	}
	defer closeRows(rows)

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
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer rollback(tx)

	for _, id := range ids {
		if _, err := tx.ExecContext(ctx, queryMarkPurchaseSwept, at.UTC(), id.String()); err != nil {
			return fmt.Errorf("failed to mark purchase %s swept: %w", id, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit swept marks: %w", err)
	}
	return nil
}

func (s *Service) UpdatePurchase(ctx context.Context, id uuid.UUID, fn store.PurchaseMutation) (*models.Purchase, error) {
	return s.updatePurchase(ctx, queryGetPurchaseById, id.String(), fn)
}

func (s *Service) UpdatePurchaseByIntent(ctx context.Context, paymentIntentId string, fn store.PurchaseMutation) (*models.Purchase, error) {
	return s.updatePurchase(ctx, queryGetPurchaseByIntent, paymentIntentId, fn)
}

func (s *Service) updatePurchase(ctx context.Context, lookup, key string, fn store.PurchaseMutation) (*models.Purchase, error) {
	// BEGIN IMMEDIATE (see sqliteOptions) holds the write lock for the whole cycle
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer rollback(tx)

	p, err := scanPurchase(tx.QueryRowContext(ctx, lookup, key))
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

	metadata, err := encodeMetadata(p.Metadata)
	if err != nil {
		return nil, err
	}
	collaborative, err := encodeCollaborative(p.Collaborative)
	if err != nil {
		return nil, err
	}

	if _, err := tx.ExecContext(ctx, queryUpdatePurchase,
		string(p.Status), p.StatusReason, metadata, collaborative,
		p.UpdatedAt, p.StatusChangedAt, p.Id.String()); err != nil {
		return nil, fmt.Errorf("failed to update purchase: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	zap.L().Debug("Purchase updated",
		zap.String("purchase_id", p.Id.String()),
		zap.String("status", p.Status.String()))
	return p, nil
}

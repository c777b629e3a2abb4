package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"commerce-service-go/internal/models"
	"commerce-service-go/internal/store"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

func scanWishlist(row rowScanner) (*models.Wishlist, error) {
	var w models.Wishlist
	var id, userId, visibility, sharedWith string

	err := row.Scan(&id, &userId, &w.Name, &visibility, &sharedWith, &w.Version, &w.IsActive, &w.CreatedAt, &w.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, fmt.Errorf("unable to scan wishlist row: %w", err)
	}

	if w.Id, err = uuid.Parse(id); err != nil {
		return nil, fmt.Errorf("invalid wishlist id %q: %w", id, err)
	}
	if w.UserId, err = uuid.Parse(userId); err != nil {
		return nil, fmt.Errorf("invalid user id %q: %w", userId, err)
	}
	w.Visibility = models.Visibility(visibility)
	if err := json.Unmarshal([]byte(sharedWith), &w.SharedWith); err != nil {
		return nil, fmt.Errorf("failed to decode shared_with: %w", err)
	}
	return &w, nil
}

type queryer interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

func loadItems(ctx context.Context, q queryer, wishlistId uuid.UUID) ([]models.WishlistItem, error) {
	rows, err := q.QueryContext(ctx, queryGetWishlistItems, wishlistId.String())
	if err != nil {
		return nil, fmt.Errorf("unable to query wishlist items: %w", err)
	}
	defer closeRows(rows)

	items := []models.WishlistItem{}
	for rows.Next() {
		var item models.WishlistItem
		var id, parent, price string
		var updatedAt sql.NullTime

		if err := rows.Scan(&id, &parent, &item.ProductId, &item.Name, &price, &item.Currency,
			&item.ImageUrl, &item.AddedAt, &updatedAt, &item.IsActive); err != nil {
			return nil, fmt.Errorf("unable to scan wishlist item row: %w", err)
		}
		if item.Id, err = uuid.Parse(id); err != nil {
			return nil, fmt.Errorf("invalid item id %q: %w", id, err)
		}
		if item.WishlistId, err = uuid.Parse(parent); err != nil {
			return nil, fmt.Errorf("invalid wishlist id %q: %w", parent, err)
		}
		if item.Price, err = decimal.NewFromString(price); err != nil {
			return nil, fmt.Errorf("failed to parse price '%s': %w", price, err)
		}
		if updatedAt.Valid {
			t := updatedAt.Time
			item.UpdatedAt = &t
		}
		items = append(items, item)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating wishlist item rows: %w", err)
	}
	return items, nil
}

func upsertItems(ctx context.Context, tx *sql.Tx, w *models.Wishlist) error {
	for position, item := range w.Items {
		var updatedAt sql.NullTime
		if item.UpdatedAt != nil {
			updatedAt = sql.NullTime{Time: *item.UpdatedAt, Valid: true}
		}
		_, err := tx.ExecContext(ctx, queryUpsertWishlistItem,
			item.Id.String(), w.Id.String(), position, item.ProductId, item.Name,
			item.Price.String(), item.Currency, item.ImageUrl, item.AddedAt, updatedAt, item.IsActive)
		if err != nil {
			return fmt.Errorf("failed to write wishlist item %s: %w", item.Id, err)
		}
	}
	return nil
}

func encodeSharedWith(ids []uuid.UUID) (string, error) {
	if ids == nil {
		ids = []uuid.UUID{}
	}
	raw, err := json.Marshal(ids)
	if err != nil {
		return "", fmt.Errorf("unable to encode shared_with: %w", err)
	}
	return string(raw), nil
}

func (s *Service) CreateWishlist(ctx context.Context, w *models.Wishlist) error {
	sharedWith, err := encodeSharedWith(w.SharedWith)
	if err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer rollback(tx)

	_, err = tx.ExecContext(ctx, queryInsertWishlist,
		w.Id.String(), w.UserId.String(), w.Name, string(w.Visibility), sharedWith,
		w.Version, w.IsActive, w.CreatedAt, w.UpdatedAt)
	if err != nil {
		return fmt.Errorf("unable to insert wishlist: %w", err)
	}
	if err := upsertItems(ctx, tx, w); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

func (s *Service) GetWishlist(ctx context.Context, id uuid.UUID) (*models.Wishlist, error) {
	w, err := scanWishlist(s.db.QueryRowContext(ctx, queryGetActiveWishlist, id.String()))
	if err != nil {
		return nil, err
	}
	if w.Items, err = loadItems(ctx, s.db, w.Id); err != nil {
		return nil, err
	}
	return w, nil
}

func (s *Service) ListWishlists(ctx context.Context, userId uuid.UUID) ([]models.Wishlist, error) {
	rows, err := s.db.QueryContext(ctx, queryListActiveWishlists, userId.String())
	if err != nil {
		zap.L().Error("Failed to query wishlists", zap.String("user_id", userId.String()), zap.Error(err))
		return nil, fmt.Errorf("unable to query wishlists: %w", err)
	}

	var wishlists []models.Wishlist
	for rows.Next() {
		w, err := scanWishlist(rows)
		if err != nil {
			closeRows(rows)
			return nil, err
		}
		wishlists = append(wishlists, *w)
	}
	err = rows.Err()
	// Items are loaded after the cursor is released; a single connection pool cannot nest queries
	closeRows(rows)
	if err != nil {
		return nil, fmt.Errorf("error iterating wishlist rows: %w", err)
	}

	for i := range wishlists {
		if wishlists[i].Items, err = loadItems(ctx, s.db, wishlists[i].Id); err != nil {
			return nil, err
		}
	}
	return wishlists, nil
}

func (s *Service) SaveWishlist(ctx context.Context, w *models.Wishlist, expectedVersion int64) error {
	sharedWith, err := encodeSharedWith(w.SharedWith)
	if err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer rollback(tx)

	// Update wishlist (with optimistic locking)
	result, err := tx.ExecContext(ctx, queryUpdateWishlist,
		w.Name, string(w.Visibility), sharedWith, w.Version, w.IsActive, w.UpdatedAt,
		w.Id.String(), expectedVersion)
	if err != nil {
		return fmt.Errorf("failed to update wishlist: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("wishlist update failed - %w", store.ErrConcurrentModification)
	}

	if err := upsertItems(ctx, tx, w); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	zap.L().Debug("Wishlist saved",
		zap.String("wishlist_id", w.Id.String()),
		zap.Int64("version", w.Version))
	return nil
}

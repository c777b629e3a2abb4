package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"commerce-service-go/internal/models"
	"commerce-service-go/internal/store"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

func scanWishlist(row rowScanner) (*models.Wishlist, error) {
	var w models.Wishlist
	var id, userId, visibility string
	var sharedWith []byte

	err := row.Scan(&id, &userId, &w.Name, &visibility, &sharedWith, &w.Version, &w.IsActive, &w.CreatedAt, &w.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
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
	if err := json.Unmarshal(sharedWith, &w.SharedWith); err != nil {
		return nil, fmt.Errorf("failed to decode shared_with: %w", err)
	}
	return &w, nil
}

type querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

func loadItems(ctx context.Context, q querier, wishlistId uuid.UUID) ([]models.WishlistItem, error) {
	rows, err := q.Query(ctx, queryGetWishlistItems, wishlistId.String())
	if err != nil {
		return nil, fmt.Errorf("unable to query wishlist items: %w", err)
	}
	defer rows.Close()

	items := []models.WishlistItem{}
	for rows.Next() {
		var item models.WishlistItem
		var id, parent, price string

		if err := rows.Scan(&id, &parent, &item.ProductId, &item.Name, &price, &item.Currency,
			&item.ImageUrl, &item.AddedAt, &item.UpdatedAt, &item.IsActive); err != nil {
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
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating wishlist item rows: %w", err)
	}
	return items, nil
}

func encodeSharedWith(ids []uuid.UUID) ([]byte, error) {
	if ids == nil {
		ids = []uuid.UUID{}
	}
	raw, err := json.Marshal(ids)
	if err != nil {
		return nil, fmt.Errorf("unable to encode shared_with: %w", err)
	}
	return raw, nil
}

func upsertItems(ctx context.Context, tx pgx.Tx, w *models.Wishlist) error {
	if len(w.Items) == 0 {
		return nil
	}

	batch := &pgx.Batch{}
	for position, item := range w.Items {
		batch.Queue(queryUpsertWishlistItem,
			item.Id.String(), w.Id.String(), position, item.ProductId, item.Name,
			item.Price.String(), item.Currency, item.ImageUrl, item.AddedAt, item.UpdatedAt, item.IsActive)
	}
	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("failed to write wishlist items: %w", err)
	}
	return nil
}

func (s *Service) CreateWishlist(ctx context.Context, w *models.Wishlist) error {
	sharedWith, err := encodeSharedWith(w.SharedWith)
	if err != nil {
		return err
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer rollback(ctx, tx)

	if _, err := tx.Exec(ctx, queryInsertWishlist,
		w.Id.String(), w.UserId.String(), w.Name, string(w.Visibility), sharedWith,
		w.Version, w.IsActive, w.CreatedAt, w.UpdatedAt); err != nil {
		return fmt.Errorf("unable to insert wishlist: %w", err)
	}
	if err := upsertItems(ctx, tx, w); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

func (s *Service) GetWishlist(ctx context.Context, id uuid.UUID) (*models.Wishlist, error) {
	w, err := scanWishlist(s.pool.QueryRow(ctx, queryGetActiveWishlist, id.String()))
	if err != nil {
		return nil, err
	}
	if w.Items, err = loadItems(ctx, s.pool, w.Id); err != nil {
		return nil, err
	}
	return w, nil
}

func (s *Service) ListWishlists(ctx context.Context, userId uuid.UUID) ([]models.Wishlist, error) {
	rows, err := s.pool.Query(ctx, queryListActiveWishlists, userId.String())
	if err != nil {
		return nil, fmt.Errorf("unable to query wishlists: %w", err)
	}

	var wishlists []models.Wishlist
	for rows.Next() {
		w, err := scanWishlist(rows)
		if err != nil {
			rows.Close()
			return nil, err
		}
		wishlists = append(wishlists, *w)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating wishlist rows: %w", err)
	}

	for i := range wishlists {
		if wishlists[i].Items, err = loadItems(ctx, s.pool, wishlists[i].Id); err != nil {
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

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer rollback(ctx, tx)

	tag, err := tx.Exec(ctx, queryUpdateWishlist,
		w.Name, string(w.Visibility), sharedWith, w.Version, w.IsActive, w.UpdatedAt,
		w.Id.String(), expectedVersion)
	if err != nil {
		return fmt.Errorf("failed to update wishlist: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("wishlist update failed - %w", store.ErrConcurrentModification)
	}

	if err := upsertItems(ctx, tx, w); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

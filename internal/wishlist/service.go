package wishlist

import (
	"context"
	"errors"
	"fmt"
	"time"

	"commerce-service-go/internal/models"
	"commerce-service-go/internal/store"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Service applies aggregate operations and persists them with optimistic versioning
type Service struct {
	store  store.CommerceStore
	limits Limits
	now    func() time.Time
}

func NewService(st store.CommerceStore, limits Limits) *Service {
	return &Service{
		store:  st,
		limits: limits,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

func translateStoreErr(err error) error {
	switch {
	case errors.Is(err, store.ErrNotFound):
		return fmt.Errorf("%w: wishlist", models.ErrNotFound)
	case errors.Is(err, store.ErrConcurrentModification):
		return fmt.Errorf("%w: wishlist was modified concurrently", models.ErrVersionConflict)
	default:
		return fmt.Errorf("%w: %v", models.ErrPersistence, err)
	}
}

func (s *Service) Create(ctx context.Context, userId uuid.UUID, name string, visibility models.Visibility) (*models.Wishlist, error) {
	w, err := New(userId, name, visibility, s.now())
	if err != nil {
		return nil, err
	}

	if err := s.store.CreateWishlist(ctx, w); err != nil {
		zap.L().Error("Failed to persist wishlist",
			zap.String("wishlist_id", w.Id.String()),
			zap.String("user_id", userId.String()),
			zap.Error(err))
		return nil, translateStoreErr(err)
	}

	zap.L().Info("Wishlist created",
		zap.String("wishlist_id", w.Id.String()),
		zap.String("user_id", userId.String()),
		zap.String("visibility", string(w.Visibility)))
	return w, nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*models.Wishlist, error) {
	w, err := s.store.GetWishlist(ctx, id)
	if err != nil {
		return nil, translateStoreErr(err)
	}
	return w, nil
}

func (s *Service) List(ctx context.Context, userId uuid.UUID) ([]models.Wishlist, error) {
	lists, err := s.store.ListWishlists(ctx, userId)
	if err != nil {
		return nil, translateStoreErr(err)
	}
	return lists, nil
}

func (s *Service) AddItem(ctx context.Context, id uuid.UUID, expectedVersion int64, in ItemInput) (*models.Wishlist, error) {
	item, err := NewItem(in, s.now())
	if err != nil {
		return nil, err
	}
	return s.mutate(ctx, id, expectedVersion, "add_item", func(w *models.Wishlist, now time.Time) error {
		return AddItem(w, item, s.limits, now)
	})
}

func (s *Service) Share(ctx context.Context, id uuid.UUID, expectedVersion int64, userIds []uuid.UUID) (*models.Wishlist, error) {
	return s.mutate(ctx, id, expectedVersion, "share", func(w *models.Wishlist, now time.Time) error {
		return ShareWith(w, userIds, s.limits, now)
	})
}

func (s *Service) Update(ctx context.Context, id uuid.UUID, expectedVersion int64, changes Changes) (*models.Wishlist, error) {
	return s.mutate(ctx, id, expectedVersion, "update", func(w *models.Wishlist, now time.Time) error {
		return UpdateFields(w, changes, now)
	})
}

// Delete soft-deletes the wishlist; later lookups report not found
func (s *Service) Delete(ctx context.Context, id uuid.UUID, expectedVersion int64) error {
	inactive := false
	_, err := s.mutate(ctx, id, expectedVersion, "delete", func(w *models.Wishlist, now time.Time) error {
		return UpdateFields(w, Changes{IsActive: &inactive}, now)
	})
	return err
}

func (s *Service) mutate(ctx context.Context, id uuid.UUID, expectedVersion int64, op string, apply func(*models.Wishlist, time.Time) error) (*models.Wishlist, error) {
	w, err := s.store.GetWishlist(ctx, id)
	if err != nil {
		return nil, translateStoreErr(err)
	}
	if w.Version != expectedVersion {
		zap.L().Info("Stale wishlist version rejected",
			zap.String("wishlist_id", id.String()),
			zap.String("operation", op),
			zap.Int64("expected_version", expectedVersion),
			zap.Int64("current_version", w.Version))
		return nil, fmt.Errorf("%w: expected version %d, current %d", models.ErrVersionConflict, expectedVersion, w.Version)
	}

	if err := apply(w, s.now()); err != nil {
		return nil, err
	}

	if err := s.store.SaveWishlist(ctx, w, expectedVersion); err != nil {
		if errors.Is(err, store.ErrConcurrentModification) {
			zap.L().Info("Concurrent wishlist write rejected",
				zap.String("wishlist_id", id.String()),
				zap.String("operation", op),
				zap.Int64("expected_version", expectedVersion))
		} else {
			zap.L().Error("Failed to save wishlist",
				zap.String("wishlist_id", id.String()),
				zap.String("operation", op),
				zap.Error(err))
		}
		return nil, translateStoreErr(err)
	}

	zap.L().Debug("Wishlist updated",
		zap.String("wishlist_id", id.String()),
		zap.String("operation", op),
		zap.Int64("version", w.Version))
	return w, nil
}

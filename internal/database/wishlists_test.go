package database

import (
	"context"
	"errors"
	"testing"
	"time"

	"commerce-service-go/internal/models"
	"commerce-service-go/internal/store"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

func newTestWishlist() *models.Wishlist {
	now := time.Now().UTC()
	return &models.Wishlist{
		Id:         uuid.New(),
		UserId:     uuid.New(),
		Name:       "Gift List",
		Items:      []models.WishlistItem{},
		Visibility: models.VisibilityPrivate,
		SharedWith: []uuid.UUID{},
		Version:    1,
		IsActive:   true,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
}

func newTestItem(wishlistId uuid.UUID, productId string) models.WishlistItem {
	return models.WishlistItem{
		Id:         uuid.New(),
		WishlistId: wishlistId,
		ProductId:  productId,
		Name:       "Item " + productId,
		Price:      decimal.RequireFromString("19.99"),
		Currency:   "USD",
		AddedAt:    time.Now().UTC(),
		IsActive:   true,
	}
}

func TestSaveWishlist_PersistsItemsInOrder(t *testing.T) {
	service, cleanup := setupTestDb(t)
	defer cleanup()

	ctx := context.Background()
	w := newTestWishlist()
	if err := service.CreateWishlist(ctx, w); err != nil {
		t.Fatalf("CreateWishlist failed: %v", err)
	}

	w.Items = append(w.Items, newTestItem(w.Id, "p-2"), newTestItem(w.Id, "p-1"))
	w.SharedWith = []uuid.UUID{uuid.New()}
	w.Visibility = models.VisibilityShared
	w.Version = 2
	if err := service.SaveWishlist(ctx, w, 1); err != nil {
		t.Fatalf("SaveWishlist failed: %v", err)
	}

	got, err := service.GetWishlist(ctx, w.Id)
	if err != nil {
		t.Fatalf("GetWishlist failed: %v", err)
	}
	if got.Version != 2 {
		t.Errorf("Expected version 2, got %d", got.Version)
	}
	if len(got.Items) != 2 || got.Items[0].ProductId != "p-2" || got.Items[1].ProductId != "p-1" {
		t.Fatalf("Expected items in insertion order, got %+v", got.Items)
	}
	if got.Items[0].UpdatedAt != nil {
		t.Errorf("Expected nil item updated_at, got %v", got.Items[0].UpdatedAt)
	}
	if len(got.SharedWith) != 1 || got.SharedWith[0] != w.SharedWith[0] {
		t.Errorf("Expected shared_with to round trip, got %v", got.SharedWith)
	}
	if got.Visibility != models.VisibilityShared {
		t.Errorf("Expected shared visibility, got %s", got.Visibility)
	}
}

func TestSaveWishlist_VersionConflict(t *testing.T) {
	service, cleanup := setupTestDb(t)
	defer cleanup()

	ctx := context.Background()
	w := newTestWishlist()
	if err := service.CreateWishlist(ctx, w); err != nil {
		t.Fatalf("CreateWishlist failed: %v", err)
	}

	w.Name = "First writer"
	w.Version = 2
	if err := service.SaveWishlist(ctx, w, 1); err != nil {
		t.Fatalf("SaveWishlist failed: %v", err)
	}

	w.Name = "Second writer"
	err := service.SaveWishlist(ctx, w, 1)
	if !errors.Is(err, store.ErrConcurrentModification) {
		t.Fatalf("Expected concurrent modification error, got: %v", err)
	}

	got, err := service.GetWishlist(ctx, w.Id)
	if err != nil {
		t.Fatalf("GetWishlist failed: %v", err)
	}
	if got.Name != "First writer" {
		t.Errorf("Expected first writer to win, got %q", got.Name)
	}
}

func TestGetWishlist_InactiveIsNotFound(t *testing.T) {
	service, cleanup := setupTestDb(t)
	defer cleanup()

	ctx := context.Background()
	w := newTestWishlist()
	if err := service.CreateWishlist(ctx, w); err != nil {
		t.Fatalf("CreateWishlist failed: %v", err)
	}

	w.IsActive = false
	w.Version = 2
	if err := service.SaveWishlist(ctx, w, 1); err != nil {
		t.Fatalf("SaveWishlist failed: %v", err)
	}

	if _, err := service.GetWishlist(ctx, w.Id); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("Expected not found for inactive wishlist, got: %v", err)
	}

	lists, err := service.ListWishlists(ctx, w.UserId)
	if err != nil {
		t.Fatalf("ListWishlists failed: %v", err)
	}
	if len(lists) != 0 {
		t.Errorf("Expected inactive wishlist to be excluded, got %d", len(lists))
	}
}

func TestListWishlists_LoadsItems(t *testing.T) {
	service, cleanup := setupTestDb(t)
	defer cleanup()

	ctx := context.Background()
	userId := uuid.New()
	for i := 0; i < 2; i++ {
		w := newTestWishlist()
		w.UserId = userId
		w.Items = []models.WishlistItem{newTestItem(w.Id, "p-1")}
		if err := service.CreateWishlist(ctx, w); err != nil {
			t.Fatalf("CreateWishlist failed: %v", err)
		}
	}

	lists, err := service.ListWishlists(ctx, userId)
	if err != nil {
		t.Fatalf("ListWishlists failed: %v", err)
	}
	if len(lists) != 2 {
		t.Fatalf("Expected 2 wishlists, got %d", len(lists))
	}
	for _, w := range lists {
		if len(w.Items) != 1 {
			t.Errorf("Expected 1 item on wishlist %s, got %d", w.Id, len(w.Items))
		}
	}
}

package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Visibility controls who may read a wishlist
type Visibility string

const (
	VisibilityPrivate Visibility = "private"
	VisibilityShared  Visibility = "shared"
	VisibilityPublic  Visibility = "public"
)

func (v Visibility) Valid() bool {
	switch v {
	case VisibilityPrivate, VisibilityShared, VisibilityPublic:
		return true
	}
	return false
}

// Wishlist is a user-owned, optionally shared collection of desired items
type Wishlist struct {
	Id         uuid.UUID      `db:"id"`
	UserId     uuid.UUID      `db:"user_id"`
	Name       string         `db:"name"`
	Items      []WishlistItem `db:"-"`
	Visibility Visibility     `db:"visibility"`
	SharedWith []uuid.UUID    `db:"shared_with"`
	Version    int64          `db:"version"`
	IsActive   bool           `db:"is_active"`
	CreatedAt  time.Time      `db:"created_at"`
	UpdatedAt  time.Time      `db:"updated_at"`
}

// WishlistItem is owned exclusively by one wishlist
type WishlistItem struct {
	Id         uuid.UUID       `db:"id"`
	WishlistId uuid.UUID       `db:"wishlist_id"`
	ProductId  string          `db:"product_id"`
	Name       string          `db:"name"`
	Price      decimal.Decimal `db:"price"`
	Currency   string          `db:"currency"`
	ImageUrl   string          `db:"image_url"`
	AddedAt    time.Time       `db:"added_at"`
	UpdatedAt  *time.Time      `db:"updated_at"`
	IsActive   bool            `db:"is_active"`
}

// ActiveItemCount counts items that have not been deactivated
func (w *Wishlist) ActiveItemCount() int {
	n := 0
	for _, item := range w.Items {
		if item.IsActive {
			n++
		}
	}
	return n
}

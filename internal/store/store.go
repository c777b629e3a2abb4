package store

import (
	"context"
	"errors"
	"time"

	"commerce-service-go/internal/models"

	"github.com/google/uuid"
)

// Sentinel errors shared across all backend implementations.
var (
	ErrNotFound               = errors.New("record not found")
	ErrDuplicateReference     = errors.New("duplicate payment intent reference")
	ErrConcurrentModification = errors.New("concurrent modification detected")
)

// PurchaseMutation is applied to a purchase while its row is locked. It reports
// whether it changed the purchase; unchanged purchases are not written back.
// Returning an error aborts the transaction.
type PurchaseMutation func(p *models.Purchase) (changed bool, err error)

// CommerceStore defines the contract that every backend (SQLite, Postgres) must satisfy.
type CommerceStore interface {
	// --- Purchases ---
	CreatePurchase(ctx context.Context, p *models.Purchase) error
	GetPurchase(ctx context.Context, id uuid.UUID) (*models.Purchase, error)
	GetPurchaseByIntent(ctx context.Context, paymentIntentId string) (*models.Purchase, error)
	ListPurchases(ctx context.Context, userId uuid.UUID, limit, offset int) ([]models.Purchase, error)
	// ListStalePurchases returns purchases in one of statuses that were neither
	// updated nor swept since cutoff, least recently looked at first.
	ListStalePurchases(ctx context.Context, statuses []models.PurchaseStatus, cutoff time.Time, limit int) ([]models.Purchase, error)
	// MarkPurchasesSwept records that ids were checked against the processor at at.
	MarkPurchasesSwept(ctx context.Context, ids []uuid.UUID, at time.Time) error
	// UpdatePurchase and UpdatePurchaseByIntent run fn inside one transaction
	// holding the purchase's row lock, so concurrent status changes serialize.
	UpdatePurchase(ctx context.Context, id uuid.UUID, fn PurchaseMutation) (*models.Purchase, error)
	UpdatePurchaseByIntent(ctx context.Context, paymentIntentId string, fn PurchaseMutation) (*models.Purchase, error)

	// --- Wishlists ---
	CreateWishlist(ctx context.Context, w *models.Wishlist) error
	// GetWishlist returns ErrNotFound for inactive (soft-deleted) wishlists.
	GetWishlist(ctx context.Context, id uuid.UUID) (*models.Wishlist, error)
	ListWishlists(ctx context.Context, userId uuid.UUID) ([]models.Wishlist, error)
	// SaveWishlist writes w only if the stored version still equals
	// expectedVersion, otherwise it returns ErrConcurrentModification.
	SaveWishlist(ctx context.Context, w *models.Wishlist, expectedVersion int64) error

	// --- Lifecycle ---
	Ping(ctx context.Context) error
	Close()
}

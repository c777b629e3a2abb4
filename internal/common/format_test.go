package common

import (
	"bytes"
	"testing"
	"time"

	"commerce-service-go/internal/models"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestPrintPurchase_MasksMetadata(t *testing.T) {
	now := time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)
	p := &models.Purchase{
		Id:              uuid.New(),
		UserId:          uuid.New(),
		Amount:          decimal.RequireFromString("99.99"),
		Currency:        "USD",
		PaymentIntentId: "pi_123",
		Status:          models.PurchaseStatusCompleted,
		StatusReason:    "Payment succeeded",
		Metadata:        map[string]string{"order": "A-1", "card_last4": "4242"},
		CreatedAt:       now,
		StatusChangedAt: now,
	}

	var buf bytes.Buffer
	PrintPurchase(&buf, p, "succeeded")
	out := buf.String()

	assert.Contains(t, out, "99.99 USD")
	assert.Contains(t, out, "completed (Payment succeeded)")
	assert.Contains(t, out, "Stripe:   succeeded")
	assert.Contains(t, out, "card_last4 = ******")
	assert.NotContains(t, out, "4242")
	assert.Contains(t, out, "2025-01-02 03:04:05")
}

func TestPrintWishlist_SkipsInactiveItems(t *testing.T) {
	list := &models.Wishlist{
		Id:         uuid.New(),
		UserId:     uuid.New(),
		Name:       "Gift List",
		Visibility: models.VisibilityShared,
		Version:    3,
		Items: []models.WishlistItem{
			{ProductId: "P1", Name: "Kept", Price: decimal.RequireFromString("10.00"), Currency: "USD", IsActive: true},
			{ProductId: "P2", Name: "Removed", Price: decimal.RequireFromString("5.00"), Currency: "USD"},
		},
	}

	var buf bytes.Buffer
	PrintWishlist(&buf, list)
	out := buf.String()

	assert.Contains(t, out, "Gift List (v3, shared)")
	assert.Contains(t, out, "P1")
	assert.NotContains(t, out, "Removed")

	list.Items = nil
	buf.Reset()
	PrintWishlist(&buf, list)
	assert.Contains(t, buf.String(), "(no items)")
}

package purchase

import (
	"testing"
	"time"

	"commerce-service-go/internal/models"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var table = map[models.PurchaseStatus][]models.PurchaseStatus{
	models.PurchaseStatusPending:    {models.PurchaseStatusProcessing, models.PurchaseStatusFailed},
	models.PurchaseStatusProcessing: {models.PurchaseStatusCompleted, models.PurchaseStatusFailed},
	models.PurchaseStatusCompleted:  {models.PurchaseStatusRefunded, models.PurchaseStatusDisputed},
	models.PurchaseStatusFailed:     {models.PurchaseStatusPending},
	models.PurchaseStatusRefunded:   {models.PurchaseStatusDisputed},
	models.PurchaseStatusDisputed:   {models.PurchaseStatusCompleted, models.PurchaseStatusRefunded},
}

func allowed(from, to models.PurchaseStatus) bool {
	for _, s := range table[from] {
		if s == to {
			return true
		}
	}
	return false
}

func TestTransition_AllPairs(t *testing.T) {
	created := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	now := created.Add(time.Hour)

	for _, from := range models.PurchaseStatuses {
		for _, to := range models.PurchaseStatuses {
			p := &models.Purchase{
				Id:              uuid.New(),
				Amount:          decimal.NewFromInt(10),
				Currency:        "USD",
				PaymentIntentId: "pi_1",
				Status:          from,
				StatusReason:    "before",
				CreatedAt:       created,
				UpdatedAt:       created,
				StatusChangedAt: created,
			}

			err := Transition(p, to, "because", now)
			if allowed(from, to) {
				require.NoError(t, err, "%s -> %s", from, to)
				assert.Equal(t, to, p.Status)
				assert.Equal(t, "because", p.StatusReason)
				assert.Equal(t, now, p.StatusChangedAt)
				assert.Equal(t, now, p.UpdatedAt)
			} else {
				require.ErrorIs(t, err, models.ErrInvalidTransition, "%s -> %s", from, to)
				assert.Equal(t, from, p.Status)
				assert.Equal(t, "before", p.StatusReason)
				assert.Equal(t, created, p.UpdatedAt)
			}
			assert.Equal(t, created, p.CreatedAt)
			assert.Equal(t, "pi_1", p.PaymentIntentId)
		}
	}
}

func TestTransition_MissingReason(t *testing.T) {
	p := &models.Purchase{Status: models.PurchaseStatusPending}

	err := Transition(p, models.PurchaseStatusProcessing, "   ", time.Now())
	require.ErrorIs(t, err, models.ErrMissingReason)
	assert.Equal(t, models.PurchaseStatusPending, p.Status)
}

func TestTransition_SameStatusIsInvalid(t *testing.T) {
	p := &models.Purchase{Status: models.PurchaseStatusCompleted}
	err := Transition(p, models.PurchaseStatusCompleted, "Payment succeeded", time.Now())
	assert.ErrorIs(t, err, models.ErrInvalidTransition)
}

func TestAllowedTransitions(t *testing.T) {
	assert.Equal(t,
		[]models.PurchaseStatus{models.PurchaseStatusCompleted, models.PurchaseStatusRefunded},
		AllowedTransitions(models.PurchaseStatusDisputed))
	assert.Empty(t, AllowedTransitions(models.PurchaseStatus("bogus")))
}

func TestNew(t *testing.T) {
	policy := models.DefaultPolicy()
	now := time.Now().UTC()
	user := uuid.New()

	p, err := New(NewParams{
		UserId:          user,
		Amount:          decimal.RequireFromString("50.00"),
		Currency:        "usd",
		PaymentIntentId: "pi_123",
		Metadata:        map[string]string{"card_last4": "4242", "order": "A1"},
	}, policy, now)
	require.NoError(t, err)

	assert.Equal(t, models.PurchaseStatusPending, p.Status)
	assert.Equal(t, "USD", p.Currency)
	assert.Equal(t, "Purchase initiated", p.StatusReason)
	assert.Equal(t, models.RedactedValue, p.Metadata["card_last4"])
	assert.Equal(t, "A1", p.Metadata["order"])
	assert.Equal(t, now, p.StatusChangedAt)
}

func TestValidateAmount(t *testing.T) {
	policy := models.DefaultPolicy()
	tests := []struct {
		amount   string
		currency string
		ok       bool
	}{
		{"19.99", "USD", true},
		{"0.01", "eur", true},
		{"0", "USD", false},
		{"-5", "USD", false},
		{"10.001", "USD", false},
		{"10", "JPY", false},
		{"100000000.00", "GBP", false},
	}
	for _, tt := range tests {
		_, err := ValidateAmount(decimal.RequireFromString(tt.amount), tt.currency, policy)
		if tt.ok {
			assert.NoError(t, err, "%s %s", tt.amount, tt.currency)
		} else {
			assert.ErrorIs(t, err, models.ErrInvalidInput, "%s %s", tt.amount, tt.currency)
		}
	}
}

func TestMinorUnits(t *testing.T) {
	assert.Equal(t, int64(5000), MinorUnits(decimal.RequireFromString("50.00"), "USD"))
	assert.Equal(t, int64(1999), MinorUnits(decimal.RequireFromString("19.99"), "EUR"))
	assert.Equal(t, int64(500), MinorUnits(decimal.RequireFromString("500"), "JPY"))
}

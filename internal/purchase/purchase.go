package purchase

import (
	"fmt"
	"strings"
	"time"

	"commerce-service-go/internal/models"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const initialReason = "Purchase initiated"

// maxAmount is the largest amount the purchases table can hold (numeric(10,2))
var maxAmount = decimal.RequireFromString("99999999.99")

// minorUnitExponent maps a currency to its number of minor-unit digits.
// Currencies not listed use two.
var minorUnitExponent = map[string]int32{
	"JPY": 0,
	"KRW": 0,
}

// NewParams contains the parameters for constructing a purchase
type NewParams struct {
	UserId          uuid.UUID
	Amount          decimal.Decimal
	Currency        string
	PaymentIntentId string
	Metadata        map[string]string
	Collaborative   *models.CollaborativeData
}

// ValidateAmount checks amount and currency against the policy and returns the
// normalized currency code
func ValidateAmount(amount decimal.Decimal, currency string, policy models.Policy) (string, error) {
	code := strings.ToUpper(strings.TrimSpace(currency))
	if !policy.CurrencyAllowed(code) {
		return "", fmt.Errorf("%w: currency %q not supported", models.ErrInvalidInput, currency)
	}
	if !amount.IsPositive() {
		return "", fmt.Errorf("%w: amount must be greater than 0", models.ErrInvalidInput)
	}
	if amount.GreaterThan(maxAmount) {
		return "", fmt.Errorf("%w: amount exceeds %s", models.ErrInvalidInput, maxAmount.String())
	}
	if !amount.Equal(amount.Truncate(exponentFor(code))) {
		return "", fmt.Errorf("%w: amount %s has more precision than %s allows", models.ErrInvalidInput, amount.String(), code)
	}
	return code, nil
}

// MinorUnits converts an already validated amount to integer minor units
func MinorUnits(amount decimal.Decimal, currency string) int64 {
	return amount.Shift(exponentFor(currency)).IntPart()
}

func exponentFor(currency string) int32 {
	if exp, ok := minorUnitExponent[currency]; ok {
		return exp
	}
	return 2
}

// New builds a PENDING purchase referencing an already created payment intent
func New(params NewParams, policy models.Policy, now time.Time) (*models.Purchase, error) {
	if params.UserId == uuid.Nil {
		return nil, fmt.Errorf("%w: user_id is required", models.ErrInvalidInput)
	}
	currency, err := ValidateAmount(params.Amount, params.Currency, policy)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(params.PaymentIntentId) == "" {
		return nil, fmt.Errorf("%w: payment intent reference is required", models.ErrInvalidInput)
	}

	return &models.Purchase{
		Id:              uuid.New(),
		UserId:          params.UserId,
		Amount:          params.Amount,
		Currency:        currency,
		PaymentIntentId: params.PaymentIntentId,
		Status:          models.PurchaseStatusPending,
		Metadata:        models.SanitizeMetadata(params.Metadata),
		Collaborative:   params.Collaborative,
		StatusReason:    initialReason,
		CreatedAt:       now,
		UpdatedAt:       now,
		StatusChangedAt: now,
	}, nil
}

package payment

import (
	"context"

	"commerce-service-go/internal/models"
)

// Processor is the external payment processor. Implementations wrap transient
// failures (network, 5xx, rate limiting) with models.ErrProcessorUnavailable so
// they are retried; every other error is permanent.
type Processor interface {
	CreateIntent(ctx context.Context, amountMinor int64, currency, idempotencyKey string, require3DS bool, metadata map[string]string) (*models.PaymentIntent, error)
	CreateRefund(ctx context.Context, paymentIntentId, idempotencyKey string) (*models.Refund, error)
	GetIntent(ctx context.Context, paymentIntentId string) (*models.PaymentIntent, error)
	// VerifyEvent checks the signature header against the raw payload and
	// returns models.ErrSignatureInvalid when it does not match.
	VerifyEvent(payload []byte, signature string) (*models.ProcessorEvent, error)
}

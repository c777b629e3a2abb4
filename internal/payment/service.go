package payment

import (
	"context"
	"errors"
	"fmt"
	"time"

	"commerce-service-go/internal/models"
	"commerce-service-go/internal/purchase"
	"commerce-service-go/internal/store"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

const tracerName = "commerce-service-go/payment"

// Service orchestrates purchases against the payment processor
type Service struct {
	store      store.CommerceStore
	processor  Processor
	policy     models.Policy
	retry      RetryPolicy
	require3DS bool
	now        func() time.Time
	tracer     trace.Tracer
}

type Options struct {
	Policy     models.Policy
	Retry      RetryPolicy
	Require3DS bool
}

func NewService(st store.CommerceStore, processor Processor, opts Options) *Service {
	return &Service{
		store:      st,
		processor:  processor,
		policy:     opts.Policy,
		retry:      opts.Retry,
		require3DS: opts.Require3DS,
		now:        func() time.Time { return time.Now().UTC() },
		tracer:     otel.Tracer(tracerName),
	}
}

func finishSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}

// CreateParams are the caller inputs for a new payment
type CreateParams struct {
	UserId        uuid.UUID
	Amount        decimal.Decimal
	Currency      string
	Metadata      map[string]string
	Collaborative *models.CollaborativeData
}

// Payment is a freshly created purchase plus the secret the client confirms it with
type Payment struct {
	Purchase     *models.Purchase
	ClientSecret string
}

func createIntentKey(amountMinor int64, currency string) string {
	return fmt.Sprintf("pi-%d-%s-%s", amountMinor, currency, uuid.NewString())
}

func refundKey(purchaseId uuid.UUID) string {
	return "refund-" + purchaseId.String()
}

func (s *Service) CreatePayment(ctx context.Context, params CreateParams) (_ *Payment, err error) {
	ctx, span := s.tracer.Start(ctx, "payment.CreatePayment",
		trace.WithAttributes(attribute.String("user_id", params.UserId.String())))
	defer func() { finishSpan(span, err) }()

	if params.UserId == uuid.Nil {
		return nil, fmt.Errorf("%w: user_id is required", models.ErrInvalidInput)
	}
	currency, err := purchase.ValidateAmount(params.Amount, params.Currency, s.policy)
	if err != nil {
		return nil, err
	}

	amountMinor := purchase.MinorUnits(params.Amount, currency)
	// One key per call, shared by every retry, so the processor creates at most one intent
	key := createIntentKey(amountMinor, currency)
	metadata := models.SanitizeMetadata(params.Metadata)
	processorMetadata := models.SanitizeMetadata(params.Metadata)
	processorMetadata["user_id"] = params.UserId.String()

	zap.L().Info("Creating payment intent",
		zap.String("user_id", params.UserId.String()),
		zap.String("amount", params.Amount.String()),
		zap.String("currency", currency),
		zap.Int64("amount_minor", amountMinor))

	intent, err := withRetry(ctx, s.retry, "create_intent", func(ctx context.Context) (*models.PaymentIntent, error) {
		return s.processor.CreateIntent(ctx, amountMinor, currency, key, s.require3DS, processorMetadata)
	})
	if err != nil {
		zap.L().Error("Payment intent creation failed",
			zap.String("user_id", params.UserId.String()),
			zap.String("idempotency_key", key),
			zap.Error(err))
		return nil, err
	}

	p, err := purchase.New(purchase.NewParams{
		UserId:          params.UserId,
		Amount:          params.Amount,
		Currency:        currency,
		PaymentIntentId: intent.Id,
		Metadata:        metadata,
		Collaborative:   params.Collaborative,
	}, s.policy, s.now())
	if err != nil {
		return nil, err
	}

	if err := s.store.CreatePurchase(ctx, p); err != nil {
		// The intent exists at the processor with no local record; operators reconcile it by id
		zap.L().Error("Orphaned payment intent: purchase could not be persisted",
			zap.String("payment_intent_id", intent.Id),
			zap.String("purchase_id", p.Id.String()),
			zap.String("user_id", params.UserId.String()),
			zap.Error(err))
		return nil, fmt.Errorf("%w: purchase for intent %s: %v", models.ErrPersistence, intent.Id, err)
	}

	span.SetAttributes(
		attribute.String("purchase_id", p.Id.String()),
		attribute.String("payment_intent_id", intent.Id))
	zap.L().Info("Payment created",
		zap.String("purchase_id", p.Id.String()),
		zap.String("payment_intent_id", intent.Id),
		zap.String("status", p.Status.String()))

	return &Payment{Purchase: p, ClientSecret: intent.ClientSecret}, nil
}

func (s *Service) getPurchase(ctx context.Context, purchaseId uuid.UUID) (*models.Purchase, error) {
	p, err := s.store.GetPurchase(ctx, purchaseId)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, fmt.Errorf("%w: purchase %s", models.ErrNotFound, purchaseId)
		}
		return nil, fmt.Errorf("%w: %v", models.ErrPersistence, err)
	}
	return p, nil
}

func (s *Service) RefundPayment(ctx context.Context, purchaseId uuid.UUID) (_ *models.Purchase, err error) {
	ctx, span := s.tracer.Start(ctx, "payment.RefundPayment",
		trace.WithAttributes(attribute.String("purchase_id", purchaseId.String())))
	defer func() { finishSpan(span, err) }()

	p, err := s.getPurchase(ctx, purchaseId)
	if err != nil {
		return nil, err
	}
	if p.Status != models.PurchaseStatusCompleted {
		return nil, fmt.Errorf("%w: status is %s", models.ErrNotRefundable, p.Status)
	}

	refund, err := withRetry(ctx, s.retry, "create_refund", func(ctx context.Context) (*models.Refund, error) {
		return s.processor.CreateRefund(ctx, p.PaymentIntentId, refundKey(purchaseId))
	})
	if err != nil {
		zap.L().Error("Refund failed at processor",
			zap.String("purchase_id", purchaseId.String()),
			zap.String("payment_intent_id", p.PaymentIntentId),
			zap.Error(err))
		return nil, err
	}

	reason := "Refund processed: " + refund.Id
	updated, err := s.store.UpdatePurchase(ctx, purchaseId, func(p *models.Purchase) (bool, error) {
		// A refund webhook may already have landed
		if p.Status == models.PurchaseStatusRefunded {
			return false, nil
		}
		if err := purchase.Transition(p, models.PurchaseStatusRefunded, reason, s.now()); err != nil {
			return false, err
		}
		return true, nil
	})
	if err != nil {
		if errors.Is(err, models.ErrInvalidTransition) {
			return nil, err
		}
		zap.L().Error("Refund succeeded at processor but local update failed",
			zap.String("purchase_id", purchaseId.String()),
			zap.String("refund_id", refund.Id),
			zap.Error(err))
		return nil, fmt.Errorf("%w: refund %s: %v", models.ErrPersistence, refund.Id, err)
	}

	zap.L().Info("Payment refunded",
		zap.String("purchase_id", purchaseId.String()),
		zap.String("refund_id", refund.Id))
	return updated, nil
}

func (s *Service) GetPaymentStatus(ctx context.Context, purchaseId uuid.UUID) (*models.PaymentStatus, error) {
	p, err := s.getPurchase(ctx, purchaseId)
	if err != nil {
		return nil, err
	}

	status := &models.PaymentStatus{Purchase: p}
	intent, err := s.processor.GetIntent(ctx, p.PaymentIntentId)
	if err != nil {
		zap.L().Warn("Live payment intent lookup failed",
			zap.String("purchase_id", purchaseId.String()),
			zap.String("payment_intent_id", p.PaymentIntentId),
			zap.Error(err))
		return status, nil
	}
	status.ProcessorStatus = intent.Status
	return status, nil
}

// ListPayments returns a user's purchases, newest first
func (s *Service) ListPayments(ctx context.Context, userId uuid.UUID, limit, offset int) ([]models.Purchase, error) {
	purchases, err := s.store.ListPurchases(ctx, userId, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrPersistence, err)
	}
	return purchases, nil
}

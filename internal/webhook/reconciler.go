package webhook

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"commerce-service-go/internal/models"
	"commerce-service-go/internal/purchase"
	"commerce-service-go/internal/store"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Outcome describes what reconciliation did with a verified event
type Outcome string

const (
	OutcomeApplied   Outcome = "applied"
	OutcomeDuplicate Outcome = "duplicate"
	OutcomeStale     Outcome = "stale"
	OutcomeUnmatched Outcome = "unmatched"
	OutcomeIgnored   Outcome = "ignored"
)

// Result is returned for every event that passed signature verification
type Result struct {
	EventId    string
	EventType  string
	Outcome    Outcome
	PurchaseId uuid.UUID
	Status     models.PurchaseStatus
}

// Verifier authenticates raw webhook deliveries
type Verifier interface {
	VerifyEvent(payload []byte, signature string) (*models.ProcessorEvent, error)
}

// Reconciler applies processor events to local purchases
type Reconciler struct {
	store    store.CommerceStore
	verifier Verifier
	deduper  EventDeduper
	now      func() time.Time
}

// NewReconciler builds a reconciler. deduper may be nil.
func NewReconciler(st store.CommerceStore, verifier Verifier, deduper EventDeduper) *Reconciler {
	return &Reconciler{
		store:    st,
		verifier: verifier,
		deduper:  deduper,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

type statusChange struct {
	status models.PurchaseStatus
	reason string
}

var intentStatuses = map[string]models.PurchaseStatus{
	"succeeded":               models.PurchaseStatusCompleted,
	"canceled":                models.PurchaseStatusFailed,
	"processing":              models.PurchaseStatusProcessing,
	"requires_payment_method": models.PurchaseStatusPending,
}

// mapEvent returns the status change an event implies, if any
func mapEvent(ev *models.ProcessorEvent) (statusChange, bool) {
	switch {
	case strings.HasPrefix(ev.Type, "payment_intent."):
		intentStatus := ev.ObjectStatus
		if intentStatus == "" {
			intentStatus = strings.TrimPrefix(ev.Type, "payment_intent.")
		}
		status, ok := intentStatuses[intentStatus]
		if !ok {
			return statusChange{}, false
		}
		return statusChange{status: status, reason: "Payment " + intentStatus}, true

	case strings.HasPrefix(ev.Type, "charge."):
		if ev.Type == "charge.dispute.created" {
			return statusChange{status: models.PurchaseStatusDisputed, reason: "Payment disputed"}, true
		}

	case strings.HasPrefix(ev.Type, "refund."):
		if ev.Type == "refund.succeeded" || ev.ObjectStatus == "succeeded" {
			return statusChange{status: models.PurchaseStatusRefunded, reason: "Payment refunded"}, true
		}
	}
	return statusChange{}, false
}

// HandleEvent verifies and reconciles one webhook delivery. Only signature and
// persistence failures are returned as errors; every other event is acknowledged.
func (r *Reconciler) HandleEvent(ctx context.Context, payload []byte, signature string) (Result, error) {
	ev, err := r.verifier.VerifyEvent(payload, signature)
	if err != nil {
		zap.L().Warn("Webhook signature verification failed",
			zap.Bool("security_event", true),
			zap.Int("payload_bytes", len(payload)),
			zap.Error(err))
		if !errors.Is(err, models.ErrSignatureInvalid) {
			err = fmt.Errorf("%w: %v", models.ErrSignatureInvalid, err)
		}
		return Result{}, err
	}
	return r.reconcile(ctx, ev)
}

// ReconcileIntent applies a payment intent status fetched directly from the
// processor. It follows the same rules as a payment_intent webhook event.
func (r *Reconciler) ReconcileIntent(ctx context.Context, paymentIntentId, intentStatus string) (Result, error) {
	return r.reconcile(ctx, &models.ProcessorEvent{
		Type:            "payment_intent." + intentStatus,
		PaymentIntentId: paymentIntentId,
		ObjectStatus:    intentStatus,
	})
}

func (r *Reconciler) reconcile(ctx context.Context, ev *models.ProcessorEvent) (Result, error) {
	result := Result{EventId: ev.Id, EventType: ev.Type}

	change, ok := mapEvent(ev)
	if !ok {
		zap.L().Info("Unhandled processor event type",
			zap.String("event_id", ev.Id),
			zap.String("event_type", ev.Type))
		result.Outcome = OutcomeIgnored
		return result, nil
	}
	result.Status = change.status

	if r.alreadyProcessed(ctx, ev.Id) {
		zap.L().Info("Replayed webhook event skipped",
			zap.String("event_id", ev.Id),
			zap.String("event_type", ev.Type))
		result.Outcome = OutcomeDuplicate
		return result, nil
	}

	outcome := OutcomeApplied
	p, err := r.store.UpdatePurchaseByIntent(ctx, ev.PaymentIntentId, func(p *models.Purchase) (bool, error) {
		if p.Status == change.status {
			outcome = OutcomeDuplicate
			return false, nil
		}
		steps, ok := transitionPath(p.Status, change.status)
		if !ok {
			outcome = OutcomeStale
			zap.L().Warn("Out-of-order processor event ignored",
				zap.String("event_id", ev.Id),
				zap.String("event_type", ev.Type),
				zap.String("purchase_id", p.Id.String()),
				zap.String("current_status", p.Status.String()),
				zap.String("event_status", change.status.String()))
			return false, nil
		}
		now := r.now()
		for _, step := range steps {
			reason := change.reason
			if step != change.status {
				reason = "Payment " + step.String()
			}
			if err := purchase.Transition(p, step, reason, now); err != nil {
				return false, err
			}
		}
		return true, nil
	})
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			zap.L().Warn("Processor event for unknown payment intent",
				zap.String("event_id", ev.Id),
				zap.String("event_type", ev.Type),
				zap.String("payment_intent_id", ev.PaymentIntentId))
			result.Outcome = OutcomeUnmatched
			return result, nil
		}
		zap.L().Error("Failed to reconcile processor event",
			zap.String("event_id", ev.Id),
			zap.String("payment_intent_id", ev.PaymentIntentId),
			zap.Error(err))
		return result, fmt.Errorf("%w: %v", models.ErrPersistence, err)
	}

	result.Outcome = outcome
	result.PurchaseId = p.Id
	r.markProcessed(ctx, ev.Id)

	zap.L().Info("Processor event reconciled",
		zap.String("event_id", ev.Id),
		zap.String("event_type", ev.Type),
		zap.String("purchase_id", p.Id.String()),
		zap.String("outcome", string(outcome)),
		zap.String("status", p.Status.String()))
	return result, nil
}

// transitionPath returns the statuses a purchase passes through to reach to.
// Card payments often succeed without a separate processing event, so a
// PENDING purchase is completed via PROCESSING in the same write.
func transitionPath(from, to models.PurchaseStatus) ([]models.PurchaseStatus, bool) {
	if purchase.CanTransition(from, to) {
		return []models.PurchaseStatus{to}, true
	}
	if from == models.PurchaseStatusPending && to == models.PurchaseStatusCompleted {
		return []models.PurchaseStatus{models.PurchaseStatusProcessing, models.PurchaseStatusCompleted}, true
	}
	return nil, false
}

func (r *Reconciler) alreadyProcessed(ctx context.Context, eventId string) bool {
	if r.deduper == nil || eventId == "" {
		return false
	}
	seen, err := r.deduper.Seen(ctx, eventId)
	if err != nil {
		// The store's same-status check still protects against replays
		zap.L().Warn("Event deduper lookup failed", zap.String("event_id", eventId), zap.Error(err))
		return false
	}
	return seen
}

func (r *Reconciler) markProcessed(ctx context.Context, eventId string) {
	if r.deduper == nil || eventId == "" {
		return
	}
	if err := r.deduper.MarkProcessed(ctx, eventId); err != nil {
		zap.L().Warn("Failed to record processed event", zap.String("event_id", eventId), zap.Error(err))
	}
}

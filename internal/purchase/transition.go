package purchase

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"commerce-service-go/internal/models"
)

// transitions is the adjacency table of legal status changes. COMPLETED, REFUNDED
// and DISPUTED are not absorbing: the refund/dispute lifecycle continues after completion.
var transitions = map[models.PurchaseStatus]map[models.PurchaseStatus]struct{}{
	models.PurchaseStatusPending: {
		models.PurchaseStatusProcessing: {},
		models.PurchaseStatusFailed:     {},
	},
	models.PurchaseStatusProcessing: {
		models.PurchaseStatusCompleted: {},
		models.PurchaseStatusFailed:    {},
	},
	models.PurchaseStatusCompleted: {
		models.PurchaseStatusRefunded: {},
		models.PurchaseStatusDisputed: {},
	},
	models.PurchaseStatusFailed: {
		models.PurchaseStatusPending: {},
	},
	models.PurchaseStatusRefunded: {
		models.PurchaseStatusDisputed: {},
	},
	models.PurchaseStatusDisputed: {
		models.PurchaseStatusCompleted: {},
		models.PurchaseStatusRefunded:  {},
	},
}

// CanTransition reports whether from -> to is in the transition table
func CanTransition(from, to models.PurchaseStatus) bool {
	_, ok := transitions[from][to]
	return ok
}

// AllowedTransitions returns the statuses reachable from the given one, sorted
func AllowedTransitions(from models.PurchaseStatus) []models.PurchaseStatus {
	next := make([]models.PurchaseStatus, 0, len(transitions[from]))
	for status := range transitions[from] {
		next = append(next, status)
	}
	sort.Slice(next, func(i, j int) bool { return next[i] < next[j] })
	return next
}

// Transition moves p to the new status, recording the reason and timestamps.
// It is the only sanctioned way to change Purchase.Status after creation.
func Transition(p *models.Purchase, to models.PurchaseStatus, reason string, now time.Time) error {
	if !CanTransition(p.Status, to) {
		return fmt.Errorf("%w: %s -> %s", models.ErrInvalidTransition, p.Status, to)
	}
	if strings.TrimSpace(reason) == "" {
		return models.ErrMissingReason
	}

	p.Status = to
	p.StatusChangedAt = now
	p.StatusReason = reason
	p.UpdatedAt = now
	return nil
}

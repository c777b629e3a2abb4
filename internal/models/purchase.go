package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PurchaseStatus is the lifecycle state of a purchase
type PurchaseStatus string

const (
	PurchaseStatusPending    PurchaseStatus = "pending"
	PurchaseStatusProcessing PurchaseStatus = "processing"
	PurchaseStatusCompleted  PurchaseStatus = "completed"
	PurchaseStatusFailed     PurchaseStatus = "failed"
	PurchaseStatusRefunded   PurchaseStatus = "refunded"
	PurchaseStatusDisputed   PurchaseStatus = "disputed"
)

// PurchaseStatuses lists every status in declaration order
var PurchaseStatuses = []PurchaseStatus{
	PurchaseStatusPending,
	PurchaseStatusProcessing,
	PurchaseStatusCompleted,
	PurchaseStatusFailed,
	PurchaseStatusRefunded,
	PurchaseStatusDisputed,
}

func (s PurchaseStatus) Valid() bool {
	for _, status := range PurchaseStatuses {
		if s == status {
			return true
		}
	}
	return false
}

func (s PurchaseStatus) String() string { return string(s) }

// Purchase is a single payment transaction tracked through its lifecycle.
// Status is only changed through purchase.Transition.
type Purchase struct {
	Id              uuid.UUID          `db:"id"`
	UserId          uuid.UUID          `db:"user_id"`
	Amount          decimal.Decimal    `db:"amount"`
	Currency        string             `db:"currency"`
	PaymentIntentId string             `db:"payment_intent_id"`
	Status          PurchaseStatus     `db:"status"`
	Metadata        map[string]string  `db:"metadata"`
	Collaborative   *CollaborativeData `db:"collaborative_data"`
	StatusReason    string             `db:"status_reason"`
	CreatedAt       time.Time          `db:"created_at"`
	UpdatedAt       time.Time          `db:"updated_at"`
	StatusChangedAt time.Time          `db:"status_changed_at"`
}

// CollaborativeData describes a purchase made for a shared wishlist
type CollaborativeData struct {
	SharedUsers       []uuid.UUID `json:"shared_users"`
	SharedItems       []string    `json:"shared_items"`
	TotalParticipants int         `json:"total_participants"`
	SharingEnabled    bool        `json:"sharing_enabled"`
}

// RedactedValue replaces sensitive metadata values at every outward boundary
const RedactedValue = "******"

var sensitiveTerms = []string{"card", "cvv", "password", "secret"}

// SanitizeMetadata returns a copy of metadata with values of sensitive keys masked
func SanitizeMetadata(metadata map[string]string) map[string]string {
	sanitized := make(map[string]string, len(metadata))
	for k, v := range metadata {
		if isSensitiveKey(k) {
			sanitized[k] = RedactedValue
			continue
		}
		sanitized[k] = v
	}
	return sanitized
}

func isSensitiveKey(key string) bool {
	lower := strings.ToLower(key)
	for _, term := range sensitiveTerms {
		if strings.Contains(lower, term) {
			return true
		}
	}
	return false
}

// CollaborativeSummary is the outward view of CollaborativeData: ids, counts and flags only
type CollaborativeSummary struct {
	SharedUsers       []string `json:"shared_users"`
	SharedItems       []string `json:"shared_items"`
	TotalParticipants int      `json:"total_participants"`
	SharingEnabled    bool     `json:"sharing_enabled"`
}

// Summary returns the sanitized view, or nil when there is nothing to expose
func (c *CollaborativeData) Summary() *CollaborativeSummary {
	if c == nil {
		return nil
	}
	users := make([]string, 0, len(c.SharedUsers))
	for _, id := range c.SharedUsers {
		users = append(users, id.String())
	}
	items := make([]string, len(c.SharedItems))
	copy(items, c.SharedItems)
	return &CollaborativeSummary{
		SharedUsers:       users,
		SharedItems:       items,
		TotalParticipants: c.TotalParticipants,
		SharingEnabled:    c.SharingEnabled,
	}
}

package models

import "errors"

// Domain error taxonomy. Wrap with fmt.Errorf("%w: ...") and test with errors.Is.
var (
	ErrInvalidInput         = errors.New("invalid input")
	ErrNotFound             = errors.New("not found")
	ErrInvalidTransition    = errors.New("invalid status transition")
	ErrMissingReason        = errors.New("status change reason is required")
	ErrVersionConflict      = errors.New("version conflict")
	ErrSignatureInvalid     = errors.New("signature verification failed")
	ErrDuplicateItem        = errors.New("item already exists in wishlist")
	ErrItemLimitExceeded    = errors.New("wishlist item limit exceeded")
	ErrShareLimitExceeded   = errors.New("wishlist share limit exceeded")
	ErrNotRefundable        = errors.New("purchase is not eligible for refund")
	ErrProcessorUnavailable = errors.New("payment processor unavailable")
	ErrPersistence          = errors.New("persistence failure")
)

package store

import (
	"testing"
)

// Compile-time checks that the interface is importable and usable.
func TestCommerceStoreInterfaceExists(t *testing.T) {
	_ = ErrNotFound
	_ = ErrDuplicateReference
	_ = ErrConcurrentModification

	var fn PurchaseMutation = nil
	_ = fn

	var _ CommerceStore
}

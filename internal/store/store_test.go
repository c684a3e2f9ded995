package store

import (
	"testing"
)

// Compile-time checks that the interface is importable and usable.
func TestRequestStoreInterfaceExists(t *testing.T) {
	// This test simply validates that the RequestStore interface compiles
	// and the sentinel errors are accessible.
	_ = ErrDuplicateTransaction
	_ = ErrConcurrentModification
	_ = ErrRequestNotFound
	_ = ErrUserNotFound
	_ = ErrPendingRequestExists
	_ = CreateRequestParams{}
	_ = CreditParams{}

	// Ensure the interface is non-nil type.
	var _ RequestStore
}

package domain

import "errors"

// Error taxonomy shared by the fulfillment services. Repositories map store
// errors onto these sentinels; callers classify with errors.Is.
var (
	// ErrInvalidArgument rejects bad input (negative quantity, mismatched ids).
	ErrInvalidArgument = errors.New("invalid argument")
	// ErrNotFound marks a missing product, cart line or demand row.
	ErrNotFound = errors.New("not found")
	// ErrConflict marks a failed precondition, e.g. insufficient stock or an
	// already-shipped order.
	ErrConflict = errors.New("conflict")
	// ErrStoreUnavailable marks an unreachable or failing backing store.
	ErrStoreUnavailable = errors.New("store unavailable")
)

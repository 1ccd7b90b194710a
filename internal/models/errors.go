package models

import "errors"

// Error taxonomy surfaced by the order lifecycle engine. Handlers map these
// to HTTP statuses with errors.Is; repositories wrap store failures in
// ErrStoreUnavailable so callers can tell transient faults from bad input.
var (
	// ErrKitchenSaturated rejects new orders while the kitchen is at the
	// admission-control limit. Not retryable until load drops.
	ErrKitchenSaturated = errors.New("kitchen is saturated, order admission refused")

	// ErrTableOccupied rejects a new order for a table that still has an
	// order on the floor (not yet served and paid).
	ErrTableOccupied = errors.New("table already has an active order")

	// ErrInvalidTransition signals a disallowed item-status change.
	ErrInvalidTransition = errors.New("invalid item status transition")

	// ErrNotFound signals a missing order, item index or product.
	ErrNotFound = errors.New("not found")

	// ErrOrderActive blocks physical deletion of orders that are not yet
	// served and paid.
	ErrOrderActive = errors.New("order is still active")

	// ErrVersionConflict signals a lost compare-and-swap; the caller
	// re-fetches and re-applies.
	ErrVersionConflict = errors.New("order was modified concurrently")

	// ErrStoreUnavailable wraps transient data-store failures.
	ErrStoreUnavailable = errors.New("data store unavailable")
)

package venue

import "errors"

var (
	// ErrEmptyBook marks a cycle that must be skipped, not a fault.
	ErrEmptyBook = errors.New("order book is empty")

	// ErrOrderRejected wraps venue-side rejections of place or cancel
	// requests. The tracker reverts and the next cycle retries.
	ErrOrderRejected = errors.New("order rejected")

	// ErrNotConnected is returned by operations invoked before Connect or
	// after the adapter lost its session.
	ErrNotConnected = errors.New("venue not connected")
)

package services

import "errors"

// Sentinel errors returned by the service layer. Route handlers map these to
// HTTP status codes; callers compare with errors.Is.
var (
	// ErrNotFound means the requested record does not exist or is not
	// visible to the caller.
	ErrNotFound = errors.New("record not found")

	// ErrValidation means the input failed a domain validation rule.
	ErrValidation = errors.New("validation failed")

	// ErrForbidden means the authenticated user does not own the record
	// or lacks the role required by the operation.
	ErrForbidden = errors.New("operation not allowed for this user")

	// ErrInvalidState means the record exists but its current state does
	// not permit the requested operation. Nothing was mutated.
	ErrInvalidState = errors.New("operation not allowed in current state")

	// ErrInvalidTransition means the requested order status change is not
	// in the transition table.
	ErrInvalidTransition = errors.New("illegal status transition")

	// ErrAlreadyDecided means a concurrent, equivalent decision already
	// settled the record. The outcome the caller wanted exists; the caller
	// just lost the race to produce it.
	ErrAlreadyDecided = errors.New("already decided by a concurrent request")

	// ErrDuplicateQuote means the provider already has a pending quote on
	// the order.
	ErrDuplicateQuote = errors.New("pending quote already exists for this order")

	// ErrUpstreamUnavailable means an external dependency (payment
	// gateway, media storage) failed.
	ErrUpstreamUnavailable = errors.New("upstream service unavailable")
)

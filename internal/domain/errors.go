package domain

import "errors"

// Sentinel errors for domain-level error discrimination.
// Services wrap these so handlers can map to HTTP status codes without leaking infrastructure details.
var (
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("conflict")
	ErrUnauthorized = errors.New("unauthorized")
	ErrBadRequest   = errors.New("bad request")

	// ErrTimeout is returned by the publisher when the resolution deadline
	// elapses with the request still pending.
	ErrTimeout = errors.New("verification timed out")

	// ErrRejected is returned by the publisher when an operator rejected
	// the request instead of supplying a code.
	ErrRejected = errors.New("verification rejected")

	// ErrChallengeRequired is raised by the browser driver when the
	// platform interposes an out-of-band verification challenge.
	ErrChallengeRequired = errors.New("verification challenge required")
)

// Package errs contains sentinel errors used across layers for stable error mapping.
package errs

import "errors"

// Common sentinels across repo/service layers. The HTTP layer maps
// them to status codes exactly once; lower layers only wrap them.
var (
	// ErrInvalidArgument indicates a caller-fixable input problem.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrUnauthenticated indicates a missing credential.
	ErrUnauthenticated = errors.New("unauthenticated")

	// ErrMalformedCredential indicates a credential with the wrong scheme or shape.
	ErrMalformedCredential = errors.New("malformed credential")

	// ErrCredentialExpired indicates an expired credential.
	ErrCredentialExpired = errors.New("credential expired")

	// ErrCredentialInvalid indicates a credential that failed verification.
	ErrCredentialInvalid = errors.New("credential invalid")

	// ErrForbidden indicates an ownership mismatch.
	ErrForbidden = errors.New("forbidden")

	// ErrNotFound indicates the referenced resource does not exist.
	ErrNotFound = errors.New("not found")

	// ErrConflict indicates a duplicate or illegal state transition (e.g. double-like).
	ErrConflict = errors.New("conflict")
)

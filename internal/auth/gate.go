// Package auth verifies bearer credentials and ownership of resources.
package auth

import (
	"net/http"
	"strings"

	"github.com/gofrs/uuid/v5"

	"github.com/DaH-115/ticketeer/internal/errs"
)

// Gate resolves a principal from an incoming request's credential.
// It performs no I/O beyond delegating to the verifier.
type Gate struct {
	verifier CredentialVerifier
}

// NewGate constructs a Gate around a credential verifier.
func NewGate(verifier CredentialVerifier) *Gate {
	return &Gate{verifier: verifier}
}

// VerifyCredential extracts "Authorization: Bearer <token>" and delegates
// verification. Failure kinds:
//   - no header: ErrUnauthenticated
//   - wrong scheme or empty token: ErrMalformedCredential
//   - expired: ErrCredentialExpired (mapped by the verifier)
//   - anything else: ErrCredentialInvalid
func (g *Gate) VerifyCredential(r *http.Request) (uuid.UUID, error) {
	header := strings.TrimSpace(r.Header.Get("Authorization"))
	if header == "" {
		return uuid.Nil, errs.ErrUnauthenticated
	}
	scheme, token, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return uuid.Nil, errs.ErrMalformedCredential
	}
	token = strings.TrimSpace(token)
	if token == "" {
		return uuid.Nil, errs.ErrMalformedCredential
	}
	return g.verifier.Verify(r.Context(), token)
}

// CheckOwnership succeeds iff the principal is the resource owner. The
// owner must come from the stored resource, never from the request body.
func CheckOwnership(principal, owner uuid.UUID) error {
	if principal != owner {
		return errs.ErrForbidden
	}
	return nil
}

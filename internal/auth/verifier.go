package auth

import (
	"context"
	"errors"
	"time"

	"github.com/gofrs/uuid/v5"
	"github.com/golang-jwt/jwt/v5"

	"github.com/DaH-115/ticketeer/internal/errs"
)

// CredentialVerifier checks an already-issued credential and resolves the
// principal id. Issuing credentials is the identity provider's job, not ours.
type CredentialVerifier interface {
	Verify(ctx context.Context, token string) (uuid.UUID, error)
}

// JWTVerifier verifies HS256-signed JWTs whose subject is the user id.
type JWTVerifier struct {
	signKey []byte
}

// NewJWTVerifier constructs a verifier with the shared signing key.
func NewJWTVerifier(signKey []byte) *JWTVerifier {
	return &JWTVerifier{signKey: signKey}
}

// Verify parses and validates the token, mapping expiry to
// ErrCredentialExpired and every other verification failure to
// ErrCredentialInvalid.
func (v *JWTVerifier) Verify(_ context.Context, token string) (uuid.UUID, error) {
	var claims jwt.RegisteredClaims
	parsed, err := jwt.ParseWithClaims(token, &claims, func(t *jwt.Token) (any, error) {
		if t.Method != jwt.SigningMethodHS256 {
			return nil, errors.New("unexpected signing method")
		}
		return v.signKey, nil
	}, jwt.WithLeeway(30*time.Second))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return uuid.Nil, errs.ErrCredentialExpired
		}
		return uuid.Nil, errs.ErrCredentialInvalid
	}
	if !parsed.Valid {
		return uuid.Nil, errs.ErrCredentialInvalid
	}
	id, err := uuid.FromString(claims.Subject)
	if err != nil {
		return uuid.Nil, errs.ErrCredentialInvalid
	}
	return id, nil
}

// Package httpapi exposes the engagement HTTP API.
package httpapi

import (
	"context"

	"github.com/gofrs/uuid/v5"
)

type ctxKey string

const principalKey ctxKey = "ticketeer.principal"

// WithPrincipal stores the authenticated principal id in context.
func WithPrincipal(ctx context.Context, id uuid.UUID) context.Context {
	return context.WithValue(ctx, principalKey, id)
}

// PrincipalFromCtx fetches the principal id from context.
func PrincipalFromCtx(ctx context.Context) (uuid.UUID, bool) {
	v := ctx.Value(principalKey)
	if v == nil {
		return uuid.Nil, false
	}
	id, ok := v.(uuid.UUID)
	return id, ok
}

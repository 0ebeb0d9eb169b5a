// Package identity resolves the authenticated principal for each request.
//
// Authentication itself is delegated to the external auth provider; this
// package only verifies the provider-issued access token and exposes the
// subject id and email it carries.
package identity

import (
	"context"

	"github.com/google/uuid"
)

// Identity describes the authenticated principal for a request.
type Identity struct {
	ID    uuid.UUID
	Email string
}

// IsZero reports whether no identity was resolved.
func (i Identity) IsZero() bool {
	return i.ID == uuid.Nil
}

type identityContextKey struct{}

// ContextWithIdentity stores the identity in context.
func ContextWithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, identityContextKey{}, id)
}

// FromContext extracts the identity from context. The zero Identity is
// returned for unauthenticated requests.
func FromContext(ctx context.Context) Identity {
	id, _ := ctx.Value(identityContextKey{}).(Identity)
	return id
}

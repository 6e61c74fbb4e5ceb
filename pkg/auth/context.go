package auth

import "context"

// identityKey is a private type for the identity context key.
type identityKey struct{}

// ContextWithIdentity returns a copy of ctx carrying the authenticated identity.
// A nil identity leaves ctx unchanged.
func ContextWithIdentity(ctx context.Context, id *Identity) context.Context {
	if id == nil {
		return ctx
	}
	return context.WithValue(ctx, identityKey{}, id)
}

// IdentityFromContext retrieves the authenticated identity.
// Returns nil if the request never passed the token filter.
func IdentityFromContext(ctx context.Context) *Identity {
	if v, ok := ctx.Value(identityKey{}).(*Identity); ok {
		return v
	}
	return nil
}

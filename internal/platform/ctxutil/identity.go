package ctxutil

import "context"

type identityKey struct{}

// Identity is the caller as declared by the request headers. PCMM trusts the
// deployment's reverse proxy for authentication.
type Identity struct {
	User string
	Role string
}

func WithIdentity(ctx context.Context, id *Identity) context.Context {
	return context.WithValue(ctx, identityKey{}, id)
}

func GetIdentity(ctx context.Context) *Identity {
	if id, ok := ctx.Value(identityKey{}).(*Identity); ok {
		return id
	}
	return nil
}

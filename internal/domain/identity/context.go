package identity

import "context"

type ctxKey int

const identityKey ctxKey = 1

func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, identityKey, id)
}

// FromContext never fails; a context without an identity yields the anonymous one.
func FromContext(ctx context.Context) Identity {
	id, ok := ctx.Value(identityKey).(Identity)
	if !ok {
		return Anonymous()
	}
	return id
}

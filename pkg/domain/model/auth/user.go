package auth

import "context"

// UserID identifies the caller of a use case
type UserID string

func (id UserID) String() string {
	return string(id)
}

type ctxUserKey struct{}

// ContextWithUser returns a context carrying the caller identity
func ContextWithUser(ctx context.Context, userID UserID) context.Context {
	return context.WithValue(ctx, ctxUserKey{}, userID)
}

// UserFromContext returns the caller identity stored in ctx.
// ok is false when no identity (or an empty one) is present.
func UserFromContext(ctx context.Context) (UserID, bool) {
	userID, ok := ctx.Value(ctxUserKey{}).(UserID)
	if !ok || userID == "" {
		return "", false
	}
	return userID, true
}

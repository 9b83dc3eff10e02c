package tools

import "context"

type callerKey struct{}

// WithCaller returns a context carrying the authenticated caller identity.
func WithCaller(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, callerKey{}, userID)
}

// CallerFromContext extracts the caller identity placed by WithCaller.
func CallerFromContext(ctx context.Context) (string, bool) {
	userID, ok := ctx.Value(callerKey{}).(string)
	if !ok || userID == "" {
		return "", false
	}
	return userID, true
}

package reqctx

import "context"

type contextKey int

const (
	usernameKey contextKey = iota
	roleKey
	clientIPKey
)

// WithIdentity stores the authenticated principal on the context.
func WithIdentity(ctx context.Context, username, role string) context.Context {
	ctx = context.WithValue(ctx, usernameKey, username)
	return context.WithValue(ctx, roleKey, role)
}

// Username returns the authenticated username, or "" on unauthenticated
// requests.
func Username(ctx context.Context) string {
	s, _ := ctx.Value(usernameKey).(string)
	return s
}

// Role returns the authenticated role, prefix included, or "".
func Role(ctx context.Context) string {
	s, _ := ctx.Value(roleKey).(string)
	return s
}

func WithClientIP(ctx context.Context, ip string) context.Context {
	return context.WithValue(ctx, clientIPKey, ip)
}

func ClientIP(ctx context.Context) string {
	s, _ := ctx.Value(clientIPKey).(string)
	return s
}

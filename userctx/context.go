package userctx

import "context"

// Context key type
type contextKey string

const principalKey contextKey = "principal"

// Principal is the verified identity attached to an authenticated request.
type Principal struct {
	Subject  string
	Email    string
	Provider string
}

// WithPrincipal returns a context carrying the authenticated principal.
func WithPrincipal(ctx context.Context, p Principal) context.Context {
	return context.WithValue(ctx, principalKey, p)
}

// PrincipalFrom retrieves the authenticated principal from the context.
func PrincipalFrom(ctx context.Context) (Principal, bool) {
	p, ok := ctx.Value(principalKey).(Principal)
	return p, ok
}

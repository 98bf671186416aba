// Package context carries request-scoped values: the authenticated
// principal and the trace identifiers.
package context

import "context"

// UserContext is the authenticated principal, as established by the auth
// middleware. The domain trusts these fields.
type UserContext struct {
	UserID string
	Role   string
	Email  string
	Name   string
}

type userKey struct{}

// WithUser stores the principal in the context.
func WithUser(ctx context.Context, user *UserContext) context.Context {
	return context.WithValue(ctx, userKey{}, user)
}

// GetUser returns the principal, or nil for unauthenticated contexts.
func GetUser(ctx context.Context) *UserContext {
	u, _ := ctx.Value(userKey{}).(*UserContext)
	return u
}

// GetUserID returns the principal's ID, or "" when unauthenticated.
func GetUserID(ctx context.Context) string {
	if u := GetUser(ctx); u != nil {
		return u.UserID
	}
	return ""
}

// GetRole returns the principal's role, or "" when unauthenticated.
func GetRole(ctx context.Context) string {
	if u := GetUser(ctx); u != nil {
		return u.Role
	}
	return ""
}

// HasRole reports whether the principal holds the given role.
func HasRole(ctx context.Context, role string) bool {
	u := GetUser(ctx)
	return u != nil && u.Role == role
}

// Package appctx carries request-scoped identity and tracing data.
package appctx

import (
	"context"
)

type traceKey struct{}
type userKey struct{}

// Trace holds request correlation identifiers.
type Trace struct {
	TraceID   string
	RequestID string
}

// User identifies the authenticated caller.
type User struct {
	UserID string
	Email  string
	Role   string
}

// WithTrace stores trace info in context.
func WithTrace(ctx context.Context, t *Trace) context.Context {
	return context.WithValue(ctx, traceKey{}, t)
}

// GetTrace returns trace info from context, or nil.
func GetTrace(ctx context.Context) *Trace {
	if t, ok := ctx.Value(traceKey{}).(*Trace); ok {
		return t
	}
	return nil
}

// WithUser stores the authenticated user in context.
func WithUser(ctx context.Context, u *User) context.Context {
	return context.WithValue(ctx, userKey{}, u)
}

// GetUser returns the authenticated user from context, or nil.
func GetUser(ctx context.Context) *User {
	if u, ok := ctx.Value(userKey{}).(*User); ok {
		return u
	}
	return nil
}

// GetUserID returns the authenticated user's ID, or "" when anonymous.
func GetUserID(ctx context.Context) string {
	if u := GetUser(ctx); u != nil {
		return u.UserID
	}
	return ""
}

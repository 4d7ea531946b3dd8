// Package identity carries the acting user through a request context.
package identity

import (
	"context"
	"strings"
)

type contextKey struct{}

// System is the identity used when no user is attached, e.g. by the CLI
// or the delivery worker.
var System = User{ID: "system", Name: "Sistema"}

// User identifies who triggered an operation.
type User struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// DisplayName returns Name, falling back to ID.
func (u User) DisplayName() string {
	if strings.TrimSpace(u.Name) != "" {
		return u.Name
	}
	return u.ID
}

// WithUser returns a copy of ctx carrying u.
func WithUser(ctx context.Context, u User) context.Context {
	return context.WithValue(ctx, contextKey{}, u)
}

// FromContext returns the user stored in ctx, or System when none is set.
func FromContext(ctx context.Context) User {
	if u, ok := ctx.Value(contextKey{}).(User); ok && u.ID != "" {
		return u
	}
	return System
}

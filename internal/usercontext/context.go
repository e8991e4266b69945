// Package usercontext carries the authenticated caller through request
// context. Identity is resolved fresh per request; nothing here is shared
// across requests.
package usercontext

import (
	"context"
	"strings"

	"github.com/bwmarrin/snowflake"
)

type userKey struct{}

// Identity is the resolved caller for the current request.
type Identity struct {
	UserID snowflake.ID
	Role   string
}

// WithIdentity stores the caller identity in the context.
func WithIdentity(ctx context.Context, userID snowflake.ID, role string) context.Context {
	return context.WithValue(ctx, userKey{}, Identity{
		UserID: userID,
		Role:   strings.TrimSpace(role),
	})
}

// IdentityFromContext returns the caller identity, if authenticated.
func IdentityFromContext(ctx context.Context) (Identity, bool) {
	if ctx == nil {
		return Identity{}, false
	}
	identity, ok := ctx.Value(userKey{}).(Identity)
	if !ok || identity.UserID == 0 {
		return Identity{}, false
	}
	return identity, true
}

// UserIDFromContext returns the caller's user id, if authenticated.
func UserIDFromContext(ctx context.Context) (snowflake.ID, bool) {
	identity, ok := IdentityFromContext(ctx)
	if !ok {
		return 0, false
	}
	return identity.UserID, true
}

// HasRole reports whether the caller holds the given role.
func HasRole(ctx context.Context, role string) bool {
	identity, ok := IdentityFromContext(ctx)
	if !ok {
		return false
	}
	return strings.EqualFold(identity.Role, strings.TrimSpace(role))
}

// Package shared holds cross-cutting helpers used by every domain module.
package shared

import "context"

// Role names as stored on users and embedded in access tokens.
const (
	RoleAdmin  = "admin"
	RoleMember = "member"
)

// Identity is the resolved caller: tenant, user and role extracted from the
// access token. Every repository query scopes by TenantID.
type Identity struct {
	TenantID int64
	UserID   int64
	Role     string
}

// IsAdmin reports whether the caller holds the admin role.
func (id Identity) IsAdmin() bool {
	return id.Role == RoleAdmin
}

type identityContextKey struct{}

// ContextWithIdentity stores the resolved identity in context.
func ContextWithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, identityContextKey{}, id)
}

// IdentityFromContext extracts the identity from context. The zero Identity
// (TenantID 0) means the request was not authenticated.
func IdentityFromContext(ctx context.Context) Identity {
	id, _ := ctx.Value(identityContextKey{}).(Identity)
	return id
}

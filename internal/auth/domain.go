// Package auth implements login, access tokens and tenant resolution.
package auth

import (
	"errors"
	"time"
)

// User is an account scoped to a tenant.
type User struct {
	ID           int64
	TenantID     int64
	Email        string
	Name         string
	Role         string
	PasswordHash string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// ErrTokenInvalid covers expired, malformed or badly signed tokens.
var ErrTokenInvalid = errors.New("auth: token invalid")

// ErrUserDisabled indicates a deactivated account.
var ErrUserDisabled = errors.New("auth: user disabled")

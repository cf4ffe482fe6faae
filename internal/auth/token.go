package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/byggbas/byggbas/internal/shared"
)

// Claims carries the tenant scoping information inside the access token.
// TenantID is the single source of truth for row isolation; handlers never
// accept a tenant identifier from the request body.
type Claims struct {
	TenantID int64  `json:"tid"`
	Role     string `json:"role"`
	jwt.RegisteredClaims
}

// TokenManager signs and verifies HS256 access tokens.
type TokenManager struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewTokenManager constructs a TokenManager.
func NewTokenManager(secret string, ttl time.Duration) *TokenManager {
	return &TokenManager{secret: []byte(secret), ttl: ttl, now: time.Now}
}

// WithNow overrides the clock for deterministic tests.
func (m *TokenManager) WithNow(now func() time.Time) {
	if now != nil {
		m.now = now
	}
}

// Issue creates a signed token for the user.
func (m *TokenManager) Issue(user User) (string, error) {
	if user.ID == 0 || user.TenantID == 0 {
		return "", errors.New("auth: user and tenant required for token")
	}
	now := m.now()
	claims := Claims{
		TenantID: user.TenantID,
		Role:     user.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   fmt.Sprintf("%d", user.ID),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.ttl)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(m.secret)
}

// Verify parses the token and returns the resolved identity.
func (m *TokenManager) Verify(raw string) (shared.Identity, error) {
	var claims Claims
	token, err := jwt.ParseWithClaims(raw, &claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("auth: unexpected signing method %v", t.Header["alg"])
		}
		return m.secret, nil
	}, jwt.WithTimeFunc(m.now))
	if err != nil || !token.Valid {
		return shared.Identity{}, ErrTokenInvalid
	}

	var userID int64
	if _, err := fmt.Sscanf(claims.Subject, "%d", &userID); err != nil {
		return shared.Identity{}, ErrTokenInvalid
	}
	if claims.TenantID == 0 || userID == 0 {
		return shared.Identity{}, ErrTokenInvalid
	}
	return shared.Identity{TenantID: claims.TenantID, UserID: userID, Role: claims.Role}, nil
}

package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestTokenRoundTripCarriesTenantAndRole(t *testing.T) {
	mgr := NewTokenManager("test-secret", time.Hour)

	token, err := mgr.Issue(User{ID: 42, TenantID: 7, Role: "admin"})
	require.NoError(t, err)

	identity, err := mgr.Verify(token)
	require.NoError(t, err)
	require.Equal(t, int64(7), identity.TenantID)
	require.Equal(t, int64(42), identity.UserID)
	require.Equal(t, "admin", identity.Role)
	require.True(t, identity.IsAdmin())
}

func TestTokenExpiryRejected(t *testing.T) {
	mgr := NewTokenManager("test-secret", time.Minute)
	issued := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	mgr.WithNow(func() time.Time { return issued })

	token, err := mgr.Issue(User{ID: 1, TenantID: 1, Role: "member"})
	require.NoError(t, err)

	mgr.WithNow(func() time.Time { return issued.Add(2 * time.Minute) })
	_, err = mgr.Verify(token)
	require.ErrorIs(t, err, ErrTokenInvalid)
}

func TestTokenWrongSecretRejected(t *testing.T) {
	issuer := NewTokenManager("secret-a", time.Hour)
	verifier := NewTokenManager("secret-b", time.Hour)

	token, err := issuer.Issue(User{ID: 1, TenantID: 1, Role: "member"})
	require.NoError(t, err)

	_, err = verifier.Verify(token)
	require.ErrorIs(t, err, ErrTokenInvalid)
}

func TestTokenWithoutTenantRejected(t *testing.T) {
	mgr := NewTokenManager("test-secret", time.Hour)
	_, err := mgr.Issue(User{ID: 1})
	require.Error(t, err)
}

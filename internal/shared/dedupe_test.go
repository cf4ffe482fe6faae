package shared

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

func newTestRedis(t *testing.T) *redis.Client {
	t.Helper()
	mr := miniredis.RunT(t)
	return redis.NewClient(&redis.Options{Addr: mr.Addr()})
}

func TestDedupeStoreClaimOncePerWindow(t *testing.T) {
	store := NewDedupeStore(newTestRedis(t), time.Minute)
	ctx := context.Background()

	require.NoError(t, store.Claim(ctx, 1, "req-abc"))
	require.ErrorIs(t, store.Claim(ctx, 1, "req-abc"), ErrDuplicateRequest)

	// A different tenant may reuse the same key.
	require.NoError(t, store.Claim(ctx, 2, "req-abc"))
}

func TestDedupeStoreReleaseAllowsRetry(t *testing.T) {
	store := NewDedupeStore(newTestRedis(t), time.Minute)
	ctx := context.Background()

	require.NoError(t, store.Claim(ctx, 1, "req-xyz"))
	require.NoError(t, store.Release(ctx, 1, "req-xyz"))
	require.NoError(t, store.Claim(ctx, 1, "req-xyz"))
}

func TestDedupeStoreEmptyKeyRejected(t *testing.T) {
	store := NewDedupeStore(newTestRedis(t), time.Minute)
	require.Error(t, store.Claim(context.Background(), 1, ""))
}

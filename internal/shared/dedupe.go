package shared

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrDuplicateRequest indicates the idempotency key was already seen inside
// the dedupe window.
var ErrDuplicateRequest = errors.New("request already processed")

// DedupeStore tracks recently seen idempotency keys in Redis with a TTL.
// Instances are constructed explicitly and injected; there is no package
// level cache state.
type DedupeStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewDedupeStore constructs a DedupeStore with the supplied window.
func NewDedupeStore(client *redis.Client, ttl time.Duration) *DedupeStore {
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	return &DedupeStore{client: client, ttl: ttl}
}

// Claim registers the key for the tenant. The first caller wins; repeated
// claims inside the TTL window return ErrDuplicateRequest.
func (s *DedupeStore) Claim(ctx context.Context, tenantID int64, key string) error {
	if s == nil || s.client == nil {
		return nil
	}
	if key == "" {
		return errors.New("dedupe key required")
	}
	ok, err := s.client.SetNX(ctx, s.redisKey(tenantID, key), 1, s.ttl).Result()
	if err != nil {
		return err
	}
	if !ok {
		return ErrDuplicateRequest
	}
	return nil
}

// Release drops a claimed key so a failed mutation can be retried before the
// TTL expires.
func (s *DedupeStore) Release(ctx context.Context, tenantID int64, key string) error {
	if s == nil || s.client == nil || key == "" {
		return nil
	}
	return s.client.Del(ctx, s.redisKey(tenantID, key)).Err()
}

func (s *DedupeStore) redisKey(tenantID int64, key string) string {
	return "dedupe:" + formatInt(tenantID) + ":" + key
}

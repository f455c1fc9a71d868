// Package revoke remembers users whose bearer tokens are no longer valid.
// Tokens carry no expiry, so revocation is keyed by user rather than token.
package revoke

import (
	"context"
	"sync"

	"github.com/redis/go-redis/v9"
)

const keyPrefix = "jwt:revoked:user:"

type Store interface {
	Revoke(ctx context.Context, userID string) error
	IsRevoked(ctx context.Context, userID string) (bool, error)
}

// RedisStore shares revocations between instances.
type RedisStore struct {
	rdb redis.Cmdable
}

func NewRedisStore(rdb redis.Cmdable) *RedisStore {
	return &RedisStore{rdb: rdb}
}

func (s *RedisStore) Revoke(ctx context.Context, userID string) error {
	return s.rdb.Set(ctx, keyPrefix+userID, 1, 0).Err()
}

func (s *RedisStore) IsRevoked(ctx context.Context, userID string) (bool, error) {
	n, err := s.rdb.Exists(ctx, keyPrefix+userID).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// LocalStore is used when redis is not configured.
type LocalStore struct {
	mu      sync.RWMutex
	revoked map[string]struct{}
}

func NewLocalStore() *LocalStore {
	return &LocalStore{revoked: make(map[string]struct{})}
}

func (s *LocalStore) Revoke(_ context.Context, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.revoked[userID] = struct{}{}
	return nil
}

func (s *LocalStore) IsRevoked(_ context.Context, userID string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.revoked[userID]
	return ok, nil
}

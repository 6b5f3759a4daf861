package cart

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

const redisKeyPrefix = "cart:"

// RedisSessionStore keeps cart blobs server-side, keyed by session id.
type RedisSessionStore struct {
	client *redis.Client
}

func NewRedisSessionStore(client *redis.Client) *RedisSessionStore {
	return &RedisSessionStore{client: client}
}

func (s *RedisSessionStore) Get(ctx context.Context, sessionID string) ([]byte, error) {
	blob, err := s.client.Get(ctx, redisKeyPrefix+sessionID).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return blob, nil
}

func (s *RedisSessionStore) Put(ctx context.Context, sessionID string, blob []byte, ttl time.Duration) error {
	return s.client.Set(ctx, redisKeyPrefix+sessionID, blob, ttl).Err()
}

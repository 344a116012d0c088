package cartstore

import (
	"context"
	"errors"
	"time"

	"restaurant/internal/cart"

	"github.com/redis/go-redis/v9"
)

// RedisSnapshotStore はカートのスナップショットをRedisに置く。
// キーごとに TTL を付け直すので、触られないカートは自然に消える。
type RedisSnapshotStore struct {
	client *redis.Client
	ttl    time.Duration
}

// DI
func NewRedisSnapshotStore(client *redis.Client, ttl time.Duration) *RedisSnapshotStore {
	return &RedisSnapshotStore{client: client, ttl: ttl}
}

func (s *RedisSnapshotStore) Load(ctx context.Context, key string) ([]byte, error) {
	b, err := s.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, cart.ErrSnapshotNotFound
	}
	if err != nil {
		return nil, err
	}
	return b, nil
}

// ttl<=0 なら期限なし
func (s *RedisSnapshotStore) Save(ctx context.Context, key string, data []byte) error {
	return s.client.Set(ctx, key, data, s.ttl).Err()
}

var _ cart.SnapshotStore = (*RedisSnapshotStore)(nil)

package linkcode

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

type RedisStore struct {
	rdb    *redis.Client
	prefix string
}

func NewRedisStore(rdb *redis.Client, prefix string) *RedisStore {
	if prefix == "" {
		prefix = "slotswapper:linkcode"
	}
	return &RedisStore{rdb: rdb, prefix: strings.Trim(prefix, ":")}
}

func (s *RedisStore) key(code string) string {
	return s.prefix + ":" + code
}

func (s *RedisStore) Put(ctx context.Context, code string, userID uuid.UUID, ttl time.Duration) (bool, error) {
	return s.rdb.SetNX(ctx, s.key(code), userID.String(), ttl).Result()
}

func (s *RedisStore) Take(ctx context.Context, code string) (uuid.UUID, bool, error) {
	raw, err := s.rdb.GetDel(ctx, s.key(code)).Result()
	if errors.Is(err, redis.Nil) {
		return uuid.Nil, false, nil
	}
	if err != nil {
		return uuid.Nil, false, err
	}

	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, false, nil
	}
	return id, true, nil
}

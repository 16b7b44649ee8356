package flash

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	redis "github.com/redis/go-redis/v9"
)

const redisKeyPrefix = "timeoff:flash:"

type redisStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisStore shares messages between instances behind a load balancer.
func NewRedisStore(client *redis.Client, ttl time.Duration) Store {
	if ttl <= 0 {
		ttl = defaultTTL
	}
	return &redisStore{client: client, ttl: ttl}
}

func (s *redisStore) Put(ctx context.Context, key string, msgs Messages) error {
	existing, err := s.read(ctx, key, false)
	if err != nil {
		return err
	}
	payload, err := json.Marshal(existing.Merge(msgs))
	if err != nil {
		return err
	}
	return s.client.Set(ctx, redisKeyPrefix+key, payload, s.ttl).Err()
}

func (s *redisStore) Take(ctx context.Context, key string) (Messages, error) {
	return s.read(ctx, key, true)
}

func (s *redisStore) read(ctx context.Context, key string, consume bool) (Messages, error) {
	var (
		raw []byte
		err error
	)
	if consume {
		raw, err = s.client.GetDel(ctx, redisKeyPrefix+key).Bytes()
	} else {
		raw, err = s.client.Get(ctx, redisKeyPrefix+key).Bytes()
	}
	if errors.Is(err, redis.Nil) {
		return Messages{}, nil
	}
	if err != nil {
		return Messages{}, err
	}

	var msgs Messages
	if err := json.Unmarshal(raw, &msgs); err != nil {
		return Messages{}, err
	}
	return msgs, nil
}

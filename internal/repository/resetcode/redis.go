package resetcode

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

var consumeScript = redis.NewScript(`
local current = redis.call('GET', KEYS[1])
if current and current == ARGV[1] then
	redis.call('DEL', KEYS[1])
	return 1
end
return 0
`)

type redisStore struct {
	client *redis.Client
}

func NewRedis(client *redis.Client) Store {
	return &redisStore{client: client}
}

func (s *redisStore) Save(ctx context.Context, email, code string, ttl time.Duration) error {
	return s.client.Set(ctx, key(email), code, ttl).Err()
}

func (s *redisStore) Consume(ctx context.Context, email, code string) (bool, error) {
	n, err := consumeScript.Run(ctx, s.client, []string{key(email)}, code).Int()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

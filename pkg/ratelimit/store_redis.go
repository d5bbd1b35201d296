package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

// checkAndIncrementScript compares and increments a window counter in one
// server-side step. The key expires together with its window.
//
// KEYS[1] = window counter key
// ARGV[1] = limit
// ARGV[2] = window length in milliseconds
const checkAndIncrementScript = `
local current = tonumber(redis.call("GET", KEYS[1]) or "0")
local limit = tonumber(ARGV[1])
if current >= limit then
  return {0, current}
end
current = redis.call("INCR", KEYS[1])
if current == 1 then
  redis.call("PEXPIRE", KEYS[1], ARGV[2])
end
return {1, current}
`

// RedisClient is the subset of *redis.Client used by RedisWindowStore.
type RedisClient interface {
	Eval(ctx context.Context, script string, keys []string, args ...interface{}) *redis.Cmd
	Ping(ctx context.Context) *redis.StatusCmd
}

// RedisWindowStore keeps window counters in Redis so that several API
// instances share one budget per client.
type RedisWindowStore struct {
	client RedisClient
	prefix string
}

// NewRedisWindowStore creates a store writing keys under prefix.
func NewRedisWindowStore(client RedisClient, prefix string) *RedisWindowStore {
	if prefix == "" {
		prefix = "blog"
	}
	return &RedisWindowStore{client: client, prefix: prefix}
}

// NewRedisClient parses a redis:// URL and verifies the connection.
func NewRedisClient(ctx context.Context, url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	opts.DialTimeout = 2 * time.Second
	opts.ReadTimeout = 500 * time.Millisecond
	opts.WriteTimeout = 500 * time.Millisecond

	client := redis.NewClient(opts)
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis connection failed: %w", err)
	}
	return client, nil
}

// Name implements WindowStore.
func (s *RedisWindowStore) Name() string {
	return "redis"
}

// Key returns the Redis key of the counter for key in the given window.
func (s *RedisWindowStore) Key(key string, windowStart time.Time) string {
	return fmt.Sprintf("%s:ratelimit:%s:%d", s.prefix, key, windowStart.Unix())
}

// CheckAndIncrement implements WindowStore.
//
// Counters are keyed per window, so a new window always starts from zero
// without an explicit reset.
func (s *RedisWindowStore) CheckAndIncrement(ctx context.Context, key string, windowStart time.Time, window time.Duration, limit int) (bool, int, error) {
	res, err := s.client.Eval(ctx, checkAndIncrementScript,
		[]string{s.Key(key, windowStart)},
		limit, window.Milliseconds(),
	).Result()
	if err != nil {
		return false, 0, fmt.Errorf("redis eval: %w", err)
	}

	values, ok := res.([]interface{})
	if !ok || len(values) != 2 {
		return false, 0, fmt.Errorf("redis eval: unexpected reply %v", res)
	}
	allowed, ok1 := values[0].(int64)
	count, ok2 := values[1].(int64)
	if !ok1 || !ok2 {
		return false, 0, fmt.Errorf("redis eval: unexpected reply %v", res)
	}
	return allowed == 1, int(count), nil
}

// Ping checks connectivity for health probes.
func (s *RedisWindowStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

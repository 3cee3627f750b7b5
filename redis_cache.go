package cfddns

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/go-redis/redis/v8"
)

// DefaultRedisKey is the key used by RedisCache when none is configured.
const DefaultRedisKey = "cfddns:ip"

// RedisCache stores the last published IP under a single Redis key.
// It lets several daemon instances, or a daemon without a writable volume, share one cached value.
type RedisCache struct {
	client redis.Cmdable
	key    string
}

// NewRedisCache wraps an existing client, usually a *redis.Client.
// An empty key selects DefaultRedisKey.
func NewRedisCache(client redis.Cmdable, key string) *RedisCache {
	if key == "" {
		key = DefaultRedisKey
	}
	return &RedisCache{client: client, key: key}
}

// DialRedisCache connects to addr and checks the connection with a PING.
func DialRedisCache(ctx context.Context, addr, password string, db int, key string) (*RedisCache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to Redis at %s: %w", addr, err)
	}
	return NewRedisCache(client, key), nil
}

func (c *RedisCache) location() string {
	addr := "redis"
	if rc, ok := c.client.(*redis.Client); ok {
		addr = rc.Options().Addr
	}
	return fmt.Sprintf("redis://%s/%s", addr, c.key)
}

func (c *RedisCache) Read(ctx context.Context) (string, bool, error) {
	v, err := c.client.Get(ctx, c.key).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, &PersistenceError{Op: "read", Location: c.location(), Err: err}
	}
	return strings.TrimSpace(v), true, nil
}

func (c *RedisCache) Write(ctx context.Context, ip string) error {
	if err := c.client.Set(ctx, c.key, ip, 0).Err(); err != nil {
		return &PersistenceError{Op: "write", Location: c.location(), Err: err}
	}
	return nil
}

func (c *RedisCache) Delete(ctx context.Context) error {
	if err := c.client.Del(ctx, c.key).Err(); err != nil {
		return &PersistenceError{Op: "delete", Location: c.location(), Err: err}
	}
	return nil
}

// Close releases the underlying connection pool, if the client has one.
func (c *RedisCache) Close() error {
	if closer, ok := c.client.(io.Closer); ok {
		return closer.Close()
	}
	return nil
}

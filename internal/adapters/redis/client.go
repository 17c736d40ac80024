package redis

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"

	"wsbsentiment/internal/adapters/config"
	"wsbsentiment/pkg/errors"
)

// Client wraps the go-redis client with JSON helpers and a SETNX lock
type Client struct {
	rdb *redis.Client
}

// NewClient connects and pings
func NewClient(ctx context.Context, cfg config.RedisConfig) (*Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr(),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, errors.Wrapf(err, "ping redis at %s", cfg.Addr())
	}

	return &Client{rdb: rdb}, nil
}

// NewFromRedis wraps an existing client (tests, shared pools)
func NewFromRedis(rdb *redis.Client) *Client {
	return &Client{rdb: rdb}
}

// Client returns the underlying Redis client
func (c *Client) Client() *redis.Client {
	return c.rdb
}

// Close closes the Redis connection
func (c *Client) Close() error {
	return c.rdb.Close()
}

// Health checks Redis connectivity
func (c *Client) Health(ctx context.Context) error {
	return c.rdb.Ping(ctx).Err()
}

// SetJSON stores every value as JSON in one MULTI/EXEC. Nothing is written
// unless all values encode.
func (c *Client) SetJSON(ctx context.Context, values map[string]interface{}, ttl time.Duration) error {
	encoded := make(map[string][]byte, len(values))
	for key, value := range values {
		data, err := json.Marshal(value)
		if err != nil {
			return errors.Wrapf(err, "marshal %s", key)
		}
		encoded[key] = data
	}

	_, err := c.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		for key, data := range encoded {
			pipe.Set(ctx, key, data, ttl)
		}
		return nil
	})
	return err
}

// GetJSON decodes the value at key into dest. A missing key is ErrNotFound.
func (c *Client) GetJSON(ctx context.Context, key string, dest interface{}) error {
	data, err := c.rdb.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return errors.ErrNotFound
	}
	if err != nil {
		return err
	}
	return json.Unmarshal(data, dest)
}

// AcquireLock sets lock:<key> to owner if absent
func (c *Client) AcquireLock(ctx context.Context, key, owner string, ttl time.Duration) (bool, error) {
	return c.rdb.SetNX(ctx, "lock:"+key, owner, ttl).Result()
}

// releaseScript deletes the lock only while it is still held by owner
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// ReleaseLock releases lock:<key> if owner still holds it
func (c *Client) ReleaseLock(ctx context.Context, key, owner string) error {
	return releaseScript.Run(ctx, c.rdb, []string{"lock:" + key}, owner).Err()
}

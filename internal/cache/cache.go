package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// unlockScript deletes the lock key only when it still holds our token.
var unlockScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// Client wraps redis.Client but fails safe by swallowing connectivity errors.
// A nil *Client is valid and behaves like an always-empty cache.
type Client struct {
	client *redis.Client
}

// New creates a new Redis client. An empty addr disables caching.
func New(addr, password string, db int) *Client {
	if addr == "" {
		return nil
	}
	opts := &redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	}
	return &Client{client: redis.NewClient(opts)}
}

// CardKey is the cache key of a card snapshot.
func CardKey(id uint64) string {
	return fmt.Sprintf("card:%d", id)
}

// Get returns value or nil if missing or redis unavailable.
func (c *Client) Get(ctx context.Context, key string) ([]byte, error) {
	if c == nil || c.client == nil {
		return nil, nil
	}
	res, err := c.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		// fail safe: behave like cache miss
		return nil, nil
	}
	return res, nil
}

// Set stores value with TTL, ignoring redis errors.
func (c *Client) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if c == nil || c.client == nil {
		return nil
	}
	_ = c.client.Set(ctx, key, value, ttl).Err()
	return nil
}

// Delete removes keys, ignoring redis errors.
func (c *Client) Delete(ctx context.Context, keys ...string) error {
	if c == nil || c.client == nil || len(keys) == 0 {
		return nil
	}
	_ = c.client.Del(ctx, keys...).Err()
	return nil
}

// Invalidate deletes keys now and again after delay. The second delete drops
// a value written back by a reader that loaded the row before the write committed.
// It returns the pending timer, or nil when there is nothing to do.
func (c *Client) Invalidate(ctx context.Context, delay time.Duration, keys ...string) *time.Timer {
	if c == nil || c.client == nil || len(keys) == 0 {
		return nil
	}
	_ = c.Delete(ctx, keys...)
	bg := context.WithoutCancel(ctx)
	return time.AfterFunc(delay, func() {
		_ = c.Delete(bg, keys...)
	})
}

// GetJSON decodes a cached value into dst. It reports false on a miss or
// when the stored value no longer decodes.
func (c *Client) GetJSON(ctx context.Context, key string, dst any) bool {
	raw, _ := c.Get(ctx, key)
	if raw == nil {
		return false
	}
	return json.Unmarshal(raw, dst) == nil
}

// SetJSON encodes v and stores it with TTL.
func (c *Client) SetJSON(ctx context.Context, key string, v any, ttl time.Duration) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode cache value %s: %w", key, err)
	}
	return c.Set(ctx, key, raw, ttl)
}

// TryLock acquires a best-effort lock with SET NX. When redis is not
// configured or unreachable the lock is reported as acquired with an empty token.
func (c *Client) TryLock(ctx context.Context, key string, ttl time.Duration) (string, bool) {
	if c == nil || c.client == nil {
		return "", true
	}
	token := uuid.NewString()
	ok, err := c.client.SetNX(ctx, key, token, ttl).Result()
	if err != nil {
		return "", true
	}
	return token, ok
}

// Unlock releases a lock obtained by TryLock.
func (c *Client) Unlock(ctx context.Context, key, token string) {
	if c == nil || c.client == nil || token == "" {
		return
	}
	_ = unlockScript.Run(ctx, c.client, []string{key}, token).Err()
}

// Ping reports whether redis answers.
func (c *Client) Ping(ctx context.Context) error {
	if c == nil || c.client == nil {
		return nil
	}
	return c.client.Ping(ctx).Err()
}

// Close releases the underlying connection pool.
func (c *Client) Close() error {
	if c == nil || c.client == nil {
		return nil
	}
	return c.client.Close()
}

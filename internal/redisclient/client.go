package redisclient

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
)

//go:embed scripts/release_lock.lua
var releaseLockScript string

type Client struct {
	rdb           *redis.Client
	releaseScript *redis.Script
}

// NewClient creates a new Redis client with Lua scripts loaded
func NewClient(addr, password string, db int) (*Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}

	return &Client{
		rdb:           rdb,
		releaseScript: redis.NewScript(releaseLockScript),
	}, nil
}

// Close closes the Redis connection
func (c *Client) Close() error {
	return c.rdb.Close()
}

// Ping checks the Redis connection
func (c *Client) Ping(ctx context.Context) error {
	return c.rdb.Ping(ctx).Err()
}

// AcquireLock takes a distributed lock and returns the owner token.
// ok is false when someone else holds the lock.
func (c *Client) AcquireLock(ctx context.Context, lockKey string, ttl time.Duration) (token string, ok bool, err error) {
	token = uuid.New().String()
	ok, err = c.rdb.SetNX(ctx, lockKeyFor(lockKey), token, ttl).Result()
	if err != nil {
		return "", false, fmt.Errorf("acquire lock failed: %w", err)
	}
	return token, ok, nil
}

// ReleaseLock releases the lock only if token still owns it
func (c *Client) ReleaseLock(ctx context.Context, lockKey, token string) error {
	_, err := c.releaseScript.Run(ctx, c.rdb, []string{lockKeyFor(lockKey)}, token).Result()
	if err != nil {
		return fmt.Errorf("release lock script failed: %w", err)
	}
	return nil
}

// ClearCart drops the cart of a checkout session
func (c *Client) ClearCart(ctx context.Context, sessionID string) error {
	if sessionID == "" {
		return nil
	}
	return c.rdb.Del(ctx, fmt.Sprintf("cart:%s", sessionID)).Err()
}

// CachedStatus returns the cached webhook status of an order, "" on miss
func (c *Client) CachedStatus(ctx context.Context, orderID int64) (string, error) {
	status, err := c.rdb.Get(ctx, statusKey(orderID)).Result()
	if errors.Is(err, redis.Nil) {
		return "", nil
	}
	return status, err
}

// CacheStatus stores the webhook status of an order
func (c *Client) CacheStatus(ctx context.Context, orderID int64, status string, ttl time.Duration) error {
	if status == "" {
		return nil
	}
	return c.rdb.Set(ctx, statusKey(orderID), status, ttl).Err()
}

func lockKeyFor(key string) string {
	return fmt.Sprintf("lock:%s", key)
}

func statusKey(orderID int64) string {
	return fmt.Sprintf("hitpay:status:%d", orderID)
}

package redisclient

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

// Client stores opaque auth tokens with a TTL. Tokens are the only state
// kept in Redis; everything durable lives in Postgres.
type Client struct {
	rdb *redis.Client
}

// NewClient creates a new Redis client
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

	return &Client{rdb: rdb}, nil
}

// GetClient returns the underlying Redis client
func (c *Client) GetClient() *redis.Client {
	return c.rdb
}

// Close closes the Redis connection
func (c *Client) Close() error {
	return c.rdb.Close()
}

func tokenKey(token string) string {
	return fmt.Sprintf("token:%s", token)
}

// SetAuthToken binds an opaque token to a user for the given TTL.
func (c *Client) SetAuthToken(ctx context.Context, token string, userID int64, ttl time.Duration) error {
	return c.rdb.Set(ctx, tokenKey(token), userID, ttl).Err()
}

// GetAuthToken resolves a token to its user ID. Returns redis.Nil (wrapped)
// when the token is unknown or expired.
func (c *Client) GetAuthToken(ctx context.Context, token string) (int64, error) {
	userID, err := c.rdb.Get(ctx, tokenKey(token)).Int64()
	if err != nil {
		return 0, fmt.Errorf("token lookup failed: %w", err)
	}
	return userID, nil
}

// DeleteAuthToken revokes a token.
func (c *Client) DeleteAuthToken(ctx context.Context, token string) error {
	return c.rdb.Del(ctx, tokenKey(token)).Err()
}

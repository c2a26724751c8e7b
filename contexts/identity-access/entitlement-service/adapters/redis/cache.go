package redisadapter

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

const keyPrefix = "entitlement:files:"

// Cache is the Redis-backed DecisionCache used when the API runs with more
// than one replica; the in-memory cache only sees its own process.
type Cache struct {
	client *redis.Client
}

func NewCache(addr string) *Cache {
	return &Cache{
		client: redis.NewClient(&redis.Options{Addr: addr}),
	}
}

func (c *Cache) GetFileIDs(ctx context.Context, userID string, _ time.Time) ([]string, bool, error) {
	raw, err := c.client.Get(ctx, keyPrefix+userID).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, false, nil
		}
		return nil, false, err
	}

	var fileIDs []string
	if err := json.Unmarshal([]byte(raw), &fileIDs); err != nil {
		return nil, false, err
	}
	return fileIDs, true, nil
}

func (c *Cache) SetFileIDs(ctx context.Context, userID string, fileIDs []string, expiresAt time.Time) error {
	payload, err := json.Marshal(fileIDs)
	if err != nil {
		return err
	}
	ttl := time.Until(expiresAt)
	if ttl <= 0 {
		return nil
	}
	return c.client.Set(ctx, keyPrefix+userID, payload, ttl).Err()
}

func (c *Cache) Invalidate(ctx context.Context, userID string) error {
	return c.client.Del(ctx, keyPrefix+userID).Err()
}

func (c *Cache) Close() error {
	return c.client.Close()
}

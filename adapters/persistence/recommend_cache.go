package persistence

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/afrovod/afrovod/internal/application/service"
)

// redisRecommendCache stores recommendation artifacts as JSON values plus a
// per-member set of exclude-list keys for bulk invalidation.
type redisRecommendCache struct {
	rdb *redis.Client
}

func NewRedisRecommendCache(rdb *redis.Client) service.RecommendCache {
	return &redisRecommendCache{rdb: rdb}
}

func excludeKeysIndex(username string) string {
	return fmt.Sprintf("%s:exclude_list_keys", username)
}

func (c *redisRecommendCache) Get(ctx context.Context, key string, dest any) (bool, error) {
	raw, err := c.rdb.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return false, nil
		}
		return false, fmt.Errorf("cache get %s: %w", key, err)
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		return false, fmt.Errorf("cache decode %s: %w", key, err)
	}
	return true, nil
}

func (c *redisRecommendCache) Set(ctx context.Context, key string, value any, ttl time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("cache encode %s: %w", key, err)
	}
	if err := c.rdb.Set(ctx, key, raw, ttl).Err(); err != nil {
		return fmt.Errorf("cache set %s: %w", key, err)
	}
	return nil
}

func (c *redisRecommendCache) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	if err := c.rdb.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("cache delete: %w", err)
	}
	return nil
}

func (c *redisRecommendCache) RegisterExcludeKey(ctx context.Context, username string, key string) error {
	if err := c.rdb.SAdd(ctx, excludeKeysIndex(username), key).Err(); err != nil {
		return fmt.Errorf("cache register key %s: %w", key, err)
	}
	return nil
}

func (c *redisRecommendCache) ExcludeKeys(ctx context.Context, username string) ([]string, error) {
	keys, err := c.rdb.SMembers(ctx, excludeKeysIndex(username)).Result()
	if err != nil {
		return nil, fmt.Errorf("cache list keys: %w", err)
	}
	return keys, nil
}

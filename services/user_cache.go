package services

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"travel-server/logger"
	"travel-server/models"
)

const userCacheTTL = 24 * time.Hour

type UserCache interface {
	Get(ctx context.Context, id string) (*models.SecureUser, bool)
	Set(ctx context.Context, u models.SecureUser)
	Delete(ctx context.Context, id string)
}

// RedisUserCache stores public user profiles as JSON under "user:<id>".
// Cache failures are logged and treated as misses.
type RedisUserCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisUserCache(client *redis.Client) *RedisUserCache {
	return &RedisUserCache{client: client, ttl: userCacheTTL}
}

func userKey(id string) string { return "user:" + id }

func (c *RedisUserCache) Get(ctx context.Context, id string) (*models.SecureUser, bool) {
	raw, err := c.client.Get(ctx, userKey(id)).Bytes()
	if err != nil {
		if err != redis.Nil {
			logger.Log.Warn("redis get failed", zap.String("user_id", id), zap.Error(err))
		}
		return nil, false
	}
	var u models.SecureUser
	if err := json.Unmarshal(raw, &u); err != nil {
		logger.Log.Warn("dropping corrupt cached user", zap.String("user_id", id), zap.Error(err))
		c.Delete(ctx, id)
		return nil, false
	}
	return &u, true
}

func (c *RedisUserCache) Set(ctx context.Context, u models.SecureUser) {
	raw, err := json.Marshal(u)
	if err != nil {
		logger.Log.Warn("failed to marshal user for cache", zap.Error(err))
		return
	}
	if err := c.client.Set(ctx, userKey(u.ID.Hex()), raw, c.ttl).Err(); err != nil {
		logger.Log.Warn("redis set failed", zap.String("user_id", u.ID.Hex()), zap.Error(err))
	}
}

func (c *RedisUserCache) Delete(ctx context.Context, id string) {
	if err := c.client.Del(ctx, userKey(id)).Err(); err != nil {
		logger.Log.Warn("redis del failed", zap.String("user_id", id), zap.Error(err))
	}
}

// Package cache implements the Redis-backed stores: the generic byte
// cache plus thread and sender memory.
package cache

import (
	"context"
	"errors"
	"time"

	"github.com/goccy/go-json"
	"github.com/redis/go-redis/v9"

	"parish_server/config"
	"parish_server/core/domain"
	"parish_server/core/port/out"
	"parish_server/pkg/apperr"
)

const (
	threadKeyPrefix = "parish:memory:thread:"
	senderKeyPrefix = "parish:memory:sender:"
)

type RedisCache struct {
	client    *redis.Client
	memoryTTL time.Duration
}

var _ out.Cache = (*RedisCache)(nil)
var _ out.MemoryStore = (*RedisCache)(nil)
var _ out.SenderStore = (*RedisCache)(nil)

func New(client *redis.Client, cfg config.RedisConfig) *RedisCache {
	return &RedisCache{client: client, memoryTTL: cfg.MemoryTTL}
}

func (c *RedisCache) Get(ctx context.Context, key string) ([]byte, error) {
	val, err := c.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, apperr.CacheError("get", err)
	}
	return val, nil
}

func (c *RedisCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if err := c.client.Set(ctx, key, value, ttl).Err(); err != nil {
		return apperr.CacheError("set", err)
	}
	return nil
}

func (c *RedisCache) Delete(ctx context.Context, key string) error {
	if err := c.client.Del(ctx, key).Err(); err != nil {
		return apperr.CacheError("delete", err)
	}
	return nil
}

func (c *RedisCache) Exists(ctx context.Context, key string) (bool, error) {
	n, err := c.client.Exists(ctx, key).Result()
	if err != nil {
		return false, apperr.CacheError("exists", err)
	}
	return n > 0, nil
}

// GetThreadMemory returns nil without error when the thread is unknown.
func (c *RedisCache) GetThreadMemory(ctx context.Context, threadID string) (*domain.ThreadMemory, error) {
	var m domain.ThreadMemory
	ok, err := c.getJSON(ctx, threadKeyPrefix+threadID, &m)
	if err != nil || !ok {
		return nil, err
	}
	return &m, nil
}

func (c *RedisCache) SaveThreadMemory(ctx context.Context, threadID string, m *domain.ThreadMemory) error {
	return c.setJSON(ctx, threadKeyPrefix+threadID, m, c.memoryTTL)
}

func (c *RedisCache) GetSender(ctx context.Context, email string) (*domain.SenderRecord, error) {
	var r domain.SenderRecord
	ok, err := c.getJSON(ctx, senderKeyPrefix+email, &r)
	if err != nil || !ok {
		return nil, err
	}
	return &r, nil
}

func (c *RedisCache) SaveSender(ctx context.Context, r *domain.SenderRecord) error {
	return c.setJSON(ctx, senderKeyPrefix+r.Email, r, c.memoryTTL)
}

func (c *RedisCache) getJSON(ctx context.Context, key string, dest interface{}) (bool, error) {
	raw, err := c.Get(ctx, key)
	if err != nil || raw == nil {
		return false, err
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		return false, apperr.CacheError("unmarshal", err)
	}
	return true, nil
}

func (c *RedisCache) setJSON(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return apperr.CacheError("marshal", err)
	}
	return c.Set(ctx, key, raw, ttl)
}

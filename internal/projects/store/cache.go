package store

import (
	"context"
	"log"
	"strconv"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// UsageCache caches the computed byte usage per project. All writes happen
// behind the per-project lock, so a cache stays coherent as long as every
// mutation goes through the Store. Implementations are best-effort: a miss
// or backend error just forces a disk walk.
type UsageCache interface {
	Get(ctx context.Context, projectID string) (int64, bool)
	Set(ctx context.Context, projectID string, usage int64)
	Invalidate(ctx context.Context, projectID string)
}

// MemoryUsageCache is the default in-process cache.
type MemoryUsageCache struct {
	mu sync.RWMutex
	m  map[string]int64
}

func NewMemoryUsageCache() *MemoryUsageCache {
	return &MemoryUsageCache{m: make(map[string]int64)}
}

func (c *MemoryUsageCache) Get(_ context.Context, projectID string) (int64, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	n, ok := c.m[projectID]
	return n, ok
}

func (c *MemoryUsageCache) Set(_ context.Context, projectID string, usage int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.m[projectID] = usage
}

func (c *MemoryUsageCache) Invalidate(_ context.Context, projectID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.m, projectID)
}

const (
	usageKeyPrefix = "trk:usage:" // Key per project: trk:usage:{project_id}
	usageTTL       = 24 * time.Hour
)

// RedisUsageCache keeps usage in Redis so it survives restarts without a
// full re-walk of every project. Errors are logged and degrade to a miss.
type RedisUsageCache struct {
	client *redis.Client
}

func NewRedisUsageCache(client *redis.Client) *RedisUsageCache {
	return &RedisUsageCache{client: client}
}

func (c *RedisUsageCache) key(projectID string) string {
	return usageKeyPrefix + projectID
}

func (c *RedisUsageCache) Get(ctx context.Context, projectID string) (int64, bool) {
	val, err := c.client.Get(ctx, c.key(projectID)).Result()
	if err == redis.Nil {
		return 0, false
	}
	if err != nil {
		log.Printf("[cache] get usage failed project=%s err=%v", projectID, err)
		return 0, false
	}
	n, err := strconv.ParseInt(val, 10, 64)
	if err != nil {
		return 0, false
	}
	return n, true
}

func (c *RedisUsageCache) Set(ctx context.Context, projectID string, usage int64) {
	if err := c.client.Set(ctx, c.key(projectID), usage, usageTTL).Err(); err != nil {
		log.Printf("[cache] set usage failed project=%s err=%v", projectID, err)
	}
}

func (c *RedisUsageCache) Invalidate(ctx context.Context, projectID string) {
	if err := c.client.Del(ctx, c.key(projectID)).Err(); err != nil {
		log.Printf("[cache] invalidate usage failed project=%s err=%v", projectID, err)
	}
}

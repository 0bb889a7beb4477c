package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const (
	historyKeyPrefix = "solace:history:"
	historyCacheMax  = 50
	historyCacheTTL  = 24 * time.Hour
)

// Cache is a Redis-backed hot cache for recent session history. Every
// operation fails open: a Redis outage degrades to the PostgreSQL path.
type Cache struct {
	rdb    *redis.Client
	logger *zap.Logger
}

// NewCache connects to Redis at the given URL.
func NewCache(redisURL string, logger *zap.Logger) (*Cache, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	rdb := redis.NewClient(opts)
	if err := rdb.Ping(context.Background()).Err(); err != nil {
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return &Cache{rdb: rdb, logger: logger}, nil
}

// Push appends entries to the session's cached history, trimming the list
// to the cache bound.
func (c *Cache) Push(ctx context.Context, sessionID string, entries ...Entry) {
	key := historyKeyPrefix + sessionID
	pipe := c.rdb.Pipeline()
	for _, e := range entries {
		data, err := json.Marshal(e)
		if err != nil {
			continue
		}
		pipe.RPush(ctx, key, data)
	}
	pipe.LTrim(ctx, key, -historyCacheMax, -1)
	pipe.Expire(ctx, key, historyCacheTTL)
	if _, err := pipe.Exec(ctx); err != nil {
		c.logger.Warn("history cache push failed", zap.Error(err))
	}
}

// Recent returns up to limit cached entries, most-recent-last. A miss or
// error returns nil so the caller falls back to the store.
func (c *Cache) Recent(ctx context.Context, sessionID string, limit int) []Entry {
	if limit <= 0 {
		limit = 10
	}
	key := historyKeyPrefix + sessionID
	raw, err := c.rdb.LRange(ctx, key, int64(-limit), -1).Result()
	if err != nil || len(raw) == 0 {
		return nil
	}
	entries := make([]Entry, 0, len(raw))
	for _, item := range raw {
		var e Entry
		if json.Unmarshal([]byte(item), &e) == nil {
			entries = append(entries, e)
		}
	}
	return entries
}

// Close shuts down the Redis connection.
func (c *Cache) Close() error {
	return c.rdb.Close()
}

package evidence

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

// SummaryCache is a Redis-backed cache for coverage summaries. Summaries are
// cheap to recompute, so every cache failure degrades to the database.
type SummaryCache struct {
	client *redis.Client
	config *CacheConfig
	logger *zap.Logger
	stats  *cacheStats
}

// cacheStats tracks cache performance metrics. Counters are atomic so a
// store shared across goroutines can read them while lookups are in flight.
type cacheStats struct {
	hits   atomic.Int64
	misses atomic.Int64
}

// CacheStats is a point-in-time snapshot of cache performance.
type CacheStats struct {
	Hits    int64   `json:"hits"`
	Misses  int64   `json:"misses"`
	HitRate float64 `json:"hit_rate"`
}

// NewSummaryCache creates a Redis-backed summary cache.
func NewSummaryCache(config *CacheConfig, logger *zap.Logger) (*SummaryCache, error) {
	opts, err := redis.ParseURL(config.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}

	opts.PoolSize = config.MaxConnections
	opts.MinIdleConns = config.MinIdleConns

	client := redis.NewClient(opts)

	cache := &SummaryCache{
		client: client,
		config: config,
		logger: logger,
		stats:  &cacheStats{},
	}

	// Test connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if _, err := client.Ping(ctx).Result(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	logger.Info("Summary cache initialized",
		zap.String("redis_url", maskRedisURL(config.RedisURL)),
		zap.Duration("default_ttl", config.DefaultTTL))

	return cache, nil
}

// Get fetches a cached coverage summary for a regulation filter.
func (c *SummaryCache) Get(ctx context.Context, regulation string) (*CoverageSummary, bool) {
	key := summaryKey(regulation)

	data, err := c.client.Get(ctx, key).Result()
	if err == redis.Nil {
		c.stats.misses.Add(1)
		c.logger.Debug("Cache miss", zap.String("key", key))
		return nil, false
	} else if err != nil {
		c.logger.Error("Cache lookup failed", zap.Error(err))
		return nil, false
	}

	var summary CoverageSummary
	if err := json.Unmarshal([]byte(data), &summary); err != nil {
		c.logger.Error("Failed to unmarshal cached summary", zap.Error(err))
		// Delete corrupted cache entry
		c.client.Del(ctx, key)
		return nil, false
	}

	c.stats.hits.Add(1)
	c.logger.Debug("Cache hit", zap.String("key", key))
	return &summary, true
}

// Set stores a coverage summary with the configured TTL.
func (c *SummaryCache) Set(ctx context.Context, regulation string, summary *CoverageSummary) {
	data, err := json.Marshal(summary)
	if err != nil {
		c.logger.Error("Failed to marshal summary", zap.Error(err))
		return
	}

	if err := c.client.Set(ctx, summaryKey(regulation), data, c.config.DefaultTTL).Err(); err != nil {
		c.logger.Error("Failed to cache summary", zap.Error(err))
	}
}

// Invalidate drops all cached summaries. Called after every evidence write.
func (c *SummaryCache) Invalidate(ctx context.Context) {
	keys, err := c.client.Keys(ctx, "grc:summary:*").Result()
	if err != nil {
		c.logger.Error("Failed to list summary keys", zap.Error(err))
		return
	}
	if len(keys) > 0 {
		if err := c.client.Del(ctx, keys...).Err(); err != nil {
			c.logger.Error("Failed to invalidate summaries", zap.Error(err))
		}
	}
}

// Stats returns cache hit/miss counters.
func (c *SummaryCache) Stats() CacheStats {
	hits := c.stats.hits.Load()
	misses := c.stats.misses.Load()
	stats := CacheStats{
		Hits:   hits,
		Misses: misses,
	}
	if total := hits + misses; total > 0 {
		stats.HitRate = float64(hits) / float64(total) * 100
	}
	return stats
}

// Close closes the Redis connection.
func (c *SummaryCache) Close() error {
	return c.client.Close()
}

// summaryKey builds the cache key for a regulation filter.
func summaryKey(regulation string) string {
	if regulation == "" {
		return "grc:summary:all"
	}
	return "grc:summary:" + regulation
}

// maskRedisURL masks credentials in a Redis URL for logging.
func maskRedisURL(url string) string {
	if strings.Contains(url, "@") {
		parts := strings.Split(url, "@")
		if len(parts) >= 2 {
			return "redis://***@" + parts[len(parts)-1]
		}
	}
	return url
}

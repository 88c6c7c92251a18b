package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/stitts-dev/dfs-lineup-engine/internal/optimizer"
	"github.com/stitts-dev/dfs-lineup-engine/internal/types"
	"github.com/stitts-dev/dfs-lineup-engine/pkg/logger"
)

const (
	optimizationPrefix = "optimization:"
	stacksPrefix       = "stacks:"

	scanBatch = 100
)

// ErrCacheMiss is returned when a key is absent or expired.
var ErrCacheMiss = errors.New("cache miss")

// OptimizationCache stores optimizer results and stack lists in Redis.
// Optimization is deterministic for a fixed seed, so a hit is the batch the
// engine would have produced.
type OptimizationCache struct {
	client *redis.Client
	ttl    time.Duration
	logger *logrus.Entry
}

// Connect parses a redis:// URL and verifies the server answers.
func Connect(ctx context.Context, url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis url: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}
	return client, nil
}

// NewOptimizationCache creates a cache with a fixed entry ttl.
func NewOptimizationCache(client *redis.Client, ttl time.Duration) *OptimizationCache {
	return &OptimizationCache{
		client: client,
		ttl:    ttl,
		logger: logger.WithComponent("optimization_cache"),
	}
}

// OptimizationKey hashes a request into a cache key.
func OptimizationKey(players []types.Player, settings optimizer.Settings) (string, error) {
	return hashKey(optimizationPrefix, struct {
		Players  []types.Player     `json:"players"`
		Settings optimizer.Settings `json:"settings"`
	}{players, settings})
}

// StacksKey hashes a stack-building request into a cache key.
func StacksKey(players []types.Player, contestType string) (string, error) {
	return hashKey(stacksPrefix, struct {
		Players     []types.Player `json:"players"`
		ContestType string         `json:"contest_type"`
	}{players, contestType})
}

func hashKey(prefix string, v interface{}) (string, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("failed to marshal cache key input: %w", err)
	}
	sum := sha256.Sum256(data)
	return prefix + hex.EncodeToString(sum[:]), nil
}

// GetResult retrieves an optimization result.
func (c *OptimizationCache) GetResult(ctx context.Context, key string) (*optimizer.Result, error) {
	var result optimizer.Result
	if err := c.get(ctx, key, &result); err != nil {
		return nil, err
	}

	c.logger.WithFields(logrus.Fields{
		"cache_key":     key,
		"lineups_count": len(result.Lineups),
	}).Debug("Retrieved optimization result from cache")

	return &result, nil
}

// SetResult stores an optimization result.
func (c *OptimizationCache) SetResult(ctx context.Context, key string, result *optimizer.Result) error {
	if err := c.set(ctx, key, result); err != nil {
		return err
	}

	c.logger.WithFields(logrus.Fields{
		"cache_key":     key,
		"expiration":    c.ttl,
		"lineups_count": len(result.Lineups),
	}).Debug("Cached optimization result")

	return nil
}

// GetStacks retrieves a ranked stack list.
func (c *OptimizationCache) GetStacks(ctx context.Context, key string) ([]types.Stack, error) {
	var stacks []types.Stack
	if err := c.get(ctx, key, &stacks); err != nil {
		return nil, err
	}
	return stacks, nil
}

// SetStacks stores a ranked stack list.
func (c *OptimizationCache) SetStacks(ctx context.Context, key string, stacks []types.Stack) error {
	if err := c.set(ctx, key, stacks); err != nil {
		return err
	}
	c.logger.WithFields(logrus.Fields{
		"cache_key":    key,
		"stacks_count": len(stacks),
	}).Debug("Cached stacks")
	return nil
}

// Flush clears every optimization and stack entry.
func (c *OptimizationCache) Flush(ctx context.Context) (int, error) {
	deleted := 0
	for _, prefix := range []string{optimizationPrefix, stacksPrefix} {
		iter := c.client.Scan(ctx, 0, prefix+"*", scanBatch).Iterator()
		for iter.Next(ctx) {
			if err := c.client.Del(ctx, iter.Val()).Err(); err != nil {
				return deleted, fmt.Errorf("failed to delete %s: %w", iter.Val(), err)
			}
			deleted++
		}
		if err := iter.Err(); err != nil {
			return deleted, fmt.Errorf("failed to scan %s keys: %w", prefix, err)
		}
	}

	c.logger.WithField("deleted_keys", deleted).Info("Flushed optimization cache")
	return deleted, nil
}

// Ping checks the connection.
func (c *OptimizationCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

// Status returns connection and size information for health checks.
func (c *OptimizationCache) Status(ctx context.Context) map[string]interface{} {
	status := map[string]interface{}{
		"service":   "optimization-cache",
		"timestamp": time.Now(),
		"connected": c.Ping(ctx) == nil,
	}
	if size, err := c.client.DBSize(ctx).Result(); err == nil {
		status["db_size"] = size
	}
	return status
}

// Close releases the underlying connection pool.
func (c *OptimizationCache) Close() error {
	return c.client.Close()
}

func (c *OptimizationCache) get(ctx context.Context, key string, dest interface{}) error {
	data, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return ErrCacheMiss
		}
		return fmt.Errorf("failed to get %s from cache: %w", key, err)
	}
	if err := json.Unmarshal(data, dest); err != nil {
		return fmt.Errorf("failed to unmarshal %s: %w", key, err)
	}
	return nil
}

func (c *OptimizationCache) set(ctx context.Context, key string, value interface{}) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal %s: %w", key, err)
	}
	if err := c.client.Set(ctx, key, data, c.ttl).Err(); err != nil {
		return fmt.Errorf("failed to set %s in cache: %w", key, err)
	}
	return nil
}

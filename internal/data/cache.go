package data

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/mohamedkhairy/commodity-dashboard/internal/config"
	"github.com/mohamedkhairy/commodity-dashboard/internal/models"
	"github.com/mohamedkhairy/commodity-dashboard/pkg/logger"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/redis/go-redis/v9"
)

var (
	tableCacheRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "table_cache_requests_total",
			Help: "Table cache lookups by backend and result",
		},
		[]string{"backend", "result"}, // result: "hit", "miss" or "error"
	)
)

const (
	// DefaultCacheKeyPrefix prefixes the Redis keys holding cached tables
	DefaultCacheKeyPrefix = "commodity:tables:"
	// DefaultCacheTTL is the default expiry of cached tables in Redis
	DefaultCacheTTL = 24 * time.Hour
)

// TableCache stores loaded tables keyed by the fingerprint of their sources
type TableCache interface {
	// Get returns the tables cached under fingerprint; ok is false on a miss
	Get(ctx context.Context, fingerprint string) (tables *models.Tables, ok bool, err error)

	// Put stores tables under tables.Fingerprint
	Put(ctx context.Context, tables *models.Tables) error

	// Invalidate drops every cached entry
	Invalidate(ctx context.Context) error

	// Backend returns the cache type ("memory" or "redis")
	Backend() string
}

// MemoryCache keeps the most recently loaded tables in process
type MemoryCache struct {
	mu     sync.RWMutex
	tables *models.Tables
}

// NewMemoryCache creates an empty in-process cache
func NewMemoryCache() *MemoryCache {
	return &MemoryCache{}
}

func (c *MemoryCache) Get(ctx context.Context, fingerprint string) (*models.Tables, bool, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.tables == nil || c.tables.Fingerprint != fingerprint {
		tableCacheRequests.WithLabelValues(c.Backend(), "miss").Inc()
		return nil, false, nil
	}
	tableCacheRequests.WithLabelValues(c.Backend(), "hit").Inc()
	return c.tables, true, nil
}

func (c *MemoryCache) Put(ctx context.Context, tables *models.Tables) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.tables = tables
	return nil
}

func (c *MemoryCache) Invalidate(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.tables = nil
	return nil
}

func (c *MemoryCache) Backend() string {
	return "memory"
}

// RedisCache stores tables as JSON in Redis so that several dashboard
// instances reading the same source share one parse
type RedisCache struct {
	client    redis.UniversalClient
	keyPrefix string
	ttl       time.Duration
}

// NewRedisCache creates a Redis-backed table cache
func NewRedisCache(client redis.UniversalClient, keyPrefix string, ttl time.Duration) *RedisCache {
	if keyPrefix == "" {
		keyPrefix = DefaultCacheKeyPrefix
	}
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	return &RedisCache{
		client:    client,
		keyPrefix: keyPrefix,
		ttl:       ttl,
	}
}

func (c *RedisCache) key(fingerprint string) string {
	return c.keyPrefix + fingerprint
}

func (c *RedisCache) Get(ctx context.Context, fingerprint string) (*models.Tables, bool, error) {
	raw, err := c.client.Get(ctx, c.key(fingerprint)).Bytes()
	if errors.Is(err, redis.Nil) {
		tableCacheRequests.WithLabelValues(c.Backend(), "miss").Inc()
		return nil, false, nil
	}
	if err != nil {
		tableCacheRequests.WithLabelValues(c.Backend(), "error").Inc()
		return nil, false, fmt.Errorf("failed to get cached tables: %w", err)
	}

	var tables models.Tables
	if err := json.Unmarshal(raw, &tables); err != nil {
		tableCacheRequests.WithLabelValues(c.Backend(), "error").Inc()
		return nil, false, fmt.Errorf("failed to decode cached tables: %w", err)
	}
	tableCacheRequests.WithLabelValues(c.Backend(), "hit").Inc()
	return &tables, true, nil
}

func (c *RedisCache) Put(ctx context.Context, tables *models.Tables) error {
	if tables == nil || tables.Fingerprint == "" {
		return errors.New("tables without fingerprint cannot be cached")
	}
	raw, err := json.Marshal(tables)
	if err != nil {
		return fmt.Errorf("failed to encode tables: %w", err)
	}
	if err := c.client.Set(ctx, c.key(tables.Fingerprint), raw, c.ttl).Err(); err != nil {
		return fmt.Errorf("failed to cache tables: %w", err)
	}
	return nil
}

// Invalidate deletes every key under the cache prefix
func (c *RedisCache) Invalidate(ctx context.Context) error {
	iter := c.client.Scan(ctx, 0, c.keyPrefix+"*", 100).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return fmt.Errorf("failed to scan cached tables: %w", err)
	}
	if len(keys) == 0 {
		return nil
	}
	if err := c.client.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("failed to delete cached tables: %w", err)
	}
	return nil
}

func (c *RedisCache) Backend() string {
	return "redis"
}

// NewRedisClient connects to Redis and verifies the connection
func NewRedisClient(cfg config.RedisConfig) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:         fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Password:     cfg.Password,
		DB:           cfg.DB,
		PoolSize:     cfg.PoolSize,
		MinIdleConns: cfg.MinIdleConns,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	logger.Info("Connected to Redis",
		logger.String("host", cfg.Host),
		logger.Int("port", cfg.Port),
	)

	return rdb, nil
}

package data

import (
	"context"
	"sync"
	"time"

	"github.com/mohamedkhairy/commodity-dashboard/internal/models"
	"github.com/mohamedkhairy/commodity-dashboard/pkg/logger"
)

// CachedLoader loads tables from a source, skipping the parse when the
// source fingerprint matches a cached entry
type CachedLoader struct {
	source Source
	cache  TableCache

	mu      sync.RWMutex
	current *models.Tables
}

// NewCachedLoader creates a loader. A nil cache falls back to a MemoryCache.
func NewCachedLoader(source Source, cache TableCache) *CachedLoader {
	if cache == nil {
		cache = NewMemoryCache()
	}
	return &CachedLoader{
		source: source,
		cache:  cache,
	}
}

// Fingerprint returns the current fingerprint of the source
func (l *CachedLoader) Fingerprint(ctx context.Context) (string, error) {
	return l.source.Fingerprint(ctx)
}

// Current returns the last loaded tables, or nil before the first Load
func (l *CachedLoader) Current() *models.Tables {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.current
}

// Load returns the tables for the current source content
func (l *CachedLoader) Load(ctx context.Context) (*models.Tables, error) {
	fingerprint, err := l.source.Fingerprint(ctx)
	if err == nil {
		cached, ok, cacheErr := l.cache.Get(ctx, fingerprint)
		if cacheErr != nil {
			logger.Warn("Table cache lookup failed, loading from source",
				logger.String("backend", l.cache.Backend()),
				logger.ErrorField(cacheErr),
			)
		}
		if ok {
			logger.Debug("Table cache hit",
				logger.String("fingerprint", fingerprint),
				logger.String("backend", l.cache.Backend()),
			)
			l.setCurrent(cached)
			return cached, nil
		}
	}

	start := time.Now()
	tables, err := LoadTables(ctx, l.source)
	if err != nil {
		logger.CountError("loader", "source_unavailable")
		return nil, err
	}

	if err := l.cache.Put(ctx, tables); err != nil {
		logger.Warn("Failed to cache tables",
			logger.String("backend", l.cache.Backend()),
			logger.ErrorField(err),
		)
	}

	logger.Info("Loaded tables from source",
		logger.String("source", l.source.Name()),
		logger.String("fingerprint", tables.Fingerprint),
		logger.Int("prices", len(tables.Prices)),
		logger.Int("commodities", len(tables.Metadata)),
		logger.Duration("duration", time.Since(start)),
	)

	l.setCurrent(tables)
	return tables, nil
}

// Reload drops every cached entry and loads from the source again
func (l *CachedLoader) Reload(ctx context.Context) (*models.Tables, error) {
	if err := l.cache.Invalidate(ctx); err != nil {
		logger.Warn("Failed to invalidate table cache",
			logger.String("backend", l.cache.Backend()),
			logger.ErrorField(err),
		)
	}
	return l.Load(ctx)
}

func (l *CachedLoader) setCurrent(tables *models.Tables) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.current = tables
}

package main

import (
	"fmt"
	"io"

	"github.com/mohamedkhairy/commodity-dashboard/internal/config"
	"github.com/mohamedkhairy/commodity-dashboard/internal/dashboard"
	"github.com/mohamedkhairy/commodity-dashboard/internal/data"
	"github.com/mohamedkhairy/commodity-dashboard/internal/pricechange"
	"github.com/mohamedkhairy/commodity-dashboard/internal/storage"
	"github.com/mohamedkhairy/commodity-dashboard/pkg/logger"
)

// app holds the wired components shared by the commands
type app struct {
	loader  *data.CachedLoader
	service *dashboard.Service
	closers []io.Closer
}

// newApp wires source, cache, loader, calculator and service from cfg
func newApp(cfg *config.Config) (*app, error) {
	a := &app{}

	registry := data.NewSourceRegistry()
	if err := registry.Register("postgres", func(settings map[string]string) (data.Source, error) {
		source, err := storage.NewPostgresSource(cfg.Database)
		if err != nil {
			return nil, err
		}
		return source, nil
	}); err != nil {
		return nil, err
	}

	source, err := registry.Create(cfg.Data.Source, map[string]string{
		"prices_file":   cfg.Data.PricesFile,
		"metadata_file": cfg.Data.MetadataFile,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create %s source: %w", cfg.Data.Source, err)
	}
	if closer, ok := source.(io.Closer); ok {
		a.closers = append(a.closers, closer)
	}

	var cache data.TableCache
	switch cfg.Data.Cache {
	case "redis":
		client, err := data.NewRedisClient(cfg.Redis)
		if err != nil {
			a.Close()
			return nil, err
		}
		a.closers = append(a.closers, client)
		cache = data.NewRedisCache(client, cfg.Data.CacheKeyPrefix, cfg.Data.CacheTTL)
	default:
		cache = data.NewMemoryCache()
	}

	policy, err := pricechange.ParseDuplicatePolicy(cfg.Data.DuplicatePolicy)
	if err != nil {
		a.Close()
		return nil, err
	}

	a.loader = data.NewCachedLoader(source, cache)
	calculator := pricechange.NewCalculator(pricechange.Config{
		Workers:         cfg.Analysis.Workers,
		DuplicatePolicy: policy,
	})
	a.service = dashboard.NewService(a.loader, calculator, dashboard.Options{
		DuplicatePolicy:     policy,
		MaxChartCommodities: cfg.API.MaxChartCommodities,
	})

	logger.Info("Dashboard wired",
		logger.String("source", source.Name()),
		logger.String("cache", cache.Backend()),
		logger.String("duplicate_policy", policy.String()),
		logger.Int("workers", cfg.Analysis.Workers),
	)
	return a, nil
}

// Close releases the source and cache connections
func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i].Close(); err != nil {
			logger.Warn("Failed to close resource", logger.ErrorField(err))
		}
	}
	a.closers = nil
}

package data

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/mohamedkhairy/commodity-dashboard/internal/models"
)

var (
	// ErrUnknownSource is returned when no factory is registered for a source type
	ErrUnknownSource = errors.New("unknown source type")
	// ErrSourceRegistered is returned when registering a source type twice
	ErrSourceRegistered = errors.New("source type already registered")
)

// PriceHistorySource returns the price table (commodity, date, price)
type PriceHistorySource interface {
	LoadPrices(ctx context.Context) ([]models.PricePoint, error)
}

// MetadataSource returns the commodity metadata table
type MetadataSource interface {
	LoadMetadata(ctx context.Context) ([]models.CommodityMeta, error)
}

// Fingerprinter returns a value that changes whenever the underlying tables change
type Fingerprinter interface {
	Fingerprint(ctx context.Context) (string, error)
}

// Source is a complete input collaborator for the dashboard
type Source interface {
	PriceHistorySource
	MetadataSource
	Fingerprinter

	// Name returns the source type (e.g. "csv", "postgres")
	Name() string
}

// LoadTables loads both tables from src. Any collaborator failure is reported
// as models.ErrSourceUnavailable wrapping the cause.
func LoadTables(ctx context.Context, src Source) (*models.Tables, error) {
	fingerprint, err := src.Fingerprint(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: fingerprint %s source: %w", models.ErrSourceUnavailable, src.Name(), err)
	}

	metadata, err := src.LoadMetadata(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: load metadata from %s: %w", models.ErrSourceUnavailable, src.Name(), err)
	}
	if metadata == nil {
		metadata = []models.CommodityMeta{}
	}

	prices, err := src.LoadPrices(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: load prices from %s: %w", models.ErrSourceUnavailable, src.Name(), err)
	}

	return &models.Tables{
		Prices:      prices,
		Metadata:    metadata,
		Fingerprint: fingerprint,
	}, nil
}

// SourceFactory builds a source from its settings
type SourceFactory func(settings map[string]string) (Source, error)

// SourceRegistry maps source types to factories
type SourceRegistry struct {
	factories map[string]SourceFactory
}

// NewSourceRegistry creates a registry with the built-in CSV source registered
func NewSourceRegistry() *SourceRegistry {
	registry := &SourceRegistry{
		factories: make(map[string]SourceFactory),
	}

	_ = registry.Register("csv", func(settings map[string]string) (Source, error) {
		return NewCSVSource(settings["prices_file"], settings["metadata_file"])
	})

	return registry
}

// Register registers a factory for a source type
func (r *SourceRegistry) Register(sourceType string, factory SourceFactory) error {
	if _, exists := r.factories[sourceType]; exists {
		return fmt.Errorf("%w: %s", ErrSourceRegistered, sourceType)
	}
	r.factories[sourceType] = factory
	return nil
}

// Create builds a source of the given type
func (r *SourceRegistry) Create(sourceType string, settings map[string]string) (Source, error) {
	factory, exists := r.factories[sourceType]
	if !exists {
		return nil, fmt.Errorf("%w: %s", ErrUnknownSource, sourceType)
	}
	return factory(settings)
}

// List returns the registered source types in sorted order
func (r *SourceRegistry) List() []string {
	types := make([]string, 0, len(r.factories))
	for sourceType := range r.factories {
		types = append(types, sourceType)
	}
	sort.Strings(types)
	return types
}

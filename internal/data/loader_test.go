package data

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/mohamedkhairy/commodity-dashboard/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeSource is an in-memory Source that counts loads
type fakeSource struct {
	mu          sync.Mutex
	fingerprint string
	prices      []models.PricePoint
	metadata    []models.CommodityMeta
	err         error
	loads       int
}

func newFakeSource(fingerprint string) *fakeSource {
	tables := sampleTables(fingerprint)
	return &fakeSource{
		fingerprint: fingerprint,
		prices:      tables.Prices,
		metadata:    tables.Metadata,
	}
}

func (s *fakeSource) Name() string { return "fake" }

func (s *fakeSource) LoadPrices(ctx context.Context) ([]models.PricePoint, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.loads++
	return s.prices, s.err
}

func (s *fakeSource) LoadMetadata(ctx context.Context) ([]models.CommodityMeta, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.metadata, s.err
}

func (s *fakeSource) Fingerprint(ctx context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.fingerprint, s.err
}

func (s *fakeSource) setFingerprint(fp string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fingerprint = fp
}

func (s *fakeSource) loadCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loads
}

func TestCachedLoader_Load(t *testing.T) {
	ctx := context.Background()
	src := newFakeSource("v1")
	loader := NewCachedLoader(src, nil)
	assert.Nil(t, loader.Current())

	first, err := loader.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, "v1", first.Fingerprint)
	assert.Equal(t, 1, src.loadCount())

	second, err := loader.Load(ctx)
	require.NoError(t, err)
	assert.Same(t, first, second)
	assert.Equal(t, 1, src.loadCount(), "unchanged fingerprint is served from cache")

	src.setFingerprint("v2")
	third, err := loader.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, "v2", third.Fingerprint)
	assert.Equal(t, 2, src.loadCount())
	assert.Same(t, third, loader.Current())
}

func TestCachedLoader_Reload(t *testing.T) {
	ctx := context.Background()
	src := newFakeSource("v1")
	loader := NewCachedLoader(src, NewMemoryCache())

	_, err := loader.Load(ctx)
	require.NoError(t, err)
	_, err = loader.Reload(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, src.loadCount())
}

func TestCachedLoader_RedisShared(t *testing.T) {
	ctx := context.Background()
	_, client := newTestRedis(t)

	src := newFakeSource("v1")
	first := NewCachedLoader(src, NewRedisCache(client, "", 0))
	second := NewCachedLoader(src, NewRedisCache(client, "", 0))

	_, err := first.Load(ctx)
	require.NoError(t, err)
	tables, err := second.Load(ctx)
	require.NoError(t, err)

	assert.Equal(t, "v1", tables.Fingerprint)
	assert.Equal(t, 1, src.loadCount(), "second loader reads the shared cache")
}

func TestCachedLoader_SourceError(t *testing.T) {
	src := newFakeSource("v1")
	src.err = errors.New("disk gone")
	loader := NewCachedLoader(src, nil)

	_, err := loader.Load(context.Background())
	assert.ErrorIs(t, err, models.ErrSourceUnavailable)
	assert.Nil(t, loader.Current())
}

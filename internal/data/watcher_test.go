package data

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/mohamedkhairy/commodity-dashboard/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWatcher_Check(t *testing.T) {
	ctx := context.Background()
	src := newFakeSource("v1")
	loader := NewCachedLoader(src, nil)
	_, err := loader.Load(ctx)
	require.NoError(t, err)

	watcher := NewWatcher(loader, time.Minute, "v1")

	var notified []string
	watcher.OnChange(func(tables *models.Tables) {
		notified = append(notified, tables.Fingerprint)
	})

	changed, err := watcher.Check(ctx)
	require.NoError(t, err)
	assert.False(t, changed)
	assert.Empty(t, notified)

	src.setFingerprint("v2")
	changed, err = watcher.Check(ctx)
	require.NoError(t, err)
	assert.True(t, changed)
	assert.Equal(t, []string{"v2"}, notified)
	assert.Equal(t, "v2", loader.Current().Fingerprint)

	changed, err = watcher.Check(ctx)
	require.NoError(t, err)
	assert.False(t, changed)
}

func TestWatcher_StartStop(t *testing.T) {
	src := newFakeSource("v1")
	loader := NewCachedLoader(src, nil)
	watcher := NewWatcher(loader, 10*time.Millisecond, "v1")

	var reloads atomic.Int32
	watcher.OnChange(func(tables *models.Tables) {
		reloads.Add(1)
	})

	require.NoError(t, watcher.Start())
	require.NoError(t, watcher.Start(), "second start is a no-op")

	src.setFingerprint("v2")
	assert.Eventually(t, func() bool { return reloads.Load() == 1 }, time.Second, 5*time.Millisecond)

	watcher.Stop()
	watcher.Stop()
}

package cache

import (
	"context"
	"testing"
	"time"

	"github.com/jon4hz/eduquest/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type item struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

func TestPrefixedCacheMemory(t *testing.T) {
	c, err := New(&config.CacheConfig{Type: config.CacheTypeMemory})
	require.NoError(t, err)

	ctx := context.Background()
	items := NewPrefixedCache[item](c, config.CacheTypeMemory, "items:")
	others := NewPrefixedCache[item](c, config.CacheTypeMemory, "others:")

	_, err = items.Get(ctx, 1)
	assert.ErrorIs(t, err, ErrMiss)

	require.NoError(t, items.Set(ctx, 1, item{Name: "one", Count: 1}, 0))
	got, err := items.Get(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, item{Name: "one", Count: 1}, got)

	// same key, different prefix
	_, err = others.Get(ctx, 1)
	assert.ErrorIs(t, err, ErrMiss)

	require.NoError(t, items.Delete(ctx, 1))
	_, err = items.Get(ctx, 1)
	assert.ErrorIs(t, err, ErrMiss)
	assert.NoError(t, items.Delete(ctx, 1))

	assert.Equal(t, config.CacheTypeMemory, items.GetType())
}

func TestPrefixedCacheExpiration(t *testing.T) {
	c, err := New(&config.CacheConfig{Type: config.CacheTypeMemory})
	require.NoError(t, err)

	ctx := context.Background()
	items := NewPrefixedCache[item](c, config.CacheTypeMemory, "items:")
	require.NoError(t, items.Set(ctx, "k", item{Name: "short"}, 20*time.Millisecond))

	time.Sleep(50 * time.Millisecond)
	_, err = items.Get(ctx, "k")
	assert.ErrorIs(t, err, ErrMiss)
}

func TestNewUnknownType(t *testing.T) {
	_, err := New(&config.CacheConfig{Type: "disk"})
	assert.Error(t, err)
}

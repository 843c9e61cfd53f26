package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryRoundTrip(t *testing.T) {
	t.Parallel()

	m := NewMemory()
	ctx := context.Background()

	require.NoError(t, m.Set(ctx, "quote:AAPL", `{"price":175.43}`, time.Minute))

	got, ok, err := m.Get(ctx, "quote:AAPL")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, `{"price":175.43}`, got)
}

func TestMemoryMissingKey(t *testing.T) {
	t.Parallel()

	m := NewMemory()
	_, ok, err := m.Get(context.Background(), "quote:ZZZZ")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestMemoryTTLBoundary(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	m := NewMemory()
	m.now = func() time.Time { return now }
	ctx := context.Background()

	require.NoError(t, m.Set(ctx, "k", "v", 300*time.Second))

	now = now.Add(299 * time.Second)
	_, ok, err := m.Get(ctx, "k")
	require.NoError(t, err)
	assert.True(t, ok, "entry must still be present before the TTL elapses")

	now = now.Add(2 * time.Second)
	_, ok, err = m.Get(ctx, "k")
	require.NoError(t, err)
	assert.False(t, ok, "entry must be absent after the TTL elapses")
}

func TestMemoryOverwriteRenewsTTL(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	m := NewMemory()
	m.now = func() time.Time { return now }
	ctx := context.Background()

	require.NoError(t, m.Set(ctx, "k", "old", 10*time.Second))
	now = now.Add(8 * time.Second)
	require.NoError(t, m.Set(ctx, "k", "new", 10*time.Second))
	now = now.Add(8 * time.Second)

	got, ok, err := m.Get(ctx, "k")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "new", got)
}

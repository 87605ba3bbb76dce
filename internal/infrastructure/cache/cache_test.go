package cache

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStoreExpiry(t *testing.T) {
	store := NewMemoryStore(0)
	defer store.Close()

	before := time.Now()
	store.Raise("forever", 0)
	store.Raise("short", time.Millisecond)
	time.Sleep(5 * time.Millisecond)

	at, ok := store.RaisedAt("forever")
	assert.True(t, ok)
	assert.False(t, at.Before(before))

	_, ok = store.RaisedAt("short")
	assert.False(t, ok)
	assert.Equal(t, 2, store.Len(), "expired flags linger without a sweeper")

	store.Lower("forever")
	_, ok = store.RaisedAt("forever")
	assert.False(t, ok)
}

func TestMemoryStoreSweeps(t *testing.T) {
	store := NewMemoryStore(time.Millisecond)
	defer store.Close()

	store.Raise("k", time.Millisecond)
	assert.Eventually(t, func() bool { return store.Len() == 0 }, time.Second, 5*time.Millisecond)
}

func TestMemoryStopSignal(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore(0)
	defer store.Close()
	signal := NewMemoryStopSignal(store, time.Hour)

	id := uuid.New()
	stopped, err := signal.IsStopRequested(ctx, id)
	require.NoError(t, err)
	assert.False(t, stopped)

	require.NoError(t, signal.RequestStop(ctx, id))
	stopped, err = signal.IsStopRequested(ctx, id)
	require.NoError(t, err)
	assert.True(t, stopped)

	other, err := signal.IsStopRequested(ctx, uuid.New())
	require.NoError(t, err)
	assert.False(t, other)

	require.NoError(t, signal.Clear(ctx, id))
	stopped, err = signal.IsStopRequested(ctx, id)
	require.NoError(t, err)
	assert.False(t, stopped)
}

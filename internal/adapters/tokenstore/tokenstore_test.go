package tokenstore

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStoreConsumesOnce(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	ok, err := s.Consume(ctx, "a", time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = s.Consume(ctx, "a", time.Minute)
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = s.Consume(ctx, "b", time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestMemoryStoreForgetsExpired(t *testing.T) {
	s := NewMemoryStore()
	now := time.Now()
	s.now = func() time.Time { return now }

	ok, _ := s.Consume(context.Background(), "a", time.Second)
	require.True(t, ok)

	now = now.Add(2 * time.Second)
	ok, _ = s.Consume(context.Background(), "b", time.Second)
	require.True(t, ok)
	assert.NotContains(t, s.used, "a")
}

func TestNewWithoutURLUsesMemory(t *testing.T) {
	store, closeFn := New(context.Background(), "")
	_, isMemory := store.(*MemoryStore)
	assert.True(t, isMemory)
	assert.NoError(t, closeFn())
}

package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStoreGetSet(t *testing.T) {
	ctx := context.Background()
	m := NewMemoryStore(time.Minute, 10, 0)
	defer m.Close()

	_, err := m.Get(ctx, "missing")
	assert.ErrorIs(t, err, ErrMiss)

	require.NoError(t, m.Set(ctx, "k", "v"))
	got, err := m.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "v", got)
}

func TestMemoryStoreExpiry(t *testing.T) {
	ctx := context.Background()
	m := NewMemoryStore(time.Minute, 10, 0)
	defer m.Close()

	base := time.Unix(1_700_000_000, 0)
	m.now = func() time.Time { return base }
	require.NoError(t, m.Set(ctx, "k", "v"))

	m.now = func() time.Time { return base.Add(2 * time.Minute) }
	_, err := m.Get(ctx, "k")
	assert.ErrorIs(t, err, ErrMiss)

	m.deleteExpired()
	assert.Zero(t, m.Count())
}

func TestMemoryStoreEvictsWhenFull(t *testing.T) {
	ctx := context.Background()
	m := NewMemoryStore(time.Minute, 2, 0)
	defer m.Close()

	base := time.Unix(1_700_000_000, 0)
	m.now = func() time.Time { return base }
	require.NoError(t, m.Set(ctx, "a", "1"))
	m.now = func() time.Time { return base.Add(time.Second) }
	require.NoError(t, m.Set(ctx, "b", "2"))
	require.NoError(t, m.Set(ctx, "c", "3"))

	assert.Equal(t, 2, m.Count())
	_, err := m.Get(ctx, "a")
	assert.ErrorIs(t, err, ErrMiss)
}

func TestKeyIsStable(t *testing.T) {
	assert.Equal(t, Key("yo"), Key("yo"))
	assert.NotEqual(t, Key("yo"), Key("420"))
	assert.Len(t, Key("anything"), 64)
}

func TestRedisStoreKeyPrefix(t *testing.T) {
	r, err := NewRedisStore("localhost:6379", "epic:", time.Minute)
	require.NoError(t, err)
	defer r.Close()

	assert.Equal(t, "epic:abc", r.key("abc"))
}

package storage

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/angelmondragon/storefront/pkg/redis"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryKVCapacity(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	kv := NewMemoryKV(10)

	_, err := kv.Get(ctx, "a")
	assert.ErrorIs(t, err, ErrAbsent)

	require.NoError(t, kv.Set(ctx, "a", []byte("12345")))
	require.NoError(t, kv.Set(ctx, "b", []byte("12345")))
	assert.ErrorIs(t, kv.Set(ctx, "c", []byte("1")), ErrQuotaExceeded)

	// overwriting a key only counts the delta
	require.NoError(t, kv.Set(ctx, "a", []byte("123")))
	assert.Equal(t, 8, kv.Used())

	got, err := kv.Get(ctx, "a")
	require.NoError(t, err)
	got[0] = 'x'
	again, _ := kv.Get(ctx, "a")
	assert.Equal(t, "123", string(again))
}

func TestMemoryKVHonoursContext(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	kv := NewMemoryKV(0)
	assert.ErrorIs(t, kv.Set(ctx, "a", []byte("1")), context.Canceled)
}

type fakeRedis struct {
	data map[string][]byte
	ttl  time.Duration
	err  error
}

func (f *fakeRedis) GetBytes(_ context.Context, key string) ([]byte, error) {
	if f.err != nil {
		return nil, f.err
	}
	v, ok := f.data[key]
	if !ok {
		return nil, goredis.Nil
	}
	return v, nil
}

func (f *fakeRedis) SetBytes(_ context.Context, key string, value []byte, ttl time.Duration) error {
	if f.err != nil {
		return f.err
	}
	f.data[key] = value
	f.ttl = ttl
	return nil
}

func TestRedisKVMapsMissingKey(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	fake := &fakeRedis{data: map[string][]byte{}}
	kv := NewRedisKV(fake, time.Hour)

	_, err := kv.Get(ctx, "sf:cart:x")
	assert.ErrorIs(t, err, ErrAbsent)

	require.NoError(t, kv.Set(ctx, "sf:cart:x", []byte("v")))
	assert.Equal(t, time.Hour, fake.ttl)
	got, err := kv.Get(ctx, "sf:cart:x")
	require.NoError(t, err)
	assert.Equal(t, "v", string(got))

	fake.err = errors.New("boom")
	_, err = kv.Get(ctx, "sf:cart:x")
	assert.EqualError(t, err, "boom")
	assert.False(t, redis.IsMissing(err))
}

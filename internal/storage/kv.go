package storage

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/angelmondragon/storefront/pkg/redis"
)

var (
	// ErrAbsent is returned by KV.Get when nothing is stored under the key.
	ErrAbsent = errors.New("storage: key absent")
	// ErrQuotaExceeded is returned by KV.Set when the backend is out of room.
	ErrQuotaExceeded = errors.New("storage: quota exceeded")
)

// KV is the device-scoped key/value boundary snapshots are written through.
type KV interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
}

// MemoryKV is an in-process KV. A positive capacity bounds the total number of
// stored bytes across keys.
type MemoryKV struct {
	mu       sync.RWMutex
	data     map[string][]byte
	used     int
	capacity int
}

// NewMemoryKV returns an empty MemoryKV. capacity <= 0 means unbounded.
func NewMemoryKV(capacity int) *MemoryKV {
	return &MemoryKV{data: map[string][]byte{}, capacity: capacity}
}

func (m *MemoryKV) Get(ctx context.Context, key string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	value, ok := m.data[key]
	if !ok {
		return nil, ErrAbsent
	}
	out := make([]byte, len(value))
	copy(out, value)
	return out, nil
}

func (m *MemoryKV) Set(ctx context.Context, key string, value []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	used := m.used - len(m.data[key]) + len(value)
	if m.capacity > 0 && used > m.capacity {
		return ErrQuotaExceeded
	}
	stored := make([]byte, len(value))
	copy(stored, value)
	m.data[key] = stored
	m.used = used
	return nil
}

// Used returns the number of bytes currently stored.
func (m *MemoryKV) Used() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.used
}

type redisClient interface {
	GetBytes(ctx context.Context, key string) ([]byte, error)
	SetBytes(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// RedisKV adapts the redis client to KV. Every write refreshes the TTL.
type RedisKV struct {
	client redisClient
	ttl    time.Duration
}

// NewRedisKV wraps client. ttl <= 0 keeps snapshots forever.
func NewRedisKV(client redisClient, ttl time.Duration) *RedisKV {
	if ttl < 0 {
		ttl = 0
	}
	return &RedisKV{client: client, ttl: ttl}
}

func (r *RedisKV) Get(ctx context.Context, key string) ([]byte, error) {
	value, err := r.client.GetBytes(ctx, key)
	if redis.IsMissing(err) {
		return nil, ErrAbsent
	}
	return value, err
}

func (r *RedisKV) Set(ctx context.Context, key string, value []byte) error {
	return r.client.SetBytes(ctx, key, value, r.ttl)
}

// README: Search-result cache; in-process (ristretto) or shared (redis) byte store keyed by request fingerprint.
package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dgraph-io/ristretto/v2"
	"github.com/redis/go-redis/v9"

	"wondura/internal/config"
	"wondura/internal/infra"
)

// Store is a TTL byte cache. A miss is (nil, false, nil).
type Store interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Close() error
}

// New builds the store selected by cfg.Mode. Mode "off" returns a nil Store and no error.
func New(ctx context.Context, cfg config.CacheConfig) (Store, error) {
	switch cfg.Mode {
	case "", "off":
		return nil, nil
	case "memory":
		m, err := NewMemory(cfg.MaxCostBytes)
		if err != nil {
			return nil, err
		}
		return m, nil
	case "redis":
		client, err := infra.NewRedis(ctx, cfg.RedisAddr)
		if err != nil {
			return nil, err
		}
		return NewRedisStore(client, "wondura:search:"), nil
	default:
		return nil, fmt.Errorf("cache: unknown mode %q", cfg.Mode)
	}
}

// MemoryStore is an in-process L1 cache bounded by total value size.
type MemoryStore struct {
	c *ristretto.Cache[string, []byte]
}

// NewMemory creates a ristretto-backed store. maxCostBytes bounds the total size of cached values.
func NewMemory(maxCostBytes int64) (*MemoryStore, error) {
	if maxCostBytes <= 0 {
		maxCostBytes = 64 << 20
	}
	c, err := ristretto.NewCache(&ristretto.Config[string, []byte]{
		NumCounters: maxCostBytes / 1000 * 10,
		MaxCost:     maxCostBytes,
		BufferItems: 64,
	})
	if err != nil {
		return nil, fmt.Errorf("cache: ristretto: %w", err)
	}
	return &MemoryStore{c: c}, nil
}

func (m *MemoryStore) Get(_ context.Context, key string) ([]byte, bool, error) {
	val, found := m.c.Get(key)
	if !found {
		return nil, false, nil
	}
	return val, true, nil
}

// Set stores value and waits for the write buffer to drain so the value is visible to the next Get.
func (m *MemoryStore) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	m.c.SetWithTTL(key, value, int64(len(value)), ttl)
	m.c.Wait()
	return nil
}

func (m *MemoryStore) Close() error {
	m.c.Close()
	return nil
}

// RedisStore shares cached results between engine instances.
type RedisStore struct {
	client *redis.Client
	prefix string
}

func NewRedisStore(client *redis.Client, prefix string) *RedisStore {
	return &RedisStore{client: client, prefix: prefix}
}

func (r *RedisStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	val, err := r.client.Get(ctx, r.prefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("cache: redis get: %w", err)
	}
	return val, true, nil
}

func (r *RedisStore) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if err := r.client.Set(ctx, r.prefix+key, value, ttl).Err(); err != nil {
		return fmt.Errorf("cache: redis set: %w", err)
	}
	return nil
}

func (r *RedisStore) Close() error {
	return r.client.Close()
}

package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/anoixa/photo-album/cache/types"
	"github.com/dgraph-io/ristretto"
)

// Memory in-process cache backed by ristretto
type Memory struct {
	client *ristretto.Cache

	// counters serializes Increment's read-modify-write.
	counters sync.Mutex
}

// Config 内存缓存配置
type Config struct {
	NumCounters int64
	MaxCost     int64
	BufferItems int64
	Metrics     bool
}

// DefaultConfig suits small deployments (about 64MB of entries).
func DefaultConfig() Config {
	return Config{
		NumCounters: 100_000,
		MaxCost:     64 << 20,
		BufferItems: 64,
	}
}

// NewMemory 创建新的内存缓存提供者
func NewMemory(config Config) (*Memory, error) {
	client, err := ristretto.NewCache(&ristretto.Config{
		NumCounters: config.NumCounters,
		MaxCost:     config.MaxCost,
		BufferItems: config.BufferItems,
		Metrics:     config.Metrics,
	})
	if err != nil {
		return nil, err
	}

	return &Memory{client: client}, nil
}

// Set stores the JSON encoding of value so Get behaves like the redis provider.
func (m *Memory) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to encode cache value: %w", err)
	}
	m.client.SetWithTTL(key, data, int64(len(data)), expiration)
	m.client.Wait()
	return nil
}

// Get 获取缓存项
func (m *Memory) Get(ctx context.Context, key string, dest interface{}) error {
	value, found := m.client.Get(key)
	if !found {
		return types.ErrCacheMiss
	}
	data, ok := value.([]byte)
	if !ok {
		return types.ErrCacheMiss
	}
	return json.Unmarshal(data, dest)
}

// Delete 删除缓存项
func (m *Memory) Delete(ctx context.Context, key string) error {
	m.client.Del(key)
	return nil
}

// Exists 检查缓存项是否存在
func (m *Memory) Exists(ctx context.Context, key string) (bool, error) {
	_, found := m.client.Get(key)
	return found, nil
}

type counter struct {
	Value     int64     `json:"value"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Increment keeps the counter's original expiry on every update.
func (m *Memory) Increment(ctx context.Context, key string, expiration time.Duration) (int64, error) {
	m.counters.Lock()
	defer m.counters.Unlock()

	var c counter
	if err := m.Get(ctx, key, &c); err != nil {
		if !types.IsCacheMiss(err) {
			return 0, err
		}
		c = counter{}
		if expiration > 0 {
			c.ExpiresAt = time.Now().Add(expiration)
		}
	}
	c.Value++

	ttl := time.Duration(0)
	if !c.ExpiresAt.IsZero() {
		ttl = time.Until(c.ExpiresAt)
		if ttl <= 0 {
			m.client.Del(key)
			return c.Value, nil
		}
	}
	if err := m.Set(ctx, key, c, ttl); err != nil {
		return 0, err
	}
	return c.Value, nil
}

func (m *Memory) Ping(ctx context.Context) error {
	return nil
}

// Close 关闭缓存
func (m *Memory) Close() error {
	m.client.Close()
	return nil
}

// Name 返回缓存提供者名称
func (m *Memory) Name() string {
	return "memory"
}

var _ types.Provider = (*Memory)(nil)

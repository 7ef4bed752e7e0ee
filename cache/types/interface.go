package types

import (
	"context"
	"errors"
	"time"
)

// Provider 缓存提供者接口
type Provider interface {
	// Set stores value for expiration; zero means no expiry.
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error

	// Get decodes the cached value into dest or returns ErrCacheMiss.
	Get(ctx context.Context, key string, dest interface{}) error

	Delete(ctx context.Context, key string) error

	Exists(ctx context.Context, key string) (bool, error)

	// Increment adds one to a counter and returns the new value. The
	// expiration is applied when the counter is created.
	Increment(ctx context.Context, key string, expiration time.Duration) (int64, error)

	Ping(ctx context.Context) error

	Close() error

	// Name 返回缓存提供者名称
	Name() string
}

// ErrCacheMiss 缓存未命中错误
var ErrCacheMiss = errors.New("cache miss")

// IsCacheMiss 判断是否为缓存未命中错误
func IsCacheMiss(err error) bool {
	return errors.Is(err, ErrCacheMiss)
}

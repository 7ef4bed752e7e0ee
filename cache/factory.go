package cache

import (
	"context"
	"fmt"

	"github.com/anoixa/photo-album/cache/memory"
	"github.com/anoixa/photo-album/cache/redis"
	"github.com/anoixa/photo-album/cache/types"
	"github.com/anoixa/photo-album/config"
	"github.com/sirupsen/logrus"
)

// Provider 缓存提供者
type Provider = types.Provider

// ErrCacheMiss 缓存未命中
var ErrCacheMiss = types.ErrCacheMiss

// IsCacheMiss 判断是否为缓存未命中错误
func IsCacheMiss(err error) bool {
	return types.IsCacheMiss(err)
}

// NewProvider builds the cache selected by cache_type.
func NewProvider(ctx context.Context, cfg *config.Config) (Provider, error) {
	switch cfg.CacheType {
	case "redis":
		provider, err := redis.NewRedis(ctx, redis.Config{
			Addr:     cfg.CacheRedisAddr,
			Password: cfg.CacheRedisPassword,
			DB:       cfg.CacheRedisDB,
		})
		if err != nil {
			return nil, err
		}
		logrus.WithField("addr", cfg.CacheRedisAddr).Info("Using redis cache")
		return provider, nil

	case "memory", "":
		provider, err := memory.NewMemory(memory.DefaultConfig())
		if err != nil {
			return nil, fmt.Errorf("failed to create memory cache: %w", err)
		}
		logrus.Info("Using in-memory cache")
		return provider, nil

	default:
		return nil, fmt.Errorf("unsupported cache type: %s", cfg.CacheType)
	}
}

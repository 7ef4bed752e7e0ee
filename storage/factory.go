package storage

import (
	"context"
	"fmt"

	"github.com/anoixa/photo-album/config"
	"github.com/sirupsen/logrus"
)

// Factory 存储工厂 - 负责创建和管理存储提供者
type Factory struct {
	providers       map[string]Provider
	defaultProvider string
}

// NewFactory initializes the provider selected by storage_type.
func NewFactory(ctx context.Context, cfg *config.Config) (*Factory, error) {
	var (
		provider Provider
		err      error
	)

	switch cfg.StorageType {
	case "local", "":
		provider, err = NewLocalStorage(cfg.UploadDir)
	case "minio":
		provider, err = NewMinioStorage(ctx, MinioConfig{
			Endpoint:        cfg.MinioEndpoint,
			AccessKeyID:     cfg.MinioAccessKeyID,
			SecretAccessKey: cfg.MinioSecretAccessKey,
			BucketName:      cfg.MinioBucketName,
			UseSSL:          cfg.MinioUseSSL,
		})
	case "webdav":
		provider, err = NewWebDAVStorage(ctx, WebDAVConfig{
			URL:      cfg.WebDAVURL,
			Username: cfg.WebDAVUsername,
			Password: cfg.WebDAVPassword,
			RootPath: cfg.WebDAVRootPath,
			Timeout:  cfg.WebDAVTimeout,
		})
	default:
		return nil, fmt.Errorf("unsupported storage type: %s", cfg.StorageType)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to initialize %s storage: %w", cfg.StorageType, err)
	}

	logrus.WithField("provider", provider.Name()).Info("Storage provider initialized")
	return NewFactoryWithProvider(provider), nil
}

// NewFactoryWithProvider registers provider as the default.
func NewFactoryWithProvider(provider Provider) *Factory {
	return &Factory{
		providers:       map[string]Provider{provider.Name(): provider},
		defaultProvider: provider.Name(),
	}
}

// Get 获取指定名称的存储提供者
func (f *Factory) Get(name string) (Provider, error) {
	if name == "" {
		name = f.defaultProvider
	}

	provider, ok := f.providers[name]
	if !ok {
		return nil, fmt.Errorf("storage provider '%s' not found", name)
	}
	return provider, nil
}

// GetDefault 获取默认存储提供者
func (f *Factory) GetDefault() Provider {
	provider, _ := f.Get(f.defaultProvider)
	return provider
}

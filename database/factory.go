package database

import (
	"fmt"

	"github.com/anoixa/photo-album/config"
	"github.com/anoixa/photo-album/database/models"
	"github.com/sirupsen/logrus"
)

// Factory owns the database provider.
type Factory struct {
	provider Provider
}

// NewFactory 创建新的数据库工厂
func NewFactory(cfg *config.Config) (*Factory, error) {
	provider, err := NewGormProvider(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database provider: %w", err)
	}

	logrus.Infof("Database provider '%s' initialized", provider.Name())
	return &Factory{provider: provider}, nil
}

// NewFactoryWithProvider wraps an existing provider.
func NewFactoryWithProvider(provider Provider) *Factory {
	return &Factory{provider: provider}
}

// GetProvider 获取数据库提供者
func (f *Factory) GetProvider() Provider {
	return f.provider
}

// Close 关闭数据库连接
func (f *Factory) Close() error {
	if f.provider != nil {
		return f.provider.Close()
	}
	return nil
}

// AutoMigrate creates or updates the users and photos tables.
func (f *Factory) AutoMigrate() error {
	if f.provider == nil {
		return fmt.Errorf("database provider not initialized")
	}
	return Migrate(f.provider)
}

// Migrate runs the schema migration on provider.
func Migrate(provider Provider) error {
	logrus.Debug("Running database auto migration...")
	if err := provider.AutoMigrate(&models.User{}, &models.Photo{}); err != nil {
		return fmt.Errorf("failed to auto migrate database: %w", err)
	}
	return nil
}

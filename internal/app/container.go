package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/anoixa/photo-album/cache"
	"github.com/anoixa/photo-album/config"
	"github.com/anoixa/photo-album/database"
	"github.com/anoixa/photo-album/database/repo/accounts"
	"github.com/anoixa/photo-album/database/repo/photos"
	"github.com/anoixa/photo-album/internal/auth"
	"github.com/anoixa/photo-album/internal/dashboard"
	"github.com/anoixa/photo-album/internal/mail"
	"github.com/anoixa/photo-album/internal/oauth"
	"github.com/anoixa/photo-album/internal/worker"
	photosvc "github.com/anoixa/photo-album/internal/photos"
	"github.com/anoixa/photo-album/storage"
)

// Container 依赖注入容器 - 管理所有服务的生命周期
type Container struct {
	config          *config.Config
	databaseFactory *database.Factory
	storageFactory  *storage.Factory
	cacheProvider   cache.Provider
	mailer          mail.Mailer
	oauthProvider   oauth.Provider
	workerPool      *worker.Pool

	AccountsRepo *accounts.Repository
	PhotosRepo   *photos.Repository

	AuthService  *auth.Service
	PhotoService *photosvc.Service
	StatsService *dashboard.Service
}

// NewContainer 创建新的依赖注入容器
func NewContainer(cfg *config.Config) *Container {
	return &Container{
		config: cfg,
	}
}

// Init opens every backend, migrates the schema and builds the services.
// On error the already opened backends are closed.
func (c *Container) Init(ctx context.Context) (err error) {
	logrus.Debug("Initializing DI container...")
	defer func() {
		if err != nil {
			_ = c.Close()
		}
	}()

	if err := c.InitDatabase(); err != nil {
		return err
	}
	if err := c.initStorage(ctx); err != nil {
		return fmt.Errorf("failed to initialize storage: %w", err)
	}
	if err := c.initCache(ctx); err != nil {
		return fmt.Errorf("failed to initialize cache: %w", err)
	}
	c.initMailer()
	c.initOAuth()

	if err := c.initServices(); err != nil {
		return fmt.Errorf("failed to initialize services: %w", err)
	}

	logrus.Debug("DI container initialized successfully")
	return nil
}

// InitDatabase opens and migrates the database and builds the repositories.
func (c *Container) InitDatabase() error {
	factory, err := database.NewFactory(c.config)
	if err != nil {
		return fmt.Errorf("failed to initialize database factory: %w", err)
	}
	c.databaseFactory = factory

	if err := factory.AutoMigrate(); err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}

	provider := factory.GetProvider()
	c.AccountsRepo = accounts.NewRepository(provider)
	c.PhotosRepo = photos.NewRepository(provider)
	logrus.WithField("driver", provider.Name()).Info("Database initialized")
	return nil
}

func (c *Container) initStorage(ctx context.Context) error {
	factory, err := storage.NewFactory(ctx, c.config)
	if err != nil {
		return err
	}
	c.storageFactory = factory
	return nil
}

func (c *Container) initCache(ctx context.Context) error {
	provider, err := cache.NewProvider(ctx, c.config)
	if err != nil {
		return err
	}
	c.cacheProvider = provider
	logrus.WithField("provider", provider.Name()).Info("Cache initialized")
	return nil
}

func (c *Container) initMailer() {
	c.mailer = mail.NewMailer(c.config)
}

func (c *Container) initOAuth() {
	provider, err := oauth.NewProvider(c.config)
	if err != nil {
		if !errors.Is(err, oauth.ErrDisabled) {
			logrus.WithError(err).Warn("OAuth login disabled")
		}
		return
	}
	c.oauthProvider = provider
}

func (c *Container) initServices() error {
	authService, err := auth.NewService(c.AccountsRepo, c.cacheProvider, c.mailer, c.storageFactory.GetDefault(), auth.Options{
		Secret:         c.config.SecretKey,
		BaseURL:        c.config.BaseURL(),
		ResetTokenTTL:  c.config.ResetTokenTTL,
		OTPTTL:         c.config.OTPTTL,
		OTPMaxAttempts: c.config.OTPMaxAttempts,
	})
	if err != nil {
		return err
	}
	c.AuthService = authService

	c.PhotoService = photosvc.NewService(
		c.PhotosRepo,
		c.AccountsRepo,
		c.storageFactory.GetDefault(),
		int64(c.config.UploadMaxSizeMB)<<20,
	)

	c.workerPool = worker.NewPool(c.config.ThumbnailWorkers, c.config.ThumbnailQueueSize)
	c.PhotoService.EnableThumbnails(poolSubmitter{c.workerPool}, c.config.ThumbnailSize)

	c.StatsService = dashboard.NewService(c.PhotosRepo, c.cacheProvider)
	c.PhotoService.OnChange(c.StatsService.Invalidate)
	return nil
}

// poolSubmitter adapts the worker pool to photos.Submitter.
type poolSubmitter struct{ pool *worker.Pool }

func (p poolSubmitter) Submit(task func()) bool {
	return p.pool.Submit(task)
}

// GetWorkerStats 后台任务统计
func (c *Container) GetWorkerStats() worker.Stats {
	if c.workerPool == nil {
		return worker.Stats{}
	}
	return c.workerPool.GetStats()
}

// GetConfig 获取配置
func (c *Container) GetConfig() *config.Config {
	return c.config
}

// GetDatabaseProvider 获取数据库提供者
func (c *Container) GetDatabaseProvider() database.Provider {
	if c.databaseFactory == nil {
		return nil
	}
	return c.databaseFactory.GetProvider()
}

// GetStorage 获取默认存储
func (c *Container) GetStorage() storage.Provider {
	if c.storageFactory == nil {
		return nil
	}
	return c.storageFactory.GetDefault()
}

// GetCache 获取缓存提供者
func (c *Container) GetCache() cache.Provider {
	return c.cacheProvider
}

// GetOAuthProvider returns nil when OAuth login is not configured.
func (c *Container) GetOAuthProvider() oauth.Provider {
	return c.oauthProvider
}

// Close 关闭所有服务
func (c *Container) Close() error {
	logrus.Debug("Closing DI container...")

	var errs []error
	if c.workerPool != nil {
		c.workerPool.Stop()
		c.workerPool = nil
	}
	if c.cacheProvider != nil {
		if err := c.cacheProvider.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close cache: %w", err))
		}
		c.cacheProvider = nil
	}
	if c.databaseFactory != nil {
		if err := c.databaseFactory.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close database: %w", err))
		}
		c.databaseFactory = nil
	}
	return errors.Join(errs...)
}

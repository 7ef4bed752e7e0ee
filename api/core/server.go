package core

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/anoixa/photo-album/api/handler/page"
	"github.com/anoixa/photo-album/api/middleware"
	"github.com/anoixa/photo-album/config"
	"github.com/anoixa/photo-album/internal/app"
	"github.com/anoixa/photo-album/web"
)

const maxConcurrentRequests = 100

// setupRouter builds the engine. The returned func stops background workers.
func setupRouter(container *app.Container) (*gin.Engine, func(), error) {
	cfg := container.GetConfig()

	renderer, err := web.NewRenderer()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load templates: %w", err)
	}

	if !config.IsDevelopment() {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.HTMLRender = renderer
	_ = router.SetTrustedProxies(nil)

	maxUpload := container.PhotoService.MaxUploadBytes()
	router.MaxMultipartMemory = maxUpload

	router.Use(middleware.RequestLogger())
	router.Use(gin.CustomRecovery(func(c *gin.Context, recovered any) {
		logrus.WithField("panic", recovered).Error("Recovered from panic")
		page.Error(c)
		c.Abort()
	}))
	if len(cfg.CORSAllowOrigins) > 0 {
		router.Use(cors.New(cors.Config{
			AllowOrigins:     cfg.CORSAllowOrigins,
			AllowMethods:     []string{"GET", "HEAD", "OPTIONS"},
			AllowHeaders:     []string{"Origin", "Content-Type", "Accept"},
			AllowCredentials: true,
			MaxAge:           12 * time.Hour,
		}))
	}

	// 并发限制
	router.Use(middleware.NewConcurrencyLimiter(maxConcurrentRequests).Middleware())

	// 请求体大小限制, slack for multipart framing and form fields
	router.Use(middleware.MaxBytesReader(2*maxUpload + 1<<20))

	router.StaticFS("/static", http.FS(web.Static()))

	router.Use(middleware.Sessions(cfg))
	router.Use(middleware.LoadUser(container.AuthService))
	router.Use(middleware.CSRF(page.CSRFFailed))

	authRateLimiter := middleware.NewIPRateLimiter(cfg.RateLimitAuthRPS, cfg.RateLimitAuthBurst, cfg.RateLimitExpireTime).
		OnLimit(func(c *gin.Context) {
			page.FlashRedirect(c, middleware.FlashWarning, "Too many attempts. Please wait a moment and try again.", c.Request.URL.Path)
		})

	RegisterRoutes(router, &RouterDependencies{
		Container:       container,
		AuthRateLimiter: authRateLimiter,
	})

	return router, authRateLimiter.StopCleanup, nil
}

// StartServer 创建 http.Server
func StartServer(container *app.Container) (*http.Server, func(), error) {
	cfg := container.GetConfig()
	router, cleanup, err := setupRouter(container)
	if err != nil {
		return nil, nil, err
	}

	srv := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      router,
		ReadTimeout:  cfg.ServerReadTimeout,
		WriteTimeout: cfg.ServerWriteTimeout,
		IdleTimeout:  cfg.ServerIdleTimeout,
	}
	return srv, cleanup, nil
}

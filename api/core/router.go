package core

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/anoixa/photo-album/api/common"
	"github.com/anoixa/photo-album/api/handler/account"
	"github.com/anoixa/photo-album/api/handler/page"
	handlerPhotos "github.com/anoixa/photo-album/api/handler/photos"
	v1 "github.com/anoixa/photo-album/api/handler/v1"
	"github.com/anoixa/photo-album/api/middleware"
	"github.com/anoixa/photo-album/config"
	"github.com/anoixa/photo-album/internal/app"
)

// RouterDependencies 路由注册依赖
type RouterDependencies struct {
	Container       *app.Container
	AuthRateLimiter *middleware.IPRateLimiter
}

// RegisterRoutes 注册所有路由
func RegisterRoutes(router *gin.Engine, deps *RouterDependencies) {
	registerBasicRoutes(router, deps)
	registerPageRoutes(router, deps)
	registerAPIRoutes(router, deps)

	router.NoRoute(func(c *gin.Context) {
		if common.WantsJSON(c) {
			common.RespondError(c, http.StatusNotFound, "Not found")
			return
		}
		page.NotFound(c)
	})
}

// registerBasicRoutes 健康检查与版本
func registerBasicRoutes(router *gin.Engine, deps *RouterDependencies) {
	ct := deps.Container
	healthHandler := NewHealthHandler(ct.GetDatabaseProvider(), ct.GetStorage(), ct.GetCache())
	router.GET("/health", healthHandler.Handle)

	router.GET("/version", func(c *gin.Context) {
		common.RespondSuccess(c, gin.H{
			"version": config.Version,
			"commit":  config.CommitHash,
			"metrics": middleware.GetMetrics(),
			"workers": ct.GetWorkerStats(),
		})
	})
}

// registerPageRoutes HTML 页面路由
func registerPageRoutes(router *gin.Engine, deps *RouterDependencies) {
	ct := deps.Container
	accountHandler := account.NewHandler(ct.AuthService, ct.PhotoService, ct.StatsService, ct.GetOAuthProvider())
	photoHandler := handlerPhotos.NewHandler(ct.PhotoService)
	limited := deps.AuthRateLimiter.Middleware()
	guest := middleware.RedirectIfLoggedIn("/home")

	router.GET("/", guest, accountHandler.LoginPage)
	router.GET("/login", guest, accountHandler.LoginPage)
	router.POST("/login", limited, accountHandler.Login)
	router.GET("/create_user", guest, accountHandler.RegisterPage)
	router.POST("/create_user", limited, accountHandler.Register)
	router.GET("/login/oauth", accountHandler.OAuthStart)
	router.GET("/login/callback", accountHandler.OAuthCallback)
	router.GET("/logout", accountHandler.Logout)
	router.GET("/contact", page.Contact)

	// password reset
	router.GET("/reset_password", accountHandler.ResetRequestPage)
	router.POST("/reset_password", limited, accountHandler.ResetRequest)
	router.GET("/reset_password/:token", accountHandler.ResetTokenPage)
	router.POST("/reset_password/:token", limited, accountHandler.ResetToken)
	router.GET("/reset_otp", accountHandler.OTPRequestPage)
	router.POST("/reset_otp", limited, accountHandler.OTPRequest)
	router.GET("/reset_otp/verify", accountHandler.OTPVerifyPage)
	router.POST("/reset_otp/verify", limited, accountHandler.OTPVerify)

	authed := router.Group("/")
	authed.Use(middleware.RequireLogin())
	{
		authed.GET("/home", photoHandler.Home)
		authed.POST("/upload_photo", photoHandler.Upload)
		authed.GET("/photo/:id/edit", photoHandler.EditPage)
		authed.POST("/photo/:id/edit", photoHandler.Edit)
		authed.POST("/photo/:id/delete", photoHandler.Delete)
		authed.POST("/photo/:id/favorite", photoHandler.Favorite)
		authed.GET("/uploads/:filename", photoHandler.Serve)

		authed.GET("/profile", accountHandler.ProfilePage)
		authed.POST("/profile", accountHandler.Profile)
		authed.POST("/profile/photo", accountHandler.ProfilePhoto)
	}
}

// registerAPIRoutes JSON 只读接口
func registerAPIRoutes(router *gin.Engine, deps *RouterDependencies) {
	apiHandler := v1.NewHandler(deps.Container.PhotoService, deps.Container.StatsService)

	apiGroup := router.Group("/api/v1")
	apiGroup.Use(func(c *gin.Context) { // 所有API禁止缓存
		c.Header("Cache-Control", "no-store")
		c.Next()
	})
	apiGroup.Use(middleware.RequireLogin())
	{
		apiGroup.GET("/me", apiHandler.Me)         // GET /api/v1/me
		apiGroup.GET("/photos", apiHandler.Photos) // GET /api/v1/photos
		apiGroup.GET("/stats", apiHandler.Stats)   // GET /api/v1/stats
	}
}

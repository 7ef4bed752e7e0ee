package core

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/anoixa/photo-album/cache"
	"github.com/anoixa/photo-album/config"
	"github.com/anoixa/photo-album/database"
	"github.com/anoixa/photo-album/storage"
)

const healthCheckTimeout = 3 * time.Second

var startTime = time.Now()

// HealthHandler reports database, storage and cache status.
type HealthHandler struct {
	db    database.Provider
	files storage.Provider
	cache cache.Provider
}

// NewHealthHandler 健康检查处理器
func NewHealthHandler(db database.Provider, files storage.Provider, cacheProvider cache.Provider) *HealthHandler {
	return &HealthHandler{db: db, files: files, cache: cacheProvider}
}

// Handle 503 when the database or storage is down. The cache is informational.
func (h *HealthHandler) Handle(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), healthCheckTimeout)
	defer cancel()

	checks := gin.H{
		"database": checkDatabaseHealth(h.db),
		"storage":  checkStorageHealth(ctx, h.files),
		"cache":    checkCacheHealth(ctx, h.cache),
	}

	status := "ok"
	httpStatus := http.StatusOK
	if checks["database"] != "ok" || checks["storage"] != "ok" {
		status = "degraded"
		httpStatus = http.StatusServiceUnavailable
	}

	c.JSON(httpStatus, gin.H{
		"status":  status,
		"uptime":  time.Since(startTime).Round(time.Second).String(),
		"version": config.Version,
		"checks":  checks,
	})
}

func checkDatabaseHealth(provider database.Provider) string {
	if provider == nil {
		return "not initialized"
	}
	if err := provider.Ping(); err != nil {
		return "unavailable: " + err.Error()
	}
	return "ok"
}

func checkStorageHealth(ctx context.Context, provider storage.Provider) string {
	if provider == nil {
		return "not initialized"
	}
	if err := provider.Health(ctx); err != nil {
		return "error: " + err.Error()
	}
	return "ok"
}

func checkCacheHealth(ctx context.Context, provider cache.Provider) string {
	if provider == nil {
		return "not initialized"
	}
	if err := provider.Ping(ctx); err != nil {
		return "unavailable: " + err.Error()
	}
	return "ok"
}

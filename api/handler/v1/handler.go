// Package v1 is the read-only JSON API for the logged-in session.
package v1

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/anoixa/photo-album/api/common"
	"github.com/anoixa/photo-album/api/middleware"
	"github.com/anoixa/photo-album/database/models"
	"github.com/anoixa/photo-album/internal/dashboard"
	"github.com/anoixa/photo-album/internal/photos"
)

// Handler JSON API 处理器
type Handler struct {
	photos *photos.Service
	stats  *dashboard.Service
}

// NewHandler JSON API 处理器
func NewHandler(photoService *photos.Service, stats *dashboard.Service) *Handler {
	return &Handler{photos: photoService, stats: stats}
}

type meResponse struct {
	*models.User
	PhotoCount int64 `json:"photo_count"`
}

type photoResponse struct {
	models.Photo
	URL     string   `json:"url"`
	TagList []string `json:"tag_list"`
}

// Me 当前用户信息
func (h *Handler) Me(c *gin.Context) {
	user := middleware.CurrentUser(c)
	count, err := h.photos.Count(c.Request.Context(), user)
	if err != nil {
		common.RespondError(c, http.StatusInternalServerError, "Failed to load account")
		return
	}
	common.RespondSuccess(c, meResponse{User: user, PhotoCount: count})
}

// Photos 当前用户照片列表
func (h *Handler) Photos(c *gin.Context) {
	filter := photos.Filter{
		FavoritesOnly: c.Query("favorites") == "1" || c.Query("favorites") == "true",
		Tag:           strings.TrimSpace(c.Query("tag")),
	}

	list, err := h.photos.List(c.Request.Context(), middleware.CurrentUser(c), filter)
	if err != nil {
		common.RespondError(c, http.StatusInternalServerError, "Failed to list photos")
		return
	}

	out := make([]photoResponse, 0, len(list))
	for _, p := range list {
		out = append(out, photoResponse{Photo: p, URL: "/uploads/" + p.Filename, TagList: p.TagList()})
	}
	common.RespondSuccess(c, gin.H{"photos": out, "total": len(out)})
}

// Stats album statistics of the current user
func (h *Handler) Stats(c *gin.Context) {
	stats, err := h.stats.GetStats(c.Request.Context(), middleware.CurrentUser(c).ID)
	if err != nil {
		common.RespondError(c, http.StatusInternalServerError, "Failed to load statistics")
		return
	}
	common.RespondSuccess(c, stats)
}

package account

import (
	"github.com/anoixa/photo-album/internal/auth"
	"github.com/anoixa/photo-album/internal/dashboard"
	"github.com/anoixa/photo-album/internal/oauth"
	"github.com/anoixa/photo-album/internal/photos"
)

// Handler 账户相关页面处理器
type Handler struct {
	auth   *auth.Service
	photos *photos.Service
	stats  *dashboard.Service
	oauth  oauth.Provider // nil when single sign-on is not configured
}

// NewHandler 账户处理器
func NewHandler(authService *auth.Service, photoService *photos.Service, stats *dashboard.Service, oauthProvider oauth.Provider) *Handler {
	return &Handler{
		auth:   authService,
		photos: photoService,
		stats:  stats,
		oauth:  oauthProvider,
	}
}

package photos

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/anoixa/photo-album/api/handler/page"
	"github.com/anoixa/photo-album/api/middleware"
	photoSvc "github.com/anoixa/photo-album/internal/photos"
)

// Home 相册首页, ?favorites=1 and ?tag= filter the grid
func (h *Handler) Home(c *gin.Context) {
	user := middleware.CurrentUser(c)
	filter := photoSvc.Filter{
		FavoritesOnly: c.Query("favorites") == "1",
		Tag:           strings.TrimSpace(c.Query("tag")),
	}

	ctx := c.Request.Context()
	list, err := h.photos.List(ctx, user, filter)
	if err != nil {
		middleware.AddFlash(c, middleware.FlashDanger, page.MsgSomethingWrong)
	}
	count, _ := h.photos.Count(ctx, user)

	page.Render(c, http.StatusOK, "home", "Home", gin.H{
		"Photos":      list,
		"Favorites":   filter.FavoritesOnly,
		"Tag":         filter.Tag,
		"Count":       count,
		"MaxUploadMB": h.photos.MaxUploadBytes() >> 20,
	})
}

// Upload 上传照片
func (h *Handler) Upload(c *gin.Context) {
	user := middleware.CurrentUser(c)

	file, closeFile, err := page.FormFile(c, "photo")
	if err != nil {
		page.FlashRedirect(c, middleware.FlashDanger, page.MsgSomethingWrong, "/home")
		return
	}
	defer closeFile()

	var form metadataForm
	if err := c.ShouldBind(&form); err != nil {
		page.FlashRedirect(c, middleware.FlashDanger, "Title, location or tags are too long.", "/home")
		return
	}

	if _, err := h.photos.Upload(c.Request.Context(), user, file, form.metadata()); err != nil {
		page.FlashRedirect(c, middleware.FlashDanger, page.PhotoErrorMessage(err, h.photos.MaxUploadBytes()), "/home")
		return
	}
	page.FlashRedirect(c, middleware.FlashSuccess, "Photo uploaded successfully.", "/home")
}

// Serve streams an owned file; ?size=thumb prefers the generated thumbnail.
func (h *Handler) Serve(c *gin.Context) {
	user := middleware.CurrentUser(c)

	open := h.photos.Open
	if c.Query("size") == "thumb" {
		open = h.photos.OpenThumbnail
	}
	obj, err := open(c.Request.Context(), user, c.Param("filename"))
	if err != nil {
		if errors.Is(err, photoSvc.ErrNotFound) {
			page.NotFound(c)
			return
		}
		page.Error(c)
		return
	}
	defer obj.Reader.Close()

	size := obj.Size
	if size <= 0 {
		size = -1
	}
	headers := map[string]string{
		"Cache-Control":          "private, max-age=3600",
		"X-Content-Type-Options": "nosniff",
	}
	if !obj.ModTime.IsZero() {
		headers["Last-Modified"] = obj.ModTime.UTC().Format(http.TimeFormat)
	}
	c.DataFromReader(http.StatusOK, size, obj.ContentType, obj.Reader, headers)
}

package photos

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/anoixa/photo-album/api/common"
	"github.com/anoixa/photo-album/api/handler/page"
	"github.com/anoixa/photo-album/api/middleware"
	photoSvc "github.com/anoixa/photo-album/internal/photos"
)

// failure maps a photo error to a redirect home.
func (h *Handler) failure(c *gin.Context, err error) {
	page.FlashRedirect(c, middleware.FlashDanger, page.PhotoErrorMessage(err, h.photos.MaxUploadBytes()), "/home")
}

// EditPage 编辑照片信息页
func (h *Handler) EditPage(c *gin.Context) {
	photo, err := h.photos.Get(c.Request.Context(), middleware.CurrentUser(c), photoID(c))
	if err != nil {
		h.failure(c, err)
		return
	}
	page.Render(c, http.StatusOK, "edit_photo", "Edit Photo", gin.H{"Photo": photo})
}

// Edit 保存照片信息
func (h *Handler) Edit(c *gin.Context) {
	var form metadataForm
	if err := c.ShouldBind(&form); err != nil {
		page.FlashRedirect(c, middleware.FlashDanger, "Title, location or tags are too long.", c.Request.URL.Path)
		return
	}

	if _, err := h.photos.Edit(c.Request.Context(), middleware.CurrentUser(c), photoID(c), form.metadata()); err != nil {
		h.failure(c, err)
		return
	}
	page.FlashRedirect(c, middleware.FlashSuccess, "Photo updated.", "/home")
}

// Delete 删除照片
func (h *Handler) Delete(c *gin.Context) {
	if err := h.photos.Delete(c.Request.Context(), middleware.CurrentUser(c), photoID(c)); err != nil {
		h.failure(c, err)
		return
	}
	page.FlashRedirect(c, middleware.FlashSuccess, "Photo deleted.", "/home")
}

// Favorite toggles the flag. JSON callers get the new state.
func (h *Handler) Favorite(c *gin.Context) {
	favorite, err := h.photos.ToggleFavorite(c.Request.Context(), middleware.CurrentUser(c), photoID(c))
	if common.WantsJSON(c) {
		switch {
		case err == nil:
			common.RespondSuccess(c, gin.H{"favorite": favorite})
		case errors.Is(err, photoSvc.ErrNotFound), errors.Is(err, photoSvc.ErrForbidden):
			common.RespondError(c, http.StatusNotFound, "Photo not found")
		default:
			common.RespondError(c, http.StatusInternalServerError, "Internal error")
		}
		return
	}

	if err != nil {
		h.failure(c, err)
		return
	}
	page.Redirect(c, "/home")
}

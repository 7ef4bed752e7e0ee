package account

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/anoixa/photo-album/api/handler/page"
	"github.com/anoixa/photo-album/api/middleware"
	"github.com/anoixa/photo-album/internal/auth"
)

type profileForm struct {
	Name     string `form:"name"`
	Username string `form:"username"`
	Email    string `form:"email"`
}

// ProfilePage 个人资料页
func (h *Handler) ProfilePage(c *gin.Context) {
	user := middleware.CurrentUser(c)
	stats, err := h.stats.GetStats(c.Request.Context(), user.ID)
	if err != nil {
		logrus.WithField("user_id", user.ID).WithError(err).Warn("[Account] failed to load album stats")
	}
	page.Render(c, http.StatusOK, "profile", "Profile", gin.H{"Stats": stats})
}

// Profile handles both the update and the delete form.
func (h *Handler) Profile(c *gin.Context) {
	switch {
	case c.PostForm("delete_acc") != "":
		h.deleteAccount(c)
	case c.PostForm("update_profile") != "":
		h.updateProfile(c)
	default:
		page.Redirect(c, "/profile")
	}
}

func (h *Handler) updateProfile(c *gin.Context) {
	user := middleware.CurrentUser(c)

	var form profileForm
	_ = c.ShouldBind(&form)

	_, err := h.auth.UpdateProfile(c.Request.Context(), user.ID, form.Username, form.Name, form.Email)
	if err != nil {
		var msg string
		switch {
		case errors.Is(err, auth.ErrUsernameTaken):
			msg = "Username already exists!"
		case errors.Is(err, auth.ErrEmailTaken):
			msg = "Email address already exists!"
		case errors.Is(err, auth.ErrInvalidInput):
			msg = "Name, username and a valid email are required."
		default:
			msg = "Failed to update information."
		}
		page.FlashRedirect(c, middleware.FlashDanger, msg, "/profile")
		return
	}

	page.FlashRedirect(c, middleware.FlashInfo, "Information updated successfully.", "/profile")
}

func (h *Handler) deleteAccount(c *gin.Context) {
	user := middleware.CurrentUser(c)
	if err := h.auth.DeleteAccount(c.Request.Context(), user.ID); err != nil {
		page.FlashRedirect(c, middleware.FlashDanger, "Failed to delete account.", "/profile")
		return
	}
	h.stats.Invalidate(c.Request.Context(), user.ID)

	middleware.Logout(c)
	page.FlashRedirect(c, middleware.FlashDanger, "Account deleted successfully.", "/")
}

// ProfilePhoto replaces the user's profile picture.
func (h *Handler) ProfilePhoto(c *gin.Context) {
	user := middleware.CurrentUser(c)

	file, closeFile, err := page.FormFile(c, "photo")
	if err != nil {
		page.FlashRedirect(c, middleware.FlashDanger, page.MsgSomethingWrong, "/profile")
		return
	}
	defer closeFile()

	if _, err := h.photos.SetProfilePhoto(c.Request.Context(), user, file); err != nil {
		page.FlashRedirect(c, middleware.FlashDanger, page.PhotoErrorMessage(err, h.photos.MaxUploadBytes()), "/profile")
		return
	}
	page.FlashRedirect(c, middleware.FlashSuccess, "Profile photo updated.", "/profile")
}

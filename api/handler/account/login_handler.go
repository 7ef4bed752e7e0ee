package account

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/anoixa/photo-album/api/handler/page"
	"github.com/anoixa/photo-album/api/middleware"
	"github.com/anoixa/photo-album/internal/auth"
	"github.com/anoixa/photo-album/utils"
)

type loginForm struct {
	Username string `form:"username"`
	Password string `form:"password"`
}

type registerForm struct {
	Name     string `form:"name"`
	Email    string `form:"email"`
	Username string `form:"username"`
	Password string `form:"password"`
}

// LoginPage 登录页
func (h *Handler) LoginPage(c *gin.Context) {
	page.Render(c, http.StatusOK, "login", "Login", gin.H{"OAuthEnabled": h.oauth != nil})
}

// Login 本地账户登录
func (h *Handler) Login(c *gin.Context) {
	var form loginForm
	_ = c.ShouldBind(&form)

	user, err := h.auth.Authenticate(c.Request.Context(), form.Username, form.Password)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidCredentials) || errors.Is(err, auth.ErrInvalidInput) {
			logrus.WithField("username", utils.SanitizeLogUsername(form.Username)).Info("Login failed")
			page.FlashRedirect(c, middleware.FlashDanger, "Login Unsuccessful. Please check username and password", "/")
			return
		}
		page.FlashRedirect(c, middleware.FlashDanger, page.MsgSomethingWrong, "/")
		return
	}

	middleware.Login(c, user)
	page.Redirect(c, "/home")
}

// Logout 退出登录
func (h *Handler) Logout(c *gin.Context) {
	middleware.Logout(c)
	page.FlashRedirect(c, middleware.FlashInfo, "You have been logged out.", "/")
}

// RegisterPage 注册页
func (h *Handler) RegisterPage(c *gin.Context) {
	page.Render(c, http.StatusOK, "create_user", "Create Account", nil)
}

// Register 创建账户
func (h *Handler) Register(c *gin.Context) {
	var form registerForm
	_ = c.ShouldBind(&form)

	_, err := h.auth.Register(c.Request.Context(), form.Name, form.Email, form.Username, form.Password)
	if err == nil {
		page.FlashRedirect(c, middleware.FlashSuccess, "Account created successfully. You can now log in.", "/")
		return
	}

	var msg string
	switch {
	case errors.Is(err, auth.ErrUsernameTaken):
		msg = "Username already exists!"
	case errors.Is(err, auth.ErrEmailTaken):
		msg = "Email address already exists!"
	case errors.Is(err, auth.ErrInvalidInput):
		msg = "Please fill in every field with a valid email and a password of at least 6 characters."
	default:
		msg = page.MsgSomethingWrong
	}
	middleware.AddFlash(c, middleware.FlashDanger, msg)
	page.Render(c, http.StatusBadRequest, "create_user", "Create Account", gin.H{
		"Name":     form.Name,
		"Email":    form.Email,
		"Username": form.Username,
	})
}

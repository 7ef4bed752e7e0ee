package account

import (
	"errors"
	"net/http"
	"net/url"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/anoixa/photo-album/api/handler/page"
	"github.com/anoixa/photo-album/api/middleware"
	"github.com/anoixa/photo-album/internal/auth"
)

const (
	msgPasswordUpdated = "Your password has been updated! You are now able to log in"
	msgPasswordShort   = "Password must be at least 6 characters."
)

type resetForm struct {
	Password        string `form:"password"`
	ConfirmPassword string `form:"confirm_password"`
}

type otpForm struct {
	Email    string `form:"email"`
	Code     string `form:"otp"`
	Password string `form:"password"`
}

// ResetRequestPage 找回密码页
func (h *Handler) ResetRequestPage(c *gin.Context) {
	page.Render(c, http.StatusOK, "reset_request", "Reset Password", nil)
}

// ResetRequest mails a reset link. The reply never reveals whether the
// address has an account.
func (h *Handler) ResetRequest(c *gin.Context) {
	email := strings.TrimSpace(c.PostForm("email"))
	if email == "" {
		page.FlashRedirect(c, middleware.FlashDanger, "Email is required.", "/reset_password")
		return
	}

	_ = h.auth.RequestPasswordReset(c.Request.Context(), email)
	page.FlashRedirect(c, middleware.FlashInfo,
		"If an account exists with that email, you will receive password reset instructions.", "/login")
}

// ResetTokenPage 通过链接重置密码
func (h *Handler) ResetTokenPage(c *gin.Context) {
	token := c.Param("token")
	if _, ok := h.auth.VerifyResetToken(token); !ok {
		page.FlashRedirect(c, middleware.FlashWarning, page.MsgInvalidToken, "/")
		return
	}
	page.Render(c, http.StatusOK, "reset_token", "Reset Password", gin.H{"Token": token})
}

// ResetToken sets the new password for the token's account.
func (h *Handler) ResetToken(c *gin.Context) {
	token := c.Param("token")
	if _, ok := h.auth.VerifyResetToken(token); !ok {
		page.FlashRedirect(c, middleware.FlashWarning, page.MsgInvalidToken, "/")
		return
	}

	var form resetForm
	_ = c.ShouldBind(&form)
	if form.ConfirmPassword != "" && form.Password != form.ConfirmPassword {
		middleware.AddFlash(c, middleware.FlashDanger, "Passwords do not match.")
		page.Render(c, http.StatusBadRequest, "reset_token", "Reset Password", gin.H{"Token": token})
		return
	}

	err := h.auth.ResetPassword(c.Request.Context(), token, form.Password)
	switch {
	case err == nil:
		page.FlashRedirect(c, middleware.FlashSuccess, msgPasswordUpdated, "/login")
	case errors.Is(err, auth.ErrInvalidToken):
		page.FlashRedirect(c, middleware.FlashWarning, page.MsgInvalidToken, "/")
	case errors.Is(err, auth.ErrInvalidInput):
		middleware.AddFlash(c, middleware.FlashDanger, msgPasswordShort)
		page.Render(c, http.StatusBadRequest, "reset_token", "Reset Password", gin.H{"Token": token})
	default:
		middleware.AddFlash(c, middleware.FlashDanger, "An error occurred. Please try again.")
		page.Render(c, http.StatusInternalServerError, "reset_token", "Reset Password", gin.H{"Token": token})
	}
}

// OTPRequestPage 验证码找回页
func (h *Handler) OTPRequestPage(c *gin.Context) {
	page.Render(c, http.StatusOK, "reset_otp", "Reset Password", nil)
}

// OTPRequest mails a one-time code.
func (h *Handler) OTPRequest(c *gin.Context) {
	email := strings.TrimSpace(c.PostForm("email"))
	if email == "" {
		page.FlashRedirect(c, middleware.FlashDanger, "Email is required.", "/reset_otp")
		return
	}

	if err := h.auth.SendResetOTP(c.Request.Context(), email); err != nil {
		page.FlashRedirect(c, middleware.FlashDanger, page.MsgSomethingWrong, "/reset_otp")
		return
	}
	page.FlashRedirect(c, middleware.FlashInfo,
		"If an account exists with that email, a reset code has been sent. It is valid for 10 minutes.",
		"/reset_otp/verify?email="+url.QueryEscape(email))
}

// OTPVerifyPage 输入验证码页
func (h *Handler) OTPVerifyPage(c *gin.Context) {
	page.Render(c, http.StatusOK, "reset_otp_verify", "Reset Password", gin.H{"Email": c.Query("email")})
}

// OTPVerify checks the code and sets the new password.
func (h *Handler) OTPVerify(c *gin.Context) {
	var form otpForm
	_ = c.ShouldBind(&form)

	err := h.auth.ResetPasswordWithOTP(c.Request.Context(), form.Email, form.Code, form.Password)
	switch {
	case err == nil:
		page.FlashRedirect(c, middleware.FlashSuccess, msgPasswordUpdated, "/login")
		return
	case errors.Is(err, auth.ErrOTPLocked):
		page.FlashRedirect(c, middleware.FlashDanger, "Too many incorrect attempts. Please request a new code.", "/reset_otp")
		return
	case errors.Is(err, auth.ErrInvalidOTP):
		middleware.AddFlash(c, middleware.FlashDanger, "Invalid or expired code.")
	case errors.Is(err, auth.ErrInvalidInput):
		middleware.AddFlash(c, middleware.FlashDanger, msgPasswordShort)
	default:
		middleware.AddFlash(c, middleware.FlashDanger, "An error occurred. Please try again.")
	}
	page.Render(c, http.StatusBadRequest, "reset_otp_verify", "Reset Password", gin.H{"Email": form.Email})
}

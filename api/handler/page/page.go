// Package page renders HTML pages with the shared layout data.
package page

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/anoixa/photo-album/api/middleware"
)

// user-facing messages shared across handlers
const (
	MsgSomethingWrong = "Something went wrong. Please try again later."
	MsgNotAuthorized  = "You are not authorized to modify this photo."
	MsgInvalidToken   = "That is an invalid or expired token"
)

// Render fills in the layout fields and writes the page.
func Render(c *gin.Context, status int, name, title string, data gin.H) {
	if data == nil {
		data = gin.H{}
	}
	data["Title"] = title
	data["User"] = middleware.CurrentUser(c)
	data["CSRFToken"] = middleware.CSRFToken(c)
	data["Flashes"] = middleware.Flashes(c)

	middleware.SaveSession(c)
	c.HTML(status, name, data)
}

// Redirect saves pending flashes and sends a 303.
func Redirect(c *gin.Context, location string) {
	middleware.SaveSession(c)
	c.Redirect(http.StatusSeeOther, location)
}

// FlashRedirect queues one message and redirects.
func FlashRedirect(c *gin.Context, category, message, location string) {
	middleware.AddFlash(c, category, message)
	Redirect(c, location)
}

// NotFound 404 page
func NotFound(c *gin.Context) {
	Render(c, http.StatusNotFound, "404", "Page Not Found", nil)
}

// Error generic 500 page
func Error(c *gin.Context) {
	Render(c, http.StatusInternalServerError, "error", "Error", gin.H{"Message": MsgSomethingWrong})
}

// CSRFFailed sends the user back with a notice.
func CSRFFailed(c *gin.Context) {
	middleware.AddFlash(c, middleware.FlashWarning, "The form has expired. Please try again.")
	target := "/"
	if middleware.CurrentUser(c) != nil {
		target = "/home"
	}
	Redirect(c, target)
}

// Contact 静态联系页
func Contact(c *gin.Context) {
	Render(c, http.StatusOK, "contact", "Contact", nil)
}

package web

import (
	"io/fs"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/anoixa/photo-album/database/models"
)

var allPages = []string{
	"login", "create_user", "home", "edit_photo", "profile", "reset_request",
	"reset_token", "reset_otp", "reset_otp_verify", "contact", "404", "error",
}

func TestRendererParsesAllPages(t *testing.T) {
	r, err := NewRenderer()
	require.NoError(t, err)

	for _, page := range allPages {
		assert.True(t, r.Has(page), page)
	}
	assert.False(t, r.Has("layout"))
}

func TestRenderPage(t *testing.T) {
	r, err := NewRenderer()
	require.NoError(t, err)

	for _, page := range allPages {
		t.Run(page, func(t *testing.T) {
			w := httptest.NewRecorder()
			data := gin.H{
				"Title":     "Test",
				"CSRFToken": "tok<en>",
				"Flashes":   []map[string]string{{"Category": "success", "Message": "done & dusted"}},
			}
			require.NoError(t, r.Instance(page, data).Render(w))

			body := w.Body.String()
			assert.Contains(t, body, "<title>Test")
			assert.Contains(t, body, "done &amp; dusted")
		})
	}
}

func TestRenderUnknownFallsBackToError(t *testing.T) {
	r, err := NewRenderer()
	require.NoError(t, err)

	w := httptest.NewRecorder()
	require.NoError(t, r.Instance("missing", gin.H{"Title": "Oops"}).Render(w))
	assert.Contains(t, w.Body.String(), "Something went wrong")
}

func TestStatic(t *testing.T) {
	data, err := fs.ReadFile(Static(), "style.css")
	require.NoError(t, err)
	assert.NotEmpty(t, data)
}

func TestRenderEditPhotoDetails(t *testing.T) {
	r, err := NewRenderer()
	require.NoError(t, err)

	w := httptest.NewRecorder()
	photo := &models.Photo{ID: 3, Filename: "abc.png", Width: 8, Height: 6, FileSize: 1536,
		UploadedAt: time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)}
	require.NoError(t, r.Instance("edit_photo", gin.H{"Title": "Edit", "Photo": photo}).Render(w))

	body := w.Body.String()
	assert.Contains(t, body, "8 x 6, 1.50 KB")
	assert.Contains(t, body, "Mar 1, 2026")
	assert.Contains(t, body, `action="/photo/3/edit"`)
}

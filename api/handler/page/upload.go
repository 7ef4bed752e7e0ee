package page

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/anoixa/photo-album/internal/photos"
)

// FormFile opens an uploaded file for the photo service. A missing file
// yields an empty FileInput so the service reports ErrNoFile.
func FormFile(c *gin.Context, field string) (photos.FileInput, func(), error) {
	header, err := c.FormFile(field)
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) {
			return photos.FileInput{}, func() {}, nil
		}
		return photos.FileInput{}, func() {}, err
	}

	f, err := header.Open()
	if err != nil {
		return photos.FileInput{}, func() {}, err
	}
	return photos.FileInput{Name: header.Filename, Size: header.Size, Reader: f}, func() { _ = f.Close() }, nil
}

// PhotoErrorMessage maps photo service errors to flash text.
func PhotoErrorMessage(err error, maxBytes int64) string {
	switch {
	case errors.Is(err, photos.ErrNoFile):
		return "No selected file"
	case errors.Is(err, photos.ErrUnsupportedType):
		return "Only image files (JPEG, PNG, GIF, WebP, BMP) are allowed."
	case errors.Is(err, photos.ErrTooLarge):
		return fmt.Sprintf("File is too large. The limit is %d MB.", maxBytes>>20)
	case errors.Is(err, photos.ErrNotFound):
		return "Photo not found."
	case errors.Is(err, photos.ErrForbidden):
		return MsgNotAuthorized
	default:
		return MsgSomethingWrong
	}
}

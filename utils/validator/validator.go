package validator

import (
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/webp"

	"github.com/anoixa/photo-album/utils"
)

// ErrNotImage the content is not an allowed image type.
var ErrNotImage = errors.New("file is not a supported image")

// allowedImageMimeTypes Allowed image types
var allowedImageMimeTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/gif":  true,
	"image/webp": true,
	"image/bmp":  true,
}

// ImageInfo describes a validated upload.
type ImageInfo struct {
	MimeType string
	Width    int
	Height   int
}

// IsImage sniffs the first 512 bytes and rewinds file.
func IsImage(file io.ReadSeeker) (bool, string, error) {
	mimeType, err := utils.SniffContentType(file)
	if err != nil {
		return false, "", err
	}
	return allowedImageMimeTypes[mimeType], mimeType, nil
}

// ValidateImage checks the sniffed type and decodes the image header so that a
// renamed or truncated file is rejected. file is rewound on return.
func ValidateImage(file io.ReadSeeker) (*ImageInfo, error) {
	ok, mimeType, err := IsImage(file)
	if err != nil {
		return nil, fmt.Errorf("failed to read upload: %w", err)
	}
	if !ok {
		return nil, ErrNotImage
	}

	cfg, _, err := image.DecodeConfig(file)
	if _, seekErr := file.Seek(0, io.SeekStart); seekErr != nil {
		return nil, fmt.Errorf("failed to rewind upload: %w", seekErr)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNotImage, err)
	}

	return &ImageInfo{MimeType: mimeType, Width: cfg.Width, Height: cfg.Height}, nil
}

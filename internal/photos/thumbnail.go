package photos

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/jpeg"
	"io"
	"time"

	"github.com/sirupsen/logrus"
	xdraw "golang.org/x/image/draw"

	"github.com/anoixa/photo-album/database/models"
	"github.com/anoixa/photo-album/storage"
)

const (
	// DefaultThumbnailSize longest edge of a thumbnail in pixels
	DefaultThumbnailSize = 400
	thumbnailQuality     = 82
	thumbnailTimeout     = 2 * time.Minute
)

// Submitter runs a job in the background and reports false when it was dropped.
type Submitter interface {
	Submit(task func()) bool
}

// EnableThumbnails turns on thumbnail generation. A nil pool runs the job
// inline; size <= 0 uses DefaultThumbnailSize.
func (s *Service) EnableThumbnails(pool Submitter, size int) {
	if size <= 0 {
		size = DefaultThumbnailSize
	}
	s.thumbs = &thumbnailer{pool: pool, size: size}
}

type thumbnailer struct {
	pool Submitter
	size int
}

// queueThumbnail schedules the thumbnail of a stored photo.
func (s *Service) queueThumbnail(ownerID uint, filename string) {
	if s.thumbs == nil {
		return
	}
	job := func() {
		ctx, cancel := context.WithTimeout(context.Background(), thumbnailTimeout)
		defer cancel()
		if err := s.generateThumbnail(ctx, ownerID, filename); err != nil {
			logrus.WithFields(logrus.Fields{"user_id": ownerID, "filename": filename}).
				WithError(err).Warn("[Photos] thumbnail generation failed")
		}
	}
	if s.thumbs.pool == nil {
		job()
		return
	}
	if !s.thumbs.pool.Submit(job) {
		logrus.WithField("filename", filename).Debug("[Photos] thumbnail job dropped, served from original")
	}
}

func (s *Service) generateThumbnail(ctx context.Context, ownerID uint, filename string) error {
	src, err := s.files.GetWithContext(ctx, s.paths.StoragePath(ownerID, filename))
	if err != nil {
		return fmt.Errorf("open original: %w", err)
	}
	defer src.Close()

	data, err := renderThumbnail(io.LimitReader(src, s.maxBytes+1), s.thumbs.size)
	if err != nil {
		return err
	}
	key := s.paths.ThumbnailPath(ownerID, filename)
	if err := s.files.SaveWithContext(ctx, key, bytes.NewReader(data)); err != nil {
		return fmt.Errorf("store thumbnail: %w", err)
	}

	// the photo may have been deleted while the job ran
	photo, err := s.photos.GetByFilename(ctx, filename)
	if err == nil && photo == nil {
		s.removeFile(ctx, key)
	}
	return nil
}

// renderThumbnail decodes an image, scales it so the longest edge is at most
// size and encodes it as JPEG on a white background.
func renderThumbnail(r io.Reader, size int) ([]byte, error) {
	src, _, err := image.Decode(r)
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}

	bounds := src.Bounds()
	w, h := fitWithin(bounds.Dx(), bounds.Dy(), size)

	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	xdraw.Draw(dst, dst.Bounds(), &image.Uniform{C: color.White}, image.Point{}, xdraw.Src)
	xdraw.CatmullRom.Scale(dst, dst.Bounds(), src, bounds, xdraw.Over, nil)

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, dst, &jpeg.Options{Quality: thumbnailQuality}); err != nil {
		return nil, fmt.Errorf("encode thumbnail: %w", err)
	}
	return buf.Bytes(), nil
}

// fitWithin scales w x h down to fit a size x size box, keeping the ratio.
func fitWithin(w, h, size int) (int, int) {
	if w <= size && h <= size {
		return max(w, 1), max(h, 1)
	}
	if w >= h {
		return size, max(h*size/w, 1)
	}
	return max(w*size/h, 1), size
}

// OpenThumbnail opens the thumbnail of one of the user's photos. When the
// thumbnail does not exist yet the original is returned and generation is
// queued again.
func (s *Service) OpenThumbnail(ctx context.Context, user *models.User, filename string) (*Object, error) {
	photo, err := s.photos.GetByFilename(ctx, filename)
	if err != nil {
		return nil, internal("load photo", err, logrus.Fields{"filename": filename})
	}
	if photo == nil || photo.UserID != user.ID || s.thumbs == nil {
		return s.Open(ctx, user, filename)
	}

	key := s.paths.ThumbnailPath(user.ID, filename)
	reader, err := s.files.GetWithContext(ctx, key)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			s.queueThumbnail(user.ID, filename)
		} else {
			logrus.WithField("key", key).WithError(err).Warn("[Photos] failed to open thumbnail")
		}
		return s.Open(ctx, user, filename)
	}
	return &Object{Reader: reader, ContentType: "image/jpeg", Size: -1, ModTime: photo.UploadedAt}, nil
}

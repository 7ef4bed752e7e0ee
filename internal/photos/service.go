package photos

import (
	"context"
	"errors"
	"io"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/anoixa/photo-album/database/models"
	"github.com/anoixa/photo-album/database/repo/accounts"
	photorepo "github.com/anoixa/photo-album/database/repo/photos"
	"github.com/anoixa/photo-album/storage"
	"github.com/anoixa/photo-album/utils"
	"github.com/anoixa/photo-album/utils/generator"
	"github.com/anoixa/photo-album/utils/validator"
)

// DefaultMaxUploadBytes 默认单文件上传上限
const DefaultMaxUploadBytes = 16 << 20

// FileInput an uploaded file as received from the form
type FileInput struct {
	Name   string // client file name, kept as OriginalName
	Size   int64
	Reader io.ReadSeeker
}

// Metadata 用户可编辑的照片信息
type Metadata struct {
	Title       string
	Description string
	Location    string
	Tags        string
}

// Filter 列表过滤条件
type Filter struct {
	FavoritesOnly bool
	Tag           string
}

// Object an opened stored file. The caller closes Reader.
type Object struct {
	Reader      io.ReadCloser
	ContentType string
	Size        int64
	ModTime     time.Time
}

// Service 照片服务
type Service struct {
	photos   photorepo.RepositoryInterface
	accounts accounts.RepositoryInterface
	files    storage.Provider
	paths    *generator.PathGenerator
	maxBytes int64
	now      func() time.Time
	onChange []func(ctx context.Context, userID uint)
	thumbs   *thumbnailer // nil when thumbnails are disabled
}

// NewService 创建照片服务; maxBytes <= 0 uses DefaultMaxUploadBytes.
func NewService(
	photoRepo photorepo.RepositoryInterface,
	accountsRepo accounts.RepositoryInterface,
	files storage.Provider,
	maxBytes int64,
) *Service {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxUploadBytes
	}
	return &Service{
		photos:   photoRepo,
		accounts: accountsRepo,
		files:    files,
		paths:    generator.NewPathGenerator(),
		maxBytes: maxBytes,
		now:      time.Now,
	}
}

// OnChange registers a callback run after a user's photo set or favorites change.
func (s *Service) OnChange(fn func(ctx context.Context, userID uint)) {
	s.onChange = append(s.onChange, fn)
}

func (s *Service) changed(ctx context.Context, userID uint) {
	for _, fn := range s.onChange {
		fn(ctx, userID)
	}
}

// MaxUploadBytes 上传大小上限
func (s *Service) MaxUploadBytes() int64 {
	return s.maxBytes
}

func internal(op string, err error, fields logrus.Fields) error {
	logrus.WithFields(fields).WithError(err).Errorf("[Photos] %s failed", op)
	return ErrInternal
}

// validate checks presence, size and content. The reader is rewound.
func (s *Service) validate(file FileInput) (*validator.ImageInfo, error) {
	if file.Reader == nil || strings.TrimSpace(file.Name) == "" {
		return nil, ErrNoFile
	}
	if file.Size > s.maxBytes {
		return nil, ErrTooLarge
	}

	info, err := validator.ValidateImage(file.Reader)
	if err != nil {
		if errors.Is(err, validator.ErrNotImage) {
			return nil, ErrUnsupportedType
		}
		return nil, internal("read upload", err, nil)
	}
	return info, nil
}

// store writes the validated upload under a new name for owner.
func (s *Service) store(ctx context.Context, ownerID uint, file FileInput, info *validator.ImageInfo) (generator.StorageIdentifiers, int64, error) {
	ids := s.paths.GenerateIdentifiers(ownerID, utils.GetSafeExtension(info.MimeType))

	counter := &countingReader{r: io.LimitReader(file.Reader, s.maxBytes+1)}
	if err := s.files.SaveWithContext(ctx, ids.StoragePath, counter); err != nil {
		return ids, 0, internal("store upload", err, logrus.Fields{"user_id": ownerID, "key": ids.StoragePath})
	}
	if counter.n > s.maxBytes {
		s.removeFile(ctx, ids.StoragePath)
		return ids, 0, ErrTooLarge
	}
	return ids, counter.n, nil
}

// removeFile deletes a key and only logs failures; the clean sweep
// catches what is left behind.
func (s *Service) removeFile(ctx context.Context, key string) {
	if err := storage.IgnoreNotFound(s.files.DeleteWithContext(context.WithoutCancel(ctx), key)); err != nil {
		logrus.WithField("key", key).WithError(err).Warn("[Photos] failed to delete file, left for clean")
	}
}

// Upload validates and stores a new photo. The file is written first and the
// row inserted after; a failed insert removes the file again.
func (s *Service) Upload(ctx context.Context, user *models.User, file FileInput, meta Metadata) (*models.Photo, error) {
	info, err := s.validate(file)
	if err != nil {
		return nil, err
	}

	ids, size, err := s.store(ctx, user.ID, file, info)
	if err != nil {
		return nil, err
	}

	photo := &models.Photo{
		Filename:     ids.Filename,
		OriginalName: utils.SanitizeLogMessage(file.Name),
		Title:        strings.TrimSpace(meta.Title),
		Description:  strings.TrimSpace(meta.Description),
		Location:     strings.TrimSpace(meta.Location),
		Tags:         models.NormalizeTags(meta.Tags),
		MimeType:     info.MimeType,
		FileSize:     size,
		Width:        info.Width,
		Height:       info.Height,
		UploadedAt:   s.now(),
		UserID:       user.ID,
	}
	if err := s.photos.Create(ctx, photo); err != nil {
		s.removeFile(ctx, ids.StoragePath)
		return nil, internal("save photo", err, logrus.Fields{"user_id": user.ID})
	}

	s.queueThumbnail(user.ID, photo.Filename)
	s.changed(ctx, user.ID)
	logrus.WithFields(logrus.Fields{
		"user_id":  user.ID,
		"photo_id": photo.ID,
		"size":     size,
	}).Info("[Photos] photo uploaded")
	return photo, nil
}

// List returns the user's photos, newest first.
func (s *Service) List(ctx context.Context, user *models.User, filter Filter) ([]models.Photo, error) {
	list, err := s.photos.ListByUser(ctx, user.ID, photorepo.ListOptions{
		FavoritesOnly: filter.FavoritesOnly,
		Tag:           filter.Tag,
	})
	if err != nil {
		return nil, internal("list photos", err, logrus.Fields{"user_id": user.ID})
	}
	return list, nil
}

// owned loads a photo and checks its owner.
func (s *Service) owned(ctx context.Context, user *models.User, id uint) (*models.Photo, error) {
	photo, err := s.photos.GetByID(ctx, id)
	if err != nil {
		return nil, internal("load photo", err, logrus.Fields{"photo_id": id})
	}
	if photo == nil {
		return nil, ErrNotFound
	}
	if photo.UserID != user.ID {
		logrus.WithFields(logrus.Fields{"user_id": user.ID, "photo_id": id}).Warn("[Photos] access to foreign photo denied")
		return nil, ErrForbidden
	}
	return photo, nil
}

// Get 获取属于用户的照片
func (s *Service) Get(ctx context.Context, user *models.User, id uint) (*models.Photo, error) {
	return s.owned(ctx, user, id)
}

// Edit updates title, description, location and tags.
func (s *Service) Edit(ctx context.Context, user *models.User, id uint, meta Metadata) (*models.Photo, error) {
	photo, err := s.owned(ctx, user, id)
	if err != nil {
		return nil, err
	}

	update := photorepo.MetadataUpdate{
		Title:       strings.TrimSpace(meta.Title),
		Description: strings.TrimSpace(meta.Description),
		Location:    strings.TrimSpace(meta.Location),
		Tags:        models.NormalizeTags(meta.Tags),
	}
	if err := s.photos.UpdateMetadata(ctx, id, update); err != nil {
		return nil, internal("edit photo", err, logrus.Fields{"photo_id": id})
	}

	photo.Title = update.Title
	photo.Description = update.Description
	photo.Location = update.Location
	photo.Tags = update.Tags
	return photo, nil
}

// ToggleFavorite flips the favorite flag and returns the new value.
func (s *Service) ToggleFavorite(ctx context.Context, user *models.User, id uint) (bool, error) {
	photo, err := s.owned(ctx, user, id)
	if err != nil {
		return false, err
	}

	favorite := !photo.Favorite
	if err := s.photos.SetFavorite(ctx, id, favorite); err != nil {
		return false, internal("toggle favorite", err, logrus.Fields{"photo_id": id})
	}
	s.changed(ctx, user.ID)
	return favorite, nil
}

// Delete removes the row, then the file.
func (s *Service) Delete(ctx context.Context, user *models.User, id uint) error {
	photo, err := s.owned(ctx, user, id)
	if err != nil {
		return err
	}

	deleted, err := s.photos.Delete(ctx, id)
	if err != nil {
		return internal("delete photo", err, logrus.Fields{"photo_id": id})
	}
	if !deleted {
		return ErrNotFound
	}

	s.removeFile(ctx, s.paths.StoragePath(user.ID, photo.Filename))
	s.removeFile(ctx, s.paths.ThumbnailPath(user.ID, photo.Filename))
	s.changed(ctx, user.ID)
	logrus.WithFields(logrus.Fields{"user_id": user.ID, "photo_id": id}).Info("[Photos] photo deleted")
	return nil
}

// SetProfilePhoto stores a new profile picture, points the user at it and
// removes the previous one. user.ProfilePhoto is updated in place.
func (s *Service) SetProfilePhoto(ctx context.Context, user *models.User, file FileInput) (string, error) {
	info, err := s.validate(file)
	if err != nil {
		return "", err
	}

	ids, _, err := s.store(ctx, user.ID, file, info)
	if err != nil {
		return "", err
	}

	if err := s.accounts.UpdateProfilePhoto(ctx, user.ID, ids.Filename); err != nil {
		s.removeFile(ctx, ids.StoragePath)
		return "", internal("update profile photo", err, logrus.Fields{"user_id": user.ID})
	}

	previous := user.ProfilePhoto
	user.ProfilePhoto = ids.Filename
	if previous != "" && previous != ids.Filename {
		s.removeFile(ctx, s.paths.StoragePath(user.ID, previous))
	}
	return ids.Filename, nil
}

// Open returns a stored file if it is one of the user's photos or the
// user's profile photo. Anything else is ErrNotFound.
func (s *Service) Open(ctx context.Context, user *models.User, filename string) (*Object, error) {
	if !storage.IsValidStoragePath(filename) || strings.Contains(filename, "/") {
		return nil, ErrNotFound
	}

	obj := &Object{ContentType: utils.ContentTypeForFilename(filename)}
	if filename != user.ProfilePhoto {
		photo, err := s.photos.GetByFilename(ctx, filename)
		if err != nil {
			return nil, internal("open photo", err, logrus.Fields{"user_id": user.ID})
		}
		if photo == nil || photo.UserID != user.ID {
			return nil, ErrNotFound
		}
		obj.ContentType = photo.MimeType
		obj.Size = photo.FileSize
		obj.ModTime = photo.UploadedAt
	}

	rc, err := s.files.GetWithContext(ctx, s.paths.StoragePath(user.ID, filename))
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, internal("open photo", err, logrus.Fields{"user_id": user.ID})
	}
	obj.Reader = rc
	return obj, nil
}

// Count 用户照片数量
func (s *Service) Count(ctx context.Context, user *models.User) (int64, error) {
	n, err := s.photos.CountByUser(ctx, user.ID)
	if err != nil {
		return 0, internal("count photos", err, logrus.Fields{"user_id": user.ID})
	}
	return n, nil
}

type countingReader struct {
	r io.Reader
	n int64
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.n += int64(n)
	return n, err
}


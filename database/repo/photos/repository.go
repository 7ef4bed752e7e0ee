package photos

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/anoixa/photo-album/database"
	"github.com/anoixa/photo-album/database/models"
	"gorm.io/gorm"
)

// ListOptions narrows a gallery listing.
type ListOptions struct {
	FavoritesOnly bool
	Tag           string
}

// MetadataUpdate user editable photo fields
type MetadataUpdate struct {
	Title       string
	Description string
	Location    string
	Tags        string
}

// StoredFile identifies a photo's file without loading the full row.
type StoredFile struct {
	ID       uint
	UserID   uint
	Filename string
}

// Repository 照片仓库
type Repository struct {
	db database.Provider
}

// NewRepository 创建照片仓库
func NewRepository(db database.Provider) *Repository {
	return &Repository{db: db}
}

// Create 创建照片记录
func (r *Repository) Create(ctx context.Context, photo *models.Photo) error {
	if err := r.db.WithContext(ctx).Create(photo).Error; err != nil {
		return fmt.Errorf("failed to create photo: %w", err)
	}
	return nil
}

// GetByID returns nil, nil when no row matches.
func (r *Repository) GetByID(ctx context.Context, id uint) (*models.Photo, error) {
	return r.first(ctx, "id = ?", id)
}

// GetByFilename 通过文件名获取照片
func (r *Repository) GetByFilename(ctx context.Context, filename string) (*models.Photo, error) {
	return r.first(ctx, "filename = ?", filename)
}

func (r *Repository) first(ctx context.Context, query string, args ...interface{}) (*models.Photo, error) {
	var photo models.Photo
	err := r.db.WithContext(ctx).Where(query, args...).First(&photo).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &photo, nil
}

// ListByUser returns the owner's photos, newest first.
func (r *Repository) ListByUser(ctx context.Context, userID uint, opts ListOptions) ([]models.Photo, error) {
	query := r.db.WithContext(ctx).Where("user_id = ?", userID)

	if opts.FavoritesOnly {
		query = query.Where("favorite = ?", true)
	}
	if tag := sanitizeTag(opts.Tag); tag != "" {
		query = query.Where("tags = ? OR tags LIKE ? OR tags LIKE ? OR tags LIKE ?",
			tag, tag+",%", "%,"+tag, "%,"+tag+",%")
	}

	var photos []models.Photo
	if err := query.Order("uploaded_at desc").Order("id desc").Find(&photos).Error; err != nil {
		return nil, fmt.Errorf("failed to list photos: %w", err)
	}
	return photos, nil
}

// sanitizeTag drops LIKE wildcards and the list separator.
func sanitizeTag(tag string) string {
	tag = strings.ToLower(strings.TrimSpace(tag))
	return strings.NewReplacer("%", "", "_", "", ",", "").Replace(tag)
}

// UpdateMetadata 更新照片信息
func (r *Repository) UpdateMetadata(ctx context.Context, id uint, update MetadataUpdate) error {
	err := r.db.WithContext(ctx).Model(&models.Photo{ID: id}).Updates(map[string]interface{}{
		"title":       update.Title,
		"description": update.Description,
		"location":    update.Location,
		"tags":        update.Tags,
	}).Error
	if err != nil {
		return fmt.Errorf("failed to update photo %d: %w", id, err)
	}
	return nil
}

// SetFavorite 设置收藏状态
func (r *Repository) SetFavorite(ctx context.Context, id uint, favorite bool) error {
	return r.db.WithContext(ctx).Model(&models.Photo{ID: id}).Update("favorite", favorite).Error
}

// Delete removes the row and reports whether it existed.
func (r *Repository) Delete(ctx context.Context, id uint) (bool, error) {
	result := r.db.WithContext(ctx).Delete(&models.Photo{}, id)
	if result.Error != nil {
		return false, fmt.Errorf("failed to delete photo %d: %w", id, result.Error)
	}
	return result.RowsAffected > 0, nil
}

// DeleteByIDs 批量删除
func (r *Repository) DeleteByIDs(ctx context.Context, ids []uint) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	result := r.db.WithContext(ctx).Where("id IN ?", ids).Delete(&models.Photo{})
	return result.RowsAffected, result.Error
}

// ListStoredFiles returns every photo's owner and filename.
func (r *Repository) ListStoredFiles(ctx context.Context) ([]StoredFile, error) {
	var files []StoredFile
	err := r.db.WithContext(ctx).Model(&models.Photo{}).
		Select("id", "user_id", "filename").Order("id").Scan(&files).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list stored files: %w", err)
	}
	return files, nil
}

// CountByUser 用户照片数量
func (r *Repository) CountByUser(ctx context.Context, userID uint) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Photo{}).Where("user_id = ?", userID).Count(&count).Error
	return count, err
}

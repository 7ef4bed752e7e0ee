package accounts

import (
	"context"
	"errors"
	"fmt"

	"github.com/anoixa/photo-album/database"
	"github.com/anoixa/photo-album/database/models"
	"gorm.io/gorm"
)

// Repository 账户仓库 - 封装所有账户相关的数据库操作
type Repository struct {
	db database.Provider
}

// NewRepository 创建新的账户仓库
func NewRepository(db database.Provider) *Repository {
	return &Repository{db: db}
}

// GetUserByID returns nil, nil when no row matches.
func (r *Repository) GetUserByID(ctx context.Context, id uint) (*models.User, error) {
	return r.first(ctx, "id = ?", id)
}

// GetUserByUsername 通过用户名获取用户
func (r *Repository) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	return r.first(ctx, "username = ?", username)
}

// GetUserByEmail looks up by normalized address.
func (r *Repository) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	return r.first(ctx, "email = ?", models.NormalizeEmail(email))
}

// FindByUsernameOrEmail resolves a login identifier. A username match wins
// over an email match on a different row.
func (r *Repository) FindByUsernameOrEmail(ctx context.Context, identifier string) (*models.User, error) {
	user, err := r.GetUserByUsername(ctx, identifier)
	if err != nil || user != nil {
		return user, err
	}
	return r.GetUserByEmail(ctx, identifier)
}

func (r *Repository) first(ctx context.Context, query string, args ...interface{}) (*models.User, error) {
	var user models.User
	err := r.db.WithContext(ctx).Where(query, args...).First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &user, nil
}

// UsernameExists 检查用户名是否存在
func (r *Repository) UsernameExists(ctx context.Context, username string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.User{}).Where("username = ?", username).Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// CreateUser inserts user. A unique violation is returned as gorm.ErrDuplicatedKey.
func (r *Repository) CreateUser(ctx context.Context, user *models.User) error {
	user.Email = models.NormalizeEmail(user.Email)
	if err := r.db.WithContext(ctx).Create(user).Error; err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

// UpdatePassword sets the hash for the account with email. It returns
// false when no account matched.
func (r *Repository) UpdatePassword(ctx context.Context, email, hash string) (bool, error) {
	result := r.db.WithContext(ctx).Model(&models.User{}).
		Where("email = ?", models.NormalizeEmail(email)).
		Update("password", hash)
	if result.Error != nil {
		return false, fmt.Errorf("failed to update password: %w", result.Error)
	}
	return result.RowsAffected > 0, nil
}

// ProfileUpdate fields editable from the profile page
type ProfileUpdate struct {
	Name     string
	Username string
	Email    string
}

// UpdateProfile writes name, username and email for id.
func (r *Repository) UpdateProfile(ctx context.Context, id uint, update ProfileUpdate) error {
	err := r.db.WithContext(ctx).Model(&models.User{ID: id}).Updates(map[string]interface{}{
		"name":     update.Name,
		"username": update.Username,
		"email":    models.NormalizeEmail(update.Email),
	}).Error
	if err != nil {
		return fmt.Errorf("failed to update profile: %w", err)
	}
	return nil
}

// UpdateProfilePhoto 更新头像文件名
func (r *Repository) UpdateProfilePhoto(ctx context.Context, id uint, filename string) error {
	return r.db.WithContext(ctx).Model(&models.User{ID: id}).Update("profile_photo", filename).Error
}

// DeleteUser removes the user and its photo rows in one transaction and
// returns the removed photos so their files can be deleted.
func (r *Repository) DeleteUser(ctx context.Context, id uint) ([]models.Photo, error) {
	var photos []models.Photo
	err := r.db.TransactionWithContext(ctx, func(tx *gorm.DB) error {
		if err := tx.Where("user_id = ?", id).Find(&photos).Error; err != nil {
			return err
		}
		if err := tx.Where("user_id = ?", id).Delete(&models.Photo{}).Error; err != nil {
			return err
		}
		result := tx.Delete(&models.User{}, id)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to delete user %d: %w", id, err)
	}
	return photos, nil
}

// ProfilePhotos maps user id to profile photo filename for users that have one.
func (r *Repository) ProfilePhotos(ctx context.Context) (map[uint]string, error) {
	var users []models.User
	err := r.db.WithContext(ctx).Select("id", "profile_photo").
		Where("profile_photo <> ''").Find(&users).Error
	if err != nil {
		return nil, err
	}
	out := make(map[uint]string, len(users))
	for _, u := range users {
		out[u.ID] = u.ProfilePhoto
	}
	return out, nil
}

// CountUsers 用户总数
func (r *Repository) CountUsers(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.User{}).Count(&count).Error
	return count, err
}

// ListUsers 按注册顺序列出所有用户
func (r *Repository) ListUsers(ctx context.Context) ([]models.User, error) {
	var users []models.User
	err := r.db.WithContext(ctx).Order("id asc").Find(&users).Error
	return users, err
}

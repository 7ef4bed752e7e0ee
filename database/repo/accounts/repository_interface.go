package accounts

import (
	"context"

	"github.com/anoixa/photo-album/database/models"
)

// RepositoryInterface 账户仓库接口
type RepositoryInterface interface {
	GetUserByID(ctx context.Context, id uint) (*models.User, error)
	GetUserByUsername(ctx context.Context, username string) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	FindByUsernameOrEmail(ctx context.Context, identifier string) (*models.User, error)
	UsernameExists(ctx context.Context, username string) (bool, error)
	CreateUser(ctx context.Context, user *models.User) error
	UpdatePassword(ctx context.Context, email, hash string) (bool, error)
	UpdateProfile(ctx context.Context, id uint, update ProfileUpdate) error
	UpdateProfilePhoto(ctx context.Context, id uint, filename string) error
	DeleteUser(ctx context.Context, id uint) ([]models.Photo, error)
	ProfilePhotos(ctx context.Context) (map[uint]string, error)
	CountUsers(ctx context.Context) (int64, error)
	ListUsers(ctx context.Context) ([]models.User, error)
}

var _ RepositoryInterface = (*Repository)(nil)

package photos

import (
	"context"
	"time"

	"github.com/anoixa/photo-album/database/models"
)

// RepositoryInterface 照片仓库接口
type RepositoryInterface interface {
	Create(ctx context.Context, photo *models.Photo) error
	GetByID(ctx context.Context, id uint) (*models.Photo, error)
	GetByFilename(ctx context.Context, filename string) (*models.Photo, error)
	ListByUser(ctx context.Context, userID uint, opts ListOptions) ([]models.Photo, error)
	UpdateMetadata(ctx context.Context, id uint, update MetadataUpdate) error
	SetFavorite(ctx context.Context, id uint, favorite bool) error
	Delete(ctx context.Context, id uint) (bool, error)
	DeleteByIDs(ctx context.Context, ids []uint) (int64, error)
	ListStoredFiles(ctx context.Context) ([]StoredFile, error)
	CountByUser(ctx context.Context, userID uint) (int64, error)
	SummaryByUser(ctx context.Context, userID uint) (*Summary, error)
	MimeStatsByUser(ctx context.Context, userID uint) ([]MimeStat, error)
	UploadTimesSince(ctx context.Context, userID uint, since time.Time) ([]time.Time, error)
}

var _ RepositoryInterface = (*Repository)(nil)

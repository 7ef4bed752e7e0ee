package photos

import (
	"context"
	"fmt"
	"time"

	"github.com/anoixa/photo-album/database/models"
)

// Summary 用户照片概览
type Summary struct {
	Total     int64
	Favorites int64
	TotalSize int64
}

// MimeStat per content type count and size
type MimeStat struct {
	MimeType string
	Count    int64
	Size     int64
}

// SummaryByUser 获取用户照片概览
func (r *Repository) SummaryByUser(ctx context.Context, userID uint) (*Summary, error) {
	var result Summary
	err := r.db.WithContext(ctx).Model(&models.Photo{}).
		Select("COUNT(*) AS total, COALESCE(SUM(file_size), 0) AS total_size").
		Where("user_id = ?", userID).
		Scan(&result).Error
	if err != nil {
		return nil, fmt.Errorf("failed to summarize photos: %w", err)
	}

	err = r.db.WithContext(ctx).Model(&models.Photo{}).
		Where("user_id = ? AND favorite = ?", userID, true).
		Count(&result.Favorites).Error
	if err != nil {
		return nil, fmt.Errorf("failed to count favorites: %w", err)
	}
	return &result, nil
}

// MimeStatsByUser groups the user's photos by content type, largest first.
func (r *Repository) MimeStatsByUser(ctx context.Context, userID uint) ([]MimeStat, error) {
	var stats []MimeStat
	err := r.db.WithContext(ctx).Model(&models.Photo{}).
		Select("mime_type, COUNT(*) AS count, COALESCE(SUM(file_size), 0) AS size").
		Where("user_id = ?", userID).
		Group("mime_type").
		Order("size DESC").
		Scan(&stats).Error
	if err != nil {
		return nil, fmt.Errorf("failed to group photos by type: %w", err)
	}
	return stats, nil
}

// UploadTimesSince returns upload timestamps at or after since. Date
// bucketing is left to the caller since each SQL dialect spells it differently.
func (r *Repository) UploadTimesSince(ctx context.Context, userID uint, since time.Time) ([]time.Time, error) {
	var times []time.Time
	err := r.db.WithContext(ctx).Model(&models.Photo{}).
		Where("user_id = ? AND uploaded_at >= ?", userID, since).
		Order("uploaded_at").
		Pluck("uploaded_at", &times).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list upload times: %w", err)
	}
	return times, nil
}

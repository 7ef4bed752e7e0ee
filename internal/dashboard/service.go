// Package dashboard computes per-user album statistics.
package dashboard

import (
	"context"
	"math"
	"strconv"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/anoixa/photo-album/cache"
	photorepo "github.com/anoixa/photo-album/database/repo/photos"
	"github.com/anoixa/photo-album/utils/format"
)

// TrendDays length of the upload trend window
const TrendDays = 30

const dateLayout = "2006-01-02"

// StatsRepository 统计仓库接口
type StatsRepository interface {
	SummaryByUser(ctx context.Context, userID uint) (*photorepo.Summary, error)
	MimeStatsByUser(ctx context.Context, userID uint) ([]photorepo.MimeStat, error)
	UploadTimesSince(ctx context.Context, userID uint, since time.Time) ([]time.Time, error)
}

// Service 相册统计服务
type Service struct {
	repo     StatsRepository
	cache    cache.Provider
	cacheTTL time.Duration
	now      func() time.Time
}

// NewService 创建统计服务
func NewService(repo StatsRepository, cacheProvider cache.Provider) *Service {
	return &Service{
		repo:     repo,
		cache:    cacheProvider,
		cacheTTL: 5 * time.Minute,
		now:      time.Now,
	}
}

// StatsResponse 统计响应
type StatsResponse struct {
	Overview  OverviewStats  `json:"overview"`
	MimeTypes []MimeStatItem `json:"mime_types"`
	Trend     TrendStats     `json:"trend"`
}

// OverviewStats 概览统计
type OverviewStats struct {
	Photos  PhotoStats   `json:"photos"`
	Storage StorageStats `json:"storage"`
}

// PhotoStats 照片数量统计
type PhotoStats struct {
	Total     int64 `json:"total"`
	Favorites int64 `json:"favorites"`
	Today     int64 `json:"today"`
	Yesterday int64 `json:"yesterday"`
	ThisWeek  int64 `json:"this_week"`
	ThisMonth int64 `json:"this_month"`
}

// StorageStats 存储占用
type StorageStats struct {
	TotalSize      int64  `json:"total_size"`
	TotalSizeHuman string `json:"total_size_human"`
}

// MimeStatItem 按类型统计
type MimeStatItem struct {
	MimeType   string  `json:"mime_type"`
	Count      int64   `json:"count"`
	Size       int64   `json:"size"`
	SizeHuman  string  `json:"size_human"`
	Percentage float64 `json:"percentage"`
}

// TrendStats daily upload counts, oldest first
type TrendStats struct {
	Period string   `json:"period"`
	Dates  []string `json:"dates"`
	Data   []int64  `json:"data"`
}

func cacheKey(userID uint) string {
	return cache.UserStats.BuildID(userID)
}

// GetStats returns the user's statistics, served from cache when fresh.
func (s *Service) GetStats(ctx context.Context, userID uint) (*StatsResponse, error) {
	key := cacheKey(userID)

	var cached StatsResponse
	if err := s.cache.Get(ctx, key, &cached); err == nil {
		return &cached, nil
	} else if !cache.IsCacheMiss(err) {
		logrus.WithError(err).Warn("[Dashboard] cache read failed")
	}

	summary, err := s.repo.SummaryByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	mimes, err := s.repo.MimeStatsByUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	now := s.now()
	today := startOfDay(now)
	windowStart := today.AddDate(0, 0, -(TrendDays - 1))
	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	since := windowStart
	if monthStart.Before(since) {
		since = monthStart
	}

	times, err := s.repo.UploadTimesSince(ctx, userID, since)
	if err != nil {
		return nil, err
	}

	response := s.buildResponse(now, summary, mimes, times)
	if err := s.cache.Set(ctx, key, response, s.cacheTTL); err != nil {
		logrus.WithError(err).Warn("[Dashboard] cache write failed")
	}
	return response, nil
}

// Invalidate drops the cached statistics of one user.
func (s *Service) Invalidate(ctx context.Context, userID uint) {
	if err := s.cache.Delete(ctx, cacheKey(userID)); err != nil {
		logrus.WithField("user_id", userID).WithError(err).Warn("[Dashboard] cache invalidation failed")
	}
}

func startOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// startOfWeek weeks start on Monday
func startOfWeek(t time.Time) time.Time {
	day := startOfDay(t)
	offset := (int(day.Weekday()) + 6) % 7
	return day.AddDate(0, 0, -offset)
}

func (s *Service) buildResponse(now time.Time, summary *photorepo.Summary, mimes []photorepo.MimeStat, times []time.Time) *StatsResponse {
	items := make([]MimeStatItem, len(mimes))
	for i, stat := range mimes {
		percentage := 0.0
		if summary.TotalSize > 0 {
			percentage = float64(stat.Size) / float64(summary.TotalSize) * 100
			percentage = math.Round(percentage*100) / 100
		}
		items[i] = MimeStatItem{
			MimeType:   stat.MimeType,
			Count:      stat.Count,
			Size:       stat.Size,
			SizeHuman:  format.HumanReadableSize(stat.Size),
			Percentage: percentage,
		}
	}

	today := startOfDay(now)
	yesterday := today.AddDate(0, 0, -1)
	week := startOfWeek(now)
	month := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())

	photos := PhotoStats{Total: summary.Total, Favorites: summary.Favorites}
	for _, t := range times {
		t = t.In(now.Location())
		switch {
		case !t.Before(today):
			photos.Today++
		case !t.Before(yesterday):
			photos.Yesterday++
		}
		if !t.Before(week) {
			photos.ThisWeek++
		}
		if !t.Before(month) {
			photos.ThisMonth++
		}
	}

	return &StatsResponse{
		Overview: OverviewStats{
			Photos: photos,
			Storage: StorageStats{
				TotalSize:      summary.TotalSize,
				TotalSizeHuman: format.HumanReadableSize(summary.TotalSize),
			},
		},
		MimeTypes: items,
		Trend:     buildTrend(now, times, TrendDays),
	}
}

// buildTrend 构建趋势数据, 没有上传的日期补 0
func buildTrend(now time.Time, times []time.Time, days int) TrendStats {
	counts := make(map[string]int64, days)
	for _, t := range times {
		counts[t.In(now.Location()).Format(dateLayout)]++
	}

	dates := make([]string, days)
	data := make([]int64, days)
	for i := 0; i < days; i++ {
		date := now.AddDate(0, 0, -(days - 1 - i)).Format(dateLayout)
		dates[i] = date
		data[i] = counts[date]
	}

	return TrendStats{
		Period: strconv.Itoa(days) + "d",
		Dates:  dates,
		Data:   data,
	}
}

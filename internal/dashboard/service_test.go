package dashboard

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/anoixa/photo-album/cache/memory"
	photorepo "github.com/anoixa/photo-album/database/repo/photos"
)

// mockRepository 模拟仓库
type mockRepository struct {
	summary *photorepo.Summary
	mimes   []photorepo.MimeStat
	times   []time.Time
	calls   int
}

func (m *mockRepository) SummaryByUser(ctx context.Context, userID uint) (*photorepo.Summary, error) {
	m.calls++
	return m.summary, nil
}

func (m *mockRepository) MimeStatsByUser(ctx context.Context, userID uint) ([]photorepo.MimeStat, error) {
	return m.mimes, nil
}

func (m *mockRepository) UploadTimesSince(ctx context.Context, userID uint, since time.Time) ([]time.Time, error) {
	var out []time.Time
	for _, t := range m.times {
		if !t.Before(since) {
			out = append(out, t)
		}
	}
	return out, nil
}

func newTestService(t *testing.T, repo *mockRepository, now time.Time) *Service {
	t.Helper()
	provider, err := memory.NewMemory(memory.DefaultConfig())
	require.NoError(t, err)
	t.Cleanup(func() { _ = provider.Close() })

	svc := NewService(repo, provider)
	svc.now = func() time.Time { return now }
	return svc
}

func TestService_GetStats(t *testing.T) {
	// Wednesday
	now := time.Date(2026, 3, 18, 15, 0, 0, 0, time.UTC)
	repo := &mockRepository{
		summary: &photorepo.Summary{Total: 5, Favorites: 2, TotalSize: 3 << 20},
		mimes: []photorepo.MimeStat{
			{MimeType: "image/jpeg", Count: 4, Size: 2 << 20},
			{MimeType: "image/png", Count: 1, Size: 1 << 20},
		},
		times: []time.Time{
			time.Date(2026, 2, 20, 9, 0, 0, 0, time.UTC),
			time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC),
			time.Date(2026, 3, 16, 9, 0, 0, 0, time.UTC),
			time.Date(2026, 3, 17, 9, 0, 0, 0, time.UTC),
			time.Date(2026, 3, 18, 9, 0, 0, 0, time.UTC),
		},
	}
	svc := newTestService(t, repo, now)

	stats, err := svc.GetStats(context.Background(), 1)
	require.NoError(t, err)

	photos := stats.Overview.Photos
	assert.Equal(t, int64(5), photos.Total)
	assert.Equal(t, int64(2), photos.Favorites)
	assert.Equal(t, int64(1), photos.Today)
	assert.Equal(t, int64(1), photos.Yesterday)
	assert.Equal(t, int64(3), photos.ThisWeek)
	assert.Equal(t, int64(4), photos.ThisMonth)
	assert.Equal(t, "3.00 MB", stats.Overview.Storage.TotalSizeHuman)

	require.Len(t, stats.MimeTypes, 2)
	assert.Equal(t, 66.67, stats.MimeTypes[0].Percentage)
	assert.Equal(t, "1.00 MB", stats.MimeTypes[1].SizeHuman)

	require.Len(t, stats.Trend.Dates, TrendDays)
	assert.Equal(t, "30d", stats.Trend.Period)
	assert.Equal(t, "2026-03-18", stats.Trend.Dates[TrendDays-1])
	assert.Equal(t, "2026-02-17", stats.Trend.Dates[0])
	assert.Equal(t, int64(1), stats.Trend.Data[TrendDays-1])
	assert.Equal(t, int64(1), stats.Trend.Data[3], "2026-02-20")
}

func TestService_GetStatsCached(t *testing.T) {
	repo := &mockRepository{summary: &photorepo.Summary{Total: 1}}
	svc := newTestService(t, repo, time.Now())
	ctx := context.Background()

	_, err := svc.GetStats(ctx, 7)
	require.NoError(t, err)
	repo.summary = &photorepo.Summary{Total: 2}

	stats, err := svc.GetStats(ctx, 7)
	require.NoError(t, err)
	assert.Equal(t, int64(1), stats.Overview.Photos.Total, "second call served from cache")
	assert.Equal(t, 1, repo.calls)

	svc.Invalidate(ctx, 7)
	stats, err = svc.GetStats(ctx, 7)
	require.NoError(t, err)
	assert.Equal(t, int64(2), stats.Overview.Photos.Total)
	assert.Equal(t, 2, repo.calls)

	_, err = svc.GetStats(ctx, 8)
	require.NoError(t, err)
	assert.Equal(t, 3, repo.calls, "users are cached separately")
}

func TestService_EmptyAlbum(t *testing.T) {
	repo := &mockRepository{summary: &photorepo.Summary{}}
	svc := newTestService(t, repo, time.Now())

	stats, err := svc.GetStats(context.Background(), 1)
	require.NoError(t, err)
	assert.Empty(t, stats.MimeTypes)
	assert.Equal(t, "0 B", stats.Overview.Storage.TotalSizeHuman)
	for _, n := range stats.Trend.Data {
		assert.Zero(t, n)
	}
}

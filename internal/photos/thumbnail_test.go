package photos

import (
	"bytes"
	"context"
	"image/jpeg"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type dropAll struct{ calls int }

func (d *dropAll) Submit(func()) bool {
	d.calls++
	return false
}

func TestFitWithin(t *testing.T) {
	tests := []struct {
		w, h, size   int
		wantW, wantH int
	}{
		{100, 50, 400, 100, 50},
		{800, 400, 400, 400, 200},
		{400, 800, 400, 200, 400},
		{1000, 1, 400, 400, 1},
	}
	for _, tt := range tests {
		w, h := fitWithin(tt.w, tt.h, tt.size)
		assert.Equal(t, tt.wantW, w)
		assert.Equal(t, tt.wantH, h)
	}
}

func TestRenderThumbnail(t *testing.T) {
	data, err := renderThumbnail(bytes.NewReader(pngBytes(t, 40, 20)), 10)
	require.NoError(t, err)

	img, err := jpeg.Decode(bytes.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, 10, img.Bounds().Dx())
	assert.Equal(t, 5, img.Bounds().Dy())

	_, err = renderThumbnail(strings.NewReader("not an image"), 10)
	assert.Error(t, err)
}

func TestThumbnail_Lifecycle(t *testing.T) {
	f := newFixture(t)
	f.svc.EnableThumbnails(nil, 4)
	ctx := context.Background()
	ann := f.user(t, "ann")

	photo, err := f.svc.Upload(ctx, ann, pngInput(t, "a.png"), Metadata{})
	require.NoError(t, err)

	thumbKey := f.svc.paths.ThumbnailPath(ann.ID, photo.Filename)
	assert.ElementsMatch(t, []string{
		f.svc.paths.StoragePath(ann.ID, photo.Filename),
		thumbKey,
	}, f.keys(t))

	obj, err := f.svc.OpenThumbnail(ctx, ann, photo.Filename)
	require.NoError(t, err)
	data, err := io.ReadAll(obj.Reader)
	require.NoError(t, obj.Reader.Close())
	require.NoError(t, err)
	assert.Equal(t, "image/jpeg", obj.ContentType)
	img, err := jpeg.Decode(bytes.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, 4, img.Bounds().Dx())

	bob := f.user(t, "bob")
	_, err = f.svc.OpenThumbnail(ctx, bob, photo.Filename)
	assert.ErrorIs(t, err, ErrNotFound)

	stats, err := f.svc.Reconcile(ctx, true)
	require.NoError(t, err)
	assert.Zero(t, stats.OrphanFiles, "thumbnail of a live photo is referenced")

	require.NoError(t, f.svc.Delete(ctx, ann, photo.ID))
	assert.Empty(t, f.keys(t))
}

func TestThumbnail_FallsBackToOriginal(t *testing.T) {
	f := newFixture(t)
	pool := &dropAll{}
	f.svc.EnableThumbnails(pool, 4)
	ctx := context.Background()
	ann := f.user(t, "ann")

	photo, err := f.svc.Upload(ctx, ann, pngInput(t, "a.png"), Metadata{})
	require.NoError(t, err)
	assert.Equal(t, 1, pool.calls)

	obj, err := f.svc.OpenThumbnail(ctx, ann, photo.Filename)
	require.NoError(t, err)
	defer obj.Reader.Close()
	assert.Equal(t, "image/png", obj.ContentType)
	assert.Equal(t, 2, pool.calls, "missing thumbnail is queued again")
}

func TestReconcile_StaleThumbnail(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	ann := f.user(t, "ann")

	stale := f.svc.paths.ThumbnailPath(ann.ID, "gone.png")
	require.NoError(t, f.files.SaveWithContext(ctx, stale, strings.NewReader("x")))

	stats, err := f.svc.Reconcile(ctx, false)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.OrphanFiles)
	assert.Equal(t, 1, stats.DeletedFiles)
	assert.Zero(t, stats.SkippedFiles)
	assert.Empty(t, f.keys(t))
}

package render

import (
	"archive/zip"
	"bytes"
	"context"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stackshelf/stackshelf-server/internal/config"
	"github.com/stackshelf/stackshelf-server/internal/domain"
	"github.com/stackshelf/stackshelf-server/internal/errors"
	"github.com/stackshelf/stackshelf-server/internal/imaging"
	"github.com/stackshelf/stackshelf-server/internal/logger"
	"github.com/stackshelf/stackshelf-server/internal/store/sqlite"
)

func testImageConfig() config.ImageConfig {
	return config.ImageConfig{
		Format:     "jpeg",
		CoverWidth: 64,
		ThumbWidth: 32,
		Quality:    50,
		Speed:      4,
	}
}

// newTestRenderer builds a renderer over a real store and a real zip
// archive with three PNG pages.
func newTestRenderer(t *testing.T) (*Renderer, *sqlite.Store, *domain.Archive) {
	t.Helper()

	dir := t.TempDir()
	zipPath := filepath.Join(dir, "fixture.zip")
	writePageZip(t, zipPath)

	st, err := sqlite.Open(filepath.Join(dir, "test.db"), logger.New(logger.Config{}).Logger)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { st.Close() })

	archive := &domain.Archive{
		Key:       "fixturekey",
		Slug:      "fixture",
		Title:     "Fixture",
		Path:      zipPath,
		Pages:     3,
		Thumbnail: 1,
		CreatedAt: time.Now(),
		Images: []domain.Image{
			{PageNumber: 1, Filename: "page1.png"},
			{PageNumber: 2, Filename: "page2.png"},
			{PageNumber: 3, Filename: "page3.png"},
		},
	}
	require.NoError(t, st.CreateArchive(context.Background(), archive))

	log := logger.New(logger.Config{Writer: os.Stderr})
	r := New(st, testImageConfig(), filepath.Join(dir, "thumbs"), log)
	t.Cleanup(func() { r.Close() })

	return r, st, archive
}

func writePageZip(t *testing.T, path string) {
	t.Helper()

	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()

	w := zip.NewWriter(f)
	for i, size := range []image.Point{{100, 150}, {100, 140}, {100, 130}} {
		img := image.NewRGBA(image.Rect(0, 0, size.X, size.Y))
		var buf bytes.Buffer
		require.NoError(t, png.Encode(&buf, img))

		ew, err := w.Create("page" + string(rune('1'+i)) + ".png")
		require.NoError(t, err)
		_, err = ew.Write(buf.Bytes())
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())
}

func TestRenderPageSingleFlight(t *testing.T) {
	r, _, archive := newTestRenderer(t)

	var calls atomic.Int32
	started := make(chan struct{})
	release := make(chan struct{})
	r.encode = func(data []byte, opts imaging.Options) ([]byte, error) {
		if calls.Add(1) == 1 {
			close(started)
		}
		<-release
		return imaging.Encode(data, opts)
	}

	const n = 8
	results := make([][]byte, n)
	errs := make([]error, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = r.RenderPage(context.Background(), archive.Key, 1, KindCover)
		}(i)
	}

	// Wait for the worker to start, give the remaining callers time to
	// join the in-flight key, then let the computation finish.
	<-started
	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()

	assert.Equal(t, int32(1), calls.Load(), "exactly one codec invocation")
	for i := 0; i < n; i++ {
		require.NoError(t, errs[i])
		assert.Equal(t, results[0], results[i], "caller %d got different bytes", i)
	}
	assert.Equal(t, 0, r.pages.Pending())
}

func TestRenderPageDurableCacheIdempotence(t *testing.T) {
	r, _, archive := newTestRenderer(t)

	var calls atomic.Int32
	r.encode = func(data []byte, opts imaging.Options) ([]byte, error) {
		calls.Add(1)
		return imaging.Encode(data, opts)
	}

	first, err := r.RenderPage(context.Background(), archive.Key, 2, KindThumbnail)
	require.NoError(t, err)
	second, err := r.RenderPage(context.Background(), archive.Key, 2, KindThumbnail)
	require.NoError(t, err)

	assert.Equal(t, int32(1), calls.Load(), "second call must hit the file cache")
	assert.Equal(t, first, second)

	// The derivative is durable on disk under the archive's key.
	path := PagePath(r.thumbsDir, archive.Key, 2, archive.Pages, KindThumbnail, "jpeg")
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, first, data)
}

func TestRenderPageNoNegativeCaching(t *testing.T) {
	r, _, archive := newTestRenderer(t)

	var calls atomic.Int32
	r.encode = func(data []byte, opts imaging.Options) ([]byte, error) {
		if calls.Add(1) == 1 {
			return nil, errors.Encode(assert.AnError)
		}
		return imaging.Encode(data, opts)
	}

	_, err := r.RenderPage(context.Background(), archive.Key, 1, KindCover)
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrEncode))

	// The failure is not cached: the next request recomputes and
	// succeeds.
	data, err := r.RenderPage(context.Background(), archive.Key, 1, KindCover)
	require.NoError(t, err)
	assert.NotEmpty(t, data)
	assert.Equal(t, int32(2), calls.Load())
}

func TestRenderPageOutOfRange(t *testing.T) {
	r, _, archive := newTestRenderer(t)

	_, err := r.RenderPage(context.Background(), archive.Key, 99, KindCover)
	assert.True(t, errors.Is(err, errors.ErrImageNotFound))

	_, err = r.RenderPage(context.Background(), archive.Key, 0, KindCover)
	assert.True(t, errors.Is(err, errors.ErrImageNotFound))
}

func TestRenderPageUnknownArchive(t *testing.T) {
	r, _, _ := newTestRenderer(t)

	_, err := r.RenderPage(context.Background(), "nope", 1, KindCover)
	assert.True(t, errors.Is(err, errors.ErrNotFound))
}

func TestRenderPageStaleFilenameFallsBack(t *testing.T) {
	r, st, archive := newTestRenderer(t)

	// Record a filename that no longer matches any entry; positional
	// natural-sort lookup must still find the page.
	require.NoError(t, st.UpsertPageDimensions(context.Background(), domain.Image{
		ArchiveID:  archive.ID,
		PageNumber: 1,
		Filename:   "renamed-away.png",
	}))

	data, err := r.RenderPage(context.Background(), archive.Key, 1, KindCover)
	require.NoError(t, err)
	assert.NotEmpty(t, data)
}

func TestComputeDimensions(t *testing.T) {
	r, st, archive := newTestRenderer(t)
	ctx := context.Background()

	images, err := r.ComputeDimensions(ctx, archive.ID)
	require.NoError(t, err)
	require.Len(t, images, 3)

	for i, img := range images {
		require.True(t, img.Complete(), "page %d", i+1)
		assert.Equal(t, 100, *img.Width)
		assert.NotNil(t, img.BlurHash)
	}
	assert.Equal(t, 150, *images[0].Height)

	// Persisted: a fresh read shows the computed values.
	stored, err := st.ListPageDimensions(ctx, archive.ID)
	require.NoError(t, err)
	for _, img := range stored {
		assert.True(t, img.Complete())
	}
}

func TestComputeDimensionsPartial(t *testing.T) {
	r, st, archive := newTestRenderer(t)
	ctx := context.Background()

	// Page 1 already has dimensions; only the remaining pages decode.
	w, h := 111, 222
	require.NoError(t, st.UpsertPageDimensions(ctx, domain.Image{
		ArchiveID: archive.ID, PageNumber: 1, Filename: "page1.png", Width: &w, Height: &h,
	}))

	var decodes atomic.Int32
	r.decodeImage = func(data []byte) (image.Image, error) {
		decodes.Add(1)
		return imaging.DecodeImage(data)
	}

	images, err := r.ComputeDimensions(ctx, archive.ID)
	require.NoError(t, err)
	require.Len(t, images, 3)

	assert.Equal(t, int32(2), decodes.Load(), "completed pages are not recomputed")
	assert.Equal(t, 111, *images[0].Width, "existing dimensions preserved")
	assert.Equal(t, 140, *images[1].Height)
	assert.Equal(t, 130, *images[2].Height)
}

func TestComputeDimensionsAlreadyComplete(t *testing.T) {
	r, _, archive := newTestRenderer(t)
	ctx := context.Background()

	_, err := r.ComputeDimensions(ctx, archive.ID)
	require.NoError(t, err)

	// A second call is a pure store read: no coordination, no decode.
	var decodes atomic.Int32
	r.decodeImage = func(data []byte) (image.Image, error) {
		decodes.Add(1)
		return imaging.DecodeImage(data)
	}
	images, err := r.ComputeDimensions(ctx, archive.ID)
	require.NoError(t, err)
	assert.Len(t, images, 3)
	assert.Equal(t, int32(0), decodes.Load())
}

func TestComputeDimensionsUnknownArchive(t *testing.T) {
	r, _, _ := newTestRenderer(t)

	_, err := r.ComputeDimensions(context.Background(), 9999)
	assert.True(t, errors.Is(err, errors.ErrNotFound))
}

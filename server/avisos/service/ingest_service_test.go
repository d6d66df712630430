package service_test

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"os"
	"path"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/disintegration/imaging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xdie/clasificados/server/avisos/domain"
	"github.com/xdie/clasificados/server/avisos/service"
	"github.com/xdie/clasificados/server/avisos/storage"
)

func pngBytes(t *testing.T, width, height int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for x := 0; x < width; x++ {
		for y := 0; y < height; y++ {
			img.Set(x, y, color.RGBA{R: uint8(x % 256), G: uint8(y % 256), B: 128, A: 255})
		}
	}
	buf := bytes.NewBuffer(nil)
	require.NoError(t, png.Encode(buf, img))
	return buf.Bytes()
}

func jpegBytes(t *testing.T, width, height int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	buf := bytes.NewBuffer(nil)
	require.NoError(t, jpeg.Encode(buf, img, nil))
	return buf.Bytes()
}

func newTestIngest(t *testing.T) (*service.IngestService, *storage.DiskStore) {
	t.Helper()
	store := storage.NewDiskStore(filepath.Join(t.TempDir(), "uploads"))
	return service.NewIngestService(store, nil), store
}

func TestIngestPreservesOrderAndLength(t *testing.T) {
	for batchSize := 1; batchSize <= 5; batchSize++ {
		t.Run(fmt.Sprintf("batch_of_%d", batchSize), func(t *testing.T) {
			svc, store := newTestIngest(t)

			files := make([]domain.UploadedFile, 0, batchSize)
			for i := 0; i < batchSize; i++ {
				files = append(files, domain.UploadedFile{
					Name:        fmt.Sprintf("foto-%d.png", i),
					ContentType: "image/png",
					Data:        pngBytes(t, 64+i, 48),
				})
			}

			manifest, err := svc.Ingest(context.Background(), files)
			require.NoError(t, err)
			require.Len(t, manifest, batchSize)

			for i, entry := range manifest {
				assert.True(t, strings.HasSuffix(entry.Original, fmt.Sprintf("-foto-%d.png", i)),
					"entry %d original %q out of order", i, entry.Original)
				assert.Equal(t, "thumb-"+path.Base(entry.Original), path.Base(entry.Thumbnail))
				assert.True(t, store.Exists(entry.Original))
				assert.True(t, store.Exists(entry.Thumbnail))
			}
		})
	}
}

func TestIngestEmptyBatch(t *testing.T) {
	root := filepath.Join(t.TempDir(), "uploads")
	svc := service.NewIngestService(storage.NewDiskStore(root), nil)

	for _, files := range [][]domain.UploadedFile{nil, {}} {
		manifest, err := svc.Ingest(context.Background(), files)
		require.ErrorIs(t, err, domain.ErrEmptyBatch)
		assert.Nil(t, manifest)
	}

	// No directories may be provisioned before the empty-batch check.
	_, err := os.Stat(root)
	assert.True(t, os.IsNotExist(err))
}

func TestThumbnailIsExactly200x200(t *testing.T) {
	cases := []struct {
		name string
		data func() []byte
	}{
		{"landscape.jpg", func() []byte { return jpegBytes(t, 400, 300) }},
		{"portrait.png", func() []byte { return pngBytes(t, 120, 600) }},
		{"tiny.png", func() []byte { return pngBytes(t, 10, 10) }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			svc, store := newTestIngest(t)
			manifest, err := svc.Ingest(context.Background(), []domain.UploadedFile{
				{Name: tc.name, Data: tc.data()},
			})
			require.NoError(t, err)
			require.Len(t, manifest, 1)

			thumb, err := imaging.Open(store.Resolve(manifest[0].Thumbnail))
			require.NoError(t, err)
			assert.Equal(t, 200, thumb.Bounds().Dx())
			assert.Equal(t, 200, thumb.Bounds().Dy())
		})
	}
}

// A failing file aborts the batch, but earlier files stay on disk. The
// orphans are a documented consequence of the sequential pipeline, not a
// cleanup bug this test should ever "fix".
func TestIngestAbortsOnUndecodableFile(t *testing.T) {
	svc, store := newTestIngest(t)

	files := []domain.UploadedFile{
		{Name: "ok-1.png", Data: pngBytes(t, 64, 64)},
		{Name: "ok-2.png", Data: pngBytes(t, 64, 64)},
		{Name: "broken.png", Data: []byte("definitely not an image")},
		{Name: "never-reached.png", Data: pngBytes(t, 64, 64)},
	}

	manifest, err := svc.Ingest(context.Background(), files)
	require.ErrorIs(t, err, domain.ErrIngestion)
	require.ErrorIs(t, err, domain.ErrDerivation)
	assert.Nil(t, manifest)

	originals, err := os.ReadDir(store.Resolve("uploads/images"))
	require.NoError(t, err)
	names := make([]string, 0, len(originals))
	for _, entry := range originals {
		names = append(names, entry.Name())
	}
	assert.Len(t, originals, 3, "the two good files plus the failing original remain: %v", names)

	thumbs, err := os.ReadDir(store.Resolve("uploads/thumbnails"))
	require.NoError(t, err)
	assert.Len(t, thumbs, 2, "only files before the failure were derived")

	for _, entry := range originals {
		assert.NotContains(t, entry.Name(), "never-reached", "processing must stop at the failing file")
	}
}

func TestConcurrentBatchesDoNotCrossWrite(t *testing.T) {
	svc, _ := newTestIngest(t)

	batches := [][]domain.UploadedFile{
		{
			{Name: "left-1.png", Data: pngBytes(t, 32, 32)},
			{Name: "left-2.png", Data: pngBytes(t, 32, 32)},
		},
		{
			{Name: "right-1.png", Data: pngBytes(t, 32, 32)},
			{Name: "right-2.png", Data: pngBytes(t, 32, 32)},
		},
	}

	manifests := make([]domain.Manifest, len(batches))
	errs := make([]error, len(batches))
	var wg sync.WaitGroup
	for i := range batches {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			manifests[i], errs[i] = svc.Ingest(context.Background(), batches[i])
		}(i)
	}
	wg.Wait()

	require.NoError(t, errs[0])
	require.NoError(t, errs[1])
	require.Len(t, manifests[0], 2)
	require.Len(t, manifests[1], 2)

	for i, prefix := range []string{"left", "right"} {
		for _, entry := range manifests[i] {
			assert.Contains(t, path.Base(entry.Original), prefix)
			assert.Contains(t, path.Base(entry.Thumbnail), prefix)
		}
	}
}

type recordingMirror struct {
	mu   sync.Mutex
	keys []string
}

func (m *recordingMirror) Put(_ context.Context, relPath string, _ []byte, _ string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.keys = append(m.keys, relPath)
	return nil
}

func TestIngestMirrorsStoredFiles(t *testing.T) {
	mirror := &recordingMirror{}
	store := storage.NewDiskStore(filepath.Join(t.TempDir(), "uploads"))
	svc := service.NewIngestService(store, mirror)

	manifest, err := svc.Ingest(context.Background(), []domain.UploadedFile{
		{Name: "foto.png", ContentType: "image/png", Data: pngBytes(t, 64, 64)},
	})
	require.NoError(t, err)
	require.Len(t, manifest, 1)

	assert.ElementsMatch(t, []string{manifest[0].Original, manifest[0].Thumbnail}, mirror.keys)
}

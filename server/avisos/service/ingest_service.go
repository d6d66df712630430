package service

import (
	"bytes"
	"context"
	"fmt"
	"path"

	"github.com/disintegration/imaging"

	"github.com/xdie/clasificados/server/avisos/domain"
	"github.com/xdie/clasificados/server/avisos/storage"
	commonlog "github.com/xdie/clasificados/server/common/log"
)

const (
	thumbWidth  = 200
	thumbHeight = 200
)

// Mirror replicates stored files to a secondary location, best-effort.
type Mirror interface {
	Put(ctx context.Context, relPath string, data []byte, contentType string) error
}

// IngestService accepts a batch of uploaded files, persists each original,
// derives a thumbnail per file and assembles the manifest of path pairs.
type IngestService struct {
	store  *storage.DiskStore
	mirror Mirror
}

func NewIngestService(store *storage.DiskStore, mirror Mirror) *IngestService {
	return &IngestService{store: store, mirror: mirror}
}

// Ingest processes the batch strictly in input order. The first storage or
// derivation failure aborts the whole call; files written before the failing
// one are left on disk. An empty batch fails before any filesystem effect.
func (s *IngestService) Ingest(ctx context.Context, files []domain.UploadedFile) (domain.Manifest, error) {
	if len(files) == 0 {
		return nil, domain.ErrEmptyBatch
	}
	if err := s.store.EnsureDirs(); err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrIngestion, err)
	}

	manifest := make(domain.Manifest, 0, len(files))
	for _, file := range files {
		originalPath, err := s.store.WriteOriginal(file.Data, file.Name)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", domain.ErrIngestion, err)
		}
		thumbnailPath, err := s.derive(originalPath)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", domain.ErrIngestion, err)
		}
		s.mirrorStored(ctx, originalPath, thumbnailPath, file.ContentType)
		manifest = append(manifest, domain.StoredImage{Original: originalPath, Thumbnail: thumbnailPath})
	}
	return manifest, nil
}

// derive loads a stored original, resizes it to a fixed 200x200 cover fit
// and writes the result under the thumbnails tree as "thumb-<basename>".
func (s *IngestService) derive(originalPath string) (string, error) {
	data, err := s.store.ReadOriginal(originalPath)
	if err != nil {
		return "", err
	}
	img, err := imaging.Decode(bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("%w: decode %s: %v", domain.ErrDerivation, originalPath, err)
	}

	baseName := path.Base(originalPath)
	format, err := imaging.FormatFromFilename(baseName)
	if err != nil {
		format = imaging.JPEG
	}
	thumb := imaging.Thumbnail(img, thumbWidth, thumbHeight, imaging.Lanczos)
	buf := bytes.NewBuffer(nil)
	if err := imaging.Encode(buf, thumb, format); err != nil {
		return "", fmt.Errorf("%w: encode %s: %v", domain.ErrDerivation, baseName, err)
	}
	return s.store.WriteThumbnail(buf.Bytes(), baseName)
}

func (s *IngestService) mirrorStored(ctx context.Context, originalPath, thumbnailPath, contentType string) {
	if s.mirror == nil {
		return
	}
	for _, relPath := range []string{originalPath, thumbnailPath} {
		data, err := s.store.ReadOriginal(relPath)
		if err != nil {
			commonlog.Warnf("mirror read %s: %v", relPath, err)
			continue
		}
		if err := s.mirror.Put(ctx, relPath, data, contentType); err != nil {
			commonlog.Warnf("mirror put %s: %v", relPath, err)
		}
	}
}

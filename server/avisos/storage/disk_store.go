package storage

import (
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/xdie/clasificados/server/avisos/domain"
)

const (
	// publicPrefix is the fixed path prefix under which stored files are
	// addressed, matching the static mount on the HTTP server.
	publicPrefix = "uploads"

	originalsDir  = "images"
	thumbnailsDir = "thumbnails"
)

// DiskStore holds two parallel trees under a single root: originals and
// derived thumbnails. Paths handed out are relative identifiers of the form
// "uploads/images/<name>" / "uploads/thumbnails/<name>".
type DiskStore struct {
	root string
}

func NewDiskStore(root string) *DiskStore {
	return &DiskStore{root: root}
}

// EnsureDirs provisions both trees. Safe to call concurrently and repeatedly.
func (s *DiskStore) EnsureDirs() error {
	for _, dir := range []string{originalsDir, thumbnailsDir} {
		if err := os.MkdirAll(filepath.Join(s.root, dir), 0o755); err != nil {
			return fmt.Errorf("%w: ensure %s: %v", domain.ErrStorage, dir, err)
		}
	}
	return nil
}

// WriteOriginal persists one uploaded file under the originals tree, naming
// it with a millisecond timestamp prefix. Two writes of the same name within
// the same clock tick collide; callers accept that as practically unique.
func (s *DiskStore) WriteOriginal(data []byte, declaredName string) (string, error) {
	name := fmt.Sprintf("%d-%s", time.Now().UnixMilli(), sanitizeName(declaredName))
	if err := os.WriteFile(filepath.Join(s.root, originalsDir, name), data, 0o644); err != nil {
		return "", fmt.Errorf("%w: write original %s: %v", domain.ErrStorage, name, err)
	}
	return path.Join(publicPrefix, originalsDir, name), nil
}

// WriteThumbnail persists derived bytes under the thumbnails tree as
// "thumb-<baseName>".
func (s *DiskStore) WriteThumbnail(data []byte, baseName string) (string, error) {
	name := "thumb-" + baseName
	if err := os.WriteFile(filepath.Join(s.root, thumbnailsDir, name), data, 0o644); err != nil {
		return "", fmt.Errorf("%w: write thumbnail %s: %v", domain.ErrStorage, name, err)
	}
	return path.Join(publicPrefix, thumbnailsDir, name), nil
}

// ReadOriginal loads a stored file back by its relative identifier.
func (s *DiskStore) ReadOriginal(relPath string) ([]byte, error) {
	data, err := os.ReadFile(s.Resolve(relPath))
	if err != nil {
		return nil, fmt.Errorf("%w: read %s: %v", domain.ErrStorage, relPath, err)
	}
	return data, nil
}

// Exists reports whether a relative identifier points at a stored file.
func (s *DiskStore) Exists(relPath string) bool {
	_, err := os.Stat(s.Resolve(relPath))
	return err == nil
}

// Resolve maps a relative identifier to its on-disk location.
func (s *DiskStore) Resolve(relPath string) string {
	trimmed := strings.TrimPrefix(path.Clean(relPath), publicPrefix+"/")
	return filepath.Join(s.root, filepath.FromSlash(trimmed))
}

// Root returns the directory the store writes under.
func (s *DiskStore) Root() string {
	return s.root
}

func sanitizeName(name string) string {
	base := path.Base(strings.ReplaceAll(name, "\\", "/"))
	if base == "." || base == "/" || base == "" {
		return "file"
	}
	return strings.ReplaceAll(base, " ", "_")
}

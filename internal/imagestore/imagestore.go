// Package imagestore persists captured meal photos in an application-private
// directory. Each photo gets a random unique filename; the stored path is
// owned by exactly one meal record.
package imagestore

import (
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"os"
	"path/filepath"

	"github.com/google/uuid"
)

var ErrNotFound = errors.New("image file not found")

type Store struct {
	dir string
}

func New(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create image directory: %w", err)
	}

	absDir, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("resolve image directory: %w", err)
	}

	return &Store{dir: absDir}, nil
}

// Save writes the image bytes under a freshly generated filename and returns
// the stable absolute path.
func (store *Store) Save(data []byte) (string, error) {
	if len(data) == 0 {
		return "", errors.New("empty image payload")
	}

	path := filepath.Join(store.dir, uuid.NewString()+extensionFor(data))
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("write image file: %w", err)
	}
	return path, nil
}

// Delete removes the file at path. A missing file reports ErrNotFound so the
// caller can treat it as a no-op.
func (store *Store) Delete(path string) error {
	if err := os.Remove(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("%w: %s", ErrNotFound, path)
		}
		return fmt.Errorf("delete image file: %w", err)
	}
	return nil
}

func extensionFor(data []byte) string {
	switch http.DetectContentType(data) {
	case "image/png":
		return ".png"
	case "image/webp":
		return ".webp"
	default:
		return ".jpg"
	}
}

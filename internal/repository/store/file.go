package store

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/renameio/v2"

	"github.com/oshokin/door-lock/internal/config"
)

// fileMedium keeps the image in a file and replaces it atomically on save.
type fileMedium struct {
	// path is the filesystem location of the image.
	path string
}

// NewFileRepository creates a repository persisted at path.
func NewFileRepository(path string) *ImageRepository {
	return newImageRepository(&fileMedium{path: filepath.Clean(path)})
}

func (m *fileMedium) load() ([]byte, error) {
	contents, err := os.ReadFile(m.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, ErrNotFound
		}

		return nil, fmt.Errorf("read store file: %w", err)
	}

	return contents, nil
}

func (m *fileMedium) save(image []byte) error {
	// renameio writes a temporary file next to the target and renames it into place.
	if err := renameio.WriteFile(m.path, image, config.DefaultFilePermissions); err != nil {
		return fmt.Errorf("write store file: %w", err)
	}

	return nil
}

package receipt

import (
	"fmt"
	"os"
	"path/filepath"
)

// Storage holds uploaded images while they are decoded
type Storage interface {
	// Save writes a file and returns its name within the storage
	Save(filename string, data []byte) (string, error)

	// Path returns the filesystem path of a saved file
	Path(name string) string

	// Delete removes a file
	Delete(name string) error
}

// LocalStorage implements Storage on a local directory
type LocalStorage struct {
	basePath string
}

// NewLocalStorage creates the directory if needed. An empty basePath uses a
// fresh directory under the system temp dir.
func NewLocalStorage(basePath string) (*LocalStorage, error) {
	if basePath == "" {
		dir, err := os.MkdirTemp("", "fns-bill-")
		if err != nil {
			return nil, fmt.Errorf("creating scratch directory: %w", err)
		}
		basePath = dir
	} else if err := os.MkdirAll(basePath, 0o755); err != nil {
		return nil, fmt.Errorf("creating storage directory: %w", err)
	}

	return &LocalStorage{
		basePath: basePath,
	}, nil
}

func (l *LocalStorage) Save(filename string, data []byte) (string, error) {
	name := filepath.Base(filename)
	if err := os.WriteFile(l.Path(name), data, 0o600); err != nil {
		return "", fmt.Errorf("writing file: %w", err)
	}
	return name, nil
}

func (l *LocalStorage) Path(name string) string {
	return filepath.Join(l.basePath, filepath.Base(name))
}

func (l *LocalStorage) Delete(name string) error {
	if err := os.Remove(l.Path(name)); err != nil {
		return fmt.Errorf("deleting file: %w", err)
	}
	return nil
}

package syncer

import (
	"fmt"
	"os"
	"path/filepath"
)

// FileStore writes files below a fixed root directory.
type FileStore struct {
	root string
}

// NewFileStore creates a store rooted at dir. The directory is created
// lazily on the first write.
func NewFileStore(dir string) *FileStore {
	return &FileStore{root: dir}
}

// Write persists data at relPath below the store root, creating parent
// directories as needed, and returns the full path written.
func (s *FileStore) Write(relPath string, data []byte) (string, error) {
	path := filepath.Join(s.root, relPath)

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", fmt.Errorf("create directory for %s: %w", relPath, err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("write %s: %w", relPath, err)
	}

	return path, nil
}

// Root returns the directory the store writes below.
func (s *FileStore) Root() string {
	return s.root
}

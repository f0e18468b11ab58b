package fs

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/iamNilotpal/raftlog/internal/core/ports"
)

// LocalFileSystem implements ports.FileSystemPort on top of the os package.
type LocalFileSystem struct{}

func NewLocalFileSystem() *LocalFileSystem {
	return &LocalFileSystem{}
}

// Creates a directory and its parents if not present.
func (lfs *LocalFileSystem) CreateDir(dirPath string, permission os.FileMode) error {
	return EnsureDir(dirPath, permission)
}

// Returns the paths matching the glob pattern.
func (lfs *LocalFileSystem) ReadDir(pattern string) ([]string, error) {
	files, err := filepath.Glob(pattern)
	return files, err
}

// Exclusively creates a file for writing and syncs its directory entry.
// Fails if the file already exists.
func (lfs *LocalFileSystem) CreateFile(filePath string) (ports.File, error) {
	file, err := os.OpenFile(filePath, os.O_CREATE|os.O_EXCL|os.O_RDWR, 0644)
	if err != nil {
		return nil, err
	}

	if err := SyncDir(filepath.Dir(filePath)); err != nil {
		file.Close()
		return nil, err
	}
	return file, nil
}

// Opens an existing file for reading and writing.
func (lfs *LocalFileSystem) OpenFile(filePath string) (ports.File, error) {
	file, err := os.OpenFile(filePath, os.O_RDWR, 0644)
	if err != nil {
		return nil, err
	}
	return file, nil
}

// Opens an existing file for reading.
func (lfs *LocalFileSystem) OpenReadOnly(filePath string) (ports.File, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return nil, err
	}
	return file, nil
}

// Deletes a file.
func (lfs *LocalFileSystem) DeleteFile(filePath string) error {
	if err := os.Remove(filePath); err != nil {
		return fmt.Errorf("error deleting %s : %w", filePath, err)
	}
	return nil
}

// Checks if a file exists or not.
func (lfs *LocalFileSystem) Exists(file string) (bool, error) {
	_, err := os.Stat(file)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, os.ErrNotExist) {
		return false, nil
	}
	return false, err
}

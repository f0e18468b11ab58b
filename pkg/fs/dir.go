package fs

import (
	"fmt"
	"os"
)

// EnsureDir creates path and any missing parents. An existing directory is
// fine; anything else at path is an error.
func EnsureDir(path string, perm os.FileMode) error {
	if err := os.MkdirAll(path, perm); err != nil {
		return err
	}

	stat, err := os.Stat(path)
	if err != nil {
		return err
	}
	if !stat.IsDir() {
		return fmt.Errorf("%s exists but is not a directory", path)
	}
	return nil
}

// SyncDir fsyncs a directory so that files created in it survive a crash.
func SyncDir(path string) error {
	dir, err := os.Open(path)
	if err != nil {
		return err
	}
	defer dir.Close()

	if err := dir.Sync(); err != nil {
		return fmt.Errorf("failed to sync directory %s : %w", path, err)
	}
	return nil
}

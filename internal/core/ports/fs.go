package ports

import (
	"io"
	"os"
)

// File is the subset of *os.File the segment layer relies on. Keeping it an
// interface lets tests substitute handles that fail on demand.
type File interface {
	io.Reader
	io.Writer
	io.Seeker
	io.Closer

	Name() string
	Sync() error
	Truncate(size int64) error
	Stat() (os.FileInfo, error)
}

// FileSystemPort abstracts the file operations needed to keep a log directory.
type FileSystemPort interface {
	// CreateDir creates dirPath (and parents) if it does not exist.
	CreateDir(dirPath string, permission os.FileMode) error

	// ReadDir returns the paths matching a glob pattern.
	ReadDir(pattern string) ([]string, error)

	// CreateFile exclusively creates a new file for writing. It fails with an
	// error satisfying errors.Is(err, fs.ErrExist) if the path already exists.
	CreateFile(filePath string) (File, error)

	// OpenFile opens an existing file for reading and writing.
	OpenFile(filePath string) (File, error)

	// OpenReadOnly opens an existing file for reading.
	OpenReadOnly(filePath string) (File, error)

	DeleteFile(filePath string) error
	Exists(filePath string) (bool, error)
}

package sm

import (
	"fmt"
	"path/filepath"
	"sort"

	"github.com/iamNilotpal/raftlog/internal/core/ports"
	"github.com/iamNilotpal/raftlog/pkg/fs"
)

// VersionedFile is a segment file found on disk.
type VersionedFile struct {
	Version int64
	Path    string
}

// FileNames maps segment versions to paths inside one log directory.
type FileNames struct {
	fs     ports.FileSystemPort
	dir    string
	prefix string
}

func NewFileNames(fsys ports.FileSystemPort, dir, prefix string) *FileNames {
	return &FileNames{fs: fsys, dir: dir, prefix: prefix}
}

// PathFor returns the path of the segment with the given version.
func (f *FileNames) PathFor(version int64) string {
	return filepath.Join(f.dir, fs.GenerateSegmentName(f.prefix, version))
}

// List returns the segment files in the directory sorted by version. Files
// whose names do not parse are ignored.
func (f *FileNames) List() ([]VersionedFile, error) {
	paths, err := f.fs.ReadDir(filepath.Join(f.dir, f.prefix+"*"+fs.SegmentExtension))
	if err != nil {
		return nil, fmt.Errorf("failed to list segments in %s : %w", f.dir, err)
	}

	files := make([]VersionedFile, 0, len(paths))
	for _, path := range paths {
		version, ok := fs.ParseSegmentVersion(path, f.prefix)
		if !ok {
			continue
		}
		files = append(files, VersionedFile{Version: version, Path: path})
	}

	sort.SliceStable(files, func(i, j int) bool { return files[i].Version < files[j].Version })
	return files, nil
}

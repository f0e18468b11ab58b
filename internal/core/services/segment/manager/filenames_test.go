package sm

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/iamNilotpal/raftlog/pkg/fs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileNames_List(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"raft.log.10.log", "raft.log.2.log", "raft.log.x.log", "other.1.log", "raft.log.3.txt"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), nil, 0644))
	}

	names := NewFileNames(fs.NewLocalFileSystem(), dir, "raft.log.")
	files, err := names.List()
	require.NoError(t, err)

	require.Len(t, files, 2)
	assert.Equal(t, int64(2), files[0].Version)
	assert.Equal(t, int64(10), files[1].Version)
	assert.Equal(t, filepath.Join(dir, "raft.log.10.log"), files[1].Path)
	assert.Equal(t, filepath.Join(dir, "raft.log.7.log"), names.PathFor(7))
}

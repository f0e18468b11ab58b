package fs

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseSegmentVersion(t *testing.T) {
	tests := []struct {
		name    string
		path    string
		version int64
		ok      bool
	}{
		{"plain", "raft.log.0.log", 0, true},
		{"with dir", "/data/log/raft.log.42.log", 42, true},
		{"wrong prefix", "segment-1.log", 0, false},
		{"wrong extension", "raft.log.1.tmp", 0, false},
		{"no digits", "raft.log..log", 0, false},
		{"negative", "raft.log.-1.log", 0, false},
		{"letters", "raft.log.x1.log", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			version, ok := ParseSegmentVersion(tt.path, "raft.log.")
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.version, version)
		})
	}
}

func TestGenerateSegmentName_RoundTrip(t *testing.T) {
	name := GenerateSegmentName("raft.log.", 17)
	assert.Equal(t, "raft.log.17.log", name)

	version, ok := ParseSegmentVersion(name, "raft.log.")
	require.True(t, ok)
	assert.Equal(t, int64(17), version)
}

func TestLocalFileSystem_CreateFileIsExclusive(t *testing.T) {
	lfs := NewLocalFileSystem()
	path := filepath.Join(t.TempDir(), "a.log")

	f, err := lfs.CreateFile(path)
	require.NoError(t, err)
	require.NoError(t, f.Close())

	_, err = lfs.CreateFile(path)
	require.Error(t, err)
	assert.ErrorIs(t, err, os.ErrExist)

	exists, err := lfs.Exists(path)
	require.NoError(t, err)
	assert.True(t, exists)

	require.NoError(t, lfs.DeleteFile(path))
	exists, err = lfs.Exists(path)
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestEnsureDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "a", "b")
	require.NoError(t, EnsureDir(dir, 0755))
	require.NoError(t, EnsureDir(dir, 0755))
	require.NoError(t, SyncDir(dir))

	file := filepath.Join(dir, "f")
	require.NoError(t, os.WriteFile(file, []byte("x"), 0644))
	assert.Error(t, EnsureDir(file, 0755))
	assert.Error(t, SyncDir(filepath.Join(dir, "missing")))
}

package newfs_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arnegard/newfs"
)

func TestResolveRootPath(t *testing.T) {
	vol := newMountedVolume(t)
	attr, err := vol.GetAttr("/")
	require.NoError(t, err)
	assert.Equal(t, newfs.RootIno, attr.Ino)
	assert.Equal(t, newfs.Dir, attr.Ftype)
}

func TestRootAttrReportsUsageAndDoubleLink(t *testing.T) {
	vol := newMountedVolume(t)

	attr, err := vol.GetAttr("/")
	require.NoError(t, err)
	assert.Equal(t, 2, attr.Link)
	assert.Equal(t, 1, attr.Size) // root inode itself

	_, err = vol.Mkdir("/a")
	require.NoError(t, err)

	attr, err = vol.GetAttr("/")
	require.NoError(t, err)
	assert.Equal(t, 2, attr.Size) // root + /a now allocated
}

func TestResolveTrailingSlashIsTolerated(t *testing.T) {
	vol := newMountedVolume(t)
	_, err := vol.Mkdir("/a")
	require.NoError(t, err)

	attr, err := vol.GetAttr("/a/")
	require.NoError(t, err)
	assert.Equal(t, newfs.Dir, attr.Ftype)
}

func TestResolveThroughRegularFileFails(t *testing.T) {
	vol := newMountedVolume(t)
	_, err := vol.Mknod("/f")
	require.NoError(t, err)

	// spec.md §4.6: descending through a regular file sets is_find=false
	// at the resolver level (not an error in itself); GetAttr's own
	// precondition ("exists") then reports the target as not found.
	_, err = vol.GetAttr("/f/nested")
	assert.ErrorIs(t, err, newfs.ErrNotFound)
}

func TestMknodThroughRegularFileIsUnsupported(t *testing.T) {
	vol := newMountedVolume(t)
	_, err := vol.Mknod("/f")
	require.NoError(t, err)

	_, err = vol.Mknod("/f/nested")
	assert.ErrorIs(t, err, newfs.ErrUnsupported)
}

func TestResolveMissingIntermediateDirectoryFails(t *testing.T) {
	vol := newMountedVolume(t)
	_, err := vol.GetAttr("/nope/also-nope")
	assert.ErrorIs(t, err, newfs.ErrNotFound)
}

package newfs_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arnegard/newfs"
)

func TestFormatImageSizeMatchesFixedGeometry(t *testing.T) {
	image := newfs.FormatImage(testIOSize)
	expected := (newfs.SuperBlocks + newfs.InodeBitmapBlocks + newfs.DataBitmapBlocks + newfs.InodeTableBlocks + newfs.DataBlocks) * testIOSize * 2
	assert.Len(t, image, expected)
}

func TestFormatImageIsImmediatelyMountable(t *testing.T) {
	vol := newMountedVolume(t)
	attr, err := vol.GetAttr("/")
	require.NoError(t, err)
	assert.Equal(t, newfs.RootIno, attr.Ino)
	assert.Equal(t, 1, attr.Size) // root reports the usage counter: the pre-allocated root inode
	require.NoError(t, vol.Unmount())
}

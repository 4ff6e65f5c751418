package newfs_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arnegard/newfs"
	"github.com/arnegard/newfs/internal/block"
)

const testIOSize = 2048

// newMountedVolume builds a fresh formatted in-memory volume and mounts it,
// returning the Filesystem plus its backing image for round-trip tests.
func newMountedVolume(t *testing.T) *newfs.Filesystem {
	t.Helper()
	image := newfs.FormatImage(testIOSize)
	driver := block.NewMemDriverFromImage(image, testIOSize)
	vol := newfs.New(driver)
	require.NoError(t, vol.Mount())
	return vol
}

func TestMountFormattedVolumeHasEmptyRoot(t *testing.T) {
	vol := newMountedVolume(t)
	entries, err := vol.ReadDir("/")
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestMountUnformattedDeviceInitializesRoot(t *testing.T) {
	driver := block.NewMemDriver(testIOSize, 4096)
	vol := newfs.New(driver)
	require.NoError(t, vol.Mount())

	attr, err := vol.GetAttr("/")
	require.NoError(t, err)
	assert.Equal(t, newfs.Dir, attr.Ftype)
	assert.Equal(t, newfs.RootIno, attr.Ino)
}

func TestUnmountThenRemountPreservesTree(t *testing.T) {
	image := newfs.FormatImage(testIOSize)
	driver := block.NewMemDriverFromImage(image, testIOSize)
	vol := newfs.New(driver)
	require.NoError(t, vol.Mount())

	_, err := vol.Mkdir("/docs")
	require.NoError(t, err)
	_, err = vol.Mknod("/docs/readme.txt")
	require.NoError(t, err)
	n, err := vol.Write("/docs/readme.txt", 0, []byte("hello"))
	require.NoError(t, err)
	assert.Equal(t, 5, n)

	require.NoError(t, vol.Unmount())

	driver2 := block.NewMemDriverFromImage(image, testIOSize)
	vol2 := newfs.New(driver2)
	require.NoError(t, vol2.Mount())

	entries, err := vol2.ReadDir("/docs")
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "readme.txt", entries[0].Name)

	buf := make([]byte, 5)
	got, err := vol2.Read("/docs/readme.txt", 0, buf)
	require.NoError(t, err)
	assert.Equal(t, 5, got)
	assert.Equal(t, "hello", string(buf))

	require.NoError(t, vol2.Unmount())
}

func TestUnmountIsIdempotent(t *testing.T) {
	vol := newMountedVolume(t)
	require.NoError(t, vol.Unmount())
	require.NoError(t, vol.Unmount())
}

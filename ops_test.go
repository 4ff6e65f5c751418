package newfs_test

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arnegard/newfs"
)

func TestMkdirThenMknodAndReadDir(t *testing.T) {
	vol := newMountedVolume(t)

	_, err := vol.Mkdir("/a")
	require.NoError(t, err)
	_, err = vol.Mknod("/a/b.txt")
	require.NoError(t, err)

	entries, err := vol.ReadDir("/a")
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "b.txt", entries[0].Name)
	assert.Equal(t, newfs.RegFile, entries[0].Ftype)
}

func TestMkdirDuplicateNameFails(t *testing.T) {
	vol := newMountedVolume(t)
	_, err := vol.Mkdir("/a")
	require.NoError(t, err)
	_, err = vol.Mkdir("/a")
	assert.ErrorIs(t, err, newfs.ErrExists)
}

func TestMknodUnderMissingParentFails(t *testing.T) {
	vol := newMountedVolume(t)
	_, err := vol.Mknod("/missing/file.txt")
	assert.ErrorIs(t, err, newfs.ErrNotFound)
}

func TestMknodUnderRegularFileFails(t *testing.T) {
	vol := newMountedVolume(t)
	_, err := vol.Mknod("/f")
	require.NoError(t, err)
	_, err = vol.Mknod("/f/g")
	assert.ErrorIs(t, err, newfs.ErrUnsupported)
}

func TestUnlinkRemovesRegularFile(t *testing.T) {
	vol := newMountedVolume(t)
	_, err := vol.Mknod("/f")
	require.NoError(t, err)

	require.NoError(t, vol.Unlink("/f"))
	_, err = vol.GetAttr("/f")
	assert.ErrorIs(t, err, newfs.ErrNotFound)
}

func TestUnlinkOnDirectoryFails(t *testing.T) {
	vol := newMountedVolume(t)
	_, err := vol.Mkdir("/d")
	require.NoError(t, err)
	err = vol.Unlink("/d")
	assert.ErrorIs(t, err, newfs.ErrIsDir)
}

func TestRmdirRequiresEmptyDirectory(t *testing.T) {
	vol := newMountedVolume(t)
	_, err := vol.Mkdir("/d")
	require.NoError(t, err)
	_, err = vol.Mknod("/d/f")
	require.NoError(t, err)

	err = vol.Rmdir("/d")
	assert.Error(t, err)

	require.NoError(t, vol.Unlink("/d/f"))
	require.NoError(t, vol.Rmdir("/d"))
}

func TestRenameMovesEntryAcrossDirectories(t *testing.T) {
	vol := newMountedVolume(t)
	_, err := vol.Mkdir("/src")
	require.NoError(t, err)
	_, err = vol.Mkdir("/dst")
	require.NoError(t, err)
	_, err = vol.Mknod("/src/f")
	require.NoError(t, err)

	require.NoError(t, vol.Rename("/src/f", "/dst/f"))

	_, err = vol.GetAttr("/src/f")
	assert.ErrorIs(t, err, newfs.ErrNotFound)
	attr, err := vol.GetAttr("/dst/f")
	require.NoError(t, err)
	assert.Equal(t, newfs.RegFile, attr.Ftype)
}

func TestRenameOntoSamePathIsNoOp(t *testing.T) {
	vol := newMountedVolume(t)
	_, err := vol.Mknod("/f")
	require.NoError(t, err)
	_, err = vol.Write("/f", 0, []byte("hello"))
	require.NoError(t, err)

	require.NoError(t, vol.Rename("/f", "/f"))

	buf := make([]byte, 5)
	n, err := vol.Read("/f", 0, buf)
	require.NoError(t, err)
	assert.Equal(t, 5, n)
	assert.Equal(t, "hello", string(buf))
}

func TestRenameOntoExistingDirectoryFails(t *testing.T) {
	vol := newMountedVolume(t)
	_, err := vol.Mkdir("/a")
	require.NoError(t, err)
	_, err = vol.Mkdir("/b")
	require.NoError(t, err)

	err = vol.Rename("/a", "/b")
	assert.ErrorIs(t, err, newfs.ErrExists)
}

func TestWriteThenReadRoundTrip(t *testing.T) {
	vol := newMountedVolume(t)
	_, err := vol.Mknod("/f")
	require.NoError(t, err)

	payload := bytes.Repeat([]byte("0123456789"), 1000) // 10000 bytes, spans three 4096-byte blocks
	n, err := vol.Write("/f", 0, payload)
	require.NoError(t, err)
	assert.Equal(t, len(payload), n)

	buf := make([]byte, len(payload))
	got, err := vol.Read("/f", 0, buf)
	require.NoError(t, err)
	assert.Equal(t, len(payload), got)
	assert.Equal(t, payload, buf)
}

func TestWriteAtOffsetBeyondEndOfFileFails(t *testing.T) {
	vol := newMountedVolume(t)
	_, err := vol.Mknod("/f")
	require.NoError(t, err)

	// spec.md §4.7's precondition "off ≤ size" and §8's boundary law
	// ("writing at off > size returns SEEK") forbid punching a sparse hole
	// past the current end of a freshly-created (size 0) file.
	_, err = vol.Write("/f", 4096, []byte("tail"))
	assert.ErrorIs(t, err, newfs.ErrSeek)
}

func TestWriteBeyondSixBlocksFails(t *testing.T) {
	vol := newMountedVolume(t)
	_, err := vol.Mknod("/f")
	require.NoError(t, err)

	tooBig := make([]byte, 6*2*testIOSize+1) // one byte past six 4096-byte blocks
	_, err = vol.Write("/f", 0, tooBig)
	assert.ErrorIs(t, err, newfs.ErrNoSpace)
}

func TestTruncateShrinksAndFreesBlocks(t *testing.T) {
	vol := newMountedVolume(t)
	_, err := vol.Mknod("/f")
	require.NoError(t, err)

	_, err = vol.Write("/f", 0, bytes.Repeat([]byte{1}, 3*2048))
	require.NoError(t, err)

	require.NoError(t, vol.Truncate("/f", 100))

	attr, err := vol.GetAttr("/f")
	require.NoError(t, err)
	assert.Equal(t, 100, attr.Size)

	buf := make([]byte, 100)
	n, err := vol.Read("/f", 0, buf)
	require.NoError(t, err)
	assert.Equal(t, 100, n)
}

func TestReadPastEndOfFileReturnsZero(t *testing.T) {
	vol := newMountedVolume(t)
	_, err := vol.Mknod("/f")
	require.NoError(t, err)
	_, err = vol.Write("/f", 0, []byte("abc"))
	require.NoError(t, err)

	buf := make([]byte, 10)
	n, err := vol.Read("/f", 3, buf)
	require.NoError(t, err)
	assert.Equal(t, 0, n)
}

func TestReadNegativeOffsetFails(t *testing.T) {
	vol := newMountedVolume(t)
	_, err := vol.Mknod("/f")
	require.NoError(t, err)

	buf := make([]byte, 1)
	_, err = vol.Read("/f", -1, buf)
	assert.ErrorIs(t, err, newfs.ErrSeek)
}

func TestReadBeyondEndOfFileFails(t *testing.T) {
	vol := newMountedVolume(t)
	_, err := vol.Mknod("/f")
	require.NoError(t, err)
	_, err = vol.Write("/f", 0, []byte("abc"))
	require.NoError(t, err)

	buf := make([]byte, 1)
	_, err = vol.Read("/f", 4, buf)
	assert.ErrorIs(t, err, newfs.ErrSeek)
}

func TestWriteBeyondEndOfFileFails(t *testing.T) {
	vol := newMountedVolume(t)
	_, err := vol.Mknod("/f")
	require.NoError(t, err)
	_, err = vol.Write("/f", 0, []byte("abc"))
	require.NoError(t, err)

	_, err = vol.Write("/f", 4, []byte("d"))
	assert.ErrorIs(t, err, newfs.ErrSeek)
}

func TestWriteAtExactEndOfFileExtends(t *testing.T) {
	vol := newMountedVolume(t)
	_, err := vol.Mknod("/f")
	require.NoError(t, err)
	_, err = vol.Write("/f", 0, []byte("abc"))
	require.NoError(t, err)

	n, err := vol.Write("/f", 3, []byte("d"))
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	buf := make([]byte, 4)
	_, err = vol.Read("/f", 0, buf)
	require.NoError(t, err)
	assert.Equal(t, "abcd", string(buf))
}

func TestDirectoryGrowsAcrossMultipleDataBlocks(t *testing.T) {
	vol := newMountedVolume(t)
	require.NoError(t, mkdirAll(vol, "/d"))

	// One 4096-byte directory block holds 30 dentry records (136 bytes
	// each); create enough entries to force a second block to be allocated.
	const fileCount = 40
	for i := 0; i < fileCount; i++ {
		_, err := vol.Mknod("/d/" + indexName(i))
		require.NoError(t, err)
	}

	entries, err := vol.ReadDir("/d")
	require.NoError(t, err)
	assert.Len(t, entries, fileCount)
}

func TestDroppingAllEntriesReclaimsDirectoryBlocks(t *testing.T) {
	vol := newMountedVolume(t)
	require.NoError(t, mkdirAll(vol, "/d"))

	const fileCount = 20
	for i := 0; i < fileCount; i++ {
		_, err := vol.Mknod("/d/" + indexName(i))
		require.NoError(t, err)
	}
	for i := 0; i < fileCount; i++ {
		require.NoError(t, vol.Unlink("/d/"+indexName(i)))
	}

	entries, err := vol.ReadDir("/d")
	require.NoError(t, err)
	assert.Empty(t, entries)
	require.NoError(t, vol.Rmdir("/d"))
}

func mkdirAll(vol *newfs.Filesystem, path string) error {
	_, err := vol.Mkdir(path)
	return err
}

func indexName(i int) string {
	const digits = "0123456789abcdefghijklmnopqrstuvwxyz"
	return "f" + string(digits[i%len(digits)]) + string(digits[(i/len(digits))%len(digits)])
}

package newfs

import (
	"github.com/noxer/bytewriter"

	"github.com/arnegard/newfs/internal/bitmap"
)

// FormatImage builds a fresh volume image of the fixed compile-time
// geometry (spec.md §3) for a device whose I/O unit is ioSize bytes: an
// initialized super block, an inode bitmap with the root inode already
// marked in use, an empty data bitmap, an inode table whose first record
// is the root directory, and a zeroed data region — a volume ready for
// Mount without any further in-RAM initialization step. It writes
// sequentially through a bytewriter.Writer the same way disko's unixv1
// formatter lays out a fresh image region by region.
func FormatImage(ioSize int) []byte {
	super := NewDefaultSuperBlock(ioSize)
	super.SzUsage = 1 // the root inode is pre-allocated below
	total := int(super.Blocks) * super.BlockSize

	image := make([]byte, total)
	w := bytewriter.New(image)

	superBytes := encodeSuper(super.toOnDisk())
	superBlock := make([]byte, super.BlockSize)
	copy(superBlock, superBytes)
	_, _ = w.Write(superBlock)

	inoBitmap := bitmap.New(super.InoMax)
	rootBit, _ := inoBitmap.Allocate() // inode 0 is always the first bit allocated
	inoMapBlock := make([]byte, int(super.InoMapBlocks)*super.BlockSize)
	copy(inoMapBlock, inoBitmap.Bytes())
	_, _ = w.Write(inoMapBlock)

	_, _ = w.Write(make([]byte, int(super.DBMapBlocks)*super.BlockSize))

	root := newInode(rootBit, Dir)
	rootRecord := encodeInode(root.toOnDisk())
	inoTable := make([]byte, int(super.InoBlocks)*super.BlockSize)
	copy(inoTable[super.InodeRecordOffset(rootBit)-super.InoOffset*int64(super.BlockSize):], rootRecord)
	_, _ = w.Write(inoTable)

	_, _ = w.Write(make([]byte, int(super.DBBlocks)*super.BlockSize))

	return image
}

package newfs

// SuperBlock is the in-memory form of the device's super block (spec.md §3,
// §4.2). It is read once at mount (C2), re-checked via MagicNumber, and
// written back exactly once, at unmount.
type SuperBlock struct {
	IOSize    int   // driver's fixed I/O unit, in bytes
	BlockSize int   // always 2 * IOSize (spec.md §3)
	Blocks    int64 // total blocks described by this geometry (4096 by the fixed constants)

	// Region map, in blocks, in on-disk order: Super, InodeBitmap,
	// DataBitmap, InodeTable, DataRegion.
	SBOffset     int64
	SBBlocks     int64
	InoMapOffset int64
	InoMapBlocks int64
	DBMapOffset  int64
	DBMapBlocks  int64
	InoOffset    int64
	InoBlocks    int64
	DBOffset     int64
	DBBlocks     int64

	InoMax        int
	FileMaxBlocks int
	RootIno       int
	SzUsage       int

	// IsInit is set when no valid super block was found on disk: mount must
	// allocate and flush inode 0 so the root inode record actually exists
	// (spec.md §4.8).
	IsInit bool
}

// NewDefaultSuperBlock constructs the compile-time-fixed geometry (spec.md
// §3) for a device whose I/O unit is ioSize bytes. The region sizes — 1
// super block, 1 inode bitmap, 1 data bitmap, 256 inode-table blocks, 3837
// data blocks — are constants, not derived from the device's actual size;
// a device smaller than 4096 blocks simply won't have room for the data
// region this geometry describes.
func NewDefaultSuperBlock(ioSize int) *SuperBlock {
	blockSize := ioSize * 2
	sb := &SuperBlock{
		IOSize:    ioSize,
		BlockSize: blockSize,

		SBOffset:     0,
		SBBlocks:     SuperBlocks,
		InoMapOffset: SuperBlocks,
		InoMapBlocks: InodeBitmapBlocks,
		DBMapOffset:  SuperBlocks + InodeBitmapBlocks,
		DBMapBlocks:  DataBitmapBlocks,
		InoOffset:    SuperBlocks + InodeBitmapBlocks + DataBitmapBlocks,
		InoBlocks:    InodeTableBlocks,
		DBOffset:     SuperBlocks + InodeBitmapBlocks + DataBitmapBlocks + InodeTableBlocks,
		DBBlocks:     DataBlocks,

		InoMax:        MaxInodes,
		FileMaxBlocks: MaxDirectBlocks,
		RootIno:       RootIno,
	}
	sb.Blocks = SuperBlocks + InodeBitmapBlocks + DataBitmapBlocks + InodeTableBlocks + DataBlocks
	return sb
}

func (sb *SuperBlock) toOnDisk() *onDiskSuper {
	return &onDiskSuper{
		Magic:         MagicNumber,
		SBOffset:      int32(sb.SBOffset),
		SBBlocks:      int32(sb.SBBlocks),
		InoMapOffset:  int32(sb.InoMapOffset),
		InoMapBlocks:  int32(sb.InoMapBlocks),
		DBMapOffset:   int32(sb.DBMapOffset),
		DBMapBlocks:   int32(sb.DBMapBlocks),
		InoOffset:     int32(sb.InoOffset),
		InoBlocks:     int32(sb.InoBlocks),
		DBOffset:      int32(sb.DBOffset),
		DBBlocks:      int32(sb.DBBlocks),
		InoMax:        int32(sb.InoMax),
		FileMaxBlocks: int32(sb.FileMaxBlocks),
		RootIno:       int32(sb.RootIno),
		SzUsage:       int32(sb.SzUsage),
	}
}

func superFromOnDisk(ioSize int, d *onDiskSuper) *SuperBlock {
	return &SuperBlock{
		IOSize:    ioSize,
		BlockSize: ioSize * 2,
		Blocks:    int64(d.SBBlocks + d.InoMapBlocks + d.DBMapBlocks + d.InoBlocks + d.DBBlocks),

		SBOffset:     int64(d.SBOffset),
		SBBlocks:     int64(d.SBBlocks),
		InoMapOffset: int64(d.InoMapOffset),
		InoMapBlocks: int64(d.InoMapBlocks),
		DBMapOffset:  int64(d.DBMapOffset),
		DBMapBlocks:  int64(d.DBMapBlocks),
		InoOffset:    int64(d.InoOffset),
		InoBlocks:    int64(d.InoBlocks),
		DBOffset:     int64(d.DBOffset),
		DBBlocks:     int64(d.DBBlocks),

		InoMax:        int(d.InoMax),
		FileMaxBlocks: int(d.FileMaxBlocks),
		RootIno:       int(d.RootIno),
		SzUsage:       int(d.SzUsage),
	}
}

// MaxFileSize is the largest byte size a regular file may reach (invariant
// 6: size <= 6 * block_size).
func (sb *SuperBlock) MaxFileSize() int {
	return sb.FileMaxBlocks * sb.BlockSize
}

// DentriesPerBlock is the number of packed on-disk dentry records that fit
// in one data block.
func (sb *SuperBlock) DentriesPerBlock() int {
	return sb.BlockSize / onDiskDentrySize
}

// InodeRecordOffset computes the byte offset of inode `ino`'s on-disk
// record (spec.md §4.5 step 1): ino_offset + (ino/16)*block_size +
// (ino%16)*sizeof(on_disk_inode).
func (sb *SuperBlock) InodeRecordOffset(ino int) int64 {
	base := sb.InoOffset * int64(sb.BlockSize)
	return base + int64(ino/InodesPerBlock)*int64(sb.BlockSize) + int64(ino%InodesPerBlock)*onDiskInodeSize
}

// DataBlockOffset computes the byte offset of data-block number dno.
func (sb *SuperBlock) DataBlockOffset(dno int) int64 {
	return sb.DBOffset*int64(sb.BlockSize) + int64(dno)*int64(sb.BlockSize)
}

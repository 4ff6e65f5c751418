package newfs

import (
	"bytes"
	"encoding/binary"
	"fmt"
)

// On-disk record layouts (spec.md §3, §6). Every record is tightly packed
// and encoded little-endian; sizes below are the authoritative on-disk
// sizes used to compute offsets into the inode table and directory data
// blocks.

// onDiskSuper is the persisted form of the super block (spec.md §3: "region
// offsets and sizes, inode capacity, max file size in blocks, root inode
// number, usage counter").
type onDiskSuper struct {
	Magic         uint32
	SBOffset      int32
	SBBlocks      int32
	InoMapOffset  int32
	InoMapBlocks  int32
	DBMapOffset   int32
	DBMapBlocks   int32
	InoOffset     int32
	InoBlocks     int32
	DBOffset      int32
	DBBlocks      int32
	InoMax        int32
	FileMaxBlocks int32
	RootIno       int32
	SzUsage       int32
}

const onDiskSuperSize = 4 /* Magic */ + 4*14

// onDiskInode is the persisted form of one inode-table record (spec.md §3:
// "inode number; byte size; link count; file type; six direct block
// pointers (-1 denotes unassigned); directory-entry count").
type onDiskInode struct {
	Ino            uint32
	Size           int32
	Link           int32
	Ftype          int32
	BlockPointer   [MaxDirectBlocks]int32
	DirCnt         int32
}

const onDiskInodeSize = 4 + 4 + 4 + 4 + 4*MaxDirectBlocks + 4

// onDiskDentry is the persisted form of one directory entry (spec.md §3:
// "name (bounded by 128 bytes, NUL-terminated or truncated), inode number,
// file type").
type onDiskDentry struct {
	Name  [MaxNameLen]byte
	Ino   uint32
	Ftype int32
}

const onDiskDentrySize = MaxNameLen + 4 + 4

func encodeSuper(s *onDiskSuper) []byte {
	buf := new(bytes.Buffer)
	_ = binary.Write(buf, binary.LittleEndian, s)
	return buf.Bytes()
}

func decodeSuper(data []byte) (*onDiskSuper, error) {
	if len(data) < onDiskSuperSize {
		return nil, fmt.Errorf("newfs: super block record truncated: got %d bytes, need %d", len(data), onDiskSuperSize)
	}
	s := &onDiskSuper{}
	r := bytes.NewReader(data[:onDiskSuperSize])
	if err := binary.Read(r, binary.LittleEndian, s); err != nil {
		return nil, fmt.Errorf("newfs: decode super block: %w", err)
	}
	return s, nil
}

func encodeInode(i *onDiskInode) []byte {
	buf := new(bytes.Buffer)
	_ = binary.Write(buf, binary.LittleEndian, i)
	return buf.Bytes()
}

func decodeInode(data []byte) (*onDiskInode, error) {
	if len(data) < onDiskInodeSize {
		return nil, fmt.Errorf("newfs: inode record truncated: got %d bytes, need %d", len(data), onDiskInodeSize)
	}
	i := &onDiskInode{}
	r := bytes.NewReader(data[:onDiskInodeSize])
	if err := binary.Read(r, binary.LittleEndian, i); err != nil {
		return nil, fmt.Errorf("newfs: decode inode: %w", err)
	}
	return i, nil
}

func encodeDentry(d *onDiskDentry) []byte {
	buf := new(bytes.Buffer)
	_ = binary.Write(buf, binary.LittleEndian, d)
	return buf.Bytes()
}

func decodeDentry(data []byte) (*onDiskDentry, error) {
	if len(data) < onDiskDentrySize {
		return nil, fmt.Errorf("newfs: dentry record truncated: got %d bytes, need %d", len(data), onDiskDentrySize)
	}
	d := &onDiskDentry{}
	r := bytes.NewReader(data[:onDiskDentrySize])
	if err := binary.Read(r, binary.LittleEndian, d); err != nil {
		return nil, fmt.Errorf("newfs: decode dentry: %w", err)
	}
	return d, nil
}

// nameToBytes truncates or NUL-pads name into a fixed onDiskDentry.Name slot.
func nameToBytes(name string) [MaxNameLen]byte {
	var out [MaxNameLen]byte
	copy(out[:], name)
	return out
}

// bytesToName trims the NUL padding (and anything after the first NUL) off
// a raw dentry name field.
func bytesToName(raw [MaxNameLen]byte) string {
	for i, b := range raw {
		if b == 0 {
			return string(raw[:i])
		}
	}
	return string(raw[:])
}

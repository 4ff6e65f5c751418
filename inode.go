package newfs

// Inode is the in-memory form of one filesystem object (spec.md §3). Every
// on-disk field is mirrored here, plus the back-pointer to the dentry that
// names it, the head of the child list (directories only), and six owned
// data buffers (regular files only).
//
// Per spec.md §9's arena-style recommendation, the "back-pointer" and
// "child list" are just *Dentry fields rather than raw unsafe pointers:
// Go's GC makes the cycle-hazard concern moot, but the shape — one naming
// dentry, one child-list head — is kept exactly as specified so the object
// graph's invariants (spec.md §3 items 1–7) stay checkable by inspection.
type Inode struct {
	Ino    int
	Size   int
	Link   int
	Ftype  FileType
	Blocks [MaxDirectBlocks]int // -1 means unassigned

	DirCnt int

	// Naming is the single dentry that names this inode (invariant 7).
	Naming *Dentry

	// Children is the head of the singly linked, newest-first sibling list
	// (directories only; nil for regular files and empty directories).
	Children *Dentry

	// Data holds six owned block buffers for regular files (nil for
	// directories). A buffer exists only for an assigned block pointer;
	// the entry for an unassigned pointer is nil (no buffer is allocated
	// for it) and is never populated from disk (spec.md §9 item 3).
	Data [MaxDirectBlocks][]byte
}

func newInode(ino int, ftype FileType) *Inode {
	n := &Inode{
		Ino:   ino,
		Ftype: ftype,
		Link:  1,
	}
	for i := range n.Blocks {
		n.Blocks[i] = -1
	}
	return n
}

// IsDir reports whether this inode is a directory.
func (n *Inode) IsDir() bool { return n.Ftype == Dir }

// IsRegFile reports whether this inode is a regular file.
func (n *Inode) IsRegFile() bool { return n.Ftype == RegFile }

// Mode returns the POSIX-ish mode bits used by getattr and the FUSE bridge.
func (n *Inode) Mode() int {
	if n.IsDir() {
		return DefaultDirMode
	}
	return DefaultFileMode
}

func (n *Inode) toOnDisk() *onDiskInode {
	d := &onDiskInode{
		Ino:    uint32(n.Ino),
		Size:   int32(n.Size),
		Link:   int32(n.Link),
		Ftype:  int32(n.Ftype),
		DirCnt: int32(n.DirCnt),
	}
	for i, bp := range n.Blocks {
		d.BlockPointer[i] = int32(bp)
	}
	return d
}

func inodeFromOnDisk(d *onDiskInode) *Inode {
	n := &Inode{
		Ino:   int(d.Ino),
		Size:  int(d.Size),
		Link:  int(d.Link),
		Ftype: FileType(d.Ftype),
		// DirCnt is rebuilt from the child list as dentries are linked in
		// (spec.md §4.5 step 2); it is NOT trusted verbatim from disk.
	}
	for i, bp := range d.BlockPointer {
		n.Blocks[i] = int(bp)
	}
	return n
}

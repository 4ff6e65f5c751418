package newfs

// This file is the tree-mutation layer (spec.md §4.4): allocating and
// freeing inodes, data blocks, and directory entries. It implements the
// *intended* semantics of spec.md §9's Open Question 1 rather than the
// likely off-by-one in the original: freeing an inode clears exactly the
// inode bitmap bit for that inode, plus the data bitmap bit for every
// block pointer that is not -1 — never more, never fewer.

// allocInode reserves the next free inode number and returns a freshly
// constructed, unlinked Inode of the given type. The caller is
// responsible for attaching it to a Dentry.
func (fs *Filesystem) allocInode(ftype FileType) (*Inode, error) {
	bit, err := fs.inodeBitmap.Allocate()
	if err != nil {
		return nil, ErrNoSpace.Wrap(err)
	}
	fs.super.SzUsage++
	return newInode(bit, ftype), nil
}

// dropInode releases an inode's resources: every assigned data block (for
// a regular file) or every child's inode, recursively, faulting unloaded
// children in first (for a directory), and finally the inode number itself.
// It does not touch any dentry naming this inode; the caller removes that
// afterwards with dropDentry.
func (fs *Filesystem) dropInode(inode *Inode) error {
	if inode.IsDir() {
		for child := inode.Children; child != nil; {
			next := child.Next
			if err := fs.faultInIfNeeded(child); err != nil {
				return err
			}
			if err := fs.dropInode(child.Inode); err != nil {
				return err
			}
			child = next
		}
	}

	for _, bp := range inode.Blocks {
		if bp == -1 {
			continue
		}
		if err := fs.dataBitmap.Free(bp); err != nil {
			return ErrIO.Wrap(err)
		}
	}

	if err := fs.inodeBitmap.Free(inode.Ino); err != nil {
		return ErrIO.Wrap(err)
	}
	fs.super.SzUsage--
	return nil
}

// faultInIfNeeded loads a dentry's inode via the codec if it has not been
// visited yet. It is the tree-mutation layer's own narrow use of lazy
// loading; the general-purpose walk lives in the resolver (C6).
func (fs *Filesystem) faultInIfNeeded(d *Dentry) error {
	if d.loaded() {
		return nil
	}
	inode, err := fs.readInode(d, d.Ino)
	if err != nil {
		return err
	}
	d.Inode = inode
	return nil
}

// allocDataBlockFor reserves a free data block and assigns it to the
// first unassigned slot in inode.Blocks. It returns ErrNoSpace if the
// inode already holds the maximum of MaxDirectBlocks blocks (invariant 6),
// and bubbles up the data bitmap's own ErrNoSpace if the device is full.
func (fs *Filesystem) allocDataBlockFor(inode *Inode) (int, error) {
	slot := -1
	for i, bp := range inode.Blocks {
		if bp == -1 {
			slot = i
			break
		}
	}
	if slot == -1 {
		return -1, ErrNoSpace.WithMessage("inode already holds the maximum number of direct blocks")
	}

	bp, err := fs.dataBitmap.Allocate()
	if err != nil {
		return -1, ErrNoSpace.Wrap(err)
	}
	inode.Blocks[slot] = bp
	if inode.IsRegFile() {
		inode.Data[slot] = make([]byte, fs.super.BlockSize)
	}
	return slot, nil
}

// allocDentry creates a new directory entry named name under parent,
// bound to ino/ftype, allocating a fresh directory data block if none of
// parent's existing blocks have a free slot. It head-inserts the new
// dentry onto parent.Children and increments DirCnt.
func (fs *Filesystem) allocDentry(parent *Inode, name string, ino int, ftype FileType) (*Dentry, error) {
	capacity := fs.countAssignedBlocks(parent) * fs.super.DentriesPerBlock()
	if parent.DirCnt >= capacity {
		if _, err := fs.allocDataBlockFor(parent); err != nil {
			return nil, err
		}
	}

	d := &Dentry{Name: name, Ino: ino, Ftype: ftype, Parent: parent.Naming}
	d.Next = parent.Children
	parent.Children = d
	parent.DirCnt++
	return d, nil
}

// dropDentry removes the directory entry named name from parent's child
// list, decrementing DirCnt. When the removal drains an entire trailing
// data block's worth of entries, the now-empty trailing block is also
// reclaimed back to the data bitmap — an allowed extension noted in
// spec.md §9 item 4; a whole-directory removal still frees every block
// as dropInode walks it.
func (fs *Filesystem) dropDentry(parent *Inode, name string) error {
	var prev *Dentry
	cur := parent.Children
	for cur != nil {
		if cur.Name == name {
			break
		}
		prev = cur
		cur = cur.Next
	}
	if cur == nil {
		return ErrNotFound.WithMessage("dentry not found: " + name)
	}

	if prev == nil {
		parent.Children = cur.Next
	} else {
		prev.Next = cur.Next
	}
	parent.DirCnt--

	perBlock := fs.super.DentriesPerBlock()
	usedBlocks := fs.countAssignedBlocks(parent)
	neededBlocks := (parent.DirCnt + perBlock - 1) / perBlock
	for neededBlocks < usedBlocks {
		if err := fs.reclaimTrailingBlock(parent); err != nil {
			return err
		}
		usedBlocks--
	}

	return nil
}

func (fs *Filesystem) countAssignedBlocks(inode *Inode) int {
	n := 0
	for _, bp := range inode.Blocks {
		if bp != -1 {
			n++
		}
	}
	return n
}

// reclaimTrailingBlock frees the highest-indexed assigned block slot of
// inode back to the data bitmap.
func (fs *Filesystem) reclaimTrailingBlock(inode *Inode) error {
	slot := -1
	for i, bp := range inode.Blocks {
		if bp != -1 {
			slot = i
		}
	}
	if slot == -1 {
		return nil
	}
	bp := inode.Blocks[slot]
	if err := fs.dataBitmap.Free(bp); err != nil {
		return ErrIO.Wrap(err)
	}
	inode.Blocks[slot] = -1
	inode.Data[slot] = nil
	return nil
}

// findChild looks up name among parent's currently-loaded children list.
// It performs an exact, full-length comparison (spec.md §9 item 5's fix:
// the original's fixed-width buffer compare stopped mattering once ported
// to a Go string, but the intended semantics — match only on equal full
// names, never a prefix — are preserved explicitly here).
func findChild(parent *Inode, name string) *Dentry {
	for child := parent.Children; child != nil; child = child.Next {
		if len(child.Name) == len(name) && child.Name == name {
			return child
		}
	}
	return nil
}

package newfs

import (
	"github.com/hashicorp/go-multierror"
)

// emptyDentrySlot is the sentinel inode number written into an unused
// directory-entry slot: -1 reinterpreted as the on-disk uint32 field.
const emptyDentrySlot = uint32(0xFFFFFFFF)

// readInode is the Inode Codec's read path (spec.md §4.5): it reads the
// on-disk inode record for ino, and for a directory also reads every
// assigned data block and parses it into the child dentry list. It does
// NOT recurse into children's inodes — those stay unloaded until the
// resolver visits them (spec.md §9 item 3: only issue I/O for block
// pointers that are not -1).
func (fs *Filesystem) readInode(naming *Dentry, ino int) (*Inode, error) {
	raw, err := fs.device.Read(fs.super.InodeRecordOffset(ino), onDiskInodeSize)
	if err != nil {
		return nil, ErrIO.Wrap(err)
	}
	onDisk, err := decodeInode(raw)
	if err != nil {
		return nil, ErrIO.Wrap(err)
	}

	inode := inodeFromOnDisk(onDisk)
	inode.Naming = naming

	for i, bp := range inode.Blocks {
		if bp == -1 {
			continue
		}
		data, err := fs.device.Read(fs.super.DataBlockOffset(bp), fs.super.BlockSize)
		if err != nil {
			return nil, ErrIO.Wrap(err)
		}
		if inode.IsRegFile() {
			inode.Data[i] = data
			continue
		}
		if err := fs.linkChildrenFromBlock(inode, data); err != nil {
			return nil, err
		}
	}

	return inode, nil
}

// linkChildrenFromBlock decodes one directory data block into dentry
// records and head-inserts each occupied slot onto inode.Children,
// rebuilding DirCnt as it goes (spec.md §9 item 2: DirCnt is derived, not
// trusted verbatim from disk).
func (fs *Filesystem) linkChildrenFromBlock(inode *Inode, data []byte) error {
	perBlock := fs.super.DentriesPerBlock()
	for slot := 0; slot < perBlock; slot++ {
		start := slot * onDiskDentrySize
		end := start + onDiskDentrySize
		if end > len(data) {
			break
		}
		d, err := decodeDentry(data[start:end])
		if err != nil {
			return ErrIO.Wrap(err)
		}
		if d.Ino == emptyDentrySlot {
			continue
		}
		dentry := dentryFromOnDisk(d)
		dentry.Parent = inode.Naming
		dentry.Next = inode.Children
		inode.Children = dentry
		inode.DirCnt++
	}
	return nil
}

// syncInode is the Inode Codec's write path (spec.md §4.5, §4.8): it
// recursively flushes every loaded child first (post-order on data, so a
// child inode's own record is durable before its parent's directory block
// that names it), re-serializes this inode's directory blocks from the
// current Children list, writes every assigned data/directory block plus
// the inode record itself, and only then unloads each child dentry's
// in-memory inode (the dentries stay in the list) so a later lookup will
// fault those inodes back in from disk.
//
// Child errors are aggregated with go-multierror rather than aborting
// after the first failure, so one bad child never hides siblings that
// synced cleanly.
func (fs *Filesystem) syncInode(inode *Inode) error {
	if inode == nil {
		return nil
	}

	var errs *multierror.Error

	if inode.IsDir() {
		for child := inode.Children; child != nil; child = child.Next {
			if child.loaded() {
				if err := fs.syncInode(child.Inode); err != nil {
					errs = multierror.Append(errs, err)
				}
			}
		}
		if err := fs.flushDirectoryBlocks(inode); err != nil {
			errs = multierror.Append(errs, err)
		}
	} else {
		if err := fs.flushFileBlocks(inode); err != nil {
			errs = multierror.Append(errs, err)
		}
	}

	if err := fs.syncInodeRecord(inode); err != nil {
		errs = multierror.Append(errs, err)
	}

	if inode.IsDir() {
		for child := inode.Children; child != nil; child = child.Next {
			child.Inode = nil
		}
	}

	return errs.ErrorOrNil()
}

// syncInodeRecord writes just this inode's own on-disk record, without
// touching its data blocks or children.
func (fs *Filesystem) syncInodeRecord(inode *Inode) error {
	raw := encodeInode(inode.toOnDisk())
	if err := fs.device.Write(fs.super.InodeRecordOffset(inode.Ino), raw); err != nil {
		return ErrIO.Wrap(err)
	}
	return nil
}

// flushFileBlocks writes every assigned data block of a regular file's
// in-memory buffers back to its device offset.
func (fs *Filesystem) flushFileBlocks(inode *Inode) error {
	var errs *multierror.Error
	for i, bp := range inode.Blocks {
		if bp == -1 {
			continue
		}
		buf := inode.Data[i]
		if len(buf) < fs.super.BlockSize {
			padded := make([]byte, fs.super.BlockSize)
			copy(padded, buf)
			buf = padded
		}
		if err := fs.device.Write(fs.super.DataBlockOffset(bp), buf); err != nil {
			errs = multierror.Append(errs, ErrIO.Wrap(err))
		}
	}
	return errs.ErrorOrNil()
}

// flushDirectoryBlocks re-serializes a directory's child list into its
// assigned data blocks. Slots beyond the live children are zeroed to the
// empty sentinel so a later read does not resurrect stale entries.
func (fs *Filesystem) flushDirectoryBlocks(inode *Inode) error {
	perBlock := fs.super.DentriesPerBlock()

	children := make([]*Dentry, 0, inode.DirCnt)
	for child := inode.Children; child != nil; child = child.Next {
		children = append(children, child)
	}

	var errs *multierror.Error
	idx := 0
	for i, bp := range inode.Blocks {
		if bp == -1 {
			continue
		}
		buf := make([]byte, fs.super.BlockSize)
		for slot := 0; slot < perBlock; slot++ {
			start := slot * onDiskDentrySize
			var rec []byte
			if idx < len(children) {
				rec = encodeDentry(children[idx].toOnDisk())
				idx++
			} else {
				rec = encodeDentry(&onDiskDentry{Ino: emptyDentrySlot})
			}
			copy(buf[start:start+onDiskDentrySize], rec)
		}
		if err := fs.device.Write(fs.super.DataBlockOffset(bp), buf); err != nil {
			errs = multierror.Append(errs, ErrIO.Wrap(err))
		}
		_ = i
	}
	return errs.ErrorOrNil()
}

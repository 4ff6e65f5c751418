package newfs

import (
	"fmt"
	"io"
)

// Debug writes a human-readable dump of the mounted volume's geometry and
// live tree to w: the super block's region map, both bitmaps' occupancy
// counts, and a recursive listing of every loaded dentry starting at root.
// Modeled on the original implementation's newfs_debug dump.
func (fs *Filesystem) Debug(w io.Writer) error {
	if !fs.mounted {
		_, err := fmt.Fprintln(w, "newfs: not mounted")
		return err
	}

	fmt.Fprintf(w, "super: blocks=%d block_size=%d inode_max=%d\n", fs.super.Blocks, fs.super.BlockSize, fs.super.InoMax)
	fmt.Fprintf(w, "  super:      off=%d len=%d\n", fs.super.SBOffset, fs.super.SBBlocks)
	fmt.Fprintf(w, "  inode bmap: off=%d len=%d\n", fs.super.InoMapOffset, fs.super.InoMapBlocks)
	fmt.Fprintf(w, "  data bmap:  off=%d len=%d\n", fs.super.DBMapOffset, fs.super.DBMapBlocks)
	fmt.Fprintf(w, "  inode tab:  off=%d len=%d\n", fs.super.InoOffset, fs.super.InoBlocks)
	fmt.Fprintf(w, "  data reg:   off=%d len=%d\n", fs.super.DBOffset, fs.super.DBBlocks)

	usedInodes := 0
	for i := 0; i < fs.super.InoMax; i++ {
		if fs.inodeBitmap.Get(i) {
			usedInodes++
		}
	}
	usedBlocks := 0
	for i := 0; i < int(fs.super.DBBlocks); i++ {
		if fs.dataBitmap.Get(i) {
			usedBlocks++
		}
	}
	fmt.Fprintf(w, "inodes in use: %d/%d\n", usedInodes, fs.super.InoMax)
	fmt.Fprintf(w, "blocks in use: %d/%d\n", usedBlocks, fs.super.DBBlocks)

	fmt.Fprintln(w, "tree:")
	return fs.debugTree(w, fs.root, 0)
}

func (fs *Filesystem) debugTree(w io.Writer, d *Dentry, depth int) error {
	indent := ""
	for i := 0; i < depth; i++ {
		indent += "  "
	}

	if !d.loaded() {
		fmt.Fprintf(w, "%s%s (ino=%d, not loaded)\n", indent, d.Name, d.Ino)
		return nil
	}

	fmt.Fprintf(w, "%s%s (ino=%d, type=%s, size=%d, link=%d)\n", indent, d.Name, d.Ino, d.Ftype, d.Inode.Size, d.Inode.Link)
	if !d.Ftype.isDirType() {
		return nil
	}
	for child := d.Inode.Children; child != nil; child = child.Next {
		if err := fs.debugTree(w, child, depth+1); err != nil {
			return err
		}
	}
	return nil
}

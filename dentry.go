package newfs

// Dentry is the in-memory form of one directory entry (spec.md §3): a name
// bound to an inode number, plus the links needed to walk and rebuild the
// tree — the owning in-memory inode (once loaded), the parent dentry, and
// the next sibling in a head-inserted, newest-first singly linked list.
//
// Per spec.md §9, loading is lazy: a dentry born from a directory listing
// knows its Ino and Ftype immediately, but its Inode field stays nil until
// the resolver (C6) visits it and faults the inode in via the codec (C5).
type Dentry struct {
	Name  string
	Ino   int
	Ftype FileType

	Inode  *Inode // nil until faulted in by the resolver
	Parent *Dentry
	Next   *Dentry // next sibling in the newest-first child list
}

// loaded reports whether this dentry's inode has been faulted in yet.
func (d *Dentry) loaded() bool {
	return d.Inode != nil
}

func newDentry(name string, ftype FileType) *Dentry {
	return &Dentry{Name: name, Ftype: ftype, Ino: -1}
}

func (d *Dentry) toOnDisk() *onDiskDentry {
	return &onDiskDentry{
		Name:  nameToBytes(d.Name),
		Ino:   uint32(d.Ino),
		Ftype: int32(d.Ftype),
	}
}

func dentryFromOnDisk(d *onDiskDentry) *Dentry {
	return &Dentry{
		Name:  bytesToName(d.Name),
		Ino:   int(d.Ino),
		Ftype: FileType(d.Ftype),
	}
}

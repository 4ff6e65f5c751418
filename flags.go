package newfs

// File type and permission bits, in the traditional Unix layout. This
// filesystem only ever sets S_IFDIR, S_IFREG, the owner/group/other read
// bits, the owner write bit, and (for directories) the owner/group/other
// execute bits (spec.md §1 excludes finer-grained permissions); the rest
// of the constants exist so Mode() values round-trip through os.FileMode
// and the FUSE bridge's standard bit layout without surprises.
const (
	S_IXOTH = 1 << iota
	S_IWOTH = 1 << iota
	S_IROTH = 1 << iota
	S_IXGRP = 1 << iota
	S_IWGRP = 1 << iota
	S_IRGRP = 1 << iota
	S_IXUSR = 1 << iota
	S_IWUSR = 1 << iota
	S_IRUSR = 1 << iota
	S_ISVTX = 1 << iota
	S_ISGID = 1 << iota
	S_ISUID = 1 << iota
	S_IFIFO = 1 << iota
	S_IFCHR = 1 << iota
	S_IFDIR = 1 << iota
	S_IFREG = 1 << iota
)

const S_IFMT = S_IFDIR | S_IFREG

const S_IRWXO = S_IXOTH | S_IWOTH | S_IROTH
const S_IRWXG = S_IXGRP | S_IWGRP | S_IRGRP
const S_IRWXU = S_IXUSR | S_IWUSR | S_IRUSR

// DefaultFileMode and DefaultDirMode are applied to every mknod/mkdir call;
// mode bits passed in by the caller beyond the type bit are not honored
// (spec.md §1 non-goal: "permissions beyond a fixed mode").
const DefaultFileMode = S_IFREG | S_IRUSR | S_IWUSR | S_IRGRP | S_IROTH
const DefaultDirMode = S_IFDIR | S_IRWXU | S_IRGRP | S_IXGRP | S_IROTH | S_IXOTH

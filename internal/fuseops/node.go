// Package fuseops is the FUSE bridge (spec.md §6): it adapts the engine's
// path-oriented Filesystem operations to github.com/hanwen/go-fuse/v2's
// InodeEmbedder tree API, translating engine sentinel errors to
// syscall.Errno and engine Attr values to fuse.AttrOut/EntryOut.
//
// Every Node method recomputes the full path from this node's position in
// the go-fuse tree rather than caching one of its own: the engine is
// path-oriented end to end, and go-fuse already maintains the tree
// structure for us via Inode.Path.
package fuseops

import (
	"context"
	"syscall"

	"github.com/hanwen/go-fuse/v2/fs"
	"github.com/hanwen/go-fuse/v2/fuse"

	"github.com/arnegard/newfs"
)

// Node is the go-fuse InodeEmbedder for every file and directory newfs
// exposes. A single Node type serves both regular files and directories;
// which one a given Node behaves as is decided entirely by what the
// underlying path resolves to in the engine.
type Node struct {
	fs.Inode

	vol *newfs.Filesystem
}

var (
	_ = (fs.NodeLookuper)((*Node)(nil))
	_ = (fs.NodeGetattrer)((*Node)(nil))
	_ = (fs.NodeSetattrer)((*Node)(nil))
	_ = (fs.NodeOpener)((*Node)(nil))
	_ = (fs.NodeOpendirer)((*Node)(nil))
	_ = (fs.NodeReaddirer)((*Node)(nil))
	_ = (fs.NodeReader)((*Node)(nil))
	_ = (fs.NodeWriter)((*Node)(nil))
	_ = (fs.NodeMkdirer)((*Node)(nil))
	_ = (fs.NodeMknoder)((*Node)(nil))
	_ = (fs.NodeCreater)((*Node)(nil))
	_ = (fs.NodeUnlinker)((*Node)(nil))
	_ = (fs.NodeRmdirer)((*Node)(nil))
	_ = (fs.NodeRenamer)((*Node)(nil))
	_ = (fs.NodeAccesser)((*Node)(nil))
)

// Root constructs the node that serves as the FUSE tree's root; vol must
// already be mounted.
func Root(vol *newfs.Filesystem) *Node {
	return &Node{vol: vol}
}

// enginePath reconstructs the absolute engine path for this node, joining
// it with an optional trailing child name.
func (n *Node) enginePath(child string) string {
	segments := n.Path(nil)
	if segments == "" {
		if child == "" {
			return "/"
		}
		return "/" + child
	}
	if child == "" {
		return "/" + segments
	}
	return "/" + segments + "/" + child
}

// toErrno translates an engine sentinel error to the syscall.Errno the
// FUSE kernel module expects. A nil error becomes fs.OK (0).
func toErrno(err error) syscall.Errno {
	if err == nil {
		return fs.OK
	}
	de, ok := err.(*newfs.DriverError)
	if !ok {
		return syscall.EIO
	}
	return de.ErrnoCode
}

func fillAttr(attr *newfs.Attr, out *fuse.Attr) {
	out.Ino = uint64(attr.Ino)
	out.Size = uint64(attr.Size)
	out.Mode = uint32(attr.Mode)
	out.Nlink = uint32(attr.Link)
	if attr.Ftype == newfs.Dir {
		out.Mode |= syscall.S_IFDIR
	} else {
		out.Mode |= syscall.S_IFREG
	}
}

func stableAttrFor(attr *newfs.Attr) fs.StableAttr {
	mode := uint32(syscall.S_IFREG)
	if attr.Ftype == newfs.Dir {
		mode = syscall.S_IFDIR
	}
	return fs.StableAttr{Mode: mode, Ino: uint64(attr.Ino)}
}

// Lookup resolves a single child name under this directory node.
func (n *Node) Lookup(ctx context.Context, name string, out *fuse.EntryOut) (*fs.Inode, syscall.Errno) {
	attr, err := n.vol.GetAttr(n.enginePath(name))
	if err != nil {
		return nil, toErrno(err)
	}
	fillAttr(attr, &out.Attr)
	child := &Node{vol: n.vol}
	return n.NewInode(ctx, child, stableAttrFor(attr)), fs.OK
}

// Getattr reports this node's metadata.
func (n *Node) Getattr(ctx context.Context, f fs.FileHandle, out *fuse.AttrOut) syscall.Errno {
	attr, err := n.vol.GetAttr(n.enginePath(""))
	if err != nil {
		return toErrno(err)
	}
	fillAttr(attr, &out.Attr)
	return fs.OK
}

// Setattr supports truncation; every other attribute change is a no-op
// success, since inodes carry no owner, permission, or timestamp fields
// beyond the fixed default mode (spec.md §4.7 Non-goals).
func (n *Node) Setattr(ctx context.Context, f fs.FileHandle, in *fuse.SetAttrIn, out *fuse.AttrOut) syscall.Errno {
	if in.Valid&fuse.FATTR_SIZE != 0 {
		if err := n.vol.Truncate(n.enginePath(""), int(in.Size)); err != nil {
			return toErrno(err)
		}
	}
	attr, err := n.vol.GetAttr(n.enginePath(""))
	if err != nil {
		return toErrno(err)
	}
	fillAttr(attr, &out.Attr)
	return fs.OK
}

// Opendir validates that this node is a directory.
func (n *Node) Opendir(ctx context.Context) syscall.Errno {
	return toErrno(n.vol.Opendir(n.enginePath("")))
}

// Open validates that this node is a regular file. newfs keeps no
// per-handle state, so no FileHandle is returned.
func (n *Node) Open(ctx context.Context, flags uint32) (fs.FileHandle, uint32, syscall.Errno) {
	return nil, 0, toErrno(n.vol.Open(n.enginePath("")))
}

// Access always succeeds once the path resolves; there are no permission
// bits to deny against.
func (n *Node) Access(ctx context.Context, mask uint32) syscall.Errno {
	return toErrno(n.vol.Access(n.enginePath("")))
}

// dirStream adapts a []newfs.DirEntry slice to go-fuse's DirStream
// protocol.
type dirStream struct {
	entries []newfs.DirEntry
	pos     int
}

func (s *dirStream) HasNext() bool { return s.pos < len(s.entries) }

func (s *dirStream) Next() (fuse.DirEntry, syscall.Errno) {
	e := s.entries[s.pos]
	s.pos++
	mode := uint32(syscall.S_IFREG)
	if e.Ftype == newfs.Dir {
		mode = syscall.S_IFDIR
	}
	return fuse.DirEntry{Name: e.Name, Ino: uint64(e.Ino), Mode: mode}, fs.OK
}

func (s *dirStream) Close() {}

// Readdir lists the live children of this directory.
func (n *Node) Readdir(ctx context.Context) (fs.DirStream, syscall.Errno) {
	entries, err := n.vol.ReadDir(n.enginePath(""))
	if err != nil {
		return nil, toErrno(err)
	}
	return &dirStream{entries: entries}, fs.OK
}

// Read copies file contents at the given offset.
func (n *Node) Read(ctx context.Context, f fs.FileHandle, dest []byte, off int64) (fuse.ReadResult, syscall.Errno) {
	got, err := n.vol.Read(n.enginePath(""), int(off), dest)
	if err != nil {
		return nil, toErrno(err)
	}
	return fuse.ReadResultData(dest[:got]), fs.OK
}

// Write stores file contents at the given offset.
func (n *Node) Write(ctx context.Context, f fs.FileHandle, data []byte, off int64) (uint32, syscall.Errno) {
	written, err := n.vol.Write(n.enginePath(""), int(off), data)
	if err != nil {
		return uint32(written), toErrno(err)
	}
	return uint32(written), fs.OK
}

// Mkdir creates a child directory.
func (n *Node) Mkdir(ctx context.Context, name string, mode uint32, out *fuse.EntryOut) (*fs.Inode, syscall.Errno) {
	attr, err := n.vol.Mkdir(n.enginePath(name))
	if err != nil {
		return nil, toErrno(err)
	}
	fillAttr(attr, &out.Attr)
	child := &Node{vol: n.vol}
	return n.NewInode(ctx, child, stableAttrFor(attr)), fs.OK
}

// Mknod creates a child regular file.
func (n *Node) Mknod(ctx context.Context, name string, mode uint32, dev uint32, out *fuse.EntryOut) (*fs.Inode, syscall.Errno) {
	attr, err := n.vol.Mknod(n.enginePath(name))
	if err != nil {
		return nil, toErrno(err)
	}
	fillAttr(attr, &out.Attr)
	child := &Node{vol: n.vol}
	return n.NewInode(ctx, child, stableAttrFor(attr)), fs.OK
}

// Create creates and opens a child regular file in one step.
func (n *Node) Create(ctx context.Context, name string, flags uint32, mode uint32, out *fuse.EntryOut) (*fs.Inode, fs.FileHandle, uint32, syscall.Errno) {
	attr, err := n.vol.Mknod(n.enginePath(name))
	if err != nil {
		return nil, nil, 0, toErrno(err)
	}
	fillAttr(attr, &out.Attr)
	child := &Node{vol: n.vol}
	inode := n.NewInode(ctx, child, stableAttrFor(attr))
	return inode, nil, 0, fs.OK
}

// Unlink removes a regular-file child.
func (n *Node) Unlink(ctx context.Context, name string) syscall.Errno {
	return toErrno(n.vol.Unlink(n.enginePath(name)))
}

// Rmdir removes an empty directory child.
func (n *Node) Rmdir(ctx context.Context, name string) syscall.Errno {
	return toErrno(n.vol.Rmdir(n.enginePath(name)))
}

// Rename moves a child from this directory to newParent.
func (n *Node) Rename(ctx context.Context, name string, newParent fs.InodeEmbedder, newName string, flags uint32) syscall.Errno {
	newNode, ok := newParent.(*Node)
	if !ok {
		return syscall.EXDEV
	}
	return toErrno(n.vol.Rename(n.enginePath(name), newNode.enginePath(newName)))
}

// Bridge mounts vol at mountpoint using go-fuse's tree API and returns the
// running server, or any error raised during mount setup. It does not
// block; the caller waits on the server (server.Wait) until the kernel
// unmounts it (e.g. via fusermount -u or process signal).
func Bridge(vol *newfs.Filesystem, mountpoint string, opts *fs.Options) (*fuse.Server, error) {
	return fs.Mount(mountpoint, Root(vol), opts)
}
